// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanContent_SimpleShow(t *testing.T) {
	data := []byte("BT /F1 12 Tf (Hello) Tj ET")
	tokens := ScanContent(data)
	require.Len(t, tokens, 4)

	assert.Equal(t, "BT", tokens[0].Op)

	tf := tokens[1]
	assert.Equal(t, "Tf", tf.Op)
	assert.Equal(t, "F1", tf.Name)
	assert.Equal(t, []float64{12}, tf.Numbers)

	tj := tokens[2]
	assert.Equal(t, "Tj", tj.Op)
	require.Len(t, tj.Strings, 1)
	assert.Equal(t, []byte("Hello"), tj.Strings[0].Bytes)
	assert.True(t, tj.IsShowText())

	assert.Equal(t, "ET", tokens[3].Op)
}

func TestScanContent_ArrayFormWithKerning(t *testing.T) {
	data := []byte("[(He) -120 (llo)] TJ")
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)

	tj := tokens[0]
	assert.Equal(t, "TJ", tj.Op)
	require.Len(t, tj.Strings, 2)
	assert.Equal(t, []byte("He"), tj.Strings[0].Bytes)
	assert.Equal(t, []byte("llo"), tj.Strings[1].Bytes)
	assert.Equal(t, []float64{-120}, tj.Numbers)
}

func TestReadLiteral_Escapes(t *testing.T) {
	data := []byte(`(\(a\)b)`)
	tokens := ScanContent(append(data, []byte(" Tj")...))
	require.Len(t, tokens, 1)
	op := tokens[0].Strings[0]

	assert.Equal(t, []byte("(a)b"), op.Bytes)
	// Each payload byte points at the source position of its sequence.
	assert.Equal(t, []int{1, 3, 4, 6}, op.Offsets)
	assert.Equal(t, 0, op.Start)
	assert.Equal(t, 8, op.End)
	assert.Equal(t, 7, op.PayloadEnd)
}

func TestReadLiteral_OctalAndControls(t *testing.T) {
	data := []byte(`(\101B\n\t) Tj`)
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)
	op := tokens[0].Strings[0]
	assert.Equal(t, []byte("AB\n\t"), op.Bytes)
	assert.Equal(t, []int{1, 5, 6, 8}, op.Offsets)
}

func TestReadLiteral_BalancedParens(t *testing.T) {
	data := []byte("(a(b)c) Tj")
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)
	assert.Equal(t, []byte("a(b)c"), tokens[0].Strings[0].Bytes)
}

func TestReadLiteral_LineContinuation(t *testing.T) {
	data := []byte("(ab\\\ncd) Tj")
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)
	assert.Equal(t, []byte("abcd"), tokens[0].Strings[0].Bytes)
}

func TestReadHexString(t *testing.T) {
	data := []byte("<48454C> Tj")
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)
	op := tokens[0].Strings[0]
	assert.True(t, op.Hex)
	assert.Equal(t, []byte("HEL"), op.Bytes)
	assert.Equal(t, []int{1, 3, 5}, op.Offsets)
}

func TestReadHexString_OddDigitImpliesZeroNibble(t *testing.T) {
	data := []byte("<484> Tj")
	tokens := ScanContent(data)
	require.Len(t, tokens, 1)
	assert.Equal(t, []byte{0x48, 0x40}, tokens[0].Strings[0].Bytes)
}

func TestScanContent_SkipsDictAndComments(t *testing.T) {
	data := []byte("% comment with (parens)\n/Span << /ActualText (hidden) >> BDC (shown) Tj EMC")
	tokens := ScanContent(data)
	require.Len(t, tokens, 3)
	assert.Equal(t, "BDC", tokens[0].Op)
	assert.Empty(t, tokens[0].Strings, "dict strings are not payloads")
	assert.Equal(t, "Tj", tokens[1].Op)
	assert.Equal(t, []byte("shown"), tokens[1].Strings[0].Bytes)
	assert.Equal(t, "EMC", tokens[2].Op)
}

func TestScanner_Restartable(t *testing.T) {
	sc := NewContentScanner([]byte("(a) Tj (b) Tj"))
	first, ok := sc.Next()
	require.True(t, ok)
	sc.Reset()
	again, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)
}

// Tokenizing must be lossless: re-reading every operand's source range with
// the same unescaping yields the payload the scanner reported, and applying
// an empty patch set reproduces the buffer exactly.
func TestScanContent_Lossless(t *testing.T) {
	data := []byte("BT /F1 9 Tf [(He) -20 (l\\(l\\)o)] TJ <414243> Tj (x\\101) ' ET")
	tokens := ScanContent(data)
	for _, tok := range tokens {
		for _, op := range tok.Strings {
			require.GreaterOrEqual(t, op.Start, 0)
			require.LessOrEqual(t, op.End, len(data))
			reread := ScanContent(append(append([]byte{}, data[op.Start:op.End]...), []byte(" Tj")...))
			require.Len(t, reread, 1)
			assert.Equal(t, op.Bytes, reread[0].Strings[0].Bytes)
		}
	}

	out, err := ApplyPatches(data, nil)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestSourceRange(t *testing.T) {
	tokens := ScanContent([]byte(`(a\(bc) Tj`))
	require.Len(t, tokens, 1)
	op := tokens[0].Strings[0]
	require.Equal(t, []byte("a(bc"), op.Bytes)

	start, end := op.sourceRange(1, 3)
	assert.Equal(t, 2, start, "escape sequence start")
	assert.Equal(t, 5, end)

	start, end = op.sourceRange(3, 4)
	assert.Equal(t, 5, start)
	assert.Equal(t, op.PayloadEnd, end)
}
