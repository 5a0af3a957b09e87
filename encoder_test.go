// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herryqg/pdf-parser/oplog"
)

func TestEncode_Simple(t *testing.T) {
	fd := winAnsiFont(t, "F1")
	out, err := Encode(fd, "Hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), out)
}

func TestEncode_RoundTrip(t *testing.T) {
	m, err := parseCMap([]byte(twoByteCMap))
	require.NoError(t, err)
	fd := &FontDescriptor{Name: "C0", Kind: CompositeFont, cm: m}

	text := "Hellmn"
	out, err := Encode(fd, text)
	require.NoError(t, err)
	assert.Equal(t, text, fd.Decode(out))
}

func TestEncode_ReportsEveryMissingChar(t *testing.T) {
	fd := winAnsiFont(t, "F1")
	_, err := Encode(fd, "a日b本c")
	require.Error(t, err)

	var missing *MissingCharsError
	require.ErrorAs(t, err, &missing)
	require.Len(t, missing.Missing, 2, "all missing characters collected in one pass")
	assert.Equal(t, '日', missing.Missing[0].Char)
	assert.Equal(t, '本', missing.Missing[1].Char)
	assert.Contains(t, err.Error(), "U+65E5")
}

func TestEncodeAutoInsert(t *testing.T) {
	m, err := parseCMap([]byte(oneByteCMap))
	require.NoError(t, err)
	fd := &FontDescriptor{Name: "F1", Kind: SimpleFont, cm: m}

	log := oplog.New(1)
	out, inserted, err := EncodeAutoInsert(fd, "ABΩ", 0xB0, log)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x42, 0xB0}, out)

	require.Len(t, inserted, 1)
	assert.Equal(t, uint16(0xB0), inserted[0].Code)
	assert.Equal(t, 'Ω', inserted[0].Rune)

	pending := fd.PendingInserts()
	require.Len(t, pending, 1)
	assert.Equal(t, inserted[0], pending[0])
	assert.True(t, log.Contains("0xB0"))

	// The reservation is permanent: a later plain encode succeeds and the
	// round-trip law holds for the extended map.
	again, err := Encode(fd, "ABΩ")
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, "ABΩ", fd.Decode(again))
}

func TestEncodeAutoInsert_TwoByteWidth(t *testing.T) {
	m, err := parseCMap([]byte(twoByteCMap))
	require.NoError(t, err)
	fd := &FontDescriptor{Name: "C0", Kind: CompositeFont, cm: m}

	out, inserted, err := EncodeAutoInsert(fd, "HΩ", 0xB0, oplog.New(0))
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, []byte{0x00, 0x41, 0x00, 0xB0}, out)
}
