// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import "sort"

// Patch is one pending byte-range substitution. Patches are computed for
// every selected match before any byte moves, then applied in one pass, so a
// failed validation leaves the buffer untouched.
type Patch struct {
	Start int
	End   int
	Repl  []byte
}

// escapeString renders payload bytes in string-literal syntax, escaping the
// delimiters and control bytes that would break the literal.
func escapeString(b []byte) []byte {
	out := make([]byte, 0, len(b)+4)
	for _, c := range b {
		switch c {
		case '(':
			out = append(out, '\\', '(')
		case ')':
			out = append(out, '\\', ')')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		default:
			out = append(out, c)
		}
	}
	return out
}

// BuildPatches computes the substitutions that replace one match with the
// encoded bytes. The full replacement lands in the match's first segment;
// later segments are emptied so a match spanning several operands collapses
// into one. Kerning numbers between segments stay untouched.
func BuildPatches(m *TextMatch, encoded []byte, tokens []ContentToken) ([]Patch, error) {
	if len(m.Segments) == 0 {
		return nil, &StreamRewriteError{Offset: 0, Reason: "match has no segments"}
	}
	patches := make([]Patch, 0, len(m.Segments))
	for i, seg := range m.Segments {
		if seg.Token >= len(tokens) || seg.Str >= len(tokens[seg.Token].Strings) {
			return nil, &StreamRewriteError{Offset: seg.Start, Reason: "segment points outside token list"}
		}
		op := &tokens[seg.Token].Strings[seg.Str]
		if seg.Start < op.Start || seg.End > op.End {
			return nil, &StreamRewriteError{Offset: seg.Start, Reason: "segment exceeds operand bounds"}
		}
		var repl []byte
		if i == 0 {
			repl = op.encodePayload(encoded)
		}
		patches = append(patches, Patch{Start: seg.Start, End: seg.End, Repl: repl})
	}
	return patches, nil
}

// ApplyPatches validates all patches against the buffer and applies them in
// reverse offset order so earlier offsets stay valid. Any overlap or
// out-of-bounds range aborts with StreamRewriteError before the first write.
func ApplyPatches(stream []byte, patches []Patch) ([]byte, error) {
	if len(patches) == 0 {
		out := make([]byte, len(stream))
		copy(out, stream)
		return out, nil
	}
	sorted := make([]Patch, len(patches))
	copy(sorted, patches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i, p := range sorted {
		if p.Start < 0 || p.End < p.Start || p.End > len(stream) {
			return nil, &StreamRewriteError{Offset: p.Start, Reason: "range outside buffer"}
		}
		if i > 0 && p.Start < sorted[i-1].End {
			return nil, &StreamRewriteError{Offset: p.Start, Reason: "overlapping patch ranges"}
		}
	}
	out := make([]byte, len(stream))
	copy(out, stream)
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		tail := append([]byte{}, out[p.End:]...)
		out = append(out[:p.Start], p.Repl...)
		out = append(out, tail...)
	}
	return out, nil
}
