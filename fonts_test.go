// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_EmbeddedCMap(t *testing.T) {
	r := NewResolver()
	fd, err := r.Resolve(FontData{Name: "C0", BaseFont: "ABCDEF+Mincho", ToUnicode: []byte(twoByteCMap)})
	require.NoError(t, err)
	assert.Equal(t, CompositeFont, fd.Kind)
	assert.Equal(t, 2, fd.ByteWidth())
	assert.Equal(t, "C0 (ABCDEF+Mincho)", fd.DisplayName())
}

func TestResolver_NamedEncoding(t *testing.T) {
	r := NewResolver()
	fd, err := r.Resolve(FontData{Name: "F1", Encoding: "WinAnsiEncoding"})
	require.NoError(t, err)
	assert.Equal(t, SimpleFont, fd.Kind)
	assert.Equal(t, 1, fd.ByteWidth())
	assert.Equal(t, "Hello", fd.Decode([]byte("Hello")))
	assert.Equal(t, "•", fd.Decode([]byte{0x95}))
}

func TestResolver_MacRoman(t *testing.T) {
	r := NewResolver()
	fd, err := r.Resolve(FontData{Name: "F1", Encoding: "MacRomanEncoding"})
	require.NoError(t, err)
	assert.Equal(t, "é", fd.Decode([]byte{0x8E}))
}

func TestResolver_Differences(t *testing.T) {
	r := NewResolver()
	fd, err := r.Resolve(FontData{
		Name:     "F1",
		Encoding: "WinAnsiEncoding",
		Differences: []DiffEntry{
			{Code: 0x41, Glyph: "eacute"},
			{Code: 0x42, Glyph: "uni20AC"},
			{Code: 0x43, Glyph: "bullet"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "é€•", fd.Decode([]byte{0x41, 0x42, 0x43}))
	assert.Equal(t, "D", fd.Decode([]byte{0x44}), "untouched codes keep the base table")
}

func TestResolver_Unresolvable(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve(FontData{Name: "FX", BaseFont: "Mystery"})
	var unresolvable *UnresolvableEncodingError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "FX", unresolvable.Font)

	_, err = r.Resolve(FontData{Name: "FY", Encoding: "NoSuchEncoding"})
	require.ErrorAs(t, err, &unresolvable)
}

func TestResolver_CachesByName(t *testing.T) {
	r := NewResolver()
	a, err := r.Resolve(FontData{Name: "F1", Encoding: "WinAnsiEncoding"})
	require.NoError(t, err)
	b, err := r.Resolve(FontData{Name: "F1", Encoding: "WinAnsiEncoding"})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolver_RoundTripLaw(t *testing.T) {
	r := NewResolver()
	fd, err := r.Resolve(FontData{Name: "F1", Encoding: "WinAnsiEncoding"})
	require.NoError(t, err)

	for _, text := range []string{"Hello, World!", "40V5C", "café €9.99", "(nested) parens"} {
		encoded, err := Encode(fd, text)
		require.NoError(t, err, "text %q", text)
		assert.Equal(t, text, fd.Decode(encoded), "decode(encode(x)) == x")
	}
}

func TestGlyphToRune(t *testing.T) {
	tests := []struct {
		glyph string
		want  rune
		ok    bool
	}{
		{"A", 'A', true},
		{"z", 'z', true},
		{"nine", '9', true},
		{"eacute", 'é', true},
		{"uni0041", 'A', true},
		{"uni20AC", '€', true},
		{"unknownglyph", 0, false},
		{"uniXYZW", 0, false},
	}
	for _, tt := range tests {
		got, ok := glyphToRune(tt.glyph)
		assert.Equal(t, tt.ok, ok, "glyph %q", tt.glyph)
		if tt.ok {
			assert.Equal(t, tt.want, got, "glyph %q", tt.glyph)
		}
	}
}
