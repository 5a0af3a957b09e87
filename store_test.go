// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestMemStore_PlainContent(t *testing.T) {
	store := NewMemStore(&MemPage{Content: []byte("(hi) Tj")})
	assert.Equal(t, 1, store.NumPages())

	data, err := store.ContentStream(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("(hi) Tj"), data)

	// The returned slice is a copy; mutating it must not leak into the page.
	data[1] = 'X'
	again, err := store.ContentStream(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("(hi) Tj"), again)
}

func TestMemStore_FlateRoundTrip(t *testing.T) {
	plain := []byte("BT /F1 12 Tf (compressed page) Tj ET")
	store := NewMemStore(&MemPage{Content: deflate(t, plain), Flate: true})

	data, err := store.ContentStream(0)
	require.NoError(t, err)
	assert.Equal(t, plain, data)

	updated := []byte("BT /F1 12 Tf (rewritten page) Tj ET")
	require.NoError(t, store.SetContentStream(0, updated))

	back, err := store.ContentStream(0)
	require.NoError(t, err)
	assert.Equal(t, updated, back)
}

func TestMemStore_PageOutOfRange(t *testing.T) {
	store := NewMemStore()
	_, err := store.ContentStream(0)
	var storeErr *DocumentStoreError
	require.ErrorAs(t, err, &storeErr)

	err = store.SetContentStream(3, nil)
	require.ErrorAs(t, err, &storeErr)

	_, err = store.Fonts(-1)
	require.ErrorAs(t, err, &storeErr)
}

func TestMemStore_PageGeometry(t *testing.T) {
	recs := []GeometryRecord{{Text: "a", Rect: Rect{X0: 1, Y0: 2, X1: 30, Y1: 40}}}
	store := NewMemStore(&MemPage{Geometry: recs, Height: 792})

	got, height, err := store.PageGeometry(0)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
	assert.Equal(t, float64(792), height)
}

func TestMemStore_Save(t *testing.T) {
	store := NewMemStore(&MemPage{
		Content: []byte("(hi) Tj"),
		Fonts:   []FontData{{Name: "F1"}, {Name: "F2"}},
	})
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, store.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap struct {
		Pages []struct {
			Content string   `json:"content"`
			Fonts   []string `json:"fonts"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.Len(t, snap.Pages, 1)
	assert.Equal(t, []string{"F1", "F2"}, snap.Pages[0].Fonts)
	assert.NotEmpty(t, snap.Pages[0].Content)
}
