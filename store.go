// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// DocumentStore is the container collaborator. It owns object graph,
// cross-reference, and filter concerns; the engine only exchanges
// decompressed content-stream bytes and raw font data with it.
type DocumentStore interface {
	NumPages() int
	ContentStream(page int) ([]byte, error)
	SetContentStream(page int, data []byte) error
	Fonts(page int) ([]FontData, error)
	Save(path string) error
}

// GeometrySource is the rendering collaborator: per page, rendered text
// spans in document reading order plus the page height needed for origin
// normalization.
type GeometrySource interface {
	PageGeometry(page int) ([]GeometryRecord, float64, error)
}

// StoreOpener opens a document container by path.
type StoreOpener interface {
	Open(path string) (DocumentStore, error)
}

// OpenerFunc adapts a function to the StoreOpener interface.
type OpenerFunc func(path string) (DocumentStore, error)

func (f OpenerFunc) Open(path string) (DocumentStore, error) {
	return f(path)
}

// MemPage is one page of the in-memory store. Flate marks the content as
// stored deflate-compressed.
type MemPage struct {
	Content  []byte
	Flate    bool
	Fonts    []FontData
	Geometry []GeometryRecord
	Height   float64
}

// MemStore is an in-memory DocumentStore and GeometrySource. It handles the
// stream compression side of the container contract so the engine always
// sees plain bytes.
type MemStore struct {
	pages []*MemPage
}

// NewMemStore creates a store over the given pages.
func NewMemStore(pages ...*MemPage) *MemStore {
	return &MemStore{pages: pages}
}

// Open satisfies StoreOpener, ignoring the path. Useful where a prepared
// store stands in for a container on disk.
func (s *MemStore) Open(path string) (DocumentStore, error) {
	return s, nil
}

func (s *MemStore) NumPages() int {
	return len(s.pages)
}

func (s *MemStore) page(i int) (*MemPage, error) {
	if i < 0 || i >= len(s.pages) {
		return nil, &DocumentStoreError{Op: "page", Err: fmt.Errorf("page %d out of range [0,%d)", i, len(s.pages))}
	}
	return s.pages[i], nil
}

// ContentStream returns the page's content bytes, inflating stored streams.
func (s *MemStore) ContentStream(page int) ([]byte, error) {
	p, err := s.page(page)
	if err != nil {
		return nil, err
	}
	if !p.Flate {
		out := make([]byte, len(p.Content))
		copy(out, p.Content)
		return out, nil
	}
	r := flate.NewReader(bytes.NewReader(p.Content))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &DocumentStoreError{Op: "inflate content stream", Err: err}
	}
	return out, nil
}

// SetContentStream replaces the page's content, re-deflating when the page
// stores compressed content.
func (s *MemStore) SetContentStream(page int, data []byte) error {
	p, err := s.page(page)
	if err != nil {
		return err
	}
	if !p.Flate {
		p.Content = make([]byte, len(data))
		copy(p.Content, data)
		return nil
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return &DocumentStoreError{Op: "deflate content stream", Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &DocumentStoreError{Op: "deflate content stream", Err: err}
	}
	if err := w.Close(); err != nil {
		return &DocumentStoreError{Op: "deflate content stream", Err: err}
	}
	p.Content = buf.Bytes()
	return nil
}

func (s *MemStore) Fonts(page int) ([]FontData, error) {
	p, err := s.page(page)
	if err != nil {
		return nil, err
	}
	return p.Fonts, nil
}

// PageGeometry returns the page's rendered spans and its height.
func (s *MemStore) PageGeometry(page int) ([]GeometryRecord, float64, error) {
	p, err := s.page(page)
	if err != nil {
		return nil, 0, err
	}
	return p.Geometry, p.Height, nil
}

type memPageSnapshot struct {
	Content string   `json:"content"`
	Flate   bool     `json:"flate"`
	Fonts   []string `json:"fonts"`
}

// Save writes a JSON snapshot of the store. The snapshot holds the stored
// (possibly compressed) content bytes and the font resource names.
func (s *MemStore) Save(path string) error {
	snap := make([]memPageSnapshot, len(s.pages))
	for i, p := range s.pages {
		snap[i].Content = base64.StdEncoding.EncodeToString(p.Content)
		snap[i].Flate = p.Flate
		for _, f := range p.Fonts {
			snap[i].Fonts = append(snap[i].Fonts, f.Name)
		}
	}
	data, err := json.MarshalIndent(map[string]interface{}{"pages": snap}, "", "  ")
	if err != nil {
		return &DocumentStoreError{Op: "encode snapshot", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &DocumentStoreError{Op: "write " + path, Err: err}
	}
	return nil
}
