// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"encoding/hex"
	"sort"
)

// Rect is an axis-aligned page rectangle with x0<=x1 and y0<=y1 after
// normalization. The coordinate origin depends on the geometry source and is
// normalized once, before matching.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Contains reports whether o lies fully inside r (boundaries included).
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return (r.X1 - r.X0) * (r.Y1 - r.Y0)
}

// IsZero reports a degenerate zero rectangle.
func (r Rect) IsZero() bool {
	return r.X0 == 0 && r.Y0 == 0 && r.X1 == 0 && r.Y1 == 0
}

// GeometryOrigin names the vertical origin convention of a geometry source.
type GeometryOrigin string

const (
	// OriginTopDown means y grows downward from the page top.
	OriginTopDown GeometryOrigin = "top-down"
	// OriginBottomUp means y grows upward from the page bottom.
	OriginBottomUp GeometryOrigin = "bottom-up"
)

// GeometryRecord is one rendered text span with its on-page rectangle, as
// supplied by the geometry provider in document reading order.
type GeometryRecord struct {
	Text string
	Rect Rect
	Font string
}

// NormalizeRecords converts records to top-down coordinates and drops ghost
// records: empty text, sub-point rectangles, and rectangles parked at the
// origin. The result is sorted top-to-bottom then left-to-right so document
// order is well defined regardless of provider order.
func NormalizeRecords(recs []GeometryRecord, origin GeometryOrigin, pageHeight float64) []GeometryRecord {
	out := make([]GeometryRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Text == "" {
			continue
		}
		r := rec.Rect
		if origin == OriginBottomUp {
			r.Y0, r.Y1 = pageHeight-r.Y1, pageHeight-r.Y0
		}
		if r.X1 < r.X0 {
			r.X0, r.X1 = r.X1, r.X0
		}
		if r.Y1 < r.Y0 {
			r.Y0, r.Y1 = r.Y1, r.Y0
		}
		if r.IsZero() || r.X1-r.X0 < 1 || r.Y1-r.Y0 < 1 {
			continue
		}
		rec.Rect = r
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rect.Y0 != out[j].Rect.Y0 {
			return out[i].Rect.Y0 < out[j].Rect.Y0
		}
		return out[i].Rect.X0 < out[j].Rect.X0
	})
	return out
}

// FilterNested drops every record whose rectangle is fully contained in
// another record's rectangle, so a higher-level span does not also yield its
// sub-span. Of two identical rectangles the earlier record survives.
// Filtering an already filtered set changes nothing.
func FilterNested(recs []GeometryRecord) []GeometryRecord {
	keep := make([]bool, len(recs))
	for i := range keep {
		keep[i] = true
	}
	for i := range recs {
		for j := range recs {
			if i == j || !recs[j].Rect.Contains(recs[i].Rect) {
				continue
			}
			if recs[i].Rect.Contains(recs[j].Rect) {
				// Identical rectangles contain each other; keep the earlier.
				if j < i {
					keep[i] = false
				}
			} else {
				keep[i] = false
			}
		}
	}
	out := make([]GeometryRecord, 0, len(recs))
	for i, rec := range recs {
		if keep[i] {
			out = append(out, rec)
		}
	}
	return out
}

// OccurrenceSource tags where an occurrence's data came from.
type OccurrenceSource string

const (
	// SourceGeometry means the occurrence carries a rectangle from the
	// geometry provider.
	SourceGeometry OccurrenceSource = "geometry"
	// SourceStream means no geometry record was available; only stream data.
	SourceStream OccurrenceSource = "stream"
)

// Occurrence is one stream match annotated with geometry. InstanceIndex is
// zero-based per distinct literal text, assigned in stream order, and is the
// same whether computed during search, parse, or replace.
type Occurrence struct {
	Page          int
	Text          string
	Font          string
	Context       string
	Rect          Rect
	HasRect       bool
	EncodedBytes  string
	InstanceIndex int
	BlockOrder    int
	Source        OccurrenceSource
}

// MatchGeometry reconciles stream-order matches with reading-order geometry
// records. Records must already be normalized and nested-filtered. One
// forward cursor per distinct text guarantees a record is consumed at most
// once and never out of document order; a match with no remaining record is
// still returned, tagged as stream-sourced.
func MatchGeometry(matches []TextMatch, recs []GeometryRecord) []Occurrence {
	cursors := make(map[string]int)
	counts := make(map[string]int)
	consumed := make([]bool, len(recs))
	out := make([]Occurrence, 0, len(matches))
	for _, m := range matches {
		occ := Occurrence{
			Page:          m.Page,
			Text:          m.Text,
			Font:          m.Font,
			Context:       m.Context,
			EncodedBytes:  hex.EncodeToString(m.Encoded),
			InstanceIndex: counts[m.Text],
			BlockOrder:    m.Order,
			Source:        SourceStream,
		}
		counts[m.Text]++
		idx := -1
		for j := cursors[m.Text]; j < len(recs); j++ {
			if !consumed[j] && recs[j].Text == m.Text {
				idx = j
				break
			}
		}
		if idx >= 0 {
			consumed[idx] = true
			cursors[m.Text] = idx
			occ.Rect = recs[idx].Rect
			occ.HasRect = true
			occ.Source = SourceGeometry
			if occ.Font == "" {
				occ.Font = recs[idx].Font
			}
		}
		out = append(out, occ)
	}
	return out
}
