// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"bytes"
	"encoding/json"
)

// OccurrenceRecord is the exchange form of one occurrence.
type OccurrenceRecord struct {
	Rect          Rect   `json:"rect"`
	Font          string `json:"font"`
	EncodedBytes  string `json:"encoded_bytes"`
	InstanceIndex int    `json:"instance_index"`
}

// AggregatedResult groups occurrence records by literal text, preserving the
// first-seen order of each text. Marshals to the hierarchical JSON shape
// { "<text>": [ {rect, font, encoded_bytes, instance_index}, ... ] } with
// keys in insertion order.
type AggregatedResult struct {
	order  []string
	groups map[string][]OccurrenceRecord
}

// NewAggregatedResult creates an empty result.
func NewAggregatedResult() *AggregatedResult {
	return &AggregatedResult{groups: make(map[string][]OccurrenceRecord)}
}

// Add appends a record under the given text.
func (a *AggregatedResult) Add(text string, rec OccurrenceRecord) {
	if _, seen := a.groups[text]; !seen {
		a.order = append(a.order, text)
	}
	a.groups[text] = append(a.groups[text], rec)
}

// Texts returns the distinct literal texts in first-seen order.
func (a *AggregatedResult) Texts() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Records returns the ordered records for one text.
func (a *AggregatedResult) Records(text string) []OccurrenceRecord {
	return a.groups[text]
}

// Len returns the number of distinct texts.
func (a *AggregatedResult) Len() int {
	return len(a.order)
}

// Aggregate groups annotated occurrences by their literal text. Empty input
// yields an empty result.
func Aggregate(occs []Occurrence) *AggregatedResult {
	a := NewAggregatedResult()
	for _, occ := range occs {
		a.Add(occ.Text, OccurrenceRecord{
			Rect:          occ.Rect,
			Font:          occ.Font,
			EncodedBytes:  occ.EncodedBytes,
			InstanceIndex: occ.InstanceIndex,
		})
	}
	return a
}

// MarshalJSON writes the groups as a JSON object whose keys keep insertion
// order, which encoding/json maps cannot guarantee.
func (a *AggregatedResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, text := range a.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(a.groups[text])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
