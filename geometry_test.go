// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRect_Contains(t *testing.T) {
	outer := Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}
	assert.True(t, outer.Contains(Rect{X0: 10, Y0: 10, X1: 50, Y1: 50}))
	assert.True(t, outer.Contains(outer), "a rect contains itself")
	assert.False(t, outer.Contains(Rect{X0: 10, Y0: 10, X1: 120, Y1: 50}))
}

func TestNormalizeRecords_BottomUpFlip(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "a", Rect: Rect{X0: 10, Y0: 700, X1: 60, Y1: 714}},
	}
	out := NormalizeRecords(recs, OriginBottomUp, 792)
	require.Len(t, out, 1)
	assert.Equal(t, Rect{X0: 10, Y0: 78, X1: 60, Y1: 92}, out[0].Rect)
}

func TestNormalizeRecords_DropsGhostsAndSorts(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "lower", Rect: Rect{X0: 10, Y0: 500, X1: 60, Y1: 514}},
		{Text: "", Rect: Rect{X0: 10, Y0: 10, X1: 60, Y1: 24}},
		{Text: "ghost", Rect: Rect{X0: 10, Y0: 10, X1: 10.5, Y1: 24}},
		{Text: "upper right", Rect: Rect{X0: 200, Y0: 100, X1: 260, Y1: 114}},
		{Text: "upper left", Rect: Rect{X0: 10, Y0: 100, X1: 60, Y1: 114}},
		{Text: "zero", Rect: Rect{}},
	}
	out := NormalizeRecords(recs, OriginTopDown, 792)
	require.Len(t, out, 3)
	assert.Equal(t, "upper left", out[0].Text)
	assert.Equal(t, "upper right", out[1].Text)
	assert.Equal(t, "lower", out[2].Text)
}

func TestNormalizeRecords_SwapsInvertedEdges(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "a", Rect: Rect{X0: 60, Y0: 24, X1: 10, Y1: 10}},
	}
	out := NormalizeRecords(recs, OriginTopDown, 792)
	require.Len(t, out, 1)
	assert.Equal(t, Rect{X0: 10, Y0: 10, X1: 60, Y1: 24}, out[0].Rect)
}

func TestFilterNested(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "outer", Rect: Rect{X0: 0.5, Y0: 0.5, X1: 100, Y1: 100}},
		{Text: "inner", Rect: Rect{X0: 10, Y0: 10, X1: 50, Y1: 50}},
		{Text: "outside", Rect: Rect{X0: 200, Y0: 200, X1: 300, Y1: 300}},
	}
	out := FilterNested(recs)
	require.Len(t, out, 2)
	assert.Equal(t, "outer", out[0].Text)
	assert.Equal(t, "outside", out[1].Text)
}

func TestFilterNested_Idempotent(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "outer", Rect: Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}},
		{Text: "inner", Rect: Rect{X0: 10, Y0: 10, X1: 50, Y1: 50}},
		{Text: "other", Rect: Rect{X0: 150, Y0: 0, X1: 260, Y1: 40}},
	}
	once := FilterNested(recs)
	twice := FilterNested(once)
	assert.Equal(t, once, twice)
}

func TestFilterNested_IdenticalRectsKeepEarlier(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "first", Rect: Rect{X0: 10, Y0: 10, X1: 50, Y1: 50}},
		{Text: "second", Rect: Rect{X0: 10, Y0: 10, X1: 50, Y1: 50}},
	}
	out := FilterNested(recs)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Text)
}

func streamMatches(texts ...string) []TextMatch {
	out := make([]TextMatch, len(texts))
	for i, t := range texts {
		out[i] = TextMatch{Text: t, Order: i, Encoded: []byte(t)}
	}
	return out
}

func TestMatchGeometry_StableInstanceIndices(t *testing.T) {
	r1 := Rect{X0: 10, Y0: 100, X1: 80, Y1: 114}
	r2 := Rect{X0: 10, Y0: 300, X1: 80, Y1: 314}
	r3 := Rect{X0: 10, Y0: 500, X1: 80, Y1: 514}
	recs := []GeometryRecord{
		{Text: "40V5C", Rect: r1},
		{Text: "40V5C", Rect: r2},
		{Text: "40V5C", Rect: r3},
	}

	occs := MatchGeometry(streamMatches("40V5C", "40V5C", "40V5C"), recs)
	require.Len(t, occs, 3)
	for i, want := range []Rect{r1, r2, r3} {
		assert.Equal(t, i, occs[i].InstanceIndex)
		assert.True(t, occs[i].HasRect)
		assert.Equal(t, want, occs[i].Rect)
		assert.Equal(t, SourceGeometry, occs[i].Source)
	}
}

func TestMatchGeometry_NeverReusesARecord(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "x", Rect: Rect{X0: 10, Y0: 100, X1: 40, Y1: 114}},
	}
	occs := MatchGeometry(streamMatches("x", "x"), recs)
	require.Len(t, occs, 2)
	assert.True(t, occs[0].HasRect)
	assert.False(t, occs[1].HasRect, "single record consumed once")
	assert.Equal(t, SourceStream, occs[1].Source)
	assert.Equal(t, 1, occs[1].InstanceIndex)
}

func TestMatchGeometry_ForwardOnlyCursorPerText(t *testing.T) {
	recs := []GeometryRecord{
		{Text: "a", Rect: Rect{X0: 10, Y0: 100, X1: 40, Y1: 114}},
		{Text: "b", Rect: Rect{X0: 10, Y0: 200, X1: 40, Y1: 214}},
		{Text: "a", Rect: Rect{X0: 10, Y0: 300, X1: 40, Y1: 314}},
	}
	occs := MatchGeometry(streamMatches("a", "b", "a"), recs)
	require.Len(t, occs, 3)
	assert.Equal(t, float64(100), occs[0].Rect.Y0)
	assert.Equal(t, float64(200), occs[1].Rect.Y0)
	assert.Equal(t, float64(300), occs[2].Rect.Y0)
	assert.Equal(t, 0, occs[1].InstanceIndex, "instance index is per distinct text")
	assert.Equal(t, 1, occs[2].InstanceIndex)
}

func TestMatchGeometry_MissingGeometryStillReturned(t *testing.T) {
	occs := MatchGeometry(streamMatches("alone"), nil)
	require.Len(t, occs, 1)
	assert.False(t, occs[0].HasRect)
	assert.Equal(t, SourceStream, occs[0].Source)
	assert.Equal(t, "616c6f6e65", occs[0].EncodedBytes)
}
