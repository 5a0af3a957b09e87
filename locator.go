// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"golang.org/x/text/cases"

	"github.com/herryqg/pdf-parser/logger"
)

// MatchSegment is one contiguous source byte range of a match inside a
// single string operand.
type MatchSegment struct {
	Token int
	Str   int
	Font  string
	Start int
	End   int
}

// TextMatch is one located occurrence of the target in decoded page text.
// Segments are in stream order; a match that crosses operand or token
// boundaries carries one segment per touched operand. Encoded holds the raw
// code bytes the occurrence is painted with.
type TextMatch struct {
	Page     int
	Text     string
	Font     string
	Context  string
	Segments []MatchSegment
	Encoded  []byte
	Order    int
}

// Start returns the first source byte offset of the match.
func (m *TextMatch) Start() int {
	if len(m.Segments) == 0 {
		return 0
	}
	return m.Segments[0].Start
}

// SpansFonts reports whether the match crosses a font change. Such a match
// can be reported but not rewritten with a single re-encoding.
func (m *TextMatch) SpansFonts() bool {
	for _, seg := range m.Segments[1:] {
		if seg.Font != m.Segments[0].Font {
			return true
		}
	}
	return false
}

// runeRef ties one decoded rune back to the code that produced it.
type runeRef struct {
	token int
	str   int
	font  string
	start int
	end   int
	code  []byte
}

const contextRunes = 20

// decodePage walks show-text tokens and produces the page's decoded text
// with one back-reference per rune. Text shown with an unresolvable font is
// skipped; a mapped code decoding to several runes shares one reference.
func decodePage(tokens []ContentToken, fonts map[string]*FontDescriptor) ([]rune, []runeRef) {
	var runes []rune
	var refs []runeRef
	font := ""
	for ti := range tokens {
		tok := &tokens[ti]
		if tok.Op == "Tf" {
			font = tok.Name
			continue
		}
		if !tok.IsShowText() {
			continue
		}
		fd := fonts[font]
		if fd == nil {
			continue
		}
		w := fd.ByteWidth()
		for si := range tok.Strings {
			op := &tok.Strings[si]
			for i := 0; i+w <= len(op.Bytes); i += w {
				code := codeAt(op.Bytes, i, w)
				rs, ok := fd.Map().DecodeCode(code)
				if !ok {
					rs = []rune{'�'}
				}
				start, end := op.sourceRange(i, i+w)
				ref := runeRef{
					token: ti,
					str:   si,
					font:  font,
					start: start,
					end:   end,
					code:  op.Bytes[i : i+w],
				}
				for _, r := range rs {
					runes = append(runes, r)
					refs = append(refs, ref)
				}
			}
		}
	}
	return runes, refs
}

// foldRunes case-folds text rune by rune, keeping a back index from each
// folded rune to the original rune that produced it. A single rune may fold
// to several runes.
func foldRunes(in []rune) ([]rune, []int) {
	folder := cases.Fold()
	var out []rune
	var back []int
	for i, r := range in {
		for _, fr := range folder.String(string(r)) {
			out = append(out, fr)
			back = append(back, i)
		}
	}
	return out, back
}

// Locate finds every occurrence of target in the page's decoded text,
// left to right, non-overlapping. Matching is exact, case-folded when
// caseSensitive is false. An absent target yields an empty slice.
func Locate(page int, tokens []ContentToken, fonts map[string]*FontDescriptor, target string, caseSensitive bool) []TextMatch {
	if target == "" {
		return nil
	}
	runes, refs := decodePage(tokens, fonts)

	hay := runes
	back := make([]int, len(runes))
	for i := range back {
		back[i] = i
	}
	needle := []rune(target)
	if !caseSensitive {
		hay, back = foldRunes(runes)
		needle, _ = foldRunes(needle)
	}

	var matches []TextMatch
	n := len(needle)
	for i := 0; n > 0 && i+n <= len(hay); {
		if !runesEqual(hay[i:i+n], needle) {
			i++
			continue
		}
		a, b := back[i], back[i+n-1]
		m := buildMatch(page, runes, refs, a, b, len(matches))
		matches = append(matches, m)
		i += n
	}
	logger.Debug("located matches", "page", page, "target", target, "count", len(matches))
	return matches
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildMatch turns an inclusive rune window into a TextMatch, merging
// back-references into per-operand contiguous segments.
func buildMatch(page int, runes []rune, refs []runeRef, a, b, order int) TextMatch {
	m := TextMatch{
		Page:  page,
		Text:  string(runes[a : b+1]),
		Order: order,
	}
	for i := a; i <= b; i++ {
		ref := refs[i]
		if i > a && ref.start == refs[i-1].start && ref.token == refs[i-1].token && ref.str == refs[i-1].str {
			// Second rune of a multi-rune decode, same code.
			continue
		}
		m.Encoded = append(m.Encoded, ref.code...)
		last := len(m.Segments) - 1
		if last >= 0 &&
			m.Segments[last].Token == ref.token &&
			m.Segments[last].Str == ref.str &&
			m.Segments[last].End == ref.start {
			m.Segments[last].End = ref.end
			continue
		}
		m.Segments = append(m.Segments, MatchSegment{
			Token: ref.token,
			Str:   ref.str,
			Font:  ref.font,
			Start: ref.start,
			End:   ref.end,
		})
	}
	if len(m.Segments) > 0 {
		m.Font = m.Segments[0].Font
	}
	lo := a - contextRunes
	if lo < 0 {
		lo = 0
	}
	hi := b + 1 + contextRunes
	if hi > len(runes) {
		hi = len(runes)
	}
	m.Context = string(runes[lo:hi])
	return m
}

// CollectTexts decodes each show-text token into one whole-token match, in
// stream order. Tokens that decode to nothing are skipped. This is the
// stream-side input for page parsing.
func CollectTexts(page int, tokens []ContentToken, fonts map[string]*FontDescriptor) []TextMatch {
	var out []TextMatch
	font := ""
	for ti := range tokens {
		tok := &tokens[ti]
		if tok.Op == "Tf" {
			font = tok.Name
			continue
		}
		if !tok.IsShowText() {
			continue
		}
		fd := fonts[font]
		if fd == nil {
			continue
		}
		m := TextMatch{Page: page, Font: font, Order: len(out)}
		for si := range tok.Strings {
			op := &tok.Strings[si]
			if len(op.Bytes) == 0 {
				continue
			}
			m.Text += fd.Decode(op.Bytes)
			m.Encoded = append(m.Encoded, op.Bytes...)
			m.Segments = append(m.Segments, MatchSegment{
				Token: ti,
				Str:   si,
				Font:  font,
				Start: op.Start,
				End:   op.End,
			})
		}
		if m.Text == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
