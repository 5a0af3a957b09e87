// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/herryqg/pdf-parser/logger"
)

// mapEntry is one decode-table entry in definition order. A code may map to
// zero, one, or several Unicode scalars.
type mapEntry struct {
	code  uint16
	runes []rune
}

// CharacterMap holds a font's byte-code to Unicode table and its lazily built
// inverse. Byte width is fixed per font: 1 for simple fonts, 2 for composite
// fonts. Decode may be many-to-one; encode is injective, first-defined code
// wins on ties. The map is never mutated after resolution except by explicit
// auto-insert, which only appends.
type CharacterMap struct {
	byteWidth int
	entries   []mapEntry
	decode    map[uint16][]rune

	mu     sync.Mutex
	encode map[rune]uint16
}

func newCharacterMap(byteWidth int) *CharacterMap {
	return &CharacterMap{
		byteWidth: byteWidth,
		decode:    make(map[uint16][]rune),
	}
}

// ByteWidth reports how many stream bytes form one code: 1 or 2.
func (m *CharacterMap) ByteWidth() int {
	return m.byteWidth
}

// Size reports the number of code mappings.
func (m *CharacterMap) Size() int {
	return len(m.entries)
}

// add records a code mapping. The first definition of a code wins; later
// duplicates are ignored so range entries cannot shadow explicit chars.
func (m *CharacterMap) add(code uint16, rs ...rune) {
	if _, exists := m.decode[code]; exists {
		return
	}
	m.decode[code] = rs
	m.entries = append(m.entries, mapEntry{code: code, runes: rs})
}

// DecodeCode returns the Unicode scalars for one code.
func (m *CharacterMap) DecodeCode(code uint16) ([]rune, bool) {
	rs, ok := m.decode[code]
	return rs, ok
}

// Decode converts raw stream bytes into their Unicode text. Bytes are grouped
// by the map's byte width; codes without a mapping decode to U+FFFD.
func (m *CharacterMap) Decode(raw []byte) string {
	var sb strings.Builder
	w := m.byteWidth
	for i := 0; i+w <= len(raw); i += w {
		code := codeAt(raw, i, w)
		if rs, ok := m.decode[code]; ok {
			sb.WriteString(string(rs))
		} else {
			sb.WriteRune('�')
		}
	}
	return sb.String()
}

func codeAt(raw []byte, i, width int) uint16 {
	if width == 2 {
		return uint16(raw[i])<<8 | uint16(raw[i+1])
	}
	return uint16(raw[i])
}

func (m *CharacterMap) buildEncodeLocked() {
	if m.encode != nil {
		return
	}
	m.encode = make(map[rune]uint16, len(m.entries))
	for _, e := range m.entries {
		if len(e.runes) != 1 {
			continue
		}
		r := e.runes[0]
		if _, taken := m.encode[r]; !taken {
			m.encode[r] = e.code
		}
	}
}

// EncodeRune returns the byte code for a rune, building the inverse table on
// first use. Only single-scalar mappings participate in encoding.
func (m *CharacterMap) EncodeRune(r rune) (uint16, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildEncodeLocked()
	code, ok := m.encode[r]
	return code, ok
}

// EntryView is a read-only view of one code mapping, for reports.
type EntryView struct {
	Code  uint16
	Runes []rune
}

// Entries returns up to max mappings in definition order; max <= 0 means all.
func (m *CharacterMap) Entries(max int) []EntryView {
	n := len(m.entries)
	if max > 0 && max < n {
		n = max
	}
	out := make([]EntryView, 0, n)
	for _, e := range m.entries[:n] {
		out = append(out, EntryView{Code: e.code, Runes: e.runes})
	}
	return out
}

// isSafeCode reports whether a code is usable for auto-insert. Printable
// ASCII and control codes are skipped so inserted codes cannot collide with
// operator syntax or commonly mapped glyphs.
func isSafeCode(code uint16) bool {
	if code <= 0x20 {
		return false
	}
	if code >= 0x21 && code <= 0x7E {
		return false
	}
	return true
}

// AssignCode reserves the next free safe code at or above floor for a rune
// and appends the mapping. Assignment is serialized per map so parallel page
// workers cannot race on the code space.
func (m *CharacterMap) AssignCode(r rune, floor uint16) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildEncodeLocked()
	if code, ok := m.encode[r]; ok {
		return code, nil
	}
	limit := uint16(0xFF)
	if m.byteWidth == 2 {
		limit = 0xFFFF
	}
	for code := floor; ; code++ {
		if isSafeCode(code) {
			if _, taken := m.decode[code]; !taken {
				m.decode[code] = []rune{r}
				m.entries = append(m.entries, mapEntry{code: code, runes: []rune{r}})
				m.encode[r] = code
				logger.Debug("assigned code for character", "char", string(r), "code", fmt.Sprintf("0x%02X", code))
				return code, nil
			}
		}
		if code == limit {
			return 0, fmt.Errorf("no free code at or above 0x%02X for %q", floor, r)
		}
	}
}

var (
	codespaceRe  = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>`)
	bfcharRe     = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>`)
	bfrangeRe    = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>`)
	bfrangeArrRe = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*\[([^\]]*)\]`)
	hexItemRe    = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// parseCMap builds a CharacterMap from an embedded unicode CMap stream. It
// reads the codespace ranges to fix the byte width, then collects bfchar and
// bfrange sections. Destination hex is UTF-16BE and may span several scalars.
func parseCMap(data []byte) (*CharacterMap, error) {
	text := string(data)
	width := 0
	section := ""
	type pending struct {
		line string
		kind string
	}
	var lines []pending
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "begincodespacerange"):
			section = "codespace"
			continue
		case strings.Contains(line, "endcodespacerange"):
			section = ""
			continue
		case strings.Contains(line, "beginbfchar"):
			section = "bfchar"
			continue
		case strings.Contains(line, "endbfchar"):
			section = ""
			continue
		case strings.Contains(line, "beginbfrange"):
			section = "bfrange"
			continue
		case strings.Contains(line, "endbfrange"):
			section = ""
			continue
		}
		if section == "" || line == "" {
			continue
		}
		if section == "codespace" {
			if mm := codespaceRe.FindStringSubmatch(line); mm != nil {
				w := len(mm[1]) / 2
				if w > width {
					width = w
				}
			}
			continue
		}
		lines = append(lines, pending{line: line, kind: section})
	}
	if width == 0 {
		// No codespace declared; infer from the first source code seen.
		for _, p := range lines {
			if mm := hexItemRe.FindStringSubmatch(p.line); mm != nil {
				width = len(mm[1]) / 2
				break
			}
		}
	}
	if width != 1 && width != 2 {
		return nil, fmt.Errorf("unsupported cmap byte width %d", width)
	}

	m := newCharacterMap(width)
	for _, p := range lines {
		switch p.kind {
		case "bfchar":
			if mm := bfcharRe.FindStringSubmatch(p.line); mm != nil {
				src, err := parseHexCode(mm[1])
				if err != nil {
					continue
				}
				m.add(src, decodeUTF16Hex(mm[2])...)
			}
		case "bfrange":
			if mm := bfrangeArrRe.FindStringSubmatch(p.line); mm != nil {
				lo, err1 := parseHexCode(mm[1])
				hi, err2 := parseHexCode(mm[2])
				if err1 != nil || err2 != nil || hi < lo {
					continue
				}
				items := hexItemRe.FindAllStringSubmatch(mm[3], -1)
				for i := 0; lo+uint16(i) <= hi && i < len(items); i++ {
					m.add(lo+uint16(i), decodeUTF16Hex(items[i][1])...)
				}
				continue
			}
			if mm := bfrangeRe.FindStringSubmatch(p.line); mm != nil {
				lo, err1 := parseHexCode(mm[1])
				hi, err2 := parseHexCode(mm[2])
				if err1 != nil || err2 != nil || hi < lo {
					continue
				}
				dst := decodeUTF16Hex(mm[3])
				if len(dst) == 0 {
					continue
				}
				// The range offset applies to the last scalar of the start
				// value; leading scalars are carried unchanged.
				for off := uint16(0); ; off++ {
					rs := make([]rune, len(dst))
					copy(rs, dst)
					rs[len(rs)-1] += rune(off)
					m.add(lo+off, rs...)
					if lo+off == hi {
						break
					}
				}
			}
		}
	}
	if len(m.entries) == 0 {
		return nil, fmt.Errorf("cmap contains no mappings")
	}
	return m, nil
}

func parseHexCode(h string) (uint16, error) {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return 0, err
	}
	switch len(b) {
	case 1:
		return uint16(b[0]), nil
	case 2:
		return uint16(b[0])<<8 | uint16(b[1]), nil
	default:
		return 0, fmt.Errorf("code %q wider than two bytes", h)
	}
}

// decodeUTF16Hex converts a destination hex string (UTF-16BE) into runes.
func decodeUTF16Hex(h string) []rune {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil
	}
	if len(b)%2 != 0 {
		b = append([]byte{0}, b...)
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return utf16.Decode(u)
}
