// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"fmt"
	"sync"

	"github.com/herryqg/pdf-parser/logger"
)

// FontKind tags how a font addresses its glyphs.
type FontKind int

const (
	// SimpleFont uses one byte per code.
	SimpleFont FontKind = iota
	// CompositeFont uses two bytes per code.
	CompositeFont
)

func (k FontKind) String() string {
	if k == CompositeFont {
		return "composite"
	}
	return "simple"
}

// DiffEntry is one code-to-glyph-name override from an encoding Differences
// array, already flattened by the document store.
type DiffEntry struct {
	Code  byte
	Glyph string
}

// FontData is the raw font information handed over by the document store.
// ToUnicode, when present, is the decompressed embedded CMap stream.
type FontData struct {
	Name        string
	BaseFont    string
	Subtype     string
	Encoding    string
	Differences []DiffEntry
	ToUnicode   []byte
}

// PendingInsert records a code the encoder reserved for a character the font
// did not map. The font embedding collaborator must add the matching glyph
// and unicode entry before the document is considered complete.
type PendingInsert struct {
	Code uint16
	Rune rune
}

// FontDescriptor is the resolved form of a font: its kind, byte width rule,
// and character map. Immutable after resolution except for auto-insert code
// reservations, which only append.
type FontDescriptor struct {
	Name     string
	BaseFont string
	Kind     FontKind
	cm       *CharacterMap

	mu      sync.Mutex
	pending []PendingInsert
}

// ByteWidth reports how many stream bytes select one glyph.
func (f *FontDescriptor) ByteWidth() int {
	return f.cm.ByteWidth()
}

// Map exposes the resolved character map.
func (f *FontDescriptor) Map() *CharacterMap {
	return f.cm
}

// DisplayName combines resource name and base font for diagnostics.
func (f *FontDescriptor) DisplayName() string {
	if f.BaseFont != "" && f.BaseFont != f.Name {
		return fmt.Sprintf("%s (%s)", f.Name, f.BaseFont)
	}
	return f.Name
}

// Decode converts raw stream bytes shown with this font into text.
func (f *FontDescriptor) Decode(raw []byte) string {
	return f.cm.Decode(raw)
}

func (f *FontDescriptor) recordInsert(code uint16, r rune) {
	f.mu.Lock()
	f.pending = append(f.pending, PendingInsert{Code: code, Rune: r})
	f.mu.Unlock()
}

// PendingInserts returns the codes reserved by auto-insert, in reservation
// order. Empty for fonts that never needed one.
func (f *FontDescriptor) PendingInserts() []PendingInsert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PendingInsert, len(f.pending))
	copy(out, f.pending)
	return out
}

// Resolver builds FontDescriptors from raw font data and caches them per
// document, keyed by resource name. Resolution is deterministic; the cache is
// safe for concurrent page workers.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]*FontDescriptor
}

// NewResolver creates an empty per-document resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]*FontDescriptor)}
}

// Resolve returns the descriptor for a font, building and caching it on
// first use. Resolution order: embedded unicode CMap, then encoding
// differences over a named base table, then a bare named encoding. A font
// with none of these fails with UnresolvableEncodingError.
func (r *Resolver) Resolve(fd FontData) (*FontDescriptor, error) {
	r.mu.Lock()
	if cached, ok := r.cache[fd.Name]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	desc, err := buildDescriptor(fd)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[fd.Name]; ok {
		return cached, nil
	}
	r.cache[fd.Name] = desc
	return desc, nil
}

func buildDescriptor(fd FontData) (*FontDescriptor, error) {
	var cm *CharacterMap
	switch {
	case len(fd.ToUnicode) > 0:
		parsed, err := parseCMap(fd.ToUnicode)
		if err != nil {
			return nil, &UnresolvableEncodingError{Font: fd.Name}
		}
		cm = parsed
		logger.Debug("resolved font from embedded cmap",
			"font", fd.Name, "byte_width", cm.ByteWidth(), "mappings", cm.Size())
	case len(fd.Differences) > 0:
		cm = tableMap(baseTable(fd.Encoding))
		applied := 0
		for _, d := range fd.Differences {
			if r, ok := glyphToRune(d.Glyph); ok {
				cm.decode[uint16(d.Code)] = []rune{r}
				cm.replaceEntry(uint16(d.Code), r)
				applied++
			}
		}
		logger.Debug("resolved font from encoding differences",
			"font", fd.Name, "differences", applied)
	case fd.Encoding != "":
		table, known := namedTable(fd.Encoding)
		if !known {
			return nil, &UnresolvableEncodingError{Font: fd.Name}
		}
		cm = tableMap(table)
		logger.Debug("resolved font from named encoding",
			"font", fd.Name, "encoding", fd.Encoding)
	default:
		return nil, &UnresolvableEncodingError{Font: fd.Name}
	}

	kind := SimpleFont
	if cm.ByteWidth() == 2 {
		kind = CompositeFont
	}
	return &FontDescriptor{
		Name:     fd.Name,
		BaseFont: fd.BaseFont,
		Kind:     kind,
		cm:       cm,
	}, nil
}

// replaceEntry swaps the runes of an existing entry or appends a fresh one,
// used when Differences override the base table.
func (m *CharacterMap) replaceEntry(code uint16, r rune) {
	for i := range m.entries {
		if m.entries[i].code == code {
			m.entries[i].runes = []rune{r}
			return
		}
	}
	m.entries = append(m.entries, mapEntry{code: code, runes: []rune{r}})
}

func tableMap(table *[256]rune) *CharacterMap {
	m := newCharacterMap(1)
	for code := 0; code < 256; code++ {
		if table[code] != 0 {
			m.add(uint16(code), table[code])
		}
	}
	return m
}

func namedTable(name string) (*[256]rune, bool) {
	switch name {
	case "WinAnsiEncoding":
		return &winAnsiTable, true
	case "MacRomanEncoding":
		return &macRomanTable, true
	case "StandardEncoding", "PDFDocEncoding":
		return &winAnsiTable, true
	default:
		return nil, false
	}
}

// baseTable picks the table Differences apply over; WinAnsi when unnamed.
func baseTable(name string) *[256]rune {
	if t, ok := namedTable(name); ok {
		return t
	}
	return &winAnsiTable
}

var winAnsiTable = [256]rune{}

var macRomanTable = [256]rune{}

func init() {
	for i := 0x20; i <= 0x7E; i++ {
		winAnsiTable[i] = rune(i)
		macRomanTable[i] = rune(i)
	}
	for i := 0xA0; i <= 0xFF; i++ {
		winAnsiTable[i] = rune(i)
	}
	winAnsi := map[int]rune{
		0x80: '€', 0x82: '‚', 0x83: 'ƒ', 0x84: '„', 0x85: '…', 0x86: '†',
		0x87: '‡', 0x88: 'ˆ', 0x89: '‰', 0x8A: 'Š', 0x8B: '‹', 0x8C: 'Œ',
		0x8E: 'Ž', 0x91: '‘', 0x92: '’', 0x93: '“', 0x94: '”', 0x95: '•',
		0x96: '–', 0x97: '—', 0x98: '˜', 0x99: '™', 0x9A: 'š', 0x9B: '›',
		0x9C: 'œ', 0x9E: 'ž', 0x9F: 'Ÿ',
	}
	for code, r := range winAnsi {
		winAnsiTable[code] = r
	}
	macRoman := map[int]rune{
		0x80: 'Ä', 0x81: 'Å', 0x82: 'Ç', 0x83: 'É', 0x84: 'Ñ', 0x85: 'Ö',
		0x86: 'Ü', 0x87: 'á', 0x88: 'à', 0x89: 'â', 0x8A: 'ä', 0x8B: 'ã',
		0x8C: 'å', 0x8D: 'ç', 0x8E: 'é', 0x8F: 'è', 0x90: 'ê', 0x91: 'ë',
		0x92: 'í', 0x93: 'ì', 0x94: 'î', 0x95: 'ï', 0x96: 'ñ', 0x97: 'ó',
		0x98: 'ò', 0x99: 'ô', 0x9A: 'ö', 0x9B: 'õ', 0x9C: 'ú', 0x9D: 'ù',
		0x9E: 'û', 0x9F: 'ü', 0xA0: '†', 0xA1: '°', 0xA2: '¢', 0xA3: '£',
		0xA4: '§', 0xA5: '•', 0xA6: '¶', 0xA7: 'ß', 0xA8: '®', 0xA9: '©',
		0xAA: '™', 0xAB: '´', 0xAC: '¨', 0xAE: 'Æ', 0xAF: 'Ø',
		0xB0: '∞', 0xB1: '±', 0xB4: '¥', 0xB5: 'µ', 0xBB: 'ª', 0xBC: 'º',
		0xBE: 'æ', 0xBF: 'ø', 0xC0: '¿', 0xC1: '¡', 0xC2: '¬', 0xC4: 'ƒ',
		0xC7: '«', 0xC8: '»', 0xC9: '…', 0xCA: ' ', 0xCB: 'À', 0xCC: 'Ã',
		0xCD: 'Õ', 0xCE: 'Œ', 0xCF: 'œ', 0xD0: '–', 0xD1: '—', 0xD2: '“',
		0xD3: '”', 0xD4: '‘', 0xD5: '’', 0xD6: '÷', 0xD8: 'ÿ', 0xD9: 'Ÿ',
		0xDA: '⁄', 0xDB: '€', 0xDC: '‹', 0xDD: '›', 0xE1: '·', 0xE2: '‚',
		0xE3: '„', 0xE4: '‰', 0xE5: 'Â', 0xE6: 'Ê', 0xE7: 'Á', 0xE8: 'Ë',
		0xE9: 'È', 0xEA: 'Í', 0xEB: 'Î', 0xEC: 'Ï', 0xED: 'Ì', 0xEE: 'Ó',
		0xEF: 'Ô', 0xF1: 'Ò', 0xF2: 'Ú', 0xF3: 'Û', 0xF4: 'Ù', 0xF5: 'ı',
		0xF6: 'ˆ', 0xF7: '˜', 0xF8: '¯',
	}
	for code, r := range macRoman {
		macRomanTable[code] = r
	}
}

// glyphToRune resolves the common glyph names seen in encoding Differences.
func glyphToRune(name string) (rune, bool) {
	if len(name) == 1 {
		r := rune(name[0])
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			return r, true
		}
	}
	// uniXXXX names carry their codepoint directly.
	if len(name) == 7 && name[:3] == "uni" {
		var cp rune
		for _, c := range name[3:] {
			var d rune
			switch {
			case c >= '0' && c <= '9':
				d = c - '0'
			case c >= 'A' && c <= 'F':
				d = c - 'A' + 10
			case c >= 'a' && c <= 'f':
				d = c - 'a' + 10
			default:
				return 0, false
			}
			cp = cp<<4 | d
		}
		return cp, true
	}
	r, ok := glyphNames[name]
	return r, ok
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^',
	"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
	"braceright": '}', "asciitilde": '~',
	"bullet": '•', "endash": '–', "emdash": '—', "quoteleft": '‘',
	"quoteright": '’', "quotedblleft": '“', "quotedblright": '”',
	"ellipsis": '…', "dagger": '†', "daggerdbl": '‡', "trademark": '™',
	"copyright": '©', "registered": '®', "degree": '°', "plusminus": '±',
	"multiply": '×', "divide": '÷', "sterling": '£', "yen": '¥', "Euro": '€',
	"cent": '¢', "section": '§', "paragraph": '¶', "micro": 'µ',
	"exclamdown": '¡', "questiondown": '¿', "guillemotleft": '«',
	"guillemotright": '»',
	"agrave": 'à', "aacute": 'á', "acircumflex": 'â', "atilde": 'ã',
	"adieresis": 'ä', "aring": 'å', "ae": 'æ', "ccedilla": 'ç',
	"egrave": 'è', "eacute": 'é', "ecircumflex": 'ê', "edieresis": 'ë',
	"igrave": 'ì', "iacute": 'í', "icircumflex": 'î', "idieresis": 'ï',
	"ntilde": 'ñ', "ograve": 'ò', "oacute": 'ó', "ocircumflex": 'ô',
	"otilde": 'õ', "odieresis": 'ö', "oslash": 'ø', "ugrave": 'ù',
	"uacute": 'ú', "ucircumflex": 'û', "udieresis": 'ü', "yacute": 'ý',
	"ydieresis": 'ÿ', "germandbls": 'ß', "thorn": 'þ', "eth": 'ð',
	"Agrave": 'À', "Aacute": 'Á', "Acircumflex": 'Â', "Atilde": 'Ã',
	"Adieresis": 'Ä', "Aring": 'Å', "AE": 'Æ', "Ccedilla": 'Ç',
	"Egrave": 'È', "Eacute": 'É', "Ecircumflex": 'Ê', "Edieresis": 'Ë',
	"Igrave": 'Ì', "Iacute": 'Í', "Icircumflex": 'Î', "Idieresis": 'Ï',
	"Ntilde": 'Ñ', "Ograve": 'Ò', "Oacute": 'Ó', "Ocircumflex": 'Ô',
	"Otilde": 'Õ', "Odieresis": 'Ö', "Oslash": 'Ø', "Ugrave": 'Ù',
	"Uacute": 'Ú', "Ucircumflex": 'Û', "Udieresis": 'Ü', "Yacute": 'Ý',
	"Thorn": 'Þ', "Eth": 'Ð',
	"fi": 'ﬁ', "fl": 'ﬂ',
}
