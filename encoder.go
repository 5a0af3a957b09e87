// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import "github.com/herryqg/pdf-parser/oplog"

// Encode converts replacement text to the font's byte codes. Every character
// the font cannot encode is collected before failing, so one pass yields the
// complete diagnostic. No mutation happens on failure.
func Encode(fd *FontDescriptor, text string) ([]byte, error) {
	var out []byte
	var missing []MissingChar
	w := fd.ByteWidth()
	for _, r := range text {
		code, ok := fd.Map().EncodeRune(r)
		if !ok {
			missing = append(missing, MissingChar{Char: r})
			continue
		}
		out = appendCode(out, code, w)
	}
	if len(missing) > 0 {
		return nil, &MissingCharsError{Font: fd.DisplayName(), Missing: missing}
	}
	return out, nil
}

// EncodeAutoInsert is Encode with code reservation for unmapped characters.
// Reserved codes start at floor, skipping printable ASCII and controls, and
// are recorded on the descriptor so the font embedding collaborator can add
// the glyphs. Returns the encoded bytes together with the reservations made
// by this call.
func EncodeAutoInsert(fd *FontDescriptor, text string, floor uint16, log *oplog.Log) ([]byte, []PendingInsert, error) {
	var out []byte
	var inserted []PendingInsert
	w := fd.ByteWidth()
	for _, r := range text {
		code, ok := fd.Map().EncodeRune(r)
		if !ok {
			assigned, err := fd.Map().AssignCode(r, floor)
			if err != nil {
				return nil, nil, &MissingCharsError{
					Font:    fd.DisplayName(),
					Missing: []MissingChar{{Char: r}},
				}
			}
			fd.recordInsert(assigned, r)
			inserted = append(inserted, PendingInsert{Code: assigned, Rune: r})
			log.Info("reserved code 0x%02X for %q in font %s", assigned, r, fd.DisplayName())
			code = assigned
		}
		out = appendCode(out, code, w)
	}
	return out, inserted, nil
}

func appendCode(dst []byte, code uint16, width int) []byte {
	if width == 2 {
		return append(dst, byte(code>>8), byte(code))
	}
	return append(dst, byte(code))
}
