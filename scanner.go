// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"encoding/hex"
	"strconv"
)

// StringOperand is one string literal or hex string operand. Bytes holds the
// unescaped payload; Offsets holds, per payload byte, the source offset of
// the escape or hex sequence that produced it, so a rewrite can target exact
// source ranges. Start/End delimit the operand including its delimiters.
type StringOperand struct {
	Bytes      []byte
	Offsets    []int
	Start      int
	End        int
	PayloadEnd int
	Hex        bool
}

// ContentToken is one operator with its collected operands, in stream order.
// Start/End delimit the whole token (first operand through operator) in the
// source buffer.
type ContentToken struct {
	Op      string
	Start   int
	End     int
	Strings []StringOperand
	Numbers []float64
	Name    string
}

// showTextOps are the operators whose string operands paint text.
var showTextOps = map[string]bool{
	"Tj": true,
	"TJ": true,
	"'":  true,
	"\"": true,
}

// IsShowText reports whether the token paints text.
func (t *ContentToken) IsShowText() bool {
	return showTextOps[t.Op]
}

// ContentScanner walks a content-stream buffer and yields one ContentToken
// per operator. It is restartable via Reset and never reads past the buffer.
type ContentScanner struct {
	data []byte
	pos  int
}

// NewContentScanner creates a scanner over a decompressed content stream.
func NewContentScanner(data []byte) *ContentScanner {
	return &ContentScanner{data: data}
}

// Reset rewinds the scanner to the start of the buffer.
func (s *ContentScanner) Reset() {
	s.pos = 0
}

// ScanContent tokenizes a whole buffer in one call.
func ScanContent(data []byte) []ContentToken {
	sc := NewContentScanner(data)
	var out []ContentToken
	for {
		tok, ok := sc.Next()
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}

func isWhite(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumberStart(b byte) bool {
	return b >= '0' && b <= '9' || b == '+' || b == '-' || b == '.'
}

// Next returns the next token. The second return is false at end of buffer.
func (s *ContentScanner) Next() (ContentToken, bool) {
	var tok ContentToken
	tok.Start = -1
	for s.pos < len(s.data) {
		s.skipWhite()
		if s.pos >= len(s.data) {
			break
		}
		start := s.pos
		b := s.data[s.pos]
		switch {
		case b == '%':
			s.skipComment()
			continue
		case b == '(':
			op := s.readLiteral()
			if tok.Start < 0 {
				tok.Start = start
			}
			tok.Strings = append(tok.Strings, op)
			continue
		case b == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.skipDict()
				if tok.Start < 0 {
					tok.Start = start
				}
				continue
			}
			op := s.readHexString()
			if tok.Start < 0 {
				tok.Start = start
			}
			tok.Strings = append(tok.Strings, op)
			continue
		case b == '[':
			s.pos++
			if tok.Start < 0 {
				tok.Start = start
			}
			continue
		case b == ']' || b == '{' || b == '}':
			s.pos++
			if tok.Start < 0 {
				tok.Start = start
			}
			continue
		case b == '/':
			name := s.readName()
			if tok.Start < 0 {
				tok.Start = start
			}
			if tok.Name == "" {
				tok.Name = name
			}
			continue
		case isNumberStart(b):
			n, ok := s.readNumber()
			if tok.Start < 0 {
				tok.Start = start
			}
			if ok {
				tok.Numbers = append(tok.Numbers, n)
			}
			continue
		default:
			tok.Op = s.readOperator()
			tok.End = s.pos
			if tok.Start < 0 {
				tok.Start = start
			}
			return tok, true
		}
	}
	return ContentToken{}, false
}

func (s *ContentScanner) skipWhite() {
	for s.pos < len(s.data) && isWhite(s.data[s.pos]) {
		s.pos++
	}
}

func (s *ContentScanner) skipComment() {
	for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
		s.pos++
	}
}

// skipDict consumes a balanced << >> dictionary, including nested dicts and
// any strings inside it. Property-list operands of marked-content operators
// are not text payloads.
func (s *ContentScanner) skipDict() {
	depth := 0
	for s.pos < len(s.data) {
		switch {
		case s.pos+1 < len(s.data) && s.data[s.pos] == '<' && s.data[s.pos+1] == '<':
			depth++
			s.pos += 2
		case s.pos+1 < len(s.data) && s.data[s.pos] == '>' && s.data[s.pos+1] == '>':
			depth--
			s.pos += 2
			if depth == 0 {
				return
			}
		case s.data[s.pos] == '(':
			s.readLiteral()
		default:
			s.pos++
		}
	}
}

// readLiteral parses a ( ... ) string. Escapes are resolved into payload
// bytes; each payload byte records the source offset of the sequence that
// produced it. Unescaped balanced parens are part of the payload.
func (s *ContentScanner) readLiteral() StringOperand {
	op := StringOperand{Start: s.pos}
	s.pos++ // opening paren
	depth := 1
	for s.pos < len(s.data) {
		seqStart := s.pos
		b := s.data[s.pos]
		if b == '\\' {
			s.pos++
			if s.pos >= len(s.data) {
				break
			}
			e := s.data[s.pos]
			s.pos++
			var out byte
			emit := true
			switch e {
			case 'n':
				out = '\n'
			case 'r':
				out = '\r'
			case 't':
				out = '\t'
			case 'b':
				out = '\b'
			case 'f':
				out = '\f'
			case '(', ')', '\\':
				out = e
			case '\r':
				// Line continuation; a following LF is part of it.
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
				emit = false
			case '\n':
				emit = false
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for extra := 0; extra < 2 && s.pos < len(s.data); extra++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					out = byte(v)
				} else {
					// Unknown escape: the backslash is dropped.
					out = e
				}
			}
			if emit {
				op.Bytes = append(op.Bytes, out)
				op.Offsets = append(op.Offsets, seqStart)
			}
			continue
		}
		if b == '(' {
			depth++
		} else if b == ')' {
			depth--
			if depth == 0 {
				op.PayloadEnd = s.pos
				s.pos++
				op.End = s.pos
				return op
			}
		}
		s.pos++
		op.Bytes = append(op.Bytes, b)
		op.Offsets = append(op.Offsets, seqStart)
	}
	op.PayloadEnd = s.pos
	op.End = s.pos
	return op
}

// readHexString parses a < ... > string. Each payload byte maps back to the
// offset of its first hex digit. An odd trailing digit implies a zero nibble.
func (s *ContentScanner) readHexString() StringOperand {
	op := StringOperand{Start: s.pos, Hex: true}
	s.pos++ // opening bracket
	digitOff := -1
	var hi byte
	haveHi := false
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		if b == '>' {
			op.PayloadEnd = s.pos
			s.pos++
			op.End = s.pos
			if haveHi {
				op.Bytes = append(op.Bytes, hi<<4)
				op.Offsets = append(op.Offsets, digitOff)
			}
			return op
		}
		if v, ok := hexVal(b); ok {
			if !haveHi {
				hi = v
				digitOff = s.pos
				haveHi = true
			} else {
				op.Bytes = append(op.Bytes, hi<<4|v)
				op.Offsets = append(op.Offsets, digitOff)
				haveHi = false
			}
		}
		s.pos++
	}
	op.PayloadEnd = s.pos
	op.End = s.pos
	return op
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func (s *ContentScanner) readName() string {
	s.pos++ // slash
	start := s.pos
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *ContentScanner) readNumber() (float64, bool) {
	start := s.pos
	s.pos++
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	n, err := strconv.ParseFloat(string(s.data[start:s.pos]), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *ContentScanner) readOperator() string {
	start := s.pos
	s.pos++
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// sourceRange returns the source byte range covering payload indices
// [from, to) of the operand.
func (op *StringOperand) sourceRange(from, to int) (int, int) {
	start := op.Offsets[from]
	end := op.PayloadEnd
	if to < len(op.Offsets) {
		end = op.Offsets[to]
	}
	return start, end
}

// encodePayload renders replacement payload bytes in the operand's source
// syntax: escaped for literals, hex digits for hex strings.
func (op *StringOperand) encodePayload(b []byte) []byte {
	if op.Hex {
		out := make([]byte, hex.EncodedLen(len(b)))
		hex.Encode(out, b)
		return out
	}
	return escapeString(b)
}
