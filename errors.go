// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTextNotFound reports that a target string was absent from the page.
// Search and parse treat this as a normal empty result; replace surfaces it
// through the failure flag and the operation log.
var ErrTextNotFound = errors.New("target text not found")

// UnresolvableEncodingError means a font carries neither an embedded unicode
// mapping, nor encoding differences, nor a recognized named encoding. Text
// shown with that font cannot be decoded; other fonts are unaffected.
type UnresolvableEncodingError struct {
	Font string
}

func (e *UnresolvableEncodingError) Error() string {
	return fmt.Sprintf("font %s: no resolvable encoding", e.Font)
}

// MissingChar is one replacement character the target font cannot encode.
type MissingChar struct {
	Char rune
}

func (c MissingChar) String() string {
	return fmt.Sprintf("%q (U+%04X)", c.Char, c.Char)
}

// MissingCharsError reports every character of a replacement string that has
// no byte code in the target font. It is collected in a single pass so the
// caller sees the complete list, not just the first failure.
type MissingCharsError struct {
	Font    string
	Missing []MissingChar
}

func (e *MissingCharsError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		parts[i] = c.String()
	}
	return fmt.Sprintf("font %s: characters not encodable: %s", e.Font, strings.Join(parts, ", "))
}

// InstanceOutOfRangeError means the caller asked for an occurrence index
// beyond what the locator found.
type InstanceOutOfRangeError struct {
	Requested int
	Located   int
}

func (e *InstanceOutOfRangeError) Error() string {
	return fmt.Sprintf("instance %d requested but only %d located", e.Requested, e.Located)
}

// StreamRewriteError reports a mismatch between located byte ranges and the
// buffer being rewritten. It aborts the whole replace with no partial writes.
type StreamRewriteError struct {
	Offset int
	Reason string
}

func (e *StreamRewriteError) Error() string {
	return fmt.Sprintf("stream rewrite at offset %d: %s", e.Offset, e.Reason)
}

// DocumentStoreError wraps a failure from the document store collaborator.
type DocumentStoreError struct {
	Op  string
	Err error
}

func (e *DocumentStoreError) Error() string {
	return fmt.Sprintf("document store: %s: %v", e.Op, e.Err)
}

func (e *DocumentStoreError) Unwrap() error {
	return e.Err
}
