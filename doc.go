// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdfparser is an encoding-aware search and replace engine for page
// content streams. It resolves font byte-code to Unicode maps, tokenizes
// content streams, locates text occurrences, re-encodes replacement text,
// and rewrites stream bytes in place, reconciling stream matches with
// rendered geometry for stable instance numbering. Container concerns
// (object graph, cross-reference tables, stream filters) belong to the
// DocumentStore collaborator.
package pdfparser
