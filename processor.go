// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfparser

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/herryqg/pdf-parser/logger"
	"github.com/herryqg/pdf-parser/oplog"
)

// Processor defines the document operation surface.
type Processor interface {
	Replace(ctx context.Context, req ReplaceRequest) (bool, *oplog.Log, error)
	Search(ctx context.Context, input, text string, pageIndex int, caseSensitive bool) ([]SearchResult, error)
	ParsePage(ctx context.Context, input string, pageIndex int) ([]TextElement, error)
	AnalyzeFonts(ctx context.Context, input string) ([]FontReport, error)
}

// ReplaceRequest describes one replace operation. Instance selects a single
// zero-based occurrence; AllInstances (-1) selects every located occurrence,
// applied all-or-nothing.
type ReplaceRequest struct {
	Input           string
	Output          string
	Target          string
	Replacement     string
	Page            int
	Instance        int
	AllowAutoInsert bool
}

// AllInstances selects every occurrence of the target.
const AllInstances = -1

// SearchResult is one occurrence found by Search.
type SearchResult struct {
	Page          int
	Text          string
	Context       string
	Rect          Rect
	HasRect       bool
	BlockOrder    int
	InstanceIndex int
}

// TextElement is one text run reported by ParsePage, reconciled with the
// geometry provider where a record was available.
type TextElement struct {
	Text    string
	Font    string
	Rect    Rect
	HasRect bool
	Source  OccurrenceSource
}

// FontReport summarizes one font's resolved encoding for AnalyzeFonts.
type FontReport struct {
	Page      int
	Font      string
	BaseFont  string
	Kind      string
	ByteWidth int
	Mappings  int
	Resolved  bool
	Samples   []MappingSample
}

// MappingSample is one code-to-text pair shown in a font report.
type MappingSample struct {
	Code string
	Text string
}

// processor runs document operations with page-level concurrency control.
type processor struct {
	cfg    *Config
	opener StoreOpener
	sem    *semaphore.Weighted
}

// NewProcessor validates the config and creates a new processor over the
// given document store opener.
func NewProcessor(cfg *Config, opener StoreOpener) *processor {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	logger.Debug(fmt.Sprintf("Processor initialized: max_concurrent_pages=%d verbosity=%d origin=%s",
		cfg.MaxConcurrentPages, cfg.Verbosity, cfg.GeometryOrigin))
	return &processor{
		cfg:    cfg,
		opener: opener,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrentPages)),
	}
}

// pageData is a fully analyzed page: plain stream bytes, its token sequence,
// and the resolved fonts keyed by resource name.
type pageData struct {
	stream []byte
	tokens []ContentToken
	fonts  map[string]*FontDescriptor
}

func (p *processor) loadPage(store DocumentStore, resolver *Resolver, page int, log *oplog.Log) (*pageData, error) {
	stream, err := store.ContentStream(page)
	if err != nil {
		return nil, err
	}
	raw, err := store.Fonts(page)
	if err != nil {
		return nil, err
	}
	fonts := make(map[string]*FontDescriptor, len(raw))
	for _, fd := range raw {
		desc, err := resolver.Resolve(fd)
		if err != nil {
			var unresolvable *UnresolvableEncodingError
			if errors.As(err, &unresolvable) {
				log.Warning("font %s has no resolvable encoding; its text is skipped", fd.Name)
				continue
			}
			return nil, err
		}
		fonts[fd.Name] = desc
		log.Data("font %s: %s, byte width %d, %d mappings",
			desc.DisplayName(), desc.Kind, desc.ByteWidth(), desc.Map().Size())
	}
	return &pageData{
		stream: stream,
		tokens: ScanContent(stream),
		fonts:  fonts,
	}, nil
}

// geometry returns the page's normalized, nested-filtered records when the
// store doubles as a geometry source, nil otherwise.
func (p *processor) geometry(store DocumentStore, page int) []GeometryRecord {
	src, ok := store.(GeometrySource)
	if !ok {
		return nil
	}
	recs, height, err := src.PageGeometry(page)
	if err != nil {
		logger.Debug("geometry unavailable", "page", page, "err", err)
		return nil
	}
	return FilterNested(NormalizeRecords(recs, p.cfg.GeometryOrigin, height))
}

// Replace locates the target on one page, validates the replacement against
// the fonts of every selected occurrence, and only then rewrites the stream.
// The returned flag reports success; the log enumerates every decision
// including the complete list of unencodable characters on failure.
func (p *processor) Replace(ctx context.Context, req ReplaceRequest) (bool, *oplog.Log, error) {
	log := oplog.New(p.cfg.Verbosity)

	if req.Target == req.Replacement {
		log.Warning("replacement is identical to target; nothing to do")
		return false, log, nil
	}

	if err := p.acquireSlot(ctx); err != nil {
		return false, log, err
	}
	defer p.sem.Release(1)

	store, err := p.opener.Open(req.Input)
	if err != nil {
		log.Error("open %s: %v", req.Input, err)
		return false, log, &DocumentStoreError{Op: "open " + req.Input, Err: err}
	}
	if req.Page < 0 || req.Page >= store.NumPages() {
		err := &DocumentStoreError{Op: "page", Err: fmt.Errorf("page %d out of range [0,%d)", req.Page, store.NumPages())}
		log.Error("%v", err)
		return false, log, err
	}

	resolver := NewResolver()
	pd, err := p.loadPage(store, resolver, req.Page, log)
	if err != nil {
		log.Error("load page %d: %v", req.Page, err)
		return false, log, err
	}

	matches := Locate(req.Page, pd.tokens, pd.fonts, req.Target, true)
	if len(matches) == 0 {
		log.Warning("text %q not found on page %d", req.Target, req.Page)
		return false, log, nil
	}
	log.Info("located %d occurrence(s) of %q on page %d", len(matches), req.Target, req.Page)

	selected := matches
	if req.Instance != AllInstances {
		if req.Instance < 0 || req.Instance >= len(matches) {
			err := &InstanceOutOfRangeError{Requested: req.Instance, Located: len(matches)}
			log.Error("%v", err)
			return false, log, err
		}
		selected = matches[req.Instance : req.Instance+1]
	}

	// Validation pass: every selected occurrence must encode before any byte
	// is touched, so a failure leaves the document untouched.
	var patches []Patch
	encodedByFont := make(map[string][]byte)
	for i := range selected {
		m := &selected[i]
		if m.SpansFonts() {
			log.Error("occurrence %d of %q crosses a font change and cannot be rewritten", m.Order, req.Target)
			return false, log, &StreamRewriteError{Offset: m.Start(), Reason: "match spans multiple fonts"}
		}
		fd := pd.fonts[m.Font]
		if fd == nil {
			log.Error("occurrence %d of %q uses font %q with no resolvable encoding", m.Order, req.Target, m.Font)
			return false, log, &UnresolvableEncodingError{Font: m.Font}
		}

		encoded, ok := encodedByFont[m.Font]
		if !ok {
			encoded, err = p.encodeReplacement(fd, req, log)
			if err != nil {
				return false, log, err
			}
			encodedByFont[m.Font] = encoded
		}

		mp, err := BuildPatches(m, encoded, pd.tokens)
		if err != nil {
			log.Error("%v", err)
			return false, log, err
		}
		patches = append(patches, mp...)
		log.Data("occurrence %d: stream bytes [%d,%d) -> %s",
			m.Order, m.Start(), m.Segments[len(m.Segments)-1].End, hex.EncodeToString(encoded))
		p.traceMapping(fd, req.Replacement, log)
	}

	newStream, err := ApplyPatches(pd.stream, patches)
	if err != nil {
		log.Error("%v", err)
		return false, log, err
	}
	if err := store.SetContentStream(req.Page, newStream); err != nil {
		log.Error("%v", err)
		return false, log, err
	}
	for _, fd := range pd.fonts {
		if inserts := fd.PendingInserts(); len(inserts) > 0 {
			log.Warning("font %s needs %d glyph mapping update(s) from the font embedder", fd.DisplayName(), len(inserts))
		}
	}
	if err := store.Save(req.Output); err != nil {
		log.Error("%v", err)
		return false, log, err
	}
	log.Success("replaced %d occurrence(s) of %q on page %d, saved to %s",
		len(selected), req.Target, req.Page, req.Output)
	return true, log, nil
}

func (p *processor) encodeReplacement(fd *FontDescriptor, req ReplaceRequest, log *oplog.Log) ([]byte, error) {
	if req.AllowAutoInsert {
		encoded, _, err := EncodeAutoInsert(fd, req.Replacement, uint16(p.cfg.AutoInsertFloor), log)
		if err != nil {
			logMissing(log, err)
			return nil, err
		}
		return encoded, nil
	}
	encoded, err := Encode(fd, req.Replacement)
	if err != nil {
		logMissing(log, err)
		return nil, err
	}
	return encoded, nil
}

func logMissing(log *oplog.Log, err error) {
	var missing *MissingCharsError
	if errors.As(err, &missing) {
		for _, c := range missing.Missing {
			log.Error("character %q (U+%04X) has no byte code in font %s", c.Char, c.Char, missing.Font)
		}
		return
	}
	log.Error("%v", err)
}

// traceMapping emits the per-character code trace at the highest verbosity.
func (p *processor) traceMapping(fd *FontDescriptor, text string, log *oplog.Log) {
	for _, r := range text {
		if code, ok := fd.Map().EncodeRune(r); ok {
			log.Trace("%q (U+%04X) -> 0x%0*X in %s", r, r, fd.ByteWidth()*2, code, fd.DisplayName())
		}
	}
}

type pageSearchResult struct {
	index int
	occs  []Occurrence
	err   error
}

// Search finds the text across one page or, with a negative pageIndex, the
// whole document. Pages run in parallel bounded by MaxConcurrentPages;
// results come back in page order. An absent target is an empty result, not
// an error.
func (p *processor) Search(ctx context.Context, input, text string, pageIndex int, caseSensitive bool) ([]SearchResult, error) {
	store, err := p.opener.Open(input)
	if err != nil {
		return nil, &DocumentStoreError{Op: "open " + input, Err: err}
	}
	pages, err := p.pageRange(store, pageIndex)
	if err != nil {
		return nil, err
	}

	results := make(chan pageSearchResult, len(pages))
	var wg sync.WaitGroup
	for _, page := range pages {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer p.sem.Release(1)
			occs, err := p.searchPage(store, page, text, caseSensitive)
			results <- pageSearchResult{index: page, occs: occs, err: err}
		}(page)
	}
	wg.Wait()
	close(results)

	collected := make([]pageSearchResult, 0, len(pages))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		collected = append(collected, res)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	var out []SearchResult
	for _, res := range collected {
		for _, occ := range res.occs {
			out = append(out, SearchResult{
				Page:          occ.Page,
				Text:          occ.Text,
				Context:       occ.Context,
				Rect:          occ.Rect,
				HasRect:       occ.HasRect,
				BlockOrder:    occ.BlockOrder,
				InstanceIndex: occ.InstanceIndex,
			})
		}
	}
	logger.Debug("search completed", "input", input, "target", text, "results", len(out))
	return out, nil
}

func (p *processor) searchPage(store DocumentStore, page int, text string, caseSensitive bool) ([]Occurrence, error) {
	log := oplog.New(0)
	pd, err := p.loadPage(store, NewResolver(), page, log)
	if err != nil {
		return nil, err
	}
	matches := Locate(page, pd.tokens, pd.fonts, text, caseSensitive)
	if len(matches) == 0 {
		return nil, nil
	}
	return MatchGeometry(matches, p.geometry(store, page)), nil
}

// ParsePage decodes every text run on a page in stream order, reconciled
// with geometry records where the provider has one for the run.
func (p *processor) ParsePage(ctx context.Context, input string, pageIndex int) ([]TextElement, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	store, err := p.opener.Open(input)
	if err != nil {
		return nil, &DocumentStoreError{Op: "open " + input, Err: err}
	}
	if pageIndex < 0 || pageIndex >= store.NumPages() {
		return nil, &DocumentStoreError{Op: "page", Err: fmt.Errorf("page %d out of range [0,%d)", pageIndex, store.NumPages())}
	}
	log := oplog.New(0)
	pd, err := p.loadPage(store, NewResolver(), pageIndex, log)
	if err != nil {
		return nil, err
	}
	texts := CollectTexts(pageIndex, pd.tokens, pd.fonts)
	occs := MatchGeometry(texts, p.geometry(store, pageIndex))
	out := make([]TextElement, 0, len(occs))
	for _, occ := range occs {
		out = append(out, TextElement{
			Text:    occ.Text,
			Font:    occ.Font,
			Rect:    occ.Rect,
			HasRect: occ.HasRect,
			Source:  occ.Source,
		})
	}
	return out, nil
}

const fontReportSamples = 5

// AnalyzeFonts reports every font of every page with its resolved encoding
// kind and mapping coverage. Unresolvable fonts appear with Resolved false.
func (p *processor) AnalyzeFonts(ctx context.Context, input string) ([]FontReport, error) {
	store, err := p.opener.Open(input)
	if err != nil {
		return nil, &DocumentStoreError{Op: "open " + input, Err: err}
	}
	resolver := NewResolver()
	var out []FontReport
	for page := 0; page < store.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := store.Fonts(page)
		if err != nil {
			return nil, err
		}
		for _, fd := range raw {
			report := FontReport{Page: page, Font: fd.Name, BaseFont: fd.BaseFont}
			desc, err := resolver.Resolve(fd)
			if err != nil {
				out = append(out, report)
				continue
			}
			report.Resolved = true
			report.Kind = desc.Kind.String()
			report.ByteWidth = desc.ByteWidth()
			report.Mappings = desc.Map().Size()
			for _, e := range desc.Map().Entries(fontReportSamples) {
				report.Samples = append(report.Samples, MappingSample{
					Code: fmt.Sprintf("0x%0*X", desc.ByteWidth()*2, e.Code),
					Text: string(e.Runes),
				})
			}
			out = append(out, report)
		}
	}
	return out, nil
}

func (p *processor) pageRange(store DocumentStore, pageIndex int) ([]int, error) {
	total := store.NumPages()
	if pageIndex >= total {
		return nil, &DocumentStoreError{Op: "page", Err: fmt.Errorf("page %d out of range [0,%d)", pageIndex, total)}
	}
	if pageIndex >= 0 {
		return []int{pageIndex}, nil
	}
	pages := make([]int, total)
	for i := range pages {
		pages[i] = i
	}
	return pages, nil
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	return nil
}
