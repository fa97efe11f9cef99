// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compile runs the two passes over a document tree. Pass 1 walks
// the tree once in document order, numbering clauses and building the
// local biblio index. The index is then frozen and merged with imported
// biblios. Pass 2 builds concrete-method listings and resolves every
// cross-reference against the merged index.
package compile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/internal/xref"
	"github.com/pdiddy/specmark/pkg/types"
)

// External is an imported biblio and how it merges with local entries.
type External struct {
	// Name identifies the import in logs and errors.
	Name   string
	Index  *biblio.Index
	Policy types.MergePolicy
}

// Options configures one compilation.
type Options struct {
	// Namespace is the document's default namespace.
	Namespace string

	// Externals are merged in order after Pass 1.
	Externals []External

	// Locator supplies authored header text. Optional.
	Locator dom.Locator

	// Warn, when set, sees each warning as it is reported.
	Warn types.Sink

	// Strict makes Compile fail when any warning was reported.
	Strict bool

	// Logger receives structured progress records. Nil discards them.
	Logger *slog.Logger
}

// Result summarises a compilation.
type Result struct {
	// Local holds only this document's entries and is what gets exported.
	Local *biblio.Index

	// Index is Local merged with every external biblio.
	Index *biblio.Index

	Warnings []types.Warning

	Clauses    int
	Tables     int
	Listings   int
	Xrefs      int
	Unresolved int
}

// Compile runs both passes over doc, mutating it in place. A duplicate id,
// in the document or across merged biblios, aborts the compilation. In
// strict mode warnings are returned as a *multierror.Error alongside the
// Result.
func Compile(ctx context.Context, doc *html.Node, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	warnings := &Collector{Forward: opts.Warn}
	sink := warnings.Sink()

	start := time.Now()
	col := newCollector(opts.Namespace, opts.Locator, sink)
	if err := col.walk(doc); err != nil {
		logger.Error("pass 1 failed", "error", err)
		return Result{}, fmt.Errorf("collecting entries: %w", err)
	}
	local := col.local.Freeze()
	logger.Debug("pass 1 complete",
		"clauses", col.clauses,
		"tables", col.ntables,
		"entries", local.Len(),
		"elapsed", time.Since(start),
	)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	merged := local
	for _, ext := range opts.Externals {
		next, err := merged.Merge(ext.Index, ext.Policy)
		if err != nil {
			logger.Error("merge failed", "biblio", ext.Name, "error", err)
			return Result{}, fmt.Errorf("merging biblio %s: %w", ext.Name, err)
		}
		logger.Debug("merged biblio", "biblio", ext.Name, "policy", ext.Policy, "entries", ext.Index.Len())
		merged = next
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start = time.Now()
	r := &xref.Resolver{Index: merged, DefaultNamespace: opts.Namespace, Warn: sink}
	refs := col.refs
	for _, l := range col.listings {
		refs = append(refs, r.Build(l)...)
	}
	unresolved := 0
	for _, ref := range refs {
		if !r.Resolve(ref) {
			unresolved++
		}
	}
	logger.Debug("pass 2 complete",
		"xrefs", len(refs),
		"unresolved", unresolved,
		"elapsed", time.Since(start),
	)

	res := Result{
		Local:      local,
		Index:      merged,
		Warnings:   warnings.Warnings(),
		Clauses:    col.clauses,
		Tables:     col.ntables,
		Listings:   len(col.listings),
		Xrefs:      len(refs),
		Unresolved: unresolved,
	}
	if opts.Strict {
		if err := warnings.Err(); err != nil {
			return res, fmt.Errorf("strict mode: %w", err)
		}
	}
	return res, nil
}
