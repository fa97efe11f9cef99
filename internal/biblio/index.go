// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package biblio is the symbol table of a compilation: every clause,
// operation and table that can be referenced, keyed by id and by
// (namespace, aoid). It also exports indices for other documents and
// persists exported indices in a SQLite store.
package biblio

import (
	"errors"
	"fmt"

	"github.com/pdiddy/specmark/pkg/types"
)

var (
	// ErrDuplicateID is fatal: two entries claim the same anchor.
	ErrDuplicateID = errors.New("duplicate biblio id")

	// ErrMissingAnchor marks an entry with neither id nor refId.
	ErrMissingAnchor = errors.New("biblio entry has neither id nor refId")

	// ErrFrozen is returned by Add once the index is read-only.
	ErrFrozen = errors.New("biblio index is frozen")
)

// DuplicateIDError names the colliding id and both entries.
type DuplicateIDError struct {
	ID       string
	Existing types.Entry
	Incoming types.Entry
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate biblio id %q: %s entry from %s collides with %s entry from %s",
		e.ID, e.Incoming.Type(), source(e.Incoming), e.Existing.Type(), source(e.Existing))
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

func source(e types.Entry) string {
	if loc := e.Base().Location; loc != "" {
		return loc
	}
	return "this document"
}

type aoidKey struct {
	namespace string
	aoid      string
}

// Index maps ids and (namespace, aoid) pairs to entries. It is built by a
// single owner during Pass 1 and frozen before Pass 2; a frozen Index is
// never mutated and may be read from any number of goroutines.
type Index struct {
	entries []types.Entry
	byID    map[string]int
	byAoid  map[aoidKey][]int
	frozen  bool
}

// New returns an empty, writable index.
func New() *Index {
	return &Index{
		byID:   make(map[string]int),
		byAoid: make(map[aoidKey][]int),
	}
}

// Add inserts e into namespace. A colliding id yields a *DuplicateIDError,
// which callers must treat as fatal.
func (ix *Index) Add(e types.Entry, namespace string) error {
	if ix.frozen {
		return ErrFrozen
	}
	e = types.WithNamespace(e, namespace)
	b := e.Base()
	if b.ID == "" && b.RefID == "" {
		return fmt.Errorf("%s entry in namespace %q: %w", e.Type(), namespace, ErrMissingAnchor)
	}
	if b.ID != "" {
		if i, ok := ix.byID[b.ID]; ok {
			return &DuplicateIDError{ID: b.ID, Existing: ix.entries[i], Incoming: e}
		}
	}

	i := len(ix.entries)
	ix.entries = append(ix.entries, e)
	if b.ID != "" {
		ix.byID[b.ID] = i
	}
	if op, ok := e.(types.OpEntry); ok && op.Aoid != "" {
		k := aoidKey{namespace: namespace, aoid: op.Aoid}
		ix.byAoid[k] = append(ix.byAoid[k], i)
	}
	return nil
}

// Freeze makes the index read-only and returns it.
func (ix *Index) Freeze() *Index {
	ix.frozen = true
	return ix
}

// Frozen reports whether Add is still permitted.
func (ix *Index) Frozen() bool { return ix.frozen }

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns all entries in insertion order.
func (ix *Index) Entries() []types.Entry {
	return append([]types.Entry(nil), ix.entries...)
}

// ByID returns the entry whose own id is id.
func (ix *Index) ByID(id string) (types.Entry, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return ix.entries[i], true
}

// IDs returns every registered id in insertion order.
func (ix *Index) IDs() []string {
	ids := make([]string, 0, len(ix.byID))
	for _, e := range ix.entries {
		if id := e.Base().ID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ByAoid returns every operation entry registered under (namespace, aoid)
// in registration order. The result is empty, never nil-faulting, when
// nothing matches.
func (ix *Index) ByAoid(aoid, namespace string) []types.OpEntry {
	idxs := ix.byAoid[aoidKey{namespace: namespace, aoid: aoid}]
	out := make([]types.OpEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, ix.entries[i].(types.OpEntry))
	}
	return out
}

// ByAbstractMethodAoid returns the concrete definitions of the abstract
// method aoid in namespace, in registration order.
func (ix *Index) ByAbstractMethodAoid(aoid, namespace string) []types.OpEntry {
	var out []types.OpEntry
	for _, op := range ix.ByAoid(aoid, namespace) {
		if op.Kind == types.KindConcreteMethod {
			out = append(out, op)
		}
	}
	if out == nil {
		out = []types.OpEntry{}
	}
	return out
}

// Merge returns a new frozen index holding ix's entries followed by
// external's. Neither input is modified.
//
// With types.MergeStrict every id collision is a *DuplicateIDError. With
// types.MergeSupplementary the caller declares external to be a
// lower-priority supplement: a colliding external entry is dropped and
// the local one kept.
func (ix *Index) Merge(external *Index, policy types.MergePolicy) (*Index, error) {
	switch policy {
	case types.MergeStrict, types.MergeSupplementary:
	default:
		return nil, fmt.Errorf("unknown merge policy %q", policy)
	}

	out := New()
	for _, e := range ix.entries {
		if err := out.Add(e, e.Base().Namespace); err != nil {
			return nil, err
		}
	}
	for _, e := range external.entries {
		if id := e.Base().ID; id != "" && policy == types.MergeSupplementary {
			if _, ok := ix.byID[id]; ok {
				continue
			}
		}
		if err := out.Add(e, e.Base().Namespace); err != nil {
			return nil, err
		}
	}
	return out.Freeze(), nil
}
