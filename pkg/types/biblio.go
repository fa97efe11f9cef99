// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data shared between the compiler stages and the
// CLI: parsed signatures, biblio entries and their records, warnings and
// build configuration.
package types

// EntryType tags the variant of a BiblioEntry.
type EntryType string

const (
	EntryClause EntryType = "clause"
	EntryOp     EntryType = "op"
	EntryTable  EntryType = "table"
)

// Operation kinds carried by OpEntry.Kind. Clause-declared operations use
// the clause's type attribute verbatim.
const (
	KindAbstractMethod        = "abstract method"
	KindConcreteMethod        = "concrete method"
	KindAbstractOperation     = "abstract operation"
	KindHostDefined           = "host-defined abstract operation"
	KindImplementationDefined = "implementation-defined abstract operation"
	KindInternalMethod        = "internal method"
	KindNumericMethod         = "numeric method"
)

// EntryBase holds the fields common to every biblio entry variant.
type EntryBase struct {
	// ID is the entry's own anchor. It may be empty when RefID is set.
	ID string

	// RefID is the anchor of the enclosing entry, used when the entry has
	// no anchor of its own.
	RefID string

	// Namespace groups entries so same-named operations from different
	// documents do not collide.
	Namespace string

	// Location is the URL prefix of the document the entry came from.
	// Empty for entries of the document being compiled.
	Location string
}

// Anchor returns ID when present, otherwise RefID.
func (b EntryBase) Anchor() string {
	if b.ID != "" {
		return b.ID
	}
	return b.RefID
}

// Entry is a BiblioEntry: one referenceable fact in the biblio index. The
// variants are ClauseEntry, OpEntry and TableEntry; callers switch on the
// concrete type.
type Entry interface {
	Type() EntryType
	Base() EntryBase
	withBase(EntryBase) Entry
}

// ClauseEntry records a numbered (or unnumbered intro) clause.
type ClauseEntry struct {
	EntryBase

	// Number is the hierarchical clause number, e.g. "5.2.1" or "B.3".
	Number string

	// Title is the text of the clause's h1.
	Title string

	// Parent is the id of the enclosing clause entry, if any.
	Parent string
}

// OpEntry records an operation declaration or definition.
type OpEntry struct {
	EntryBase

	// Aoid is the abstract operation id used for lookups.
	Aoid string

	// Kind is "abstract method", "concrete method", "abstract operation", ...
	Kind string

	// Signature is the parsed header. Nil when the header was not parsed.
	Signature *Signature

	// Effects lists side-effect tags such as "user-code".
	Effects []string

	// For names the type a concrete method is defined for.
	For string
}

// TableEntry records a numbered table figure.
type TableEntry struct {
	EntryBase

	Number  int
	Caption string
}

func (e ClauseEntry) Type() EntryType { return EntryClause }
func (e OpEntry) Type() EntryType     { return EntryOp }
func (e TableEntry) Type() EntryType  { return EntryTable }

func (e ClauseEntry) Base() EntryBase { return e.EntryBase }
func (e OpEntry) Base() EntryBase     { return e.EntryBase }
func (e TableEntry) Base() EntryBase  { return e.EntryBase }

func (e ClauseEntry) withBase(b EntryBase) Entry { e.EntryBase = b; return e }
func (e OpEntry) withBase(b EntryBase) Entry     { e.EntryBase = b; return e }
func (e TableEntry) withBase(b EntryBase) Entry  { e.EntryBase = b; return e }

// WithNamespace returns a copy of e placed in namespace ns.
func WithNamespace(e Entry, ns string) Entry {
	b := e.Base()
	b.Namespace = ns
	return e.withBase(b)
}

// WithLocation returns a copy of e tagged with the given source location.
func WithLocation(e Entry, location string) Entry {
	b := e.Base()
	b.Location = location
	return e.withBase(b)
}
