// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Type is the parsed form of a type phrase in an operation header. The set
// of implementations is closed: NamedType, ListType, RecordType and UnionType.
// Types are immutable once produced by the header parser.
type Type interface {
	// String renders the type in the same prose form the header parser accepts.
	String() string
	isType()
}

// NamedType is an opaque type referred to by a phrase, e.g. "a Number" or
// "an ECMAScript language value".
type NamedType struct {
	Name string
}

// ListType is "a List of" some element type.
type ListType struct {
	Element Type
}

// RecordField is one [[Name]] (Type) pair of a RecordType.
type RecordField struct {
	Name string
	Type Type
}

// RecordType is "a Record with fields [[A]] (T) and [[B]] (U)".
type RecordType struct {
	Fields []RecordField
}

// UnionType is an alternation of two or more types. It is always flat:
// no alternative is itself a UnionType.
type UnionType struct {
	Alternatives []Type
}

func (NamedType) isType()  {}
func (ListType) isType()   {}
func (RecordType) isType() {}
func (UnionType) isType()  {}

func (t NamedType) String() string { return t.Name }

func (t ListType) String() string {
	if t.Element == nil {
		return "a List"
	}
	return "a List of " + t.Element.String()
}

func (t RecordType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("[[%s]] (%s)", f.Name, f.Type)
	}
	if len(parts) == 1 {
		return "a Record with field " + parts[0]
	}
	return "a Record with fields " + joinSeries(parts, "and")
}

func (t UnionType) String() string {
	parts := make([]string, len(t.Alternatives))
	for i, a := range t.Alternatives {
		parts[i] = a.String()
	}
	return joinSeries(parts, "or")
}

// NewUnion builds a flattened union of alts. A single alternative is
// returned unchanged and nil alternatives are dropped.
func NewUnion(alts ...Type) Type {
	var flat []Type
	for _, a := range alts {
		switch a := a.(type) {
		case nil:
		case UnionType:
			flat = append(flat, a.Alternatives...)
		default:
			flat = append(flat, a)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return UnionType{Alternatives: flat}
}

// joinSeries joins items as "a", "a and b" or "a, b, and c".
func joinSeries(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
}

// Parameter is one formal parameter of an operation signature.
type Parameter struct {
	Name     string
	Type     Type
	Optional bool
}

// Signature is the structured form of an operation header such as
// "Foo ( _x_: a Number, optional _y_: a String ): a Boolean".
type Signature struct {
	Name   string
	Params []Parameter
	Return Type
}

// Required returns the parameters that are not optional, in order.
func (s Signature) Required() []Parameter {
	var out []Parameter
	for _, p := range s.Params {
		if !p.Optional {
			out = append(out, p)
		}
	}
	return out
}
