// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strconv"
)

// EntryRecord is the flat, serializable form of an Entry used in exported
// biblios. Type selects which of the optional fields are meaningful.
type EntryRecord struct {
	Type      EntryType        `json:"type" yaml:"type"`
	ID        string           `json:"id,omitempty" yaml:"id,omitempty"`
	RefID     string           `json:"ref_id,omitempty" yaml:"ref_id,omitempty"`
	Namespace string           `json:"namespace" yaml:"namespace"`
	Location  string           `json:"location,omitempty" yaml:"location,omitempty"`
	Number    string           `json:"number,omitempty" yaml:"number,omitempty"`
	Title     string           `json:"title,omitempty" yaml:"title,omitempty"`
	Parent    string           `json:"parent,omitempty" yaml:"parent,omitempty"`
	Aoid      string           `json:"aoid,omitempty" yaml:"aoid,omitempty"`
	Kind      string           `json:"kind,omitempty" yaml:"kind,omitempty"`
	Signature *SignatureRecord `json:"signature,omitempty" yaml:"signature,omitempty"`
	Effects   []string         `json:"effects,omitempty" yaml:"effects,omitempty"`
	For       string           `json:"for,omitempty" yaml:"for,omitempty"`
	Caption   string           `json:"caption,omitempty" yaml:"caption,omitempty"`
}

// SignatureRecord is the serializable form of a Signature.
type SignatureRecord struct {
	Name   string            `json:"name" yaml:"name"`
	Params []ParameterRecord `json:"params" yaml:"params"`
	Return *TypeRecord       `json:"return,omitempty" yaml:"return,omitempty"`
}

// ParameterRecord is the serializable form of a Parameter.
type ParameterRecord struct {
	Name     string      `json:"name" yaml:"name"`
	Type     *TypeRecord `json:"type,omitempty" yaml:"type,omitempty"`
	Optional bool        `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// TypeKind tags a TypeRecord.
type TypeKind string

const (
	TypeKindNamed  TypeKind = "named"
	TypeKindList   TypeKind = "list"
	TypeKindRecord TypeKind = "record"
	TypeKindUnion  TypeKind = "union"
)

// TypeRecord is the serializable form of a Type.
type TypeRecord struct {
	Kind         TypeKind      `json:"kind" yaml:"kind"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	Element      *TypeRecord   `json:"element,omitempty" yaml:"element,omitempty"`
	Fields       []FieldRecord `json:"fields,omitempty" yaml:"fields,omitempty"`
	Alternatives []*TypeRecord `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

// FieldRecord is one record field of a TypeRecord.
type FieldRecord struct {
	Name string      `json:"name" yaml:"name"`
	Type *TypeRecord `json:"type" yaml:"type"`
}

// EncodeEntry flattens e into an EntryRecord.
func EncodeEntry(e Entry) EntryRecord {
	b := e.Base()
	r := EntryRecord{
		Type:      e.Type(),
		ID:        b.ID,
		RefID:     b.RefID,
		Namespace: b.Namespace,
		Location:  b.Location,
	}
	switch e := e.(type) {
	case ClauseEntry:
		r.Number = e.Number
		r.Title = e.Title
		r.Parent = e.Parent
	case OpEntry:
		r.Aoid = e.Aoid
		r.Kind = e.Kind
		r.Signature = EncodeSignature(e.Signature)
		r.Effects = e.Effects
		r.For = e.For
	case TableEntry:
		r.Number = strconv.Itoa(e.Number)
		r.Caption = e.Caption
	}
	return r
}

// DecodeEntry rebuilds the Entry variant described by r.
func DecodeEntry(r EntryRecord) (Entry, error) {
	base := EntryBase{ID: r.ID, RefID: r.RefID, Namespace: r.Namespace, Location: r.Location}
	switch r.Type {
	case EntryClause:
		return ClauseEntry{EntryBase: base, Number: r.Number, Title: r.Title, Parent: r.Parent}, nil
	case EntryOp:
		sig, err := DecodeSignature(r.Signature)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", base.Anchor(), err)
		}
		return OpEntry{
			EntryBase: base,
			Aoid:      r.Aoid,
			Kind:      r.Kind,
			Signature: sig,
			Effects:   r.Effects,
			For:       r.For,
		}, nil
	case EntryTable:
		n := 0
		if r.Number != "" {
			var err error
			if n, err = strconv.Atoi(r.Number); err != nil {
				return nil, fmt.Errorf("table entry %q: invalid number %q", base.Anchor(), r.Number)
			}
		}
		return TableEntry{EntryBase: base, Number: n, Caption: r.Caption}, nil
	}
	return nil, fmt.Errorf("unknown entry type %q", r.Type)
}

// EncodeSignature returns nil for a nil signature.
func EncodeSignature(s *Signature) *SignatureRecord {
	if s == nil {
		return nil
	}
	r := &SignatureRecord{Name: s.Name, Params: make([]ParameterRecord, len(s.Params)), Return: EncodeType(s.Return)}
	for i, p := range s.Params {
		r.Params[i] = ParameterRecord{Name: p.Name, Type: EncodeType(p.Type), Optional: p.Optional}
	}
	return r
}

// DecodeSignature returns nil for a nil record.
func DecodeSignature(r *SignatureRecord) (*Signature, error) {
	if r == nil {
		return nil, nil
	}
	ret, err := DecodeType(r.Return)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}
	s := &Signature{Name: r.Name, Return: ret, Params: make([]Parameter, len(r.Params))}
	for i, p := range r.Params {
		t, err := DecodeType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		s.Params[i] = Parameter{Name: p.Name, Type: t, Optional: p.Optional}
	}
	return s, nil
}

// EncodeType returns nil for a nil type.
func EncodeType(t Type) *TypeRecord {
	switch t := t.(type) {
	case nil:
		return nil
	case NamedType:
		return &TypeRecord{Kind: TypeKindNamed, Name: t.Name}
	case ListType:
		return &TypeRecord{Kind: TypeKindList, Element: EncodeType(t.Element)}
	case RecordType:
		r := &TypeRecord{Kind: TypeKindRecord, Fields: make([]FieldRecord, len(t.Fields))}
		for i, f := range t.Fields {
			r.Fields[i] = FieldRecord{Name: f.Name, Type: EncodeType(f.Type)}
		}
		return r
	case UnionType:
		r := &TypeRecord{Kind: TypeKindUnion, Alternatives: make([]*TypeRecord, len(t.Alternatives))}
		for i, a := range t.Alternatives {
			r.Alternatives[i] = EncodeType(a)
		}
		return r
	}
	panic(fmt.Sprintf("types: unhandled Type %T", t))
}

// DecodeType returns nil for a nil record.
func DecodeType(r *TypeRecord) (Type, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case TypeKindNamed:
		return NamedType{Name: r.Name}, nil
	case TypeKindList:
		el, err := DecodeType(r.Element)
		if err != nil {
			return nil, err
		}
		return ListType{Element: el}, nil
	case TypeKindRecord:
		fields := make([]RecordField, len(r.Fields))
		for i, f := range r.Fields {
			ft, err := DecodeType(f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = RecordField{Name: f.Name, Type: ft}
		}
		return RecordType{Fields: fields}, nil
	case TypeKindUnion:
		if len(r.Alternatives) < 2 {
			return nil, fmt.Errorf("union type needs at least two alternatives, got %d", len(r.Alternatives))
		}
		alts := make([]Type, len(r.Alternatives))
		for i, a := range r.Alternatives {
			at, err := DecodeType(a)
			if err != nil {
				return nil, err
			}
			alts[i] = at
		}
		return NewUnion(alts...), nil
	}
	return nil, fmt.Errorf("unknown type kind %q", r.Kind)
}
