// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package xref

import (
	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/pkg/types"
)

// Listing is an emu-concrete-method-dfns element found during Pass 1.
type Listing struct {
	Node *html.Node

	// For is the aoid of the abstract method.
	For string

	// Namespace is the enclosing clause's namespace, or the document
	// default outside any clause.
	Namespace string
}

// NewListing reads an emu-concrete-method-dfns element.
func NewListing(node *html.Node, namespace string) Listing {
	return Listing{Node: node, For: dom.AttrOr(node, "for", ""), Namespace: namespace}
}

// Build appends to l.Node a list with one item per concrete definition
// of l.For, in registration order. Each item holds an emu-xref labelled
// "<clause number> <type>". The new xrefs are returned so they can be
// resolved with the rest of the document's references.
func (r *Resolver) Build(l Listing) []Ref {
	defs := r.Index.ByAbstractMethodAoid(l.For, l.Namespace)

	ul := dom.NewElement("ul")
	refs := make([]Ref, 0, len(defs))
	for _, def := range defs {
		anchor := def.Anchor()
		number := ""
		if decl, ok := r.Index.ByID(anchor); ok {
			if c, ok := decl.(types.ClauseEntry); ok {
				number = c.Number
			}
		}

		x := dom.NewElement("emu-xref", "href", "#"+anchor)
		x.AppendChild(dom.NewText(number + " " + def.For))
		li := dom.NewElement("li")
		li.AppendChild(x)
		ul.AppendChild(li)

		refs = append(refs, Ref{Node: x, ID: anchor, Namespace: l.Namespace})
	}
	l.Node.AppendChild(ul)
	return refs
}
