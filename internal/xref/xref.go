// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xref resolves emu-xref references against a frozen biblio index
// and builds the listings of concrete definitions of abstract methods.
package xref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/pkg/types"
)

// Ref is one reference found during Pass 1.
type Ref struct {
	Node *html.Node

	// ID is the target anchor taken from href="#id". Empty for aoid refs.
	ID string

	// Aoid is the target operation name. Empty for id refs.
	Aoid string

	// Namespace is that of the nearest enclosing clause.
	Namespace string
}

// NewRef reads the target of an emu-xref element. ok is false when the
// element names no target.
func NewRef(node *html.Node, namespace string) (Ref, bool) {
	r := Ref{Node: node, Namespace: namespace}
	if href, ok := dom.Attr(node, "href"); ok && strings.HasPrefix(href, "#") && len(href) > 1 {
		r.ID = href[1:]
		return r, true
	}
	if aoid, ok := dom.Attr(node, "aoid"); ok && aoid != "" {
		r.Aoid = aoid
		return r, true
	}
	return r, false
}

// Resolver answers references from a frozen index. A Resolver holds no
// mutable state besides the warning sink, so one index may back any number
// of resolvers running concurrently.
type Resolver struct {
	Index *biblio.Index

	// DefaultNamespace is used when an aoid is not found in the
	// reference's own namespace.
	DefaultNamespace string

	Warn types.Sink
}

func (r *Resolver) warn(w types.Warning) {
	if r.Warn != nil {
		r.Warn(w)
	}
}

// Lookup finds the entry ref points at.
func (r *Resolver) Lookup(ref Ref) (types.Entry, bool) {
	if ref.ID != "" {
		return r.Index.ByID(ref.ID)
	}
	namespaces := []string{ref.Namespace}
	if ref.Namespace != r.DefaultNamespace {
		namespaces = append(namespaces, r.DefaultNamespace)
	}
	for _, ns := range namespaces {
		if ops := r.Index.ByAoid(ref.Aoid, ns); len(ops) > 0 {
			return ops[0], true
		}
	}
	return nil, false
}

// Resolve links ref.Node to its target. An unresolved reference is
// reported and left unlinked.
func (r *Resolver) Resolve(ref Ref) bool {
	e, ok := r.Lookup(ref)
	if !ok {
		r.warnNotFound(ref)
		return false
	}
	link(ref.Node, e, Label(e, dom.HasAttr(ref.Node, "title")))
	return true
}

func (r *Resolver) warnNotFound(ref Ref) {
	var msg string
	var candidates []string
	if ref.ID != "" {
		msg = fmt.Sprintf("can't find clause, operation or table with id %q", ref.ID)
		candidates = r.Index.IDs()
	} else {
		msg = fmt.Sprintf("can't find abstract operation with aoid %q", ref.Aoid)
		candidates = r.aoids()
	}
	target := ref.ID + ref.Aoid
	if s := suggest(target, candidates); s != "" {
		msg += fmt.Sprintf("; did you mean %q?", s)
	}
	r.warn(types.Warning{
		Type:    types.WarnNode,
		RuleID:  "xref-not-found",
		Message: msg,
		Node:    ref.Node,
	})
}

func (r *Resolver) aoids() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.Index.Entries() {
		if op, ok := e.(types.OpEntry); ok && op.Aoid != "" && !seen[op.Aoid] {
			seen[op.Aoid] = true
			out = append(out, op.Aoid)
		}
	}
	return out
}

// suggest returns the first candidate within edit distance 2 of given.
func suggest(given string, candidates []string) string {
	for _, c := range candidates {
		if levenshtein.Distance(given, c, nil) < 3 {
			return c
		}
	}
	return ""
}

// Label is the text shown for a reference to e. Clauses show their
// number, or their title when byTitle is set or they are unnumbered.
func Label(e types.Entry, byTitle bool) string {
	switch e := e.(type) {
	case types.ClauseEntry:
		if byTitle || e.Number == "" {
			return e.Title
		}
		return e.Number
	case types.OpEntry:
		return e.Aoid
	case types.TableEntry:
		return "Table " + strconv.Itoa(e.Number)
	}
	panic(fmt.Sprintf("xref: unhandled entry %T", e))
}

// Href is the link target of e, qualified by its location when it comes
// from another document.
func Href(e types.Entry) string {
	b := e.Base()
	return b.Location + "#" + b.Anchor()
}

// link wraps the node's existing content in an anchor, or fills it with
// label when empty.
func link(node *html.Node, e types.Entry, label string) {
	a := dom.NewElement("a", "href", Href(e))
	if node.FirstChild == nil {
		a.AppendChild(dom.NewText(label))
	} else {
		for c := node.FirstChild; c != nil; {
			next := c.NextSibling
			node.RemoveChild(c)
			a.AppendChild(c)
			c = next
		}
	}
	node.AppendChild(a)
}
