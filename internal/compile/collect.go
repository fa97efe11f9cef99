// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/biblio"
	"github.com/pdiddy/specmark/internal/clausenum"
	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/internal/header"
	"github.com/pdiddy/specmark/internal/table"
	"github.com/pdiddy/specmark/internal/xref"
	"github.com/pdiddy/specmark/pkg/types"
)

// headerKinds are the clause types whose h1 is an operation header.
var headerKinds = map[string]bool{
	types.KindAbstractOperation:     true,
	types.KindHostDefined:           true,
	types.KindImplementationDefined: true,
	types.KindNumericMethod:         true,
	types.KindInternalMethod:        true,
	types.KindConcreteMethod:        true,
	types.KindAbstractMethod:        true,
}

// clause is one entry of the clause stack.
type clause struct {
	id        string
	namespace string
	number    string
	numbered  bool
}

// collector runs Pass 1: it numbers clauses, registers entries in the
// local index, and gathers the references Pass 2 resolves.
type collector struct {
	local     *biblio.Index
	namespace string
	locator   dom.Locator
	warn      types.Sink

	numbers  clausenum.Iterator[*clause]
	tables   *table.Classifier
	stack    []*clause
	refs     []xref.Ref
	listings []xref.Listing

	clauses int
	ntables int
}

func newCollector(namespace string, locator dom.Locator, warn types.Sink) *collector {
	return &collector{
		local:     biblio.New(),
		namespace: namespace,
		locator:   locator,
		warn:      warn,
		tables:    &table.Classifier{Locator: locator, Warn: warn},
	}
}

// currentNamespace is the namespace of the innermost clause, or the
// document default outside every clause.
func (c *collector) currentNamespace() string {
	if n := len(c.stack); n > 0 {
		return c.stack[n-1].namespace
	}
	return c.namespace
}

func (c *collector) parentID() string {
	if n := len(c.stack); n > 0 {
		return c.stack[n-1].id
	}
	return ""
}

func (c *collector) numberedAncestors() []*clause {
	var out []*clause
	for _, cl := range c.stack {
		if cl.numbered {
			out = append(out, cl)
		}
	}
	return out
}

// add registers e. An entry without an anchor is reported and dropped;
// every other failure, a duplicate id in particular, is fatal.
func (c *collector) add(e types.Entry, namespace string, node *html.Node) error {
	err := c.local.Add(e, namespace)
	if errors.Is(err, biblio.ErrMissingAnchor) {
		c.warn(types.Warning{
			Type:    types.WarnNode,
			RuleID:  "missing-anchor",
			Message: fmt.Sprintf("%s entry has no id and no enclosing element with an id", e.Type()),
			Node:    node,
		})
		return nil
	}
	return err
}

// walk visits n's subtree in document order.
func (c *collector) walk(n *html.Node) error {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if err := c.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) visit(n *html.Node) error {
	switch n.Data {
	case "emu-clause", "emu-annex", "emu-intro":
		return c.visitClause(n)
	case "emu-table":
		if err := c.visitTable(n); err != nil {
			return err
		}
	case "emu-xref":
		if ref, ok := xref.NewRef(n, c.currentNamespace()); ok {
			c.refs = append(c.refs, ref)
		} else {
			c.warn(types.Warning{
				Type:    types.WarnNode,
				RuleID:  "invalid-xref",
				Message: "<emu-xref> needs an href=\"#id\" or an aoid attribute",
				Node:    n,
			})
		}
	case "emu-concrete-method-dfns":
		c.listings = append(c.listings, xref.NewListing(n, c.currentNamespace()))
	}
	return c.walk(n)
}

func (c *collector) visitClause(n *html.Node) error {
	cl := &clause{
		id:        dom.ID(n),
		namespace: dom.AttrOr(n, "namespace", c.currentNamespace()),
		numbered:  n.Data != "emu-intro",
	}
	if cl.numbered {
		cl.number = c.nextNumber(n)
	}
	c.clauses++

	title := ""
	h1, hasH1 := dom.ChildByTag(n, "h1")
	if hasH1 {
		title = strings.TrimSpace(dom.TextContent(h1))
	}

	err := c.add(types.ClauseEntry{
		EntryBase: types.EntryBase{ID: cl.id},
		Number:    cl.number,
		Title:     title,
		Parent:    c.parentID(),
	}, cl.namespace, n)
	if err != nil {
		return err
	}

	if err := c.clauseOperation(n, cl, h1, hasH1); err != nil {
		return err
	}

	c.stack = append(c.stack, cl)
	err = c.walk(n)
	c.stack = c.stack[:len(c.stack)-1]
	return err
}

// nextNumber advances the clause numbering, honouring an explicit number
// attribute when it moves numbering forward.
func (c *collector) nextNumber(n *html.Node) string {
	kind := clausenum.Clause
	if n.Data == "emu-annex" {
		kind = clausenum.Annex
	}
	ancestors := c.numberedAncestors()

	if raw, ok := dom.Attr(n, "number"); ok {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && v > 0 {
			num, err := c.numbers.NextExplicit(ancestors, kind, v)
			if err == nil {
				return num
			}
			c.warnNumber(n, err.Error())
		} else {
			c.warnNumber(n, fmt.Sprintf("clause number %q is not a positive integer", raw))
		}
	}
	return c.numbers.Next(ancestors, kind)
}

func (c *collector) warnNumber(n *html.Node, msg string) {
	c.warn(types.Warning{
		Type:    types.WarnNode,
		RuleID:  "invalid-clause-number",
		Message: msg,
		Node:    n,
	})
}

// clauseOperation registers the operation declared by a clause, either
// through a header-bearing type or a bare aoid attribute.
func (c *collector) clauseOperation(n *html.Node, cl *clause, h1 *html.Node, hasH1 bool) error {
	kind, typed := dom.Attr(n, "type")
	if !typed {
		if aoid, ok := dom.Attr(n, "aoid"); ok && aoid != "" {
			return c.add(types.OpEntry{
				EntryBase: types.EntryBase{RefID: cl.id},
				Aoid:      aoid,
				Kind:      types.KindAbstractOperation,
			}, cl.namespace, n)
		}
		return nil
	}
	if !headerKinds[kind] {
		c.warn(types.Warning{
			Type:    types.WarnNode,
			RuleID:  "invalid-clause-type",
			Message: fmt.Sprintf("clause has unknown type %q", kind),
			Node:    n,
		})
		return nil
	}
	if !hasH1 {
		c.warn(types.Warning{
			Type:    types.WarnNode,
			RuleID:  "header-missing",
			Message: fmt.Sprintf("clause of type %q must begin with an <h1> header", kind),
			Node:    n,
		})
		return nil
	}

	src := dom.SourceText(h1, c.locator)
	h, err := header.Parse(src)
	if err != nil {
		var synErr *header.SyntaxError
		if !errors.As(err, &synErr) {
			return fmt.Errorf("parsing header of clause %q: %w", cl.id, err)
		}
		for _, d := range synErr.Diagnostics {
			rule := "header-format"
			if d.InType {
				rule = "type-parsing"
			}
			line, col := header.Position(src, d.Offset)
			c.warn(types.Warning{
				Type:    types.WarnContents,
				RuleID:  rule,
				Message: d.Message,
				Node:    h1,
				Line:    line,
				Column:  col,
			})
		}
		return nil
	}

	forType, effects := headerDetails(n)
	return c.add(types.OpEntry{
		EntryBase: types.EntryBase{RefID: cl.id},
		Aoid:      h.Name,
		Kind:      kind,
		Signature: h.Signature(),
		Effects:   effects,
		For:       forType,
	}, cl.namespace, n)
}

// headerDetails reads the "for" and "effects" items of a clause's
// <dl class="header">.
func headerDetails(n *html.Node) (forType string, effects []string) {
	dl, ok := dom.ChildByTag(n, "dl")
	if !ok || !strings.Contains(" "+dom.AttrOr(dl, "class", "")+" ", " header ") {
		return "", nil
	}
	var term string
	for _, item := range dom.Children(dl) {
		switch dom.Tag(item) {
		case "dt":
			term = strings.TrimSpace(dom.TextContent(item))
		case "dd":
			val := strings.TrimSpace(dom.TextContent(item))
			switch term {
			case "for":
				forType = val
			case "effects":
				for _, e := range strings.Split(val, ",") {
					if e = strings.TrimSpace(e); e != "" {
						effects = append(effects, e)
					}
				}
			}
		}
	}
	return forType, effects
}

func (c *collector) visitTable(n *html.Node) error {
	t, err := c.tables.Process(n)
	if err != nil {
		return err
	}
	c.ntables++
	ns := c.currentNamespace()
	for _, e := range t.Entries() {
		if err := c.add(e, ns, n); err != nil {
			return err
		}
	}
	return nil
}
