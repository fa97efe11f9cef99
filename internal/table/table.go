// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table numbers emu-table figures and classifies abstract-methods
// tables, turning each well-formed row into an abstract method declaration.
package table

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/internal/dom"
	"github.com/pdiddy/specmark/internal/header"
	"github.com/pdiddy/specmark/pkg/types"
)

// TypeAbstractMethods is the only recognised value of emu-table's type
// attribute.
const TypeAbstractMethods = "abstract methods"

// Method is an abstract method declared by one table row.
type Method struct {
	Name      string
	Signature *types.Signature
	RowID     string
	Row       *html.Node
}

// Table is a processed emu-table.
type Table struct {
	Node    *html.Node
	ID      string
	Number  int
	Caption string

	// Type is TypeAbstractMethods or empty for an ordinary table.
	Type string

	// Of names the type whose abstract methods the table lists.
	Of string

	// Methods are the declarations in row order. A name declared twice
	// keeps its first position and the later row's data.
	Methods []Method
}

// Entries returns the biblio entries the table defines: the table itself
// when it has an id, then one abstract method entry per declaration.
func (t Table) Entries() []types.Entry {
	var out []types.Entry
	if t.ID != "" {
		out = append(out, types.TableEntry{
			EntryBase: types.EntryBase{ID: t.ID},
			Number:    t.Number,
			Caption:   t.Caption,
		})
	}
	for _, m := range t.Methods {
		out = append(out, types.OpEntry{
			EntryBase: types.EntryBase{ID: m.RowID, RefID: t.ID},
			Aoid:      m.Name,
			Kind:      types.KindAbstractMethod,
			Signature: m.Signature,
		})
	}
	return out
}

// Classifier processes emu-table elements in document order. It numbers
// every table it sees, so one Classifier serves one document.
type Classifier struct {
	// Locator supplies authored header text when the tree lost it.
	Locator dom.Locator

	// Warn receives recoverable problems. Nil discards them.
	Warn types.Sink

	count int
}

func (c *Classifier) warn(w types.Warning) {
	if c.Warn != nil {
		c.Warn(w)
	}
}

// Process numbers node and, for abstract-methods tables, rewrites each
// declaration row in place. Malformed tables and rows are reported as
// warnings. The returned error is reserved for internal faults.
func (c *Classifier) Process(node *html.Node) (Table, error) {
	t := Table{Node: node, ID: dom.ID(node)}

	tableType, _ := dom.Attr(node, "type")
	if tableType != "" && tableType != TypeAbstractMethods {
		c.warn(types.Warning{
			Type:    types.WarnNode,
			RuleID:  "emu-table-invalid-type",
			Message: fmt.Sprintf("<emu-table> has invalid type %q", tableType),
			Node:    node,
		})
		tableType = ""
	}

	tableEl, ok := findTable(node)
	if !ok && tableType != "" {
		c.warn(types.Warning{
			Type:    types.WarnNode,
			RuleID:  "emu-table-missing",
			Message: fmt.Sprintf("<emu-table type=%q> must contain a <table> element", tableType),
			Node:    node,
		})
		tableType = ""
	}

	if tableType == TypeAbstractMethods {
		of, _ := dom.Attr(node, "of")
		if of == "" {
			c.warn(types.Warning{
				Type:    types.WarnNode,
				RuleID:  "emu-abstract-methods-invalid",
				Message: `<emu-table type="abstract methods"> must have an 'of' attribute`,
				Node:    node,
			})
			tableType = ""
		} else {
			t.Of = of
			if _, ok := dom.Attr(node, "caption"); !ok {
				dom.SetAttr(node, "caption", "Abstract Methods of "+of)
			}
		}
	}
	t.Type = tableType

	c.count++
	t.Number = c.count
	t.Caption = dom.AttrOr(node, "caption", "")

	if t.Type == TypeAbstractMethods {
		if err := c.declarations(&t, tableEl); err != nil {
			return t, err
		}
	}
	return t, nil
}

// findTable skips generated caption elements to reach the <table>.
func findTable(node *html.Node) (*html.Node, bool) {
	first, ok := dom.FirstElementChild(node)
	if !ok {
		return nil, false
	}
	el, ok := dom.SkipWhile(first, dom.NextElementSibling, func(n *html.Node) bool {
		return dom.Is(n, "emu-caption") || dom.Is(n, "span") && dom.TextContent(n) == ""
	})
	if !ok || !dom.Is(el, "table") {
		return nil, false
	}
	return el, true
}

func rows(tableEl *html.Node) []*html.Node {
	parent := tableEl
	if tbody, ok := dom.ChildByTag(tableEl, "tbody"); ok {
		parent = tbody
	}
	var out []*html.Node
	for _, c := range dom.Children(parent) {
		if dom.Is(c, "tr") {
			out = append(out, c)
		}
	}
	return out
}

func (c *Classifier) declarations(t *Table, tableEl *html.Node) error {
	trs := rows(tableEl)
	byName := make(map[string]int)

	for _, tr := range trs {
		cells := dom.Children(tr)
		if len(cells) < 2 {
			c.warn(types.Warning{
				Type:    types.WarnNode,
				RuleID:  "emu-abstract-methods-invalid",
				Message: `<emu-table type="abstract methods"> <tr>s must contain at least two <td>s`,
				Node:    tr,
			})
			continue
		}

		cell, ok := headerCell(cells[0])
		if !ok {
			continue
		}
		if !dom.Is(cell, "td", "ins") {
			c.warn(types.Warning{
				Type:    types.WarnNode,
				RuleID:  "missing-header",
				Message: fmt.Sprintf("could not locate header element; found <%s>", dom.Tag(cell)),
				Node:    cell,
			})
			continue
		}

		src := dom.SourceText(cell, c.Locator)
		h, err := header.Parse(src)
		if err != nil {
			var synErr *header.SyntaxError
			if !errors.As(err, &synErr) {
				return fmt.Errorf("parsing header in table %q: %w", t.ID, err)
			}
			c.warnSyntax(cell, synErr)
			continue
		}

		rowID := dom.ID(tr)
		if len(trs) > 1 && rowID == "" {
			c.warn(types.Warning{
				Type:    types.WarnNode,
				RuleID:  "abstract-method-id",
				Message: "<tr>s which define abstract methods should have their own id",
				Node:    tr,
			})
		}

		m := Method{Name: h.Name, Signature: h.Signature(), RowID: rowID, Row: tr}
		if i, dup := byName[m.Name]; dup {
			t.Methods[i] = m
		} else {
			byName[m.Name] = len(t.Methods)
			t.Methods = append(t.Methods, m)
		}

		if err := typeset(cell, cells[1], h); err != nil {
			return err
		}
	}
	return nil
}

// headerCell finds the element holding a row's header. A leading <del>
// is skipped in favour of the next element that is not deleted; a
// leading <ins> is itself the header.
func headerCell(td *html.Node) (*html.Node, bool) {
	first, ok := dom.SkipWhile(td.FirstChild, dom.NextSibling, dom.IsBlank)
	switch {
	case ok && dom.Is(first, "del"):
		return dom.SkipWhile(first, dom.NextElementSibling, func(n *html.Node) bool {
			return dom.Is(n, "del")
		})
	case ok && dom.Is(first, "ins"):
		return first, true
	}
	return td, true
}

func (c *Classifier) warnSyntax(cell *html.Node, synErr *header.SyntaxError) {
	for _, d := range synErr.Diagnostics {
		rule := "header-format"
		if d.InType {
			rule = "type-parsing"
		}
		line, col := header.Position(synErr.Source, d.Offset)
		c.warn(types.Warning{
			Type:    types.WarnContents,
			RuleID:  rule,
			Message: d.Message,
			Node:    cell,
			Line:    line,
			Column:  col,
		})
	}
}

// typeset replaces the header with its formatted form and prepends the
// descriptive sentence to the description cell.
func typeset(cell, desc *html.Node, h *header.Header) error {
	f := header.Format(h)
	if err := dom.SetInnerHTML(cell, f.Header); err != nil {
		return err
	}

	text := header.Sentence(f)
	if dom.Is(cell, "ins") {
		text = "<ins>" + text + "</ins>"
	}
	p := dom.NewElement("p")
	if err := dom.SetInnerHTML(p, text); err != nil {
		return err
	}
	dom.InsertFirst(desc, p)
	return nil
}
