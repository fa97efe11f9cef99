// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dom provides the small set of element-tree operations the
// compiler needs on top of golang.org/x/net/html.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tag returns the lowercase tag name of an element node, or "" for any
// other node type.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// Is reports whether n is an element with one of the given tags.
func Is(n *html.Node, tags ...string) bool {
	t := Tag(n)
	if t == "" {
		return false
	}
	for _, want := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether attribute key is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// AttrOr returns attribute key, or def when the attribute is absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// SetAttr sets attribute key to val, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ID returns the id attribute, or "".
func ID(n *html.Node) string {
	return AttrOr(n, "id", "")
}

// NewElement creates a detached element. attrs are key, value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// TextContent concatenates the text of n and all its descendants.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, s string) {
	RemoveChildren(n)
	n.AppendChild(NewText(s))
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("rendering <%s>: %w", Tag(n), err)
		}
	}
	return buf.String(), nil
}

// SetInnerHTML parses src as a fragment in the context of n and makes the
// result the new children of n.
func SetInnerHTML(n *html.Node, src string) error {
	nodes, err := html.ParseFragment(strings.NewReader(src), n)
	if err != nil {
		return fmt.Errorf("parsing fragment for <%s>: %w", Tag(n), err)
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// InsertFirst makes child the first child of parent.
func InsertFirst(parent, child *html.Node) {
	parent.InsertBefore(child, parent.FirstChild)
}

// Children returns the element children of n in order.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstElementChild returns the first element child of n.
func FirstElementChild(n *html.Node) (*html.Node, bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c, true
		}
	}
	return nil, false
}

// ChildByTag returns the first element child of n with the given tag.
func ChildByTag(n *html.Node, tag string) (*html.Node, bool) {
	for _, c := range Children(n) {
		if c.Data == tag {
			return c, true
		}
	}
	return nil, false
}

// Find returns the first descendant of n, in document order, for which
// match is true.
func Find(n *html.Node, match func(*html.Node) bool) (*html.Node, bool) {
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c != n && match(c) {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits n and its descendants in pre-order. Returning false from
// visit skips the node's subtree.
func Walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		// Read the sibling first so visit may detach c.
		next := c.NextSibling
		Walk(c, visit)
		c = next
	}
}

// IsBlank reports whether n has no text beyond whitespace.
func IsBlank(n *html.Node) bool {
	return strings.TrimSpace(TextContent(n)) == ""
}
