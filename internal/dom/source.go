// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Locator maps an element back to the text it was written as. A build
// driver that parsed the document itself, or transcluded content from
// another file, can supply the original source so diagnostics carry
// positions relative to what the author typed.
type Locator interface {
	SourceText(n *html.Node) (string, bool)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(n *html.Node) (string, bool)

func (f LocatorFunc) SourceText(n *html.Node) (string, bool) { return f(n) }

// SourceText returns the authored text of n. The locator is consulted
// first; otherwise the text is rebuilt from the tree, writing <var>
// elements back as _name_.
func SourceText(n *html.Node, loc Locator) string {
	if loc != nil {
		if s, ok := loc.SourceText(n); ok {
			return s
		}
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case Is(c, "var"):
				b.WriteString("_" + TextContent(c) + "_")
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}
