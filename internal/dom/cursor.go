// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dom

import "golang.org/x/net/html"

// Step moves a sibling cursor one position forward.
type Step func(*html.Node) *html.Node

// NextSibling steps to the next node of any type.
func NextSibling(n *html.Node) *html.Node { return n.NextSibling }

// NextElementSibling steps to the next element, skipping text and comments.
func NextElementSibling(n *html.Node) *html.Node {
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// SkipWhile advances from start using step for as long as skip matches,
// and returns the first node that does not match. ok is false when the
// siblings run out first or start is nil.
func SkipWhile(start *html.Node, step Step, skip func(*html.Node) bool) (n *html.Node, ok bool) {
	for n = start; n != nil; n = step(n) {
		if !skip(n) {
			return n, true
		}
	}
	return nil, false
}
