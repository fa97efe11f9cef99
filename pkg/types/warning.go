// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"golang.org/x/net/html"
)

// WarningType says whether a Warning points at a node as a whole or at a
// position within the node's text contents.
type WarningType string

const (
	WarnNode     WarningType = "node"
	WarnContents WarningType = "contents"
)

// Warning is one diagnostic reported while compiling a document.
type Warning struct {
	Type    WarningType
	RuleID  string
	Message string

	// Node is the element the warning is about.
	Node *html.Node

	// Line and Column are 1-based and relative to the node's source text.
	// Zero when the warning has no position.
	Line   int
	Column int
}

// Error lets a Warning be folded into an error value in strict mode.
func (w Warning) Error() string {
	return w.String()
}

func (w Warning) String() string {
	where := ""
	if w.Node != nil && w.Node.Type == html.ElementNode {
		where = "<" + w.Node.Data + "> "
		for _, a := range w.Node.Attr {
			if a.Key == "id" {
				where = fmt.Sprintf("<%s id=%q> ", w.Node.Data, a.Val)
				break
			}
		}
	}
	if w.Line > 0 {
		return fmt.Sprintf("%s%d:%d: %s (%s)", where, w.Line, w.Column, w.Message, w.RuleID)
	}
	return fmt.Sprintf("%s%s (%s)", where, w.Message, w.RuleID)
}

// Sink receives warnings as they are produced.
type Sink func(Warning)
