// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/specmark/pkg/types"
)

// Formatted holds the HTML pieces produced for a parsed header.
type Formatted struct {
	Name       string
	Header     string
	Params     string
	ReturnType string
}

// Format renders h as typeset HTML: parameter names become <var>
// elements and the rest is escaped text.
func Format(h *Header) Formatted {
	name := html.EscapeString(h.Name)

	params := make([]string, len(h.Params))
	for i, p := range h.Params {
		s := "<var>" + html.EscapeString(p.Name) + "</var>"
		if p.Optional {
			s = "optional " + s
		}
		if p.Type != nil {
			s += ": " + html.EscapeString(p.Type.String())
		}
		params[i] = s
	}

	var b strings.Builder
	b.WriteString(name)
	if len(params) == 0 {
		b.WriteString(" ( )")
	} else {
		b.WriteString(" ( ")
		b.WriteString(strings.Join(params, ", "))
		b.WriteString(" )")
	}

	ret := "unknown"
	if h.Return != nil {
		ret = html.EscapeString(h.Return.String())
		b.WriteString(": ")
		b.WriteString(ret)
	}

	return Formatted{
		Name:       name,
		Header:     b.String(),
		Params:     FormatParams(h.Signature().Params),
		ReturnType: ret,
	}
}

// FormatParams describes a parameter list in prose, e.g.
// "argument <var>x</var> (a Number) and optional argument <var>y</var> (a String)".
func FormatParams(params []types.Parameter) string {
	if len(params) == 0 {
		return "no arguments"
	}
	var required, optional []string
	for _, p := range params {
		s := "<var>" + html.EscapeString(p.Name) + "</var>"
		if p.Type != nil {
			s += " (" + html.EscapeString(p.Type.String()) + ")"
		}
		if p.Optional {
			optional = append(optional, s)
		} else {
			required = append(required, s)
		}
	}

	var parts []string
	if len(required) > 0 {
		parts = append(parts, plural("argument", len(required))+" "+series(required))
	}
	if len(optional) > 0 {
		parts = append(parts, "optional "+plural("argument", len(optional))+" "+series(optional))
	}
	return strings.Join(parts, " and ")
}

// Sentence is the descriptive paragraph inserted for an abstract method.
func Sentence(f Formatted) string {
	return fmt.Sprintf("The abstract method %s takes %s and returns %s.", f.Name, f.Params, f.ReturnType)
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func series(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
