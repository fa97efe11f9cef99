// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package header parses operation headers such as
// "Foo ( _x_: a Number, optional _y_: a String ): a Boolean" into
// structured signatures, and formats them back for display.
package header

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/specmark/pkg/types"
)

// Diagnostic is one problem found in a header, located by byte offset.
type Diagnostic struct {
	Offset  int
	Message string

	// InType marks problems inside a parameter or return type.
	InType bool
}

// SyntaxError is returned for malformed headers. It carries every
// diagnostic found in the single parsing pass.
type SyntaxError struct {
	Source      string
	Diagnostics []Diagnostic
}

func (e *SyntaxError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "malformed header"
	}
	d := e.Diagnostics[0]
	line, col := Position(e.Source, d.Offset)
	msg := fmt.Sprintf("%d:%d: %s", line, col, d.Message)
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Param is a parsed parameter with its position in the header source.
type Param struct {
	types.Parameter
	Offset int
}

// Header is a successfully parsed operation header.
type Header struct {
	Name       string
	NameOffset int
	Params     []Param
	Return     types.Type
}

// Signature returns the header as a types.Signature.
func (h *Header) Signature() *types.Signature {
	sig := &types.Signature{Name: h.Name, Return: h.Return, Params: make([]types.Parameter, len(h.Params))}
	for i, p := range h.Params {
		sig.Params[i] = p.Parameter
	}
	return sig
}

// Parse parses src. Malformed input yields a *SyntaxError; Parse never
// panics on any input.
func Parse(src string) (*Header, error) {
	p := &parser{src: src, toks: lex(src)}
	h := p.parseHeader()
	if len(p.diags) > 0 {
		return nil, &SyntaxError{Source: src, Diagnostics: p.diags}
	}
	return h, nil
}

type parser struct {
	src   string
	toks  []token
	pos   int
	diags []Diagnostic
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) peekWord(w string) bool {
	t := p.peek()
	return t.kind == tokWord && t.text == w
}

// matchWords consumes the word sequence ws if it appears next.
func (p *parser) matchWords(ws ...string) bool {
	for i, w := range ws {
		t := p.peekAt(i)
		if t.kind != tokWord || t.text != w {
			return false
		}
	}
	p.pos += len(ws)
	return true
}

func (p *parser) errorf(offset int, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Offset: offset, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) parseHeader() *Header {
	open := -1
	for i, t := range p.toks {
		if t.kind == tokLParen {
			open = i
			break
		}
	}
	if open < 0 {
		p.errorf(len(strings.TrimRightFunc(p.src, unicode.IsSpace)), "expected `(` after operation name")
		return nil
	}

	h := &Header{}
	raw := p.src[:p.toks[open].offset]
	h.Name = strings.TrimSpace(raw)
	h.NameOffset = len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	switch {
	case h.Name == "":
		p.errorf(p.toks[open].offset, "expected operation name before `(`")
	case strings.IndexFunc(h.Name, unicode.IsSpace) >= 0:
		p.errorf(h.NameOffset, "operation name %q must not contain whitespace", h.Name)
	}

	p.pos = open + 1
	if !p.parseParams(h) {
		return h
	}

	switch t := p.peek(); t.kind {
	case tokEOF:
		return h
	case tokColon:
		p.next()
		ret, d := p.parseType()
		if d != nil {
			d.InType = true
			p.diags = append(p.diags, *d)
			return h
		}
		h.Return = ret
	default:
		p.errorf(t.offset, "expected `:` before return type, found %q", t.text)
		return h
	}

	if t := p.peek(); t.kind != tokEOF {
		p.errorf(t.offset, "unexpected %q after return type", t.text)
	}
	return h
}

// parseParams parses up to and including the closing paren. It reports
// false when the parameter list is unterminated.
func (p *parser) parseParams(h *Header) bool {
	if p.peek().kind == tokRParen {
		p.next()
		return true
	}

	seen := make(map[string]bool)
	sawOptional := false
	for {
		if t := p.peek(); t.kind == tokEOF {
			p.errorf(t.offset, "expected `)` to close the parameter list")
			return false
		}

		if param, ok := p.parseParam(); ok {
			switch {
			case seen[param.Name]:
				p.errorf(param.Offset, "duplicate parameter name %q", param.Name)
			case param.Optional:
				sawOptional = true
			case sawOptional:
				p.errorf(param.Offset, "required parameter %q follows an optional parameter", param.Name)
			}
			seen[param.Name] = true
			h.Params = append(h.Params, param)
		} else {
			p.skipToParamEnd()
		}

		for {
			t := p.peek()
			switch t.kind {
			case tokComma:
				p.next()
				if p.peek().kind == tokRParen {
					p.next()
					return true
				}
			case tokRParen:
				p.next()
				return true
			case tokEOF:
				p.errorf(t.offset, "expected `)` to close the parameter list")
				return false
			default:
				p.errorf(t.offset, "expected `,` or `)` after parameter, found %q", t.text)
				p.skipToParamEnd()
				continue
			}
			break
		}
	}
}

// skipToParamEnd advances to the next comma or closing paren that is not
// nested inside parentheses.
func (p *parser) skipToParamEnd() {
	depth := 0
	for {
		switch p.peek().kind {
		case tokEOF:
			return
		case tokLParen:
			depth++
		case tokRParen:
			if depth == 0 {
				return
			}
			depth--
		case tokComma:
			if depth == 0 {
				return
			}
		}
		p.next()
	}
}

func (p *parser) parseParam() (Param, bool) {
	var param Param
	if p.peekWord("optional") && p.peekAt(1).kind == tokWord {
		param.Optional = true
		p.next()
	}

	t := p.peek()
	if t.kind != tokWord {
		p.errorf(t.offset, "expected parameter name, found %s", t.kind)
		return param, false
	}
	p.next()
	param.Offset = t.offset

	name := t.text
	if strings.HasSuffix(name, "?") {
		param.Optional = true
		name = strings.TrimSuffix(name, "?")
	}
	if len(name) > 2 && strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		name = name[1 : len(name)-1]
	}
	if !isIdentifier(name) {
		p.errorf(t.offset, "invalid parameter name %q", t.text)
		return param, false
	}
	param.Name = name

	if p.peek().kind == tokColon {
		p.next()
		typ, d := p.parseType()
		if d != nil {
			d.InType = true
			p.diags = append(p.diags, *d)
			return param, false
		}
		param.Type = typ
	}
	return param, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// parseType parses an alternation: "A or B", "either A or B", "A, B, or C".
// It does not record diagnostics itself so callers can decide how to
// recover.
func (p *parser) parseType() (types.Type, *Diagnostic) {
	p.matchWords("either")
	first, d := p.parseAtom()
	if d != nil {
		return nil, d
	}
	alts := []types.Type{first}
	for {
		switch {
		case p.peekWord("or"):
			p.next()
		case p.peek().kind == tokComma && p.continuesSeries():
			p.next()
			p.matchWords("or")
		default:
			return types.NewUnion(alts...), nil
		}
		t, d := p.parseAtom()
		if d != nil {
			return nil, d
		}
		alts = append(alts, t)
	}
}

// continuesSeries reports whether the comma at the current position
// separates alternatives of a "A, B, or C" series rather than parameters.
// It scans ahead at nesting depth zero for an "or" before any colon,
// closing paren, or end of header.
func (p *parser) continuesSeries() bool {
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		t := p.toks[i]
		switch t.kind {
		case tokEOF:
			return false
		case tokLParen, tokOpenBrackets:
			depth++
		case tokRParen, tokCloseBrackets:
			if depth == 0 {
				return false
			}
			depth--
		case tokColon:
			if depth == 0 {
				return false
			}
		case tokWord:
			if depth == 0 && t.text == "or" {
				return true
			}
		}
	}
	return false
}

func (p *parser) parseAtom() (types.Type, *Diagnostic) {
	t := p.peek()
	if t.kind != tokWord || t.text == "or" {
		return nil, &Diagnostic{Offset: t.offset, Message: fmt.Sprintf("expected a type, found %s", describe(t))}
	}

	if p.matchWords("a", "List", "of") || p.matchWords("List", "of") {
		el, d := p.parseAtom()
		if d != nil {
			return nil, d
		}
		return types.ListType{Element: el}, nil
	}

	if p.matchWords("a", "Record", "with", "fields") || p.matchWords("a", "Record", "with", "field") {
		return p.parseRecordFields()
	}

	var words []string
	for p.peek().kind == tokWord && !p.peekWord("or") {
		words = append(words, p.next().text)
	}
	return types.NamedType{Name: strings.Join(words, " ")}, nil
}

func (p *parser) parseRecordFields() (types.Type, *Diagnostic) {
	var rec types.RecordType
	for {
		open := p.next()
		if open.kind != tokOpenBrackets {
			return nil, &Diagnostic{Offset: open.offset, Message: fmt.Sprintf("expected `[[` to start a record field, found %s", describe(open))}
		}
		name := p.next()
		if name.kind != tokWord {
			return nil, &Diagnostic{Offset: name.offset, Message: fmt.Sprintf("expected record field name, found %s", describe(name))}
		}
		if t := p.next(); t.kind != tokCloseBrackets {
			return nil, &Diagnostic{Offset: t.offset, Message: fmt.Sprintf("expected `]]` after field name, found %s", describe(t))}
		}
		if t := p.next(); t.kind != tokLParen {
			return nil, &Diagnostic{Offset: t.offset, Message: fmt.Sprintf("expected `(` before type of field [[%s]], found %s", name.text, describe(t))}
		}
		ft, d := p.parseType()
		if d != nil {
			return nil, d
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, &Diagnostic{Offset: t.offset, Message: fmt.Sprintf("expected `)` after type of field [[%s]], found %s", name.text, describe(t))}
		}
		rec.Fields = append(rec.Fields, types.RecordField{Name: name.text, Type: ft})

		switch {
		case p.peek().kind == tokComma && p.peekAt(1).kind == tokOpenBrackets:
			p.next()
		case p.peek().kind == tokComma && p.peekAt(1).kind == tokWord && p.peekAt(1).text == "and" && p.peekAt(2).kind == tokOpenBrackets:
			p.pos += 2
		case p.peekWord("and") && p.peekAt(1).kind == tokOpenBrackets:
			p.next()
		default:
			return rec, nil
		}
	}
}

func describe(t token) string {
	if t.kind == tokWord {
		return fmt.Sprintf("%q", t.text)
	}
	return t.kind.String()
}
