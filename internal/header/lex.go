// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokOpenBrackets
	tokCloseBrackets
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of header"
	case tokWord:
		return "word"
	case tokLParen:
		return "`(`"
	case tokRParen:
		return "`)`"
	case tokComma:
		return "`,`"
	case tokColon:
		return "`:`"
	case tokOpenBrackets:
		return "`[[`"
	case tokCloseBrackets:
		return "`]]`"
	}
	return "unknown token"
}

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// lex splits src into tokens. Offsets are byte offsets into src. The
// result always ends with a tokEOF at len(src).
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case r == ':':
			toks = append(toks, token{tokColon, ":", i})
			i++
		case strings.HasPrefix(src[i:], "[["):
			toks = append(toks, token{tokOpenBrackets, "[[", i})
			i += 2
		case strings.HasPrefix(src[i:], "]]"):
			toks = append(toks, token{tokCloseBrackets, "]]", i})
			i += 2
		default:
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if unicode.IsSpace(r) || strings.ContainsRune("(),:", r) ||
					strings.HasPrefix(src[i:], "[[") || strings.HasPrefix(src[i:], "]]") {
					break
				}
				i += size
			}
			toks = append(toks, token{tokWord, src[start:i], start})
		}
	}
	return append(toks, token{tokEOF, "", len(src)})
}
