// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"strings"
	"unicode/utf8"
)

// Position converts a byte offset into src to a 1-based line and column.
// Columns count runes. Offsets outside src are clamped.
func Position(src string, offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	lastLine := before[strings.LastIndexByte(before, '\n')+1:]
	return line, utf8.RuneCountInString(lastLine) + 1
}
