// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clausenum assigns hierarchical numbers to clauses in document
// order: "1", "1.2", "1.2.1" in the main body and "A", "A.1" in annexes.
package clausenum

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes ordinary clauses from annexes.
type Kind int

const (
	Clause Kind = iota
	Annex
)

// State is the numbering state of one compilation. The zero value is the
// initial state. States are values; Advance never mutates its receiver.
type State struct {
	main    []int
	annex   []int
	inAnnex bool
}

// InAnnex reports whether annex numbering has begun.
func (s State) InAnnex() bool { return s.inAnnex }

// Advance numbers the next clause at the given depth (the number of
// numbered ancestors) and returns the new state and the clause's number.
// The first top-level annex switches to annex lettering for the rest of
// the pass.
func (s State) Advance(depth int, kind Kind) (State, string) {
	next := s.clone()
	if depth == 0 && kind == Annex {
		next.inAnnex = true
	}
	path := next.counters()
	*path = bump(*path, depth)
	return next, next.render(*path)
}

// AdvanceTo is Advance with an explicit counter value for the clause at
// depth. n must be greater than the current counter at that depth so
// numbering only moves forward. Annex top levels cannot be set explicitly.
func (s State) AdvanceTo(depth int, kind Kind, n int) (State, string, error) {
	next := s.clone()
	if depth == 0 && kind == Annex {
		next.inAnnex = true
	}
	if next.inAnnex && depth == 0 {
		return s, "", fmt.Errorf("annex numbers cannot be set explicitly")
	}
	path := next.counters()
	cur := 0
	if depth < len(*path) {
		cur = (*path)[depth]
	}
	if n <= cur {
		return s, "", fmt.Errorf("clause number %d is not greater than the previous number %d", n, cur)
	}
	*path = bump(*path, depth)
	(*path)[depth] = n
	return next, next.render(*path), nil
}

func (s State) clone() State {
	return State{
		main:    append([]int(nil), s.main...),
		annex:   append([]int(nil), s.annex...),
		inAnnex: s.inAnnex,
	}
}

func (s *State) counters() *[]int {
	if s.inAnnex {
		return &s.annex
	}
	return &s.main
}

// bump increments the counter at depth and drops every deeper counter.
// Missing shallower levels are padded with zero.
func bump(path []int, depth int) []int {
	for len(path) <= depth {
		path = append(path, 0)
	}
	path = path[:depth+1]
	path[depth]++
	return path
}

func (s State) render(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		if i == 0 && s.inAnnex {
			parts[i] = letters(n)
		} else {
			parts[i] = strconv.Itoa(n)
		}
	}
	return strings.Join(parts, ".")
}

// letters renders n (1-based) as A..Z, AA..AZ, ...
func letters(n int) string {
	if n <= 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Iterator wraps a State for callers that number clauses while walking a
// tree. It is not safe for concurrent use.
type Iterator[T any] struct {
	state State
}

// Next numbers a clause whose numbered ancestors are ancestors.
func (it *Iterator[T]) Next(ancestors []T, kind Kind) string {
	var num string
	it.state, num = it.state.Advance(len(ancestors), kind)
	return num
}

// NextExplicit numbers a clause that carries an explicit number. On error
// the iterator is unchanged.
func (it *Iterator[T]) NextExplicit(ancestors []T, kind Kind, n int) (string, error) {
	st, num, err := it.state.AdvanceTo(len(ancestors), kind, n)
	if err != nil {
		return "", err
	}
	it.state = st
	return num, nil
}

// State returns the current numbering state.
func (it *Iterator[T]) State() State { return it.state }
