// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/specmark/pkg/types"
)

func named(s string) types.Type { return types.NamedType{Name: s} }

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantName   string
		wantParams []types.Parameter
		wantReturn types.Type
	}{
		{
			name:     "typed parameters and return type",
			src:      "Name(a: T1, b: T2): T3",
			wantName: "Name",
			wantParams: []types.Parameter{
				{Name: "a", Type: named("T1")},
				{Name: "b", Type: named("T2")},
			},
			wantReturn: named("T3"),
		},
		{
			name:     "multi-line header with trailing comma and optional prefix",
			src:      "Foo (\n  _x_: a Number,\n  optional _y_: a String,\n): a Boolean",
			wantName: "Foo",
			wantParams: []types.Parameter{
				{Name: "x", Type: named("a Number")},
				{Name: "y", Type: named("a String"), Optional: true},
			},
			wantReturn: named("a Boolean"),
		},
		{
			name:       "optional suffix",
			src:        "Foo(x?: a Number)",
			wantName:   "Foo",
			wantParams: []types.Parameter{{Name: "x", Type: named("a Number"), Optional: true}},
		},
		{
			name:       "list type",
			src:        "Foo(_xs_: a List of Strings)",
			wantName:   "Foo",
			wantParams: []types.Parameter{{Name: "xs", Type: types.ListType{Element: named("Strings")}}},
		},
		{
			name:     "record type with union field",
			src:      "Foo(_r_: a Record with fields [[Key]] (a String) and [[Value]] (a Number or undefined))",
			wantName: "Foo",
			wantParams: []types.Parameter{{Name: "r", Type: types.RecordType{Fields: []types.RecordField{
				{Name: "Key", Type: named("a String")},
				{Name: "Value", Type: types.UnionType{Alternatives: []types.Type{named("a Number"), named("undefined")}}},
			}}}},
		},
		{
			name:       "comma series union is flat",
			src:        "Foo ( ): a Number, a BigInt, or undefined",
			wantName:   "Foo",
			wantReturn: types.UnionType{Alternatives: []types.Type{named("a Number"), named("a BigInt"), named("undefined")}},
		},
		{
			name:       "either with repeated or is flat",
			src:        "Foo(): either a Number or a BigInt or undefined",
			wantName:   "Foo",
			wantReturn: types.UnionType{Alternatives: []types.Type{named("a Number"), named("a BigInt"), named("undefined")}},
		},
		{
			name:     "union parameter followed by another parameter",
			src:      "Foo(_x_: a Number or a String, _y_: a Boolean)",
			wantName: "Foo",
			wantParams: []types.Parameter{
				{Name: "x", Type: types.UnionType{Alternatives: []types.Type{named("a Number"), named("a String")}}},
				{Name: "y", Type: named("a Boolean")},
			},
		},
		{
			name:     "internal method name and untyped parameters",
			src:      "[[Get]] ( _P_, _Receiver_ )",
			wantName: "[[Get]]",
			wantParams: []types.Parameter{
				{Name: "P"},
				{Name: "Receiver"},
			},
		},
		{
			name:     "no parameters and no return type",
			src:      "Foo ( )",
			wantName: "Foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Parse(tt.src)
			require.NoError(t, err)
			sig := h.Signature()
			assert.Equal(t, tt.wantName, sig.Name)
			if tt.wantParams == nil {
				assert.Empty(t, sig.Params)
			} else {
				assert.Equal(t, tt.wantParams, sig.Params)
			}
			assert.Equal(t, tt.wantReturn, sig.Return)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		wantOffsets []int
		wantLine    int
		wantColumn  int
	}{
		{
			name:        "unbalanced parameter list",
			src:         "Foo(a: T1, b: T2",
			wantOffsets: []int{16},
			wantLine:    1,
			wantColumn:  17,
		},
		{
			name:        "unbalanced multi-line parameter list",
			src:         "Foo (\n  _x_: a Number,\n  _y_: a String\n",
			wantOffsets: []int{39},
			wantLine:    4,
			wantColumn:  1,
		},
		{
			name:        "independent errors in one pass",
			src:         "Foo(1x, _y_: , _y_)",
			wantOffsets: []int{4, 13},
			wantLine:    1,
			wantColumn:  5,
		},
		{
			name:        "missing parameter list",
			src:         "Foo",
			wantOffsets: []int{3},
			wantLine:    1,
			wantColumn:  4,
		},
		{
			name:        "missing name",
			src:         "( x )",
			wantOffsets: []int{0},
			wantLine:    1,
			wantColumn:  1,
		},
		{
			name:        "text after return type",
			src:         "Foo(): a Number )",
			wantOffsets: []int{16},
			wantLine:    1,
			wantColumn:  17,
		},
		{
			name:        "duplicate parameter",
			src:         "Foo(_x_, _x_)",
			wantOffsets: []int{9},
			wantLine:    1,
			wantColumn:  10,
		},
		{
			name:        "required after optional",
			src:         "Foo(optional _x_, _y_)",
			wantOffsets: []int{18},
			wantLine:    1,
			wantColumn:  19,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)

			var synErr *SyntaxError
			require.True(t, errors.As(err, &synErr))
			require.Len(t, synErr.Diagnostics, len(tt.wantOffsets))
			for i, off := range tt.wantOffsets {
				assert.Equal(t, off, synErr.Diagnostics[i].Offset, "diagnostic %d: %s", i, synErr.Diagnostics[i].Message)
			}

			line, col := Position(tt.src, synErr.Diagnostics[0].Offset)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantColumn, col)
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"", "(", ")", "[[", "]]", ",", ":", "Foo((", "Foo())", "Foo(_x_: a Record with fields",
		"Foo(_x_: a Record with fields [[", "Foo(_x_: a List of", "Foo(:", "Foo(, or)",
		"Foo(_x_: either)", "Foo(_x_: a, b, or", "Foo(): ", "Foo(optional)", "Foo(optional optional)",
		"Foo(\n\n\n", "Foo(_x_: (((a)))", "Foo ( _x_: a Record with fields [[A]] (B), _y_ )",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _, _ = Parse(in) }, "input %q", in)
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Parse("Foo(1x, _y_: , _y_)")
	require.Error(t, err)
	assert.Equal(t, `1:5: invalid parameter name "1x" (and 1 more)`, err.Error())
}

func TestTypeStringRoundTrip(t *testing.T) {
	for _, ret := range []string{
		"a Number",
		"a Number or a BigInt",
		"a Number, a BigInt, or undefined",
		"a List of Strings",
		"a Record with fields [[Key]] (a String) and [[Value]] (a Number or undefined)",
	} {
		h, err := Parse("Foo(): " + ret)
		require.NoError(t, err, ret)
		assert.Equal(t, ret, h.Return.String())
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		src    string
		offset int
		line   int
		column int
	}{
		{"abc", 0, 1, 1},
		{"abc\ndef", 5, 2, 2},
		{"abc\n", 4, 2, 1},
		{"", 10, 1, 1},
		{"abc", -3, 1, 1},
		{"é\nxé", 6, 2, 3},
	}
	for _, tt := range tests {
		line, col := Position(tt.src, tt.offset)
		assert.Equal(t, tt.line, line, "%q@%d", tt.src, tt.offset)
		assert.Equal(t, tt.column, col, "%q@%d", tt.src, tt.offset)
	}
}
