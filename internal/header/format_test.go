// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantHeader   string
		wantSentence string
	}{
		{
			name:         "required and optional parameters",
			src:          "Foo ( _x_: a Number, optional _y_: a String ): a Boolean",
			wantHeader:   "Foo ( <var>x</var>: a Number, optional <var>y</var>: a String ): a Boolean",
			wantSentence: "The abstract method Foo takes argument <var>x</var> (a Number) and optional argument <var>y</var> (a String) and returns a Boolean.",
		},
		{
			name:         "no parameters and no return type",
			src:          "Bar ( )",
			wantHeader:   "Bar ( )",
			wantSentence: "The abstract method Bar takes no arguments and returns unknown.",
		},
		{
			name:         "three untyped parameters",
			src:          "Baz(_a_, _b_, _c_): unused",
			wantHeader:   "Baz ( <var>a</var>, <var>b</var>, <var>c</var> ): unused",
			wantSentence: "The abstract method Baz takes arguments <var>a</var>, <var>b</var>, and <var>c</var> and returns unused.",
		},
		{
			name:         "escapes markup in types",
			src:          "[[Call]] ( _args_: a List of <T> )",
			wantHeader:   "[[Call]] ( <var>args</var>: a List of &lt;T&gt; )",
			wantSentence: "The abstract method [[Call]] takes argument <var>args</var> (a List of &lt;T&gt;) and returns unknown.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Parse(tt.src)
			require.NoError(t, err)
			f := Format(h)
			assert.Equal(t, tt.wantHeader, f.Header)
			assert.Equal(t, tt.wantSentence, Sentence(f))
		})
	}
}
