package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteFindExec(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plus terminator rewritten",
			in:   `find . -name "*.txt" -exec cp {} /dest/ +`,
			want: `find . -name "*.txt" -exec cp {} /dest/ \;`,
		},
		{
			name: "trailing whitespace after plus",
			in:   "find . -exec rm {} +  ",
			want: `find . -exec rm {} \;`,
		},
		{
			name: "semicolon terminator unchanged",
			in:   `find . -name "*.txt" -exec cp {} /dest/ \;`,
			want: `find . -name "*.txt" -exec cp {} /dest/ \;`,
		},
		{
			name: "plus inside a path unchanged",
			in:   `find . -path "/path+dir/" -exec cp {} /dest/ \;`,
			want: `find . -path "/path+dir/" -exec cp {} /dest/ \;`,
		},
		{
			name: "plus glued to last token unchanged",
			in:   "find . -exec echo {}+",
			want: "find . -exec echo {}+",
		},
		{
			name: "no exec unchanged",
			in:   `find . -name "*.txt"`,
			want: `find . -name "*.txt"`,
		},
		{
			name: "not a find command",
			in:   "grep -exec foo +",
			want: "grep -exec foo +",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteFindExec(tt.in))
		})
	}
}
