package plumbing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFile(t *testing.T) {
	tests := []struct {
		name              string
		ours, base, their string
		want              string
		conflicts         int
	}{
		{
			name: "separate edits",
			base: "a\nb\nc\n", ours: "A\nb\nc\n", their: "a\nb\nC\n",
			want: "A\nb\nC\n",
		},
		{
			name: "only theirs changed",
			base: "a\nb\nc\n", ours: "a\nb\nc\n", their: "a\nB\nc\nd\n",
			want: "a\nB\nc\nd\n",
		},
		{
			name: "same edit on both sides",
			base: "a\nb\nc\n", ours: "a\nX\nc\n", their: "a\nX\nc\n",
			want: "a\nX\nc\n",
		},
		{
			name: "deletion and distant insertion",
			base: "1\n2\n3\n4\n5\n", ours: "1\n3\n4\n5\n", their: "1\n2\n3\n4\n5\n6\n",
			want: "1\n3\n4\n5\n6\n",
		},
		{
			name: "missing final newline is kept",
			base: "a\nb\nc", ours: "A\nb\nc", their: "a\nb\nc",
			want: "A\nb\nc",
		},
		{
			name: "overlapping edits",
			base: "x\n", ours: "y\n", their: "z\n",
			want:      "<<<<<<< ours\ny\n=======\nz\n>>>>>>> theirs\n",
			conflicts: 1,
		},
		{
			name: "added differently without base",
			base: "", ours: "one\n", their: "two",
			want:      "<<<<<<< ours\none\n=======\ntwo\n>>>>>>> theirs\n",
			conflicts: 1,
		},
		{
			name: "conflict keeps surrounding lines",
			base: "head\nmid\ntail\n", ours: "head\nours\ntail\n", their: "head\ntheirs\ntail\n",
			want:      "head\n<<<<<<< ours\nours\n=======\ntheirs\n>>>>>>> theirs\ntail\n",
			conflicts: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conflicts := MergeFile([]byte(tt.ours), []byte(tt.base), []byte(tt.their))
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.conflicts, conflicts)
		})
	}
}
