package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCursor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cursor string
		more   bool
	}{
		{
			name:   "empty header",
			header: "",
		},
		{
			name:   "single next link",
			header: `<https://api.bigpanda.io/resources/v2.0/changes?cursor=abc123>; rel="next"`,
			cursor: "abc123",
			more:   true,
		},
		{
			name:   "cursor not last parameter",
			header: `<https://api.example.com/changes?cursor=abc123&limit=100>; rel="next"`,
			cursor: "abc123",
			more:   true,
		},
		{
			name:   "percent-encoded cursor",
			header: `<https://api.example.com/changes?cursor=a%2Bb%3D>; rel="next"`,
			cursor: "a+b=",
			more:   true,
		},
		{
			name:   "prev and next",
			header: `<https://api.example.com/changes?cursor=old>; rel="prev", <https://api.example.com/changes?cursor=new>; rel="next"`,
			cursor: "new",
			more:   true,
		},
		{
			name:   "unquoted rel with multiple values",
			header: `<https://api.example.com/changes?cursor=x1>; title="page"; rel=next`,
			cursor: "x1",
			more:   true,
		},
		{
			name:   "only prev",
			header: `<https://api.example.com/changes?cursor=old>; rel="prev"`,
		},
		{
			name:   "relative target",
			header: `</changes?cursor=rel1>; rel="next"`,
			cursor: "rel1",
			more:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, more, err := NextCursor(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.more, more)
			assert.Equal(t, tt.cursor, cursor)
		})
	}
}

func TestNextCursor_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "next without cursor", header: `<https://api.example.com/changes?page=2>; rel="next"`},
		{name: "missing angle brackets", header: `https://api.example.com/changes?cursor=x; rel="next"`},
		{name: "unterminated target", header: `<https://api.example.com/changes?cursor=x; rel="next"`},
		{name: "bad url", header: "<http://[::1]:namedport/?cursor=x>; rel=\"next\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, more, err := NextCursor(tt.header)
			assert.ErrorIs(t, err, ErrMalformedLink)
			assert.False(t, more)
			assert.Empty(t, cursor)
		})
	}
}
