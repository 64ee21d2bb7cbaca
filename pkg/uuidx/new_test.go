package uuidx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIDs(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	var prev string
	for range 100 {
		s := NewString()
		id, err := uuid.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
		assert.Equal(t, uuid.RFC4122, id.Variant())

		_, dup := seen[s]
		assert.False(t, dup, "duplicate id %s", s)
		seen[s] = struct{}{}

		// version 7 ids start with a millisecond timestamp
		assert.GreaterOrEqual(t, s[:13], prev[:min(len(prev), 13)])
		prev = s
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "short", n: 8, want: 8},
		{name: "full", n: 32, want: 32},
		{name: "capped", n: 100, want: 32},
		{name: "non positive", n: 0, want: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Token(tt.n)
			assert.Len(t, tok, tt.want)
			assert.Regexp(t, "^[0-9a-f]+$", tok)
		})
	}

	assert.NotEqual(t, Token(8), Token(8))
}
