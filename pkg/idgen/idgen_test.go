package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := InvitationToken()
		require.NoError(t, err)
		assert.Len(t, tok, InvitationTokenLength)
		for _, r := range tok {
			assert.True(t, strings.ContainsRune(Alphabet, r))
		}
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestSecret(t *testing.T) {
	s, err := Secret()
	require.NoError(t, err)
	assert.Len(t, s, 64)
}
