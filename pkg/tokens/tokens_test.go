package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	plaintext, hash, err := New()
	require.NoError(t, err)

	assert.Len(t, plaintext, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, plaintext, hash)
	assert.Equal(t, Hash(plaintext), hash)
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		plaintext, _, err := New()
		require.NoError(t, err)
		assert.False(t, seen[plaintext], "duplicate token generated")
		seen[plaintext] = true
	}
}

func TestHashDeterminism(t *testing.T) {
	assert.Equal(t, Hash("some-token"), Hash("some-token"))
	assert.NotEqual(t, Hash("some-token"), Hash("other-token"))
}

func TestVerify(t *testing.T) {
	plaintext, hash, err := New()
	require.NoError(t, err)

	assert.True(t, Verify(plaintext, hash))
	assert.False(t, Verify("wrong-token", hash))
	assert.False(t, Verify(plaintext, Hash("other-token")))
	assert.False(t, Verify("", hash))
}
