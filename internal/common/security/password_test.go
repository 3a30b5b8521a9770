package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("", hash))
}

func TestHashPasswordFreshSalt(t *testing.T) {
	first, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	second, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	// Same plaintext, different salt, different digest; both verify.
	assert.NotEqual(t, first, second)
	assert.True(t, CheckPasswordHash("s3cret-pass", first))
	assert.True(t, CheckPasswordHash("s3cret-pass", second))
}
