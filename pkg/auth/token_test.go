package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, hash, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, TokenPrefix))
	assert.NoError(t, ValidateTokenFormat(token))
	assert.Equal(t, HashToken(token), hash)
	assert.NotContains(t, hash, token, "plaintext never appears in the stored form")

	token2, hash2, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, hash, hash2)
}

func TestValidateTokenFormat(t *testing.T) {
	assert.Error(t, ValidateTokenFormat("bearer_abc"))
	assert.Error(t, ValidateTokenFormat(TokenPrefix))
	assert.Error(t, ValidateTokenFormat(TokenPrefix+"not!!base64url"))
}

func TestMemoryTokenRegistry(t *testing.T) {
	reg := NewMemoryTokenRegistry()
	ctx := context.Background()

	token, hash, err := GenerateToken()
	require.NoError(t, err)
	_ = token

	_, err = reg.UserIDByTokenHash(ctx, hash)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	reg.Register(hash, 42)
	userID, err := reg.UserIDByTokenHash(ctx, hash)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)

	reg.Revoke(hash)
	_, err = reg.UserIDByTokenHash(ctx, hash)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "s3cret "))
	assert.False(t, CheckPassword("", "s3cret"))
}
