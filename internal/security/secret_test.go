package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSecret_RoundTrip(t *testing.T) {
	hash, err := HashSecret("s3cret-cli")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "s3cret-cli", hash)

	require.True(t, VerifySecret("s3cret-cli", hash))
	require.False(t, VerifySecret("otro-secret", hash))
}

func TestHashSecret_Empty(t *testing.T) {
	_, err := HashSecret("")
	require.Error(t, err)
}

func TestVerifySecret_MalformedHash(t *testing.T) {
	require.False(t, VerifySecret("s3cret", "not-a-bcrypt-hash"))
	require.False(t, VerifySecret("s3cret", ""))
}
