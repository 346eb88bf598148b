package utils

import (
	"testing"
	"time"

	"github.com/maheshrc27/fediplan/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := Encrypt([]byte("access-token-value"), testKey)
	require.NoError(t, err)
	assert.NotEqual(t, "access-token-value", encrypted)

	decrypted, err := Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, "access-token-value", decrypted)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	otherKey := []byte("fedcba9876543210fedcba9876543210")
	_, err = Decrypt(encrypted, otherKey)
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := Decrypt("not base64 at all!!!", testKey)
	assert.Error(t, err)

	_, err = Decrypt("c2hvcnQ=", testKey)
	assert.Error(t, err, "data shorter than the nonce must be rejected")
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("hmac-secret", "81", 24*time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("hmac-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "81", claims.UserID)
	assert.Equal(t, "fediplan", claims.Issuer)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("hmac-secret", "81", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestConnectTokenRoundTrip(t *testing.T) {
	token, err := GenerateConnectToken("hmac-secret", &transfer.ConnectClaims{
		UserID:       "81",
		Server:       "https://mastodon.example",
		SNS:          "mastodon",
		ClientID:     "cid",
		ClientSecret: "encrypted-secret",
	})
	require.NoError(t, err)

	claims, err := ValidateConnectToken("hmac-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "https://mastodon.example", claims.Server)
	assert.Equal(t, "mastodon", claims.SNS)
	assert.Equal(t, "cid", claims.ClientID)
}

func TestGenerateRandomKeyUnique(t *testing.T) {
	a, err := GenerateRandomKey(16)
	require.NoError(t, err)
	b, err := GenerateRandomKey(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
