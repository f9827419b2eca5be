package secretbox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestBox_RoundTrip(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	for _, plaintext := range []string{"", "s", "ghp_abc123", "a much longer secret value with spaces"} {
		ciphertext, nonce, err := box.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := box.Decrypt(ciphertext, nonce)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestBox_NonceUniquePerCall(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		_, nonce, err := box.Encrypt("same plaintext")
		require.NoError(t, err)
		assert.False(t, seen[nonce], "nonce reused across calls")
		seen[nonce] = true
	}
}

func TestBox_CiphertextDiffersFromPlaintext(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	ciphertext, _, err := box.Encrypt("super-secret")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "super-secret")
}

func TestBox_DecryptWrongKey(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	ciphertext, nonce, err := box.Encrypt("value")
	require.NoError(t, err)

	other, err := New(bytes.Repeat([]byte{0x13}, KeySize))
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext, nonce)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestBox_DecryptWrongNonce(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	ciphertext, _, err := box.Encrypt("value")
	require.NoError(t, err)
	_, otherNonce, err := box.Encrypt("other")
	require.NoError(t, err)

	_, err = box.Decrypt(ciphertext, otherNonce)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestBox_DecryptCorrupted(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	_, nonce, err := box.Encrypt("value")
	require.NoError(t, err)

	_, err = box.Decrypt("bm90IHJlYWwgY2lwaGVydGV4dA==", nonce)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNew_RejectsBadKeySize(t *testing.T) {
	_, err := New([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
