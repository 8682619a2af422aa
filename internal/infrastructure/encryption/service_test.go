package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	service, err := NewAESGCMService(key)
	require.NoError(t, err)

	for _, plaintext := range []string{"APP_USR-token", "", "ação çãõ 😀"} {
		ciphertext, err := service.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)

		decrypted, err := service.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}

	// Each ciphertext carries a fresh nonce.
	first, err := service.Encrypt("same value")
	require.NoError(t, err)
	second, err := service.Encrypt("same value")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	service, err := NewAESGCMService(key)
	require.NoError(t, err)

	ciphertext, err := service.Encrypt("secret")
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	tampered[len(tampered)-5] ^= 'x'
	_, err = service.Decrypt(string(tampered))
	assert.Error(t, err)

	_, err = service.Decrypt("not base64 %%%")
	assert.Error(t, err)

	_, err = service.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestDecryptRequiresSameKey(t *testing.T) {
	first, err := NewAESGCMService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	second, err := NewAESGCMService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	ciphertext, err := first.Encrypt("secret")
	require.NoError(t, err)
	_, err = second.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestNewServiceValidatesKeyLength(t *testing.T) {
	_, err := NewAESGCMService([]byte("too short"))
	assert.Error(t, err)

	_, err = NewAESGCMService(nil)
	assert.Error(t, err)
}
