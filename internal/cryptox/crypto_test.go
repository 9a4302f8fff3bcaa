package cryptox

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestEncryptDecryptBytes_RoundTrip(t *testing.T) {
	key := GenerateKey()

	inputs := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 64*1024),
	}

	for _, p := range inputs {
		payload, err := EncryptBytes(key, p)
		require.NoError(t, err)
		require.Len(t, payload, NonceSize+len(p)+16)

		got, err := DecryptBytes(key, payload)
		require.NoError(t, err)
		assert.Equal(t, len(p), len(got))
		assert.True(t, bytes.Equal(p, got))
	}
}

func TestEncryptBytes_FreshNonceEachCall(t *testing.T) {
	key := GenerateKey()

	a, err := EncryptBytes(key, []byte("same"))
	require.NoError(t, err)
	b, err := EncryptBytes(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptBytes_Failures(t *testing.T) {
	key := GenerateKey()
	payload, err := EncryptBytes(key, []byte("attachment"))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := DecryptBytes(GenerateKey(), payload)
		require.ErrorIs(t, err, common.ErrDecryption)
	})

	t.Run("corrupted", func(t *testing.T) {
		bad := bytes.Clone(payload)
		bad[len(bad)-1] ^= 0x01
		_, err := DecryptBytes(key, bad)
		require.ErrorIs(t, err, common.ErrDecryption)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecryptBytes(key, payload[:NonceSize])
		require.ErrorIs(t, err, common.ErrDecryption)
	})

	t.Run("invalid key length", func(t *testing.T) {
		_, err := DecryptBytes([]byte("short"), payload)
		require.ErrorIs(t, err, common.ErrDecryption)
	})
}

func TestEncryptBytesWithNonce_RejectsBadNonce(t *testing.T) {
	_, err := EncryptBytesWithNonce(GenerateKey(), []byte{1, 2, 3}, []byte("x"))
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	ciphertext := []byte("some ciphertext")

	fp := Fingerprint(ciphertext)
	assert.Equal(t, fp, Fingerprint(ciphertext), "fingerprint must be deterministic")

	raw, err := base64.StdEncoding.DecodeString(fp)
	require.NoError(t, err)
	assert.Len(t, raw, common.FingerprintLength)

	// Known value: sha256("some ciphertext")[:6].
	assert.Equal(t, "FlmSzd8g", fp)
}

func TestFingerprint_ChangesWithPlaintext(t *testing.T) {
	key := GenerateKey()
	nonce := GenerateNonce()

	a, err := EncryptBytesWithNonce(key, nonce, []byte("hello"))
	require.NoError(t, err)
	b, err := EncryptBytesWithNonce(key, nonce, []byte("hellp"))
	require.NoError(t, err)

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestKeyWrapping(t *testing.T) {
	groupKey := GenerateKey()
	sessionKey := GenerateKey()

	wrapped, err := EncryptKey(groupKey, sessionKey)
	require.NoError(t, err)

	got, err := DecryptKey(groupKey, wrapped)
	require.NoError(t, err)
	assert.Equal(t, sessionKey, got)

	_, err = DecryptKey(GenerateKey(), wrapped)
	require.ErrorIs(t, err, common.ErrDecryption)

	notAKey, err := EncryptBytes(groupKey, []byte("short"))
	require.NoError(t, err)
	_, err = DecryptKey(groupKey, notAKey)
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.txt.enc")
	dec := filepath.Join(dir, "plain.dec.txt")
	require.NoError(t, os.WriteFile(src, []byte("file body"), 0o600))

	key := GenerateKey()
	info, err := EncryptFile(key, src, enc, GenerateNonce())
	require.NoError(t, err)
	assert.Equal(t, enc, info.Path)
	assert.Equal(t, int64(len("file body")), info.UnencSize)

	require.NoError(t, DecryptFile(key, enc, dec))
	got, err := os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(got))

	err = DecryptFile(GenerateKey(), enc, filepath.Join(dir, "nope"))
	require.ErrorIs(t, err, common.ErrDecryption)
	_, statErr := os.Stat(filepath.Join(dir, "nope"))
	assert.True(t, os.IsNotExist(statErr))
}
