// Package cryptox holds the symmetric primitives used for end-to-end
// encryption of blob payloads: AES-GCM over byte slices and files, the
// upload fingerprint, key wrapping and password based key derivation.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the size of session and group keys (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length prepended to every payload.
	NonceSize = 12
)

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
	return x
}

// GenerateKey returns a fresh random session key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// GenerateNonce returns a fresh random GCM nonce.
func GenerateNonce() []byte {
	return common.GenerateRandByteArray(NonceSize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptBytes encrypts plaintext under key with a random nonce.
//
// The returned payload is nonce || ciphertext || tag, so it can be stored and
// transported as a single opaque value and decrypted with DecryptBytes.
//
// Example:
//
//	key := cryptox.GenerateKey()
//	payload, err := cryptox.EncryptBytes(key, []byte("hello"))
//	if err != nil {
//	    return err
//	}
//	plain, err := cryptox.DecryptBytes(key, payload)
func EncryptBytes(key, plaintext []byte) ([]byte, error) {
	return EncryptBytesWithNonce(key, GenerateNonce(), plaintext)
}

// EncryptBytesWithNonce is EncryptBytes with a caller supplied nonce.
// The nonce must be NonceSize bytes and must never be reused with the same key.
func EncryptBytesWithNonce(key, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, NonceSize+len(plaintext)+aesgcm.Overhead())
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptBytes reverses EncryptBytes. Any failure, including a wrong key,
// a truncated payload or a modified ciphertext, is reported as
// common.ErrDecryption.
func DecryptBytes(key, payload []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(payload) < NonceSize+aesgcm.Overhead() {
		return nil, fmt.Errorf("%w: payload too short (%d bytes)", common.ErrDecryption, len(payload))
	}

	nonce, sealed := payload[:NonceSize], payload[NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// Fingerprint returns the upload integrity tag of an encrypted payload:
// the first common.FingerprintLength bytes of its SHA-256, base64 encoded.
// It must be computed over ciphertext, never plaintext.
func Fingerprint(ciphertext []byte) string {
	sum := sha256.Sum256(ciphertext)
	return base64.StdEncoding.EncodeToString(sum[:common.FingerprintLength])
}

// EncryptKey wraps key with wrappingKey (e.g. a session key under its owner group key).
func EncryptKey(wrappingKey, key []byte) ([]byte, error) {
	return EncryptBytes(wrappingKey, key)
}

// DecryptKey unwraps a key produced by EncryptKey.
func DecryptKey(wrappingKey, encKey []byte) ([]byte, error) {
	key, err := DecryptBytes(wrappingKey, encKey)
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: unwrapped key has length %d", common.ErrDecryption, len(key))
	}
	return key, nil
}

type EncryptedFile struct {
	Path      string
	UnencSize int64
}

// EncryptFile reads src, encrypts it under key with the given nonce and
// writes the payload to dst.
func EncryptFile(key []byte, src, dst string, nonce []byte) (*EncryptedFile, error) {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	payload, err := EncryptBytesWithNonce(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(dst, payload, 0o600); err != nil {
		return nil, err
	}
	return &EncryptedFile{Path: dst, UnencSize: int64(len(plaintext))}, nil
}

// DecryptFile reads the payload at src, decrypts it under key and writes
// the plaintext to dst. Decryption failures wrap common.ErrDecryption and
// leave dst untouched.
func DecryptFile(key []byte, src, dst string) error {
	payload, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	plaintext, err := DecryptBytes(key, payload)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return os.WriteFile(dst, plaintext, 0o600)
}
