package tokenstore

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedPrefix = "v1:"
	saltSize     = 16

	argonTime    = 1
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
)

var ErrSealedValue = errors.New("sealed token value is malformed or the secret is wrong")

// Sealer encrypts slot values with XChaCha20-Poly1305 under a key derived from a passphrase
// with argon2id. Each value gets its own salt and nonce.
type Sealer struct {
	secret []byte
}

// NewSealer builds a sealer for secret
func NewSealer(secret string) *Sealer {
	return &Sealer{secret: []byte(secret)}
}

func (s *Sealer) key(salt []byte) []byte {
	return argon2.IDKey(s.secret, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// Seal returns "v1:" + base64(salt | nonce | ciphertext)
func (s *Sealer) Seal(plaintext string) (string, error) {
	buf := make([]byte, saltSize+chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	salt, nonce := buf[:saltSize], buf[saltSize:]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return "", err
	}
	out := aead.Seal(buf, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open reverses Seal
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrSealedValue
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil || len(raw) < saltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrSealedValue
	}
	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := raw[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plaintext), nil
}
