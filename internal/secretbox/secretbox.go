// Package secretbox seals short secrets with AES-256-GCM, keeping the IV and
// authentication tag separate from the ciphertext so each can be stored in
// its own column.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// ErrInvalidKey is returned when a key is not exactly KeySize bytes.
var ErrInvalidKey = fmt.Errorf("encryption key must be %d bytes (%d hex characters)", KeySize, KeySize*2)

// Sealed is the output of a single Seal call.
type Sealed struct {
	Ciphertext []byte
	IV         []byte
	Tag        []byte
}

// Box encrypts and decrypts with a fixed key.
type Box struct {
	aead cipher.AEAD
	rand io.Reader
}

// New creates a Box for the given 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Box{aead: gcm, rand: rand.Reader}, nil
}

// Seal encrypts plaintext under a fresh random IV.
func (b *Box) Seal(plaintext []byte) (Sealed, error) {
	iv := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(b.rand, iv); err != nil {
		return Sealed{}, fmt.Errorf("rand iv: %w", err)
	}

	// Seal returns ciphertext || tag.
	out := b.aead.Seal(nil, iv, plaintext, nil)
	split := len(out) - b.aead.Overhead()

	return Sealed{
		Ciphertext: out[:split],
		IV:         iv,
		Tag:        out[split:],
	}, nil
}

// Open verifies the tag and returns the plaintext.
func (b *Box) Open(s Sealed) ([]byte, error) {
	if len(s.IV) != b.aead.NonceSize() {
		return nil, errors.New("invalid iv length")
	}
	if len(s.Tag) != b.aead.Overhead() {
		return nil, errors.New("invalid tag length")
	}

	data := make([]byte, 0, len(s.Ciphertext)+len(s.Tag))
	data = append(data, s.Ciphertext...)
	data = append(data, s.Tag...)

	plaintext, err := b.aead.Open(nil, s.IV, data, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}
	return plaintext, nil
}

// SealString seals plaintext and returns the three parts hex-encoded.
func (b *Box) SealString(plaintext string) (ciphertext, iv, tag string, err error) {
	s, err := b.Seal([]byte(plaintext))
	if err != nil {
		return "", "", "", err
	}
	return hex.EncodeToString(s.Ciphertext), hex.EncodeToString(s.IV), hex.EncodeToString(s.Tag), nil
}

// OpenString decodes hex-encoded parts produced by SealString and opens them.
func (b *Box) OpenString(ciphertext, iv, tag string) (string, error) {
	var s Sealed
	var err error
	if s.Ciphertext, err = hex.DecodeString(ciphertext); err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if s.IV, err = hex.DecodeString(iv); err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	if s.Tag, err = hex.DecodeString(tag); err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}

	plaintext, err := b.Open(s)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// ParseKey decodes a hex-encoded key and checks its length.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex key: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// GenerateKey reads a new KeySize-byte key from r.
func GenerateKey(r io.Reader) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("read random key: %w", err)
	}
	return key, nil
}
