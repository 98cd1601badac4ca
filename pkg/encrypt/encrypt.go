// Package encrypt implements the at-rest codec used by the file store and
// backups: AES-256-CBC with PKCS#7 padding, serialized as "ivHex:cipherHex".
package encrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyKey  = errors.New("encryption key is empty")
	ErrMalformed = errors.New("malformed ciphertext")
)

// Codec encrypts and decrypts strings with a fixed 32-byte key.
type Codec struct {
	key []byte
}

// NewCodec derives the AES-256 key from secret. A secret of at least 64 hex
// characters is used directly (first 32 bytes); anything else is hashed
// with SHA-256.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}
	return &Codec{key: deriveKey(secret)}, nil
}

func deriveKey(secret string) []byte {
	if len(secret) >= 64 {
		if key, err := hex.DecodeString(secret[:64]); err == nil {
			return key
		}
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt returns ivHex:cipherHex with a fresh random IV.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any structural or padding problem is ErrMalformed.
func (c *Codec) Decrypt(encoded string) (string, error) {
	ivHex, cipherHex, ok := strings.Cut(strings.TrimSpace(encoded), ":")
	if !ok {
		return "", fmt.Errorf("%w: missing iv separator", ErrMalformed)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", ErrMalformed)
	}
	data, err := hex.DecodeString(cipherHex)
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad ciphertext length", ErrMalformed)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrMalformed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
		}
	}
	return b[:len(b)-n], nil
}
