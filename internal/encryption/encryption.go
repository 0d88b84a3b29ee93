// Package encryption protects document payloads at rest with AES-256-CBC.
//
// A ciphertext blob is the 16-byte random IV followed by the PKCS#7 padded,
// CBC-encrypted body, so its length is always 16 + 16k with k >= 1.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the CBC initialization vector length, equal to the AES block size.
	IVSize = aes.BlockSize
)

var (
	// ErrMalformedCiphertext means the blob cannot be a valid ciphertext for this key:
	// storage corruption or a key mismatch. It must never be treated as a client error.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrShortSecret is returned by ValidateSecret for secrets that DeriveKey would zero-pad.
	ErrShortSecret = errors.New("encryption secret shorter than 32 bytes")
)

// Key is an AES-256 key. It is a value type so a configured key cannot be mutated
// after it has been handed to a Cipher.
type Key [KeySize]byte

// DeriveKey coerces secret to exactly 32 bytes: shorter secrets are right-padded with
// zero bytes, longer ones truncated. Zero padding lowers the effective key entropy;
// use ValidateSecret to refuse such secrets at startup.
func DeriveKey(secret []byte) Key {
	var k Key
	copy(k[:], secret)
	return k
}

// ValidateSecret reports whether secret fills the whole key without padding.
func ValidateSecret(secret []byte) error {
	if len(secret) < KeySize {
		return fmt.Errorf("%w: got %d bytes", ErrShortSecret, len(secret))
	}
	return nil
}

// Cipher encrypts and decrypts payloads with a single fixed key.
// It holds no mutable state and is safe for concurrent use.
type Cipher struct {
	block cipher.Block
	rand  io.Reader
}

// New returns a Cipher for key.
func New(key Key) (*Cipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}
	return &Cipher{block: block, rand: rand.Reader}, nil
}

// Encrypt returns IV || CBC(PKCS7(plaintext)) with a fresh random IV.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pad(plaintext, aes.BlockSize)

	out := make([]byte, IVSize+len(padded))
	iv := out[:IVSize]
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[IVSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt. Structural failures return ErrMalformedCiphertext.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < IVSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the iv", ErrMalformedCiphertext, len(blob))
	}
	body := blob[IVSize:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: body length %d is not a positive multiple of %d", ErrMalformedCiphertext, len(body), aes.BlockSize)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, blob[:IVSize]).CryptBlocks(plain, body)

	out, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: padded length %d", ErrMalformedCiphertext, len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrMalformedCiphertext)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrMalformedCiphertext)
		}
	}
	return b[:len(b)-n], nil
}
