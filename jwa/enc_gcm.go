package jwa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const gcmIVSize = 12
const gcmTagSize = 16

// gcmAlgorithm implements AES-GCM content encryption (RFC 7518 section
// 5.3): standard GCM, 96-bit IV, 128-bit tag.
type gcmAlgorithm struct {
	name    string
	keySize int
}

func init() {
	registerContentEncryptionAlgorithm(gcmAlgorithm{EncA128GCM, 16})
	registerContentEncryptionAlgorithm(gcmAlgorithm{EncA192GCM, 24})
	registerContentEncryptionAlgorithm(gcmAlgorithm{EncA256GCM, 32})
}

func (a gcmAlgorithm) Name() string    { return a.name }
func (a gcmAlgorithm) Available() bool { return true }
func (a gcmAlgorithm) CEKSize() int    { return a.keySize }
func (a gcmAlgorithm) IVSize() int     { return gcmIVSize }

func (a gcmAlgorithm) aead(cek []byte) (cipher.AEAD, error) {
	if len(cek) != a.keySize {
		return nil, fmt.Errorf("%w: %s requires a %d-byte CEK, got %d", ErrInvalidKey, a.name, a.keySize, len(cek))
	}
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithTagSize(block, gcmTagSize)
}

func (a gcmAlgorithm) Encrypt(cek, aad, iv, plaintext []byte) ([]byte, []byte, []byte, error) {
	aead, err := a.aead(cek)
	if err != nil {
		return nil, nil, nil, err
	}

	if iv == nil {
		iv = make([]byte, gcmIVSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(iv) != gcmIVSize {
		return nil, nil, nil, fmt.Errorf("jwa: %s requires a %d-byte IV", a.name, gcmIVSize)
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]
	return iv, ciphertext, tag, nil
}

func (a gcmAlgorithm) Decrypt(cek, aad, iv, ciphertext, tag []byte) ([]byte, error) {
	aead, err := a.aead(cek)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcmIVSize {
		return nil, fmt.Errorf("jwa: content integrity check failed")
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("jwa: content integrity check failed")
	}
	return plaintext, nil
}
