package jwa

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
)

// cbcHMACAlgorithm implements AES-CBC + HMAC-SHA2 composite AEAD
// (RFC 7518 section 5.2): the CEK splits into a MAC-key half and an
// ENC-key half, ciphertext comes from AES-CBC/PKCS#7, and the tag is
// the leading half of an HMAC computed over AAD ‖ IV ‖ ciphertext ‖ AL.
type cbcHMACAlgorithm struct {
	name     string
	keySize  int // total CEK size; half MAC, half ENC
	newHash  func() hash.Hash
	tagSize  int
}

func init() {
	registerContentEncryptionAlgorithm(cbcHMACAlgorithm{EncA128CBC_HS256, 32, sha256.New, 16})
	registerContentEncryptionAlgorithm(cbcHMACAlgorithm{EncA192CBC_HS384, 48, sha512.New384, 24})
	registerContentEncryptionAlgorithm(cbcHMACAlgorithm{EncA256CBC_HS512, 64, sha512.New, 32})
}

func (a cbcHMACAlgorithm) Name() string    { return a.name }
func (a cbcHMACAlgorithm) Available() bool { return true }
func (a cbcHMACAlgorithm) CEKSize() int    { return a.keySize }
func (a cbcHMACAlgorithm) IVSize() int     { return aes.BlockSize }

func (a cbcHMACAlgorithm) split(cek []byte) (macKey, encKey []byte) {
	half := a.keySize / 2
	return cek[:half], cek[half:]
}

func (a cbcHMACAlgorithm) computeTag(macKey, aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)

	mac := hmac.New(a.newHash, macKey)
	mac.Write(aad)
	mac.Write(iv)
	mac.Write(ciphertext)
	mac.Write(al)
	full := mac.Sum(nil)
	return full[:a.tagSize]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("jwa: invalid padded length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("jwa: invalid PKCS#7 padding")
	}
	pad := data[len(data)-padLen:]
	if subtle.ConstantTimeCompare(pad, bytes.Repeat([]byte{byte(padLen)}, padLen)) != 1 {
		return nil, fmt.Errorf("jwa: invalid PKCS#7 padding")
	}
	return data[:len(data)-padLen], nil
}

func (a cbcHMACAlgorithm) Encrypt(cek, aad, iv, plaintext []byte) ([]byte, []byte, []byte, error) {
	if len(cek) != a.keySize {
		return nil, nil, nil, fmt.Errorf("%w: %s requires a %d-byte CEK, got %d", ErrInvalidKey, a.name, a.keySize, len(cek))
	}
	macKey, encKey := a.split(cek)

	if iv == nil {
		iv = make([]byte, aes.BlockSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(iv) != aes.BlockSize {
		return nil, nil, nil, fmt.Errorf("jwa: %s requires a %d-byte IV", a.name, aes.BlockSize)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	tag := a.computeTag(macKey, aad, iv, ciphertext)
	return iv, ciphertext, tag, nil
}

func (a cbcHMACAlgorithm) Decrypt(cek, aad, iv, ciphertext, tag []byte) ([]byte, error) {
	if len(cek) != a.keySize {
		return nil, fmt.Errorf("%w: %s requires a %d-byte CEK, got %d", ErrInvalidKey, a.name, a.keySize, len(cek))
	}
	macKey, encKey := a.split(cek)

	expectedTag := a.computeTag(macKey, aad, iv, ciphertext)
	if subtle.ConstantTimeCompare(expectedTag, tag) != 1 {
		return nil, fmt.Errorf("jwa: content integrity check failed")
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("jwa: content integrity check failed")
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("jwa: content integrity check failed")
	}
	return plaintext, nil
}
