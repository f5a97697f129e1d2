package jwa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwk"
)

// aesGCMKWAlgorithm implements AxxxGCMKW (RFC 7518 section 4.7.2): the
// CEK is wrapped under AES-GCM with a fresh 96-bit IV; the IV and tag
// travel in the "iv"/"tag" header parameters.
type aesGCMKWAlgorithm struct {
	name    string
	kekSize int
}

func init() {
	registerKeyManagementAlgorithm(aesGCMKWAlgorithm{AlgA128GCMKW, 16})
	registerKeyManagementAlgorithm(aesGCMKWAlgorithm{AlgA192GCMKW, 24})
	registerKeyManagementAlgorithm(aesGCMKWAlgorithm{AlgA256GCMKW, 32})
}

func (a aesGCMKWAlgorithm) Name() string    { return a.name }
func (a aesGCMKWAlgorithm) Available() bool { return true }

func (a aesGCMKWAlgorithm) kek(ctx KeyManagementContext) ([]byte, error) {
	k, ok := ctx.Key.(*jwk.OctetKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires an oct key, got %T", ErrInvalidKey, a.name, ctx.Key)
	}
	if len(k.Bytes) != a.kekSize {
		return nil, fmt.Errorf("%w: %s requires a %d-byte key, got %d", ErrInvalidKey, a.name, a.kekSize, len(k.Bytes))
	}
	return k.Bytes, nil
}

func (a aesGCMKWAlgorithm) aead(kek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (a aesGCMKWAlgorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	kek, err := a.kek(ctx)
	if err != nil {
		return nil, nil, err
	}
	aead, err := a.aead(kek)
	if err != nil {
		return nil, nil, err
	}

	cek := ctx.CEKOverride
	if cek == nil {
		cek = make([]byte, cekSize)
		if _, err := rand.Read(cek); err != nil {
			return nil, nil, err
		}
	}

	iv := make([]byte, gcmIVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, err
	}

	sealed := aead.Seal(nil, iv, cek, nil)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	if ctx.Header != nil {
		ctx.Header.Set(header.IV, encoding.Encode(iv))
		ctx.Header.Set(header.Tag, encoding.Encode(tag))
	}

	return cek, ciphertext, nil
}

func (a aesGCMKWAlgorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	kek, err := a.kek(ctx)
	if err != nil {
		return nil, err
	}
	aead, err := a.aead(kek)
	if err != nil {
		return nil, err
	}

	ivStr, ok := ctx.Header.GetString(header.IV)
	if !ok {
		return nil, fmt.Errorf("jwa: %s requires an \"iv\" header", a.name)
	}
	tagStr, ok := ctx.Header.GetString(header.Tag)
	if !ok {
		return nil, fmt.Errorf("jwa: %s requires a \"tag\" header", a.name)
	}
	iv, err := encoding.Decode(ivStr)
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid iv header: %w", err)
	}
	tag, err := encoding.Decode(tagStr)
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid tag header: %w", err)
	}

	sealed := append(append([]byte{}, encryptedKey...), tag...)
	cek, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("jwa: key unwrap integrity check failed")
	}
	if len(cek) != cekSize {
		return nil, fmt.Errorf("jwa: unwrapped CEK has unexpected length %d, want %d", len(cek), cekSize)
	}
	return cek, nil
}
