package jwa

import (
	"crypto/rand"
	"fmt"

	"github.com/jose4go/jose/jwk"
)

// aesKWAlgorithm implements AxxxKW (RFC 7518 section 4.7): RFC 3394
// wrap/unwrap of a randomly generated (or caller-supplied) CEK under a
// fixed-size key-encryption key.
type aesKWAlgorithm struct {
	name    string
	kekSize int
}

func init() {
	registerKeyManagementAlgorithm(aesKWAlgorithm{AlgA128KW, 16})
	registerKeyManagementAlgorithm(aesKWAlgorithm{AlgA192KW, 24})
	registerKeyManagementAlgorithm(aesKWAlgorithm{AlgA256KW, 32})
}

func (a aesKWAlgorithm) Name() string    { return a.name }
func (a aesKWAlgorithm) Available() bool { return true }

func (a aesKWAlgorithm) kek(ctx KeyManagementContext) ([]byte, error) {
	k, ok := ctx.Key.(*jwk.OctetKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires an oct key, got %T", ErrInvalidKey, a.name, ctx.Key)
	}
	if len(k.Bytes) != a.kekSize {
		return nil, fmt.Errorf("%w: %s requires a %d-byte key, got %d", ErrInvalidKey, a.name, a.kekSize, len(k.Bytes))
	}
	return k.Bytes, nil
}

func (a aesKWAlgorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	kek, err := a.kek(ctx)
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
	if len(cek) != cekSize {
		return nil, nil, fmt.Errorf("%w: CEK override must be %d bytes, got %d", ErrInvalidKey, cekSize, len(cek))
	}

	wrapped, err := aesKWWrap(kek, cek)
	if err != nil {
		return nil, nil, err
	}
	return cek, wrapped, nil
}

func (a aesKWAlgorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	kek, err := a.kek(ctx)
	if err != nil {
		return nil, err
	}
	cek, err := aesKWUnwrap(kek, encryptedKey)
	if err != nil {
		return nil, err
	}
	if len(cek) != cekSize {
		return nil, fmt.Errorf("jwa: unwrapped CEK has unexpected length %d, want %d", len(cek), cekSize)
	}
	return cek, nil
}
