package jwa

import (
	"fmt"

	"github.com/jose4go/jose/jwk"
)

// dirAlgorithm implements "dir" (RFC 7518 section 4.5): the management
// key IS the CEK.
type dirAlgorithm struct{}

func init() {
	registerKeyManagementAlgorithm(dirAlgorithm{})
}

func (dirAlgorithm) Name() string    { return AlgDir }
func (dirAlgorithm) Available() bool { return true }

func (dirAlgorithm) octetKey(ctx KeyManagementContext) (*jwk.OctetKey, error) {
	k, ok := ctx.Key.(*jwk.OctetKey)
	if !ok {
		return nil, fmt.Errorf("%w: dir requires an oct key, got %T", ErrInvalidKey, ctx.Key)
	}
	return k, nil
}

func (a dirAlgorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	if ctx.CEKOverride != nil {
		return nil, nil, fmt.Errorf("jwa: dir does not accept a caller-supplied CEK")
	}
	k, err := a.octetKey(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(k.Bytes) != cekSize {
		return nil, nil, fmt.Errorf("%w: dir key must be exactly %d bytes, got %d", ErrInvalidKey, cekSize, len(k.Bytes))
	}
	// Returned as a copy: callers scrub the returned CEK after use, and
	// the management key's own bytes are not theirs to zero.
	cek := make([]byte, len(k.Bytes))
	copy(cek, k.Bytes)
	return cek, []byte{}, nil
}

func (a dirAlgorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	if len(encryptedKey) != 0 {
		return nil, fmt.Errorf("jwa: dir requires an empty encrypted key")
	}
	k, err := a.octetKey(ctx)
	if err != nil {
		return nil, err
	}
	if len(k.Bytes) != cekSize {
		return nil, fmt.Errorf("%w: dir key must be exactly %d bytes, got %d", ErrInvalidKey, cekSize, len(k.Bytes))
	}
	cek := make([]byte, len(k.Bytes))
	copy(cek, k.Bytes)
	return cek, nil
}
