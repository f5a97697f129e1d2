package jwa

import (
	"fmt"

	"github.com/jose4go/jose/jwk"
)

// noneAlgorithm implements the "none" JWS algorithm (RFC 7518 section
// 3.6): an empty signature. It is registered like any other algorithm
// but excluded from DefaultJWSConstraints, so it only ever reaches
// Sign/Verify when a caller has explicitly opted in via
// jwa.PermitNone.
type noneAlgorithm struct{}

func init() {
	registerJWSAlgorithm(noneAlgorithm{})
}

func (noneAlgorithm) Name() string    { return AlgNone }
func (noneAlgorithm) Available() bool { return true }

func (noneAlgorithm) ValidateSigningKey(key jwk.Key) error {
	if key != nil {
		return fmt.Errorf("%w: \"none\" must not be used with a key", ErrInvalidKey)
	}
	return nil
}

func (noneAlgorithm) ValidateVerificationKey(key jwk.Key) error {
	return (noneAlgorithm{}).ValidateSigningKey(key)
}

func (noneAlgorithm) Sign(key jwk.Key, _ []byte) ([]byte, error) {
	if err := (noneAlgorithm{}).ValidateSigningKey(key); err != nil {
		return nil, err
	}
	return []byte{}, nil
}

func (noneAlgorithm) Verify(key jwk.Key, _, signature []byte) error {
	if err := (noneAlgorithm{}).ValidateVerificationKey(key); err != nil {
		return err
	}
	if len(signature) != 0 {
		return fmt.Errorf("jwa: \"none\" requires an empty signature")
	}
	return nil
}
