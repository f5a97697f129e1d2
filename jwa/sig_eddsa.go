package jwa

import (
	"crypto/ed25519"
	"fmt"

	"github.com/jose4go/jose/jwk"
)

type eddsaAlgorithm struct{}

func init() {
	registerJWSAlgorithm(eddsaAlgorithm{})
}

func (eddsaAlgorithm) Name() string    { return AlgEdDSA }
func (eddsaAlgorithm) Available() bool { return true }

func okpPublicKeyOf(key jwk.Key) (ed25519.PublicKey, error) {
	switch k := key.(type) {
	case *jwk.OKPPublicKey:
		if k.Curve != jwk.CurveEd25519 {
			return nil, fmt.Errorf("%w: EdDSA requires Ed25519, got %s", ErrInvalidKey, k.Curve)
		}
		return k.X, nil
	case *jwk.OKPPrivateKey:
		if k.Curve != jwk.CurveEd25519 {
			return nil, fmt.Errorf("%w: EdDSA requires Ed25519, got %s", ErrInvalidKey, k.Curve)
		}
		return k.X, nil
	default:
		return nil, fmt.Errorf("%w: expected an OKP key, got %T", ErrInvalidKey, key)
	}
}

func (eddsaAlgorithm) ValidateSigningKey(key jwk.Key) error {
	k, ok := key.(*jwk.OKPPrivateKey)
	if !ok {
		return fmt.Errorf("%w: EdDSA signing requires an OKP private key, got %T", ErrInvalidKey, key)
	}
	if k.Curve != jwk.CurveEd25519 {
		return fmt.Errorf("%w: EdDSA requires Ed25519, got %s", ErrInvalidKey, k.Curve)
	}
	return nil
}

func (eddsaAlgorithm) ValidateVerificationKey(key jwk.Key) error {
	_, err := okpPublicKeyOf(key)
	return err
}

func (eddsaAlgorithm) Sign(key jwk.Key, signingInput []byte) ([]byte, error) {
	if err := (eddsaAlgorithm{}).ValidateSigningKey(key); err != nil {
		return nil, err
	}
	priv := key.(*jwk.OKPPrivateKey)
	return ed25519.Sign(priv.D, signingInput), nil
}

func (eddsaAlgorithm) Verify(key jwk.Key, signingInput, signature []byte) error {
	pub, err := okpPublicKeyOf(key)
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, signingInput, signature) {
		return fmt.Errorf("jwa: EdDSA signature verification failed")
	}
	return nil
}
