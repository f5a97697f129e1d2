package jwa

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math/big"

	"github.com/jose4go/jose/jwk"
)

type ecdsaAlgorithm struct {
	name       string
	curve      elliptic.Curve
	newHash    func() hash.Hash
	coordSize  int
}

func init() {
	registerJWSAlgorithm(ecdsaAlgorithm{AlgES256, elliptic.P256(), sha256.New, 32})
	registerJWSAlgorithm(ecdsaAlgorithm{AlgES384, elliptic.P384(), sha512.New384, 48})
	registerJWSAlgorithm(ecdsaAlgorithm{AlgES512, elliptic.P521(), sha512.New, 66})
	registerJWSAlgorithm(es256kAlgorithm{})
}

func (a ecdsaAlgorithm) Name() string    { return a.name }
func (a ecdsaAlgorithm) Available() bool { return true }

func ecPublicKeyOf(key any) (*ecdsa.PublicKey, error) {
	switch k := key.(type) {
	case *jwk.ECPublicKey:
		return k.PublicKey, nil
	case *jwk.ECPrivateKey:
		return &k.PrivateKey.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: expected an EC key, got %T", ErrInvalidKey, key)
	}
}

func ecPrivateKeyOf(key any) (*ecdsa.PrivateKey, error) {
	k, ok := key.(*jwk.ECPrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected an EC private key, got %T", ErrInvalidKey, key)
	}
	return k.PrivateKey, nil
}

func (a ecdsaAlgorithm) ValidateSigningKey(key jwk.Key) error {
	priv, err := ecPrivateKeyOf(key)
	if err != nil {
		return err
	}
	if priv.Curve != a.curve {
		return fmt.Errorf("%w: %s requires curve %s", ErrInvalidKey, a.name, a.curve.Params().Name)
	}
	return nil
}

func (a ecdsaAlgorithm) ValidateVerificationKey(key jwk.Key) error {
	pub, err := ecPublicKeyOf(key)
	if err != nil {
		return err
	}
	if pub.Curve != a.curve {
		return fmt.Errorf("%w: %s requires curve %s", ErrInvalidKey, a.name, a.curve.Params().Name)
	}
	return nil
}

func (a ecdsaAlgorithm) digest(signingInput []byte) []byte {
	h := a.newHash()
	h.Write(signingInput)
	return h.Sum(nil)
}

func (a ecdsaAlgorithm) Sign(key jwk.Key, signingInput []byte) ([]byte, error) {
	if err := a.ValidateSigningKey(key); err != nil {
		return nil, err
	}
	priv, _ := ecPrivateKeyOf(key)
	r, s, err := ecdsa.Sign(rand.Reader, priv, a.digest(signingInput))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 2*a.coordSize)
	r.FillBytes(out[:a.coordSize])
	s.FillBytes(out[a.coordSize:])
	return out, nil
}

func (a ecdsaAlgorithm) Verify(key jwk.Key, signingInput, signature []byte) error {
	if err := a.ValidateVerificationKey(key); err != nil {
		return err
	}
	if len(signature) != 2*a.coordSize {
		return fmt.Errorf("jwa: %s signature has wrong length: %d", a.name, len(signature))
	}
	pub, _ := ecPublicKeyOf(key)
	r := new(big.Int).SetBytes(signature[:a.coordSize])
	s := new(big.Int).SetBytes(signature[a.coordSize:])
	if !ecdsa.Verify(pub, a.digest(signingInput), r, s) {
		return fmt.Errorf("jwa: %s signature verification failed", a.name)
	}
	return nil
}

// es256kAlgorithm registers ES256K (RFC 8812) in the JWS signature
// table, but it requires a secp256k1 key, which the standard library's
// crypto/elliptic does not provide — so it is registered as recognized
// but permanently unavailable, rather than silently absent from the
// table. Lookups fail with ErrUnsupportedAlgorithm, the same outcome as
// an unknown identifier, but the name still participates in
// DefaultJWSConstraints' allow-list logic so a caller reading the
// registry sees ES256K acknowledged.
type es256kAlgorithm struct{}

func (es256kAlgorithm) Name() string    { return AlgES256K }
func (es256kAlgorithm) Available() bool { return false }

func (es256kAlgorithm) ValidateSigningKey(jwk.Key) error {
	return fmt.Errorf("%w: ES256K is not available in this build", ErrInvalidKey)
}
func (es256kAlgorithm) ValidateVerificationKey(jwk.Key) error {
	return fmt.Errorf("%w: ES256K is not available in this build", ErrInvalidKey)
}
func (es256kAlgorithm) Sign(jwk.Key, []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: ES256K is not available in this build", ErrUnsupportedAlgorithm)
}
func (es256kAlgorithm) Verify(jwk.Key, []byte, []byte) error {
	return fmt.Errorf("%w: ES256K is not available in this build", ErrUnsupportedAlgorithm)
}
