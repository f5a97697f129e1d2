package jwa

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"hash"

	"github.com/jose4go/jose/jwk"
)

type hmacAlgorithm struct {
	name     string
	newHash  func() hash.Hash
	hashSize int
}

func init() {
	registerJWSAlgorithm(hmacAlgorithm{AlgHS256, sha256.New, sha256.Size})
	registerJWSAlgorithm(hmacAlgorithm{AlgHS384, sha512.New384, sha512.Size384})
	registerJWSAlgorithm(hmacAlgorithm{AlgHS512, sha512.New, sha512.Size})
}

func (a hmacAlgorithm) Name() string   { return a.name }
func (a hmacAlgorithm) Available() bool { return true }

func (a hmacAlgorithm) octetKey(key jwk.Key) (*jwk.OctetKey, error) {
	k, ok := key.(*jwk.OctetKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires an oct key, got %T", ErrInvalidKey, a.name, key)
	}
	if len(k.Bytes) < a.hashSize {
		return nil, fmt.Errorf("%w: %s key shorter than hash output (%d < %d)", ErrInvalidKey, a.name, len(k.Bytes), a.hashSize)
	}
	return k, nil
}

func (a hmacAlgorithm) ValidateSigningKey(key jwk.Key) error {
	_, err := a.octetKey(key)
	return err
}

func (a hmacAlgorithm) ValidateVerificationKey(key jwk.Key) error {
	_, err := a.octetKey(key)
	return err
}

func (a hmacAlgorithm) Sign(key jwk.Key, signingInput []byte) ([]byte, error) {
	k, err := a.octetKey(key)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(a.newHash, k.Bytes)
	mac.Write(signingInput)
	return mac.Sum(nil), nil
}

func (a hmacAlgorithm) Verify(key jwk.Key, signingInput, signature []byte) error {
	expected, err := a.Sign(key, signingInput)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected, signature) != 1 {
		return fmt.Errorf("jwa: HMAC signature mismatch")
	}
	return nil
}
