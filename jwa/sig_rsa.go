package jwa

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/jose4go/jose/jwk"
)

const minRSAModulusBits = 2048

type rsaPKCS1Algorithm struct {
	name    string
	newHash func() hash.Hash
	hash    crypto.Hash
}

func init() {
	registerJWSAlgorithm(rsaPKCS1Algorithm{AlgRS256, sha256.New, crypto.SHA256})
	registerJWSAlgorithm(rsaPKCS1Algorithm{AlgRS384, sha512.New384, crypto.SHA384})
	registerJWSAlgorithm(rsaPKCS1Algorithm{AlgRS512, sha512.New, crypto.SHA512})
}

func (a rsaPKCS1Algorithm) Name() string    { return a.name }
func (a rsaPKCS1Algorithm) Available() bool { return true }

func rsaPublicKeyOf(key any) (*rsa.PublicKey, error) {
	switch k := key.(type) {
	case *jwk.RSAPublicKey:
		return k.PublicKey, nil
	case *jwk.RSAPrivateKey:
		return &k.PrivateKey.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: expected an RSA key, got %T", ErrInvalidKey, key)
	}
}

func rsaPrivateKeyOf(key any) (*rsa.PrivateKey, error) {
	k, ok := key.(*jwk.RSAPrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected an RSA private key, got %T", ErrInvalidKey, key)
	}
	return k.PrivateKey, nil
}

func validateRSAStrength(pub *rsa.PublicKey) error {
	if pub.N.BitLen() < minRSAModulusBits {
		return fmt.Errorf("%w: RSA modulus smaller than %d bits", ErrInvalidKey, minRSAModulusBits)
	}
	return nil
}

func (a rsaPKCS1Algorithm) ValidateSigningKey(key jwk.Key) error {
	priv, err := rsaPrivateKeyOf(key)
	if err != nil {
		return err
	}
	return validateRSAStrength(&priv.PublicKey)
}

func (a rsaPKCS1Algorithm) ValidateVerificationKey(key jwk.Key) error {
	pub, err := rsaPublicKeyOf(key)
	if err != nil {
		return err
	}
	return validateRSAStrength(pub)
}

func (a rsaPKCS1Algorithm) digest(signingInput []byte) []byte {
	h := a.newHash()
	h.Write(signingInput)
	return h.Sum(nil)
}

func (a rsaPKCS1Algorithm) Sign(key jwk.Key, signingInput []byte) ([]byte, error) {
	if err := a.ValidateSigningKey(key); err != nil {
		return nil, err
	}
	priv, _ := rsaPrivateKeyOf(key)
	return rsa.SignPKCS1v15(rand.Reader, priv, a.hash, a.digest(signingInput))
}

func (a rsaPKCS1Algorithm) Verify(key jwk.Key, signingInput, signature []byte) error {
	if err := a.ValidateVerificationKey(key); err != nil {
		return err
	}
	pub, _ := rsaPublicKeyOf(key)
	return rsa.VerifyPKCS1v15(pub, a.hash, a.digest(signingInput), signature)
}

type rsaPSSAlgorithm struct {
	name    string
	newHash func() hash.Hash
	hash    crypto.Hash
}

func init() {
	registerJWSAlgorithm(rsaPSSAlgorithm{AlgPS256, sha256.New, crypto.SHA256})
	registerJWSAlgorithm(rsaPSSAlgorithm{AlgPS384, sha512.New384, crypto.SHA384})
	registerJWSAlgorithm(rsaPSSAlgorithm{AlgPS512, sha512.New, crypto.SHA512})
}

func (a rsaPSSAlgorithm) Name() string    { return a.name }
func (a rsaPSSAlgorithm) Available() bool { return true }

func (a rsaPSSAlgorithm) ValidateSigningKey(key jwk.Key) error {
	priv, err := rsaPrivateKeyOf(key)
	if err != nil {
		return err
	}
	return validateRSAStrength(&priv.PublicKey)
}

func (a rsaPSSAlgorithm) ValidateVerificationKey(key jwk.Key) error {
	pub, err := rsaPublicKeyOf(key)
	if err != nil {
		return err
	}
	return validateRSAStrength(pub)
}

func (a rsaPSSAlgorithm) digest(signingInput []byte) []byte {
	h := a.newHash()
	h.Write(signingInput)
	return h.Sum(nil)
}

// pssOptions returns PSS options with salt length equal to the hash
// output size, as required by RFC 7518 section 3.5.
func (a rsaPSSAlgorithm) pssOptions() *rsa.PSSOptions {
	return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: a.hash}
}

func (a rsaPSSAlgorithm) Sign(key jwk.Key, signingInput []byte) ([]byte, error) {
	if err := a.ValidateSigningKey(key); err != nil {
		return nil, err
	}
	priv, _ := rsaPrivateKeyOf(key)
	return rsa.SignPSS(rand.Reader, priv, a.hash, a.digest(signingInput), a.pssOptions())
}

func (a rsaPSSAlgorithm) Verify(key jwk.Key, signingInput, signature []byte) error {
	if err := a.ValidateVerificationKey(key); err != nil {
		return err
	}
	pub, _ := rsaPublicKeyOf(key)
	return rsa.VerifyPSS(pub, a.hash, a.digest(signingInput), signature, a.pssOptions())
}
