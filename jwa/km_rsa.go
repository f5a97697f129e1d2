package jwa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// rsa1_5Algorithm implements RSA1_5 (RFC 7518 section 4.2): RSAES-
// PKCS1-v1_5 key wrap. Unwrap substitutes a random CEK of the expected
// length on any decode failure instead of returning an error — the
// standard Bleichenbacher countermeasure — so the only observable
// signal to an attacker is eventual content-decryption failure, never
// key-unwrap failure.
type rsa1_5Algorithm struct{}

func init() {
	registerKeyManagementAlgorithm(rsa1_5Algorithm{})
}

func (rsa1_5Algorithm) Name() string    { return AlgRSA1_5 }
func (rsa1_5Algorithm) Available() bool { return true }

func (rsa1_5Algorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	pub, err := rsaPublicKeyOf(ctx.Key)
	if err != nil {
		return nil, nil, err
	}
	if err := validateRSAStrength(pub); err != nil {
		return nil, nil, err
	}

	cek := ctx.CEKOverride
	if cek == nil {
		cek = make([]byte, cekSize)
		if _, err := rand.Read(cek); err != nil {
			return nil, nil, err
		}
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, cek)
	if err != nil {
		return nil, nil, err
	}
	return cek, encrypted, nil
}

func (rsa1_5Algorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	priv, err := rsaPrivateKeyOf(ctx.Key)
	if err != nil {
		return nil, err
	}

	randomCEK := make([]byte, cekSize)
	if _, err := rand.Read(randomCEK); err != nil {
		return nil, err
	}

	cek, err := rsa.DecryptPKCS1v15(rand.Reader, priv, encryptedKey)
	if err != nil || len(cek) != cekSize {
		return randomCEK, nil
	}
	return cek, nil
}

// rsaOAEPAlgorithm implements RSA-OAEP / RSA-OAEP-256 (RFC 7518
// section 4.3): OAEP with MGF1 using the same hash, empty label.
type rsaOAEPAlgorithm struct {
	name    string
	newHash func() hash.Hash
}

func init() {
	registerKeyManagementAlgorithm(rsaOAEPAlgorithm{AlgRSAOAEP, sha1.New})
	registerKeyManagementAlgorithm(rsaOAEPAlgorithm{AlgRSAOAEP256, sha256.New})
}

func (a rsaOAEPAlgorithm) Name() string    { return a.name }
func (a rsaOAEPAlgorithm) Available() bool { return true }

func (a rsaOAEPAlgorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	pub, err := rsaPublicKeyOf(ctx.Key)
	if err != nil {
		return nil, nil, err
	}
	if err := validateRSAStrength(pub); err != nil {
		return nil, nil, err
	}

	cek := ctx.CEKOverride
	if cek == nil {
		cek = make([]byte, cekSize)
		if _, err := rand.Read(cek); err != nil {
			return nil, nil, err
		}
	}

	encrypted, err := rsa.EncryptOAEP(a.newHash(), rand.Reader, pub, cek, nil)
	if err != nil {
		return nil, nil, err
	}
	return cek, encrypted, nil
}

func (a rsaOAEPAlgorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	priv, err := rsaPrivateKeyOf(ctx.Key)
	if err != nil {
		return nil, err
	}
	cek, err := rsa.DecryptOAEP(a.newHash(), rand.Reader, priv, encryptedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("jwa: key unwrap failed")
	}
	if len(cek) != cekSize {
		return nil, fmt.Errorf("jwa: unwrapped CEK has unexpected length %d, want %d", len(cek), cekSize)
	}
	return cek, nil
}
