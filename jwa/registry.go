package jwa

import (
	"fmt"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/jwk"
)

// Algorithm identifiers (RFC 7518).
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"

	AlgRS256 = "RS256"
	AlgRS384 = "RS384"
	AlgRS512 = "RS512"

	AlgPS256 = "PS256"
	AlgPS384 = "PS384"
	AlgPS512 = "PS512"

	AlgES256  = "ES256"
	AlgES384  = "ES384"
	AlgES512  = "ES512"
	AlgES256K = "ES256K"

	AlgEdDSA = "EdDSA"
	AlgNone  = "none"

	AlgDir                 = "dir"
	AlgA128KW              = "A128KW"
	AlgA192KW              = "A192KW"
	AlgA256KW              = "A256KW"
	AlgA128GCMKW           = "A128GCMKW"
	AlgA192GCMKW           = "A192GCMKW"
	AlgA256GCMKW           = "A256GCMKW"
	AlgPBES2_HS256_A128KW  = "PBES2-HS256+A128KW"
	AlgPBES2_HS384_A192KW  = "PBES2-HS384+A192KW"
	AlgPBES2_HS512_A256KW  = "PBES2-HS512+A256KW"
	AlgRSA1_5              = "RSA1_5"
	AlgRSAOAEP             = "RSA-OAEP"
	AlgRSAOAEP256          = "RSA-OAEP-256"
	AlgECDH_ES             = "ECDH-ES"
	AlgECDH_ES_A128KW      = "ECDH-ES+A128KW"
	AlgECDH_ES_A192KW      = "ECDH-ES+A192KW"
	AlgECDH_ES_A256KW      = "ECDH-ES+A256KW"

	EncA128CBC_HS256 = "A128CBC-HS256"
	EncA192CBC_HS384 = "A192CBC-HS384"
	EncA256CBC_HS512 = "A256CBC-HS512"
	EncA128GCM       = "A128GCM"
	EncA192GCM       = "A192GCM"
	EncA256GCM       = "A256GCM"

	ZipDEF = "DEF"
)

// SignatureAlgorithm is the capability interface for a JWS "alg" entry.
type SignatureAlgorithm interface {
	Name() string
	Available() bool
	Sign(key jwk.Key, signingInput []byte) ([]byte, error)
	Verify(key jwk.Key, signingInput, signature []byte) error
	ValidateSigningKey(key jwk.Key) error
	ValidateVerificationKey(key jwk.Key) error
}

// ContentEncryptionAlgorithm is the capability interface for a JWE
// "enc" entry: an AEAD keyed by a fixed-length CEK.
type ContentEncryptionAlgorithm interface {
	Name() string
	Available() bool
	CEKSize() int
	IVSize() int
	Encrypt(cek, aad, iv, plaintext []byte) (usedIV, ciphertext, tag []byte, err error)
	Decrypt(cek, aad, iv, ciphertext, tag []byte) (plaintext []byte, err error)
}

// KeyManagementContext carries everything a key-management algorithm
// needs beyond the CEK itself: the management key, the mutable header
// it may read or write algorithm-specific parameters from/to (epk, p2s,
// p2c, iv, tag), and the content-encryption algorithm identifier (the
// ECDH-ES AlgorithmID input differs between direct and wrap mode).
//
// Key is typed any, not jwk.Key: PBES2 (RFC 7518 section 4.8) takes a
// jwk.Password, which deliberately does not implement jwk.Key (RFC 7518
// defines no "kty" for a bare password).
type KeyManagementContext struct {
	Key           any
	Header        *header.Header
	ContentEncAlg string
	// CEKOverride, if non-nil, is used as the CEK instead of generating
	// one at random. Only meaningful on the encrypt side, and only for
	// algorithms that generate rather than derive the CEK.
	CEKOverride []byte
	// MaxPBES2Iterations bounds "p2c" on decrypt; zero means use the
	// package default.
	MaxPBES2Iterations int
}

// KeyManagementAlgorithm is the capability interface for a JWE "alg"
// entry (RFC 7518 section 4).
type KeyManagementAlgorithm interface {
	Name() string
	Available() bool
	// WrapKey produces (or directly supplies, for "dir") a CEK of cekSize
	// octets and its encrypted-key representation.
	WrapKey(ctx KeyManagementContext, cekSize int) (cek, encryptedKey []byte, err error)
	// UnwrapKey recovers a CEK of cekSize octets from encryptedKey.
	UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) (cek []byte, err error)
}

// CompressionAlgorithm is the capability interface for a JWE "zip" entry.
type CompressionAlgorithm interface {
	Name() string
	Compress(plaintext []byte) ([]byte, error)
	Decompress(compressed []byte, maxOutputSize int) ([]byte, error)
}

var (
	jwsAlgorithms                   = map[string]SignatureAlgorithm{}
	jweKeyManagementAlgorithms       = map[string]KeyManagementAlgorithm{}
	jweContentEncryptionAlgorithms   = map[string]ContentEncryptionAlgorithm{}
	compressionAlgorithms            = map[string]CompressionAlgorithm{}
)

func registerJWSAlgorithm(a SignatureAlgorithm)             { jwsAlgorithms[a.Name()] = a }
func registerKeyManagementAlgorithm(a KeyManagementAlgorithm) { jweKeyManagementAlgorithms[a.Name()] = a }
func registerContentEncryptionAlgorithm(a ContentEncryptionAlgorithm) {
	jweContentEncryptionAlgorithms[a.Name()] = a
}
func registerCompressionAlgorithm(a CompressionAlgorithm) { compressionAlgorithms[a.Name()] = a }

// LookupJWSAlgorithm resolves name against constraints and the registry,
// in that order, so a forbidden algorithm never gets as far as an
// "is it available" check.
func LookupJWSAlgorithm(name string, constraints AlgorithmConstraints) (SignatureAlgorithm, error) {
	if err := constraints.Check(name); err != nil {
		return nil, err
	}
	a, ok := jwsAlgorithms[name]
	if !ok || !a.Available() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return a, nil
}

// LookupKeyManagementAlgorithm resolves name against constraints and the registry.
func LookupKeyManagementAlgorithm(name string, constraints AlgorithmConstraints) (KeyManagementAlgorithm, error) {
	if err := constraints.Check(name); err != nil {
		return nil, err
	}
	a, ok := jweKeyManagementAlgorithms[name]
	if !ok || !a.Available() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return a, nil
}

// LookupContentEncryptionAlgorithm resolves name against constraints and the registry.
func LookupContentEncryptionAlgorithm(name string, constraints AlgorithmConstraints) (ContentEncryptionAlgorithm, error) {
	if err := constraints.Check(name); err != nil {
		return nil, err
	}
	a, ok := jweContentEncryptionAlgorithms[name]
	if !ok || !a.Available() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return a, nil
}

// LookupCompressionAlgorithm resolves name with no constraint gating:
// "zip" is not security-sensitive the way alg/enc are.
func LookupCompressionAlgorithm(name string) (CompressionAlgorithm, error) {
	a, ok := compressionAlgorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return a, nil
}

// forbiddenECDHCurve is the one EC curve name ECDH-ES must always
// refuse, checked directly against the recipient and ephemeral keys'
// curve by the ecdh key-management algorithms.
const forbiddenECDHCurve = "secp256k1"
