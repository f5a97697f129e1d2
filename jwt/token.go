package jwt

import (
	"encoding/json"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwe"
	"github.com/jose4go/jose/jwk"
	"github.com/jose4go/jose/jws"
)

// Sign serializes claims as JSON and signs it into a compact JWS,
// setting the "typ" header to "JWT" per RFC 7519 section 5.1's
// recommendation.
func Sign(claims Claims, alg string, key jwk.Key, constraints jwa.AlgorithmConstraints) (*jws.JWS, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	h := header.New()
	h.Set(header.Type, "JWT")
	return jws.Sign(h, payload, alg, key, constraints)
}

// Encrypt serializes claims as JSON and encrypts it into a compact
// JWE, setting the "typ" header to "JWT".
func Encrypt(
	claims Claims,
	keyManagementAlg, contentEncAlg string,
	managementKey any,
	keyConstraints, contentConstraints jwa.AlgorithmConstraints,
	opts *jwe.EncryptOptions,
) (*jwe.JWE, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	h := header.New()
	h.Set(header.Type, "JWT")
	return jwe.Encrypt(h, payload, keyManagementAlg, contentEncAlg, managementKey, keyConstraints, contentConstraints, opts)
}

// NestedSignThenEncrypt signs claims into an inner JWS, then encrypts
// that JWS's compact form as the plaintext of an outer JWE, setting
// the outer "cty" header to "JWT" so a Consumer knows to unwrap twice
// (RFC 7519 section 5.2).
func NestedSignThenEncrypt(
	claims Claims,
	signAlg string, signKey jwk.Key, signConstraints jwa.AlgorithmConstraints,
	keyManagementAlg, contentEncAlg string, managementKey any,
	keyConstraints, contentConstraints jwa.AlgorithmConstraints,
) (*jwe.JWE, error) {
	signed, err := Sign(claims, signAlg, signKey, signConstraints)
	if err != nil {
		return nil, err
	}
	compact, err := signed.Compact()
	if err != nil {
		return nil, err
	}

	h := header.New()
	h.Set(header.ContentType, "JWT")
	return jwe.Encrypt(h, []byte(compact), keyManagementAlg, contentEncAlg, managementKey, keyConstraints, contentConstraints, nil)
}
