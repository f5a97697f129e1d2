// Package jws implements JSON Web Signatures as defined in RFC 7515
// (https://datatracker.ietf.org/doc/html/rfc7515). The signature
// primitives themselves (HMAC, RSA PKCS1v15/PSS, ECDSA, EdDSA, none)
// live in package jwa, which jws and the jwt consumer both dispatch
// through, so there is exactly one algorithm table in the module.
package jws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwk"
)

var (
	// ErrInvalidCompactJWS is returned when a given string is not a valid JWS in compact serialized form.
	ErrInvalidCompactJWS = errors.New("jws: invalid compact JWS")

	// ErrInvalidSignature is returned from Verify when the signature does not check out.
	ErrInvalidSignature = errors.New("jws: invalid signature")

	// ErrUnrecognizedCritical is returned when the "crit" header names a
	// parameter neither the caller nor the signature algorithm recognizes.
	ErrUnrecognizedCritical = errors.New("jws: unrecognized critical header parameter")
)

// JWS implements a JSON Web Signature datastructure. Once created a JWS
// is immutable. A JWS is only created through Sign or ParseCompact.
type JWS struct {
	header         *header.Header
	payload        []byte
	payloadEncoded string
	signature      []byte
}

// Header returns j's JOSE header.
func (j *JWS) Header() *header.Header {
	return j.header
}

// Payload returns a copy of j's payload.
func (j *JWS) Payload() []byte {
	b := make([]byte, len(j.payload))
	copy(b, j.payload)
	return b
}

// Signature returns a copy of j's signature bytes.
func (j *JWS) Signature() []byte {
	b := make([]byte, len(j.signature))
	copy(b, j.signature)
	return b
}

// signingInput returns encoded-header-bytes || '.' || encoded-payload-bytes,
// the exact octets that are signed and verified (RFC 7515 section 5.1/5.2).
func signingInput(headerEncoded, payloadEncoded string) []byte {
	return []byte(headerEncoded + "." + payloadEncoded)
}

// Compact returns the JWS in compact serialization (RFC 7515 section 7.1).
func (j *JWS) Compact() (string, error) {
	headerEncoded, err := j.header.Encoded()
	if err != nil {
		return "", err
	}
	return headerEncoded + "." + j.payloadEncoded + "." + encoding.Encode(j.signature), nil
}

// Sign computes a signature over payload and h using alg, resolved
// against constraints before the primitive is ever invoked: a
// constraint violation (most importantly "none" when not explicitly
// permitted) is reported before key validation, and key validation
// before the signing primitive runs. h.Algorithm ("alg") is set to
// alg's name as part of signing.
func Sign(h *header.Header, payload []byte, alg string, key jwk.Key, constraints jwa.AlgorithmConstraints) (*JWS, error) {
	algorithm, err := jwa.LookupJWSAlgorithm(alg, constraints)
	if err != nil {
		return nil, err
	}
	if err := algorithm.ValidateSigningKey(key); err != nil {
		return nil, err
	}

	if h == nil {
		h = header.New()
	}
	h.Set(header.Algorithm, alg)

	headerEncoded, err := h.Encoded()
	if err != nil {
		return nil, err
	}
	payloadEncoded := encoding.Encode(payload)

	signature, err := algorithm.Sign(key, signingInput(headerEncoded, payloadEncoded))
	if err != nil {
		return nil, err
	}

	return &JWS{
		header:         h,
		payload:        payload,
		payloadEncoded: payloadEncoded,
		signature:      signature,
	}, nil
}

// ParseCompact parses compact into a JWS. It performs only the
// syntactic validation of RFC 7515 section 7.1 (part count, base64url
// decoding, header JSON). The signature is NOT verified; call Verify.
func ParseCompact(compact string) (*JWS, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidCompactJWS, len(parts))
	}

	h, err := header.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWS, err)
	}

	var payload []byte
	if parts[1] != "" {
		payload, err = encoding.Decode(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWS, err)
		}
	}

	signature, err := encoding.Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWS, err)
	}

	return &JWS{
		header:         h,
		payload:        payload,
		payloadEncoded: parts[1],
		signature:      signature,
	}, nil
}

// Verify checks j's critical-header parameters, resolves and
// constrains the declared algorithm, validates key against it, and
// only then invokes the verification primitive — in that order, so a
// forbidden or unvalidated algorithm/key combination never reaches a
// primitive call (RFC 7515 section 5.2).
//
// knownCritical is the set of "crit" parameter names the caller
// understands and has already accounted for; it is orthogonal to the
// names an algorithm itself may require to be treated as critical
// (none of the algorithms jwa registers have any).
func (j *JWS) Verify(key jwk.Key, constraints jwa.AlgorithmConstraints, knownCritical ...string) error {
	if err := checkCritical(j.header, knownCritical); err != nil {
		return err
	}

	alg, ok := j.header.GetString(header.Algorithm)
	if !ok {
		return fmt.Errorf("%w: missing \"alg\" header", ErrInvalidSignature)
	}

	algorithm, err := jwa.LookupJWSAlgorithm(alg, constraints)
	if err != nil {
		return err
	}
	if err := algorithm.ValidateVerificationKey(key); err != nil {
		return err
	}

	headerEncoded, err := j.header.Encoded()
	if err != nil {
		return err
	}

	if err := algorithm.Verify(key, signingInput(headerEncoded, j.payloadEncoded), j.signature); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}
	return nil
}

// checkCritical fails unless every name in h's "crit" header (RFC 7515
// section 4.1.11) appears in known.
func checkCritical(h *header.Header, known []string) error {
	crit, ok := h.GetStringSlice(header.Critical)
	if !ok {
		return nil
	}

	recognized := make(map[string]bool, len(known))
	for _, k := range known {
		recognized[k] = true
	}

	for _, name := range crit {
		if !recognized[name] {
			return fmt.Errorf("%w: %q", ErrUnrecognizedCritical, name)
		}
	}
	return nil
}
