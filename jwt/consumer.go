package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwe"
	"github.com/jose4go/jose/jwk"
	"github.com/jose4go/jose/jws"
)

// Layer describes one JOSE object a compact token was unwrapped from,
// outermost first. A nested JWS-in-JWE token produces two layers; a
// plain JWT produces one.
type Layer struct {
	// Kind is "JWS" or "JWE".
	Kind string
	// Header is the layer's protected header.
	Header *header.Header

	jwsObj *jws.JWS
	jweObj *jwe.JWE
}

// UnverifiedPayload returns l's payload without checking its signature,
// for a JWS layer only — a JWE layer's plaintext cannot be read without
// a key, so this reports ok=false for one. Useful for peeking at claims
// (e.g. "iss" or "kid") to pick a verification key before trusting the
// token; the returned bytes MUST NOT be treated as authenticated.
func (l *Layer) UnverifiedPayload() (payload []byte, ok bool) {
	if l.jwsObj == nil {
		return nil, false
	}
	return l.jwsObj.Payload(), true
}

// KeyResolver selects the key used to verify or decrypt layer, given
// the layers already traversed (outermost first, layer not yet
// included). It returns a jwk.Key for a JWS layer, or a jwk.Key /
// jwk.Password for a JWE layer (PBES2 takes a password, every other
// JWE key-management algorithm takes a jwk.Key).
type KeyResolver func(layer *Layer, outer []*Layer) (any, error)

// asymmetricOnlyKeyManagement names JWE key-management algorithms that
// encrypt to a recipient's public key and so, unlike a symmetric
// shared secret, provide confidentiality without authenticating the
// sender: anyone holding the public key could have produced the same
// ciphertext. A JWE using one of these without an accompanying
// signature fails the integrity requirement.
var asymmetricOnlyKeyManagement = map[string]bool{
	jwa.AlgRSA1_5:         true,
	jwa.AlgRSAOAEP:        true,
	jwa.AlgRSAOAEP256:     true,
	jwa.AlgECDH_ES:        true,
	jwa.AlgECDH_ES_A128KW: true,
	jwa.AlgECDH_ES_A192KW: true,
	jwa.AlgECDH_ES_A256KW: true,
}

// Consumer decodes, verifies/decrypts, and validates a compact JWT.
// Build one with NewConsumer and its With* methods, then call Process
// for each incoming token; a Consumer is safe to reuse and is not
// mutated by Process.
type Consumer struct {
	key                    any
	resolver               KeyResolver
	jwsConstraints         jwa.AlgorithmConstraints
	jweKeyConstraints      jwa.AlgorithmConstraints
	jweContentConstraints  jwa.AlgorithmConstraints
	knownCritical          []string
	disableRequireSignature bool
	requireIntegrity       bool
	requireEncryption      bool
	maxPBES2Iterations     int
	liberalContentType     bool
	validators             []Validator
	now                    func() time.Time
}

// NewConsumer returns a Consumer with the module's default algorithm
// constraints (no "none", no RSA1_5/PBES2 on the decrypt side unless
// later relaxed) and no validators configured.
func NewConsumer() *Consumer {
	return &Consumer{
		jwsConstraints:        jwa.DefaultJWSConstraints(),
		jweKeyConstraints:     jwa.DefaultJWEKeyManagementConstraints(),
		jweContentConstraints: jwa.DefaultJWEContentEncryptionConstraints(),
		now:                   time.Now,
	}
}

// WithKey fixes the key used for every layer, bypassing WithKeyResolver.
func (c *Consumer) WithKey(key any) *Consumer { c.key = key; return c }

// WithKeyResolver installs a callback invoked once per layer to select
// its key.
func (c *Consumer) WithKeyResolver(r KeyResolver) *Consumer { c.resolver = r; return c }

// WithJWSConstraints overrides the allowed JWS signature algorithms.
func (c *Consumer) WithJWSConstraints(a jwa.AlgorithmConstraints) *Consumer {
	c.jwsConstraints = a
	return c
}

// WithJWEKeyManagementConstraints overrides the allowed JWE key-management algorithms.
func (c *Consumer) WithJWEKeyManagementConstraints(a jwa.AlgorithmConstraints) *Consumer {
	c.jweKeyConstraints = a
	return c
}

// WithJWEContentEncryptionConstraints overrides the allowed JWE content-encryption algorithms.
func (c *Consumer) WithJWEContentEncryptionConstraints(a jwa.AlgorithmConstraints) *Consumer {
	c.jweContentConstraints = a
	return c
}

// WithKnownCritical adds parameter names the caller has already
// accounted for and that "crit" is therefore permitted to name.
func (c *Consumer) WithKnownCritical(names ...string) *Consumer {
	c.knownCritical = append(c.knownCritical, names...)
	return c
}

// DisableRequireSignature lifts the default requirement that a token
// be signed or symmetrically encrypted; an unsigned, asymmetrically
// encrypted (RSA-OAEP/ECDH-ES, no signature) token is then accepted.
func (c *Consumer) DisableRequireSignature() *Consumer { c.disableRequireSignature = true; return c }

// RequireIntegrity forbids a token whose only protection is
// asymmetric encryption with no accompanying signature, regardless of
// DisableRequireSignature.
func (c *Consumer) RequireIntegrity() *Consumer { c.requireIntegrity = true; return c }

// RequireEncryption rejects a token that has no JWE layer at all.
func (c *Consumer) RequireEncryption() *Consumer { c.requireEncryption = true; return c }

// WithMaxPBES2Iterations bounds the PBES2 "p2c" iteration count a JWE layer may declare.
func (c *Consumer) WithMaxPBES2Iterations(n int) *Consumer { c.maxPBES2Iterations = n; return c }

// WithLiberalContentTypeHandling enables a fallback: when the
// innermost payload does not parse as a JSON claims object, try
// treating it as another compact JOSE token instead of failing
// outright. Off by default, since "cty": "JWT" is the RFC 7519
// section 5.2-recommended signal and most producers set it.
func (c *Consumer) WithLiberalContentTypeHandling(enable bool) *Consumer {
	c.liberalContentType = enable
	return c
}

// WithValidator adds a claim validator run after a token's signature
// and/or encryption are confirmed valid. Validators never short-circuit
// each other; every one runs and their failures are collected.
func (c *Consumer) WithValidator(v Validator) *Consumer {
	c.validators = append(c.validators, v)
	return c
}

// WithClock overrides the time source validators see; the zero value
// (unset) uses time.Now.
func (c *Consumer) WithClock(now func() time.Time) *Consumer { c.now = now; return c }

// Result is the outcome of successfully processing a compact token.
type Result struct {
	Claims Claims
	Layers []*Layer
}

// Process decodes compact, resolves a key for each JOSE layer it
// unwraps (outermost first), verifies or decrypts each layer,
// recurses into a nested token when the layer's "cty" header says
// "JWT", parses the innermost payload as a claims set, enforces the
// structural requirements (RequireIntegrity/RequireEncryption/
// DisableRequireSignature), and
// finally runs every configured Validator, collecting every failure
// into a single *MultiError rather than stopping at the first.
//
// Process is equivalent to ParseOuter followed by ProcessLayer; use
// those directly for a two-pass flow that inspects the outer layer
// (e.g. to pick a key by "kid") before committing to full verification,
// without parsing the compact string a second time.
func (c *Consumer) Process(compact string) (*Result, error) {
	layer, err := c.ParseOuter(compact)
	if err != nil {
		return nil, err
	}
	return c.ProcessLayer(layer)
}

// ParseOuter parses only compact's outermost JOSE object (no key
// resolution, no signature verification or decryption). The returned
// Layer carries the parsed object itself, so a subsequent ProcessLayer
// call does not re-parse the compact string.
func (c *Consumer) ParseOuter(compact string) (*Layer, error) {
	parts := strings.Count(compact, ".") + 1
	switch parts {
	case 3:
		parsed, err := jws.ParseCompact(compact)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStructure, err)
		}
		return &Layer{Kind: "JWS", Header: parsed.Header(), jwsObj: parsed}, nil
	case 5:
		parsed, err := jwe.ParseCompact(compact)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStructure, err)
		}
		return &Layer{Kind: "JWE", Header: parsed.Header(), jweObj: parsed}, nil
	default:
		return nil, fmt.Errorf("%w: expected 3 (JWS) or 5 (JWE) dot-separated parts, got %d", ErrInvalidStructure, parts)
	}
}

// ProcessLayer resumes processing from an already-parsed outer layer
// (as returned by ParseOuter): it resolves a key, verifies or
// decrypts, recurses into any nested layers, validates structure, and
// runs the configured Validators — the remainder of what Process does,
// without ever re-parsing the outer compact string.
func (c *Consumer) ProcessLayer(layer *Layer) (*Result, error) {
	layers := []*Layer{layer}

	payload, err := c.verifyLayer(layer, nil)
	if err != nil {
		return nil, err
	}

	claims, err := c.processPayload(payload, layer.Header, &layers)
	if err != nil {
		return nil, err
	}

	if err := c.checkStructure(layers); err != nil {
		return nil, err
	}

	if errs := c.runValidators(claims, layers[0].Header); len(errs) > 0 {
		return nil, &MultiError{Errors: errs}
	}

	return &Result{Claims: claims, Layers: layers}, nil
}

// verifyLayer resolves a key for layer and verifies (JWS) or decrypts
// (JWE) it, returning the recovered payload.
func (c *Consumer) verifyLayer(layer *Layer, outer []*Layer) ([]byte, error) {
	keyAny, err := c.resolveKey(layer, outer)
	if err != nil {
		return nil, err
	}

	switch layer.Kind {
	case "JWS":
		key, ok := keyAny.(jwk.Key)
		if !ok {
			return nil, fmt.Errorf("jwt: resolved key for a JWS layer must be a jwk.Key, got %T", keyAny)
		}
		if err := layer.jwsObj.Verify(key, c.jwsConstraints, c.knownCritical...); err != nil {
			if errors.Is(err, jws.ErrUnrecognizedCritical) {
				return nil, fmt.Errorf("%w: %w: %s", ErrSignatureInvalid, ErrUnrecognizedCritical, err)
			}
			return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, err)
		}
		return layer.jwsObj.Payload(), nil
	default:
		plaintext, err := layer.jweObj.Decrypt(keyAny, c.jweKeyConstraints, c.jweContentConstraints, c.maxPBES2Iterations, c.knownCritical...)
		if err != nil {
			if errors.Is(err, jwe.ErrUnrecognizedCritical) {
				return nil, fmt.Errorf("%w: %w: %s", ErrIntegrityFailure, ErrUnrecognizedCritical, err)
			}
			return nil, fmt.Errorf("%w: %s", ErrIntegrityFailure, err)
		}
		return plaintext, nil
	}
}

// runValidators runs every configured Validator against claims, passing
// the outermost layer's header so header-driven validators (e.g.
// TypeValidator) can inspect "typ" the way RFC 7519 section 5.1
// recommends it be set.
func (c *Consumer) runValidators(claims Claims, h *header.Header) []*ValidationError {
	now := c.now()
	var errs []*ValidationError
	for _, v := range c.validators {
		errs = append(errs, v.Validate(claims, h, now)...)
	}
	return errs
}

func (c *Consumer) checkStructure(layers []*Layer) error {
	hasSignature := false
	hasIntegrityProvidingEncryption := false
	hasEncryption := false

	for _, l := range layers {
		switch l.Kind {
		case "JWS":
			hasSignature = true
		case "JWE":
			hasEncryption = true
			alg, _ := l.Header.GetString(header.Algorithm)
			if !asymmetricOnlyKeyManagement[alg] {
				hasIntegrityProvidingEncryption = true
			}
		}
	}

	integrityOK := hasSignature || hasIntegrityProvidingEncryption

	if !c.disableRequireSignature && !integrityOK {
		return ErrIntegrityRequired
	}
	if c.requireIntegrity && !integrityOK {
		return ErrIntegrityRequired
	}
	if c.requireEncryption && !hasEncryption {
		return ErrEncryptionRequired
	}
	return nil
}

func (c *Consumer) resolveKey(layer *Layer, outer []*Layer) (any, error) {
	if c.key != nil {
		return c.key, nil
	}
	if c.resolver != nil {
		key, err := c.resolver(layer, outer)
		if err != nil {
			return nil, err
		}
		return key, nil
	}
	return nil, ErrNoKeyResolved
}

// contentType normalizes the "cty" header per RFC 7519 section 5.2:
// case-insensitive, with an optional "application/" prefix ignored.
func contentType(h *header.Header) (string, bool) {
	cty, ok := h.GetString(header.ContentType)
	if !ok {
		return "", false
	}
	return normalizeHeaderType(cty), true
}

// nextLayer parses and verifies/decrypts one more nested layer out of
// payload, appending it to layers.
func (c *Consumer) nextLayer(payload []byte, layers *[]*Layer) (Claims, error) {
	layer, err := c.ParseOuter(string(payload))
	if err != nil {
		return nil, err
	}
	*layers = append(*layers, layer)

	inner, err := c.verifyLayer(layer, (*layers)[:len(*layers)-1])
	if err != nil {
		return nil, err
	}
	return c.processPayload(inner, layer.Header, layers)
}

// processPayload decides whether payload is a nested JOSE token or the
// innermost claims set, following the "cty" header when present and
// falling back to a liberal parse attempt when configured to.
func (c *Consumer) processPayload(payload []byte, h *header.Header, layers *[]*Layer) (Claims, error) {
	if cty, ok := contentType(h); ok && cty == "jwt" {
		return c.nextLayer(payload, layers)
	}

	claims, jsonErr := UnmarshalClaims(payload)
	if jsonErr == nil {
		return claims, nil
	}

	if c.liberalContentType {
		if claims, err := c.nextLayer(payload, layers); err == nil {
			return claims, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidStructure, jsonErr)
}
