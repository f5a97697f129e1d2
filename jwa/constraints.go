package jwa

import "fmt"

// AlgorithmConstraints is a closed allow-list of algorithm identifiers.
// It is the gate every consumer must apply after resolving an alg/enc
// identifier from a header and before invoking the matching primitive:
// "none" must never reach the primitive unless explicitly permitted.
type AlgorithmConstraints struct {
	allowed map[string]bool
}

// NewConstraints builds an AlgorithmConstraints permitting exactly the
// named identifiers.
func NewConstraints(names ...string) AlgorithmConstraints {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return AlgorithmConstraints{allowed: m}
}

// NoConstraints permits every algorithm the relevant registry table
// knows about. Used as the default for JWE content-encryption, which
// carries no algorithm ambiguous enough to need restriction.
var NoConstraints = AlgorithmConstraints{allowed: nil}

// Permits reports whether name is allowed.
func (c AlgorithmConstraints) Permits(name string) bool {
	if c.allowed == nil {
		return true
	}
	return c.allowed[name]
}

// Check returns ErrAlgorithmConstraintViolated if name is not permitted.
func (c AlgorithmConstraints) Check(name string) error {
	if !c.Permits(name) {
		return fmt.Errorf("%w: %q", ErrAlgorithmConstraintViolated, name)
	}
	return nil
}

// DefaultJWSConstraints permits every registered JWS signature
// algorithm except "none", which must be explicitly opted into.
func DefaultJWSConstraints() AlgorithmConstraints {
	names := make([]string, 0, len(jwsAlgorithms))
	for name := range jwsAlgorithms {
		if name == AlgNone {
			continue
		}
		names = append(names, name)
	}
	return NewConstraints(names...)
}

// PermitNone returns a copy of c that additionally allows "none".
func PermitNone(c AlgorithmConstraints) AlgorithmConstraints {
	if c.allowed == nil {
		return c
	}
	names := make([]string, 0, len(c.allowed)+1)
	for name := range c.allowed {
		names = append(names, name)
	}
	names = append(names, AlgNone)
	return NewConstraints(names...)
}

// DefaultJWEKeyManagementConstraints permits every registered JWE
// key-management algorithm except RSA1_5 and the PBES2 family, which
// are blocked by default and must be explicitly opted into.
func DefaultJWEKeyManagementConstraints() AlgorithmConstraints {
	names := make([]string, 0, len(jweKeyManagementAlgorithms))
	for name := range jweKeyManagementAlgorithms {
		switch name {
		case AlgRSA1_5, AlgPBES2_HS256_A128KW, AlgPBES2_HS384_A192KW, AlgPBES2_HS512_A256KW:
			continue
		}
		names = append(names, name)
	}
	return NewConstraints(names...)
}

// DefaultJWEContentEncryptionConstraints permits every registered
// content-encryption algorithm.
func DefaultJWEContentEncryptionConstraints() AlgorithmConstraints {
	names := make([]string, 0, len(jweContentEncryptionAlgorithms))
	for name := range jweContentEncryptionAlgorithms {
		names = append(names, name)
	}
	return NewConstraints(names...)
}
