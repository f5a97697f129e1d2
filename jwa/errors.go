// Package jwa implements the JSON Web Algorithms registry (RFC 7518):
// four read-only lookup tables mapping header-declared algorithm
// identifiers to signature, content-encryption, key-management and
// compression primitives, plus the AlgorithmConstraints gate consumers
// apply before a primitive is ever invoked.
package jwa

import "errors"

// ErrUnsupportedAlgorithm is returned when an identifier names no known
// or no currently available primitive.
var ErrUnsupportedAlgorithm = errors.New("jwa: unsupported algorithm")

// ErrAlgorithmConstraintViolated is returned when an identifier names a
// known primitive that the active AlgorithmConstraints forbids.
var ErrAlgorithmConstraintViolated = errors.New("jwa: algorithm forbidden by active constraints")

// ErrInvalidKey is returned when a key's family or strength does not
// match what the algorithm requires.
var ErrInvalidKey = errors.New("jwa: invalid key for algorithm")
