package jwt

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the Consumer pipeline. Structural and
// cryptographic failures (bad compact syntax, disallowed algorithm,
// signature/decryption failure, unrecognized critical header) are
// returned individually and stop the pipeline immediately; claim
// validation failures are collected into a MultiError instead so a
// caller sees every reason a token was rejected, not just the first.
// ErrSignatureRequired is not returned by Consumer: a token that fails
// the default signature requirement is reported as ErrIntegrityRequired.
var (
	ErrInvalidStructure     = errors.New("jwt: invalid token structure")
	ErrSignatureInvalid     = errors.New("jwt: signature invalid")
	ErrIntegrityFailure     = errors.New("jwt: decryption or integrity check failed")
	ErrUnrecognizedCritical = errors.New("jwt: unrecognized critical header parameter")
	ErrSignatureRequired    = errors.New("jwt: token is not signed")
	ErrIntegrityRequired    = errors.New("jwt: token does not provide integrity protection")
	ErrEncryptionRequired   = errors.New("jwt: token is not encrypted")
	ErrNoKeyResolved        = errors.New("jwt: no key available to verify or decrypt this token")
	ErrInvalid              = errors.New("jwt: token is invalid")
)

// ValidationError names a single claim-validation failure. Code is a
// short, stable machine-readable reason; Claim names the offending
// claim when applicable.
type ValidationError struct {
	Code    string
	Claim   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Claim == "" {
		return e.Message
	}
	return e.Claim + ": " + e.Message
}

// Validation error codes.
const (
	CodeExpired          = "EXPIRED"
	CodeNotYetValid      = "NOT_YET_VALID"
	CodeIssuedAtInFuture = "ISSUED_AT_IN_FUTURE"
	CodeIssuedAtTooOld   = "ISSUED_AT_TOO_OLD"
	CodeIssuerInvalid    = "ISSUER_INVALID"
	CodeIssuerMissing    = "ISSUER_MISSING"
	CodeAudienceInvalid  = "AUDIENCE_INVALID"
	CodeAudienceMissing  = "AUDIENCE_MISSING"
	CodeSubjectMismatch  = "SUBJECT_MISMATCH"
	CodeMissingClaim     = "MISSING_CLAIM"
	CodeMalformedClaim   = "MALFORMED_CLAIM"
	CodeTypeMismatch     = "TYPE_MISMATCH"
)

// MultiError aggregates every ValidationError produced by a single
// Consumer.Process call's validator pass. It is never empty: an empty
// result is reported as a nil error, not an empty MultiError.
type MultiError struct {
	Errors []*ValidationError
}

func (m *MultiError) Error() string {
	parts := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		parts[i] = e.Error()
	}
	return "jwt: invalid token: " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalid, so callers can test with
// errors.Is(err, jwt.ErrInvalid) without caring about the individual
// validation failures.
func (m *MultiError) Is(target error) bool {
	return target == ErrInvalid
}

// Unwrap exposes the individual validation errors to errors.As/errors.Is.
func (m *MultiError) Unwrap() []error {
	errs := make([]error, len(m.Errors))
	for i, e := range m.Errors {
		errs[i] = e
	}
	return errs
}
