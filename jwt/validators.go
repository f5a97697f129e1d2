package jwt

import (
	"strings"
	"time"

	"github.com/jose4go/jose/header"
)

// Validator inspects a claims set (and the outermost layer's header, for
// header-driven checks like TypeValidator) and appends any
// ValidationErrors it finds. A Validator never stops the pipeline
// itself; the Consumer runs every configured Validator and collects
// the results.
type Validator interface {
	Validate(claims Claims, h *header.Header, now time.Time) []*ValidationError
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(claims Claims, h *header.Header, now time.Time) []*ValidationError

func (f ValidatorFunc) Validate(claims Claims, h *header.Header, now time.Time) []*ValidationError {
	return f(claims, h, now)
}

func malformed(claim string, err error) *ValidationError {
	return &ValidationError{Code: CodeMalformedClaim, Claim: claim, Message: err.Error()}
}

// ExpirationValidator rejects a token whose "exp" claim is at or
// before now, allowing leeway of skew to absorb clock drift between
// issuer and verifier. A missing "exp" is not itself an error here;
// pair with RequireClaim(ClaimExpirationTime) to require one.
func ExpirationValidator(skew time.Duration) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		exp, present, err := claims.ExpirationTime()
		if err != nil {
			return []*ValidationError{malformed(ClaimExpirationTime, err)}
		}
		if !present {
			return nil
		}
		if !now.Before(exp.Add(skew)) {
			return []*ValidationError{{Code: CodeExpired, Claim: ClaimExpirationTime, Message: "token has expired"}}
		}
		return nil
	})
}

// NotBeforeValidator rejects a token whose "nbf" claim is in the
// future, allowing leeway of skew.
func NotBeforeValidator(skew time.Duration) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		nbf, present, err := claims.NotBefore()
		if err != nil {
			return []*ValidationError{malformed(ClaimNotBefore, err)}
		}
		if !present {
			return nil
		}
		if now.Add(skew).Before(nbf) {
			return []*ValidationError{{Code: CodeNotYetValid, Claim: ClaimNotBefore, Message: "token is not yet valid"}}
		}
		return nil
	})
}

// IssuedAtValidator rejects a token whose "iat" claim lies in the
// future (beyond skew) or further in the past than maxAge (when
// maxAge is positive).
func IssuedAtValidator(skew, maxAge time.Duration) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		iat, present, err := claims.IssuedAt()
		if err != nil {
			return []*ValidationError{malformed(ClaimIssuedAt, err)}
		}
		if !present {
			return nil
		}
		var errs []*ValidationError
		if iat.After(now.Add(skew)) {
			errs = append(errs, &ValidationError{Code: CodeIssuedAtInFuture, Claim: ClaimIssuedAt, Message: "token issued in the future"})
		}
		if maxAge > 0 && now.Sub(iat) > maxAge {
			errs = append(errs, &ValidationError{Code: CodeIssuedAtTooOld, Claim: ClaimIssuedAt, Message: "token exceeds maximum age"})
		}
		return errs
	})
}

// IssuerValidator requires the "iss" claim to equal one of allowed. If
// requirePresent is false, a token with no "iss" claim at all passes
// (useful when the claim is merely advisory for this caller); a
// present-but-unrecognized issuer always fails.
func IssuerValidator(requirePresent bool, allowed ...string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		iss, present, err := claims.Issuer()
		if err != nil {
			return []*ValidationError{malformed(ClaimIssuer, err)}
		}
		if !present {
			if requirePresent {
				return []*ValidationError{{Code: CodeIssuerMissing, Claim: ClaimIssuer, Message: "issuer claim is missing"}}
			}
			return nil
		}
		if !set[iss] {
			return []*ValidationError{{Code: CodeIssuerInvalid, Claim: ClaimIssuer, Message: "issuer not recognized"}}
		}
		return nil
	})
}

// AudienceValidator requires the "aud" claim to contain expected among
// its values. If requirePresent is false, a token with no "aud" claim
// at all passes; a present-but-non-matching audience always fails.
func AudienceValidator(requirePresent bool, expected string) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		aud, present, err := claims.Audience()
		if err != nil {
			return []*ValidationError{malformed(ClaimAudience, err)}
		}
		if !present {
			if requirePresent {
				return []*ValidationError{{Code: CodeAudienceMissing, Claim: ClaimAudience, Message: "audience claim is missing"}}
			}
			return nil
		}
		for _, a := range aud {
			if a == expected {
				return nil
			}
		}
		return []*ValidationError{{Code: CodeAudienceInvalid, Claim: ClaimAudience, Message: "audience does not contain " + expected}}
	})
}

// SubjectValidator requires the "sub" claim to equal expected.
func SubjectValidator(expected string) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		sub, present, err := claims.Subject()
		if err != nil {
			return []*ValidationError{malformed(ClaimSubject, err)}
		}
		if !present || sub != expected {
			return []*ValidationError{{Code: CodeSubjectMismatch, Claim: ClaimSubject, Message: "subject does not match"}}
		}
		return nil
	})
}

// RequireClaim rejects a claims set that does not contain claim.
func RequireClaim(claim string) Validator {
	return ValidatorFunc(func(claims Claims, _ *header.Header, now time.Time) []*ValidationError {
		if !claims.Has(claim) {
			return []*ValidationError{{Code: CodeMissingClaim, Claim: claim, Message: "required claim is missing"}}
		}
		return nil
	})
}

// TypeValidator requires the outermost JOSE layer's "typ" header to
// equal expected, per RFC 7519 section 5.1: comparison is
// case-insensitive and ignores an "application/" prefix on either side.
func TypeValidator(expected string) Validator {
	want := normalizeHeaderType(expected)
	return ValidatorFunc(func(claims Claims, h *header.Header, now time.Time) []*ValidationError {
		typ, ok := h.GetString(header.Type)
		if !ok || normalizeHeaderType(typ) != want {
			return []*ValidationError{{Code: CodeTypeMismatch, Claim: header.Type, Message: "type header does not match"}}
		}
		return nil
	})
}

func normalizeHeaderType(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), "application/")
}
