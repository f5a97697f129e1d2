// Package jwt implements JSON Web Tokens as defined in RFC 7519
// (https://datatracker.ietf.org/doc/html/rfc7519): typed claim
// accessors and a Consumer pipeline that decodes, verifies/decrypts
// (including nested JWS-in-JWE/JWE-in-JWS tokens), and validates a
// compact token against caller-configured constraints.
package jwt

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Standard claim names (RFC 7519 section 4.1).
const (
	ClaimIssuer         = "iss"
	ClaimSubject        = "sub"
	ClaimAudience       = "aud"
	ClaimExpirationTime = "exp"
	ClaimNotBefore      = "nbf"
	ClaimIssuedAt       = "iat"
	ClaimID             = "jti"
)

// ErrMalformedClaim is returned when a claim is present but its JSON
// shape does not match what RFC 7519 requires for that claim (a
// non-numeric exp/nbf/iat, a numeric value outside the range this
// implementation can represent as a Unix second count, or an aud that
// is neither a string nor an array of strings).
var ErrMalformedClaim = fmt.Errorf("jwt: malformed claim")

// Claims is a JWT claims set: a JSON object of claim name to value.
type Claims map[string]any

// UnmarshalClaims unmarshals data (the decoded JWS/JWE payload) into a Claims value.
func UnmarshalClaims(data []byte) (Claims, error) {
	var c Claims
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedClaim, err)
	}
	return c, nil
}

// Has reports whether claim is present in c.
func (c Claims) Has(claim string) bool {
	_, ok := c[claim]
	return ok
}

// GetString returns claim's value as a string. Absence returns "", false, nil.
func (c Claims) GetString(claim string) (string, bool, error) {
	v, ok := c[claim]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s is not a string", ErrMalformedClaim, claim)
	}
	return s, true, nil
}

// numericDateRange bounds what this implementation accepts for a
// NumericDate claim: a NaN, infinite, negative or above-math.MaxInt64
// value is malformed rather than silently truncated or overflowed.
func numericDateRange(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: numeric date out of range", ErrMalformedClaim)
	}
	return int64(v), nil
}

// GetNumericDate returns claim's value as a time.Time, interpreting it
// as a NumericDate (RFC 7519 section 2): seconds since the Unix epoch.
// Absence returns the zero Time, false, nil.
func (c Claims) GetNumericDate(claim string) (time.Time, bool, error) {
	v, ok := c[claim]
	if !ok {
		return time.Time{}, false, nil
	}

	var seconds int64
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %s: %s", ErrMalformedClaim, claim, err)
		}
		seconds, err = numericDateRange(f)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %s", err, claim)
		}
	case float64:
		s, err := numericDateRange(n)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %s", err, claim)
		}
		seconds = s
	case int64:
		seconds = n
	default:
		return time.Time{}, false, fmt.Errorf("%w: %s is not numeric", ErrMalformedClaim, claim)
	}

	return time.Unix(seconds, 0).UTC(), true, nil
}

// SetNumericDate stores t in c as a NumericDate.
func (c Claims) SetNumericDate(claim string, t time.Time) {
	c[claim] = t.Unix()
}

// SetNumericDateIn stores the current time plus d in c as a
// NumericDate — d in the future when d is positive, d in the past when
// d is negative.
func (c Claims) SetNumericDateIn(claim string, d time.Duration) {
	c.SetNumericDate(claim, time.Now().Add(d))
}

// GetStringOrArray returns claim's value per RFC 7519 section 2's
// StringOrURI-array convention: a bare string becomes a single-element
// slice, an array must contain only strings. Absence returns nil, false, nil.
func (c Claims) GetStringOrArray(claim string) ([]string, bool, error) {
	v, ok := c[claim]
	if !ok {
		return nil, false, nil
	}
	switch val := v.(type) {
	case string:
		return []string{val}, true, nil
	case []string:
		return val, true, nil
	case []any:
		out := make([]string, len(val))
		for i, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, false, fmt.Errorf("%w: %s contains a non-string element", ErrMalformedClaim, claim)
			}
			out[i] = s
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s is neither a string nor an array of strings", ErrMalformedClaim, claim)
	}
}

// Issuer, Subject, ID return the corresponding bare string claims.
func (c Claims) Issuer() (string, bool, error)  { return c.GetString(ClaimIssuer) }
func (c Claims) Subject() (string, bool, error) { return c.GetString(ClaimSubject) }
func (c Claims) ID() (string, bool, error)      { return c.GetString(ClaimID) }

// Audience returns the "aud" claim, normalized to a slice.
func (c Claims) Audience() ([]string, bool, error) { return c.GetStringOrArray(ClaimAudience) }

// ExpirationTime, NotBefore, IssuedAt return the corresponding NumericDate claims.
func (c Claims) ExpirationTime() (time.Time, bool, error) { return c.GetNumericDate(ClaimExpirationTime) }
func (c Claims) NotBefore() (time.Time, bool, error)      { return c.GetNumericDate(ClaimNotBefore) }
func (c Claims) IssuedAt() (time.Time, bool, error)       { return c.GetNumericDate(ClaimIssuedAt) }

// SetExpirationIn, SetNotBeforeIn, SetIssuedAtIn set the corresponding
// claim to now+d: a positive d is "d in the future", a negative d is "d in the past".
func (c Claims) SetExpirationIn(d time.Duration) { c.SetNumericDateIn(ClaimExpirationTime, d) }
func (c Claims) SetNotBeforeIn(d time.Duration)  { c.SetNumericDateIn(ClaimNotBefore, d) }
func (c Claims) SetIssuedAtIn(d time.Duration)   { c.SetNumericDateIn(ClaimIssuedAt, d) }
