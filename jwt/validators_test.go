package jwt

import (
	"testing"
	"time"

	"github.com/jose4go/jose/header"
)

func TestExpirationValidatorRejectsPast(t *testing.T) {
	c := Claims{}
	c.SetExpirationIn(-time.Minute)
	if errs := ExpirationValidator(0).Validate(c, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeExpired {
		t.Errorf("expected a single EXPIRED error, got %+v", errs)
	}
}

func TestExpirationValidatorHonorsSkew(t *testing.T) {
	c := Claims{}
	c.SetExpirationIn(-time.Second)
	if errs := ExpirationValidator(time.Minute).Validate(c, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected skew to absorb a 1s overshoot, got %+v", errs)
	}
}

func TestExpirationValidatorIgnoresAbsentClaim(t *testing.T) {
	if errs := ExpirationValidator(0).Validate(Claims{}, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected no errors for an absent exp claim, got %+v", errs)
	}
}

func TestNotBeforeValidatorRejectsFuture(t *testing.T) {
	c := Claims{}
	c.SetNotBeforeIn(time.Hour)
	if errs := NotBeforeValidator(0).Validate(c, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeNotYetValid {
		t.Errorf("expected a single NOT_YET_VALID error, got %+v", errs)
	}
}

func TestIssuedAtValidatorRejectsTooOld(t *testing.T) {
	c := Claims{}
	c.SetIssuedAtIn(-2 * time.Hour)
	if errs := IssuedAtValidator(0, time.Hour).Validate(c, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeIssuedAtTooOld {
		t.Errorf("expected a single ISSUED_AT_TOO_OLD error, got %+v", errs)
	}
}

func TestIssuerValidator(t *testing.T) {
	c := Claims{ClaimIssuer: "a"}
	if errs := IssuerValidator(true, "a", "b").Validate(c, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected issuer a to be accepted, got %+v", errs)
	}
	if errs := IssuerValidator(true, "b").Validate(c, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeIssuerInvalid {
		t.Errorf("expected ISSUER_INVALID, got %+v", errs)
	}
}

func TestIssuerValidatorMissingVsInvalid(t *testing.T) {
	absent := Claims{}
	if errs := IssuerValidator(true, "a").Validate(absent, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeIssuerMissing {
		t.Errorf("expected ISSUER_MISSING when required and absent, got %+v", errs)
	}
	if errs := IssuerValidator(false, "a").Validate(absent, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected an absent issuer to pass when not required, got %+v", errs)
	}
}

func TestAudienceValidator(t *testing.T) {
	c := Claims{ClaimAudience: []any{"x", "y"}}
	if errs := AudienceValidator(true, "y").Validate(c, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected y to match, got %+v", errs)
	}
	if errs := AudienceValidator(true, "z").Validate(c, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeAudienceInvalid {
		t.Errorf("expected AUDIENCE_INVALID, got %+v", errs)
	}
}

func TestAudienceValidatorMissingVsInvalid(t *testing.T) {
	absent := Claims{}
	if errs := AudienceValidator(true, "x").Validate(absent, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeAudienceMissing {
		t.Errorf("expected AUDIENCE_MISSING when required and absent, got %+v", errs)
	}
	if errs := AudienceValidator(false, "x").Validate(absent, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected an absent audience to pass when not required, got %+v", errs)
	}
}

func TestRequireClaim(t *testing.T) {
	if errs := RequireClaim(ClaimSubject).Validate(Claims{}, nil, time.Now()); len(errs) != 1 || errs[0].Code != CodeMissingClaim {
		t.Errorf("expected MISSING_CLAIM, got %+v", errs)
	}
	if errs := RequireClaim(ClaimSubject).Validate(Claims{ClaimSubject: "x"}, nil, time.Now()); len(errs) != 0 {
		t.Errorf("expected no errors once sub is present, got %+v", errs)
	}
}

func TestTypeValidatorAcceptsNormalizedMatch(t *testing.T) {
	h := header.New()
	h.Set(header.Type, "application/JWT")
	if errs := TypeValidator("jwt").Validate(Claims{}, h, time.Now()); len(errs) != 0 {
		t.Errorf("expected a case/prefix-insensitive match, got %+v", errs)
	}
}

func TestTypeValidatorRejectsMismatch(t *testing.T) {
	h := header.New()
	h.Set(header.Type, "JWT")
	if errs := TypeValidator("at+jwt").Validate(Claims{}, h, time.Now()); len(errs) != 1 || errs[0].Code != CodeTypeMismatch {
		t.Errorf("expected TYPE_MISMATCH, got %+v", errs)
	}
}

func TestTypeValidatorRejectsAbsentHeader(t *testing.T) {
	h := header.New()
	if errs := TypeValidator("jwt").Validate(Claims{}, h, time.Now()); len(errs) != 1 || errs[0].Code != CodeTypeMismatch {
		t.Errorf("expected TYPE_MISMATCH when \"typ\" is absent, got %+v", errs)
	}
}
