package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestUnmarshalClaimsRoundTrip(t *testing.T) {
	c, err := UnmarshalClaims([]byte(`{"iss":"test","aud":["a","b"],"exp":1700000000}`))
	if err != nil {
		t.Fatal(err)
	}
	iss, ok, err := c.Issuer()
	if err != nil || !ok || iss != "test" {
		t.Errorf("Issuer() = %q, %v, %v", iss, ok, err)
	}
	aud, ok, err := c.Audience()
	if err != nil || !ok || len(aud) != 2 {
		t.Errorf("Audience() = %v, %v, %v", aud, ok, err)
	}
}

func TestAudienceAcceptsBareString(t *testing.T) {
	c, err := UnmarshalClaims([]byte(`{"aud":"solo"}`))
	if err != nil {
		t.Fatal(err)
	}
	aud, ok, err := c.Audience()
	if err != nil || !ok || len(aud) != 1 || aud[0] != "solo" {
		t.Errorf("Audience() = %v, %v, %v", aud, ok, err)
	}
}

func TestAudienceRejectsNonStringShape(t *testing.T) {
	c, err := UnmarshalClaims([]byte(`{"aud":42}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Audience(); !errors.Is(err, ErrMalformedClaim) {
		t.Errorf("expected ErrMalformedClaim, got %v", err)
	}
}

func TestNumericDateRejectsNegative(t *testing.T) {
	c, err := UnmarshalClaims([]byte(`{"exp":-5}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.ExpirationTime(); !errors.Is(err, ErrMalformedClaim) {
		t.Errorf("expected ErrMalformedClaim, got %v", err)
	}
}

func TestSetExpirationInRoundTrips(t *testing.T) {
	c := Claims{}
	c.SetExpirationIn(time.Hour)
	exp, ok, err := c.ExpirationTime()
	if err != nil || !ok {
		t.Fatalf("ExpirationTime() = %v, %v, %v", exp, ok, err)
	}
	if exp.Before(time.Now().Add(59 * time.Minute)) {
		t.Errorf("expiration too close to now: %s", exp)
	}
}

func TestHasReportsAbsence(t *testing.T) {
	c := Claims{"iss": "test"}
	if c.Has("sub") {
		t.Error("expected sub to be absent")
	}
	if !c.Has("iss") {
		t.Error("expected iss to be present")
	}
}
