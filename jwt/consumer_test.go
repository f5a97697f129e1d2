package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwe"
	"github.com/jose4go/jose/jwk"
	"github.com/jose4go/jose/jws"
)

func mustOctetKey(t *testing.T, n int) *jwk.OctetKey {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return &jwk.OctetKey{Bytes: b}
}

func TestProcessSignedTokenRoundTrip(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimIssuer: "test", ClaimSubject: "john.doe"}
	claims.SetExpirationIn(time.Hour)

	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().WithKey(key).WithValidator(ExpirationValidator(0))
	result, err := consumer.Process(compact)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, _ := result.Claims.Subject()
	if sub != "john.doe" {
		t.Errorf("sub = %q", sub)
	}
	if len(result.Layers) != 1 || result.Layers[0].Kind != "JWS" {
		t.Errorf("unexpected layers: %+v", result.Layers)
	}
}

func TestProcessRejectsExpiredToken(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{}
	claims.SetExpirationIn(-time.Hour)

	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().WithKey(key).WithValidator(ExpirationValidator(0))
	_, err = consumer.Process(compact)
	var multi *MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("expected *MultiError, got %v", err)
	}
	if len(multi.Errors) != 1 || multi.Errors[0].Code != CodeExpired {
		t.Errorf("unexpected errors: %+v", multi.Errors)
	}
}

func TestProcessCollectsAllValidationFailures(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimIssuer: "wrong-issuer"}
	claims.SetExpirationIn(-time.Hour)

	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().
		WithKey(key).
		WithValidator(ExpirationValidator(0)).
		WithValidator(IssuerValidator(true, "expected-issuer"))

	_, err = consumer.Process(compact)
	var multi *MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("expected *MultiError, got %v", err)
	}
	if len(multi.Errors) != 2 {
		t.Errorf("expected both validators to report, got %d errors: %+v", len(multi.Errors), multi.Errors)
	}
}

func TestProcessRejectsTamperedSignature(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimSubject: "john.doe"}

	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}
	// Change a character whose six bits are all significant; the last
	// one carries ignored padding bits.
	i := len(compact) - 2
	repl := "A"
	if compact[i] == 'A' {
		repl = "B"
	}
	compact = compact[:i] + repl + compact[i+1:]

	consumer := NewConsumer().WithKey(key)
	if _, err := consumer.Process(compact); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestProcessEncryptedTokenRoundTrip(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimSubject: "john.doe"}

	encrypted, err := Encrypt(claims, jwa.AlgDir, jwa.EncA128CBC_HS256, key,
		jwa.NewConstraints(jwa.AlgDir), jwa.DefaultJWEContentEncryptionConstraints(), nil)
	if err != nil {
		t.Fatal(err)
	}
	compact, err := encrypted.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().
		WithKey(key).
		WithJWEKeyManagementConstraints(jwa.NewConstraints(jwa.AlgDir))
	result, err := consumer.Process(compact)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, _ := result.Claims.Subject()
	if sub != "john.doe" {
		t.Errorf("sub = %q", sub)
	}
}

func TestProcessNestedSignThenEncrypt(t *testing.T) {
	signKey := mustOctetKey(t, 32)
	encKey := mustOctetKey(t, 32)
	claims := Claims{ClaimSubject: "john.doe"}

	outer, err := NestedSignThenEncrypt(claims,
		jwa.AlgHS256, signKey, jwa.DefaultJWSConstraints(),
		jwa.AlgDir, jwa.EncA128CBC_HS256, encKey,
		jwa.NewConstraints(jwa.AlgDir), jwa.DefaultJWEContentEncryptionConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := outer.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().
		WithJWEKeyManagementConstraints(jwa.NewConstraints(jwa.AlgDir)).
		WithKeyResolver(func(layer *Layer, outer []*Layer) (any, error) {
			if layer.Kind == "JWE" {
				return encKey, nil
			}
			return signKey, nil
		})

	result, err := consumer.Process(compact)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Layers) != 2 || result.Layers[0].Kind != "JWE" || result.Layers[1].Kind != "JWS" {
		t.Errorf("unexpected layers: %+v", result.Layers)
	}
	sub, _, _ := result.Claims.Subject()
	if sub != "john.doe" {
		t.Errorf("sub = %q", sub)
	}
}

func TestProcessRejectsUnsignedUnauthenticatedAsymmetricEncryptionByDefault(t *testing.T) {
	priv := mustRSAKey(t)
	claims := Claims{ClaimSubject: "john.doe"}

	encrypted, err := Encrypt(claims, jwa.AlgRSAOAEP256, jwa.EncA128CBC_HS256, priv.pub,
		jwa.NewConstraints(jwa.AlgRSAOAEP256), jwa.DefaultJWEContentEncryptionConstraints(), nil)
	if err != nil {
		t.Fatal(err)
	}
	compact, err := encrypted.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().
		WithKey(priv.priv).
		WithJWEKeyManagementConstraints(jwa.NewConstraints(jwa.AlgRSAOAEP256))
	if _, err := consumer.Process(compact); !errors.Is(err, ErrIntegrityRequired) {
		t.Errorf("expected ErrIntegrityRequired, got %v", err)
	}

	if _, err := consumer.DisableRequireSignature().Process(compact); err != nil {
		t.Errorf("expected success once signature requirement disabled, got %v", err)
	}
}

func TestProcessRequireEncryption(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimSubject: "john.doe"}
	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().WithKey(key).RequireEncryption()
	if _, err := consumer.Process(compact); !errors.Is(err, ErrEncryptionRequired) {
		t.Errorf("expected ErrEncryptionRequired, got %v", err)
	}
}

func TestTwoPassProcessingPeeksBeforeVerifying(t *testing.T) {
	key := mustOctetKey(t, 32)
	claims := Claims{ClaimIssuer: "test", ClaimSubject: "john.doe"}

	signed, err := Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer()
	outer, err := consumer.ParseOuter(compact)
	if err != nil {
		t.Fatal(err)
	}

	unverified, ok := outer.UnverifiedPayload()
	if !ok {
		t.Fatal("expected UnverifiedPayload to succeed for a JWS layer")
	}
	peeked, err := UnmarshalClaims(unverified)
	if err != nil {
		t.Fatal(err)
	}
	iss, _, _ := peeked.Issuer()
	if iss != "test" {
		t.Fatalf("peeked issuer = %q", iss)
	}

	result, err := consumer.WithKey(key).ProcessLayer(outer)
	if err != nil {
		t.Fatal(err)
	}
	sub, _, _ := result.Claims.Subject()
	if sub != "john.doe" {
		t.Errorf("sub = %q", sub)
	}
}

func TestUnverifiedPayloadFalseForJWELayer(t *testing.T) {
	key := mustOctetKey(t, 32)
	encrypted, err := Encrypt(Claims{ClaimSubject: "john.doe"}, jwa.AlgDir, jwa.EncA128CBC_HS256, key,
		jwa.NewConstraints(jwa.AlgDir), jwa.DefaultJWEContentEncryptionConstraints(), nil)
	if err != nil {
		t.Fatal(err)
	}
	compact, err := encrypted.Compact()
	if err != nil {
		t.Fatal(err)
	}

	outer, err := NewConsumer().ParseOuter(compact)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := outer.UnverifiedPayload(); ok {
		t.Error("expected UnverifiedPayload to report false for a JWE layer")
	}
}

func TestProcessRejectsMalformedCompact(t *testing.T) {
	consumer := NewConsumer().WithKey(mustOctetKey(t, 32))
	if _, err := consumer.Process("not.a.valid.token"); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestProcessUnrecognizedCriticalHeader(t *testing.T) {
	key := mustOctetKey(t, 32)
	h := header.New()
	h.Set(header.Critical, []string{"x-custom"})
	j, err := jws.Sign(h, []byte(`{"sub":"john.doe"}`), jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := j.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().WithKey(key)
	if _, err := consumer.Process(compact); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid wrapping the unrecognized crit failure, got %v", err)
	}

	consumer = NewConsumer().WithKey(key).WithKnownCritical("x-custom")
	if _, err := consumer.Process(compact); err != nil {
		t.Errorf("expected success once x-custom is known, got %v", err)
	}
}

func TestProcessLiberalContentTypeFallback(t *testing.T) {
	signKey := mustOctetKey(t, 32)
	encKey := mustOctetKey(t, 32)
	claims := Claims{ClaimSubject: "john.doe"}

	signed, err := Sign(claims, jwa.AlgHS256, signKey, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	innerCompact, err := signed.Compact()
	if err != nil {
		t.Fatal(err)
	}

	// No "cty" set on the outer JWE, unlike NestedSignThenEncrypt.
	h := header.New()
	outer, err := jwe.Encrypt(h, []byte(innerCompact), jwa.AlgDir, jwa.EncA128CBC_HS256, encKey,
		jwa.NewConstraints(jwa.AlgDir), jwa.DefaultJWEContentEncryptionConstraints(), nil)
	if err != nil {
		t.Fatal(err)
	}
	compact, err := outer.Compact()
	if err != nil {
		t.Fatal(err)
	}

	consumer := NewConsumer().
		WithJWEKeyManagementConstraints(jwa.NewConstraints(jwa.AlgDir)).
		WithKeyResolver(func(layer *Layer, stack []*Layer) (any, error) {
			if layer.Kind == "JWE" {
				return encKey, nil
			}
			return signKey, nil
		})

	if _, err := consumer.Process(compact); err == nil {
		t.Error("expected failure without liberal content-type handling")
	}

	result, err := consumer.WithLiberalContentTypeHandling(true).Process(compact)
	if err != nil {
		t.Fatalf("expected liberal fallback to recover the nested token, got %v", err)
	}
	sub, _, _ := result.Claims.Subject()
	if sub != "john.doe" {
		t.Errorf("sub = %q", sub)
	}
}

type rsaTestKey struct {
	priv *jwk.RSAPrivateKey
	pub  *jwk.RSAPublicKey
}

func mustRSAKey(t *testing.T) rsaTestKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return rsaTestKey{
		priv: &jwk.RSAPrivateKey{PrivateKey: key},
		pub:  &jwk.RSAPublicKey{PublicKey: &key.PublicKey},
	}
}
