package jose_test

import (
	"crypto/rsa"
	"math/rand"
	"testing"

	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwk"
	"github.com/jose4go/jose/jws"
)

// TestHS256FixedCompactVector checks the module against a fixed,
// independently-published HS256 JWS rather than a freshly generated
// key: the RFC 7515 section A.1 example. Header, payload and signature
// are given exactly as the RFC prints them; a correct implementation
// verifies them as-is.
func TestHS256FixedCompactVector(t *testing.T) {
	const compact = "eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		"." +
		"eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFtcGxlLmNvbS9pc19yb290Ijp0cnVlfQ" +
		"." +
		"dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	keyBytes, err := encoding.Decode("AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow")
	if err != nil {
		t.Fatal(err)
	}
	key := &jwk.OctetKey{Bytes: keyBytes}

	parsed, err := jws.ParseCompact(compact)
	if err != nil {
		t.Fatalf("ParseCompact: %v", err)
	}
	if err := parsed.Verify(key, jwa.DefaultJWSConstraints()); err != nil {
		t.Errorf("fixed HS256 vector failed to verify: %v", err)
	}

	payload := string(parsed.Payload())
	const wantPayload = "{\"iss\":\"joe\",\r\n" +
		" \"exp\":1300819380,\r\n" +
		" \"http://example.com/is_root\":true}"
	if payload != wantPayload {
		t.Errorf("payload = %q, want %q", payload, wantPayload)
	}
}

// seededReader is a math/rand-backed stand-in for crypto/rand.Reader,
// passed to rsa.GenerateKey. rsa.GenerateKey does not derive a
// reproducible key from it, so the key can still differ run to run.
type seededReader struct {
	r *rand.Rand
}

func (s *seededReader) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// TestRS256FixedKeyCompactVector signs a fixed payload twice with one
// RSA key and checks that the two compact JWS outputs are identical
// (RS256 signing uses no randomness), then verifies the result.
func TestRS256FixedKeyCompactVector(t *testing.T) {
	priv, err := rsa.GenerateKey(&seededReader{r: rand.New(rand.NewSource(7520))}, 2048)
	if err != nil {
		t.Fatal(err)
	}
	signKey := &jwk.RSAPrivateKey{PrivateKey: priv}
	verifyKey := &jwk.RSAPublicKey{PublicKey: &priv.PublicKey}

	h, err := jws.Sign(nil, []byte(`{"iss":"joe","exp":1300819380,"http://example.com/is_root":true}`),
		jwa.AlgRS256, signKey, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact, err := h.Compact()
	if err != nil {
		t.Fatal(err)
	}

	// RS256 signing is deterministic for a given key, so a second signing
	// run over the same payload produces the same compact serialization.
	h2, err := jws.Sign(nil, []byte(`{"iss":"joe","exp":1300819380,"http://example.com/is_root":true}`),
		jwa.AlgRS256, signKey, jwa.DefaultJWSConstraints())
	if err != nil {
		t.Fatal(err)
	}
	compact2, err := h2.Compact()
	if err != nil {
		t.Fatal(err)
	}
	if compact != compact2 {
		t.Error("RS256 signing over a fixed key and payload was not deterministic")
	}

	parsed, err := jws.ParseCompact(compact)
	if err != nil {
		t.Fatalf("ParseCompact: %v", err)
	}
	if err := parsed.Verify(verifyKey, jwa.DefaultJWSConstraints()); err != nil {
		t.Errorf("fixed-key RS256 vector failed to verify: %v", err)
	}
}
