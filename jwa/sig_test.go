package jwa

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/jose4go/jose/jwk"
)

func generateEd25519(t *testing.T) (*jwk.OKPPublicKey, *jwk.OKPPrivateKey, error) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return &jwk.OKPPublicKey{Curve: jwk.CurveEd25519, X: pub},
		&jwk.OKPPrivateKey{Curve: jwk.CurveEd25519, X: pub, D: priv},
		nil
}

func mustOctetKey(t *testing.T, n int) *jwk.OctetKey {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return &jwk.OctetKey{Bytes: b}
}

func TestHMACSignVerify(t *testing.T) {
	key := mustOctetKey(t, 32)
	alg, err := LookupJWSAlgorithm(AlgHS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	input := []byte("signing input")

	sig, err := alg.Sign(key, input)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Verify(key, input, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	tampered := append([]byte{}, sig...)
	tampered[0] ^= 0xff
	if err := alg.Verify(key, input, tampered); err == nil {
		t.Error("expected verify to fail on tampered signature")
	}
}

func TestHMACRejectsShortKey(t *testing.T) {
	alg, err := LookupJWSAlgorithm(AlgHS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.ValidateSigningKey(mustOctetKey(t, 8)); err == nil {
		t.Error("expected short HMAC key to be rejected")
	}
}

func TestRSAPKCS1SignVerify(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	key := &jwk.RSAPrivateKey{PrivateKey: priv}
	pub := &jwk.RSAPublicKey{PublicKey: &priv.PublicKey}

	alg, err := LookupJWSAlgorithm(AlgRS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	input := []byte("signing input")

	sig, err := alg.Sign(key, input)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Verify(pub, input, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestRSAPSSSignVerify(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	key := &jwk.RSAPrivateKey{PrivateKey: priv}
	pub := &jwk.RSAPublicKey{PublicKey: &priv.PublicKey}

	alg, err := LookupJWSAlgorithm(AlgPS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	input := []byte("signing input")

	sig, err := alg.Sign(key, input)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Verify(pub, input, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestRSARejectsWeakKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	key := &jwk.RSAPrivateKey{PrivateKey: priv}
	alg, err := LookupJWSAlgorithm(AlgRS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alg.Sign(key, []byte("x")); err == nil {
		t.Error("expected weak RSA key to be rejected")
	}
}

func TestECDSASignVerify(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key := &jwk.ECPrivateKey{PrivateKey: priv}
	pub := &jwk.ECPublicKey{PublicKey: &priv.PublicKey}

	alg, err := LookupJWSAlgorithm(AlgES256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	input := []byte("signing input")

	sig, err := alg.Sign(key, input)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Verify(pub, input, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestES256KUnavailable(t *testing.T) {
	alg, ok := jwsAlgorithms[AlgES256K]
	if !ok {
		t.Fatal("expected ES256K to be registered")
	}
	if alg.Available() {
		t.Error("expected ES256K to be registered but unavailable")
	}
	if _, err := LookupJWSAlgorithm(AlgES256K, NoConstraints); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm looking up ES256K, got %v", err)
	}
}

func TestNoneRequiresNilKey(t *testing.T) {
	alg, err := LookupJWSAlgorithm(AlgNone, PermitNone(NoConstraints))
	if err != nil {
		t.Fatal(err)
	}
	sig, err := alg.Sign(nil, []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 0 {
		t.Errorf("expected empty signature, got %x", sig)
	}
	if err := alg.Verify(nil, []byte("x"), sig); err != nil {
		t.Errorf("verify of empty none signature failed: %v", err)
	}
}

func TestNoneExcludedByDefaultConstraints(t *testing.T) {
	if _, err := LookupJWSAlgorithm(AlgNone, DefaultJWSConstraints()); err == nil {
		t.Error("expected alg=none to be rejected by default JWS constraints")
	}
}

func TestEdDSASignVerify(t *testing.T) {
	pub, priv, err := generateEd25519(t)
	if err != nil {
		t.Fatal(err)
	}
	alg, err := LookupJWSAlgorithm(AlgEdDSA, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	input := []byte("signing input")
	sig, err := alg.Sign(priv, input)
	if err != nil {
		t.Fatal(err)
	}
	if err := alg.Verify(pub, input, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}
