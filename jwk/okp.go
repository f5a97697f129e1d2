package jwk

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/jose4go/jose/internal/encoding"
)

// OKP curve names (RFC 8037 section 2). Only Ed25519 keys are
// implemented; Ed448, X25519 and X448 are recognized names but are
// rejected at key-construction time.
const (
	CurveEd25519 = "Ed25519"
	CurveEd448   = "Ed448"
	CurveX25519  = "X25519"
	CurveX448    = "X448"
)

// ErrUnsupportedCurve is returned for any OKP curve other than Ed25519
// (including Ed448, X25519 and X448).
var ErrUnsupportedCurve = fmt.Errorf("jwk: unsupported OKP curve")

// OKPPublicKey implements "kty": "OKP" without private material
// (RFC 8037 section 2), restricted in this package to Ed25519.
type OKPPublicKey struct {
	Metadata
	Curve string
	X     ed25519.PublicKey
}

func (k *OKPPublicKey) Type() KeyType   { return KeyTypeOKP }
func (k *OKPPublicKey) IsPrivate() bool { return false }

func (k *OKPPublicKey) toParams(data map[string]any, _ Level) {
	k.Metadata.addParams(data)
	data["crv"] = k.Curve
	data["x"] = encoding.Encode(k.X)
}

func (k *OKPPublicKey) thumbprintJSON() ([]byte, error) {
	return canonicalJSON([]kv{
		{"crv", k.Curve},
		{"kty", string(KeyTypeOKP)},
		{"x", encoding.Encode(k.X)},
	})
}

type okpPublicKeyJSON struct {
	Type    KeyType  `json:"kty"`
	Use     KeyUse   `json:"use,omitempty"`
	Ops     []KeyOp  `json:"key_ops,omitempty"`
	Alg     string   `json:"alg,omitempty"`
	Kid     string   `json:"kid,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
	X5T     string   `json:"x5t,omitempty"`
	X5TS256 string   `json:"x5t#S256,omitempty"`
	Curve   string   `json:"crv"`
	X       string   `json:"x"`
}

func (k *OKPPublicKey) MarshalJSON() ([]byte, error) {
	w := okpPublicKeyJSON{
		Type:    KeyTypeOKP,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		Curve:   k.Curve,
		X:       encoding.Encode(k.X),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *OKPPublicKey) UnmarshalJSON(data []byte) error {
	var w okpPublicKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeOKP {
		return fmt.Errorf("jwk: invalid key type for OKP key: %s", w.Type)
	}
	if w.Curve != CurveEd25519 {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurve, w.Curve)
	}

	x, err := encoding.Decode(w.X)
	if err != nil {
		return fmt.Errorf("jwk: invalid x value: %w", err)
	}
	if len(x) != ed25519.PublicKeySize {
		return fmt.Errorf("jwk: invalid Ed25519 public key length: %d", len(x))
	}

	other, err := decodeOtherParams(data, knownMembers("crv", "x"))
	if err != nil {
		return fmt.Errorf("jwk: invalid OKP public key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.Curve = w.Curve
	k.X = x
	return nil
}

// OKPPrivateKey implements "kty": "OKP" with private material
// (RFC 8037 section 2), restricted in this package to Ed25519.
type OKPPrivateKey struct {
	Metadata
	Curve string
	X     ed25519.PublicKey
	D     ed25519.PrivateKey
}

func (k *OKPPrivateKey) Type() KeyType   { return KeyTypeOKP }
func (k *OKPPrivateKey) IsPrivate() bool { return true }

// Public returns the public-only view of k.
func (k *OKPPrivateKey) Public() *OKPPublicKey {
	return &OKPPublicKey{Metadata: k.Metadata, Curve: k.Curve, X: k.X}
}

func (k *OKPPrivateKey) toParams(data map[string]any, level Level) {
	k.Metadata.addParams(data)
	data["crv"] = k.Curve
	data["x"] = encoding.Encode(k.X)
	if level == IncludePrivate {
		data["d"] = encoding.Encode(k.D.Seed())
	}
}

func (k *OKPPrivateKey) thumbprintJSON() ([]byte, error) {
	return canonicalJSON([]kv{
		{"crv", k.Curve},
		{"kty", string(KeyTypeOKP)},
		{"x", encoding.Encode(k.X)},
	})
}

type okpPrivateKeyJSON struct {
	Type    KeyType  `json:"kty"`
	Use     KeyUse   `json:"use,omitempty"`
	Ops     []KeyOp  `json:"key_ops,omitempty"`
	Alg     string   `json:"alg,omitempty"`
	Kid     string   `json:"kid,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
	X5T     string   `json:"x5t,omitempty"`
	X5TS256 string   `json:"x5t#S256,omitempty"`
	Curve   string   `json:"crv"`
	X       string   `json:"x"`
	D       string   `json:"d"`
}

func (k *OKPPrivateKey) MarshalJSON() ([]byte, error) {
	w := okpPrivateKeyJSON{
		Type:    KeyTypeOKP,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		Curve:   k.Curve,
		X:       encoding.Encode(k.X),
		D:       encoding.Encode(k.D.Seed()),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *OKPPrivateKey) UnmarshalJSON(data []byte) error {
	var w okpPrivateKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeOKP {
		return fmt.Errorf("jwk: invalid key type for OKP key: %s", w.Type)
	}
	if w.Curve != CurveEd25519 {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurve, w.Curve)
	}

	x, err := encoding.Decode(w.X)
	if err != nil {
		return fmt.Errorf("jwk: invalid x value: %w", err)
	}
	seed, err := encoding.Decode(w.D)
	if err != nil {
		return fmt.Errorf("jwk: invalid d value: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("jwk: invalid Ed25519 seed length: %d", len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	if len(x) == ed25519.PublicKeySize {
		for i := range x {
			if x[i] != pub[i] {
				return fmt.Errorf("jwk: OKP x does not match d's derived public key")
			}
		}
	}

	other, err := decodeOtherParams(data, knownMembers("crv", "x", "d"))
	if err != nil {
		return fmt.Errorf("jwk: invalid OKP private key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.Curve = w.Curve
	k.X = pub
	k.D = priv
	return nil
}
