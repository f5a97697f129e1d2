package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/jose4go/jose/internal/encoding"
)

var supportedCurves = map[string]elliptic.Curve{
	"P-256": elliptic.P256(),
	"P-384": elliptic.P384(),
	"P-521": elliptic.P521(),
}

var curveNames = map[elliptic.Curve]string{
	elliptic.P256(): "P-256",
	elliptic.P384(): "P-384",
	elliptic.P521(): "P-521",
}

// curveSize returns the fixed encoded coordinate width in octets for
// crv, per the table in RFC 7518 section 6.2.1.2.
func curveSize(crv string) int {
	switch crv {
	case "P-256":
		return 32
	case "P-384":
		return 48
	case "P-521":
		return 66
	default:
		return 0
	}
}

// ECPublicKey implements "kty": "EC" without private material
// (RFC 7518 section 6.2.1).
type ECPublicKey struct {
	Metadata
	*ecdsa.PublicKey
}

func (k *ECPublicKey) Type() KeyType   { return KeyTypeEC }
func (k *ECPublicKey) IsPrivate() bool { return false }

func (k *ECPublicKey) toParams(data map[string]any, _ Level) {
	k.Metadata.addParams(data)
	crv := curveNames[k.PublicKey.Curve]
	size := curveSize(crv)
	data["crv"] = crv
	data["x"] = encoding.Encode(leftPad(k.PublicKey.X.Bytes(), size))
	data["y"] = encoding.Encode(leftPad(k.PublicKey.Y.Bytes(), size))
}

func (k *ECPublicKey) thumbprintJSON() ([]byte, error) {
	crv := curveNames[k.PublicKey.Curve]
	size := curveSize(crv)
	return canonicalJSON([]kv{
		{"crv", crv},
		{"kty", string(KeyTypeEC)},
		{"x", encoding.Encode(leftPad(k.PublicKey.X.Bytes(), size))},
		{"y", encoding.Encode(leftPad(k.PublicKey.Y.Bytes(), size))},
	})
}

type ecPublicKeyJSON struct {
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
	Y       string   `json:"y"`
}

func (k *ECPublicKey) MarshalJSON() ([]byte, error) {
	crv := curveNames[k.PublicKey.Curve]
	size := curveSize(crv)
	w := ecPublicKeyJSON{
		Type:    KeyTypeEC,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		Curve:   crv,
		X:       encoding.Encode(leftPad(k.PublicKey.X.Bytes(), size)),
		Y:       encoding.Encode(leftPad(k.PublicKey.Y.Bytes(), size)),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *ECPublicKey) UnmarshalJSON(data []byte) error {
	var w ecPublicKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeEC {
		return fmt.Errorf("jwk: invalid key type for EC public key: %s", w.Type)
	}

	crv, ok := supportedCurves[w.Curve]
	if !ok {
		return fmt.Errorf("jwk: unsupported EC curve: %s", w.Curve)
	}

	xBytes, err := encoding.Decode(w.X)
	if err != nil {
		return fmt.Errorf("jwk: invalid x value: %w", err)
	}
	yBytes, err := encoding.Decode(w.Y)
	if err != nil {
		return fmt.Errorf("jwk: invalid y value: %w", err)
	}

	other, err := decodeOtherParams(data, knownMembers("crv", "x", "y"))
	if err != nil {
		return fmt.Errorf("jwk: invalid EC public key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.PublicKey = &ecdsa.PublicKey{
		Curve: crv,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !crv.IsOnCurve(k.PublicKey.X, k.PublicKey.Y) {
		return fmt.Errorf("jwk: EC point is not on curve %s", w.Curve)
	}
	return nil
}

// ECPrivateKey implements "kty": "EC" with private material
// (RFC 7518 section 6.2.2).
type ECPrivateKey struct {
	Metadata
	*ecdsa.PrivateKey
}

func (k *ECPrivateKey) Type() KeyType   { return KeyTypeEC }
func (k *ECPrivateKey) IsPrivate() bool { return true }

// Public returns the public-only view of k.
func (k *ECPrivateKey) Public() *ECPublicKey {
	return &ECPublicKey{Metadata: k.Metadata, PublicKey: &k.PrivateKey.PublicKey}
}

func (k *ECPrivateKey) toParams(data map[string]any, level Level) {
	k.Metadata.addParams(data)
	crv := curveNames[k.PrivateKey.Curve]
	size := curveSize(crv)
	data["crv"] = crv
	data["x"] = encoding.Encode(leftPad(k.PrivateKey.X.Bytes(), size))
	data["y"] = encoding.Encode(leftPad(k.PrivateKey.Y.Bytes(), size))
	if level == IncludePrivate {
		data["d"] = encoding.Encode(leftPad(k.PrivateKey.D.Bytes(), size))
	}
}

func (k *ECPrivateKey) thumbprintJSON() ([]byte, error) {
	crv := curveNames[k.PrivateKey.Curve]
	size := curveSize(crv)
	return canonicalJSON([]kv{
		{"crv", crv},
		{"kty", string(KeyTypeEC)},
		{"x", encoding.Encode(leftPad(k.PrivateKey.X.Bytes(), size))},
		{"y", encoding.Encode(leftPad(k.PrivateKey.Y.Bytes(), size))},
	})
}

type ecPrivateKeyJSON struct {
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
	Y       string   `json:"y"`
	D       string   `json:"d"`
}

func (k *ECPrivateKey) MarshalJSON() ([]byte, error) {
	crv := curveNames[k.PrivateKey.Curve]
	size := curveSize(crv)
	w := ecPrivateKeyJSON{
		Type:    KeyTypeEC,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		Curve:   crv,
		X:       encoding.Encode(leftPad(k.PrivateKey.X.Bytes(), size)),
		Y:       encoding.Encode(leftPad(k.PrivateKey.Y.Bytes(), size)),
		D:       encoding.Encode(leftPad(k.PrivateKey.D.Bytes(), size)),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *ECPrivateKey) UnmarshalJSON(data []byte) error {
	var w ecPrivateKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeEC {
		return fmt.Errorf("jwk: invalid key type for EC private key: %s", w.Type)
	}

	crv, ok := supportedCurves[w.Curve]
	if !ok {
		return fmt.Errorf("jwk: unsupported EC curve: %s", w.Curve)
	}

	xBytes, err := encoding.Decode(w.X)
	if err != nil {
		return fmt.Errorf("jwk: invalid x value: %w", err)
	}
	yBytes, err := encoding.Decode(w.Y)
	if err != nil {
		return fmt.Errorf("jwk: invalid y value: %w", err)
	}
	dBytes, err := encoding.Decode(w.D)
	if err != nil {
		return fmt.Errorf("jwk: invalid d value: %w", err)
	}

	pub := ecdsa.PublicKey{
		Curve: crv,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	if !crv.IsOnCurve(pub.X, pub.Y) {
		return fmt.Errorf("jwk: EC point is not on curve %s", w.Curve)
	}

	other, err := decodeOtherParams(data, knownMembers("crv", "x", "y", "d"))
	if err != nil {
		return fmt.Errorf("jwk: invalid EC private key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.PrivateKey = &ecdsa.PrivateKey{
		PublicKey: pub,
		D:         new(big.Int).SetBytes(dBytes),
	}
	return nil
}
