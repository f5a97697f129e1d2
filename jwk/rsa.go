package jwk

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/jose4go/jose/internal/encoding"
)

// RSAPublicKey implements "kty": "RSA" without private material
// (RFC 7518 section 6.3.1).
type RSAPublicKey struct {
	Metadata
	*rsa.PublicKey
}

func (k *RSAPublicKey) Type() KeyType  { return KeyTypeRSA }
func (k *RSAPublicKey) IsPrivate() bool { return false }

// rsaModulusSize returns the fixed encoded octet length of n (and of d,
// which shares its width): the modulus's byte length. Unlike an EC
// coordinate this isn't looked up from a fixed table, since it varies
// with key size, but it is just as fixed for a given key and just as
// subject to math/big.Int.Bytes() stripping a leading zero byte.
func rsaModulusSize(n *big.Int) int {
	return (n.BitLen() + 7) / 8
}

// rsaPrimeSize returns the fixed encoded octet length of p, q, dp, dq
// and qi for a modulus of the given size: half the modulus width,
// rounded up, matching the balanced-prime convention RSA keys use.
func rsaPrimeSize(modulusSize int) int {
	return (modulusSize + 1) / 2
}

func (k *RSAPublicKey) toParams(data map[string]any, _ Level) {
	k.Metadata.addParams(data)
	size := rsaModulusSize(k.PublicKey.N)
	data["n"] = encoding.Encode(leftPad(k.PublicKey.N.Bytes(), size))
	data["e"] = encoding.Encode(big.NewInt(int64(k.PublicKey.E)).Bytes())
}

func (k *RSAPublicKey) thumbprintJSON() ([]byte, error) {
	size := rsaModulusSize(k.PublicKey.N)
	return canonicalJSON([]kv{
		{"e", encoding.Encode(big.NewInt(int64(k.PublicKey.E)).Bytes())},
		{"kty", string(KeyTypeRSA)},
		{"n", encoding.Encode(leftPad(k.PublicKey.N.Bytes(), size))},
	})
}

type rsaPublicKeyJSON struct {
	Type    KeyType  `json:"kty"`
	Use     KeyUse   `json:"use,omitempty"`
	Ops     []KeyOp  `json:"key_ops,omitempty"`
	Alg     string   `json:"alg,omitempty"`
	Kid     string   `json:"kid,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
	X5T     string   `json:"x5t,omitempty"`
	X5TS256 string   `json:"x5t#S256,omitempty"`
	N       string   `json:"n"`
	E       string   `json:"e"`
}

func (k *RSAPublicKey) MarshalJSON() ([]byte, error) {
	size := rsaModulusSize(k.PublicKey.N)
	w := rsaPublicKeyJSON{
		Type:    KeyTypeRSA,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		N:       encoding.Encode(leftPad(k.PublicKey.N.Bytes(), size)),
		E:       encoding.Encode(big.NewInt(int64(k.PublicKey.E)).Bytes()),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *RSAPublicKey) UnmarshalJSON(data []byte) error {
	var w rsaPublicKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeRSA {
		return fmt.Errorf("jwk: invalid key type for RSA public key: %s", w.Type)
	}

	nBytes, err := encoding.Decode(w.N)
	if err != nil {
		return fmt.Errorf("jwk: invalid n value: %w", err)
	}
	eBytes, err := encoding.Decode(w.E)
	if err != nil {
		return fmt.Errorf("jwk: invalid e value: %w", err)
	}

	other, err := decodeOtherParams(data, knownMembers("n", "e"))
	if err != nil {
		return fmt.Errorf("jwk: invalid RSA public key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.PublicKey = &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}
	return nil
}

// RSAPrivateKey implements "kty": "RSA" with private material
// (RFC 7518 section 6.3.2). Only the minimal CRT parameters this spec
// needs to reconstruct an *rsa.PrivateKey (d, p, q) are required on
// input; dp/dq/qi/oth are round-tripped if present but not required.
type RSAPrivateKey struct {
	Metadata
	*rsa.PrivateKey
}

func (k *RSAPrivateKey) Type() KeyType  { return KeyTypeRSA }
func (k *RSAPrivateKey) IsPrivate() bool { return true }

// Public returns the public-only view of k.
func (k *RSAPrivateKey) Public() *RSAPublicKey {
	return &RSAPublicKey{Metadata: k.Metadata, PublicKey: &k.PrivateKey.PublicKey}
}

func (k *RSAPrivateKey) toParams(data map[string]any, level Level) {
	k.Metadata.addParams(data)
	size := rsaModulusSize(k.PrivateKey.N)
	data["n"] = encoding.Encode(leftPad(k.PrivateKey.N.Bytes(), size))
	data["e"] = encoding.Encode(big.NewInt(int64(k.PrivateKey.E)).Bytes())

	if level == IncludePrivate {
		data["d"] = encoding.Encode(leftPad(k.PrivateKey.D.Bytes(), size))
		primeSize := rsaPrimeSize(size)
		if len(k.PrivateKey.Primes) >= 2 {
			data["p"] = encoding.Encode(leftPad(k.PrivateKey.Primes[0].Bytes(), primeSize))
			data["q"] = encoding.Encode(leftPad(k.PrivateKey.Primes[1].Bytes(), primeSize))
		}
		if k.PrivateKey.Precomputed.Dp != nil {
			data["dp"] = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Dp.Bytes(), primeSize))
			data["dq"] = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Dq.Bytes(), primeSize))
			data["qi"] = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Qinv.Bytes(), primeSize))
		}
	}
}

func (k *RSAPrivateKey) thumbprintJSON() ([]byte, error) {
	size := rsaModulusSize(k.PrivateKey.N)
	return canonicalJSON([]kv{
		{"e", encoding.Encode(big.NewInt(int64(k.PrivateKey.E)).Bytes())},
		{"kty", string(KeyTypeRSA)},
		{"n", encoding.Encode(leftPad(k.PrivateKey.N.Bytes(), size))},
	})
}

type rsaPrivateKeyJSON struct {
	Type    KeyType  `json:"kty"`
	Use     KeyUse   `json:"use,omitempty"`
	Ops     []KeyOp  `json:"key_ops,omitempty"`
	Alg     string   `json:"alg,omitempty"`
	Kid     string   `json:"kid,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
	X5T     string   `json:"x5t,omitempty"`
	X5TS256 string   `json:"x5t#S256,omitempty"`
	N       string   `json:"n"`
	E       string   `json:"e"`
	D       string   `json:"d"`
	P       string   `json:"p,omitempty"`
	Q       string   `json:"q,omitempty"`
	DP      string   `json:"dp,omitempty"`
	DQ      string   `json:"dq,omitempty"`
	QI      string   `json:"qi,omitempty"`
}

func (k *RSAPrivateKey) MarshalJSON() ([]byte, error) {
	size := rsaModulusSize(k.PrivateKey.N)
	primeSize := rsaPrimeSize(size)
	w := rsaPrivateKeyJSON{
		Type:    KeyTypeRSA,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		N:       encoding.Encode(leftPad(k.PrivateKey.N.Bytes(), size)),
		E:       encoding.Encode(big.NewInt(int64(k.PrivateKey.E)).Bytes()),
		D:       encoding.Encode(leftPad(k.PrivateKey.D.Bytes(), size)),
	}
	if len(k.PrivateKey.Primes) >= 2 {
		w.P = encoding.Encode(leftPad(k.PrivateKey.Primes[0].Bytes(), primeSize))
		w.Q = encoding.Encode(leftPad(k.PrivateKey.Primes[1].Bytes(), primeSize))
	}
	if k.PrivateKey.Precomputed.Dp != nil {
		w.DP = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Dp.Bytes(), primeSize))
		w.DQ = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Dq.Bytes(), primeSize))
		w.QI = encoding.Encode(leftPad(k.PrivateKey.Precomputed.Qinv.Bytes(), primeSize))
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *RSAPrivateKey) UnmarshalJSON(data []byte) error {
	var w rsaPrivateKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeRSA {
		return fmt.Errorf("jwk: invalid key type for RSA private key: %s", w.Type)
	}

	dec := func(name, s string) (*big.Int, error) {
		if s == "" {
			return nil, nil
		}
		b, err := encoding.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("jwk: invalid %s value: %w", name, err)
		}
		return new(big.Int).SetBytes(b), nil
	}

	n, err := dec("n", w.N)
	if err != nil {
		return err
	}
	e, err := dec("e", w.E)
	if err != nil {
		return err
	}
	d, err := dec("d", w.D)
	if err != nil {
		return err
	}
	p, err := dec("p", w.P)
	if err != nil {
		return err
	}
	q, err := dec("q", w.Q)
	if err != nil {
		return err
	}

	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
	}
	if p != nil && q != nil {
		priv.Primes = []*big.Int{p, q}
	}
	if err := priv.Validate(); err != nil {
		return fmt.Errorf("jwk: invalid RSA private key: %w", err)
	}
	priv.Precompute()

	other, err := decodeOtherParams(data, knownMembers("n", "e", "d", "p", "q", "dp", "dq", "qi"))
	if err != nil {
		return fmt.Errorf("jwk: invalid RSA private key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.PrivateKey = priv
	return nil
}
