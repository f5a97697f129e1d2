// Package jwk implements JSON Web Keys as specified in RFC 7517
// (https://datatracker.ietf.org/doc/html/rfc7517) together with the
// key-type-specific parameters from RFC 7518 section 6
// (https://www.rfc-editor.org/rfc/rfc7518.html#section-6) and the JWK
// Thumbprint of RFC 7638.
package jwk

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyType is the "kty" parameter value (RFC 7518 section 6.1).
type KeyType string

const (
	ParamKeyType = "kty"

	KeyTypeEC  KeyType = "EC"
	KeyTypeRSA KeyType = "RSA"
	KeyTypeOKP KeyType = "OKP"
	KeyTypeOct KeyType = "oct"
)

// KeyUse is the "use" parameter value (RFC 7517 section 4.2).
type KeyUse string

const (
	ParamUse = "use"

	UseSignature  KeyUse = "sig"
	UseEncryption KeyUse = "enc"
)

// KeyOp is a "key_ops" parameter element (RFC 7517 section 4.3).
type KeyOp string

const (
	ParamKeyOps = "key_ops"

	KeyOpSign       KeyOp = "sign"
	KeyOpVerify     KeyOp = "verify"
	KeyOpEncrypt    KeyOp = "encrypt"
	KeyOpDecrypt    KeyOp = "decrypt"
	KeyOpWrapKey    KeyOp = "wrapKey"
	KeyOpUnwrapKey  KeyOp = "unwrapKey"
	KeyOpDeriveKey  KeyOp = "deriveKey"
	KeyOpDeriveBits KeyOp = "deriveBits"
)

const (
	ParamAlg = "alg"
	ParamKID = "kid"
)

// X.509 certificate members (RFC 7517 section 4.6-4.8).
const (
	ParamX5C     = "x5c"
	ParamX5T     = "x5t"
	ParamX5TS256 = "x5t#S256"
)

// Level selects which fields ToJSON emits.
type Level int

const (
	// PublicOnly emits only public material: safe to share.
	PublicOnly Level = iota
	// IncludeSymmetric additionally emits octet-secret material.
	IncludeSymmetric
	// IncludePrivate emits full private material (RSA/EC/OKP private halves).
	IncludePrivate
)

// Key is the interface implemented by all key variants: RSA, EC, OKP and
// oct JWKs. Each concrete type additionally exposes its native Go crypto
// type (e.g. *rsa.PublicKey) for algorithm implementations to type-assert
// against — the registry in package jwa pattern-matches on the concrete
// Key value rather than on this interface alone.
type Key interface {
	// Type returns the "kty" value.
	Type() KeyType

	// Use returns the "use" value, or "" if unset.
	Use() KeyUse

	// Operations returns the "key_ops" value, or nil if unset.
	Operations() []KeyOp

	// Algorithm returns the "alg" hint, or "" if unset.
	Algorithm() string

	// ID returns the "kid" value, or "" if unset.
	ID() string

	// IsPrivate reports whether this value carries private material.
	IsPrivate() bool

	// toParams appends this key's type-specific and metadata members to
	// data for the requested emission level. Implementations add members
	// in the fixed order: metadata, then type-specific fields.
	toParams(data map[string]any, level Level)

	// thumbprintJSON returns the canonical (RFC 7638) JSON octets used
	// to compute this key's thumbprint: members in lexicographic order,
	// exactly the REQUIRED members for this key type.
	thumbprintJSON() ([]byte, error)
}

// Metadata holds the common JWK members shared by every key type
// (RFC 7517 section 4). It is embedded into each concrete key type.
type Metadata struct {
	KeyUse        KeyUse
	KeyOperations []KeyOp
	KeyAlgorithm  string
	KeyID         string

	// X509CertChain, X509CertSHA1Thumbprint and X509CertSHA256Thumbprint
	// hold the "x5c"/"x5t"/"x5t#S256" members (RFC 7517 section 4.6-4.8).
	// This package does not validate the chain or thumbprint against the
	// key material; it only carries them.
	X509CertChain            []string
	X509CertSHA1Thumbprint   string
	X509CertSHA256Thumbprint string

	// OtherParams preserves, in first-seen order, any JWK member this
	// package does not otherwise model, so FromJSON followed by ToJSON
	// or MarshalJSON round-trips a key unchanged.
	OtherParams OtherParams
}

func (m Metadata) Use() KeyUse         { return m.KeyUse }
func (m Metadata) Operations() []KeyOp { return m.KeyOperations }
func (m Metadata) Algorithm() string   { return m.KeyAlgorithm }
func (m Metadata) ID() string          { return m.KeyID }

func (m Metadata) addParams(data map[string]any) {
	if m.KeyUse != "" {
		data[ParamUse] = m.KeyUse
	}
	if len(m.KeyOperations) > 0 {
		data[ParamKeyOps] = m.KeyOperations
	}
	if m.KeyAlgorithm != "" {
		data[ParamAlg] = m.KeyAlgorithm
	}
	if m.KeyID != "" {
		data[ParamKID] = m.KeyID
	}
	if len(m.X509CertChain) > 0 {
		data[ParamX5C] = m.X509CertChain
	}
	if m.X509CertSHA1Thumbprint != "" {
		data[ParamX5T] = m.X509CertSHA1Thumbprint
	}
	if m.X509CertSHA256Thumbprint != "" {
		data[ParamX5TS256] = m.X509CertSHA256Thumbprint
	}
	for _, p := range m.OtherParams {
		data[p.Name] = p.Value
	}
}

// OtherParam is a single JWK member a concrete key type does not model
// natively.
type OtherParam struct {
	Name  string
	Value json.RawMessage
}

// OtherParams is an ordered set of OtherParam, in first-seen order.
type OtherParams []OtherParam

// commonJWKMembers names the JWK members every key type shares (RFC
// 7517 section 4 and 4.6-4.8): the base set excluded from OtherParams
// regardless of key type.
var commonJWKMembers = []string{
	"kty", "use", "key_ops", "alg", "kid", "x5c", "x5t", "x5t#S256",
}

// knownMembers returns commonJWKMembers plus typeSpecific as a set, for
// passing to decodeOtherParams.
func knownMembers(typeSpecific ...string) map[string]bool {
	known := make(map[string]bool, len(commonJWKMembers)+len(typeSpecific))
	for _, n := range commonJWKMembers {
		known[n] = true
	}
	for _, n := range typeSpecific {
		known[n] = true
	}
	return known
}

// decodeOtherParams returns, in first-seen order, every member of the
// JSON object raw whose name is not in known.
func decodeOtherParams(raw []byte, known map[string]bool) (OtherParams, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("jwk: JSON value is not an object")
	}

	var other OtherParams
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("jwk: non-string object key")
		}

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		if !known[name] {
			other = append(other, OtherParam{Name: name, Value: val})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return other, nil
}

// marshalJWK serializes known (a key type's wire struct) and merges in
// other's members under any name known does not already carry, so
// members preserved by decodeOtherParams round-trip back out.
func marshalJWK(known any, other OtherParams) ([]byte, error) {
	kb, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(other) == 0 {
		return kb, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(kb, &m); err != nil {
		return nil, err
	}
	for _, p := range other {
		if _, exists := m[p.Name]; !exists {
			m[p.Name] = p.Value
		}
	}
	return json.Marshal(m)
}

// ErrUnknownKeyType is returned by FromJSON when "kty" names a type not
// among {RSA, EC, OKP, oct}.
var ErrUnknownKeyType = fmt.Errorf("unsupported kty")

// FromJSON dispatches on "kty" to the matching constructor and returns
// the parsed Key. An unrecognized kty fails with ErrUnknownKeyType.
// Presence of "d" distinguishes a private key from its public-only
// counterpart for RSA, EC and OKP.
func FromJSON(data []byte) (Key, error) {
	var probe struct {
		Type KeyType `json:"kty"`
		D    *string `json:"d"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("jwk: invalid JSON: %w", err)
	}

	switch probe.Type {
	case KeyTypeRSA:
		if probe.D != nil {
			var k RSAPrivateKey
			if err := json.Unmarshal(data, &k); err != nil {
				return nil, err
			}
			return &k, nil
		}
		var k RSAPublicKey
		if err := json.Unmarshal(data, &k); err != nil {
			return nil, err
		}
		return &k, nil

	case KeyTypeEC:
		if probe.D != nil {
			var k ECPrivateKey
			if err := json.Unmarshal(data, &k); err != nil {
				return nil, err
			}
			return &k, nil
		}
		var k ECPublicKey
		if err := json.Unmarshal(data, &k); err != nil {
			return nil, err
		}
		return &k, nil

	case KeyTypeOKP:
		if probe.D != nil {
			var k OKPPrivateKey
			if err := json.Unmarshal(data, &k); err != nil {
				return nil, err
			}
			return &k, nil
		}
		var k OKPPublicKey
		if err := json.Unmarshal(data, &k); err != nil {
			return nil, err
		}
		return &k, nil

	case KeyTypeOct:
		var k OctetKey
		if err := json.Unmarshal(data, &k); err != nil {
			return nil, err
		}
		return &k, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyType, probe.Type)
	}
}

// ToJSON marshals k at the given emission level.
func ToJSON(k Key, level Level) ([]byte, error) {
	data := map[string]any{ParamKeyType: string(k.Type())}
	k.toParams(data, level)
	return json.Marshal(data)
}

// kv is a single ordered member of a thumbprint's canonical JSON object.
type kv struct {
	name  string
	value string
}

// canonicalJSON serializes members (already given in the lexicographic
// order RFC 7638 section 3 requires) as a single compact JSON object
// with string values, with no whitespace.
func canonicalJSON(members []kv) ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, m := range members {
		if i > 0 {
			buf = append(buf, ',')
		}
		nameJSON, err := json.Marshal(m.name)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, nameJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// leftPad returns b left-padded with zero bytes to exactly size octets.
// Used for RSA moduli and EC coordinates, whose encoded length is fixed
// by the modulus/curve: leading zero bytes that math/big.Int.Bytes()
// strips must be restored before encoding.
func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
