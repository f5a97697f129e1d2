package jwk

import (
	"encoding/json"
	"fmt"

	"github.com/jose4go/jose/internal/encoding"
)

// OctetKey implements a symmetric secret of "kty": "oct"
// (RFC 7517 appendix A.3). Its bytes serve directly as key material for
// HMAC signing, AES key-wrap and AES content encryption depending on
// length and the algorithm selecting it.
type OctetKey struct {
	Metadata
	Bytes []byte
}

func (k *OctetKey) Type() KeyType   { return KeyTypeOct }
func (k *OctetKey) IsPrivate() bool { return true }

func (k *OctetKey) toParams(data map[string]any, level Level) {
	k.Metadata.addParams(data)
	if level >= IncludeSymmetric {
		data["k"] = encoding.Encode(k.Bytes)
	}
}

func (k *OctetKey) thumbprintJSON() ([]byte, error) {
	return canonicalJSON([]kv{
		{"k", encoding.Encode(k.Bytes)},
		{"kty", string(KeyTypeOct)},
	})
}

type octetKeyJSON struct {
	Type    KeyType  `json:"kty"`
	Use     KeyUse   `json:"use,omitempty"`
	Ops     []KeyOp  `json:"key_ops,omitempty"`
	Alg     string   `json:"alg,omitempty"`
	Kid     string   `json:"kid,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
	X5T     string   `json:"x5t,omitempty"`
	X5TS256 string   `json:"x5t#S256,omitempty"`
	K       string   `json:"k"`
}

func (k *OctetKey) MarshalJSON() ([]byte, error) {
	w := octetKeyJSON{
		Type:    KeyTypeOct,
		Use:     k.KeyUse,
		Ops:     k.KeyOperations,
		Alg:     k.KeyAlgorithm,
		Kid:     k.KeyID,
		X5C:     k.X509CertChain,
		X5T:     k.X509CertSHA1Thumbprint,
		X5TS256: k.X509CertSHA256Thumbprint,
		K:       encoding.Encode(k.Bytes),
	}
	return marshalJWK(w, k.OtherParams)
}

func (k *OctetKey) UnmarshalJSON(data []byte) error {
	var w octetKeyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != KeyTypeOct {
		return fmt.Errorf("jwk: invalid key type for oct key: %s", w.Type)
	}

	b, err := encoding.Decode(w.K)
	if err != nil {
		return fmt.Errorf("jwk: invalid k value: %w", err)
	}

	other, err := decodeOtherParams(data, knownMembers("k"))
	if err != nil {
		return fmt.Errorf("jwk: invalid oct key: %w", err)
	}

	k.Metadata = Metadata{
		KeyUse: w.Use, KeyOperations: w.Ops, KeyAlgorithm: w.Alg, KeyID: w.Kid,
		X509CertChain: w.X5C, X509CertSHA1Thumbprint: w.X5T, X509CertSHA256Thumbprint: w.X5TS256,
		OtherParams: other,
	}
	k.Bytes = b
	return nil
}
