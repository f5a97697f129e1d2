// Package header implements the JOSE header container shared by JWS
// and JWE (RFC 7515 section 4, RFC 7516 section 4): an ordered mapping
// from parameter name to value, together with the byte-exact encoded
// form required for AAD and signing-input computation.
//
// A Header built fresh by a caller derives its encoded form once, on
// first call to Encoded, and caches it: all further reads return the
// same bytes. A Header parsed from a compact segment via Parse instead
// retains the original segment verbatim as its encoded form — it is
// never re-serialized, so a ciphertext's AAD or a signature's signing
// input always matches what was actually transmitted, even if re-
// marshaling the parsed map would not byte-for-byte reproduce it.
package header

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jose4go/jose/internal/encoding"
)

// Well-known parameter names (RFC 7515/7516 section 4, RFC 7518).
const (
	Algorithm        = "alg"
	Encryption       = "enc"
	Compression      = "zip"
	JWKSetURL        = "jku"
	JWK              = "jwk"
	KeyID            = "kid"
	X509URL          = "x5u"
	X509CertChain    = "x5c"
	X509Thumbprint   = "x5t"
	X509ThumbprintS2 = "x5t#S256"
	Type             = "typ"
	ContentType      = "cty"
	Critical         = "crit"
	EphemeralKey     = "epk"
	PartyUInfo       = "apu"
	PartyVInfo       = "apv"
	IV               = "iv"
	Tag              = "tag"
	SaltInput        = "p2s"
	SaltCount        = "p2c"
)

// Header is an ordered mapping of JOSE header parameter names to
// values. The zero value is not usable; construct one with New or Parse.
type Header struct {
	keys   []string
	values map[string]any

	encoded    string
	hasEncoded bool
}

// New returns an empty, freshly constructed Header.
func New() *Header {
	return &Header{values: make(map[string]any)}
}

// Parse decodes encoded (a base64url compact-serialization segment) as
// UTF-8 JSON and returns a Header whose map reflects the JSON object
// and whose encoded form is permanently fixed to the input string.
func Parse(encoded string) (*Header, error) {
	raw, err := encoding.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed header encoding: %w", err)
	}

	keys, values, err := decodeOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed header JSON: %w", err)
	}

	return &Header{
		keys:       keys,
		values:     values,
		encoded:    encoded,
		hasEncoded: true,
	}, nil
}

// Clone returns a deep-enough copy of h: a caller may mutate the clone's
// parameters without affecting h. If h already has a cached/ingested
// encoded form it is NOT copied — the clone is treated as freshly built
// and will derive its own encoded form on first use, since mutating a
// clone implies its JSON will differ from the original's bytes.
func (h *Header) Clone() *Header {
	c := New()
	for _, k := range h.keys {
		c.Set(k, h.values[k])
	}
	return c
}

// Set stores name=value, preserving first-seen insertion order. It
// returns h for chaining. Set panics if h's encoded form has already
// been fixed (via Parse or a prior call to Encoded) — headers are
// single-threaded, build-then-serialize-once values.
func (h *Header) Set(name string, value any) *Header {
	if h.hasEncoded {
		panic("header: Set after encoded form was fixed")
	}
	if _, ok := h.values[name]; !ok {
		h.keys = append(h.keys, name)
	}
	h.values[name] = value
	return h
}

// Del removes name from h. Like Set, it panics once the encoded form is fixed.
func (h *Header) Del(name string) {
	if h.hasEncoded {
		panic("header: Del after encoded form was fixed")
	}
	if _, ok := h.values[name]; !ok {
		return
	}
	delete(h.values, name)
	for i, k := range h.keys {
		if k == name {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether name is present in h.
func (h *Header) Has(name string) bool {
	_, ok := h.values[name]
	return ok
}

// Keys returns h's parameter names in insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Raw returns the raw value stored for name, or nil, false if absent.
func (h *Header) Raw(name string) (any, bool) {
	v, ok := h.values[name]
	return v, ok
}

// GetString returns name's value as a string.
func (h *Header) GetString(name string) (string, bool) {
	v, ok := h.values[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetBool returns name's value as a bool.
func (h *Header) GetBool(name string) (bool, bool) {
	v, ok := h.values[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetInt64 returns name's value as an int64, accepting json.Number,
// float64 (the decoder's default numeric representation) or int64.
func (h *Header) GetInt64(name string) (int64, bool) {
	v, ok := h.values[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// GetStringSlice returns name's value as a []string. A bare string is
// returned as a single-element slice (used for "aud"-shaped values and
// for "crit", which is always an array per RFC but some producers err).
func (h *Header) GetStringSlice(name string) ([]string, bool) {
	v, ok := h.values[name]
	if !ok {
		return nil, false
	}
	switch val := v.(type) {
	case string:
		return []string{val}, true
	case []string:
		return val, true
	case []any:
		out := make([]string, len(val))
		for i, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// GetObject unmarshals name's value into out (a pointer), round-tripping
// through JSON. Used for structured parameters such as "epk".
func (h *Header) GetObject(name string, out any) error {
	v, ok := h.values[name]
	if !ok {
		return fmt.Errorf("header: no such parameter %q", name)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Encoded returns h's base64url-encoded form. For a Header obtained via
// Parse this is always the original segment, byte for byte. For a
// freshly built Header this is computed once, on first call, in a
// single deterministic pass over h's parameters in insertion order, and
// cached; h becomes immutable to further Set/Del calls from that point on.
func (h *Header) Encoded() (string, error) {
	if h.hasEncoded {
		return h.encoded, nil
	}

	raw, err := encodeOrdered(h.keys, h.values)
	if err != nil {
		return "", err
	}

	h.encoded = encoding.Encode(raw)
	h.hasEncoded = true
	return h.encoded, nil
}

// EncodedBytes is a convenience wrapper returning the ASCII bytes of Encoded.
func (h *Header) EncodedBytes() ([]byte, error) {
	s, err := h.Encoded()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// decodeOrdered parses raw JSON object bytes into an ordered key slice
// and a value map, using json.Decoder token-by-token so insertion order
// of the source document is preserved.
func decodeOrdered(raw []byte) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("header: JSON value is not an object")
	}

	var keys []string
	values := make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("header: non-string object key")
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = normalizeNumbers(val)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return keys, values, nil
}

// normalizeNumbers converts json.Number leaves into int64 (if exact) or
// float64, and recurses into arrays/objects, so GetInt64/GetStringSlice
// see plain Go types regardless of how a value was nested.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}

// encodeOrdered serializes values in the order given by keys into a
// single compact JSON object.
func encodeOrdered(keys []string, values map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := json.Marshal(values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
