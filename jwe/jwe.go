// Package jwe implements JSON Web Encryption as defined in RFC 7516
// (https://datatracker.ietf.org/doc/html/rfc7516), in compact
// serialization form only. Like jws, all cryptographic primitives are
// dispatched through package jwa's registries; jwe itself holds only
// the five-part compact object and the encrypt/decrypt orchestration
// (key management -> CEK validation -> optional compression ->
// content encryption, and its mirror on decrypt).
package jwe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwa"
)

var (
	// ErrInvalidCompactJWE is returned when a string is not a valid
	// five-part compact JWE.
	ErrInvalidCompactJWE = errors.New("jwe: invalid compact JWE")

	// ErrDecompressionTooLarge is returned when decompressing a
	// "zip"-compressed plaintext fails: when it would exceed jwa's
	// default DEFLATE output ceiling, or when the DEFLATE data is invalid.
	ErrDecompressionTooLarge = errors.New("jwe: decompressed plaintext exceeds size ceiling")

	// ErrUnrecognizedCritical mirrors jws.ErrUnrecognizedCritical for
	// the JWE "crit" header.
	ErrUnrecognizedCritical = errors.New("jwe: unrecognized critical header parameter")
)

// JWE implements a JSON Web Encryption datastructure in compact form.
// Once created, a JWE is immutable; it is only produced by Encrypt or ParseCompact.
type JWE struct {
	header       *header.Header
	encryptedKey []byte
	iv           []byte
	ciphertext   []byte
	tag          []byte
}

// Header returns j's protected header.
func (j *JWE) Header() *header.Header { return j.header }

// Compact serializes j as the five dot-separated base64url segments of
// RFC 7516 section 7.1.
func (j *JWE) Compact() (string, error) {
	headerEncoded, err := j.header.Encoded()
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		headerEncoded,
		encoding.Encode(j.encryptedKey),
		encoding.Encode(j.iv),
		encoding.Encode(j.ciphertext),
		encoding.Encode(j.tag),
	}, "."), nil
}

// ParseCompact parses compact into a JWE. Only syntactic validation is
// performed (part count, base64url decoding, header JSON, and RFC 7516
// section 7.1's requirement that the IV and ciphertext segments be
// non-empty); no key management or content decryption happens here.
func ParseCompact(compact string) (*JWE, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 parts, got %d", ErrInvalidCompactJWE, len(parts))
	}

	h, err := header.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWE, err)
	}

	var encryptedKey []byte
	if parts[1] != "" {
		encryptedKey, err = encoding.Decode(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWE, err)
		}
	}

	if parts[2] == "" || parts[3] == "" {
		return nil, fmt.Errorf("%w: iv and ciphertext segments must not be empty", ErrInvalidCompactJWE)
	}

	iv, err := encoding.Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWE, err)
	}
	ciphertext, err := encoding.Decode(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWE, err)
	}

	var tag []byte
	if parts[4] != "" {
		tag, err = encoding.Decode(parts[4])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCompactJWE, err)
		}
	}

	return &JWE{
		header:       h,
		encryptedKey: encryptedKey,
		iv:           iv,
		ciphertext:   ciphertext,
		tag:          tag,
	}, nil
}

// EncryptOptions carries the non-default inputs to Encrypt: overrides
// useful for deterministic test vectors, and a PBES2 iteration ceiling
// that is passed through to key management. PBES2 wrapping always uses
// jwa's default iteration count and does not check it against that
// ceiling; only decryption enforces one.
type EncryptOptions struct {
	// CEK, if non-nil, is used instead of a freshly generated one. Only
	// meaningful for key-wrap algorithms; "dir" and ECDH-ES direct mode
	// reject a non-nil override since they have no CEK to override.
	CEK []byte
	// IV, if non-nil, is used instead of a freshly generated one. Lets a
	// caller reproduce a deterministic test vector; a real caller should
	// leave this nil and let the content-encryption algorithm draw one.
	IV []byte
	// MaxPBES2Iterations is copied into the key-management context; PBES2
	// wrapping does not consult it.
	MaxPBES2Iterations int
}

// Encrypt builds a JWE over plaintext. h carries any caller-set
// parameters (additional headers, "zip", "apu"/"apv" for ECDH-ES); the
// "alg" and "enc" parameters are set by Encrypt itself. managementKey
// is the key-management algorithm's input (a jwk.Key for every
// algorithm except PBES2, which takes a jwk.Password).
//
// The sequencing follows RFC 7516 section 5.1: resolve and constrain
// both algorithms, wrap the CEK, validate its length, optionally
// DEFLATE the plaintext, then encrypt with AAD set to the ASCII bytes
// of the encoded protected header.
func Encrypt(
	h *header.Header,
	plaintext []byte,
	keyManagementAlg, contentEncAlg string,
	managementKey any,
	keyConstraints, contentConstraints jwa.AlgorithmConstraints,
	opts *EncryptOptions,
) (*JWE, error) {
	if opts == nil {
		opts = &EncryptOptions{}
	}

	kmAlg, err := jwa.LookupKeyManagementAlgorithm(keyManagementAlg, keyConstraints)
	if err != nil {
		return nil, err
	}
	ceAlg, err := jwa.LookupContentEncryptionAlgorithm(contentEncAlg, contentConstraints)
	if err != nil {
		return nil, err
	}

	if h == nil {
		h = header.New()
	}
	h.Set(header.Algorithm, keyManagementAlg)
	h.Set(header.Encryption, contentEncAlg)

	ctx := jwa.KeyManagementContext{
		Key:                managementKey,
		Header:             h,
		ContentEncAlg:      contentEncAlg,
		CEKOverride:        opts.CEK,
		MaxPBES2Iterations: opts.MaxPBES2Iterations,
	}

	cek, encryptedKey, err := kmAlg.WrapKey(ctx, ceAlg.CEKSize())
	if err != nil {
		return nil, err
	}
	defer encoding.Zero(cek)

	if len(cek) != ceAlg.CEKSize() {
		return nil, fmt.Errorf("jwe: key management produced a %d-byte CEK, %s requires %d", len(cek), contentEncAlg, ceAlg.CEKSize())
	}

	body := plaintext
	if zip, ok := h.GetString(header.Compression); ok {
		compressor, err := jwa.LookupCompressionAlgorithm(zip)
		if err != nil {
			return nil, err
		}
		body, err = compressor.Compress(plaintext)
		if err != nil {
			return nil, err
		}
	}

	aad, err := h.EncodedBytes()
	if err != nil {
		return nil, err
	}

	iv, ciphertext, tag, err := ceAlg.Encrypt(cek, aad, opts.IV, body)
	if err != nil {
		return nil, err
	}

	return &JWE{
		header:       h,
		encryptedKey: encryptedKey,
		iv:           iv,
		ciphertext:   ciphertext,
		tag:          tag,
	}, nil
}

// Decrypt recovers and returns j's plaintext. It resolves and
// constrains both the key-management and content-encryption
// algorithms named in j's header, unwraps the CEK, validates its
// length, decrypts and verifies the tag, and only afterwards
// decompresses if "zip" was set — tag verification happens strictly
// before any plaintext (compressed or not) is produced, matching RFC
// 7516 section 5.2's required sequencing.
func (j *JWE) Decrypt(
	managementKey any,
	keyConstraints, contentConstraints jwa.AlgorithmConstraints,
	maxPBES2Iterations int,
	knownCritical ...string,
) ([]byte, error) {
	if err := checkCritical(j.header, knownCritical); err != nil {
		return nil, err
	}

	alg, ok := j.header.GetString(header.Algorithm)
	if !ok {
		return nil, fmt.Errorf("jwe: missing \"alg\" header")
	}
	enc, ok := j.header.GetString(header.Encryption)
	if !ok {
		return nil, fmt.Errorf("jwe: missing \"enc\" header")
	}

	kmAlg, err := jwa.LookupKeyManagementAlgorithm(alg, keyConstraints)
	if err != nil {
		return nil, err
	}
	ceAlg, err := jwa.LookupContentEncryptionAlgorithm(enc, contentConstraints)
	if err != nil {
		return nil, err
	}

	ctx := jwa.KeyManagementContext{
		Key:                managementKey,
		Header:             j.header,
		ContentEncAlg:      enc,
		MaxPBES2Iterations: maxPBES2Iterations,
	}

	cek, err := kmAlg.UnwrapKey(ctx, j.encryptedKey, ceAlg.CEKSize())
	if err != nil {
		return nil, err
	}
	defer encoding.Zero(cek)

	if len(cek) != ceAlg.CEKSize() {
		return nil, fmt.Errorf("jwe: unwrapped CEK has length %d, %s requires %d", len(cek), enc, ceAlg.CEKSize())
	}

	aad, err := j.header.EncodedBytes()
	if err != nil {
		return nil, err
	}

	body, err := ceAlg.Decrypt(cek, aad, j.iv, j.ciphertext, j.tag)
	if err != nil {
		return nil, err
	}

	if zip, ok := j.header.GetString(header.Compression); ok {
		compressor, err := jwa.LookupCompressionAlgorithm(zip)
		if err != nil {
			return nil, err
		}
		plaintext, err := compressor.Decompress(body, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDecompressionTooLarge, err)
		}
		return plaintext, nil
	}

	return body, nil
}

// checkCritical mirrors jws's critical-header gate for the JWE header.
func checkCritical(h *header.Header, known []string) error {
	crit, ok := h.GetStringSlice(header.Critical)
	if !ok {
		return nil
	}

	recognized := make(map[string]bool, len(known))
	for _, k := range known {
		recognized[k] = true
	}

	for _, name := range crit {
		if !recognized[name] {
			return fmt.Errorf("%w: %q", ErrUnrecognizedCritical, name)
		}
	}
	return nil
}
