package jwk

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/jose4go/jose/internal/encoding"
)

// Thumbprint computes k's JWK Thumbprint (RFC 7638): the given hash
// applied to k's canonical JSON representation, containing exactly the
// REQUIRED members for k's key type in lexicographic order.
func Thumbprint(k Key, newHash func() hash.Hash) ([]byte, error) {
	data, err := k.thumbprintJSON()
	if err != nil {
		return nil, fmt.Errorf("jwk: failed to compute thumbprint input: %w", err)
	}
	h := newHash()
	h.Write(data)
	return h.Sum(nil), nil
}

// ThumbprintSHA256 is Thumbprint with SHA-256, the hash most deployed
// profiles require.
func ThumbprintSHA256(k Key) ([]byte, error) {
	return Thumbprint(k, sha256.New)
}

// ThumbprintURI returns k's SHA-256 thumbprint as a
// urn:ietf:params:oauth:jwk-thumbprint URI (RFC 9278).
func ThumbprintURI(k Key) (string, error) {
	sum, err := ThumbprintSHA256(k)
	if err != nil {
		return "", err
	}
	return "urn:ietf:params:oauth:jwk-thumbprint:sha-256:" + encoding.Encode(sum), nil
}
