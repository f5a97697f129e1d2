// Package encoding defines functions to encode and decode binary data
// in base64url format as specified in RFC 7515 section 2
// (https://datatracker.ietf.org/doc/html/rfc7515#section-2).
//
// Encoding always emits the unpadded form. Decoding is lenient: it
// accepts input with or without the '=' padding character, since
// several widely deployed producers emit padded base64url despite the
// RFC requiring the unpadded form on the wire.
package encoding

import "encoding/base64"

var (
	enc       = base64.URLEncoding.WithPadding(base64.NoPadding)
	paddedEnc = base64.URLEncoding
)

// Encode encodes data using base64url encoding with no padding.
func Encode(data []byte) string {
	return enc.EncodeToString(data)
}

// Decode decodes a base64url encoded string, accepting both padded and
// unpadded input. It fails with an error wrapping the underlying
// base64 error on any character outside the base64url alphabet.
func Decode(data string) ([]byte, error) {
	if n := len(data) % 4; n != 0 {
		return enc.DecodeString(data)
	}
	if b, err := enc.DecodeString(data); err == nil {
		return b, nil
	}
	return paddedEnc.DecodeString(data)
}

// Zero overwrites data with zero bytes. It is used to scrub CEKs,
// derived keys, and intermediate plaintexts after use.
func Zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
