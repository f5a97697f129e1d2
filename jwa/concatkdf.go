package jwa

import (
	"crypto/sha256"
	"encoding/binary"
)

// lengthPrefixed returns Datalen(v) || v, the RFC 7518 section 4.6
// encoding of a variable-length OtherInfo field.
func lengthPrefixed(v []byte) []byte {
	out := make([]byte, 4+len(v))
	binary.BigEndian.PutUint32(out, uint32(len(v)))
	copy(out[4:], v)
	return out
}

// concatKDFOtherInfo assembles OtherInfo = AlgorithmID || PartyUInfo ||
// PartyVInfo || SuppPubInfo, per RFC 7518 section 4.6.2. algorithmID is
// the UTF-8 "enc" value (direct mode) or "alg" value (wrap mode);
// keyDataLenBits is the length, in bits, of the CEK or KEK being derived.
func concatKDFOtherInfo(algorithmID string, apu, apv []byte, keyDataLenBits int) []byte {
	var out []byte
	out = append(out, lengthPrefixed([]byte(algorithmID))...)
	out = append(out, lengthPrefixed(apu)...)
	out = append(out, lengthPrefixed(apv)...)

	suppPub := make([]byte, 4)
	binary.BigEndian.PutUint32(suppPub, uint32(keyDataLenBits))
	out = append(out, suppPub...)

	return out
}

// concatKDF implements the Concat KDF of NIST SP 800-56A section 5.8.1
// with SHA-256, as RFC 7518 section 4.6 mandates regardless of the
// content-encryption or key-wrap algorithm's own hash. No ecosystem
// library implements this single-step KDF, so it is hand-written
// directly against the RFC text.
func concatKDF(z []byte, keyDataLenBits int, otherInfo []byte) []byte {
	const hashLen = sha256.Size
	keyDataLen := keyDataLenBits / 8
	reps := (keyDataLen + hashLen - 1) / hashLen

	out := make([]byte, 0, reps*hashLen)
	for counter := uint32(1); counter <= uint32(reps); counter++ {
		h := sha256.New()
		var counterBytes [4]byte
		binary.BigEndian.PutUint32(counterBytes[:], counter)
		h.Write(counterBytes[:])
		h.Write(z)
		h.Write(otherInfo)
		out = append(out, h.Sum(nil)...)
	}

	return out[:keyDataLen]
}
