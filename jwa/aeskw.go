package jwa

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// aesKWDefaultIV is the default integrity check register from RFC 3394
// section 2.2.3.1. No ecosystem or pack library implements key wrap, so
// this is hand-written directly against the RFC text (documented
// stdlib-only exception).
var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// aesKWWrap wraps plaintext key material (a multiple of 8 bytes, at
// least 16) under kek using the RFC 3394 key wrap algorithm.
func aesKWWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, fmt.Errorf("jwa: key wrap input must be a multiple of 8 bytes, at least 16")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], plaintext[i*8:(i+1)*8])
	}

	var a [8]byte
	copy(a[:], aesKWDefaultIV[:])

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)
			for k := range a {
				a[k] = buf[k] ^ tBytes[k]
			}
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(plaintext))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:], r[i][:])
	}
	return out, nil
}

// aesKWUnwrap reverses aesKWWrap. It returns an error if the integrity
// check register does not match the expected default IV.
func aesKWUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, fmt.Errorf("jwa: key unwrap input must be a multiple of 8 bytes, at least 24")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])

	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)
			var aXorT [8]byte
			for k := range a {
				aXorT[k] = a[k] ^ tBytes[k]
			}

			copy(buf[:8], aXorT[:])
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], aesKWDefaultIV[:]) != 1 {
		return nil, fmt.Errorf("jwa: key unwrap integrity check failed")
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:], r[i][:])
	}
	return out, nil
}
