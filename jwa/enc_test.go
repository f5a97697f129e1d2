package jwa

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func mustRandom(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCBCHMACEncryptDecrypt(t *testing.T) {
	alg, err := LookupContentEncryptionAlgorithm(EncA128CBC_HS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	cek := mustRandom(t, alg.CEKSize())
	aad := []byte("the aad")
	plaintext := []byte("a reasonably sized plaintext payload, longer than one block")

	iv, ciphertext, tag, err := alg.Encrypt(cek, aad, nil, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	got, err := alg.Decrypt(cek, aad, iv, ciphertext, tag)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("decrypted = %q, want %q", got, plaintext)
	}
}

func TestCBCHMACRejectsTamperedTag(t *testing.T) {
	alg, err := LookupContentEncryptionAlgorithm(EncA128CBC_HS256, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	cek := mustRandom(t, alg.CEKSize())
	aad := []byte("aad")
	iv, ciphertext, tag, err := alg.Encrypt(cek, aad, nil, []byte("hello world hello world"))
	if err != nil {
		t.Fatal(err)
	}
	tag[0] ^= 0xff
	if _, err := alg.Decrypt(cek, aad, iv, ciphertext, tag); err == nil {
		t.Error("expected tampered tag to fail")
	}
}

func TestCBCHMACRejectsTamperedCiphertext(t *testing.T) {
	alg, err := LookupContentEncryptionAlgorithm(EncA256CBC_HS512, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	cek := mustRandom(t, alg.CEKSize())
	aad := []byte("aad")
	iv, ciphertext, tag, err := alg.Encrypt(cek, aad, nil, []byte("hello world hello world"))
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[0] ^= 0xff
	_, err = alg.Decrypt(cek, aad, iv, ciphertext, tag)
	if err == nil {
		t.Fatal("expected tampered ciphertext to fail")
	}
	if err.Error() != "jwa: content integrity check failed" {
		t.Errorf("expected generic integrity error, got %q (padding oracle leak)", err.Error())
	}
}

func TestGCMEncryptDecrypt(t *testing.T) {
	alg, err := LookupContentEncryptionAlgorithm(EncA256GCM, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	cek := mustRandom(t, alg.CEKSize())
	aad := []byte("the aad")
	plaintext := []byte("gcm plaintext")

	iv, ciphertext, tag, err := alg.Encrypt(cek, aad, nil, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	got, err := alg.Decrypt(cek, aad, iv, ciphertext, tag)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("decrypted = %q, want %q", got, plaintext)
	}
}

func TestGCMRejectsTamperedTag(t *testing.T) {
	alg, err := LookupContentEncryptionAlgorithm(EncA128GCM, NoConstraints)
	if err != nil {
		t.Fatal(err)
	}
	cek := mustRandom(t, alg.CEKSize())
	iv, ciphertext, tag, err := alg.Encrypt(cek, []byte("aad"), nil, []byte("plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	tag[0] ^= 0xff
	if _, err := alg.Decrypt(cek, []byte("aad"), iv, ciphertext, tag); err == nil {
		t.Error("expected tampered GCM tag to fail")
	}
}
