package jwa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwk"
)

const (
	pbes2MinSaltLen       = 8
	pbes2GeneratedSaltLen = 12
	pbes2MinIterations    = 1000
	pbes2DefaultIterations = 65536
	pbes2DefaultMaxIterations = 2_500_000
)

// pbes2Algorithm implements PBES2-HSxxx+AnnnKW (RFC 7518 section 4.8):
// a PBKDF2-derived wrap-key, then ordinary AES-KW of the CEK.
type pbes2Algorithm struct {
	name     string
	newHash  func() hash.Hash
	kekSize  int
}

func init() {
	registerKeyManagementAlgorithm(pbes2Algorithm{AlgPBES2_HS256_A128KW, sha256.New, 16})
	registerKeyManagementAlgorithm(pbes2Algorithm{AlgPBES2_HS384_A192KW, sha512.New384, 24})
	registerKeyManagementAlgorithm(pbes2Algorithm{AlgPBES2_HS512_A256KW, sha512.New, 32})
}

func (a pbes2Algorithm) Name() string    { return a.name }
func (a pbes2Algorithm) Available() bool { return true }

func (a pbes2Algorithm) password(ctx KeyManagementContext) (jwk.Password, error) {
	p, ok := ctx.Key.(jwk.Password)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires a Password key, got %T", ErrInvalidKey, a.name, ctx.Key)
	}
	return p, nil
}

// saltInput builds PBKDF2's salt per RFC 7518 section 4.8.1.1: the
// ASCII alg identifier, a NUL byte, then the raw p2s octets.
func (a pbes2Algorithm) saltInput(p2s []byte) []byte {
	out := make([]byte, 0, len(a.name)+1+len(p2s))
	out = append(out, []byte(a.name)...)
	out = append(out, 0x00)
	out = append(out, p2s...)
	return out
}

func (a pbes2Algorithm) deriveKEK(password []byte, p2s []byte, p2c int) []byte {
	return pbkdf2.Key(password, a.saltInput(p2s), p2c, a.kekSize, a.newHash)
}

func (a pbes2Algorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	password, err := a.password(ctx)
	if err != nil {
		return nil, nil, err
	}
	if ctx.Header == nil {
		return nil, nil, fmt.Errorf("jwa: %s requires a header to carry p2s/p2c", a.name)
	}

	p2s := make([]byte, pbes2GeneratedSaltLen)
	if _, err := rand.Read(p2s); err != nil {
		return nil, nil, err
	}
	p2c := pbes2DefaultIterations

	kek := a.deriveKEK(password, p2s, p2c)

	cek := ctx.CEKOverride
	if cek == nil {
		cek = make([]byte, cekSize)
		if _, err := rand.Read(cek); err != nil {
			return nil, nil, err
		}
	}

	wrapped, err := aesKWWrap(kek, cek)
	if err != nil {
		return nil, nil, err
	}

	ctx.Header.Set(header.SaltInput, encoding.Encode(p2s))
	ctx.Header.Set(header.SaltCount, int64(p2c))

	return cek, wrapped, nil
}

func (a pbes2Algorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	password, err := a.password(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Header == nil {
		return nil, fmt.Errorf("jwa: %s requires a header carrying p2s/p2c", a.name)
	}

	p2sStr, ok := ctx.Header.GetString(header.SaltInput)
	if !ok {
		return nil, fmt.Errorf("jwa: %s requires a \"p2s\" header", a.name)
	}
	p2s, err := encoding.Decode(p2sStr)
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid p2s header: %w", err)
	}
	if len(p2s) < pbes2MinSaltLen {
		return nil, fmt.Errorf("jwa: p2s shorter than %d bytes", pbes2MinSaltLen)
	}

	p2c64, ok := ctx.Header.GetInt64(header.SaltCount)
	if !ok {
		return nil, fmt.Errorf("jwa: %s requires a \"p2c\" header", a.name)
	}
	p2c := int(p2c64)
	if p2c < pbes2MinIterations {
		return nil, fmt.Errorf("jwa: p2c below minimum iteration count %d", pbes2MinIterations)
	}
	maxIter := ctx.MaxPBES2Iterations
	if maxIter <= 0 {
		maxIter = pbes2DefaultMaxIterations
	}
	if p2c > maxIter {
		return nil, fmt.Errorf("jwa: p2c %d exceeds configured ceiling %d", p2c, maxIter)
	}

	kek := a.deriveKEK(password, p2s, p2c)
	cek, err := aesKWUnwrap(kek, encryptedKey)
	if err != nil {
		return nil, err
	}
	if len(cek) != cekSize {
		return nil, fmt.Errorf("jwa: unwrapped CEK has unexpected length %d, want %d", len(cek), cekSize)
	}
	return cek, nil
}
