package jwa

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/jose4go/jose/header"
	"github.com/jose4go/jose/internal/encoding"
	"github.com/jose4go/jose/jwk"
)

// ecdhCoordSize returns the fixed encoded coordinate width, in octets,
// for one of the three curves jwk's "EC" keys support.
func ecdhCoordSize(curve elliptic.Curve) int {
	switch curve {
	case elliptic.P256():
		return 32
	case elliptic.P384():
		return 48
	case elliptic.P521():
		return 66
	default:
		return 0
	}
}

// ecdhKWKeySize maps an ECDH-ES+AxxxKW identifier to the AES key-wrap
// key size it derives, in bytes.
var ecdhKWKeySize = map[string]int{
	AlgECDH_ES_A128KW: 16,
	AlgECDH_ES_A192KW: 24,
	AlgECDH_ES_A256KW: 32,
}

// ecdhCurveOf converts a crypto/ecdsa curve to its crypto/ecdh
// counterpart. Only the three NIST curves jwk recognizes for "EC" keys
// are reachable here; secp256k1 never parses into a jwk.ECPublicKey in
// the first place; forbiddenECDHCurve below is a second, explicit line
// of defense should that ever change.
func ecdhCurveOf(c elliptic.Curve) (ecdh.Curve, error) {
	switch c {
	case elliptic.P256():
		return ecdh.P256(), nil
	case elliptic.P384():
		return ecdh.P384(), nil
	case elliptic.P521():
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported ECDH curve", ErrInvalidKey)
	}
}

func refuseForbiddenCurve(crv string) error {
	if crv == forbiddenECDHCurve {
		return fmt.Errorf("%w: %s is refused for ECDH-ES", ErrInvalidKey, forbiddenECDHCurve)
	}
	return nil
}

// ecdhESAlgorithm implements ECDH-ES and ECDH-ES+AxxxKW (RFC 7518
// section 4.6): an ephemeral EC key pair is generated on the
// recipient's curve, a shared secret Z is computed, and a CEK (direct
// mode) or a KEK (wrap mode) is derived from Z via Concat KDF.
type ecdhESAlgorithm struct {
	// name is AlgECDH_ES for direct agreement, or one of the
	// ECDH-ES+AxxxKW identifiers for key-wrap mode.
	name string
}

func init() {
	registerKeyManagementAlgorithm(ecdhESAlgorithm{AlgECDH_ES})
	registerKeyManagementAlgorithm(ecdhESAlgorithm{AlgECDH_ES_A128KW})
	registerKeyManagementAlgorithm(ecdhESAlgorithm{AlgECDH_ES_A192KW})
	registerKeyManagementAlgorithm(ecdhESAlgorithm{AlgECDH_ES_A256KW})
}

func (a ecdhESAlgorithm) Name() string    { return a.name }
func (a ecdhESAlgorithm) Available() bool { return true }

func (a ecdhESAlgorithm) isDirect() bool { return a.name == AlgECDH_ES }

// partyInfo reads the optional apu/apv headers, each a base64url
// encoded octet string defaulting to empty (RFC 7518 section 4.6.1.2/.3).
func partyInfo(h *header.Header, name string) ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	s, ok := h.GetString(name)
	if !ok {
		return nil, nil
	}
	return encoding.Decode(s)
}

func writeEPK(h *header.Header, pub *ecdsa.PublicKey) error {
	k := &jwk.ECPublicKey{PublicKey: pub}
	raw, err := jwk.ToJSON(k, jwk.PublicOnly)
	if err != nil {
		return err
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return err
	}
	h.Set(header.EphemeralKey, asMap)
	return nil
}

func readEPK(h *header.Header) (*ecdsa.PublicKey, error) {
	if h == nil {
		return nil, fmt.Errorf("jwa: ECDH-ES requires an \"epk\" header")
	}
	raw, ok := h.Raw(header.EphemeralKey)
	if !ok {
		return nil, fmt.Errorf("jwa: ECDH-ES requires an \"epk\" header")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	// Routing through jwk.FromJSON, rather than unmarshaling directly
	// into an ecdsa.PublicKey, is what performs the on-curve validation
	// RFC 7518 section 4.6.1.3 requires of a received epk.
	key, err := jwk.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid epk: %w", err)
	}
	epk, ok := key.(*jwk.ECPublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: epk must be an EC public key, got %T", ErrInvalidKey, key)
	}
	if err := refuseForbiddenCurve(curveNameOf(epk.PublicKey.Curve)); err != nil {
		return nil, err
	}
	return epk.PublicKey, nil
}

// curveNameOf returns the JWK "crv" name for c, or "" if c is not one
// of the curves jwk recognizes.
func curveNameOf(c elliptic.Curve) string {
	switch c {
	case elliptic.P256():
		return "P-256"
	case elliptic.P384():
		return "P-384"
	case elliptic.P521():
		return "P-521"
	default:
		return ""
	}
}

func (a ecdhESAlgorithm) agreeAsSender(ctx KeyManagementContext) (z []byte, epkPub *ecdsa.PublicKey, err error) {
	recipientPub, err := ecPublicKeyOf(ctx.Key)
	if err != nil {
		return nil, nil, err
	}
	if err := refuseForbiddenCurve(curveNameOf(recipientPub.Curve)); err != nil {
		return nil, nil, err
	}
	curve, err := ecdhCurveOf(recipientPub.Curve)
	if err != nil {
		return nil, nil, err
	}
	recipientECDH, err := recipientPub.ECDH()
	if err != nil {
		return nil, nil, fmt.Errorf("jwa: invalid recipient key: %w", err)
	}

	ephemeral, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	z, err = ephemeral.ECDH(recipientECDH)
	if err != nil {
		return nil, nil, err
	}

	ephemeralECDSA, err := ecdhPublicKeyToECDSA(ephemeral.PublicKey(), recipientPub.Curve)
	if err != nil {
		return nil, nil, err
	}
	return z, ephemeralECDSA, nil
}

func (a ecdhESAlgorithm) agreeAsRecipient(ctx KeyManagementContext) ([]byte, error) {
	priv, err := ecPrivateKeyOf(ctx.Key)
	if err != nil {
		return nil, err
	}
	if err := refuseForbiddenCurve(curveNameOf(priv.Curve)); err != nil {
		return nil, err
	}
	privECDH, err := priv.ECDH()
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid recipient key: %w", err)
	}

	epkPub, err := readEPK(ctx.Header)
	if err != nil {
		return nil, err
	}
	if epkPub.Curve != priv.Curve {
		return nil, fmt.Errorf("%w: epk curve does not match recipient key curve", ErrInvalidKey)
	}
	epkECDH, err := epkPub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("jwa: invalid epk: %w", err)
	}

	return privECDH.ECDH(epkECDH)
}

func (a ecdhESAlgorithm) WrapKey(ctx KeyManagementContext, cekSize int) ([]byte, []byte, error) {
	if ctx.Header == nil {
		return nil, nil, fmt.Errorf("jwa: %s requires a header to carry epk", a.name)
	}

	z, epkPub, err := a.agreeAsSender(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := writeEPK(ctx.Header, epkPub); err != nil {
		return nil, nil, err
	}

	apu, _ := partyInfo(ctx.Header, header.PartyUInfo)
	apv, _ := partyInfo(ctx.Header, header.PartyVInfo)

	if a.isDirect() {
		if ctx.CEKOverride != nil {
			return nil, nil, fmt.Errorf("jwa: %s does not support a CEK override", a.name)
		}
		otherInfo := concatKDFOtherInfo(ctx.ContentEncAlg, apu, apv, cekSize*8)
		cek := concatKDF(z, cekSize*8, otherInfo)
		return cek, nil, nil
	}

	kekSize := ecdhKWKeySize[a.name]
	otherInfo := concatKDFOtherInfo(a.name, apu, apv, kekSize*8)
	kek := concatKDF(z, kekSize*8, otherInfo)

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
	return cek, wrapped, nil
}

func (a ecdhESAlgorithm) UnwrapKey(ctx KeyManagementContext, encryptedKey []byte, cekSize int) ([]byte, error) {
	z, err := a.agreeAsRecipient(ctx)
	if err != nil {
		return nil, err
	}

	apu, _ := partyInfo(ctx.Header, header.PartyUInfo)
	apv, _ := partyInfo(ctx.Header, header.PartyVInfo)

	if a.isDirect() {
		otherInfo := concatKDFOtherInfo(ctx.ContentEncAlg, apu, apv, cekSize*8)
		return concatKDF(z, cekSize*8, otherInfo), nil
	}

	kekSize := ecdhKWKeySize[a.name]
	otherInfo := concatKDFOtherInfo(a.name, apu, apv, kekSize*8)
	kek := concatKDF(z, kekSize*8, otherInfo)

	cek, err := aesKWUnwrap(kek, encryptedKey)
	if err != nil {
		return nil, err
	}
	if len(cek) != cekSize {
		return nil, fmt.Errorf("jwa: unwrapped CEK has unexpected length %d, want %d", len(cek), cekSize)
	}
	return cek, nil
}

// ecdhPublicKeyToECDSA recovers an *ecdsa.PublicKey from an ephemeral
// *ecdh.PublicKey so it can be carried in the "epk" header via the jwk
// package's ordinary EC encoding. pub.Bytes() is the uncompressed
// SEC 1 point 0x04 || X || Y; the coordinate width is fixed by curve.
func ecdhPublicKeyToECDSA(pub *ecdh.PublicKey, curve elliptic.Curve) (*ecdsa.PublicKey, error) {
	raw := pub.Bytes()
	size := ecdhCoordSize(curve)
	if size == 0 || len(raw) != 1+2*size || raw[0] != 0x04 {
		return nil, fmt.Errorf("jwa: malformed ephemeral public key")
	}
	x := new(big.Int).SetBytes(raw[1 : 1+size])
	y := new(big.Int).SetBytes(raw[1+size:])
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
