package jwk

// Password holds raw UTF-8 key material used as PBES2 input (RFC 7518
// section 4.8). It deliberately does NOT implement Key: RFC 7518 defines
// no "kty" for a bare password, so a Password is never JWK-serializable
// and never participates in FromJSON/ToJSON dispatch. It exists purely
// as a jwe key-management input type.
type Password []byte
