package jwt_test

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/jose4go/jose/jwa"
	"github.com/jose4go/jose/jwk"
	"github.com/jose4go/jose/jwt"
)

func Example() {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	key := &jwk.OctetKey{Bytes: secret}

	claims := jwt.Claims{
		jwt.ClaimIssuer:  "test",
		jwt.ClaimSubject: "john.doe",
	}
	claims.SetExpirationIn(time.Hour)

	signed, err := jwt.Sign(claims, jwa.AlgHS256, key, jwa.DefaultJWSConstraints())
	if err != nil {
		panic(err)
	}

	compact, err := signed.Compact()
	if err != nil {
		panic(err)
	}

	consumer := jwt.NewConsumer().
		WithKey(key).
		WithValidator(jwt.ExpirationValidator(time.Second)).
		WithValidator(jwt.IssuerValidator(true, "test"))

	result, err := consumer.Process(compact)
	if err != nil {
		panic(err)
	}

	sub, _, _ := result.Claims.Subject()
	fmt.Printf("Subject: %s\n", sub)
	// Output: Subject: john.doe
}
