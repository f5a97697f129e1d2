package jwk

import (
	"testing"
)

func TestSetMarshalUnmarshalRoundTrip(t *testing.T) {
	k := &OctetKey{Bytes: []byte("0123456789abcdef0123456789abcdef")}
	k.KeyID = "k1"
	set := Set{k}

	data, err := set.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	var got Set
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].ID() != "k1" {
		t.Errorf("kid = %q", got[0].ID())
	}
}

func TestSetHasAndFirst(t *testing.T) {
	a := &OctetKey{Bytes: []byte("a")}
	a.KeyID = "a"
	b := &OctetKey{Bytes: []byte("b")}
	b.KeyID = "b"
	set := Set{a, b}

	if !set.Has(WithID("b")) {
		t.Error("expected Has(WithID(b)) to be true")
	}
	if set.Has(WithID("c")) {
		t.Error("expected Has(WithID(c)) to be false")
	}
	if got := set.First(WithID("a")); got != Key(a) {
		t.Error("First(WithID(a)) did not return a")
	}
	if got := set.First(WithID("c")); got != nil {
		t.Errorf("First(WithID(c)) = %v, want nil", got)
	}
}

func TestResolverResolveByKid(t *testing.T) {
	a := &OctetKey{Bytes: []byte("a")}
	a.KeyID = "a"
	r := NewResolver(Set{a})

	got, err := r.Resolve("a", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != Key(a) {
		t.Error("Resolve(kid=a) did not return a")
	}

	if _, err := r.Resolve("missing", ""); err == nil {
		t.Error("expected error for missing kid")
	}
}

func TestResolverResolveByAlgAmbiguous(t *testing.T) {
	a := &OctetKey{Bytes: []byte("a")}
	a.KeyAlgorithm = "HS256"
	b := &OctetKey{Bytes: []byte("b")}
	b.KeyAlgorithm = "HS256"
	r := NewResolver(Set{a, b})

	if _, err := r.Resolve("", "HS256"); err == nil {
		t.Error("expected ambiguity error when two keys share alg")
	}
}
