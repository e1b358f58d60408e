package deck

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestPreimageLayout(t *testing.T) {
	t.Parallel()

	salt := []byte{0xde, 0xad, 0xbe, 0xef}
	pre := Preimage(salt, Card(49)) // ace of spades

	want := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 'A', 's'}
	if !bytes.Equal(pre, want) {
		t.Fatalf("Preimage = %x, want %x", pre, want)
	}
}

func TestPreimageEmptySalt(t *testing.T) {
	t.Parallel()

	pre := Preimage(nil, Card(1))
	if !bytes.Equal(pre, []byte{0x00, '2', 's'}) {
		t.Fatalf("Preimage = %x", pre)
	}
}

func TestHashMatchesShake(t *testing.T) {
	t.Parallel()

	salt := []byte("salt-bytes")
	c := Card(35)

	var want [32]byte
	sha3.ShakeSum256(want[:], Preimage(salt, c))

	if got := Hash(salt, c); got != CardHash(want) {
		t.Fatalf("Hash = %x, want %x", got, want)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	for c := Card(1); c <= 52; c++ {
		salt := []byte{byte(c), 0x10, 0x20}
		h := Hash(salt, c)
		if !Verify(h, salt, c) {
			t.Fatalf("card %v failed round trip", c)
		}
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	c := Card(27)
	h := Hash(salt, c)

	// flip one bit of one salt byte
	tampered := append([]byte(nil), salt...)
	tampered[3] ^= 0x01
	if Verify(h, tampered, c) {
		t.Error("tampered salt verified")
	}

	// different card
	if Verify(h, salt, c+1) {
		t.Error("wrong card verified")
	}

	// truncated salt
	if Verify(h, salt[:len(salt)-1], c) {
		t.Error("truncated salt verified")
	}
}

func TestBuilderDeterministic(t *testing.T) {
	t.Parallel()

	src := func() *fixedReader { return &fixedReader{b: 0x42} }

	b1 := NewBuilder(8, src())
	b2 := NewBuilder(8, src())

	salted1, hashed1, err := b1.Build(Standard())
	if err != nil {
		t.Fatal(err)
	}
	salted2, hashed2, err := b2.Build(Standard())
	if err != nil {
		t.Fatal(err)
	}

	for i := range hashed1 {
		if hashed1[i] != hashed2[i] {
			t.Fatalf("builders diverged at %d", i)
		}
		if !bytes.Equal(salted1[i].Salt, salted2[i].Salt) {
			t.Fatalf("salts diverged at %d", i)
		}
	}
}

func TestBuilderHashesMatchSaltedDeck(t *testing.T) {
	t.Parallel()

	b := NewBuilder(16, &fixedReader{b: 0x07})
	salted, hashed, err := b.Build(Standard())
	if err != nil {
		t.Fatal(err)
	}
	if len(salted) != 52 || len(hashed) != 52 {
		t.Fatalf("got %d salted, %d hashed", len(salted), len(hashed))
	}

	for i := range salted {
		if len(salted[i].Salt) != 16 {
			t.Fatalf("salt %d has length %d", i, len(salted[i].Salt))
		}
		if !Verify(hashed[i], salted[i].Salt, salted[i].Card) {
			t.Fatalf("hashed entry %d does not verify against its salted card", i)
		}
	}
}

func TestBuilderRejectsInvalidCard(t *testing.T) {
	t.Parallel()

	b := NewBuilder(8, &fixedReader{b: 0x01})
	if _, _, err := b.Build([]Card{Card(0)}); err == nil {
		t.Fatal("expected error for card outside the domain")
	}
}

// fixedReader yields an incrementing byte sequence starting at b; good
// enough to stand in for an entropy source in tests.
type fixedReader struct{ b byte }

func (r *fixedReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}
