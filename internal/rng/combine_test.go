package rng

import (
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestCombineSeedsDeterministic(t *testing.T) {
	t.Parallel()

	seeds := []Seed256{mkseed(0x01), mkseed(0x02), mkseed(0x03)}
	if CombineSeeds(seeds) != CombineSeeds(seeds) {
		t.Fatal("combine is not deterministic")
	}
}

func TestCombineSeedsOrderSensitive(t *testing.T) {
	t.Parallel()

	a, b := mkseed(0x01), mkseed(0x02)
	if CombineSeeds([]Seed256{a, b}) == CombineSeeds([]Seed256{b, a}) {
		t.Fatal("combine ignores order")
	}
}

func TestCombineSeedsIsConcatShake(t *testing.T) {
	t.Parallel()

	seeds := []Seed256{mkseed(0x01), mkseed(0x02), mkseed(0x03)}

	var buf []byte
	for _, s := range seeds {
		buf = append(buf, s[:]...)
	}
	var want Seed256
	sha3.ShakeSum256(want[:], buf)

	if got := CombineSeeds(seeds); got != want {
		t.Fatalf("CombineSeeds = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestCombineSeedsSingle(t *testing.T) {
	t.Parallel()

	// one seed combines to the same digest its commitment uses
	s := mkseed(0x7f)
	if got, want := CombineSeeds([]Seed256{s}), Commit(s); got != Seed256(want) {
		t.Fatalf("CombineSeeds = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestCombineSeedsEmpty(t *testing.T) {
	t.Parallel()

	if got := CombineSeeds(nil); !got.IsZero() {
		t.Fatalf("empty combine = %s, want all-zero", got.Hex())
	}
}
