package rng

import (
	"testing"

	"github.com/lox/fairdeck/internal/deck"
)

func mkdeck(n int) HashedDeck {
	d := make(HashedDeck, n)
	for i := range d {
		d[i][0] = byte(i)
		d[i][1] = byte(i >> 8)
	}
	return d
}

func TestShuffleIsPermutation(t *testing.T) {
	t.Parallel()

	d := mkdeck(52)
	out := Shuffle(d, mkseed(0x11))

	if len(out) != len(d) {
		t.Fatalf("shuffle changed deck size: %d -> %d", len(d), len(out))
	}

	counts := make(map[deck.CardHash]int)
	for _, h := range d {
		counts[h]++
	}
	for _, h := range out {
		counts[h]--
	}
	for h, c := range counts {
		if c != 0 {
			t.Fatalf("hash %x count off by %d", h[:4], c)
		}
	}
}

func TestShuffleDeterministic(t *testing.T) {
	t.Parallel()

	d := mkdeck(52)
	seed := mkseed(0x22)

	a := Shuffle(d, seed)
	b := Shuffle(d, seed)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated shuffles diverge at %d", i)
		}
	}
}

func TestShuffleSeedSensitive(t *testing.T) {
	t.Parallel()

	d := mkdeck(52)
	a := Shuffle(d, mkseed(0x01))
	b := Shuffle(d, mkseed(0x02))

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced the same permutation")
	}
}

func TestShuffleActuallyPermutes(t *testing.T) {
	t.Parallel()

	// with 52 cards the identity permutation is astronomically unlikely
	d := mkdeck(52)
	out := Shuffle(d, mkseed(0x33))

	same := true
	for i := range d {
		if out[i] != d[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("shuffle returned the identity permutation")
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	d := mkdeck(10)
	orig := d.Clone()
	Shuffle(d, mkseed(0x44))
	for i := range d {
		if d[i] != orig[i] {
			t.Fatal("Shuffle mutated its input")
		}
	}
}

func TestShuffleDegenerateDecks(t *testing.T) {
	t.Parallel()

	if out := Shuffle(nil, mkseed(0x01)); len(out) != 0 {
		t.Fatalf("empty deck shuffled to %d cards", len(out))
	}

	single := mkdeck(1)
	out := Shuffle(single, mkseed(0x01))
	if len(out) != 1 || out[0] != single[0] {
		t.Fatal("singleton deck not returned as itself")
	}
}

func TestPermutationMatchesShuffle(t *testing.T) {
	t.Parallel()

	d := mkdeck(52)
	seed := mkseed(0x55)

	perm := Permutation(len(d), seed)
	out := Shuffle(d, seed)

	for i, from := range perm {
		if out[i] != d[from] {
			t.Fatalf("permutation disagrees with shuffle at %d", i)
		}
	}
}

func TestPermutationCoversAllIndices(t *testing.T) {
	t.Parallel()

	perm := Permutation(52, mkseed(0x66))
	seen := make([]bool, len(perm))
	for _, idx := range perm {
		if idx < 0 || idx >= len(perm) {
			t.Fatalf("index %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("index %d appears twice", idx)
		}
		seen[idx] = true
	}
}
