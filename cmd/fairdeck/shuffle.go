package main

import (
	"encoding/hex"
	"fmt"

	"github.com/lox/fairdeck/internal/rng"
)

// ShuffleCmd prints the permutation the deterministic shuffle produces
// for a combined seed, so independent implementations can be compared
// without sharing a deck.
type ShuffleCmd struct {
	Seed string `kong:"arg,help='Combined seed as hex (up to 32 bytes, zero-padded)'"`
	Size int    `kong:"default='52',help='Deck size'"`
}

func (c *ShuffleCmd) Run() error {
	raw, err := hex.DecodeString(c.Seed)
	if err != nil {
		return fmt.Errorf("decoding seed: %w", err)
	}
	if len(raw) > 32 {
		return fmt.Errorf("seed is %d bytes, want at most 32", len(raw))
	}
	if c.Size < 0 {
		return fmt.Errorf("invalid deck size %d", c.Size)
	}

	var seed rng.Seed256
	copy(seed[:], raw)

	fmt.Printf("seed: %s\n", seed.Hex())
	for pos, from := range rng.Permutation(c.Size, seed) {
		fmt.Printf("%2d <- %2d\n", pos, from)
	}
	return nil
}
