package deck

import (
	"crypto/rand"
	"fmt"
	"io"
)

// DefaultSaltLen is the per-card salt length used when none is
// configured. The protocol only requires that all parties agree on it.
const DefaultSaltLen = 16

// Builder produces the operator-side salted deck and the hashed deck
// published to the table before a hand starts.
type Builder struct {
	saltLen int
	rand    io.Reader
}

// NewBuilder creates a builder drawing salts of saltLen bytes from r.
// A nil reader uses the platform CSPRNG; tests and reproducible demos
// can inject a deterministic source.
func NewBuilder(saltLen int, r io.Reader) *Builder {
	if saltLen <= 0 {
		saltLen = DefaultSaltLen
	}
	if r == nil {
		r = rand.Reader
	}
	return &Builder{saltLen: saltLen, rand: r}
}

// SaltLen returns the per-card salt length this builder uses.
func (b *Builder) SaltLen() int {
	return b.saltLen
}

// Build salts and hashes the given cards, returning the secret salted
// deck and the public hashed deck in matching order.
func (b *Builder) Build(cards []Card) ([]SaltedCard, []CardHash, error) {
	salted := make([]SaltedCard, len(cards))
	hashed := make([]CardHash, len(cards))
	for i, c := range cards {
		if !c.Valid() {
			return nil, nil, fmt.Errorf("deck: card %d out of range at position %d", byte(c), i)
		}
		salt := make([]byte, b.saltLen)
		if _, err := io.ReadFull(b.rand, salt); err != nil {
			return nil, nil, fmt.Errorf("deck: reading salt: %w", err)
		}
		salted[i] = SaltedCard{Salt: salt, Card: c}
		hashed[i] = Hash(salt, c)
	}
	return salted, hashed, nil
}
