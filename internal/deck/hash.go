package deck

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// CardHash is the 32-byte SHAKE256 commitment to one face-down card.
type CardHash [32]byte

// SaltedCard is the preimage side of a card commitment: the per-card
// salt plus the plain card byte.
type SaltedCard struct {
	Salt []byte
	Card Card
}

// Preimage returns the byte sequence hashed into a card commitment:
// salt, one NUL separator, then the two ASCII card bytes. The layout is
// fixed by the protocol; every party must produce it byte-identically.
func Preimage(salt []byte, c Card) []byte {
	text := c.Text()
	buf := make([]byte, 0, len(salt)+3)
	buf = append(buf, salt...)
	buf = append(buf, 0)
	buf = append(buf, text[0], text[1])
	return buf
}

// Hash computes the commitment for a salted card.
func Hash(salt []byte, c Card) CardHash {
	var h CardHash
	sha3.ShakeSum256(h[:], Preimage(salt, c))
	return h
}

// Verify reports whether the salted card is the preimage of the given
// commitment.
func Verify(h CardHash, salt []byte, c Card) bool {
	calc := Hash(salt, c)
	return subtle.ConstantTimeCompare(h[:], calc[:]) == 1
}
