package rng

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// Commit binds a seed to its 32-byte SHAKE256 commitment. Publishing
// the commitment before the seed is revealed is what prevents a party
// from choosing its contribution after seeing the others'.
func Commit(seed Seed256) Hash256 {
	var h Hash256
	sha3.ShakeSum256(h[:], seed[:])
	return h
}

// VerifyCommit reports whether the revealed seed is bound by the
// earlier commitment.
func VerifyCommit(commit Hash256, seed Seed256) bool {
	calc := Commit(seed)
	return subtle.ConstantTimeCompare(commit[:], calc[:]) == 1
}
