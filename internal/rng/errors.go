package rng

import "errors"

// Usage errors signal caller contract violations. They are distinct
// from a FAIL verdict: a FAIL means the cryptography did not check out,
// these mean the operation never ran.
var (
	ErrUnknownHand      = errors.New("rng: unknown hand")
	ErrDuplicateHand    = errors.New("rng: hand already exists")
	ErrEmptyDeck        = errors.New("rng: initial deck is empty")
	ErrInvalidSeat      = errors.New("rng: invalid player seat")
	ErrRevealOutOfRange = errors.New("rng: reveal position out of range")
	ErrWrongPhase       = errors.New("rng: operation invoked out of phase")
)
