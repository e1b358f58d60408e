// Package randutil centralises deterministic randomness for demos and
// tests. Protocol-facing seeds and salts come from crypto/rand; this
// package only feeds reproducible runs.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Bytes returns n deterministic bytes drawn from r.
func Bytes(r *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i += 8 {
		v := r.Uint64()
		for j := 0; j < 8 && i+j < n; j++ {
			out[i+j] = byte(v >> (8 * uint(j)))
		}
	}
	return out
}

// Seed32 returns a deterministic 32-byte protocol seed drawn from r.
func Seed32(r *rand.Rand) [32]byte {
	var s [32]byte
	copy(s[:], Bytes(r, len(s)))
	return s
}

// Reader adapts a *rand.Rand to io.Reader so deterministic sources can
// stand in for crypto/rand in deck building.
type Reader struct {
	R *rand.Rand
}

func (rr Reader) Read(p []byte) (int, error) {
	copy(p, Bytes(rr.R, len(p)))
	return len(p), nil
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
