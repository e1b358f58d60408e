// Package sfmt is a scalar implementation of the SIMD-oriented Fast
// Mersenne Twister with Mersenne exponent 19937 (period 2^19937-1).
//
// The generator is bit-compatible with the reference SFMT-src
// distribution: the same key fed through InitByArray yields the same
// 32-bit output stream on every platform. That property is what lets
// independent parties reproduce each other's shuffles, so the
// parameters and initialization below must never change.
package sfmt

const (
	mexp = 19937
	n    = mexp/128 + 1 // 128-bit state words
	n32  = n * 4        // state size in 32-bit words

	pos1 = 122
	sl1  = 18
	sl2  = 1
	sr1  = 11
	sr2  = 1

	msk1 = 0xdfffffef
	msk2 = 0xddfecb7f
	msk3 = 0xbffaffff
	msk4 = 0xbffffff6
)

// parity ensures the characteristic polynomial's period after seeding.
var parity = [4]uint32{0x00000001, 0x00000000, 0x00000000, 0x13c9e684}

// SFMT holds the generator state. The zero value is not usable; seed it
// with New or NewFromSeed.
type SFMT struct {
	state [n32]uint32
	idx   int
}

// New returns a generator keyed with InitByArray(key).
func New(key []uint32) *SFMT {
	s := &SFMT{}
	s.InitByArray(key)
	return s
}

// NewFromSeed returns a generator keyed from raw seed bytes. The bytes
// are packed little-endian into 32-bit words (a 32-byte seed becomes
// eight words), matching the byte-level seed contract of the protocol.
func NewFromSeed(seed []byte) *SFMT {
	key := make([]uint32, (len(seed)+3)/4)
	for i, b := range seed {
		key[i/4] |= uint32(b) << (8 * uint(i%4))
	}
	return New(key)
}

// Uint32 returns the next 32-bit word of the stream.
func (s *SFMT) Uint32() uint32 {
	if s.idx >= n32 {
		s.regen()
	}
	v := s.state[s.idx]
	s.idx++
	return v
}

// InitByArray seeds the state from a key array, mirroring
// sfmt_init_by_array from the reference implementation.
func (s *SFMT) InitByArray(key []uint32) {
	const (
		size = n32
		lag  = 11 // size >= 623
	)
	const mid = (size - lag) / 2

	for i := range s.state {
		s.state[i] = 0x8b8b8b8b
	}

	count := size
	if len(key)+1 > size {
		count = len(key) + 1
	}

	r := func1(s.state[0] ^ s.state[mid] ^ s.state[size-1])
	s.state[mid] += r
	r += uint32(len(key))
	s.state[mid+lag] += r
	s.state[0] = r

	count--
	i, j := 1, 0
	for ; j < count && j < len(key); j++ {
		r = func1(s.state[i] ^ s.state[(i+mid)%size] ^ s.state[(i+size-1)%size])
		s.state[(i+mid)%size] += r
		r += key[j] + uint32(i)
		s.state[(i+mid+lag)%size] += r
		s.state[i] = r
		i = (i + 1) % size
	}
	for ; j < count; j++ {
		r = func1(s.state[i] ^ s.state[(i+mid)%size] ^ s.state[(i+size-1)%size])
		s.state[(i+mid)%size] += r
		r += uint32(i)
		s.state[(i+mid+lag)%size] += r
		s.state[i] = r
		i = (i + 1) % size
	}
	for j = 0; j < size; j++ {
		r = func2(s.state[i] + s.state[(i+mid)%size] + s.state[(i+size-1)%size])
		s.state[(i+mid)%size] ^= r
		r -= uint32(i)
		s.state[(i+mid+lag)%size] ^= r
		s.state[i] = r
		i = (i + 1) % size
	}

	s.idx = n32
	s.periodCertification()
}

func func1(x uint32) uint32 { return (x ^ (x >> 27)) * 1664525 }
func func2(x uint32) uint32 { return (x ^ (x >> 27)) * 1566083941 }

// periodCertification flips a parity bit if needed so the seeded state
// lies on an orbit with the full 2^19937-1 period.
func (s *SFMT) periodCertification() {
	inner := uint32(0)
	for i := 0; i < 4; i++ {
		inner ^= s.state[i] & parity[i]
	}
	for i := 16; i > 0; i >>= 1 {
		inner ^= inner >> i
	}
	if inner&1 == 1 {
		return
	}
	for i := 0; i < 4; i++ {
		work := uint32(1)
		for j := 0; j < 32; j++ {
			if work&parity[i] != 0 {
				s.state[i] ^= work
				return
			}
			work <<= 1
		}
	}
}

// regen refills the whole state array, the scalar equivalent of
// sfmt_gen_rand_all.
func (s *SFMT) regen() {
	r1 := (n - 2) * 4
	r2 := (n - 1) * 4
	for i := 0; i < n-pos1; i++ {
		base := i * 4
		s.recurse(base, (i+pos1)*4, r1, r2)
		r1, r2 = r2, base
	}
	for i := n - pos1; i < n; i++ {
		base := i * 4
		s.recurse(base, (i+pos1-n)*4, r1, r2)
		r1, r2 = r2, base
	}
	s.idx = 0
}

// recurse computes one 128-bit word of the recursion
// r = a ^ (a << 8) ^ ((b >> sr1) & msk) ^ (c >> 8) ^ (d << sl1)
// where a is updated in place (r == a) and the 128-bit shifts are
// byte-granular as in the reference lshift128/rshift128.
func (s *SFMT) recurse(a, b, c, d int) {
	st := &s.state

	ah := uint64(st[a+3])<<32 | uint64(st[a+2])
	al := uint64(st[a+1])<<32 | uint64(st[a+0])
	xh := ah<<(sl2*8) | al>>(64-sl2*8)
	xl := al << (sl2 * 8)

	ch := uint64(st[c+3])<<32 | uint64(st[c+2])
	cl := uint64(st[c+1])<<32 | uint64(st[c+0])
	yl := cl>>(sr2*8) | ch<<(64-sr2*8)
	yh := ch >> (sr2 * 8)

	st[a+0] = st[a+0] ^ uint32(xl) ^ ((st[b+0] >> sr1) & msk1) ^ uint32(yl) ^ (st[d+0] << sl1)
	st[a+1] = st[a+1] ^ uint32(xl>>32) ^ ((st[b+1] >> sr1) & msk2) ^ uint32(yl>>32) ^ (st[d+1] << sl1)
	st[a+2] = st[a+2] ^ uint32(xh) ^ ((st[b+2] >> sr1) & msk3) ^ uint32(yh) ^ (st[d+2] << sl1)
	st[a+3] = st[a+3] ^ uint32(xh>>32) ^ ((st[b+3] >> sr1) & msk4) ^ uint32(yh>>32) ^ (st[d+3] << sl1)
}
