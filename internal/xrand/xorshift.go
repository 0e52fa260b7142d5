// Package xrand provides the seedable generator used by the annealer.
//
// Xorshift implements [rand.Source] from math/rand/v2, so callers wrap it with
// rand.New and keep the usual IntN/Float64 helpers. A generator is owned by a
// single search; it is not safe for concurrent use.
package xrand

import (
	"hash/maphash"
	"math/rand/v2"
)

// DefaultSeed replaces a zero seed, which would lock xorshift at zero.
const DefaultSeed uint64 = 88172645463325252

type Xorshift struct {
	state uint64
}

var _ rand.Source = (*Xorshift)(nil)

func New(seed uint64) *Xorshift {
	x := &Xorshift{}
	x.Seed(seed)
	return x
}

// NewRand is shorthand for rand.New(New(seed)).
func NewRand(seed uint64) *rand.Rand {
	return rand.New(New(seed))
}

// Seed resets the generator. The seed is passed through a SplitMix64 finalizer
// so that nearby seeds give unrelated streams.
func (x *Xorshift) Seed(seed uint64) {
	s := mix(seed)
	if s == 0 {
		s = DefaultSeed
	}
	x.state = s
}

func (x *Xorshift) Uint64() uint64 {
	s := x.state
	s ^= s << 7
	s ^= s >> 9
	x.state = s
	return s
}

func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RandomSeed returns a non-deterministic seed for runs that do not ask for one.
func RandomSeed() uint64 {
	return new(maphash.Hash).Sum64()
}
