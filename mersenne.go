// Copyright 2026 The raptor Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package raptor

import (
	"math"
	"math/rand"
)

// MersenneTwister is the 32-bit MT19937 PRNG of Matsumoto and Nishimura.
// It satisfies math/rand.Source, so experiments seeded with the same value
// reproduce the same constraint matrices and encoded symbol sequences on
// every platform, independent of math/rand's default source.
type MersenneTwister struct {
	mt          [624]uint32
	index       int
	initialized bool
}

// NewMersenneTwister creates an MT19937 source with the given seed. The seed
// is folded to 32 bits by XORing its halves.
func NewMersenneTwister(seed int64) rand.Source {
	t := &MersenneTwister{}
	t.Seed(seed)
	return t
}

// Seed resets the twister state from the given seed value.
func (t *MersenneTwister) Seed(seed int64) {
	t.initialize(uint32(((seed >> 32) ^ seed) & math.MaxUint32))
}

// Int63 combines two tempered 32-bit outputs into a value in [0, 2^63).
func (t *MersenneTwister) Int63() int64 {
	a := t.Uint32()
	b := t.Uint32()
	return (int64(a) << 31) ^ int64(b)
}

// Uint32 returns the next tempered output word.
func (t *MersenneTwister) Uint32() uint32 {
	if !t.initialized {
		// Default seed from the original paper.
		t.initialize(4357)
	}

	// Every 624 outputs, revolve the untempered state matrix.
	if t.index == 0 {
		mag01 := [2]uint32{0x0, 0x9908b0df}
		for i := 0; i < len(t.mt); i++ {
			y := (t.mt[i] & 0x80000000) | (t.mt[(i+1)%len(t.mt)] & 0x7fffffff)
			t.mt[i] = (t.mt[(i+397)%len(t.mt)] ^ (y >> 1)) ^ mag01[y&0x01]
		}
	}

	y := t.mt[t.index]
	t.index++
	if t.index >= len(t.mt) {
		t.index = 0
	}
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18

	return y
}

// initialize fills the state array using the improved Knuth-style recurrence,
// which avoids the correlated runs of the original 69069 initializer.
func (t *MersenneTwister) initialize(seed uint32) {
	t.index = 0
	t.mt[0] = seed
	for i := 1; i < len(t.mt); i++ {
		t.mt[i] = (1812433253*(t.mt[i-1]^(t.mt[i-1]>>30)) + uint32(i)) & math.MaxUint32
	}
	t.initialized = true
}
