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
	"math/rand"
)

// A Symbol is one encoded repair symbol: the XOR of the symbol vector bits at
// Coefficients, together with those indices. Coefficients is sorted
// ascending, duplicate-free and non-empty. The degree of a symbol is the
// number of coefficients.
type Symbol struct {
	// Val is the XOR of the selected bits, 0 or 1.
	Val uint8

	// Coefficients are the indices of the constituent symbol vector bits.
	Coefficients []int
}

// Degree returns the number of constituent indices.
func (s Symbol) Degree() int {
	return len(s.Coefficients)
}

// An Encoder emits an unbounded sequence of encoded symbols from a fixed
// symbol vector: the source block itself, or the intermediate block when an
// LDPC precode is applied first. The code is non-systematic; every emitted
// symbol is a random XOR combination.
type Encoder struct {
	// symbols is the vector being encoded, of length K or K+c.
	symbols *BitVector

	// random is the source of randomness for degree and index draws.
	random *rand.Rand

	// degreeCDF is the degree distribution from which symbol compositions
	// are chosen.
	degreeCDF []float64
}

// NewEncoder creates an encoder over the given symbol vector. degreeCDF
// selects the degree distribution; pass nil for the default uniform
// distribution over [1, vec.Len()]. All randomness is drawn from random, so
// a seeded PRNG makes the emitted sequence reproducible.
func NewEncoder(vec *BitVector, random *rand.Rand, degreeCDF []float64) *Encoder {
	if degreeCDF == nil {
		degreeCDF = UniformDistribution(vec.Len())
	}
	return &Encoder{symbols: vec, random: random, degreeCDF: degreeCDF}
}

// Generate emits the next encoded symbol: a degree drawn from the
// distribution, that many distinct indices drawn uniformly, and the XOR of
// the selected bits.
func (e *Encoder) Generate() Symbol {
	d := pickDegree(e.random, e.degreeCDF)
	indices := sampleUniform(e.random, d, e.symbols.Len())

	var val uint8
	for _, i := range indices {
		val ^= e.symbols.Bit(i)
	}
	return Symbol{Val: val, Coefficients: indices}
}
