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
	"sort"

	"github.com/pkg/errors"
)

// bpEquation is one unresolved XOR relation: the XOR of the symbol vector
// bits at coeffs equals val. Resolved equations stay in the waiting slice
// with alive=false so that the slice can double as the escalation input.
type bpEquation struct {
	coeffs map[int]struct{}
	val    uint8
	alive  bool
}

// A BPDecoder reconstructs a source block by belief propagation: degree-one
// symbols pin down a symbol vector bit, which is then peeled out of every
// equation containing it, possibly releasing further degree-one equations.
// Peeling is driven by a work queue of newly resolved indices and an
// index-to-equation adjacency, so each add touches only affected equations.
//
// With a constraint matrix the decoder works over the K+c intermediate
// vector; Prime injects the precode constraints, and once the configured
// number of symbols has been accepted without success the decoder escalates
// to Gaussian elimination over the precode-augmented system.
type BPDecoder struct {
	k        int
	g        *ConstraintMatrix
	overhead int

	// known maps resolved symbol vector indices to their bit values.
	known map[int]uint8

	// knownSource counts resolved indices below K.
	knownSource int

	waiting []*bpEquation
	edges   map[int][]*bpEquation

	// processed counts symbols accepted through Add.
	processed int

	// ops counts coefficient eliminations, for comparing the symbol cost of
	// precoded and unprecoded runs.
	ops int

	failed bool
}

// NewBPDecoder creates a belief propagation decoder for a K-bit source
// block. g is the optional precode constraint matrix; when present the
// decoder operates over the K+c intermediate vector. overhead is the number
// of symbols to accept before escalating to the Gaussian fallback; 0 means
// never escalate.
func NewBPDecoder(k int, g *ConstraintMatrix, overhead int) (*BPDecoder, error) {
	if k <= 0 {
		return nil, configErrorf("K must be positive, got %d", k)
	}
	if overhead < 0 {
		return nil, configErrorf("escalation threshold must be non-negative, got %d", overhead)
	}
	if g != nil && g.Rows() != k {
		return nil, configErrorf("constraint matrix has %d rows, want %d", g.Rows(), k)
	}
	return &BPDecoder{
		k:        k,
		g:        g,
		overhead: overhead,
		known:    make(map[int]uint8),
		edges:    make(map[int][]*bpEquation),
	}, nil
}

// n returns the symbol vector length the decoder works over.
func (d *BPDecoder) n() int {
	if d.g == nil {
		return d.k
	}
	return d.k + d.g.Cols()
}

// Prime injects one synthetic symbol per precode constraint: the XOR of a
// column's source bits and its parity bit is zero. The synthetic symbols do
// not count toward the escalation threshold.
func (d *BPDecoder) Prime() {
	if d.g == nil {
		return
	}
	for i := 0; i < d.g.Cols(); i++ {
		d.absorb(append(d.g.ColumnIndices(i), d.k+i), 0)
	}
}

// Add accepts one encoded symbol and peels. It returns (bits, nil) once all
// K source bits are resolved, (nil, nil) while more symbols are needed, and
// (nil, ErrDecodeFailed) if the escalation threshold was reached and the
// augmented system could not be solved.
func (d *BPDecoder) Add(s Symbol) (*BitVector, error) {
	if d.failed {
		return nil, ErrDecodeFailed
	}
	if s.Degree() == 0 {
		return nil, errors.New("raptor: symbol has no coefficients")
	}
	for _, c := range s.Coefficients {
		if c < 0 || c >= d.n() {
			return nil, errors.Errorf("raptor: coefficient %d out of range [0,%d)", c, d.n())
		}
	}

	d.processed++
	d.absorb(s.Coefficients, s.Val&1)

	if d.knownSource == d.k {
		return d.solution(), nil
	}
	if d.overhead > 0 && d.processed >= d.overhead {
		sol, err := d.escalate()
		if err != nil {
			d.failed = true
			return nil, err
		}
		return sol, nil
	}
	return nil, nil
}

// Processed returns how many symbols Add has accepted.
func (d *BPDecoder) Processed() int {
	return d.processed
}

// SymbolOperations returns the number of coefficient eliminations performed.
func (d *BPDecoder) SymbolOperations() int {
	return d.ops
}

// absorb reduces an incoming relation against the known bits, then either
// resolves it (degree one), discards it (fully redundant) or files it as a
// waiting equation.
func (d *BPDecoder) absorb(coeffs []int, val uint8) {
	set := make(map[int]struct{}, len(coeffs))
	for _, c := range coeffs {
		if v, ok := d.known[c]; ok {
			val ^= v
			d.ops++
			continue
		}
		set[c] = struct{}{}
	}

	switch len(set) {
	case 0:
		return
	case 1:
		for c := range set {
			d.resolve(c, val)
		}
	default:
		eq := &bpEquation{coeffs: set, val: val, alive: true}
		d.waiting = append(d.waiting, eq)
		for c := range set {
			d.edges[c] = append(d.edges[c], eq)
		}
	}
}

// resolve records a newly known index and propagates it through the waiting
// equations, queueing any indices released along the way.
func (d *BPDecoder) resolve(idx int, val uint8) {
	if _, ok := d.known[idx]; ok {
		return
	}
	d.known[idx] = val
	if idx < d.k {
		d.knownSource++
	}

	queue := []int{idx}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		v := d.known[i]

		for _, eq := range d.edges[i] {
			if !eq.alive {
				continue
			}
			if _, ok := eq.coeffs[i]; !ok {
				continue
			}
			eq.val ^= v
			delete(eq.coeffs, i)
			d.ops++

			if len(eq.coeffs) == 1 {
				eq.alive = false
				var last int
				for c := range eq.coeffs {
					last = c
				}
				if _, ok := d.known[last]; !ok {
					d.known[last] = eq.val
					if last < d.k {
						d.knownSource++
					}
					queue = append(queue, last)
				}
			}
		}
		d.edges[i] = nil
	}
}

// solution returns the K source bits in index order.
func (d *BPDecoder) solution() *BitVector {
	out := NewBitVector(d.k)
	for i := 0; i < d.k; i++ {
		out.SetBit(i, d.known[i])
	}
	return out
}

// escalate builds the precode-augmented system and hands it to a fresh
// Gaussian decoder: one row per constraint column, one per surviving waiting
// equation, and a singleton row per known bit. On success the first K bits
// of the K+c solution are the source block.
func (d *BPDecoder) escalate() (*BitVector, error) {
	gauss := NewGaussDecoder(d.n())

	if d.g != nil {
		for i := 0; i < d.g.Cols(); i++ {
			gauss.Add(Symbol{Val: 0, Coefficients: append(d.g.ColumnIndices(i), d.k+i)})
		}
	}
	for _, eq := range d.waiting {
		if !eq.alive {
			continue
		}
		coeffs := make([]int, 0, len(eq.coeffs))
		for c := range eq.coeffs {
			coeffs = append(coeffs, c)
		}
		sort.Ints(coeffs)
		gauss.Add(Symbol{Val: eq.val, Coefficients: coeffs})
	}
	for idx, v := range d.known {
		gauss.Add(Symbol{Val: v, Coefficients: []int{idx}})
	}

	sol, err := gauss.Decode()
	if err != nil {
		return nil, ErrDecodeFailed
	}
	return sol.Slice(d.k), nil
}
