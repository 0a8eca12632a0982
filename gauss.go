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
	"github.com/pkg/errors"
)

// A GaussDecoder accumulates encoded symbols as rows of an augmented matrix
// [A | b] over GF(2) and solves the system exactly by row reduction once it
// reaches full rank. Over GF(2) any nonzero pivot works, addition is XOR,
// and rows are packed bit vectors so elimination is word-parallel.
//
// Every accepted row of A is distinct and non-zero; duplicate symbols are
// dropped on Add, which makes the accumulator idempotent.
type GaussDecoder struct {
	k    int
	rows []*BitVector
	rhs  []uint8

	// index buckets accepted rows by packed-row hash for duplicate
	// detection without pairwise scans.
	index map[uint64][]int

	// received counts every symbol offered, duplicates included.
	received int
}

// NewGaussDecoder creates a decoder for a K-symbol vector.
func NewGaussDecoder(k int) *GaussDecoder {
	return &GaussDecoder{k: k, index: make(map[uint64][]int)}
}

// Add appends one encoded symbol to the accumulator. Symbols with no
// coefficients or with out-of-range coefficients are rejected. A symbol whose
// indicator row is bitwise equal to an already accepted row is silently
// dropped.
func (d *GaussDecoder) Add(s Symbol) error {
	d.received++

	if s.Degree() == 0 {
		return errors.New("raptor: symbol has no coefficients")
	}
	row := NewBitVector(d.k)
	for _, c := range s.Coefficients {
		if c < 0 || c >= d.k {
			return errors.Errorf("raptor: coefficient %d out of range [0,%d)", c, d.k)
		}
		row.Set(c)
	}

	h := row.hash()
	for _, i := range d.index[h] {
		if d.rows[i].Equal(row) {
			return nil
		}
	}
	d.index[h] = append(d.index[h], len(d.rows))
	d.rows = append(d.rows, row)
	d.rhs = append(d.rhs, s.Val&1)
	return nil
}

// Rows returns the number of accepted (distinct) rows.
func (d *GaussDecoder) Rows() int {
	return len(d.rows)
}

// Received returns how many symbols have been offered, duplicates included.
func (d *GaussDecoder) Received() int {
	return d.received
}

// FullRank reports whether rank(A) = rank([A|b]) = K, i.e. the system has a
// unique solution.
func (d *GaussDecoder) FullRank() bool {
	rows, rhs := d.copySystem()
	rank, consistent := eliminate(rows, rhs, d.k)
	return rank == d.k && consistent
}

// rank returns the current rank of A.
func (d *GaussDecoder) rank() int {
	rows, rhs := d.copySystem()
	rank, _ := eliminate(rows, rhs, d.k)
	return rank
}

// Decode solves A·x = b and returns the length-K solution vector. If the
// system is underdetermined or inconsistent it returns ErrUnderdetermined;
// the accumulator is untouched and more symbols may be added.
func (d *GaussDecoder) Decode() (*BitVector, error) {
	if len(d.rows) < d.k {
		return nil, ErrUnderdetermined
	}
	rows, rhs := d.copySystem()

	// Forward elimination with partial pivoting. A missing pivot means some
	// symbol vector position is not yet covered independently.
	for col := 0; col < d.k; col++ {
		pivot := -1
		for r := col; r < len(rows); r++ {
			if rows[r].Bit(col) == 1 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, ErrUnderdetermined
		}
		rows[col], rows[pivot] = rows[pivot], rows[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]
		for r := col + 1; r < len(rows); r++ {
			if rows[r].Bit(col) == 1 {
				rows[r].Xor(rows[col])
				rhs[r] ^= rhs[col]
			}
		}
	}

	// Every row below the top K is now all zero; a nonzero right-hand side
	// there means the system is inconsistent.
	for r := d.k; r < len(rows); r++ {
		if rhs[r] == 1 {
			return nil, ErrUnderdetermined
		}
	}

	// The solution is specified by the top K rows; the rest are redundant.
	rows, rhs = rows[:d.k], rhs[:d.k]

	// Back substitution: x[i] = b[i] XOR sum over j>i of A[i,j]·x[j]. Row i
	// is zero left of the diagonal and x[i] is still unset, so the row·x dot
	// product is exactly the j>i sum.
	x := NewBitVector(d.k)
	for i := d.k - 1; i >= 0; i-- {
		x.SetBit(i, rhs[i]^rows[i].dot(x))
	}
	return x, nil
}

// copySystem clones the accumulated rows and right-hand sides so elimination
// never disturbs the accumulator.
func (d *GaussDecoder) copySystem() ([]*BitVector, []uint8) {
	rows := make([]*BitVector, len(d.rows))
	for i, r := range d.rows {
		rows[i] = r.Clone()
	}
	rhs := make([]uint8, len(d.rhs))
	copy(rhs, d.rhs)
	return rows, rhs
}

// eliminate row-reduces the augmented system in place. It returns the rank of
// the coefficient matrix and whether the system is consistent (no all-zero
// row with a nonzero right-hand side).
func eliminate(rows []*BitVector, rhs []uint8, width int) (rank int, consistent bool) {
	for col := 0; col < width && rank < len(rows); col++ {
		pivot := -1
		for r := rank; r < len(rows); r++ {
			if rows[r].Bit(col) == 1 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			continue
		}
		rows[rank], rows[pivot] = rows[pivot], rows[rank]
		rhs[rank], rhs[pivot] = rhs[pivot], rhs[rank]
		for r := rank + 1; r < len(rows); r++ {
			if rows[r].Bit(col) == 1 {
				rows[r].Xor(rows[rank])
				rhs[r] ^= rhs[rank]
			}
		}
		rank++
	}

	consistent = true
	for r := rank; r < len(rows); r++ {
		if rows[r].Zero() && rhs[r] == 1 {
			consistent = false
			break
		}
	}
	return rank, consistent
}
