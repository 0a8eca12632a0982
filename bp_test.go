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
	"testing"

	"github.com/pkg/errors"
)

// chainSymbols builds the degree-1 head {0} followed by the chain
// {0,1}, {1,2}, ... over the given source bits.
func chainSymbols(source *BitVector) []Symbol {
	symbols := []Symbol{{Val: source.Bit(0), Coefficients: []int{0}}}
	for i := 0; i+1 < source.Len(); i++ {
		symbols = append(symbols, Symbol{
			Val:          source.Bit(i) ^ source.Bit(i + 1),
			Coefficients: []int{i, i + 1},
		})
	}
	return symbols
}

func TestBPPeelsDegreeOneChain(t *testing.T) {
	source := BitVectorFromBits([]uint8{1, 0, 1, 1, 0, 1, 0, 0})
	dec, err := NewBPDecoder(8, nil, 0)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}

	symbols := chainSymbols(source)
	var decoded *BitVector
	for i, s := range symbols {
		bits, err := dec.Add(s)
		if err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
		if bits != nil && i < len(symbols)-1 {
			t.Fatalf("Decoded early at symbol %d", i)
		}
		decoded = bits
	}

	if decoded == nil {
		t.Fatalf("Chain did not decode")
	}
	if !decoded.Equal(source) {
		t.Errorf("Decoded bits differ from the source")
	}
	// Each chain link costs exactly one coefficient elimination.
	if dec.SymbolOperations() != 7 {
		t.Errorf("SymbolOperations = %d, want 7", dec.SymbolOperations())
	}
}

func TestBPPeelsStalledCascade(t *testing.T) {
	// Same multiset fed waiting-first: all pairs stall, then the single
	// degree-1 symbol releases the whole cascade.
	source := BitVectorFromBits([]uint8{1, 0, 1, 1, 0, 1, 0, 0})
	dec, err := NewBPDecoder(8, nil, 0)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}

	symbols := chainSymbols(source)
	for i := len(symbols) - 1; i >= 1; i-- {
		bits, err := dec.Add(symbols[i])
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if bits != nil {
			t.Fatalf("Decoded without any degree-1 symbol")
		}
	}

	decoded, err := dec.Add(symbols[0])
	if err != nil {
		t.Fatalf("Add head: %v", err)
	}
	if decoded == nil {
		t.Fatalf("Cascade did not decode")
	}
	if !decoded.Equal(source) {
		t.Errorf("Decoded bits differ from the source")
	}
	if dec.SymbolOperations() != 7 {
		t.Errorf("SymbolOperations = %d, want 7", dec.SymbolOperations())
	}
}

func TestBPToleratesDuplicates(t *testing.T) {
	source := BitVectorFromBits([]uint8{0, 1, 1, 0, 0, 1, 0, 1})
	dec, err := NewBPDecoder(8, nil, 0)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}

	var decoded *BitVector
	for _, s := range chainSymbols(source) {
		for rep := 0; rep < 2; rep++ {
			bits, err := dec.Add(s)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if bits != nil {
				decoded = bits
			}
		}
	}
	if decoded == nil || !decoded.Equal(source) {
		t.Errorf("Duplicated symbol stream did not decode correctly")
	}
}

func TestBPRejectsBadSymbols(t *testing.T) {
	dec, err := NewBPDecoder(8, nil, 0)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}
	if _, err := dec.Add(Symbol{Val: 1}); err == nil {
		t.Errorf("Expected an error for a degree-zero symbol")
	}
	if _, err := dec.Add(Symbol{Val: 1, Coefficients: []int{8}}); err == nil {
		t.Errorf("Expected an error for an out-of-range coefficient without precode")
	}
}

func TestBPBadConfig(t *testing.T) {
	if _, err := NewBPDecoder(0, nil, 0); err == nil {
		t.Errorf("Expected a config error for K=0")
	}
	if _, err := NewBPDecoder(8, nil, -1); err == nil {
		t.Errorf("Expected a config error for a negative threshold")
	}
	g, err := GenerateConstraintMatrix(16, 3, 0.4, rand.New(NewMersenneTwister(6)))
	if err != nil {
		t.Fatalf("GenerateConstraintMatrix: %v", err)
	}
	if _, err := NewBPDecoder(8, g, 8); err == nil {
		t.Errorf("Expected a config error for a shape-mismatched matrix")
	}
}

func TestBPPrime(t *testing.T) {
	g, err := GenerateConstraintMatrix(8, 3, 0.4, rand.New(NewMersenneTwister(99)))
	if err != nil {
		t.Fatalf("GenerateConstraintMatrix: %v", err)
	}
	dec, err := NewBPDecoder(8, g, 100)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}
	dec.Prime()

	if dec.Processed() != 0 {
		t.Errorf("Prime counted toward the escalation threshold: processed=%d", dec.Processed())
	}
	alive := 0
	for _, eq := range dec.waiting {
		if eq.alive {
			alive++
		}
	}
	if alive != 3 {
		t.Errorf("Prime filed %d waiting constraints, want 3", alive)
	}
}

// stallSymbols builds degree-2 pairs over the intermediate block plus one
// odd-degree triple. No symbol has degree 1, so the peeler can never start,
// but the multiset determines the source uniquely together with the precode
// constraints.
func stallSymbols(inter *BitVector) []Symbol {
	var symbols []Symbol
	for i := 0; i < 7; i++ {
		symbols = append(symbols, Symbol{
			Val:          inter.Bit(i) ^ inter.Bit(i + 1),
			Coefficients: []int{i, i + 1},
		})
	}
	symbols = append(symbols, Symbol{
		Val:          inter.Bit(5) ^ inter.Bit(6) ^ inter.Bit(7),
		Coefficients: []int{5, 6, 7},
	})
	return symbols
}

func TestBPEscalation(t *testing.T) {
	random := rand.New(NewMersenneTwister(13))
	g, err := GenerateConstraintMatrix(8, 3, 0.4, random)
	if err != nil {
		t.Fatalf("GenerateConstraintMatrix: %v", err)
	}

	source := BitVectorFromBits([]uint8{1, 0, 1, 1, 0, 1, 0, 0})
	inter := g.Precode(source)

	dec, err := NewBPDecoder(8, g, 8)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}
	dec.Prime()

	symbols := stallSymbols(inter)
	var decoded *BitVector
	for i, s := range symbols {
		bits, err := dec.Add(s)
		if err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
		if bits != nil && i < len(symbols)-1 {
			t.Fatalf("Decoded before the escalation threshold at symbol %d", i)
		}
		decoded = bits
	}

	if dec.Processed() != 8 {
		t.Errorf("Processed = %d, want the threshold 8", dec.Processed())
	}
	if decoded == nil {
		t.Fatalf("Escalation did not decode")
	}
	if !decoded.Equal(source) {
		t.Errorf("Escalated decode differs from the source")
	}
}

func TestBPEscalationFailure(t *testing.T) {
	random := rand.New(NewMersenneTwister(13))
	g, err := GenerateConstraintMatrix(8, 3, 0.4, random)
	if err != nil {
		t.Fatalf("GenerateConstraintMatrix: %v", err)
	}

	source := BitVectorFromBits([]uint8{1, 0, 1, 1, 0, 1, 0, 0})
	inter := g.Precode(source)

	dec, err := NewBPDecoder(8, g, 8)
	if err != nil {
		t.Fatalf("NewBPDecoder: %v", err)
	}
	dec.Prime()

	// Pairs alone leave the complement ambiguity unresolved; the augmented
	// system is rank deficient at the threshold.
	var pairs []Symbol
	for i := 0; i < 7; i++ {
		pairs = append(pairs, Symbol{
			Val:          inter.Bit(i) ^ inter.Bit(i + 1),
			Coefficients: []int{i, i + 1},
		})
	}
	pairs = append(pairs, pairs[0])

	var lastErr error
	for _, s := range pairs {
		_, lastErr = dec.Add(s)
	}
	if errors.Cause(lastErr) != ErrDecodeFailed {
		t.Fatalf("Expected ErrDecodeFailed at the threshold, got %v", lastErr)
	}

	// The failure is sticky.
	if _, err := dec.Add(Symbol{Val: 0, Coefficients: []int{0}}); errors.Cause(err) != ErrDecodeFailed {
		t.Errorf("Expected the decoder to stay failed, got %v", err)
	}
}

func TestBPOrderIndependence(t *testing.T) {
	source := BitVectorFromBits([]uint8{1, 1, 0, 1, 0, 0, 1, 0})
	symbols := chainSymbols(source)

	orders := [][]Symbol{symbols, nil}
	orders[1] = append([]Symbol(nil), symbols...)
	random := rand.New(NewMersenneTwister(4))
	random.Shuffle(len(orders[1]), func(i, j int) {
		orders[1][i], orders[1][j] = orders[1][j], orders[1][i]
	})

	for n, order := range orders {
		dec, err := NewBPDecoder(8, nil, 0)
		if err != nil {
			t.Fatalf("NewBPDecoder: %v", err)
		}
		var decoded *BitVector
		for _, s := range order {
			bits, err := dec.Add(s)
			if err != nil {
				t.Fatalf("order %d: Add: %v", n, err)
			}
			if bits != nil {
				decoded = bits
			}
		}
		if decoded == nil || !decoded.Equal(source) {
			t.Errorf("order %d: decode mismatch", n)
		}
	}
}
