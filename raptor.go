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

/*
Package raptor is an experimentation harness for Raptor-like rateless erasure
codes over GF(2).

An input byte stream is framed into K-bit source blocks. For each block an
encoder emits an unbounded stream of repair symbols, each the XOR of a
randomly chosen subset of the block's bits together with the chosen indices.
A receiver reconstructs the block from any sufficiently large sample of
symbols, in any order, duplicates tolerated. Two decoders are provided for
comparison: exact Gaussian elimination, and belief propagation (peeling) with
an optional LDPC precode and a Gaussian fallback once a configured symbol
overhead has been absorbed.

The code is non-systematic and the default degree distribution is uniform,
deliberately weak, so that the measured benefit of the precode stands out.
All randomness is drawn from a single injected PRNG, making every run
reproducible from its seed.
*/
package raptor

import (
	"io"
	"math/rand"

	"github.com/pkg/errors"
)

// maxSymbolFactor bounds how many encoded symbols a run will feed one block
// before declaring it lost, as a multiple of K. The uniform degree
// distribution decodes well before this for all experiment sizes.
const maxSymbolFactor = 1000

// Config collects the knobs of a coding run.
type Config struct {
	// K is the number of source symbols (bits) per block. It must be a
	// positive multiple of 8.
	K int

	// Precode enables the LDPC precode: blocks are extended with C parity
	// bits before LT encoding and the BP decoder is primed with the
	// constraint relations.
	Precode bool

	// C is the number of precode parity symbols.
	C int

	// Density is the fraction of ones in the constraint matrix, in (0,1).
	Density float64

	// Overhead is the number of symbols the BP decoder accepts before
	// escalating to the Gaussian fallback. 0 means never escalate.
	Overhead int

	// Seed initializes the injected PRNG.
	Seed int64

	// DegreeCDF optionally overrides the encoder degree distribution. It
	// must be a one-based CDF over the encoded vector length (K, or K+C
	// with precoding). nil selects the uniform distribution.
	DegreeCDF []float64
}

// validate checks the configuration. Violations are fatal at setup time.
func (c Config) validate() error {
	if c.K <= 0 || c.K%8 != 0 {
		return configErrorf("K must be a positive multiple of 8, got %d", c.K)
	}
	if c.C < 0 {
		return configErrorf("constraint symbol count must be non-negative, got %d", c.C)
	}
	if c.Overhead < 0 {
		return configErrorf("escalation threshold must be non-negative, got %d", c.Overhead)
	}
	if c.Precode {
		if c.C < 1 {
			return configErrorf("precode requires at least 1 constraint symbol, got %d", c.C)
		}
		if c.Density <= 0 || c.Density >= 1 {
			return configErrorf("density must be in (0,1), got %v", c.Density)
		}
		if c.Overhead <= 0 {
			return configErrorf("precode requires a positive escalation threshold, got %d", c.Overhead)
		}
	}
	return nil
}

// Metrics records the outcome of one run over a stream.
type Metrics struct {
	// K is the source symbols per block.
	K int

	// Precode records whether the LDPC precode was enabled, with C parity
	// symbols at the given Density.
	Precode bool
	C       int
	Density float64

	// SourceBlocks is how many source blocks the stream framed into.
	SourceBlocks int

	// ProcessedBlocks is the total number of encoded symbols fed to the
	// decoders across all blocks.
	ProcessedBlocks int

	// Overhead is ProcessedBlocks per source block.
	Overhead float64

	// SymbolOperations is the total BP coefficient elimination count.
	SymbolOperations int

	// EscalationThreshold echoes the configured overhead threshold.
	EscalationThreshold int

	// Failures is the number of blocks that could not be decoded.
	Failures int
}

// RunGauss encodes and decodes every block of r with the Gaussian decoder
// and returns the reconstructed bytes plus run metrics. The Gaussian path
// does not use the precode; symbols are fed until the accumulated system
// reaches full rank.
func RunGauss(r io.Reader, cfg Config) ([]byte, Metrics, error) {
	m := Metrics{K: cfg.K, EscalationThreshold: cfg.Overhead}
	if err := cfg.validate(); err != nil {
		return nil, m, err
	}

	random := rand.New(NewMersenneTwister(cfg.Seed))
	src, err := NewBlockSource(r, cfg.K)
	if err != nil {
		return nil, m, err
	}

	var out []byte
	lastOK := false
	for {
		block, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, m, err
		}
		m.SourceBlocks++

		enc := NewEncoder(block, random, cfg.DegreeCDF)
		dec := NewGaussDecoder(cfg.K)

		var decoded *BitVector
		for dec.Received() < maxSymbolFactor*cfg.K {
			if err := dec.Add(enc.Generate()); err != nil {
				return nil, m, err
			}
			if dec.Rows() >= cfg.K && dec.FullRank() {
				decoded, err = dec.Decode()
				if err != nil {
					return nil, m, err
				}
				break
			}
		}
		m.ProcessedBlocks += dec.Received()

		lastOK = decoded != nil
		if decoded == nil {
			m.Failures++
			continue
		}
		out = append(out, decoded.Bytes()...)
	}

	finishMetrics(&m)
	return stripPad(out, src, lastOK), m, nil
}

// RunBP encodes and decodes every block of r with the belief propagation
// decoder, precoding each block first when configured, and returns the
// reconstructed bytes plus run metrics. A block whose decode fails is
// recorded and skipped; the run continues with the next block.
func RunBP(r io.Reader, cfg Config) ([]byte, Metrics, error) {
	m := Metrics{
		K:                   cfg.K,
		Precode:             cfg.Precode,
		C:                   cfg.C,
		Density:             cfg.Density,
		EscalationThreshold: cfg.Overhead,
	}
	if err := cfg.validate(); err != nil {
		return nil, m, err
	}

	random := rand.New(NewMersenneTwister(cfg.Seed))

	var g *ConstraintMatrix
	if cfg.Precode {
		var err error
		g, err = GenerateConstraintMatrix(cfg.K, cfg.C, cfg.Density, random)
		if err != nil {
			return nil, m, err
		}
	}

	src, err := NewBlockSource(r, cfg.K)
	if err != nil {
		return nil, m, err
	}

	var out []byte
	lastOK := false
	for {
		block, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, m, err
		}
		m.SourceBlocks++

		vec := block
		if g != nil {
			vec = g.Precode(block)
		}
		enc := NewEncoder(vec, random, cfg.DegreeCDF)
		dec, err := NewBPDecoder(cfg.K, g, cfg.Overhead)
		if err != nil {
			return nil, m, err
		}
		dec.Prime()

		var decoded *BitVector
		for dec.Processed() < maxSymbolFactor*cfg.K {
			bits, err := dec.Add(enc.Generate())
			if err != nil {
				if errors.Cause(err) == ErrDecodeFailed {
					break
				}
				return nil, m, err
			}
			if bits != nil {
				decoded = bits
				break
			}
		}
		m.ProcessedBlocks += dec.Processed()
		m.SymbolOperations += dec.SymbolOperations()

		lastOK = decoded != nil
		if decoded == nil {
			m.Failures++
			continue
		}
		out = append(out, decoded.Bytes()...)
	}

	finishMetrics(&m)
	return stripPad(out, src, lastOK), m, nil
}

// finishMetrics derives the per-block overhead ratio.
func finishMetrics(m *Metrics) {
	if m.SourceBlocks > 0 {
		m.Overhead = float64(m.ProcessedBlocks) / float64(m.SourceBlocks)
	}
}

// stripPad drops the zero pad bytes of the final block, provided that block
// was decoded (a failed final block contributed no output to trim).
func stripPad(out []byte, src *BlockSource, lastOK bool) []byte {
	if lastOK && src.PadLast() > 0 {
		out = out[:len(out)-src.PadLast()/8]
	}
	return out
}
