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
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// A BlockSource converts a raw byte stream into a finite sequence of K-bit
// source blocks. The final block is zero-padded on the right up to K bits;
// the pad length is recorded so the trailing zero run can be stripped after
// decoding. Byte-aligned framing keeps the bit packing simple, which is why
// K must be a multiple of 8.
type BlockSource struct {
	br *bitio.Reader
	k  int

	// blocks is how many source blocks have been emitted so far.
	blocks int

	// padLast is the number of zero pad bits in the final emitted block.
	padLast int

	done bool
}

// NewBlockSource creates a block source reading K-bit blocks from r.
// K must be a positive multiple of 8.
func NewBlockSource(r io.Reader, k int) (*BlockSource, error) {
	if k <= 0 || k%8 != 0 {
		return nil, configErrorf("K must be a positive multiple of 8, got %d", k)
	}
	return &BlockSource{br: bitio.NewReader(r), k: k}, nil
}

// Next returns the next source block, or io.EOF once the stream is exhausted.
// A stream ending exactly on a block boundary emits no empty final block.
// Any other read failure aborts the source.
func (s *BlockSource) Next() (*BitVector, error) {
	if s.done {
		return nil, io.EOF
	}

	block := NewBitVector(s.k)
	for i := 0; i < s.k; i++ {
		bit, err := s.br.ReadBool()
		if err == io.EOF {
			s.done = true
			if i == 0 {
				return nil, io.EOF
			}
			s.padLast = s.k - i
			s.blocks++
			return block, nil
		}
		if err != nil {
			s.done = true
			return nil, errors.Wrap(err, "raptor: read source block")
		}
		if bit {
			block.Set(i)
		}
	}
	s.blocks++
	return block, nil
}

// Blocks returns how many source blocks have been emitted.
func (s *BlockSource) Blocks() int {
	return s.blocks
}

// PadLast returns the number of zero pad bits in the final block, or 0 if the
// stream ended on a block boundary (or has not ended yet).
func (s *BlockSource) PadLast() int {
	return s.padLast
}
