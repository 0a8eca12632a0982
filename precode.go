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

// Precode produces the length-(K+c) intermediate block for a length-K source
// block by appending one parity bit per column of G. Parity bit i is the XOR
// of the source bits selected by column i, so that for the intermediate block
// m, XOR over j of G[j,i]·m[j] equals m[K+i].
//
// Each parity bit adds redundancy and gives the peeling decoder a
// degree-one resolution opportunity when it stalls.
func (g *ConstraintMatrix) Precode(src *BitVector) *BitVector {
	parity := NewBitVector(g.Cols())
	for i, col := range g.cols {
		parity.SetBit(i, col.dot(src))
	}
	return src.Append(parity)
}
