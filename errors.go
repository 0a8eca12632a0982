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

var (
	// ErrDegenerateMatrix is returned when the constraint matrix generator
	// cannot find a full-column-rank matrix within its retry budget. The
	// requested density is too low for the requested number of parity symbols.
	ErrDegenerateMatrix = errors.New("raptor: degenerate density, constraint matrix is rank deficient")

	// ErrUnderdetermined is returned by the Gaussian decoder when elimination
	// hits an all-zero pivot column or the system is inconsistent. More
	// symbols are needed; the decoder remains usable.
	ErrUnderdetermined = errors.New("raptor: system is underdetermined")

	// ErrDecodeFailed is returned by the BP decoder when the escalation
	// threshold is reached and the precode-augmented system is still not
	// solvable. The block is lost.
	ErrDecodeFailed = errors.New("raptor: decode failed after escalation")
)

// configErrorf builds a configuration error. Configuration errors are fatal
// at setup time.
func configErrorf(format string, args ...interface{}) error {
	return errors.Errorf("raptor: config: "+format, args...)
}
