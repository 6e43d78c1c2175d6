//
// Copyright 2026 The dpstream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package continual contains counters that release a differentially private
// running count after every event of a stream (continual observation).
//
// All mechanisms satisfy ε-differential privacy for the whole stream, where ε
// is the privacy budget passed at construction: the budget is spread over a
// logarithmic number of noise draws instead of being paid again at every
// release.
//
// Mechanisms are not thread-safe. Each instance has a single owner that feeds
// it one event per logical time step.
package continual

import (
	"errors"
	"math/bits"
)

// Mechanism releases a noisy running count after every event.
type Mechanism interface {
	// StepForward consumes the event of the next time step and returns a
	// differentially private estimate of the number of true events so far.
	StepForward(event bool) (float64, error)
}

// ErrInconsistentState is returned when a partial sum that must be present by
// construction is missing. It indicates a bug; the mechanism that reports it
// refuses any further events.
var ErrInconsistentState = errors.New("continual: partial sums are inconsistent")

// isPowerOfTwo reports whether t is an exact power of two.
func isPowerOfTwo(t int64) bool {
	return t > 0 && t&(t-1) == 0
}

// lowestSetBit returns the index of the least significant set bit of t > 0.
// It is the level of the dyadic interval that ends exactly at step t.
func lowestSetBit(t int64) int {
	return bits.TrailingZeros64(uint64(t))
}

// levelsFor returns the number of p-sum levels a horizon needs, ⌈log₂ T⌉ + 1.
func levelsFor(horizon int64) int {
	return bits.Len64(uint64(horizon-1)) + 1
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
