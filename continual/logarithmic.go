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

package continual

import (
	"fmt"

	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/noise"
)

// LogarithmicMechanism releases a new noisy running count only at steps that
// are powers of two and repeats it in between. Each checkpoint adds one draw
// of Laplace noise with scale 1/ε to the running sum, so a stream of length N
// sees ⌊log₂ N⌋+1 draws.
//
// It works for streams of unbounded length, but its releases are stale
// between checkpoints.
//
// Not thread-safe.
type LogarithmicMechanism struct {
	// Parameters
	epsilon float64
	noise   noise.Source

	// State variables
	beta       float64 // true running count plus the noise of every checkpoint so far
	t          int64   // 1-based index of the next step
	prevOutput float64
	releases   int
}

// LogarithmicMechanismOptions contains the options necessary to initialize a LogarithmicMechanism.
type LogarithmicMechanismOptions struct {
	Epsilon float64      // Privacy parameter ε for the whole stream. Required.
	Noise   noise.Source // Source of Laplace noise. Defaults to noise.Secure().
}

// NewLogarithmicMechanism returns a LogarithmicMechanism that has not seen any event.
func NewLogarithmicMechanism(opt *LogarithmicMechanismOptions) (*LogarithmicMechanism, error) {
	if opt == nil {
		opt = &LogarithmicMechanismOptions{}
	}
	if err := checks.CheckEpsilonStrict("NewLogarithmicMechanism", opt.Epsilon); err != nil {
		return nil, err
	}
	if err := checks.CheckLaplaceScale("NewLogarithmicMechanism", 1/opt.Epsilon); err != nil {
		return nil, err
	}
	n := opt.Noise
	if n == nil {
		n = noise.Secure()
	}
	return &LogarithmicMechanism{
		epsilon: opt.Epsilon,
		noise:   n,
		t:       1,
	}, nil
}

// StepForward consumes the event of the next step and returns the release of
// the latest checkpoint.
func (lm *LogarithmicMechanism) StepForward(event bool) (float64, error) {
	lm.beta += float64(boolToInt64(event))
	t := lm.t
	lm.t++
	if !isPowerOfTwo(t) {
		return lm.prevOutput, nil
	}
	lm.beta += lm.noise.Laplace(1 / lm.epsilon)
	lm.prevOutput = lm.beta
	lm.releases++
	return lm.prevOutput, nil
}

// Epsilon returns the privacy budget of the mechanism.
func (lm *LogarithmicMechanism) Epsilon() float64 {
	return lm.epsilon
}

// Steps returns the number of events consumed.
func (lm *LogarithmicMechanism) Steps() int64 {
	return lm.t - 1
}

// Releases returns the number of checkpoints released so far.
func (lm *LogarithmicMechanism) Releases() int {
	return lm.releases
}

// noiseScales returns the scale of every noise draw in the last release.
func (lm *LogarithmicMechanism) noiseScales() []float64 {
	scales := make([]float64, lm.releases)
	for i := range scales {
		scales[i] = 1 / lm.epsilon
	}
	return scales
}

// ComputeConfidenceInterval computes a confidence interval that contains the
// true count at the latest checkpoint with a probability of at least
// 1 - alpha. Events after the checkpoint are not covered.
func (lm *LogarithmicMechanism) ComputeConfidenceInterval(alpha float64) (noise.ConfidenceInterval, error) {
	if lm.releases == 0 {
		return noise.ConfidenceInterval{}, fmt.Errorf("StepForward() must be called before calling ComputeConfidenceInterval()")
	}
	return noise.ComputeConfidenceIntervalLaplaceSum(lm.prevOutput, lm.noiseScales(), alpha)
}
