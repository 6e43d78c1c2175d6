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
	"math"

	log "github.com/golang/glog"
	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/noise"
)

// pSum is the partial sum of one level: the exact number of true events in a
// dyadic interval of length 2^level, and its noised value. A slot that is not
// live holds no interval.
type pSum struct {
	live  bool
	exact int64
	noisy float64
}

// BinaryMechanism releases a running count over a fixed horizon T by keeping
// one noisy partial sum per set bit of the current time step. Every event is
// part of at most ⌈log₂ T⌉+1 noised partial sums, and every release adds up at
// most that many noise draws, so the error at any step is polylogarithmic in
// T.
//
// After T steps the mechanism is exhausted: further calls to StepForward
// return the last release and spend no privacy budget.
//
// Not thread-safe.
type BinaryMechanism struct {
	// Parameters
	epsilon    float64
	horizon    int64
	noiseScale float64
	noise      noise.Source

	// State variables
	psums       []pSum
	time        int64 // 1-based index of the next step
	prevOutput  float64
	outputTerms int // number of noisy p-sums in prevOutput
	state       mechanismState
	err         error // set when state is inconsistent
}

// BinaryMechanismOptions contains the options necessary to initialize a BinaryMechanism.
type BinaryMechanismOptions struct {
	Epsilon float64      // Privacy parameter ε for the whole stream. Required.
	Horizon int64        // Maximum number of steps T. Required, at least 2.
	Noise   noise.Source // Source of Laplace noise. Defaults to noise.Secure().
}

// NewBinaryMechanism returns a BinaryMechanism that has not seen any event.
func NewBinaryMechanism(opt *BinaryMechanismOptions) (*BinaryMechanism, error) {
	if opt == nil {
		opt = &BinaryMechanismOptions{} // Prevents panicking due to a nil pointer dereference.
	}
	if err := checks.CheckEpsilonStrict("NewBinaryMechanism", opt.Epsilon); err != nil {
		return nil, err
	}
	if err := checks.CheckHorizon("NewBinaryMechanism", opt.Horizon); err != nil {
		return nil, err
	}
	scale := math.Log2(float64(opt.Horizon)) / opt.Epsilon
	if err := checks.CheckLaplaceScale("NewBinaryMechanism", scale); err != nil {
		return nil, err
	}
	n := opt.Noise
	if n == nil {
		n = noise.Secure()
	}
	return &BinaryMechanism{
		epsilon:    opt.Epsilon,
		horizon:    opt.Horizon,
		noiseScale: scale,
		noise:      n,
		psums:      make([]pSum, levelsFor(opt.Horizon)),
		time:       1,
		state:      live,
	}, nil
}

// StepForward consumes the event of the next step and returns the noisy
// running count.
func (bm *BinaryMechanism) StepForward(event bool) (float64, error) {
	switch bm.state {
	case exhausted:
		return bm.prevOutput, nil
	case inconsistent:
		return 0, bm.err
	}

	// Level i is the dyadic interval ending at this step. It absorbs every
	// lower level, which are all live by the tiling of [1, time-1].
	i := lowestSetBit(bm.time)
	if bm.psums[i].live {
		return 0, bm.fail("level %d is already live at step %d", i, bm.time)
	}
	value := boolToInt64(event)
	for j := 0; j < i; j++ {
		if !bm.psums[j].live {
			return 0, bm.fail("level %d is missing when merging into level %d at step %d", j, i, bm.time)
		}
		value += bm.psums[j].exact
	}
	for j := 0; j < i; j++ {
		bm.psums[j] = pSum{}
	}
	// The only place noise for level i is drawn.
	bm.psums[i] = pSum{
		live:  true,
		exact: value,
		noisy: float64(value) + bm.noise.Laplace(bm.noiseScale),
	}

	var output float64
	terms := 0
	for t := uint64(bm.time); t != 0; t &= t - 1 {
		j := lowestSetBit(int64(t))
		if !bm.psums[j].live {
			return 0, bm.fail("level %d is missing from the release at step %d", j, bm.time)
		}
		output += bm.psums[j].noisy
		terms++
	}

	bm.time++
	bm.prevOutput = output
	bm.outputTerms = terms
	if bm.time > bm.horizon {
		bm.state = exhausted
		log.Warningf("BinaryMechanism: horizon of %d steps reached, further steps repeat the last release", bm.horizon)
	}
	return output, nil
}

func (bm *BinaryMechanism) fail(format string, args ...interface{}) error {
	bm.state = inconsistent
	bm.err = fmt.Errorf("%w: "+format, append([]interface{}{ErrInconsistentState}, args...)...)
	return bm.err
}

// Exhausted reports whether the horizon has been consumed. An exhausted
// mechanism repeats its last release.
func (bm *BinaryMechanism) Exhausted() bool {
	return bm.state == exhausted
}

// Epsilon returns the privacy budget of the mechanism.
func (bm *BinaryMechanism) Epsilon() float64 {
	return bm.epsilon
}

// Horizon returns the number of steps T the mechanism was created for.
func (bm *BinaryMechanism) Horizon() int64 {
	return bm.horizon
}

// NoiseScale returns the scale log₂(T)/ε of the Laplace noise added to each
// partial sum.
func (bm *BinaryMechanism) NoiseScale() float64 {
	return bm.noiseScale
}

// Steps returns the number of events consumed, which is at most the horizon.
func (bm *BinaryMechanism) Steps() int64 {
	return bm.time - 1
}

// noiseScales returns the scale of every noise draw in the last release.
func (bm *BinaryMechanism) noiseScales() []float64 {
	scales := make([]float64, bm.outputTerms)
	for i := range scales {
		scales[i] = bm.noiseScale
	}
	return scales
}

// ComputeConfidenceInterval computes a confidence interval that contains the
// true running count of the last release with a probability of at least
// 1 - alpha. It is computed from the release alone and consumes no privacy
// budget.
func (bm *BinaryMechanism) ComputeConfidenceInterval(alpha float64) (noise.ConfidenceInterval, error) {
	if bm.Steps() == 0 {
		return noise.ConfidenceInterval{}, fmt.Errorf("StepForward() must be called before calling ComputeConfidenceInterval()")
	}
	return noise.ComputeConfidenceIntervalLaplaceSum(bm.prevOutput, bm.noiseScales(), alpha)
}
