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

// HybridMechanism combines a LogarithmicMechanism with a sequence of
// BinaryMechanism epochs. The logarithmic mechanism anchors the count at every
// power of two; between checkpoints 2^k and 2^(k+1) a binary mechanism with
// horizon 2^k counts the events since the last checkpoint. Unlike the
// BinaryMechanism it needs no horizon, and unlike the LogarithmicMechanism its
// releases are fresh at every step.
//
// Each component gets half of the privacy budget. The binary epochs cover
// disjoint stretches of the stream and each is created with the full ε/2
// share.
//
// Not thread-safe.
type HybridMechanism struct {
	// Parameters
	epsilon float64
	noise   noise.Source

	// State variables
	logarithmic *LogarithmicMechanism
	binary      *BinaryMechanism // current epoch, replaced at every checkpoint
	t           int64            // 1-based index of the next step
	prevOutput  float64
	prevBinary  bool // whether prevOutput includes the binary epoch
	state       mechanismState
	err         error
}

// maxEpochLevels is log₂ of the horizon of the last epoch a HybridMechanism can
// start.
const maxEpochLevels = 62

// HybridMechanismOptions contains the options necessary to initialize a HybridMechanism.
type HybridMechanismOptions struct {
	Epsilon float64      // Privacy parameter ε for the whole stream. Required.
	Noise   noise.Source // Source of Laplace noise, shared by both components. Defaults to noise.Secure().
}

// NewHybridMechanism returns a HybridMechanism that has not seen any event.
func NewHybridMechanism(opt *HybridMechanismOptions) (*HybridMechanism, error) {
	if opt == nil {
		opt = &HybridMechanismOptions{}
	}
	if err := checks.CheckEpsilonStrict("NewHybridMechanism", opt.Epsilon); err != nil {
		return nil, err
	}
	n := opt.Noise
	if n == nil {
		n = noise.Secure()
	}
	half := opt.Epsilon / 2
	// Epochs start at checkpoints up to 2⁶², the largest power of two a step
	// index can reach, and their noise scale log₂(t)/(ε/2) grows with t.
	if err := checks.CheckLaplaceScale("NewHybridMechanism", maxEpochLevels/half); err != nil {
		return nil, err
	}
	l, err := NewLogarithmicMechanism(&LogarithmicMechanismOptions{Epsilon: half, Noise: n})
	if err != nil {
		return nil, fmt.Errorf("NewHybridMechanism: %w", err)
	}
	b, err := NewBinaryMechanism(&BinaryMechanismOptions{Epsilon: half, Horizon: 2, Noise: n})
	if err != nil {
		return nil, fmt.Errorf("NewHybridMechanism: %w", err)
	}
	return &HybridMechanism{
		epsilon:     opt.Epsilon,
		noise:       n,
		logarithmic: l,
		binary:      b,
		t:           1,
		state:       live,
	}, nil
}

// StepForward consumes the event of the next step and returns the noisy
// running count.
func (hm *HybridMechanism) StepForward(event bool) (float64, error) {
	if hm.state == inconsistent {
		return 0, hm.err
	}
	t := hm.t
	lOut, err := hm.logarithmic.StepForward(event)
	if err != nil {
		return 0, hm.fail(err)
	}
	hm.t++

	if t > 1 && isPowerOfTwo(t) {
		// The epoch since the previous checkpoint is complete and the
		// logarithmic release now covers it. The new epoch starts counting at
		// the next step.
		next, err := NewBinaryMechanism(&BinaryMechanismOptions{Epsilon: hm.epsilon / 2, Horizon: t, Noise: hm.noise})
		if err != nil {
			return 0, hm.fail(fmt.Errorf("starting epoch at step %d: %w", t, err))
		}
		hm.binary = next
		hm.prevOutput, hm.prevBinary = lOut, false
		return lOut, nil
	}

	bOut, err := hm.binary.StepForward(event)
	if err != nil {
		return 0, hm.fail(err)
	}
	hm.prevOutput, hm.prevBinary = lOut+bOut, true
	return hm.prevOutput, nil
}

func (hm *HybridMechanism) fail(err error) error {
	hm.state = inconsistent
	hm.err = fmt.Errorf("HybridMechanism: %w", err)
	return hm.err
}

// Epsilon returns the privacy budget of the mechanism.
func (hm *HybridMechanism) Epsilon() float64 {
	return hm.epsilon
}

// Steps returns the number of events consumed.
func (hm *HybridMechanism) Steps() int64 {
	return hm.t - 1
}

// ComputeConfidenceInterval computes a confidence interval around the last
// release that contains the value it estimates with a probability of at least
// 1 - alpha. It consumes no privacy budget.
func (hm *HybridMechanism) ComputeConfidenceInterval(alpha float64) (noise.ConfidenceInterval, error) {
	if hm.Steps() == 0 {
		return noise.ConfidenceInterval{}, fmt.Errorf("StepForward() must be called before calling ComputeConfidenceInterval()")
	}
	scales := hm.logarithmic.noiseScales()
	if hm.prevBinary {
		scales = append(scales, hm.binary.noiseScales()...)
	}
	return noise.ComputeConfidenceIntervalLaplaceSum(hm.prevOutput, scales, alpha)
}
