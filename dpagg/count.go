//
// Copyright 2020 Google LLC
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

package dpagg

import (
	"fmt"

	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/noise"
)

// LaplaceCount calculates a differentially private count of boolean records
// using the Laplace mechanism with scale 1/ε.
//
// Records may be added after a count was read. The noise of a count is kept
// until the true count changes, so reading the same count twice returns the
// same value and spends no additional budget. Every read that follows a
// change draws fresh noise; releasing a count after every record therefore
// composes linearly in the number of releases, which is what the continual
// mechanisms avoid.
//
// The returned count is an unbiased estimate of the true count.
//
// Not thread-safe.
type LaplaceCount struct {
	// Parameters
	epsilon float64
	scale   float64
	noise   noise.Source

	// State variables
	count      int64
	noisyCount float64
	stale      bool // whether noisyCount was computed before the last change of count
	reads      int
}

// LaplaceCountOptions contains the options necessary to initialize a LaplaceCount.
type LaplaceCountOptions struct {
	Epsilon float64      // Privacy parameter ε of a single release. Required.
	Noise   noise.Source // Source of Laplace noise. Defaults to noise.Secure().
}

// NewLaplaceCount returns a new LaplaceCount, initialized at 0.
func NewLaplaceCount(opt *LaplaceCountOptions) (*LaplaceCount, error) {
	if opt == nil {
		opt = &LaplaceCountOptions{}
	}
	if err := checks.CheckEpsilonStrict("NewLaplaceCount", opt.Epsilon); err != nil {
		return nil, err
	}
	scale := 1 / opt.Epsilon
	if err := checks.CheckLaplaceScale("NewLaplaceCount", scale); err != nil {
		return nil, err
	}
	n := opt.Noise
	if n == nil {
		n = noise.Secure()
	}
	return &LaplaceCount{
		epsilon: opt.Epsilon,
		scale:   scale,
		noise:   n,
		stale:   true,
	}, nil
}

// ProcessRecord adds a record to the count. Only true records change it.
func (c *LaplaceCount) ProcessRecord(r bool) {
	if r {
		c.count++
		c.stale = true
	}
}

// TrueCount returns the raw count. It is not differentially private.
func (c *LaplaceCount) TrueCount() int64 {
	return c.count
}

// Count returns a differentially private estimate of the current count.
//
// The returned value may be negative or fractional. Rounding or clamping it
// is post-processing and keeps the privacy guarantee, but introduces bias.
func (c *LaplaceCount) Count() float64 {
	if c.stale {
		c.noisyCount = float64(c.count) + c.noise.Laplace(c.scale)
		c.stale = false
		c.reads++
	}
	return c.noisyCount
}

// Epsilon returns the privacy budget of a single release.
func (c *LaplaceCount) Epsilon() float64 {
	return c.epsilon
}

// Releases returns the number of distinct noisy counts returned so far. The
// total budget spent is Releases()·Epsilon().
func (c *LaplaceCount) Releases() int {
	return c.reads
}

// ComputeConfidenceInterval computes a confidence interval around the last
// count returned by Count that contains the true count with a probability of
// at least 1 - alpha. It consumes no privacy budget.
func (c *LaplaceCount) ComputeConfidenceInterval(alpha float64) (noise.ConfidenceInterval, error) {
	if c.reads == 0 {
		return noise.ConfidenceInterval{}, fmt.Errorf("Count() must be called before calling ComputeConfidenceInterval()")
	}
	return noise.ComputeConfidenceIntervalLaplace(c.noisyCount, c.scale, alpha)
}
