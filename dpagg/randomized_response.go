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

package dpagg

import (
	"math"

	log "github.com/golang/glog"
	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/noise"
)

// RandomizedResponseCount counts records that were randomized at the source
// by CreateRecord. Each record reports the truth with probability
// q = 1/(1+e^ε) and its negation otherwise, so the count of reported records
// is ε-differentially private with respect to any single record without
// adding noise to the count itself.
//
// Not thread-safe.
type RandomizedResponseCount struct {
	// Parameters
	epsilon float64
	q       float64
	noise   noise.Source

	// State variables
	count   int64
	records int64
}

// RandomizedResponseCountOptions contains the options necessary to initialize a RandomizedResponseCount.
type RandomizedResponseCountOptions struct {
	Epsilon float64      // Privacy parameter ε of a single record. Required.
	Noise   noise.Source // Source of the uniform draws of CreateRecord. Defaults to noise.Secure().
}

// NewRandomizedResponseCount returns a new RandomizedResponseCount, initialized at 0.
func NewRandomizedResponseCount(opt *RandomizedResponseCountOptions) (*RandomizedResponseCount, error) {
	if opt == nil {
		opt = &RandomizedResponseCountOptions{}
	}
	if err := checks.CheckEpsilonVeryStrict("NewRandomizedResponseCount", opt.Epsilon); err != nil {
		return nil, err
	}
	n := opt.Noise
	if n == nil {
		n = noise.Secure()
	}
	return &RandomizedResponseCount{
		epsilon: opt.Epsilon,
		q:       1 / (1 + math.Exp(opt.Epsilon)),
		noise:   n,
	}, nil
}

// CreateRecord randomizes a true value: it is kept if a uniform draw is at
// most q and negated otherwise.
func (c *RandomizedResponseCount) CreateRecord(truth bool) bool {
	if c.noise.Uniform() <= c.q {
		return truth
	}
	return !truth
}

// ProcessRecord adds a randomized record to the count.
func (c *RandomizedResponseCount) ProcessRecord(r bool) {
	c.records++
	if r {
		c.count++
	}
}

// Count returns the number of true records processed. If every record was
// produced by CreateRecord it is differentially private.
func (c *RandomizedResponseCount) Count() int64 {
	return c.count
}

// Records returns the number of records processed.
func (c *RandomizedResponseCount) Records() int64 {
	return c.records
}

// Q returns the probability that CreateRecord keeps the true value.
func (c *RandomizedResponseCount) Q() float64 {
	return c.q
}

// Epsilon returns the privacy budget of a single record.
func (c *RandomizedResponseCount) Epsilon() float64 {
	return c.epsilon
}

// UnbiasedCount returns an unbiased estimate of the number of true values
// before randomization, obtained by inverting the expected count
// Records()·(1-q) + x·(2q-1). It may lie outside [0, Records()].
func (c *RandomizedResponseCount) UnbiasedCount() float64 {
	n := float64(c.records)
	return (float64(c.count) - n*(1-c.q)) / (2*c.q - 1)
}

// ClampedUnbiasedCount returns UnbiasedCount clamped to [0, Records()].
func (c *RandomizedResponseCount) ClampedUnbiasedCount() float64 {
	clamped, err := ClampFloat64(c.UnbiasedCount(), 0, float64(c.records))
	if err != nil {
		log.Fatalf("ClampedUnbiasedCount: %v", err)
	}
	return clamped
}
