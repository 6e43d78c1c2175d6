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

// Package checks contains checks for differentially private functions.
package checks

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// MaxLaplaceScale is the largest Laplace scale accepted by the noise package.
// It corresponds to a per-draw epsilon of 2⁻⁵⁰ at unit sensitivity, below which
// the secure sampler can no longer bound the probability of overflows.
var MaxLaplaceScale = math.Exp2(50.0)

// CheckEpsilonVeryStrict returns an error if ε is +∞ or less than 2⁻⁵⁰.
func CheckEpsilonVeryStrict(label string, epsilon float64) error {
	if epsilon < math.Exp2(-50.0) || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s: Epsilon is %f, must be at least 2^-50 and finite", label, epsilon)
	}
	return nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(label string, epsilon float64) error {
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s: Epsilon is %f, must be strictly positive and finite", label, epsilon)
	}
	return nil
}

// CheckHorizon returns an error if the horizon T is less than 2. A horizon of 1
// would give the binary mechanism a noise scale of log₂(1)/ε = 0.
func CheckHorizon(label string, horizon int64) error {
	if horizon < 2 {
		return fmt.Errorf("%s: Horizon is %d, must be at least 2", label, horizon)
	}
	return nil
}

// CheckLaplaceScale returns an error if scale is nonpositive, not finite or
// larger than MaxLaplaceScale.
func CheckLaplaceScale(label string, scale float64) error {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return fmt.Errorf("%s: Laplace scale is %f, must be strictly positive and finite", label, scale)
	}
	if scale > MaxLaplaceScale {
		return fmt.Errorf("%s: Laplace scale is %e, must be at most 2^50", label, scale)
	}
	return nil
}

// CheckAlpha returns an error if the supplied alpha is not between 0 and 1.
func CheckAlpha(label string, alpha float64) error {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return fmt.Errorf("%s: Alpha is %f, must be within (0, 1) and finite", label, alpha)
	}
	return nil
}

// CheckProbability returns an error if p is outside of [0, 1].
func CheckProbability(label string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%s: probability is %f, must be within [0, 1]", label, p)
	}
	if p == 0 || p == 1 {
		log.Warningf("%s: probability is %f, every generated event will be identical", label, p)
	}
	return nil
}

// CheckStreamLength returns an error if n is negative.
func CheckStreamLength(label string, n int64) error {
	if n < 0 {
		return fmt.Errorf("%s: stream length is %d, cannot be negative", label, n)
	}
	return nil
}
