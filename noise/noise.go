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

// Package noise contains the sources of Laplace noise used by the counting
// mechanisms, and confidence intervals for values noised with them.
package noise

import (
	"fmt"

	log "github.com/golang/glog"
)

// Source draws the random values a mechanism needs. Mechanisms receive their
// Source at construction, so whether noise is reproducible is up to the
// caller.
//
// A Source is owned by a single caller at a time; several mechanisms may share
// one as long as they are stepped sequentially.
type Source interface {
	// Laplace returns a sample of a zero-mean Laplace distribution with the
	// given scale. The scale must satisfy checks.CheckLaplaceScale.
	Laplace(scale float64) float64

	// Uniform returns a sample of the uniform distribution on (0, 1].
	Uniform() float64
}

// Kind is an enum type. Its values are the supported noise sources.
type Kind int

// Noise sources used by the mechanisms.
const (
	SecureLaplace Kind = iota
	SeededLaplace
	Unrecognised
)

var kindNames = map[Kind]string{
	SecureLaplace: "secure",
	SeededLaplace: "seeded",
	Unrecognised:  "unrecognised",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a configuration value ("secure" or "seeded") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "secure":
		return SecureLaplace, nil
	case "seeded":
		return SeededLaplace, nil
	}
	return Unrecognised, fmt.Errorf("ParseKind: unknown noise %q, want one of \"secure\", \"seeded\"", s)
}

// ToSource converts a Kind into a Source. The seed is only used by
// SeededLaplace.
func ToSource(k Kind, seed uint64) Source {
	switch k {
	case SecureLaplace:
		return Secure()
	case SeededLaplace:
		return Seeded(seed)
	case Unrecognised:
		log.Warningf("ToSource: Unrecognised noise specified, returning nil")
	default:
		log.Warningf("ToSource: unknown kind (%v) specified, returning nil", k)
	}
	return nil
}

// ConfidenceInterval holds lower and upper bounds as float64 for the confidence interval.
type ConfidenceInterval struct {
	LowerBound, UpperBound float64
}
