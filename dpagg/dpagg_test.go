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
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// This file contains fakes and values used to test the one-shot counters.

var (
	ln2    = math.Log(2)
	ln3    = math.Log(3)
	tenten = math.Pow10(-10)
)

// noNoise is a Source that adds no noise and whose uniform draws are always 1.
type noNoise struct{}

func (noNoise) Laplace(_ float64) float64 { return 0 }
func (noNoise) Uniform() float64         { return 1 }

// scriptedNoise returns its Laplace and uniform values in order, cycling when
// exhausted, and counts the draws.
type scriptedNoise struct {
	laplace   []float64
	uniform   []float64
	lDraws    int
	uDraws    int
	lastScale float64
}

func (s *scriptedNoise) Laplace(scale float64) float64 {
	s.lastScale = scale
	v := s.laplace[s.lDraws%len(s.laplace)]
	s.lDraws++
	return v
}

func (s *scriptedNoise) Uniform() float64 {
	v := s.uniform[s.uDraws%len(s.uniform)]
	s.uDraws++
	return v
}

func approxEqual(x, y float64) bool {
	return cmp.Equal(x, y, cmpopts.EquateApprox(0, tenten))
}
