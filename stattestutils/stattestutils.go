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

// Package stattestutils provides helpers to inspect streams and sequences of
// releases.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import (
	"math/rand"
	"sort"
)

// RandomStream returns n events that are true with probability 1/2, drawn from
// r.
func RandomStream(r *rand.Rand, n int) []bool {
	stream := make([]bool, n)
	for i := range stream {
		stream[i] = r.Intn(2) == 1
	}
	return stream
}

// RunningCounts returns the number of true events among the first i+1 events
// of stream, for every i.
func RunningCounts(stream []bool) []int64 {
	counts := make([]int64, len(stream))
	var count int64
	for i, e := range stream {
		if e {
			count++
		}
		counts[i] = count
	}
	return counts
}

// DistinctCount returns the number of distinct values in values.
func DistinctCount(values []float64) int {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

// ChangePoints returns the 1-based steps at which a release differs from the
// one before it. The release before step 1 is initial.
func ChangePoints(initial float64, releases []float64) []int64 {
	var steps []int64
	prev := initial
	for i, v := range releases {
		if v != prev {
			steps = append(steps, int64(i+1))
		}
		prev = v
	}
	return steps
}
