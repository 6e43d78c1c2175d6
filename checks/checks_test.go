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

package checks

import (
	"math"
	"testing"
)

func TestCheckEpsilonVeryStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"epsilon < 2⁻⁵⁰",
			math.Exp2(-51.0),
			true},
		{"epsilon == 2⁻⁵⁰",
			math.Exp2(-50.0),
			false},
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"positive epsilon",
			50,
			false},
	} {
		if err := CheckEpsilonVeryStrict("test", tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonVeryStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilonStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is negative infinity",
			math.Inf(-1),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"tiny positive epsilon",
			math.Exp2(-60.0),
			false},
		{"positive epsilon",
			3,
			false},
	} {
		if err := CheckEpsilonStrict("test", tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckHorizon(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		horizon int64
		wantErr bool
	}{
		{"negative horizon", -8, true},
		{"zero horizon", 0, true},
		{"horizon of one", 1, true},
		{"horizon of two", 2, false},
		{"large horizon", math.MaxInt64, false},
	} {
		if err := CheckHorizon("test", tc.horizon); (err != nil) != tc.wantErr {
			t.Errorf("CheckHorizon: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckLaplaceScale(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		scale   float64
		wantErr bool
	}{
		{"negative scale", -1, true},
		{"zero scale", 0, true},
		{"scale is NaN", math.NaN(), true},
		{"scale is infinity", math.Inf(1), true},
		{"scale above 2⁵⁰", math.Exp2(51.0), true},
		{"scale == 2⁵⁰", math.Exp2(50.0), false},
		{"unit scale", 1, false},
	} {
		if err := CheckLaplaceScale("test", tc.scale); (err != nil) != tc.wantErr {
			t.Errorf("CheckLaplaceScale: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckAlpha(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		alpha   float64
		wantErr bool
	}{
		{"alpha is zero", 0, true},
		{"alpha is one", 1, true},
		{"alpha is NaN", math.NaN(), true},
		{"alpha is negative", -0.1, true},
		{"alpha is in (0, 1)", 0.05, false},
	} {
		if err := CheckAlpha("test", tc.alpha); (err != nil) != tc.wantErr {
			t.Errorf("CheckAlpha: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckProbability(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		p       float64
		wantErr bool
	}{
		{"p is negative", -0.5, true},
		{"p is above one", 1.5, true},
		{"p is NaN", math.NaN(), true},
		{"p is zero", 0, false},
		{"p is one", 1, false},
		{"p is one half", 0.5, false},
	} {
		if err := CheckProbability("test", tc.p); (err != nil) != tc.wantErr {
			t.Errorf("CheckProbability: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckStreamLength(t *testing.T) {
	if err := CheckStreamLength("test", -1); err == nil {
		t.Errorf("CheckStreamLength: for negative length got nil error, want error")
	}
	if err := CheckStreamLength("test", 0); err != nil {
		t.Errorf("CheckStreamLength: for empty stream got %v, want nil", err)
	}
}
