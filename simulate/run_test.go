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

package simulate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/privstream/dpstream/continual"
	"github.com/privstream/dpstream/dpagg"
	"github.com/privstream/dpstream/noise"
)

// exactMechanism releases the true running count.
type exactMechanism struct {
	count float64
}

func (m *exactMechanism) StepForward(event bool) (float64, error) {
	if event {
		m.count++
	}
	return m.count, nil
}

// failingMechanism fails at the given 1-based step.
type failingMechanism struct {
	failAt, step int
}

var errBroken = errors.New("broken")

func (m *failingMechanism) StepForward(_ bool) (float64, error) {
	m.step++
	if m.step == m.failAt {
		return 0, errBroken
	}
	return 0, nil
}

// noNoise is a Source that adds no noise and whose uniform draws are always 1.
type noNoise struct{}

func (noNoise) Laplace(_ float64) float64 { return 0 }
func (noNoise) Uniform() float64         { return 1 }

func TestRun(t *testing.T) {
	stream := []bool{true, false, true, true}
	got, err := Run(&exactMechanism{}, stream)
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	want := []Release{
		{Step: 1, TrueCount: 1, NoisedCount: 1},
		{Step: 2, TrueCount: 1, NoisedCount: 1},
		{Step: 3, TrueCount: 2, NoisedCount: 2},
		{Step: 4, TrueCount: 3, NoisedCount: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Run: got diff (-want +got):\n%s", diff)
	}

	got, err = Run(&failingMechanism{failAt: 3}, stream)
	if !errors.Is(err, errBroken) {
		t.Errorf("Run with a mechanism failing at step 3: got err %v, want %v", err, errBroken)
	}
	if len(got) != 2 {
		t.Errorf("Run with a mechanism failing at step 3: got %d releases, want 2", len(got))
	}
}

func TestSummarize(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		releases []Release
		want     Summary
	}{
		{"no releases", nil, Summary{}},
		{
			"single release",
			[]Release{{Step: 1, TrueCount: 1, NoisedCount: -1}},
			Summary{Releases: 1, MeanError: -2, RMSE: 2, MaxAbsError: 2},
		},
		{
			"three releases",
			[]Release{
				{Step: 1, TrueCount: 0, NoisedCount: 1},
				{Step: 2, TrueCount: 1, NoisedCount: 0},
				{Step: 3, TrueCount: 1, NoisedCount: 4},
			},
			Summary{Releases: 3, MeanError: 1, StdDevError: 2, RMSE: math.Sqrt(11.0 / 3), MaxAbsError: 3},
		},
	} {
		got := Summarize(tc.releases)
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("Summarize: when %s got diff (-want +got):\n%s", tc.desc, diff)
		}
	}
}

func TestNewMechanism(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		cfg     *Config
		check   func(continual.Mechanism) bool
		wantErr bool
	}{
		{
			desc: "binary with default horizon",
			cfg:  &Config{Mechanism: Binary, Epsilon: 1, Noise: "seeded"},
			check: func(m continual.Mechanism) bool {
				bm, ok := m.(*continual.BinaryMechanism)
				return ok && bm.Horizon() == 300 && bm.Epsilon() == 1
			},
		},
		{
			desc: "binary with explicit horizon",
			cfg:  &Config{Mechanism: Binary, Epsilon: 1, Horizon: 512},
			check: func(m continual.Mechanism) bool {
				bm, ok := m.(*continual.BinaryMechanism)
				return ok && bm.Horizon() == 512
			},
		},
		{
			desc: "logarithmic",
			cfg:  &Config{Mechanism: Logarithmic, Epsilon: 2, Noise: "seeded"},
			check: func(m continual.Mechanism) bool {
				lm, ok := m.(*continual.LogarithmicMechanism)
				return ok && lm.Epsilon() == 2
			},
		},
		{
			desc: "hybrid",
			cfg:  &Config{Mechanism: Hybrid, Epsilon: 2, Noise: "secure"},
			check: func(m continual.Mechanism) bool {
				hm, ok := m.(*continual.HybridMechanism)
				return ok && hm.Epsilon() == 2
			},
		},
		{
			desc: "laplace",
			cfg:  &Config{Mechanism: Laplace, Epsilon: 1},
			check: func(m continual.Mechanism) bool {
				_, ok := m.(laplaceBaseline)
				return ok
			},
		},
		{
			desc: "randomized response",
			cfg:  &Config{Mechanism: RandomizedResponse, Epsilon: 1},
			check: func(m continual.Mechanism) bool {
				_, ok := m.(randomizedResponseBaseline)
				return ok
			},
		},
		{desc: "unknown mechanism", cfg: &Config{Mechanism: "tree", Epsilon: 1}, wantErr: true},
		{desc: "unknown noise", cfg: &Config{Mechanism: Hybrid, Epsilon: 1, Noise: "gaussian"}, wantErr: true},
		{desc: "invalid epsilon", cfg: &Config{Mechanism: Binary, Epsilon: -1}, wantErr: true},
		{desc: "invalid baseline epsilon", cfg: &Config{Mechanism: Laplace}, wantErr: true},
	} {
		m, err := NewMechanism(tc.cfg, 300)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewMechanism: when %s got err %v, wantErr %t", tc.desc, err, tc.wantErr)
			continue
		}
		if err != nil {
			if m != nil {
				t.Errorf("NewMechanism: when %s got mechanism %v along with an error", tc.desc, m)
			}
			continue
		}
		if !tc.check(m) {
			t.Errorf("NewMechanism: when %s got unexpected mechanism %#v", tc.desc, m)
		}
	}
}

func TestBaselines(t *testing.T) {
	lc, err := dpagg.NewLaplaceCount(&dpagg.LaplaceCountOptions{Epsilon: 1, Noise: noNoise{}})
	if err != nil {
		t.Fatalf("NewLaplaceCount: got err %v", err)
	}
	releases, err := Run(laplaceBaseline{lc}, []bool{true, false, true})
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	for _, r := range releases {
		if r.Deviation() != 0 {
			t.Errorf("laplace baseline without noise at step %d: got %f, want %d", r.Step, r.NoisedCount, r.TrueCount)
		}
	}

	// A uniform draw of 1 flips every event; with q = 1/4 the estimate after
	// n reported false events is 1.5·n.
	rr, err := dpagg.NewRandomizedResponseCount(&dpagg.RandomizedResponseCountOptions{Epsilon: math.Log(3), Noise: noNoise{}})
	if err != nil {
		t.Fatalf("NewRandomizedResponseCount: got err %v", err)
	}
	releases, err = Run(randomizedResponseBaseline{rr}, []bool{true, true})
	if err != nil {
		t.Fatalf("Run: got err %v", err)
	}
	if got := releases[1].NoisedCount; math.Abs(got-3) > 1e-9 {
		t.Errorf("randomized response baseline at step 2: got %f, want 3", got)
	}
	if got := rr.Records(); got != 2 {
		t.Errorf("randomized response baseline: got %d records, want 2", got)
	}
}

func TestStreamIsIndependentOfSeededNoise(t *testing.T) {
	const n = 2000
	for _, seed := range []uint64{0, 7, 42} {
		cfg := &Config{Mechanism: Laplace, Epsilon: 1, Noise: "seeded", Seed: seed, StreamLength: n, EventProbability: 0.5}
		stream, err := Stream(cfg)
		if err != nil {
			t.Fatalf("Stream: got err %v", err)
		}
		src := noise.Seeded(seed)
		agree := 0
		for _, e := range stream {
			if e == (src.Laplace(1) < 0) {
				agree++
			}
		}
		// Independent signs agree with probability 1/2; 4.42 standard
		// deviations of a Binomial(2000, 0.5) is about 99.
		if agree < n/2-99 || agree > n/2+99 {
			t.Errorf("events and seeded noise signs with seed %d: got %d of %d agreeing, want about %d", seed, agree, n, n/2)
		}
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Epsilon = 1
	cfg.Noise = "seeded"
	cfg.Seed = 3
	cfg.StreamLength = 200
	cfg.OutputFile = filepath.Join(dir, "releases.csv")
	cfg.HistogramFile = filepath.Join(dir, "errors.png")
	cfg.ReleasesPlotFile = filepath.Join(dir, "releases.svg")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: got err %v", err)
	}

	first, err := Execute(cfg)
	if err != nil {
		t.Fatalf("Execute: got err %v", err)
	}
	if first.Releases != 200 {
		t.Errorf("Execute: got %d releases, want 200", first.Releases)
	}
	for _, f := range []string{cfg.OutputFile, cfg.HistogramFile, cfg.ReleasesPlotFile} {
		if info, err := os.Stat(f); err != nil || info.Size() == 0 {
			t.Errorf("Execute: output %q is missing or empty (err %v)", f, err)
		}
	}

	second, err := Execute(cfg)
	if err != nil {
		t.Fatalf("Execute: got err %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Execute with seeded noise twice: got diff (-first +second):\n%s", diff)
	}
}

func TestExecuteWithInputFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mechanism = Binary
	cfg.Epsilon = 1
	cfg.Noise = "seeded"
	cfg.InputFile = writeFile(t, "in.csv", "event\n1\n0\n1\n1\n1\n0\n")
	cfg.StreamLength = 5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: got err %v", err)
	}
	got, err := Execute(cfg)
	if err != nil {
		t.Fatalf("Execute: got err %v", err)
	}
	if got.Releases != 5 {
		t.Errorf("Execute with stream_length 5: got %d releases, want 5", got.Releases)
	}

	cfg.InputFile = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := Execute(cfg); err == nil {
		t.Errorf("Execute with a missing input file: got nil error, want error")
	}
}
