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

// Package simulate runs the counting mechanisms over event streams and
// reports how far their releases are from the true running counts.
package simulate

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/privstream/dpstream/continual"
	"github.com/privstream/dpstream/dpagg"
	"github.com/privstream/dpstream/noise"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Release is the output of a mechanism at one step.
type Release struct {
	Step        int64 // 1-based
	TrueCount   int64
	NoisedCount float64
}

// Deviation returns the signed difference between the noised and the true
// count.
func (r Release) Deviation() float64 {
	return r.NoisedCount - float64(r.TrueCount)
}

// Summary describes the errors of a sequence of releases.
type Summary struct {
	Releases    int
	MeanError   float64
	StdDevError float64
	RMSE        float64
	MaxAbsError float64
}

// NewMechanism builds the mechanism selected by cfg for a stream of length n.
// The one-shot counters are wrapped so that they release after every event.
func NewMechanism(cfg *Config, n int64) (continual.Mechanism, error) {
	kind, err := noise.ParseKind(cfg.Noise)
	if err != nil {
		return nil, err
	}
	src := noise.ToSource(kind, cfg.Seed)

	switch cfg.Mechanism {
	case Binary:
		bm, err := continual.NewBinaryMechanism(&continual.BinaryMechanismOptions{
			Epsilon: cfg.Epsilon,
			Horizon: cfg.horizonFor(n),
			Noise:   src,
		})
		if err != nil {
			return nil, err
		}
		return bm, nil
	case Logarithmic:
		lm, err := continual.NewLogarithmicMechanism(&continual.LogarithmicMechanismOptions{Epsilon: cfg.Epsilon, Noise: src})
		if err != nil {
			return nil, err
		}
		return lm, nil
	case Hybrid:
		hm, err := continual.NewHybridMechanism(&continual.HybridMechanismOptions{Epsilon: cfg.Epsilon, Noise: src})
		if err != nil {
			return nil, err
		}
		return hm, nil
	case Laplace:
		c, err := dpagg.NewLaplaceCount(&dpagg.LaplaceCountOptions{Epsilon: cfg.Epsilon, Noise: src})
		if err != nil {
			return nil, err
		}
		return laplaceBaseline{c}, nil
	case RandomizedResponse:
		c, err := dpagg.NewRandomizedResponseCount(&dpagg.RandomizedResponseCountOptions{Epsilon: cfg.Epsilon, Noise: src})
		if err != nil {
			return nil, err
		}
		return randomizedResponseBaseline{c}, nil
	}
	return nil, fmt.Errorf("NewMechanism: unknown mechanism %q", cfg.Mechanism)
}

// laplaceBaseline releases a freshly noised count after every event. Every
// release spends ε.
type laplaceBaseline struct {
	c *dpagg.LaplaceCount
}

func (b laplaceBaseline) StepForward(event bool) (float64, error) {
	b.c.ProcessRecord(event)
	return b.c.Count(), nil
}

// randomizedResponseBaseline randomizes every event and releases the
// unbiased estimate of the running count.
type randomizedResponseBaseline struct {
	c *dpagg.RandomizedResponseCount
}

func (b randomizedResponseBaseline) StepForward(event bool) (float64, error) {
	b.c.ProcessRecord(b.c.CreateRecord(event))
	return b.c.UnbiasedCount(), nil
}

// Run feeds the stream to m, one event per step, and returns every release.
func Run(m continual.Mechanism, stream []bool) ([]Release, error) {
	releases := make([]Release, 0, len(stream))
	var count int64
	for i, event := range stream {
		if event {
			count++
		}
		out, err := m.StepForward(event)
		if err != nil {
			return releases, fmt.Errorf("step %d: %w", i+1, err)
		}
		releases = append(releases, Release{Step: int64(i + 1), TrueCount: count, NoisedCount: out})
	}
	return releases, nil
}

// Summarize returns error statistics of the releases.
func Summarize(releases []Release) Summary {
	if len(releases) == 0 {
		return Summary{}
	}
	errs := make([]float64, len(releases))
	for i, r := range releases {
		errs[i] = r.Deviation()
	}
	mean, std := stat.MeanStdDev(errs, nil)
	if len(errs) == 1 {
		std = 0
	}
	abs := make([]float64, len(errs))
	for i, e := range errs {
		abs[i] = math.Abs(e)
	}
	return Summary{
		Releases:    len(releases),
		MeanError:   mean,
		StdDevError: std,
		RMSE:        floats.Norm(errs, 2) / math.Sqrt(float64(len(errs))),
		MaxAbsError: floats.Max(abs),
	}
}

// Stream returns the input stream described by cfg.
func Stream(cfg *Config) ([]bool, error) {
	if cfg.InputFile == "" {
		return RandomStream(cfg.streamSeed(), cfg.StreamLength, cfg.EventProbability), nil
	}
	stream, err := ReadStreamCSV(cfg.InputFile)
	if err != nil {
		return nil, err
	}
	if cfg.StreamLength > 0 && int64(len(stream)) > cfg.StreamLength {
		stream = stream[:cfg.StreamLength]
	}
	return stream, nil
}

// Execute performs the run described by a validated cfg: it builds the stream
// and the mechanism, runs them and writes the requested outputs.
func Execute(cfg *Config) (Summary, error) {
	stream, err := Stream(cfg)
	if err != nil {
		return Summary{}, err
	}
	log.Infof("Running mechanism %q with epsilon %f over %d events", cfg.Mechanism, cfg.Epsilon, len(stream))

	m, err := NewMechanism(cfg, int64(len(stream)))
	if err != nil {
		return Summary{}, err
	}
	releases, err := Run(m, stream)
	if err != nil {
		return Summary{}, err
	}

	if cfg.OutputFile != "" {
		if err := WriteReleasesCSV(releases, cfg.OutputFile); err != nil {
			return Summary{}, err
		}
	}
	if cfg.HistogramFile != "" {
		if err := DrawErrorHistogram(releases, cfg.HistogramFile); err != nil {
			return Summary{}, err
		}
	}
	if cfg.ReleasesPlotFile != "" {
		if err := DrawReleases(releases, cfg.ReleasesPlotFile); err != nil {
			return Summary{}, err
		}
	}
	return Summarize(releases), nil
}
