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

// dpstream runs a differentially private counter over a stream of events and
// reports the error of its releases.
// Usage example:
// go run ./cmd/dpstream --mechanism=hybrid --epsilon=1 --stream_length=10000 --output_file=releases.csv --histogram_file=errors.png
// or, with the run described in a YAML file:
// go run ./cmd/dpstream --config=run.yaml
// Flags given on the command line override the values of the file.
package main

import (
	"flag"

	log "github.com/golang/glog"
	"github.com/privstream/dpstream/simulate"
)

var (
	configFile = flag.String("config", "", "YAML file describing the run.")
	mechanism  = flag.String("mechanism", simulate.Hybrid, "Mechanism:\n"+
		"binary - binary mechanism with a fixed horizon.\n"+
		"logarithmic - releases at powers of two only.\n"+
		"hybrid - logarithmic checkpoints plus binary epochs.\n"+
		"laplace - one-shot Laplace count released after every event.\n"+
		"randomized_response - randomized response count released after every event.")
	epsilon          = flag.Float64("epsilon", 0, "Privacy parameter ε.")
	horizon          = flag.Int64("horizon", 0, "Horizon of the binary mechanism. Defaults to the stream length.")
	noiseKind        = flag.String("noise", "secure", "Noise source: secure or seeded.")
	seed             = flag.Uint64("seed", 0, "Seed of the seeded noise.")
	streamSeed       = flag.Uint64("stream_seed", 0, "Seed of the generated stream. Derived from seed if 0.")
	streamLength     = flag.Int64("stream_length", 0, "Number of events to generate, or the maximum number to read from input_file.")
	eventProbability = flag.Float64("event_probability", 0.5, "Probability of a generated event being true.")
	inputFile        = flag.String("input_file", "", "Input csv file with one event per row.")
	outputFile       = flag.String("output_file", "", "Output csv file for the releases.")
	histogramFile    = flag.String("histogram_file", "", "Output image of the histogram of release errors.")
	releasesPlotFile = flag.String("releases_plot_file", "", "Output image of the true and noised running counts.")
	saveConfigFile   = flag.String("save_config", "", "If set, the effective configuration is written to this YAML file.")
)

func main() {
	flag.Parse()

	cfg := simulate.DefaultConfig()
	if *configFile == "" {
		flag.VisitAll(func(f *flag.Flag) { applyFlag(cfg, f.Name) })
	} else {
		loaded, err := simulate.LoadConfig(*configFile)
		if err != nil {
			log.Exitf("Couldn't load config file = %q, err = %v", *configFile, err)
		}
		cfg = loaded
		// Only the flags set on the command line override the file.
		flag.Visit(func(f *flag.Flag) { applyFlag(cfg, f.Name) })
	}

	log.Infof("The run was configured with: %+v", *cfg)

	if err := cfg.Validate(); err != nil {
		log.Exitf("Invalid configuration, err = %v", err)
	}

	if *saveConfigFile != "" {
		if err := simulate.SaveConfig(cfg, *saveConfigFile); err != nil {
			log.Exitf("Couldn't save config file = %q, err = %v", *saveConfigFile, err)
		}
	}

	summary, err := simulate.Execute(cfg)
	if err != nil {
		log.Exitf("Couldn't execute the run, err = %v", err)
	}

	log.Infof("Successfully finished %d releases: mean error = %f, standard deviation = %f, RMSE = %f, max absolute error = %f",
		summary.Releases, summary.MeanError, summary.StdDevError, summary.RMSE, summary.MaxAbsError)
}

// applyFlag copies the value of the named flag into cfg.
func applyFlag(cfg *simulate.Config, name string) {
	switch name {
	case "mechanism":
		cfg.Mechanism = *mechanism
	case "epsilon":
		cfg.Epsilon = *epsilon
	case "horizon":
		cfg.Horizon = *horizon
	case "noise":
		cfg.Noise = *noiseKind
	case "seed":
		cfg.Seed = *seed
	case "stream_seed":
		cfg.StreamSeed = *streamSeed
	case "stream_length":
		cfg.StreamLength = *streamLength
	case "event_probability":
		cfg.EventProbability = *eventProbability
	case "input_file":
		cfg.InputFile = *inputFile
	case "output_file":
		cfg.OutputFile = *outputFile
	case "histogram_file":
		cfg.HistogramFile = *histogramFile
	case "releases_plot_file":
		cfg.ReleasesPlotFile = *releasesPlotFile
	}
}
