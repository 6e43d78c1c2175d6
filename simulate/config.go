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
	"fmt"
	"io"
	"os"

	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/noise"
	"gopkg.in/yaml.v3"
)

// Names of the mechanisms a Config can select.
const (
	Binary             = "binary"
	Logarithmic        = "logarithmic"
	Hybrid             = "hybrid"
	Laplace            = "laplace"
	RandomizedResponse = "randomized_response"
)

// Config describes one simulation run: the mechanism under test, the stream
// it consumes and where the results go.
type Config struct {
	// Mechanism is one of binary, logarithmic, hybrid, laplace or
	// randomized_response.
	Mechanism string  `yaml:"mechanism"`
	Epsilon   float64 `yaml:"epsilon"`
	// Horizon is the stream length the binary mechanism is built for.
	// Required for binary only; it defaults to the stream length.
	Horizon int64 `yaml:"horizon,omitempty"`

	// Noise is secure or seeded. Seed is used by seeded noise. StreamSeed
	// seeds the generated stream; when 0 it is derived from Seed.
	Noise      string `yaml:"noise"`
	Seed       uint64 `yaml:"seed"`
	StreamSeed uint64 `yaml:"stream_seed,omitempty"`

	// The stream is read from InputFile if set, and generated otherwise.
	StreamLength     int64   `yaml:"stream_length,omitempty"`
	EventProbability float64 `yaml:"event_probability,omitempty"`
	InputFile        string  `yaml:"input_file,omitempty"`

	// Optional outputs.
	OutputFile       string `yaml:"output_file,omitempty"`
	HistogramFile    string `yaml:"histogram_file,omitempty"`
	ReleasesPlotFile string `yaml:"releases_plot_file,omitempty"`
}

// DefaultConfig returns the values a loaded Config starts from.
func DefaultConfig() *Config {
	return &Config{
		Mechanism:        Hybrid,
		Noise:            noise.SecureLaplace.String(),
		EventProbability: 0.5,
	}
}

// LoadConfig loads and validates a Config from a YAML file. Fields absent from
// the file keep the values of DefaultConfig.
func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves a Config to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filePath, data, 0644)
}

// Validate returns an error if the Config cannot describe a run.
func (c *Config) Validate() error {
	switch c.Mechanism {
	case Binary, Logarithmic, Hybrid, Laplace, RandomizedResponse:
	default:
		return fmt.Errorf("mechanism must be one of %q, %q, %q, %q or %q, got: %q",
			Binary, Logarithmic, Hybrid, Laplace, RandomizedResponse, c.Mechanism)
	}

	if err := checks.CheckEpsilonStrict("Validate", c.Epsilon); err != nil {
		return err
	}

	kind, err := noise.ParseKind(c.Noise)
	if err != nil {
		return err
	}
	if kind == noise.SeededLaplace && c.StreamSeed != 0 && c.StreamSeed == c.Seed {
		return fmt.Errorf("stream_seed must differ from seed with seeded noise, got: %d", c.StreamSeed)
	}

	if c.InputFile == "" {
		if c.StreamLength <= 0 {
			return fmt.Errorf("stream_length must be > 0 when no input_file is given, got: %d", c.StreamLength)
		}
		if err := checks.CheckProbability("Validate", c.EventProbability); err != nil {
			return err
		}
	} else if err := checks.CheckStreamLength("Validate", c.StreamLength); err != nil {
		return err
	}

	if c.Mechanism == Binary && c.Horizon != 0 {
		if err := checks.CheckHorizon("Validate", c.Horizon); err != nil {
			return err
		}
	}

	return nil
}

// horizonFor returns the horizon of a binary mechanism that consumes a stream
// of length n.
func (c *Config) horizonFor(n int64) int64 {
	if c.Horizon != 0 {
		return c.Horizon
	}
	if n < 2 {
		return 2
	}
	return n
}

// streamSeed returns the seed of the generated stream. Unless set explicitly it
// is a SplitMix64 mix of Seed, so the stream and seeded noise never read the
// same PCG sequence.
func (c *Config) streamSeed() uint64 {
	if c.StreamSeed != 0 {
		return c.StreamSeed
	}
	z := c.Seed + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
