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
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DrawErrorHistogram saves a histogram of the deviations of the releases from
// the true counts. The image format follows the extension of outputFile
// (png, svg, pdf, ...).
func DrawErrorHistogram(releases []Release, outputFile string) error {
	if len(releases) == 0 {
		return fmt.Errorf("DrawErrorHistogram: no releases to draw")
	}
	errs := make(plotter.Values, len(releases))
	for i, r := range releases {
		errs[i] = r.Deviation()
	}

	p := plot.New()
	p.Title.Text = "Release Error"
	p.X.Label.Text = "Noised count - true count"
	p.Y.Label.Text = "Releases"

	// Sturges' rule.
	bins := int(math.Ceil(math.Log2(float64(len(errs))))) + 1
	h, err := plotter.NewHist(errs, bins)
	if err != nil {
		return fmt.Errorf("could not create histogram from %d errors: %v", len(errs), err)
	}
	h.FillColor = plotutil.Color(2)
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, outputFile); err != nil {
		return fmt.Errorf("could not save plot: %v", err)
	}
	return nil
}

// DrawReleases saves a plot of the true and the noised running count against
// the step.
func DrawReleases(releases []Release, outputFile string) error {
	if len(releases) == 0 {
		return fmt.Errorf("DrawReleases: no releases to draw")
	}
	raw := make(plotter.XYs, len(releases))
	private := make(plotter.XYs, len(releases))
	for i, r := range releases {
		raw[i] = plotter.XY{X: float64(r.Step), Y: float64(r.TrueCount)}
		private[i] = plotter.XY{X: float64(r.Step), Y: r.NoisedCount}
	}

	p := plot.New()
	p.Title.Text = "Running Count"
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Count"

	rawLine, err := plotter.NewLine(raw)
	if err != nil {
		return fmt.Errorf("could not create line from true counts: %v", err)
	}
	rawLine.Color = plotutil.Color(2)
	privateLine, err := plotter.NewLine(private)
	if err != nil {
		return fmt.Errorf("could not create line from noised counts: %v", err)
	}
	privateLine.Color = plotutil.Color(3)

	p.Add(rawLine, privateLine)
	p.Legend.Add("Raw", rawLine)
	p.Legend.Add("Private", privateLine)
	p.Legend.Top = true

	if err := p.Save(15*vg.Inch, 5*vg.Inch, outputFile); err != nil {
		return fmt.Errorf("could not save plot: %v", err)
	}
	return nil
}
