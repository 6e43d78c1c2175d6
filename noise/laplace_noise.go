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

package noise

import (
	"io"
	"math"

	"github.com/privstream/dpstream/checks"
	"github.com/privstream/dpstream/rand"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// granularityParam determines the resolution of the secure Laplace samples
// relative to their scale. Samples are multiples of granularity(scale).
// Larger values give finer grained
// noise but raise the chance of overflows in the geometric sampler; that
// chance stays below 2⁻¹⁰⁰⁰ for 2⁴⁰ as long as the scale is at most 2⁵⁰.
//
// This parameter should be a power of 2.
var granularityParam = math.Exp2(40)

type secureLaplace struct {
	gen *rand.Generator
}

// Secure returns a Source of Laplace noise drawn from crypto/rand.
//
// Samples are produced by a geometric sampling mechanism on a power-of-two
// grid, which is robust against unintentional privacy leaks due to artifacts
// of floating point arithmetic.
func Secure() Source {
	return secureLaplace{gen: rand.Secure()}
}

// SecureFrom returns a Source using the same sampler as Secure, reading its
// random bytes from r. Noise is only as private as r is unpredictable.
func SecureFrom(r io.Reader) Source {
	return secureLaplace{gen: rand.NewGenerator(r)}
}

// Laplace returns a zero-mean sample of Laplace noise with the given scale.
func (s secureLaplace) Laplace(scale float64) float64 {
	g := granularity(scale)
	sample := twoSidedGeometric(s.gen, g/(scale*(1+g)))
	return float64(sample) * g
}

func (s secureLaplace) Uniform() float64 {
	return s.gen.Uniform()
}

func (secureLaplace) String() string {
	return "Secure Laplace Noise"
}

// granularity returns the spacing of the secure Laplace samples of the given
// scale: the smallest power of two at least scale / granularityParam. The
// scale must be positive and finite.
func granularity(scale float64) float64 {
	frac, exp := math.Frexp(scale / granularityParam)
	if frac == 0.5 {
		return math.Ldexp(1, exp-1)
	}
	return math.Ldexp(1, exp)
}

type seededLaplace struct {
	src exprand.Source
	rnd *exprand.Rand
}

// Seeded returns a Source of Laplace noise drawn from a PCG generator
// initialised with seed. Two Sources with the same seed produce the same
// sequence of samples.
//
// Seeded noise is meant for simulations and tests: anyone who learns the seed
// can remove the noise.
func Seeded(seed uint64) Source {
	src := exprand.NewSource(seed)
	return &seededLaplace{src: src, rnd: exprand.New(src)}
}

// Laplace returns a zero-mean sample of Laplace noise with the given scale.
func (s *seededLaplace) Laplace(scale float64) float64 {
	return distuv.Laplace{Mu: 0, Scale: scale, Src: s.src}.Rand()
}

func (s *seededLaplace) Uniform() float64 {
	return 1 - s.rnd.Float64()
}

func (*seededLaplace) String() string {
	return "Seeded Laplace Noise"
}

// ComputeConfidenceIntervalLaplace computes a confidence interval that contains
// the raw value x from which noisedX = x + Laplace(scale) is computed with a
// probability equal to 1 - alpha.
func ComputeConfidenceIntervalLaplace(noisedX, scale, alpha float64) (ConfidenceInterval, error) {
	if err := checks.CheckAlpha("ComputeConfidenceIntervalLaplace", alpha); err != nil {
		return ConfidenceInterval{}, err
	}
	if err := checks.CheckLaplaceScale("ComputeConfidenceIntervalLaplace", scale); err != nil {
		return ConfidenceInterval{}, err
	}
	return computeConfidenceIntervalLaplace(noisedX, scale, alpha), nil
}

// ComputeConfidenceIntervalLaplaceSum computes a confidence interval that
// contains the raw value x with a probability of at least 1 - alpha, where
// noisedX is x plus one independent Laplace sample per entry of scales.
//
// For more than one sample the interval comes from a union bound: each sample
// exceeds scale·ln(k/alpha) in absolute value with probability alpha/k. It is
// therefore conservative. An empty scales slice means noisedX is exact.
func ComputeConfidenceIntervalLaplaceSum(noisedX float64, scales []float64, alpha float64) (ConfidenceInterval, error) {
	if err := checks.CheckAlpha("ComputeConfidenceIntervalLaplaceSum", alpha); err != nil {
		return ConfidenceInterval{}, err
	}
	for _, scale := range scales {
		if err := checks.CheckLaplaceScale("ComputeConfidenceIntervalLaplaceSum", scale); err != nil {
			return ConfidenceInterval{}, err
		}
	}
	switch len(scales) {
	case 0:
		return ConfidenceInterval{LowerBound: noisedX, UpperBound: noisedX}, nil
	case 1:
		return computeConfidenceIntervalLaplace(noisedX, scales[0], alpha), nil
	}
	perSample := math.Log(float64(len(scales)) / alpha)
	var halfWidth float64
	for _, scale := range scales {
		halfWidth += scale * perSample
	}
	return ConfidenceInterval{LowerBound: noisedX - halfWidth, UpperBound: noisedX + halfWidth}, nil
}

// computeConfidenceIntervalLaplace computes a confidence interval that contains the raw value x from which
// float64 noisedX is computed with a probability equal to 1 - alpha with the given lambda.
func computeConfidenceIntervalLaplace(noisedX float64, lambda, alpha float64) ConfidenceInterval {
	z := inverseCDFLaplace(lambda, alpha/2)
	// Because of the symmetry of the Laplace distribution,
	// -z corresponds to the (1 - alpha/2)-quantile of the distribution,
	// meaning that the interval [z, -z] contains 1-alpha of the probability mass.
	// alpha/2 is more accurately representable as a float64 than 1 - alpha/2
	// when alpha is small.
	return ConfidenceInterval{LowerBound: noisedX + z, UpperBound: noisedX - z}
}

// inverseCDFLaplace computes the quantile z satisfying Pr[Y <= z] = p for a random variable Y
// that is Laplace distributed with the specified lambda where mean is zero.
func inverseCDFLaplace(lambda, p float64) float64 {
	if p < 0.5 {
		return lambda * math.Log(2*p)
	}
	return -lambda * math.Log(2*(1-p))
}

// geometric draws a sample drawn from a geometric distribution with parameter
//
//	p = 1 - e^-λ.
//
// More precisely, it returns the number of Bernoulli trials until the first success
// where the success probability is p = 1 - e^-λ. The returned sample is truncated
// to the max int64 value.
//
// Note that to ensure that a truncation happens with probability less than 10⁻⁶,
// λ must be greater than 2⁻⁵⁹.
func geometric(gen *rand.Generator, lambda float64) int64 {
	if gen.Uniform() > -1.0*math.Expm1(-1.0*lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Binary search for the sample in (left, right]. Each iteration keeps the
	// left or the right subinterval with the probability of the sample falling
	// into it, until a single value remains.
	var left int64 = 0              // exclusive bound
	var right int64 = math.MaxInt64 // inclusive bound

	for left+1 < right {
		// The midpoint splits the probability mass of the interval roughly in
		// half. It is at most the arithmetic mean, which shortens the search
		// for large success probabilities.
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
		// Keep mid inside the interval despite rounding.
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}

		// q = Pr[X ≤ mid | left < X ≤ right], approximately one half.
		q := math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
		if gen.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// twoSidedGeometric draws a sample from a geometric distribution that is
// mirrored at 0. The non-negative part of the distribution's PDF matches
// the PDF of a geometric distribution of parameter p = 1 - e^-λ that is
// shifted to the left by 1 and scaled accordingly.
func twoSidedGeometric(gen *rand.Generator, lambda float64) int64 {
	var sample int64 = 0
	var sign int64 = -1
	// Keep a sample of 0 only if the sign is positive. Otherwise, the
	// probability of 0 would be twice as high as it should be.
	for sample == 0 && sign == -1 {
		sample = geometric(gen, lambda) - 1
		sign = int64(gen.Sign())
	}
	return sample * sign
}
