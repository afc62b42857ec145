package gp

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumSamples returns the number of function samples.
func (g *GP) NumSamples() int { return len(g.randomVectors) }

// AnchorPoints returns the number of anchor points used for sampling.
func (g *GP) AnchorPoints() int { return g.anchorPoints }

// SetNumSamples sets the number of function samples. Existing random
// vectors are kept; new ones are drawn from the generator.
func (g *GP) SetNumSamples(k int) error {
	if k < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleCount, k)
	}
	if k <= len(g.randomVectors) {
		g.randomVectors = g.randomVectors[:k:k]
		return nil
	}
	for len(g.randomVectors) < k {
		g.randomVectors = append(g.randomVectors, linalg.GaussianRandomVector(g.rng, g.anchorPoints))
	}
	return nil
}

// RefreshSamples redraws every random vector, producing new samples.
func (g *GP) RefreshSamples() {
	for i := range g.randomVectors {
		g.randomVectors[i] = linalg.GaussianRandomVector(g.rng, g.anchorPoints)
	}
}

// Samples returns one row per function sample with the sampled value at
// each of xs.
//
// Each sample is drawn at a small set of anchor inputs from the joint
// posterior. The anchors are then added as almost noiseless measurements and
// the posterior mean at xs is the sample. The GP is restored afterwards, so
// the same random vectors on an unchanged GP give the same samples.
func (g *GP) Samples(xs [][]float64) ([][]float64, error) {
	if _, err := g.checkQueries(xs); err != nil {
		return nil, err
	}
	if len(g.randomVectors) == 0 {
		return [][]float64{}, nil
	}

	anchors := g.anchorInputs(xs)
	joint, err := g.PredictJoint(anchors)
	if err != nil {
		return nil, err
	}
	if _, err := joint.Output.CholeskyFactor(); err != nil {
		return nil, fmt.Errorf("gp: samples: %w", err)
	}
	if j := joint.Output.Jitter(); j > 0 {
		g.logger.Warn("anchor covariance regularized", slog.Float64("jitter", j), slog.Int("anchors", len(anchors)))
	}

	snap := g.snapshot()
	defer g.restore(snap)

	out := make([][]float64, len(g.randomVectors))
	for s, z := range g.randomVectors {
		values, err := joint.Output.SampleWith(z[:len(anchors)])
		if err != nil {
			return nil, err
		}
		for j, a := range anchors {
			v, noise := values[j], anchorNoise
			if _, err := g.add(Measurement{Input: a, Output: &v, OutputNoiseVariance: &noise}); err != nil {
				return nil, fmt.Errorf("gp: sample %d anchor %d: %w", s, j, err)
			}
		}
		out[s] = g.posteriorMean(xs)
		for range anchors {
			if _, err := g.RemoveMeasurement(len(g.measurements) - 1); err != nil {
				return nil, err
			}
		}
		// Removal drifts numerically; start every sample from the exact inverse.
		g.restore(snap)
	}
	return out, nil
}

// anchorInputs picks the anchor inputs for queries xs. Scalar inputs get
// evenly spaced anchors over the query range; vector inputs use an evenly
// spaced subset of the queries.
func (g *GP) anchorInputs(xs [][]float64) [][]float64 {
	k := g.anchorPoints
	if len(xs[0]) == 1 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, x := range xs {
			lo = math.Min(lo, x[0])
			hi = math.Max(hi, x[0])
		}
		if lo == hi {
			return [][]float64{{lo}}
		}
		span := floats.Span(make([]float64, k), lo, hi)
		out := make([][]float64, k)
		for i, v := range span {
			out[i] = []float64{v}
		}
		return out
	}

	if len(xs) <= k {
		return copyInputs(xs)
	}
	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		idx := int(math.Round(float64(i) * float64(len(xs)-1) / float64(k-1)))
		out[i] = append([]float64(nil), xs[idx]...)
	}
	return out
}

type snapshot struct {
	measurements []Measurement
	inputDim     int
	kmm, kn, kni *mat.Dense
}

func (g *GP) snapshot() snapshot {
	return snapshot{
		measurements: append([]Measurement(nil), g.measurements...),
		inputDim:     g.inputDim,
		kmm:          linalg.Copy(g.kmm),
		kn:           linalg.Copy(g.kn),
		kni:          linalg.Copy(g.kni),
	}
}

func (g *GP) restore(s snapshot) {
	g.measurements = append([]Measurement(nil), s.measurements...)
	g.inputDim = s.inputDim
	g.kmm, g.kn, g.kni = linalg.Copy(s.kmm), linalg.Copy(s.kn), linalg.Copy(s.kni)
}
