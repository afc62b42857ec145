package gp

import (
	"fmt"
	"math"

	"github.com/n0madic/go-gaussian-process/gaussian"
	"github.com/n0madic/go-gaussian-process/gperr"
	"gopkg.in/yaml.v3"
)

// Measurement is an observation of the unknown function.
//
// The output is given either as a value (Output) or as a univariate
// distribution (OutputDistribution), in which case its mean is the observed
// value and its variance the noise variance. Measurements returned by the
// engine are always in processed form: Output and OutputNoiseVariance are set
// and OutputDistribution is nil.
type Measurement struct {
	Input               []float64              `yaml:"input,flow"`
	Output              *float64               `yaml:"output,omitempty"`
	OutputDistribution  *gaussian.Distribution `yaml:"-"`
	OutputNoiseVariance *float64               `yaml:"outputNoiseVariance,omitempty"`
}

// NewMeasurement returns a measurement without explicit noise; the GP default
// noise variance applies.
func NewMeasurement(input []float64, output float64) Measurement {
	return Measurement{Input: append([]float64(nil), input...), Output: &output}
}

// MeasurementFromDistribution returns a measurement whose output is a
// univariate distribution.
func MeasurementFromDistribution(input []float64, output *gaussian.Distribution) Measurement {
	return Measurement{Input: append([]float64(nil), input...), OutputDistribution: output}
}

// WithNoise returns a copy of m with the given noise variance.
func (m Measurement) WithNoise(variance float64) Measurement {
	m.OutputNoiseVariance = &variance
	return m
}

// Value returns the observed output, or 0 if none is set.
func (m Measurement) Value() float64 {
	if m.Output == nil {
		return 0
	}
	return *m.Output
}

// NoiseVariance returns the noise variance, or 0 if none is set.
func (m Measurement) NoiseVariance() float64 {
	if m.OutputNoiseVariance == nil {
		return 0
	}
	return *m.OutputNoiseVariance
}

func (m Measurement) clone() Measurement {
	out := Measurement{Input: append([]float64(nil), m.Input...), OutputDistribution: m.OutputDistribution}
	if m.Output != nil {
		v := *m.Output
		out.Output = &v
	}
	if m.OutputNoiseVariance != nil {
		v := *m.OutputNoiseVariance
		out.OutputNoiseVariance = &v
	}
	return out
}

// UnmarshalYAML implements yaml.Unmarshaler. The input may be written as a
// number for scalar inputs or as a list for vector inputs.
func (m *Measurement) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Input               yaml.Node `yaml:"input"`
		Output              *float64  `yaml:"output"`
		OutputNoiseVariance *float64  `yaml:"outputNoiseVariance"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	var input []float64
	switch raw.Input.Kind {
	case 0:
	case yaml.ScalarNode:
		var v float64
		if err := raw.Input.Decode(&v); err != nil {
			return err
		}
		input = []float64{v}
	case yaml.SequenceNode:
		if err := raw.Input.Decode(&input); err != nil {
			return err
		}
	default:
		return fmt.Errorf("gp: line %d: measurement input must be a number or a list", raw.Input.Line)
	}
	*m = Measurement{Input: input, Output: raw.Output, OutputNoiseVariance: raw.OutputNoiseVariance}
	return nil
}

// process validates m against the engine configuration and returns its
// processed form. dim is the required input length, 0 if not yet fixed.
func (g *GP) process(m Measurement, dim int) (Measurement, error) {
	if len(m.Input) == 0 {
		return Measurement{}, ErrMissingInput
	}
	if dim > 0 && len(m.Input) != dim {
		return Measurement{}, &gperr.DimensionError{Op: "gp: measurement input", Expected: dim, Got: len(m.Input), Err: ErrInputDimension}
	}
	for _, v := range m.Input {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Measurement{}, fmt.Errorf("%w: input contains %v", ErrInvalidMeasurement, v)
		}
	}

	var output, noise float64
	switch {
	case m.OutputDistribution != nil:
		if m.OutputDistribution.Multivariate() {
			return Measurement{}, ErrUnsupportedMultivariateOutput
		}
		output = m.OutputDistribution.Mean()
		noise = m.OutputDistribution.Variance()
	case m.Output != nil:
		output = *m.Output
		switch {
		case m.OutputNoiseVariance != nil:
			noise = *m.OutputNoiseVariance
		case g.defaultNoise != nil:
			noise = *g.defaultNoise
		default:
			return Measurement{}, ErrUnknownNoise
		}
	default:
		return Measurement{}, ErrMissingOutput
	}

	if math.IsNaN(output) || math.IsInf(output, 0) {
		return Measurement{}, fmt.Errorf("%w: output %v", ErrInvalidMeasurement, output)
	}
	if math.IsNaN(noise) || math.IsInf(noise, 0) || noise < 0 {
		return Measurement{}, fmt.Errorf("%w: noise variance %v", ErrInvalidMeasurement, noise)
	}
	return Measurement{
		Input:               append([]float64(nil), m.Input...),
		Output:              &output,
		OutputNoiseVariance: &noise,
	}, nil
}

// checkQueries validates query inputs and returns their common length.
func (g *GP) checkQueries(xs [][]float64) (int, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("gp: no query inputs: %w", ErrMissingInput)
	}
	dim := g.inputDim
	for i, x := range xs {
		if len(x) == 0 {
			return 0, fmt.Errorf("gp: query %d: %w", i, ErrMissingInput)
		}
		if dim == 0 {
			dim = len(x)
		}
		if len(x) != dim {
			return 0, &gperr.DimensionError{Op: fmt.Sprintf("gp: query %d input", i), Expected: dim, Got: len(x), Err: ErrInputDimension}
		}
	}
	return dim, nil
}
