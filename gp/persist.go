package gp

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/n0madic/go-gaussian-process/kernel"
	"gopkg.in/yaml.v3"
)

const snapshotVersion = 1

// Snapshot is the gob encoded form of a GP. Derived matrices are not stored;
// they are rebuilt from the measurements on Load.
//
// Gob drops pointers to zero values, so optional numbers are stored next to
// explicit presence flags.
type Snapshot struct {
	Version                    int                    `gob:"version"`
	MeanType                   string                 `gob:"mean_type"`
	MeanConstant               float64                `gob:"mean_constant"`
	CovarianceData             *kernel.CovarianceSpec `gob:"covariance_data"`
	HasDefaultNoise            bool                   `gob:"has_default_noise"`
	DefaultOutputNoiseVariance float64                `gob:"default_output_noise_variance"`
	Inputs                     [][]float64            `gob:"inputs"`
	Outputs                    []float64              `gob:"outputs"`
	NoiseVariances             []float64              `gob:"noise_variances"`
	RandomVectors              [][]float64            `gob:"random_vectors"`
	AnchorPoints               int                    `gob:"anchor_points"`
	RemovalStrategy            RemovalStrategy        `gob:"removal_strategy"`
}

// Save serializes the GP to gob format.
func (g *GP) Save(w io.Writer) error {
	state := g.State()
	snap := Snapshot{
		Version:         snapshotVersion,
		MeanType:        state.MeanData.Type,
		CovarianceData:  state.CovarianceData,
		Inputs:          make([][]float64, len(state.Measurements)),
		Outputs:         make([]float64, len(state.Measurements)),
		NoiseVariances:  make([]float64, len(state.Measurements)),
		RandomVectors:   state.RandomVectors,
		AnchorPoints:    g.anchorPoints,
		RemovalStrategy: g.removal,
	}
	if state.MeanData.M != nil {
		snap.MeanConstant = *state.MeanData.M
	}
	if state.DefaultOutputNoiseVariance != nil {
		snap.HasDefaultNoise = true
		snap.DefaultOutputNoiseVariance = *state.DefaultOutputNoiseVariance
	}
	for i, m := range state.Measurements {
		snap.Inputs[i] = m.Input
		snap.Outputs[i] = m.Value()
		snap.NoiseVariances[i] = m.NoiseVariance()
	}
	return gob.NewEncoder(w).Encode(snap)
}

// Load deserializes a GP saved with Save. Options are applied after the
// stored anchor count and removal strategy.
func Load(r io.Reader, options ...Option) (*GP, error) {
	var snap Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("gp: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, errors.New("unsupported gob version")
	}
	n := len(snap.Inputs)
	if len(snap.Outputs) != n || len(snap.NoiseVariances) != n {
		return nil, fmt.Errorf("%w: snapshot has %d inputs, %d outputs and %d noise variances",
			ErrInvalidMeasurement, n, len(snap.Outputs), len(snap.NoiseVariances))
	}

	state := State{
		MeanData:       &kernel.MeanSpec{Type: snap.MeanType},
		CovarianceData: snap.CovarianceData,
		RandomVectors:  snap.RandomVectors,
	}
	if snap.MeanType == kernel.TypeConstant {
		m := snap.MeanConstant
		state.MeanData.M = &m
	}
	if snap.HasDefaultNoise {
		v := snap.DefaultOutputNoiseVariance
		state.DefaultOutputNoiseVariance = &v
	}
	for i := 0; i < n; i++ {
		state.Measurements = append(state.Measurements,
			NewMeasurement(snap.Inputs[i], snap.Outputs[i]).WithNoise(snap.NoiseVariances[i]))
	}

	opts := []Option{WithRemovalStrategy(snap.RemovalStrategy)}
	if snap.AnchorPoints > 0 {
		opts = append(opts, WithAnchorPoints(snap.AnchorPoints))
	}
	return New(state, append(opts, options...)...)
}

// DecodeStateYAML reads a state document.
func DecodeStateYAML(r io.Reader) (State, error) {
	var s State
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("gp: decode state: %w", err)
	}
	return s, nil
}

// EncodeStateYAML writes s as a YAML document.
func EncodeStateYAML(w io.Writer, s State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("gp: encode state: %w", err)
	}
	return enc.Close()
}
