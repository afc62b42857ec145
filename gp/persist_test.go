package gp

import (
	"bytes"
	"encoding/gob"
	"strings"
	"testing"

	"github.com/n0madic/go-gaussian-process/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	state := sineState(6)
	state.MeanData = &kernel.MeanSpec{Type: kernel.TypeConstant, M: ptr(0)}
	state.DefaultOutputNoiseVariance = ptr(0)
	state.Measurements = append(state.Measurements, NewMeasurement(pt(11), 1).WithNoise(0.2))
	g := newTestGP(t, state, WithAnchorPoints(7), WithRemovalStrategy(RemoveBlockUpdate))
	require.NoError(t, g.SetNumSamples(2))

	var buf bytes.Buffer
	require.NoError(t, g.Save(&buf))

	loaded, err := Load(&buf, WithRandomSeed(7))
	require.NoError(t, err)
	assert.Equal(t, g.State(), loaded.State())
	assert.Equal(t, 7, loaded.AnchorPoints())
	assertPredictionsClose(t, g, loaded, points(-2, 0, 5.5, 11), 1e-12)

	xs := points(0, 3, 6)
	want, err := g.Samples(xs)
	require.NoError(t, err)
	got, err := loaded.Samples(xs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsBadSnapshots(t *testing.T) {
	_, err := Load(strings.NewReader("not gob"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(Snapshot{Version: 99}))
	_, err = Load(&buf)
	assert.EqualError(t, err, "unsupported gob version")

	buf.Reset()
	require.NoError(t, gob.NewEncoder(&buf).Encode(Snapshot{
		Version:  snapshotVersion,
		MeanType: kernel.TypeZero,
		Inputs:   [][]float64{{0}},
	}))
	_, err = Load(&buf)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
}

const stateDoc = `
meanData:
  type: Constant
  m: 1.5
covarianceData:
  type: SquaredExponential
  Vx: 2
  Vy: 0.5
defaultOutputNoiseVariance: 0.01
measurements:
  - input: 0
    output: 1
  - input: [2]
    output: 3
    outputNoiseVariance: 0.1
`

func TestDecodeStateYAML(t *testing.T) {
	s, err := DecodeStateYAML(strings.NewReader(stateDoc))
	require.NoError(t, err)

	require.NotNil(t, s.MeanData)
	assert.Equal(t, kernel.TypeConstant, s.MeanData.Type)
	assert.Equal(t, 1.5, *s.MeanData.M)
	require.NotNil(t, s.CovarianceData)
	assert.Equal(t, 2.0, s.CovarianceData.Vx.Scalar)
	assert.Equal(t, 0.5, *s.CovarianceData.Vy)
	require.Len(t, s.Measurements, 2)
	assert.Equal(t, pt(0), s.Measurements[0].Input)
	assert.Nil(t, s.Measurements[0].OutputNoiseVariance)
	assert.Equal(t, pt(2), s.Measurements[1].Input)
	assert.Equal(t, 0.1, *s.Measurements[1].OutputNoiseVariance)

	g := newTestGP(t, s)
	assert.Equal(t, []float64{0.01, 0.1}, []float64{g.Measurements()[0].NoiseVariance(), g.Measurements()[1].NoiseVariance()})

	var buf bytes.Buffer
	require.NoError(t, EncodeStateYAML(&buf, g.State()))
	again, err := DecodeStateYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.State(), again)
}

func TestDecodeStateYAMLEdgeCases(t *testing.T) {
	s, err := DecodeStateYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, State{}, s)

	_, err = DecodeStateYAML(strings.NewReader("measurements:\n  - input: {a: 1}\n"))
	assert.Error(t, err)

	s, err = DecodeStateYAML(strings.NewReader("measurements:\n  - output: 1\n"))
	require.NoError(t, err)
	_, err = New(s)
	assert.ErrorIs(t, err, ErrMissingInput)
}
