package kernel

import (
	"math"
	"testing"

	"github.com/n0madic/go-gaussian-process/gperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"
)

func ptr(v float64) *float64 { return &v }

func TestBuildMean(t *testing.T) {
	tests := []struct {
		name    string
		spec    *MeanSpec
		x       []float64
		want    float64
		wantErr error
	}{
		{name: "default", spec: nil, x: []float64{3}, want: 0},
		{name: "zero", spec: &MeanSpec{Type: TypeZero}, x: []float64{3}, want: 0},
		{name: "constant", spec: &MeanSpec{Type: TypeConstant, M: ptr(2.5)}, x: []float64{-7}, want: 2.5},
		{name: "constant without m", spec: &MeanSpec{Type: TypeConstant}, wantErr: ErrMissingParameter},
		{name: "missing type", spec: &MeanSpec{}, wantErr: ErrUnknownFunctionType},
		{name: "unknown type", spec: &MeanSpec{Type: "Linear"}, wantErr: ErrUnknownFunctionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildMean(tt.spec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Eval(tt.x))
		})
	}
}

func TestBuildCovarianceErrors(t *testing.T) {
	tests := []struct {
		name     string
		spec     *CovarianceSpec
		wantErr  error
		category error
	}{
		{"missing type", &CovarianceSpec{Vx: ScalarValue(1), Vy: ptr(1)}, ErrUnknownFunctionType, gperr.ErrUnknownType},
		{"unknown type", &CovarianceSpec{Type: "Matern52"}, ErrUnknownFunctionType, gperr.ErrUnknownType},
		{"missing Vx", &CovarianceSpec{Type: TypeSquaredExponential, Vy: ptr(1)}, ErrMissingParameter, gperr.ErrMissingParameter},
		{"missing Vy", &CovarianceSpec{Type: TypeSquaredExponential, Vx: ScalarValue(1)}, ErrMissingParameter, gperr.ErrMissingParameter},
		{"zero Vy", &CovarianceSpec{Type: TypeSquaredExponential, Vx: ScalarValue(1), Vy: ptr(0)}, ErrInvalidParameter, gperr.ErrInvalidParameter},
		{"negative Vx", &CovarianceSpec{Type: TypeSquaredExponential, Vx: ScalarValue(-1), Vy: ptr(1)}, ErrInvalidParameter, gperr.ErrInvalidParameter},
		{"ragged Vx", &CovarianceSpec{Type: TypeSquaredExponential, Vx: MatrixValue([][]float64{{1, 0}, {0}}), Vy: ptr(1)}, ErrInvalidParameter, gperr.ErrInvalidParameter},
		{"singular Vx", &CovarianceSpec{Type: TypeSquaredExponential, Vx: MatrixValue([][]float64{{1, 1}, {1, 1}}), Vy: ptr(1)}, ErrInvalidParameter, gperr.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCovariance(tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.category)
		})
	}
}

func TestSquaredExponentialScalar(t *testing.T) {
	k, err := BuildCovariance(nil)
	require.NoError(t, err)
	assert.Zero(t, k.InputDim())

	assert.Equal(t, 1.0, k.Eval([]float64{0}, []float64{0}))
	assert.InDelta(t, math.Exp(-0.5), k.Eval([]float64{0}, []float64{1}), 1e-15)

	k2, err := NewSquaredExponential(4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Exp(-9.0/8), k2.Eval([]float64{1}, []float64{4}), 1e-15)
}

func TestSquaredExponentialMatrix(t *testing.T) {
	spec := &CovarianceSpec{
		Type: TypeSquaredExponential,
		Vx:   MatrixValue([][]float64{{1, 0}, {0, 4}}),
		Vy:   ptr(3),
	}
	k, err := BuildCovariance(spec)
	require.NoError(t, err)
	assert.Equal(t, 2, k.InputDim())

	a := []float64{0, 0}
	b := []float64{1, 2}
	// dᵀVx⁻¹d = 1 + 4/4 = 2
	assert.InDelta(t, 3*math.Exp(-1), k.Eval(a, b), 1e-15)
	assert.Equal(t, 3.0, k.Eval(b, b))
}

func TestCovarianceIsSymmetric(t *testing.T) {
	scalar, err := NewSquaredExponential(0.7, 1.3)
	require.NoError(t, err)
	matrix, err := NewSquaredExponentialMatrix(mat.NewDense(2, 2, []float64{2, 0.3, 0.3, 1}), 1.3)
	require.NoError(t, err)

	pairs := [][2][]float64{
		{{0.1, -2}, {3.3, 0.25}},
		{{1e-3, 7}, {-4.2, 0}},
		{{5, 5}, {5, 5.000001}},
	}
	for _, p := range pairs {
		assert.Equal(t, scalar.Eval(p[0][:1], p[1][:1]), scalar.Eval(p[1][:1], p[0][:1]))
		assert.Equal(t, matrix.Eval(p[0], p[1]), matrix.Eval(p[1], p[0]))
	}
}

func TestSpecRoundTrip(t *testing.T) {
	for _, spec := range []*CovarianceSpec{
		DefaultCovarianceSpec(),
		{Type: TypeSquaredExponential, Vx: MatrixValue([][]float64{{2, 0}, {0, 3}}), Vy: ptr(0.5)},
	} {
		k, err := BuildCovariance(spec)
		require.NoError(t, err)
		assert.Equal(t, spec, k.Spec())
	}

	m, err := BuildMean(&MeanSpec{Type: TypeConstant, M: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, *m.Spec().M)
}

func TestValueYAML(t *testing.T) {
	src := `
type: SquaredExponential
Vx:
  - [1, 0.5]
  - [0.5, 2]
Vy: 1.5
`
	var spec CovarianceSpec
	require.NoError(t, yaml.Unmarshal([]byte(src), &spec))
	require.NotNil(t, spec.Vx)
	assert.True(t, spec.Vx.IsMatrix())
	assert.Equal(t, [][]float64{{1, 0.5}, {0.5, 2}}, spec.Vx.Matrix)
	assert.Equal(t, 1.5, *spec.Vy)

	out, err := yaml.Marshal(&spec)
	require.NoError(t, err)
	var back CovarianceSpec
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, spec, back)

	var scalar CovarianceSpec
	require.NoError(t, yaml.Unmarshal([]byte("type: SquaredExponential\nVx: 0.25\nVy: 1\n"), &scalar))
	assert.False(t, scalar.Vx.IsMatrix())
	assert.Equal(t, 0.25, scalar.Vx.Scalar)

	var bad CovarianceSpec
	assert.Error(t, yaml.Unmarshal([]byte("type: SquaredExponential\nVx: {a: 1}\n"), &bad))
}

func TestSpecClone(t *testing.T) {
	spec := &CovarianceSpec{Type: TypeSquaredExponential, Vx: MatrixValue([][]float64{{1}}), Vy: ptr(2)}
	cp := spec.Clone()
	cp.Vx.Matrix[0][0] = 9
	*cp.Vy = 9
	assert.Equal(t, 1.0, spec.Vx.Matrix[0][0])
	assert.Equal(t, 2.0, *spec.Vy)

	var nilSpec *MeanSpec
	assert.Nil(t, nilSpec.Clone())
}
