package linalg

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/n0madic/go-gaussian-process/gperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMultiplyChain(t *testing.T) {
	a := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := mat.NewDense(3, 1, []float64{1, 0, -1})
	c := Scalar(2)

	got, err := MultiplyChain(a, b, c)
	require.NoError(t, err)
	want := mat.NewDense(2, 1, []float64{-4, -4})
	assert.True(t, mat.EqualApprox(want, got, 1e-12), "got %v", mat.Formatted(got))

	_, err = MultiplyChain(a, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, err, gperr.ErrInvalidParameter)

	var dimErr *gperr.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	empty, err := MultiplyChain(Empty(), Empty())
	require.NoError(t, err)
	assert.True(t, IsEmpty(empty))
}

func TestAddSubTranspose(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{4, 3, 2, 1})

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.True(t, mat.Equal(sum, mat.NewDense(2, 2, []float64{5, 5, 5, 5})))

	diff, err := Sub(a, b)
	require.NoError(t, err)
	assert.True(t, mat.Equal(diff, mat.NewDense(2, 2, []float64{-3, -1, 1, 3})))

	_, err = Add(a, Scalar(1))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	assert.True(t, mat.Equal(Transpose(a), mat.NewDense(2, 2, []float64{1, 3, 2, 4})))
	assert.True(t, IsEmpty(Transpose(nil)))
}

func TestMergeBlocks(t *testing.T) {
	t.Run("two by two", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
		k := mat.NewDense(2, 1, []float64{5, 6})
		kt := mat.NewDense(1, 2, []float64{7, 8})
		s := Scalar(9)

		got, err := MergeBlocks([][]mat.Matrix{{a, k}, {kt, s}})
		require.NoError(t, err)
		want := mat.NewDense(3, 3, []float64{
			1, 2, 5,
			3, 4, 6,
			7, 8, 9,
		})
		assert.True(t, mat.Equal(want, got))
	})

	t.Run("growing from empty", func(t *testing.T) {
		got, err := MergeBlocks([][]mat.Matrix{{Empty(), Empty()}, {nil, Scalar(3)}})
		require.NoError(t, err)
		assert.True(t, mat.Equal(Scalar(3), got))
	})

	t.Run("row mismatch", func(t *testing.T) {
		_, err := MergeBlocks([][]mat.Matrix{{mat.NewDense(2, 2, nil), mat.NewDense(1, 1, nil)}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("column mismatch", func(t *testing.T) {
		_, err := MergeBlocks([][]mat.Matrix{{mat.NewDense(1, 2, nil)}, {mat.NewDense(1, 3, nil)}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("ragged", func(t *testing.T) {
		_, err := MergeBlocks([][]mat.Matrix{{Scalar(1), Scalar(2)}, {Scalar(3)}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("hole", func(t *testing.T) {
		_, err := MergeBlocks([][]mat.Matrix{{Scalar(1), Scalar(2)}, {Scalar(3), Empty()}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestRemoveRowAndColumn(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	orig := mat.DenseCopyOf(m)

	reduced, row, err := RemoveRow(m, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, row)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 2, 3, 7, 8, 9}), reduced))
	assert.True(t, mat.Equal(orig, m), "argument must not be mutated")

	reduced, col, err := RemoveColumn(m, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6, 9}, col)
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 2, 4, 5, 7, 8}), reduced))

	reduced, row, err = RemoveRowColumn(m, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, row)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{5, 6, 8, 9}), reduced))

	last, _, err := RemoveRowColumn(Scalar(4), 0)
	require.NoError(t, err)
	assert.True(t, IsEmpty(last))

	for _, idx := range []int{-1, 3} {
		_, _, err = RemoveRow(m, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.ErrorIs(t, err, gperr.ErrIndexOutOfRange)
		_, _, err = RemoveColumn(m, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestCholesky(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		4, 2, 0.4,
		2, 3, 0.5,
		0.4, 0.5, 2,
	})
	l, jitter, err := CholeskyJitter(a)
	require.NoError(t, err)
	assert.Zero(t, jitter)

	var llt mat.Dense
	llt.Mul(l, l.T())
	assert.True(t, mat.EqualApprox(a, &llt, 1e-12))
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			assert.Zero(t, l.At(i, j))
		}
	}
}

func TestCholeskyRegularizesSingularMatrix(t *testing.T) {
	// Rank one: every row equal.
	a := mat.NewSymDense(3, []float64{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})
	l, jitter, err := CholeskyJitter(a)
	require.NoError(t, err)
	assert.Greater(t, jitter, 0.0)
	assert.Less(t, jitter, 1e-3)

	var llt mat.Dense
	llt.Mul(l, l.T())
	assert.True(t, mat.EqualApprox(a, &llt, 1e-3))
}

func TestCholeskyGivesUp(t *testing.T) {
	a := mat.NewSymDense(2, []float64{-1e6, 0, 0, -1e6})
	_, err := Cholesky(a)
	assert.ErrorIs(t, err, ErrCholeskyFailed)
	assert.ErrorIs(t, err, gperr.ErrNumericalFailure)
}

func TestLogDet(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	got, err := LogDet(a)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(5), got, 1e-12)

	// det = -6
	p := mat.NewDense(2, 2, []float64{0, 2, 3, 0})
	_, err = LogDet(p)
	assert.ErrorIs(t, err, ErrNonPositiveDeterminant)

	singular := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
	_, err = LogDet(singular)
	assert.ErrorIs(t, err, ErrNonPositiveDeterminant)

	zero, err := LogDet(Empty())
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestInverse(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{4, 1, 1, 3})
	inv, err := Inverse(a)
	require.NoError(t, err)

	prod, err := MultiplyChain(a, inv)
	require.NoError(t, err)
	assert.True(t, IsIdentity(prod, 1e-12))

	_, err = Inverse(mat.NewDense(2, 2, []float64{1, 2, 2, 4}))
	assert.ErrorIs(t, err, ErrSingular)
}

func TestGaussianRandomVector(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 20000
	z := GaussianRandomVector(rng, n)
	require.Len(t, z, n)

	var sum, sumSq float64
	for _, v := range z {
		require.False(t, math.IsInf(v, 0) || math.IsNaN(v))
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, variance, 0.05)

	assert.Empty(t, GaussianRandomVector(rng, 0))
}

func TestSampleFromCholesky(t *testing.T) {
	mean := []float64{1, -1}
	l := mat.NewTriDense(2, mat.Lower, []float64{2, 0, 1, 3})

	got, err := SampleFromCholesky(mean, l, []float64{1, 1}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 3}, got, 1e-12)

	_, err = SampleFromCholesky(mean, l, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	fresh, err := SampleFromCholesky(mean, l, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestSymmetrize(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 4, 1})
	sym, err := Symmetrize(a)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sym.At(0, 1))
	assert.Equal(t, 3.0, sym.At(1, 0))

	_, err = Symmetrize(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
