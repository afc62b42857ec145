package linalg

import (
	"errors"
	"fmt"
	"math"

	"github.com/n0madic/go-gaussian-process/gperr"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrCholeskyFailed is returned when the Cholesky factorization fails even
	// after the maximum amount of diagonal regularization.
	ErrCholeskyFailed = gperr.New("linalg: cholesky factorization failed", gperr.ErrNumericalFailure)

	// ErrNonPositiveDeterminant is returned by LogDet when the determinant is
	// zero or negative.
	ErrNonPositiveDeterminant = gperr.New("linalg: non-positive determinant", gperr.ErrNumericalFailure)

	// ErrSingular is returned when a matrix cannot be inverted.
	ErrSingular = gperr.New("linalg: singular matrix", gperr.ErrNumericalFailure)
)

const (
	// MaxCholeskyAttempts bounds the number of regularized retries.
	MaxCholeskyAttempts = 40

	// minJitterExp is the exponent of the first diagonal jitter e^k.
	minJitterExp = -30
)

// Cholesky returns the lower triangular L with L·Lᵀ = a. See CholeskyJitter.
func Cholesky(a mat.Symmetric) (*mat.TriDense, error) {
	l, _, err := CholeskyJitter(a)
	return l, err
}

// CholeskyJitter factorizes a symmetric positive definite matrix. When the
// factorization fails numerically, e^k is added to the diagonal for
// k = -30, -29, ... until it succeeds, so the returned factor may describe a
// slightly inflated covariance. The added jitter is returned alongside the
// factor; it is zero when no regularization was needed.
func CholeskyJitter(a mat.Symmetric) (*mat.TriDense, float64, error) {
	if a == nil {
		return &mat.TriDense{}, 0, nil
	}
	n := a.SymmetricDim()
	if n == 0 {
		return &mat.TriDense{}, 0, nil
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); ok {
		l := mat.NewTriDense(n, mat.Lower, nil)
		chol.LTo(l)
		return l, 0, nil
	}

	work := mat.NewSymDense(n, nil)
	work.CopySym(a)
	diag := make([]float64, n)
	for i := range diag {
		diag[i] = a.At(i, i)
	}
	for attempt := 0; attempt < MaxCholeskyAttempts; attempt++ {
		jitter := math.Exp(float64(minJitterExp + attempt))
		for i := 0; i < n; i++ {
			work.SetSym(i, i, diag[i]+jitter)
		}
		if ok := chol.Factorize(work); ok {
			l := mat.NewTriDense(n, mat.Lower, nil)
			chol.LTo(l)
			return l, jitter, nil
		}
	}
	return nil, 0, fmt.Errorf("%w after %d attempts", ErrCholeskyFailed, MaxCholeskyAttempts)
}

// LogDet returns ln(det(a)) computed from an LU decomposition with partial
// pivoting. It is meant for positive definite matrices and fails with
// ErrNonPositiveDeterminant when the determinant is not positive.
func LogDet(a mat.Matrix) (float64, error) {
	r, c := Dims(a)
	if r != c {
		return 0, &gperr.DimensionError{Op: "linalg: log determinant", Expected: r, Got: c, Err: ErrDimensionMismatch}
	}
	if r == 0 {
		return 0, nil
	}
	var lu mat.LU
	lu.Factorize(a)
	logDet, sign := lu.LogDet()
	if sign <= 0 || math.IsNaN(logDet) || math.IsInf(logDet, -1) {
		return 0, ErrNonPositiveDeterminant
	}
	return logDet, nil
}

// Inverse returns a⁻¹. Ill-conditioned matrices are still inverted; only
// singular ones fail.
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	r, c := Dims(a)
	if r != c {
		return nil, &gperr.DimensionError{Op: "linalg: inverse", Expected: r, Got: c, Err: ErrDimensionMismatch}
	}
	if r == 0 {
		return Empty(), nil
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("linalg: inverse: %w", ErrSingular)
		}
	}
	return &inv, nil
}
