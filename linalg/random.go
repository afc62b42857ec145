package linalg

import (
	"math/rand"

	"github.com/n0madic/go-gaussian-process/gperr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianRandom draws a single standard normal value by applying the probit
// function to a uniform draw. A nil rng uses the global source.
func GaussianRandom(rng *rand.Rand) float64 {
	u := uniform(rng)
	for u == 0 {
		u = uniform(rng)
	}
	return distuv.UnitNormal.Quantile(u)
}

// GaussianRandomVector draws n independent standard normal values.
func GaussianRandomVector(rng *rand.Rand, n int) []float64 {
	if n < 0 {
		n = 0
	}
	z := make([]float64, n)
	for i := range z {
		z[i] = GaussianRandom(rng)
	}
	return z
}

func uniform(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}

// SampleFromCholesky returns mean + L·z. When z is nil a fresh standard normal
// vector is drawn from rng; otherwise z must have the same length as mean.
func SampleFromCholesky(mean []float64, l mat.Matrix, z []float64, rng *rand.Rand) ([]float64, error) {
	n := len(mean)
	r, c := Dims(l)
	if r != n || c != n {
		return nil, &gperr.DimensionError{Op: "linalg: cholesky factor size", Expected: n, Got: r, Err: ErrDimensionMismatch}
	}
	if z == nil {
		z = GaussianRandomVector(rng, n)
	} else if len(z) != n {
		return nil, &gperr.DimensionError{Op: "linalg: random vector length", Expected: n, Got: len(z), Err: ErrDimensionMismatch}
	}
	if n == 0 {
		return []float64{}, nil
	}

	sample := mat.NewVecDense(n, nil)
	sample.MulVec(l, mat.NewVecDense(n, append([]float64(nil), z...)))
	sample.AddVec(sample, mat.NewVecDense(n, append([]float64(nil), mean...)))
	return sample.RawVector().Data, nil
}
