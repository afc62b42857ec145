// Package gaussian implements univariate and multivariate normal distributions
// with density evaluation and Cholesky based sampling.
package gaussian

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/n0madic/go-gaussian-process/gperr"
	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidDistributionParameters is returned when the mean and the
// (co)variance do not describe a valid normal distribution.
var ErrInvalidDistributionParameters = gperr.New("gaussian: invalid distribution parameters", gperr.ErrInvalidParameter)

// Distribution is a normal distribution over a scalar or a vector.
//
// Sampling from high dimensional distributions (above roughly 15-20
// dimensions) becomes unreliable when the covariance is ill-conditioned,
// because the Cholesky factor then only exists after diagonal regularization.
type Distribution struct {
	multivariate bool
	mean         []float64
	variance     float64       // univariate only
	cov          *mat.SymDense // multivariate only

	// Lazily computed.
	chol     *mat.TriDense
	jitter   float64
	logDet   float64
	inv      *mat.Dense
	detReady bool
}

// NewUnivariate returns the normal distribution N(mean, variance).
func NewUnivariate(mean, variance float64) (*Distribution, error) {
	if !isFinite(mean) {
		return nil, fmt.Errorf("%w: mean %v is not finite", ErrInvalidDistributionParameters, mean)
	}
	if !isFinite(variance) || variance < 0 {
		return nil, fmt.Errorf("%w: variance %v must be finite and non-negative", ErrInvalidDistributionParameters, variance)
	}
	return &Distribution{
		mean:     []float64{mean},
		variance: variance,
	}, nil
}

// NewMultivariate returns the normal distribution N(mean, cov). The covariance
// must be a square matrix matching the length of mean; it is copied and
// symmetrized.
func NewMultivariate(mean []float64, cov mat.Matrix) (*Distribution, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("%w: empty mean vector", ErrInvalidDistributionParameters)
	}
	r, c := linalg.Dims(cov)
	if r != c || r != len(mean) {
		return nil, fmt.Errorf("%w: covariance is %dx%d, mean has length %d", ErrInvalidDistributionParameters, r, c, len(mean))
	}
	for _, v := range mean {
		if !isFinite(v) {
			return nil, fmt.Errorf("%w: mean contains %v", ErrInvalidDistributionParameters, v)
		}
	}
	sym, err := linalg.Symmetrize(cov)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistributionParameters, err)
	}
	return &Distribution{
		multivariate: true,
		mean:         append([]float64(nil), mean...),
		cov:          sym,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Multivariate reports whether the distribution is over a vector.
func (d *Distribution) Multivariate() bool {
	return d.multivariate
}

// Dim returns the dimensionality of the distribution (1 for univariate).
func (d *Distribution) Dim() int {
	return len(d.mean)
}

// Mean returns the mean of a univariate distribution, or the first component
// of a multivariate one.
func (d *Distribution) Mean() float64 {
	return d.mean[0]
}

// Variance returns the variance of a univariate distribution, or the first
// diagonal element of a multivariate covariance.
func (d *Distribution) Variance() float64 {
	if d.multivariate {
		return d.cov.At(0, 0)
	}
	return d.variance
}

// StdDev returns the square root of Variance.
func (d *Distribution) StdDev() float64 {
	return math.Sqrt(d.Variance())
}

// MeanVec returns a copy of the mean vector.
func (d *Distribution) MeanVec() []float64 {
	return append([]float64(nil), d.mean...)
}

// Covariance returns a copy of the covariance matrix (1×1 for univariate).
func (d *Distribution) Covariance() *mat.SymDense {
	if !d.multivariate {
		return mat.NewSymDense(1, []float64{d.variance})
	}
	out := mat.NewSymDense(len(d.mean), nil)
	out.CopySym(d.cov)
	return out
}

// Marginal returns the univariate marginal of component i.
func (d *Distribution) Marginal(i int) (*Distribution, error) {
	if i < 0 || i >= len(d.mean) {
		return nil, fmt.Errorf("gaussian: marginal %d of %d: %w", i, len(d.mean), gperr.ErrIndexOutOfRange)
	}
	if !d.multivariate {
		return NewUnivariate(d.mean[0], d.variance)
	}
	return NewUnivariate(d.mean[i], math.Max(d.cov.At(i, i), 0))
}

// PDF evaluates the probability density at x. For univariate distributions x
// must have length one.
func (d *Distribution) PDF(x []float64) (float64, error) {
	if len(x) != len(d.mean) {
		return 0, &gperr.DimensionError{Op: "gaussian: pdf input", Expected: len(d.mean), Got: len(x), Err: linalg.ErrDimensionMismatch}
	}
	if !d.multivariate {
		return distuv.Normal{Mu: d.mean[0], Sigma: math.Sqrt(d.variance)}.Prob(x[0]), nil
	}

	if !d.detReady {
		logDet, err := linalg.LogDet(d.cov)
		if err != nil {
			return 0, err
		}
		inv, err := linalg.Inverse(d.cov)
		if err != nil {
			return 0, err
		}
		d.logDet, d.inv, d.detReady = logDet, inv, true
	}

	k := len(d.mean)
	diff := mat.NewVecDense(k, nil)
	for i := range x {
		diff.SetVec(i, x[i]-d.mean[i])
	}
	q := mat.Inner(diff, d.inv, diff)
	return math.Exp(-0.5*q - 0.5*(float64(k)*math.Log(2*math.Pi)+d.logDet)), nil
}

// CholeskyFactor returns the cached lower triangular factor of the covariance,
// computing it on first use.
func (d *Distribution) CholeskyFactor() (*mat.TriDense, error) {
	if d.chol != nil {
		return d.chol, nil
	}
	if !d.multivariate {
		d.chol = mat.NewTriDense(1, mat.Lower, []float64{math.Sqrt(d.variance)})
		return d.chol, nil
	}
	l, jitter, err := linalg.CholeskyJitter(d.cov)
	if err != nil {
		return nil, err
	}
	d.chol, d.jitter = l, jitter
	return d.chol, nil
}

// Jitter returns the diagonal regularization that was needed to factorize the
// covariance. It is zero until the factor has been computed.
func (d *Distribution) Jitter() float64 {
	return d.jitter
}

// Sample draws a random value. The result has length Dim.
func (d *Distribution) Sample(rng *rand.Rand) ([]float64, error) {
	l, err := d.CholeskyFactor()
	if err != nil {
		return nil, err
	}
	return linalg.SampleFromCholesky(d.mean, l, nil, rng)
}

// SampleWith transforms the standard normal vector z into a draw of the
// distribution. The same z always yields the same value.
func (d *Distribution) SampleWith(z []float64) ([]float64, error) {
	l, err := d.CholeskyFactor()
	if err != nil {
		return nil, err
	}
	return linalg.SampleFromCholesky(d.mean, l, z, nil)
}

// String implements fmt.Stringer.
func (d *Distribution) String() string {
	if !d.multivariate {
		return fmt.Sprintf("N(%g, %g)", d.mean[0], d.variance)
	}
	return fmt.Sprintf("N(%v, %dx%d)", d.mean, len(d.mean), len(d.mean))
}
