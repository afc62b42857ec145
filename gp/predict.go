package gp

import (
	"fmt"
	"math"

	"github.com/n0madic/go-gaussian-process/gaussian"
	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/mat"
)

// Prior returns the prior distribution N(m(x), k(x, x)) at x, ignoring all
// measurements.
func (g *GP) Prior(x []float64) (Prediction, error) {
	if _, err := g.checkQueries([][]float64{x}); err != nil {
		return Prediction{}, err
	}
	out, err := gaussian.NewUnivariate(g.mean.Eval(x), g.cov.Eval(x, x))
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Input: append([]float64(nil), x...), Output: out}, nil
}

// PriorBatch returns the independent prior marginals at every input.
func (g *GP) PriorBatch(xs [][]float64) ([]Prediction, error) {
	if _, err := g.checkQueries(xs); err != nil {
		return nil, err
	}
	out := make([]Prediction, len(xs))
	for i, x := range xs {
		p, err := g.Prior(x)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// PriorJoint returns the joint prior distribution over all inputs.
func (g *GP) PriorJoint(xs [][]float64) (JointPrediction, error) {
	if _, err := g.checkQueries(xs); err != nil {
		return JointPrediction{}, err
	}
	out, err := gaussian.NewMultivariate(g.meanAt(xs), g.gram(xs))
	if err != nil {
		return JointPrediction{}, err
	}
	return JointPrediction{Inputs: copyInputs(xs), Output: out}, nil
}

// Predict returns the posterior distribution at x. Without measurements it
// equals the prior.
func (g *GP) Predict(x []float64) (Prediction, error) {
	if len(g.measurements) == 0 {
		return g.Prior(x)
	}
	if _, err := g.checkQueries([][]float64{x}); err != nil {
		return Prediction{}, err
	}
	mean, cov, err := g.posterior([][]float64{x})
	if err != nil {
		return Prediction{}, err
	}
	// Cancellation can leave a tiny negative variance near measured inputs.
	out, err := gaussian.NewUnivariate(mean[0], math.Max(cov.At(0, 0), 0))
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Input: append([]float64(nil), x...), Output: out}, nil
}

// PredictBatch returns the independent posterior marginals at every input.
func (g *GP) PredictBatch(xs [][]float64) ([]Prediction, error) {
	if _, err := g.checkQueries(xs); err != nil {
		return nil, err
	}
	out := make([]Prediction, len(xs))
	for i, x := range xs {
		p, err := g.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// PredictJoint returns the joint posterior distribution over all inputs.
// Without measurements it equals the joint prior.
func (g *GP) PredictJoint(xs [][]float64) (JointPrediction, error) {
	if len(g.measurements) == 0 {
		return g.PriorJoint(xs)
	}
	if _, err := g.checkQueries(xs); err != nil {
		return JointPrediction{}, err
	}
	mean, cov, err := g.posterior(xs)
	if err != nil {
		return JointPrediction{}, err
	}
	out, err := gaussian.NewMultivariate(mean, cov)
	if err != nil {
		return JointPrediction{}, err
	}
	return JointPrediction{Inputs: copyInputs(xs), Output: out}, nil
}

// posterior computes
//
//	β    = Ksm·Kni
//	mean = m(xs) + β·(y − m(X))
//	cov  = Kss − β·Kms
//
// for validated queries xs against the n measurements X.
func (g *GP) posterior(xs [][]float64) ([]float64, *mat.Dense, error) {
	kms := g.crossCov(xs)
	beta, err := linalg.MultiplyChain(kms.T(), g.kni)
	if err != nil {
		return nil, nil, err
	}
	var mv mat.VecDense
	mv.MulVec(beta, g.residuals())
	mean := g.meanAt(xs)
	for i := range mean {
		mean[i] += mv.AtVec(i)
	}

	bk, err := linalg.MultiplyChain(beta, kms)
	if err != nil {
		return nil, nil, err
	}
	cov, err := linalg.Sub(g.gram(xs), bk)
	if err != nil {
		return nil, nil, err
	}
	return mean, cov, nil
}

// posteriorMean computes only the mean part of posterior.
func (g *GP) posteriorMean(xs [][]float64) []float64 {
	mean := g.meanAt(xs)
	if len(g.measurements) == 0 {
		return mean
	}
	var alpha mat.VecDense
	alpha.MulVec(g.kni, g.residuals())
	k := make([]float64, len(g.measurements))
	for i, x := range xs {
		for j, m := range g.measurements {
			k[j] = g.cov.Eval(m.Input, x)
		}
		mean[i] += mat.Dot(mat.NewVecDense(len(k), k), &alpha)
	}
	return mean
}

// LogLikelihood returns the log marginal likelihood of the measurements
//
//	−½·n·ln 2π − ½·ln|Kn| − ½·rᵀ·Kni·r
//
// where r is the difference between outputs and prior mean. Without
// measurements it returns 1, a value no log density of data can take on
// its own. Callers treat it as "no data".
func (g *GP) LogLikelihood() (float64, error) {
	n := len(g.measurements)
	if n == 0 {
		return 1, nil
	}
	logDet, err := linalg.LogDet(g.kn)
	if err != nil {
		return 0, fmt.Errorf("gp: log likelihood: %w", err)
	}
	r := g.residuals()
	quad := mat.Inner(r, g.kni, r)
	return -0.5*float64(n)*math.Log(2*math.Pi) - 0.5*logDet - 0.5*quad, nil
}

// residuals returns y − m(X) over the measurements.
func (g *GP) residuals() *mat.VecDense {
	r := mat.NewVecDense(len(g.measurements), nil)
	for i, m := range g.measurements {
		r.SetVec(i, *m.Output-g.mean.Eval(m.Input))
	}
	return r
}

// crossCov returns the n×q matrix k(Xᵢ, xsⱼ).
func (g *GP) crossCov(xs [][]float64) *mat.Dense {
	out := mat.NewDense(len(g.measurements), len(xs), nil)
	for i, m := range g.measurements {
		for j, x := range xs {
			out.Set(i, j, g.cov.Eval(m.Input, x))
		}
	}
	return out
}

// gram returns the q×q prior covariance of xs.
func (g *GP) gram(xs [][]float64) *mat.Dense {
	q := len(xs)
	out := mat.NewDense(q, q, nil)
	for i := 0; i < q; i++ {
		for j := i; j < q; j++ {
			v := g.cov.Eval(xs[i], xs[j])
			out.Set(i, j, v)
			out.Set(j, i, v)
		}
	}
	return out
}

func (g *GP) meanAt(xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = g.mean.Eval(x)
	}
	return out
}

func copyInputs(xs [][]float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = append([]float64(nil), x...)
	}
	return out
}
