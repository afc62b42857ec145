package gp

import (
	"fmt"
	"log/slog"

	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/mat"
)

// AddMeasurement validates m, appends it and updates the derived matrices.
// It returns the index of the new measurement.
func (g *GP) AddMeasurement(m Measurement) (int, error) {
	p, err := g.process(m, g.inputDim)
	if err != nil {
		return 0, err
	}
	return g.add(p)
}

// AddMeasurements adds ms in order and returns their indices. Every
// measurement is validated before the first one is added.
func (g *GP) AddMeasurements(ms []Measurement) ([]int, error) {
	processed := make([]Measurement, len(ms))
	dim := g.inputDim
	for i, m := range ms {
		p, err := g.process(m, dim)
		if err != nil {
			return nil, fmt.Errorf("gp: measurement %d: %w", i, err)
		}
		dim = len(p.Input)
		processed[i] = p
	}
	indices := make([]int, 0, len(ms))
	for i, p := range processed {
		idx, err := g.add(p)
		if err != nil {
			return indices, fmt.Errorf("gp: measurement %d: %w", i, err)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// add appends a processed measurement. The Gram matrices grow by one row and
// column; the inverse grows by the block inversion formula
//
//	Δ = 1/(s + σ² − kᵀ·Kni·k)
//	[Kni + Δ(Kni·k)(kᵀ·Kni)   −Δ(Kni·k)]
//	[−Δ(kᵀ·Kni)                        Δ]
//
// where k holds the covariances with the existing inputs and s = k(x, x).
func (g *GP) add(m Measurement) (int, error) {
	n := len(g.measurements)
	x := m.Input
	noise := *m.OutputNoiseVariance

	k := make([]float64, n)
	for i, mm := range g.measurements {
		k[i] = g.cov.Eval(mm.Input, x)
	}
	s := g.cov.Eval(x, x)

	var kni *mat.Dense
	if n == 0 {
		if !(s+noise > 0) {
			return 0, fmt.Errorf("%w: variance %g at first input", ErrSingularUpdate, s+noise)
		}
		kni = linalg.Scalar(1 / (s + noise))
	} else {
		kv := mat.NewVecDense(n, k)
		var a, b mat.VecDense
		a.MulVec(g.kni, kv)
		b.MulVec(g.kni.T(), kv)
		schur := s + noise - mat.Dot(kv, &a)
		if !(schur > 0) {
			return 0, fmt.Errorf("%w: schur complement %g", ErrSingularUpdate, schur)
		}
		delta := 1 / schur

		var top mat.Dense
		top.Outer(delta, &a, &b)
		top.Add(g.kni, &top)
		col := make([]float64, n)
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = -delta * a.AtVec(i)
			row[i] = -delta * b.AtVec(i)
		}
		var err error
		kni, err = linalg.MergeBlocks([][]mat.Matrix{
			{&top, linalg.Column(col)},
			{linalg.RowVector(row), linalg.Scalar(delta)},
		})
		if err != nil {
			return 0, err
		}
	}

	kmm, err := grow(g.kmm, k, s)
	if err != nil {
		return 0, err
	}
	kn, err := grow(g.kn, k, s+noise)
	if err != nil {
		return 0, err
	}

	g.kmm, g.kn, g.kni = kmm, kn, kni
	g.measurements = append(g.measurements, m)
	if g.inputDim == 0 {
		g.inputDim = len(x)
	}
	g.logger.Debug("measurement added",
		slog.Int("index", n),
		slog.Float64("output", *m.Output),
		slog.Float64("noise", noise))
	return n, nil
}

// grow borders the symmetric matrix m with the column k and corner d.
func grow(m *mat.Dense, k []float64, d float64) (*mat.Dense, error) {
	if len(k) == 0 {
		return linalg.Scalar(d), nil
	}
	return linalg.MergeBlocks([][]mat.Matrix{
		{m, linalg.Column(k)},
		{linalg.RowVector(k), linalg.Scalar(d)},
	})
}

// RemoveMeasurement removes the measurement at index i and returns it.
func (g *GP) RemoveMeasurement(i int) (Measurement, error) {
	n := len(g.measurements)
	if i < 0 || i >= n {
		return Measurement{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, n)
	}
	if n == 1 {
		return g.RemoveAllMeasurements()[0], nil
	}

	kmm, _, err := linalg.RemoveRowColumn(g.kmm, i)
	if err != nil {
		return Measurement{}, err
	}
	kn, _, err := linalg.RemoveRowColumn(g.kn, i)
	if err != nil {
		return Measurement{}, err
	}
	var kni *mat.Dense
	switch g.removal {
	case RemoveBlockUpdate:
		kni, err = downdateInverse(g.kni, i)
	default:
		kni, err = linalg.Inverse(kn)
	}
	if err != nil {
		return Measurement{}, err
	}

	removed := g.measurements[i]
	ms := make([]Measurement, 0, n-1)
	ms = append(ms, g.measurements[:i]...)
	g.measurements = append(ms, g.measurements[i+1:]...)
	g.kmm, g.kn, g.kni = kmm, kn, kni
	g.logger.Debug("measurement removed",
		slog.Int("index", i),
		slog.Int("remaining", n-1),
		slog.String("strategy", g.removal.String()))
	return removed, nil
}

// downdateInverse returns the inverse of A with row and column i deleted,
// given P = A⁻¹: P₋ᵢ₋ᵢ − P₋ᵢᵢ·Pᵢ₋ᵢ / Pᵢᵢ.
func downdateInverse(p *mat.Dense, i int) (*mat.Dense, error) {
	reduced, row, err := linalg.RemoveRowColumn(p, i)
	if err != nil {
		return nil, err
	}
	pii := row[i]
	if !(pii > 0) {
		return nil, fmt.Errorf("%w: diagonal entry %g of the inverse", ErrSingularUpdate, pii)
	}
	col := mat.Col(nil, i, p)
	u := mat.NewVecDense(len(col)-1, append(col[:i:i], col[i+1:]...))
	v := mat.NewVecDense(len(row)-1, append(row[:i:i], row[i+1:]...))
	var outer mat.Dense
	outer.Outer(1/pii, u, v)
	reduced.Sub(reduced, &outer)
	return reduced, nil
}

// RemoveAllMeasurements removes every measurement and returns them in order.
func (g *GP) RemoveAllMeasurements() []Measurement {
	removed := g.measurements
	g.reset()
	g.logger.Debug("measurements cleared", slog.Int("removed", len(removed)))
	return removed
}
