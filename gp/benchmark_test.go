package gp

import (
	"math"
	"math/rand"
	"testing"
)

func benchmarkGP(b *testing.B, n int, options ...Option) *GP {
	b.Helper()
	noise := 0.05
	g, err := New(State{DefaultOutputNoiseVariance: &noise}, append([]Option{WithRandomSeed(42)}, options...)...)
	if err != nil {
		b.Fatalf("Failed to create GP: %v", err)
	}
	rng := rand.New(rand.NewSource(123))
	for i := 0; i < n; i++ {
		x := rng.Float64() * 20
		if _, err := g.AddMeasurement(NewMeasurement([]float64{x}, math.Sin(x))); err != nil {
			b.Fatalf("AddMeasurement failed: %v", err)
		}
	}
	return g
}

// BenchmarkAddMeasurement tests the rank-one growth of the inverse
func BenchmarkAddMeasurement(b *testing.B) {
	g := benchmarkGP(b, 50)
	m := NewMeasurement([]float64{7.5}, 1)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		idx, err := g.AddMeasurement(m)
		if err != nil {
			b.Fatalf("AddMeasurement failed: %v", err)
		}
		b.StopTimer()
		if _, err := g.RemoveMeasurement(idx); err != nil {
			b.Fatalf("RemoveMeasurement failed: %v", err)
		}
		b.StartTimer()
	}
}

// BenchmarkRemoveMeasurement compares the removal strategies
func BenchmarkRemoveMeasurement(b *testing.B) {
	for _, strategy := range []RemovalStrategy{RemoveReinvert, RemoveBlockUpdate} {
		b.Run(strategy.String(), func(b *testing.B) {
			g := benchmarkGP(b, 50, WithRemovalStrategy(strategy))

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				m, err := g.RemoveMeasurement(25)
				if err != nil {
					b.Fatalf("RemoveMeasurement failed: %v", err)
				}
				b.StopTimer()
				if _, err := g.AddMeasurement(m); err != nil {
					b.Fatalf("AddMeasurement failed: %v", err)
				}
				b.StartTimer()
			}
		})
	}
}

// BenchmarkPredictJoint tests joint prediction over a grid
func BenchmarkPredictJoint(b *testing.B) {
	g := benchmarkGP(b, 30)
	xs := make([][]float64, 50)
	for i := range xs {
		xs[i] = []float64{float64(i) * 0.4}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := g.PredictJoint(xs); err != nil {
			b.Fatalf("PredictJoint failed: %v", err)
		}
	}
}

// BenchmarkSamples tests anchor-point sampling
func BenchmarkSamples(b *testing.B) {
	g := benchmarkGP(b, 20)
	if err := g.SetNumSamples(5); err != nil {
		b.Fatalf("SetNumSamples failed: %v", err)
	}
	xs := make([][]float64, 100)
	for i := range xs {
		xs[i] = []float64{float64(i) * 0.2}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := g.Samples(xs); err != nil {
			b.Fatalf("Samples failed: %v", err)
		}
	}
}
