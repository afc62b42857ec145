// Package gp implements incremental Gaussian Process regression.
//
// A GP holds a prior (mean and covariance function) and a growing set of
// noisy measurements. The inverse of the noisy Gram matrix is maintained by
// rank-one updates, so adding or removing a measurement costs O(n²) instead of
// a full O(n³) inversion. Predictions can be made for single points, as
// independent marginals of a batch, or as one joint distribution.
//
// A GP is not safe for concurrent use; callers must serialize access.
package gp

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/n0madic/go-gaussian-process/gaussian"
	"github.com/n0madic/go-gaussian-process/gperr"
	"github.com/n0madic/go-gaussian-process/kernel"
	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrMissingInput                  = gperr.New("gp: measurement has no input", gperr.ErrMissingParameter)
	ErrMissingOutput                 = gperr.New("gp: measurement has no output", gperr.ErrMissingParameter)
	ErrUnknownNoise                  = gperr.New("gp: output noise variance is unknown", gperr.ErrMissingParameter)
	ErrUnsupportedMultivariateOutput = gperr.New("gp: multivariate output distribution", gperr.ErrUnsupportedInput)
	ErrIndexOutOfRange               = gperr.New("gp: measurement index out of range", gperr.ErrIndexOutOfRange)
	ErrInputDimension                = gperr.New("gp: input dimension mismatch", gperr.ErrInvalidParameter)
	ErrInvalidMeasurement            = gperr.New("gp: invalid measurement", gperr.ErrInvalidParameter)
	ErrInvalidSampleCount            = gperr.New("gp: invalid number of samples", gperr.ErrInvalidParameter)
	ErrInvalidRandomVectors          = gperr.New("gp: invalid random vectors", gperr.ErrInvalidParameter)
	ErrSingularUpdate                = gperr.New("gp: measurement makes the noisy gram matrix singular", gperr.ErrNumericalFailure)
	ErrInvariantViolated             = gperr.New("gp: gram matrix invariant violated", gperr.ErrNumericalFailure)
)

const (
	// DefaultAnchorPoints is the number of anchor points used to draw
	// function samples.
	DefaultAnchorPoints = 15

	// anchorNoise is the noise variance of the temporary anchor measurements.
	anchorNoise = 1e-6
)

// RemovalStrategy selects how the inverse Gram matrix is updated when a
// measurement is removed.
type RemovalStrategy int

const (
	// RemoveReinvert deletes the row and column from the noisy Gram matrix
	// and inverts it again in O(n³).
	RemoveReinvert RemovalStrategy = iota
	// RemoveBlockUpdate downdates the inverse in O(n²) using the Schur
	// complement of the removed diagonal entry.
	RemoveBlockUpdate
)

func (s RemovalStrategy) String() string {
	switch s {
	case RemoveReinvert:
		return "reinvert"
	case RemoveBlockUpdate:
		return "block-update"
	default:
		return fmt.Sprintf("RemovalStrategy(%d)", int(s))
	}
}

// State is the serializable configuration of a GP: its functions, default
// noise, measurements and the standard normal vectors behind its samples.
type State struct {
	MeanData                   *kernel.MeanSpec       `yaml:"meanData,omitempty"`
	CovarianceData             *kernel.CovarianceSpec `yaml:"covarianceData,omitempty"`
	DefaultOutputNoiseVariance *float64               `yaml:"defaultOutputNoiseVariance,omitempty"`
	Measurements               []Measurement          `yaml:"measurements,omitempty"`
	RandomVectors              [][]float64            `yaml:"randomVectors,omitempty,flow"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		MeanData:       s.MeanData.Clone(),
		CovarianceData: s.CovarianceData.Clone(),
	}
	if s.DefaultOutputNoiseVariance != nil {
		v := *s.DefaultOutputNoiseVariance
		out.DefaultOutputNoiseVariance = &v
	}
	if s.Measurements != nil {
		out.Measurements = make([]Measurement, len(s.Measurements))
		for i, m := range s.Measurements {
			out.Measurements[i] = m.clone()
		}
	}
	if s.RandomVectors != nil {
		out.RandomVectors = make([][]float64, len(s.RandomVectors))
		for i, z := range s.RandomVectors {
			out.RandomVectors[i] = append([]float64(nil), z...)
		}
	}
	return out
}

// Matrices holds copies of the derived matrices of a GP.
type Matrices struct {
	Kmm *mat.Dense // noise-free Gram matrix of the measurement inputs
	Kn  *mat.Dense // Kmm plus the measurement noise on the diagonal
	Kni *mat.Dense // inverse of Kn
}

// Prediction is the predictive distribution at one input.
type Prediction struct {
	Input  []float64
	Output *gaussian.Distribution
}

// JointPrediction is the joint predictive distribution at several inputs.
type JointPrediction struct {
	Inputs [][]float64
	Output *gaussian.Distribution
}

// GP is an incremental Gaussian Process regression engine.
type GP struct {
	meanSpec     *kernel.MeanSpec
	covSpec      *kernel.CovarianceSpec
	mean         kernel.Mean
	cov          kernel.Covariance
	defaultNoise *float64

	measurements []Measurement
	inputDim     int // required input length, 0 while unconstrained

	kmm *mat.Dense
	kn  *mat.Dense
	kni *mat.Dense

	randomVectors [][]float64
	anchorPoints  int
	removal       RemovalStrategy

	rng     *rand.Rand
	logger  *slog.Logger
	options []Option
}

// Option defines a functional option for configuring a GP.
type Option func(*GP)

// WithRandomSeed sets the seed of the generator behind the sample vectors.
// A zero seed uses the current time.
func WithRandomSeed(seed int64) Option {
	return func(g *GP) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(g *GP) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRemovalStrategy selects how the inverse is updated on removal. The
// default is RemoveReinvert.
func WithRemovalStrategy(s RemovalStrategy) Option {
	return func(g *GP) {
		g.removal = s
	}
}

// WithAnchorPoints sets the number of anchor points used for sampling.
// Values below 2 are raised to 2.
func WithAnchorPoints(n int) Option {
	return func(g *GP) {
		g.anchorPoints = max(n, 2)
	}
}

// New creates a GP and applies state to it.
func New(state State, options ...Option) (*GP, error) {
	g := newEmpty(options)
	if err := g.ApplyState(state); err != nil {
		return nil, err
	}
	return g, nil
}

func newEmpty(options []Option) *GP {
	g := &GP{
		anchorPoints: DefaultAnchorPoints,
		removal:      RemoveReinvert,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		options:      options,
	}
	for _, opt := range options {
		opt(g)
	}
	g.reset()
	return g
}

// reset drops all measurements and derived matrices.
func (g *GP) reset() {
	g.measurements = nil
	g.kmm, g.kn, g.kni = linalg.Empty(), linalg.Empty(), linalg.Empty()
	g.inputDim = 0
	if g.cov != nil {
		g.inputDim = g.cov.InputDim()
	}
}

// ApplyState replaces the whole configuration of g with state. Every
// measurement is added in order. Random vectors in state are adopted as
// they are; without them the GP has no samples. On error g is unchanged.
func (g *GP) ApplyState(state State) error {
	mean, err := kernel.BuildMean(state.MeanData)
	if err != nil {
		return err
	}
	cov, err := kernel.BuildCovariance(state.CovarianceData)
	if err != nil {
		return err
	}
	for i, z := range state.RandomVectors {
		if len(z) != g.anchorPoints {
			return fmt.Errorf("%w: vector %d has length %d, want %d", ErrInvalidRandomVectors, i, len(z), g.anchorPoints)
		}
	}

	next := &GP{
		meanSpec:     mean.Spec(),
		covSpec:      cov.Spec(),
		mean:         mean,
		cov:          cov,
		anchorPoints: g.anchorPoints,
		removal:      g.removal,
		rng:          g.rng,
		logger:       g.logger,
		options:      g.options,
	}
	if state.DefaultOutputNoiseVariance != nil {
		v := *state.DefaultOutputNoiseVariance
		next.defaultNoise = &v
	}
	next.reset()
	if _, err := next.AddMeasurements(state.Measurements); err != nil {
		return err
	}
	for _, z := range state.RandomVectors {
		next.randomVectors = append(next.randomVectors, append([]float64(nil), z...))
	}

	*g = *next
	g.logger.Debug("state applied",
		slog.Int("measurements", len(g.measurements)),
		slog.Int("samples", len(g.randomVectors)))
	return nil
}

// State returns a deep copy of the configuration of g. Applying it to a new
// GP reproduces g, including its samples.
func (g *GP) State() State {
	s := State{
		MeanData:       g.meanSpec.Clone(),
		CovarianceData: g.covSpec.Clone(),
		Measurements:   g.Measurements(),
	}
	if g.defaultNoise != nil {
		v := *g.defaultNoise
		s.DefaultOutputNoiseVariance = &v
	}
	if len(g.randomVectors) > 0 {
		s.RandomVectors = make([][]float64, len(g.randomVectors))
		for i, z := range g.randomVectors {
			s.RandomVectors[i] = append([]float64(nil), z...)
		}
	}
	return s
}

// Clone returns an independent copy of g built by replaying its state with
// the options g was created with.
func (g *GP) Clone() (*GP, error) {
	c := newEmpty(g.options)
	c.anchorPoints = g.anchorPoints
	c.removal = g.removal
	c.logger = g.logger
	if err := c.ApplyState(g.State()); err != nil {
		return nil, fmt.Errorf("gp: clone: %w", err)
	}
	return c, nil
}

// MeanFunction returns the prior mean function.
func (g *GP) MeanFunction() kernel.Mean { return g.mean }

// CovarianceFunction returns the prior covariance function.
func (g *GP) CovarianceFunction() kernel.Covariance { return g.cov }

// DefaultNoiseVariance returns the default output noise variance and whether
// one is set.
func (g *GP) DefaultNoiseVariance() (float64, bool) {
	if g.defaultNoise == nil {
		return 0, false
	}
	return *g.defaultNoise, true
}

// NumMeasurements returns the number of measurements.
func (g *GP) NumMeasurements() int { return len(g.measurements) }

// Measurements returns copies of the processed measurements in order.
func (g *GP) Measurements() []Measurement {
	if len(g.measurements) == 0 {
		return nil
	}
	out := make([]Measurement, len(g.measurements))
	for i, m := range g.measurements {
		out[i] = m.clone()
	}
	return out
}

// MeasurementInputs returns copies of the measurement inputs in order.
func (g *GP) MeasurementInputs() [][]float64 {
	out := make([][]float64, len(g.measurements))
	for i, m := range g.measurements {
		out[i] = append([]float64(nil), m.Input...)
	}
	return out
}

// MeasurementOutputs returns the measured outputs in order.
func (g *GP) MeasurementOutputs() []float64 {
	out := make([]float64, len(g.measurements))
	for i, m := range g.measurements {
		out[i] = *m.Output
	}
	return out
}

// Matrices returns copies of the derived matrices.
func (g *GP) Matrices() Matrices {
	return Matrices{
		Kmm: linalg.Copy(g.kmm),
		Kn:  linalg.Copy(g.kn),
		Kni: linalg.Copy(g.kni),
	}
}

// CheckInvariants verifies that the derived matrices match the measurement
// count and that Kni·Kn is the identity within tol.
func (g *GP) CheckInvariants(tol float64) error {
	n := len(g.measurements)
	for _, m := range []struct {
		name string
		m    *mat.Dense
	}{{"Kmm", g.kmm}, {"Kn", g.kn}, {"Kni", g.kni}} {
		if r, c := linalg.Dims(m.m); r != n || c != n {
			return fmt.Errorf("%w: %s is %dx%d with %d measurements", ErrInvariantViolated, m.name, r, c, n)
		}
	}
	if n == 0 {
		return nil
	}
	prod, err := linalg.MultiplyChain(g.kni, g.kn)
	if err != nil {
		return err
	}
	if !linalg.IsIdentity(prod, tol) {
		return fmt.Errorf("%w: Kni·Kn is not the identity", ErrInvariantViolated)
	}
	return nil
}
