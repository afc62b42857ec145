// Package kernel builds mean and covariance functions of a Gaussian process
// from small declarative specs.
//
// A spec names a function type and carries its hyperparameters. BuildMean and
// BuildCovariance validate the spec and decode it into one of the concrete
// variants below; adding a function type means adding a variant and a case to
// the corresponding switch.
package kernel

import (
	"fmt"
	"math"

	"github.com/n0madic/go-gaussian-process/gperr"
	"github.com/n0madic/go-gaussian-process/linalg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownFunctionType is returned for a missing or unrecognized spec type.
	ErrUnknownFunctionType = gperr.New("kernel: unknown function type", gperr.ErrUnknownType)

	// ErrMissingParameter is returned when a required hyperparameter is absent.
	ErrMissingParameter = gperr.New("kernel: missing parameter", gperr.ErrMissingParameter)

	// ErrInvalidParameter is returned when a hyperparameter violates a constraint.
	ErrInvalidParameter = gperr.New("kernel: invalid parameter", gperr.ErrInvalidParameter)
)

// Mean is a prior mean function.
type Mean interface {
	// Eval returns the prior mean at x.
	Eval(x []float64) float64
	// Spec returns the declarative form of the function.
	Spec() *MeanSpec
}

// Covariance is a symmetric prior covariance function.
type Covariance interface {
	// Eval returns the prior covariance between the function values at a and b.
	// Eval(a, b) == Eval(b, a) exactly.
	Eval(a, b []float64) float64
	// InputDim returns the required input length, or 0 if any length is accepted.
	InputDim() int
	// Spec returns the declarative form of the function.
	Spec() *CovarianceSpec
}

var (
	_ Mean       = ZeroMean{}
	_ Mean       = ConstantMean{}
	_ Covariance = (*SquaredExponential)(nil)
)

// ZeroMean is the constant zero function.
type ZeroMean struct{}

func (ZeroMean) Eval([]float64) float64 { return 0 }

func (ZeroMean) Spec() *MeanSpec { return &MeanSpec{Type: TypeZero} }

// ConstantMean returns M everywhere.
type ConstantMean struct {
	M float64
}

func (c ConstantMean) Eval([]float64) float64 { return c.M }

func (c ConstantMean) Spec() *MeanSpec {
	m := c.M
	return &MeanSpec{Type: TypeConstant, M: &m}
}

// BuildMean validates spec and returns the mean function it describes. A nil
// spec yields ZeroMean.
func BuildMean(spec *MeanSpec) (Mean, error) {
	if spec == nil {
		return ZeroMean{}, nil
	}
	switch spec.Type {
	case TypeZero:
		return ZeroMean{}, nil
	case TypeConstant:
		if spec.M == nil {
			return nil, fmt.Errorf("%w: %s mean requires m", ErrMissingParameter, TypeConstant)
		}
		if math.IsNaN(*spec.M) || math.IsInf(*spec.M, 0) {
			return nil, fmt.Errorf("%w: m = %v", ErrInvalidParameter, *spec.M)
		}
		return ConstantMean{M: *spec.M}, nil
	case "":
		return nil, fmt.Errorf("%w: mean spec has no type", ErrUnknownFunctionType)
	default:
		return nil, fmt.Errorf("%w: mean type %q", ErrUnknownFunctionType, spec.Type)
	}
}

// BuildCovariance validates spec and returns the covariance function it
// describes. A nil spec yields a squared exponential with Vx = Vy = 1.
func BuildCovariance(spec *CovarianceSpec) (Covariance, error) {
	if spec == nil {
		spec = DefaultCovarianceSpec()
	}
	switch spec.Type {
	case TypeSquaredExponential:
		if spec.Vx == nil {
			return nil, fmt.Errorf("%w: %s covariance requires Vx", ErrMissingParameter, TypeSquaredExponential)
		}
		if spec.Vy == nil {
			return nil, fmt.Errorf("%w: %s covariance requires Vy", ErrMissingParameter, TypeSquaredExponential)
		}
		if spec.Vx.IsMatrix() {
			vx, err := spec.Vx.Dense()
			if err != nil {
				return nil, err
			}
			return NewSquaredExponentialMatrix(vx, *spec.Vy)
		}
		return NewSquaredExponential(spec.Vx.Scalar, *spec.Vy)
	case "":
		return nil, fmt.Errorf("%w: covariance spec has no type", ErrUnknownFunctionType)
	default:
		return nil, fmt.Errorf("%w: covariance type %q", ErrUnknownFunctionType, spec.Type)
	}
}

// SquaredExponential is the covariance
//
//	Vy · exp(-½ (a-b)ᵀ Vx⁻¹ (a-b))
//
// With a scalar Vx this reduces to Vy · exp(-|a-b|² / (2 Vx)).
type SquaredExponential struct {
	vy    float64
	vx    float64    // scalar length-scale variance
	vxMat *mat.Dense // matrix length-scale variance, nil for scalar
	vxInv *mat.Dense
	dim   int
}

// NewSquaredExponential returns a squared exponential covariance with scalar
// length-scale variance vx and output variance vy.
func NewSquaredExponential(vx, vy float64) (*SquaredExponential, error) {
	if !(vy > 0) || math.IsInf(vy, 1) {
		return nil, fmt.Errorf("%w: Vy = %v must be positive", ErrInvalidParameter, vy)
	}
	if !(vx > 0) || math.IsInf(vx, 1) {
		return nil, fmt.Errorf("%w: Vx = %v must be positive", ErrInvalidParameter, vx)
	}
	return &SquaredExponential{vx: vx, vy: vy}, nil
}

// NewSquaredExponentialMatrix returns a squared exponential covariance over
// vector inputs with length-scale covariance vx. Vx⁻¹ is computed once here.
func NewSquaredExponentialMatrix(vx mat.Matrix, vy float64) (*SquaredExponential, error) {
	if !(vy > 0) || math.IsInf(vy, 1) {
		return nil, fmt.Errorf("%w: Vy = %v must be positive", ErrInvalidParameter, vy)
	}
	r, c := linalg.Dims(vx)
	if r == 0 || r != c {
		return nil, fmt.Errorf("%w: Vx must be a non-empty square matrix, got %dx%d", ErrInvalidParameter, r, c)
	}
	inv, err := linalg.Inverse(vx)
	if err != nil {
		return nil, fmt.Errorf("%w: Vx is not invertible: %v", ErrInvalidParameter, err)
	}
	return &SquaredExponential{
		vy:    vy,
		vxMat: mat.DenseCopyOf(vx),
		vxInv: inv,
		dim:   r,
	}, nil
}

// Eval implements Covariance.
func (k *SquaredExponential) Eval(a, b []float64) float64 {
	d := make([]float64, len(a))
	floats.SubTo(d, a, b)
	if k.vxInv == nil {
		return k.vy * math.Exp(-floats.Dot(d, d)/(2*k.vx))
	}
	v := mat.NewVecDense(len(d), d)
	return k.vy * math.Exp(-0.5*mat.Inner(v, k.vxInv, v))
}

// InputDim implements Covariance.
func (k *SquaredExponential) InputDim() int {
	return k.dim
}

// Spec implements Covariance.
func (k *SquaredExponential) Spec() *CovarianceSpec {
	vy := k.vy
	spec := &CovarianceSpec{Type: TypeSquaredExponential, Vy: &vy}
	if k.vxMat == nil {
		spec.Vx = ScalarValue(k.vx)
		return spec
	}
	r, _ := k.vxMat.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, k.vxMat)
	}
	spec.Vx = &Value{Matrix: rows}
	return spec
}
