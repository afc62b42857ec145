package kernel

import (
	"fmt"

	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"
)

// Type names accepted in specs.
const (
	TypeZero               = "Zero"
	TypeConstant           = "Constant"
	TypeSquaredExponential = "SquaredExponential"
)

// MeanSpec declares a mean function.
type MeanSpec struct {
	Type string   `yaml:"type"`
	M    *float64 `yaml:"m,omitempty"`
}

// CovarianceSpec declares a covariance function.
type CovarianceSpec struct {
	Type string   `yaml:"type"`
	Vx   *Value   `yaml:"Vx,omitempty"`
	Vy   *float64 `yaml:"Vy,omitempty"`
}

// Value is a hyperparameter that is either a scalar or a square matrix. In
// YAML it is written as a number or as a list of rows.
type Value struct {
	Scalar float64
	Matrix [][]float64
}

// ScalarValue returns a scalar hyperparameter.
func ScalarValue(v float64) *Value {
	return &Value{Scalar: v}
}

// MatrixValue returns a matrix hyperparameter built from rows.
func MatrixValue(rows [][]float64) *Value {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return &Value{Matrix: cp}
}

// IsMatrix reports whether the value holds a matrix.
func (v *Value) IsMatrix() bool {
	return v.Matrix != nil
}

// Dense converts a matrix value to a gonum matrix.
func (v *Value) Dense() (*mat.Dense, error) {
	n := len(v.Matrix)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidParameter)
	}
	out := mat.NewDense(n, n, nil)
	for i, row := range v.Matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: matrix row %d has %d columns, want %d", ErrInvalidParameter, i, len(row), n)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	if v.IsMatrix() {
		return MatrixValue(v.Matrix)
	}
	return ScalarValue(v.Scalar)
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	if v.Matrix != nil {
		return v.Matrix, nil
	}
	return v.Scalar, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v.Matrix = nil
		return node.Decode(&v.Scalar)
	case yaml.SequenceNode:
		var rows [][]float64
		if err := node.Decode(&rows); err != nil {
			return err
		}
		v.Scalar, v.Matrix = 0, rows
		return nil
	default:
		return fmt.Errorf("kernel: line %d: hyperparameter must be a number or a matrix", node.Line)
	}
}

// Clone returns a deep copy of the spec.
func (s *MeanSpec) Clone() *MeanSpec {
	if s == nil {
		return nil
	}
	out := &MeanSpec{Type: s.Type}
	if s.M != nil {
		m := *s.M
		out.M = &m
	}
	return out
}

// Clone returns a deep copy of the spec.
func (s *CovarianceSpec) Clone() *CovarianceSpec {
	if s == nil {
		return nil
	}
	out := &CovarianceSpec{Type: s.Type, Vx: s.Vx.Clone()}
	if s.Vy != nil {
		vy := *s.Vy
		out.Vy = &vy
	}
	return out
}

// DefaultMeanSpec returns the spec used when none is given.
func DefaultMeanSpec() *MeanSpec {
	return &MeanSpec{Type: TypeZero}
}

// DefaultCovarianceSpec returns the spec used when none is given.
func DefaultCovarianceSpec() *CovarianceSpec {
	vy := 1.0
	return &CovarianceSpec{Type: TypeSquaredExponential, Vx: ScalarValue(1), Vy: &vy}
}
