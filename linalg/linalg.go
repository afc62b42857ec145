// Package linalg provides the dense matrix primitives used by the Gaussian
// process engine: chained products, block assembly, row/column deletion,
// regularized Cholesky factorization, log-determinants and Gaussian sampling.
//
// All matrices are gonum matrices. The empty matrix is represented by a zero
// value *mat.Dense, since gonum refuses zero-length allocations; every function
// in this package accepts it (and a nil mat.Matrix) as a 0×0 operand.
package linalg

import (
	"fmt"
	"math"

	"github.com/n0madic/go-gaussian-process/gperr"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch is returned when operand shapes disagree.
	ErrDimensionMismatch = gperr.New("linalg: dimension mismatch", gperr.ErrInvalidParameter)

	// ErrIndexOutOfRange is returned when a row or column index is outside the matrix.
	ErrIndexOutOfRange = gperr.New("linalg: index out of range", gperr.ErrIndexOutOfRange)
)

// Empty returns a new 0×0 matrix.
func Empty() *mat.Dense {
	return &mat.Dense{}
}

// Dims returns the dimensions of m, treating nil as 0×0.
func Dims(m mat.Matrix) (r, c int) {
	if m == nil {
		return 0, 0
	}
	return m.Dims()
}

// IsEmpty reports whether m has no elements.
func IsEmpty(m mat.Matrix) bool {
	r, c := Dims(m)
	return r == 0 || c == 0
}

// Copy returns a deep copy of m.
func Copy(m mat.Matrix) *mat.Dense {
	if IsEmpty(m) {
		return Empty()
	}
	return mat.DenseCopyOf(m)
}

// Scalar wraps v into a 1×1 matrix.
func Scalar(v float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{v})
}

// Column wraps v into a len(v)×1 matrix. The data is copied.
func Column(v []float64) *mat.Dense {
	if len(v) == 0 {
		return Empty()
	}
	return mat.NewDense(len(v), 1, append([]float64(nil), v...))
}

// RowVector wraps v into a 1×len(v) matrix. The data is copied.
func RowVector(v []float64) *mat.Dense {
	if len(v) == 0 {
		return Empty()
	}
	return mat.NewDense(1, len(v), append([]float64(nil), v...))
}

// Identity returns the n×n identity matrix.
func Identity(n int) *mat.Dense {
	if n <= 0 {
		return Empty()
	}
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// IsIdentity reports whether a is square and every element is within tol of
// the identity matrix.
func IsIdentity(a mat.Matrix, tol float64) bool {
	r, c := Dims(a)
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(a.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}

// MultiplyChain multiplies the matrices from left to right.
func MultiplyChain(ms ...mat.Matrix) (*mat.Dense, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("linalg: multiply chain: %w", gperr.ErrMissingParameter)
	}
	empty := IsEmpty(ms[0])
	for k := 1; k < len(ms); k++ {
		_, c := Dims(ms[k-1])
		r, _ := Dims(ms[k])
		if c != r {
			return nil, &gperr.DimensionError{Op: fmt.Sprintf("linalg: multiply operand %d", k), Expected: c, Got: r, Err: ErrDimensionMismatch}
		}
		empty = empty || IsEmpty(ms[k])
	}
	if empty {
		return Empty(), nil
	}

	acc := mat.DenseCopyOf(ms[0])
	for _, m := range ms[1:] {
		var next mat.Dense
		next.Mul(acc, m)
		acc = &next
	}
	return acc, nil
}

// Add returns a + b.
func Add(a, b mat.Matrix) (*mat.Dense, error) {
	if err := sameShape("linalg: add", a, b); err != nil {
		return nil, err
	}
	if IsEmpty(a) {
		return Empty(), nil
	}
	var out mat.Dense
	out.Add(a, b)
	return &out, nil
}

// Sub returns a - b.
func Sub(a, b mat.Matrix) (*mat.Dense, error) {
	if err := sameShape("linalg: sub", a, b); err != nil {
		return nil, err
	}
	if IsEmpty(a) {
		return Empty(), nil
	}
	var out mat.Dense
	out.Sub(a, b)
	return &out, nil
}

// Transpose returns a copy of aᵀ.
func Transpose(a mat.Matrix) *mat.Dense {
	if IsEmpty(a) {
		return Empty()
	}
	return mat.DenseCopyOf(a.T())
}

func sameShape(op string, a, b mat.Matrix) error {
	ar, ac := Dims(a)
	br, bc := Dims(b)
	if ar != br {
		return &gperr.DimensionError{Op: op + " rows", Expected: ar, Got: br, Err: ErrDimensionMismatch}
	}
	if ac != bc {
		return &gperr.DimensionError{Op: op + " columns", Expected: ac, Got: bc, Err: ErrDimensionMismatch}
	}
	return nil
}

// MergeBlocks concatenates a grid of matrices such as [[A, B], [C, D]] into a
// single matrix. Every non-empty block in a block row must have the same
// number of rows and every non-empty block in a block column the same number
// of columns. Empty blocks are exempt from these checks, which lets callers
// grow a matrix starting from the empty state, but an empty block may not sit
// at the crossing of a non-empty block row and block column.
func MergeBlocks(blocks [][]mat.Matrix) (*mat.Dense, error) {
	if len(blocks) == 0 {
		return Empty(), nil
	}
	nCols := len(blocks[0])
	heights := make([]int, len(blocks))
	widths := make([]int, nCols)
	for i, row := range blocks {
		if len(row) != nCols {
			return nil, &gperr.DimensionError{Op: fmt.Sprintf("linalg: merge block row %d length", i), Expected: nCols, Got: len(row), Err: ErrDimensionMismatch}
		}
		for j, b := range row {
			r, c := Dims(b)
			if r == 0 || c == 0 {
				continue
			}
			switch {
			case heights[i] == 0:
				heights[i] = r
			case heights[i] != r:
				return nil, &gperr.DimensionError{Op: fmt.Sprintf("linalg: merge block (%d,%d) rows", i, j), Expected: heights[i], Got: r, Err: ErrDimensionMismatch}
			}
			switch {
			case widths[j] == 0:
				widths[j] = c
			case widths[j] != c:
				return nil, &gperr.DimensionError{Op: fmt.Sprintf("linalg: merge block (%d,%d) columns", i, j), Expected: widths[j], Got: c, Err: ErrDimensionMismatch}
			}
		}
	}

	var rows, cols int
	for i, row := range blocks {
		rows += heights[i]
		for j, b := range row {
			if IsEmpty(b) && heights[i] > 0 && widths[j] > 0 {
				return nil, &gperr.DimensionError{Op: fmt.Sprintf("linalg: merge block (%d,%d) is empty", i, j), Expected: heights[i], Got: 0, Err: ErrDimensionMismatch}
			}
		}
	}
	for _, w := range widths {
		cols += w
	}
	if rows == 0 || cols == 0 {
		return Empty(), nil
	}

	out := mat.NewDense(rows, cols, nil)
	rOff := 0
	for i, row := range blocks {
		cOff := 0
		for j, b := range row {
			if heights[i] > 0 && widths[j] > 0 {
				out.Slice(rOff, rOff+heights[i], cOff, cOff+widths[j]).(*mat.Dense).Copy(b)
			}
			cOff += widths[j]
		}
		rOff += heights[i]
	}
	return out, nil
}

// RemoveRow returns a copy of m without row i, together with the removed row.
// The argument is not modified.
func RemoveRow(m mat.Matrix, i int) (*mat.Dense, []float64, error) {
	r, c := Dims(m)
	if i < 0 || i >= r {
		return nil, nil, fmt.Errorf("linalg: remove row %d of %d: %w", i, r, ErrIndexOutOfRange)
	}
	removed := mat.Row(nil, i, m)
	if r == 1 {
		return Empty(), removed, nil
	}
	out := mat.NewDense(r-1, c, nil)
	dst := 0
	for src := 0; src < r; src++ {
		if src == i {
			continue
		}
		out.SetRow(dst, mat.Row(nil, src, m))
		dst++
	}
	return out, removed, nil
}

// RemoveColumn returns a copy of m without column j, together with the
// removed column. The argument is not modified.
func RemoveColumn(m mat.Matrix, j int) (*mat.Dense, []float64, error) {
	r, c := Dims(m)
	if j < 0 || j >= c {
		return nil, nil, fmt.Errorf("linalg: remove column %d of %d: %w", j, c, ErrIndexOutOfRange)
	}
	removed := mat.Col(nil, j, m)
	if c == 1 {
		return Empty(), removed, nil
	}
	out := mat.NewDense(r, c-1, nil)
	dst := 0
	for src := 0; src < c; src++ {
		if src == j {
			continue
		}
		out.SetCol(dst, mat.Col(nil, src, m))
		dst++
	}
	return out, removed, nil
}

// RemoveRowColumn deletes row i and column i of a square matrix and returns
// the reduced matrix and the full removed row.
func RemoveRowColumn(m mat.Matrix, i int) (*mat.Dense, []float64, error) {
	r, c := Dims(m)
	if r != c {
		return nil, nil, &gperr.DimensionError{Op: "linalg: remove row/column of non-square matrix", Expected: r, Got: c, Err: ErrDimensionMismatch}
	}
	reduced, row, err := RemoveRow(m, i)
	if err != nil {
		return nil, nil, err
	}
	if IsEmpty(reduced) {
		return reduced, row, nil
	}
	reduced, _, err = RemoveColumn(reduced, i)
	if err != nil {
		return nil, nil, err
	}
	return reduced, row, nil
}

// Symmetrize returns (a + aᵀ)/2 as a symmetric matrix.
func Symmetrize(a mat.Matrix) (*mat.SymDense, error) {
	r, c := Dims(a)
	if r != c {
		return nil, &gperr.DimensionError{Op: "linalg: symmetrize", Expected: r, Got: c, Err: ErrDimensionMismatch}
	}
	if r == 0 {
		return &mat.SymDense{}, nil
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return sym, nil
}
