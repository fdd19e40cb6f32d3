package demand

import (
	"errors"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Matrix / Vector value types
// ---------------------------------------------------------------------------
//
// Small dense linear algebra for the ridge trainer. Dimensions are fixed at
// construction so shape mismatches surface as errors instead of index panics.
// Values are read through At/AtVec; nothing mutates a constructed value.

var (
	ErrDimensionMismatch = errors.New("demand: matrix dimension mismatch")
	ErrSingularMatrix    = errors.New("demand: singular or near-singular matrix")
)

// pivotTolerance is the minimum absolute pivot accepted during elimination.
// Anything smaller signals an (almost) singular system.
const pivotTolerance = 1e-10

// Matrix is an immutable row-major dense matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix builds a rows×cols matrix from row-major data.
func NewMatrix(rows, cols int, data []float64) (Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return Matrix{}, fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, rows, cols)
	}
	if len(data) != rows*cols {
		return Matrix{}, fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrDimensionMismatch, rows, cols, rows*cols, len(data))
	}
	copied := make([]float64, len(data))
	copy(copied, data)
	return Matrix{rows: rows, cols: cols, data: copied}, nil
}

// NewMatrixFromRows builds a matrix from equal-length row slices.
func NewMatrixFromRows(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Matrix{}, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return Matrix{rows: len(rows), cols: cols, data: data}, nil
}

// Rows returns the row count.
func (m Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m Matrix) Cols() int { return m.cols }

// At returns the value at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// TransposeMul computes Aᵀ·A without materializing the transpose.
func (m Matrix) TransposeMul() Matrix {
	out := make([]float64, m.cols*m.cols)
	for i := 0; i < m.cols; i++ {
		for j := i; j < m.cols; j++ {
			var sum float64
			for k := 0; k < m.rows; k++ {
				sum += m.At(k, i) * m.At(k, j)
			}
			out[i*m.cols+j] = sum
			out[j*m.cols+i] = sum
		}
	}
	return Matrix{rows: m.cols, cols: m.cols, data: out}
}

// TransposeMulVec computes Aᵀ·v.
func (m Matrix) TransposeMulVec(v Vector) (Vector, error) {
	if v.Len() != m.rows {
		return Vector{}, fmt.Errorf("%w: %dx%d by vector of length %d", ErrDimensionMismatch, m.rows, m.cols, v.Len())
	}
	out := make([]float64, m.cols)
	for j := 0; j < m.cols; j++ {
		var sum float64
		for i := 0; i < m.rows; i++ {
			sum += m.At(i, j) * v.AtVec(i)
		}
		out[j] = sum
	}
	return Vector{data: out}, nil
}

// AddRidge returns a copy with lambda added to every diagonal entry except
// row/column zero. The intercept occupies position zero and is never shrunk.
func (m Matrix) AddRidge(lambda float64) (Matrix, error) {
	if m.rows != m.cols {
		return Matrix{}, fmt.Errorf("%w: ridge penalty needs a square matrix, got %dx%d", ErrDimensionMismatch, m.rows, m.cols)
	}
	out := make([]float64, len(m.data))
	copy(out, m.data)
	for i := 1; i < m.rows; i++ {
		out[i*m.cols+i] += lambda
	}
	return Matrix{rows: m.rows, cols: m.cols, data: out}, nil
}

// Vector is an immutable dense vector.
type Vector struct {
	data []float64
}

// NewVector builds a vector from the given values.
func NewVector(data []float64) (Vector, error) {
	if len(data) == 0 {
		return Vector{}, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	copied := make([]float64, len(data))
	copy(copied, data)
	return Vector{data: copied}, nil
}

// Len returns the vector length.
func (v Vector) Len() int { return len(v.data) }

// AtVec returns the value at index i.
func (v Vector) AtVec(i int) float64 { return v.data[i] }

// Values returns a copy of the backing values.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// SolveLinear solves A·x = b by Gaussian elimination with partial pivoting
// and back-substitution. The row with the largest absolute pivot-column value
// is swapped to the pivot row before each elimination step. A pivot magnitude
// below pivotTolerance returns ErrSingularMatrix instead of garbage
// coefficients.
func SolveLinear(a Matrix, b Vector) (Vector, error) {
	n := a.rows
	if a.cols != n {
		return Vector{}, fmt.Errorf("%w: coefficient matrix must be square, got %dx%d", ErrDimensionMismatch, a.rows, a.cols)
	}
	if b.Len() != n {
		return Vector{}, fmt.Errorf("%w: %dx%d system with RHS of length %d", ErrDimensionMismatch, n, n, b.Len())
	}

	// Working copies; the inputs stay untouched.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, n+1)
		for j := 0; j < n; j++ {
			aug[i][j] = a.At(i, j)
		}
		aug[i][n] = b.AtVec(i)
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(aug[pivot][col]) < pivotTolerance {
			return Vector{}, ErrSingularMatrix
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		for row := col + 1; row < n; row++ {
			factor := aug[row][col] / aug[col][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[row][j] -= factor * aug[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}
	return Vector{data: x}, nil
}
