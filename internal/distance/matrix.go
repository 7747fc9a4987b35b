// Package distance turns co-occurrence counts into the dissimilarity matrix
// consumed by hierarchical clustering.
package distance

import (
	"fmt"
	"math"

	"hsplit/internal/proximity"
)

// Sentinel is the distance between symbols never referenced by the same unit.
// Counts are integers >= 1, so every finite distance 1/c is at most 1.
const Sentinel = 2.0

// Matrix is a symmetric n×n dissimilarity matrix labelled by symbol.
type Matrix struct {
	Labels []string
	data   []float64
}

// New returns an n×n matrix with every off-diagonal entry set to the sentinel.
func New(labels []string) *Matrix {
	n := len(labels)
	m := &Matrix{
		Labels: append([]string(nil), labels...),
		data:   make([]float64, n*n),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				m.data[i*n+j] = Sentinel
			}
		}
	}
	return m
}

// Build creates the matrix for symbols: 0 on the diagonal, 1/count for pairs
// that co-occur, Sentinel otherwise.
func Build(prox proximity.Map, symbols []string) *Matrix {
	m := New(symbols)
	n := len(symbols)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Sentinel
			if c := prox.Get(symbols[i], symbols[j]); c > 0 {
				d = 1 / float64(c)
			}
			m.set(i, j, d)
		}
	}
	return m
}

// FromRows builds a matrix from explicit rows; rows must be square.
func FromRows(labels []string, rows [][]float64) (*Matrix, error) {
	n := len(labels)
	if len(rows) != n {
		return nil, fmt.Errorf("matrix has %d rows for %d labels", len(rows), n)
	}
	m := &Matrix{Labels: append([]string(nil), labels...), data: make([]float64, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), n)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

// Len returns n.
func (m *Matrix) Len() int {
	return len(m.Labels)
}

// At returns the distance between symbols i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.Len()+j]
}

func (m *Matrix) set(i, j int, d float64) {
	n := m.Len()
	m.data[i*n+j] = d
	m.data[j*n+i] = d
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	n := m.Len()
	return append([]float64(nil), m.data[i*n:(i+1)*n]...)
}

// Rows returns the matrix as a slice of row copies.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.Len())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// Condensed returns the upper triangle in row order (SciPy's condensed form).
func (m *Matrix) Condensed() []float64 {
	n := m.Len()
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// CheckDissimilarity checks that m is a proper dissimilarity: zero diagonal,
// symmetric, finite and non-negative off the diagonal.
func (m *Matrix) CheckDissimilarity() error {
	return m.check(func(d float64) bool {
		return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
	})
}

// Validate checks a matrix produced by Build: a dissimilarity whose
// off-diagonal entries all lie in (0, Sentinel].
func (m *Matrix) Validate() error {
	return m.check(func(d float64) bool {
		return d > 0 && d <= Sentinel
	})
}

func (m *Matrix) check(ok func(d float64) bool) error {
	n := m.Len()
	for i := 0; i < n; i++ {
		if m.At(i, i) != 0 {
			return fmt.Errorf("diagonal entry %d is %v", i, m.At(i, i))
		}
		for j := i + 1; j < n; j++ {
			d := m.At(i, j)
			if d != m.At(j, i) {
				return fmt.Errorf("asymmetric entry (%d,%d): %v != %v", i, j, d, m.At(j, i))
			}
			if !ok(d) {
				return fmt.Errorf("invalid distance %v at (%d,%d)", d, i, j)
			}
		}
	}
	return nil
}
