// Package matrix builds, validates and serialises pairwise similarity matrices.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/ssim-matrix/internal/grid"
	"github.com/kozaktomas/ssim-matrix/internal/ssim"
)

var (
	ErrNotSquare  = errors.New("matrix is not square")
	ErrAsymmetric = errors.New("matrix is not symmetric")
	ErrDiagonal   = errors.New("matrix diagonal is not 1")
)

// Matrix is a row-major square matrix; m[x][y] compares image x with image y.
type Matrix [][]float64

// New returns an n×n zero matrix.
func New(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Size returns the number of rows.
func (m Matrix) Size() int { return len(m) }

// Options controls how Compute fills the matrix.
type Options struct {
	SSIM ssim.Options

	// Symmetric computes only x <= y and mirrors the rest.
	Symmetric bool

	// OnCell is called after every evaluated cell.
	OnCell func(x, y int)
}

// Cells returns how many metric evaluations Compute performs for n images.
func (o Options) Cells(n int) int {
	if o.Symmetric {
		return n * (n + 1) / 2
	}
	return n * n
}

// Compute evaluates SSIM for every ordered pair of images, outer index x
// ascending, inner index y ascending.
func Compute(images []grid.Grid, dataRange float64, opts Options) (Matrix, error) {
	prepared := make([]*ssim.Prepared, len(images))
	for i, img := range images {
		p, err := ssim.Prepare(img, opts.SSIM)
		if err != nil {
			return nil, fmt.Errorf("image index %d: %w", i, err)
		}
		prepared[i] = p
	}

	m := New(len(images))
	for x := range prepared {
		for y := range prepared {
			if opts.Symmetric && y < x {
				m[x][y] = m[y][x]
				continue
			}
			score, err := ssim.ComparePrepared(prepared[x], prepared[y], dataRange)
			if err != nil {
				return nil, fmt.Errorf("pair (%d, %d): %w", x, y, err)
			}
			m[x][y] = score
			if opts.OnCell != nil {
				opts.OnCell(x, y)
			}
		}
	}
	return m, nil
}

// Validate checks that m is square.
func Validate(m Matrix) error {
	for i, row := range m {
		if len(row) != len(m) {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(row), len(m))
		}
	}
	return nil
}

// CheckProperties verifies squareness, symmetry and a unit diagonal within tol.
func CheckProperties(m Matrix, tol float64) error {
	if err := Validate(m); err != nil {
		return err
	}
	for i := range m {
		if math.Abs(m[i][i]-1) > tol {
			return fmt.Errorf("%w: m[%d][%d] = %g", ErrDiagonal, i, i, m[i][i])
		}
		for j := i + 1; j < len(m); j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return fmt.Errorf("%w: m[%d][%d] = %g, m[%d][%d] = %g", ErrAsymmetric, i, j, m[i][j], j, i, m[j][i])
			}
		}
	}
	return nil
}
