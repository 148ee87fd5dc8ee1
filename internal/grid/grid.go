// Package grid provides a dense floating-point raster used for grayscale
// pixel data.
package grid

import (
	"fmt"
	"math"
)

// Grid is a row-major grid of float64 values.
type Grid struct {
	stride int
	values []float64
}

// New returns a zeroed grid of w×h values.
func New(w, h int) Grid {
	if w < 0 || h < 0 {
		panic(fmt.Sprintf("grid: negative size %dx%d", w, h))
	}
	return Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// Filled returns a w×h grid with every value set to v.
func Filled(w, h int, v float64) Grid {
	g := New(w, h)
	for i := range g.values {
		g.values[i] = v
	}
	return g
}

func (g Grid) Dx() int { return g.stride }

func (g Grid) Dy() int {
	if g.stride == 0 {
		return 0
	}
	return len(g.values) / g.stride
}

func (g Grid) Get(x, y int) float64 { return g.values[g.stride*y+x] }
func (g Grid) Set(x, y int, v float64) { g.values[g.stride*y+x] = v }

// Values exposes the backing slice in row-major order.
func (g Grid) Values() []float64 { return g.values }

// SameShape reports whether two grids have identical dimensions.
func (g Grid) SameShape(o Grid) bool {
	return g.Dx() == o.Dx() && g.Dy() == o.Dy()
}

// Bounds returns the smallest and largest value in the grid.
// An empty grid returns (+Inf, -Inf).
func (g Grid) Bounds() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Window copies the size×size block whose top-left corner is (x, y) into
// buf, growing it when needed, and returns the filled slice.
func (g Grid) Window(x, y, size int, buf []float64) []float64 {
	n := size * size
	if cap(buf) < n {
		buf = make([]float64, n)
	}
	buf = buf[:n]
	for row := range size {
		off := g.stride*(y+row) + x
		copy(buf[row*size:(row+1)*size], g.values[off:off+size])
	}
	return buf
}

func (g Grid) String() string {
	lo, hi := g.Bounds()
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Dx(), g.Dy(), lo, hi)
}
