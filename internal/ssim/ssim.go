// Package ssim computes the structural similarity index (Wang et al. 2004)
// between two grayscale grids.
//
// Local statistics use a uniform square window with sample (N-1)
// normalisation. The score is the mean of the local SSIM map over every
// window that lies fully inside the image.
package ssim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kozaktomas/ssim-matrix/internal/grid"
)

const (
	DefaultWindowSize = 7
	DefaultK1         = 0.01
	DefaultK2         = 0.03
)

var (
	ErrShapeMismatch = errors.New("ssim: images have different dimensions")
	ErrImageTooSmall = errors.New("ssim: image smaller than window")
	ErrInvalidWindow = errors.New("ssim: window size must be odd and at least 3")
	ErrInvalidRange  = errors.New("ssim: data range must be positive")
)

// Options controls the window and stabilising constants.
type Options struct {
	WindowSize int
	K1         float64
	K2         float64
}

// DefaultOptions returns a 7×7 window with K1=0.01 and K2=0.03.
func DefaultOptions() Options {
	return Options{
		WindowSize: DefaultWindowSize,
		K1:         DefaultK1,
		K2:         DefaultK2,
	}
}

func (o Options) validate() error {
	if o.WindowSize < 3 || o.WindowSize%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, o.WindowSize)
	}
	return nil
}

// Prepared holds the per-window means and variances of one image so that
// repeated comparisons only need the cross-covariance.
type Prepared struct {
	img      grid.Grid
	opts     Options
	nx, ny   int
	means    []float64
	variance []float64
}

// Prepare computes the local statistics of g.
func Prepare(g grid.Grid, opts Options) (*Prepared, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	w := opts.WindowSize
	if g.Dx() < w || g.Dy() < w {
		return nil, fmt.Errorf("%w: %dx%d < %dx%d", ErrImageTooSmall, g.Dx(), g.Dy(), w, w)
	}

	nx, ny := g.Dx()-w+1, g.Dy()-w+1
	p := &Prepared{
		img:      g,
		opts:     opts,
		nx:       nx,
		ny:       ny,
		means:    make([]float64, nx*ny),
		variance: make([]float64, nx*ny),
	}

	var buf []float64
	for y := range ny {
		for x := range nx {
			buf = g.Window(x, y, w, buf)
			i := y*nx + x
			p.means[i] = stat.Mean(buf, nil)
			// same routine as the cross term so ssim(a, a) is exactly 1
			p.variance[i] = windowCovariance(g, g, x, y, w, p.means[i], p.means[i])
		}
	}
	return p, nil
}

// windowCovariance returns the sample covariance of the w×w blocks of a and b
// at (x, y), given their means. It reads the grids in place.
func windowCovariance(a, b grid.Grid, x, y, w int, ma, mb float64) float64 {
	var sum float64
	for row := y; row < y+w; row++ {
		for col := x; col < x+w; col++ {
			sum += (a.Get(col, row) - ma) * (b.Get(col, row) - mb)
		}
	}
	return sum / float64(w*w-1)
}

// ComparePrepared returns the mean SSIM of two prepared images. It fails
// with ErrInvalidRange under the same conditions as Compare.
func ComparePrepared(a, b *Prepared, dataRange float64) (float64, error) {
	if !a.img.SameShape(b.img) {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrShapeMismatch, a.img.Dx(), a.img.Dy(), b.img.Dx(), b.img.Dy())
	}
	if a.opts.WindowSize != b.opts.WindowSize {
		return 0, fmt.Errorf("%w: prepared with windows %d and %d",
			ErrInvalidWindow, a.opts.WindowSize, b.opts.WindowSize)
	}
	if math.IsNaN(dataRange) || dataRange <= 0 {
		return 0, fmt.Errorf("%w: got %g", ErrInvalidRange, dataRange)
	}

	c1 := (a.opts.K1 * dataRange) * (a.opts.K1 * dataRange)
	c2 := (a.opts.K2 * dataRange) * (a.opts.K2 * dataRange)
	w := a.opts.WindowSize

	local := make([]float64, len(a.means))
	for y := range a.ny {
		for x := range a.nx {
			i := y*a.nx + x
			ma, mb := a.means[i], b.means[i]
			cov := windowCovariance(a.img, b.img, x, y, w, ma, mb)

			num := (2*ma*mb + c1) * (2*cov + c2)
			den := (ma*ma + mb*mb + c1) * (a.variance[i] + b.variance[i] + c2)
			local[i] = num / den
		}
	}
	return stat.Mean(local, nil), nil
}

// Compare returns the mean SSIM between a and b, using dataRange as the
// dynamic range L of the stabilising constants. A dataRange that is zero,
// negative or NaN returns ErrInvalidRange, so a batch of identical constant
// images (min == max) cannot be compared.
func Compare(a, b grid.Grid, dataRange float64, opts Options) (float64, error) {
	if !a.SameShape(b) {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Dx(), a.Dy(), b.Dx(), b.Dy())
	}
	pa, err := Prepare(a, opts)
	if err != nil {
		return 0, err
	}
	pb, err := Prepare(b, opts)
	if err != nil {
		return 0, err
	}
	return ComparePrepared(pa, pb, dataRange)
}
