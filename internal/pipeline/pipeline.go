// Package pipeline runs the load, compare and write steps of a similarity
// batch as one fail-fast job.
package pipeline

import (
	"fmt"

	"github.com/kozaktomas/ssim-matrix/internal/config"
	"github.com/kozaktomas/ssim-matrix/internal/grid"
	"github.com/kozaktomas/ssim-matrix/internal/imageset"
	"github.com/kozaktomas/ssim-matrix/internal/matrix"
)

// Observer receives progress callbacks. Nil fields are skipped.
type Observer struct {
	ImageLoaded  func(id int, g grid.Grid)
	ComputeStart func(cells int)
	CellDone     func(x, y int)
}

// Result describes a finished run.
type Result struct {
	IDs        []int
	Range      grid.Range
	Matrix     matrix.Matrix
	OutputPath string
}

// Run loads every configured image, computes the full similarity matrix and
// writes it to cfg.Output.MatrixPath. Nothing is written unless loading and
// computing both succeed.
func Run(cfg *config.Config, obs Observer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := imageset.Load(cfg.Images.Source(), obs.ImageLoaded)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}

	opts := matrix.Options{
		SSIM:      cfg.SSIM.Options(),
		Symmetric: cfg.SSIM.Symmetric,
		OnCell:    obs.CellDone,
	}
	if obs.ComputeStart != nil {
		obs.ComputeStart(opts.Cells(set.Len()))
	}

	m, err := matrix.Compute(set.Images, set.Range.Span(), opts)
	if err != nil {
		return nil, fmt.Errorf("computing similarity: %w", err)
	}

	if err := matrix.WriteJSON(cfg.Output.MatrixPath, m); err != nil {
		return nil, fmt.Errorf("writing %s: %w", cfg.Output.MatrixPath, err)
	}

	return &Result{
		IDs:        set.IDs,
		Range:      set.Range,
		Matrix:     m,
		OutputPath: cfg.Output.MatrixPath,
	}, nil
}
