package cmd

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/ssim-matrix/internal/config"
	"github.com/kozaktomas/ssim-matrix/internal/grid"
	"github.com/kozaktomas/ssim-matrix/internal/matrix"
	"github.com/kozaktomas/ssim-matrix/internal/pipeline"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Compute the pairwise SSIM matrix and write it as JSON",
	Long: `Load images <base><N>.<ext> for every N from --first to --last, compute
SSIM for every ordered pair of images using the global min/max pixel value as
dynamic range, and write the N x N matrix as a JSON array of rows.

Without flags the built-in defaults are used (images/animals_blur_1.png ..
images/animals_blur_28.png -> ./output/similarity_blur.json). SSIM_* environment
variables and --config override the defaults; flags override everything.

Examples:
  # Run with defaults
  ssim-matrix matrix

  # Different batch and output
  ssim-matrix matrix --base shots/frame_ --ext jpg --first 0 --last 9 --output out.json

  # Also export the upper-triangle table
  ssim-matrix matrix --table ./output/ssim_table.csv`,
	Args: cobra.NoArgs,
	RunE: runMatrix,
}

func init() {
	rootCmd.AddCommand(matrixCmd)

	matrixCmd.Flags().String("base", "", "Image file prefix before the number")
	matrixCmd.Flags().String("ext", "", "Image file extension")
	matrixCmd.Flags().Int("first", 0, "First image number (inclusive)")
	matrixCmd.Flags().Int("last", 0, "Last image number (inclusive)")
	matrixCmd.Flags().String("output", "", "Path of the JSON matrix")
	matrixCmd.Flags().String("table", "", "Also write the upper-triangle table (.csv or .xlsx)")
	matrixCmd.Flags().Bool("symmetric", false, "Compute only the upper triangle and mirror it")
	matrixCmd.Flags().Bool("quiet", false, "Suppress progress output")
	matrixCmd.Flags().Bool("show-config", false, "Print the effective configuration before running")
}

// applyMatrixFlags overrides cfg with the flags that were set explicitly.
func applyMatrixFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base") {
		cfg.Images.BasePath = mustGetString(cmd, "base")
	}
	if flags.Changed("ext") {
		cfg.Images.Extension = mustGetString(cmd, "ext")
	}
	if flags.Changed("first") {
		cfg.Images.First = mustGetInt(cmd, "first")
	}
	if flags.Changed("last") {
		cfg.Images.Last = mustGetInt(cmd, "last")
	}
	if flags.Changed("output") {
		cfg.Output.MatrixPath = mustGetString(cmd, "output")
	}
	if flags.Changed("symmetric") {
		cfg.SSIM.Symmetric = mustGetBool(cmd, "symmetric")
	}
}

func runMatrix(cmd *cobra.Command, args []string) error {
	quiet := mustGetBool(cmd, "quiet")
	tablePath := mustGetString(cmd, "table")
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyMatrixFlags(cmd, cfg)

	if mustGetBool(cmd, "show-config") {
		fmt.Fprintf(out, "Configuration:\n\n%s\n", cfg.AsYaml())
	}

	obs := newMatrixObserver(out, quiet)
	res, err := pipeline.Run(cfg, obs.observer())
	obs.finish()
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(out, "Dynamic range: %.6f (min %.6f, max %.6f)\n", res.Range.Span(), res.Range.Min, res.Range.Max)
		fmt.Fprintf(out, "Wrote %dx%d similarity matrix to %s\n", res.Matrix.Size(), res.Matrix.Size(), res.OutputPath)
	}

	if tablePath != "" {
		if err := matrix.WriteTable(tablePath, matrix.Pairs(res.Matrix, cfg.Images.First)); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
		if !quiet {
			fmt.Fprintf(out, "Wrote table to %s\n", tablePath)
		}
	}
	return nil
}

// matrixObserver prints loaded images and drives a progress bar over the
// metric evaluations.
type matrixObserver struct {
	out   io.Writer
	quiet bool
	bar   *progressbar.ProgressBar
}

func newMatrixObserver(out io.Writer, quiet bool) *matrixObserver {
	return &matrixObserver{out: out, quiet: quiet}
}

func (o *matrixObserver) observer() pipeline.Observer {
	if o.quiet {
		return pipeline.Observer{}
	}
	return pipeline.Observer{
		ImageLoaded: func(id int, g grid.Grid) {
			fmt.Fprintf(o.out, "Loaded image %d (%dx%d)\n", id, g.Dx(), g.Dy())
		},
		ComputeStart: func(cells int) {
			o.bar = newSSIMProgressBar(o.out, cells)
		},
		CellDone: func(int, int) {
			if o.bar != nil {
				_ = o.bar.Add(1)
			}
		},
	}
}

func (o *matrixObserver) finish() {
	if o.bar != nil {
		_ = o.bar.Finish()
		fmt.Fprintln(o.out)
	}
}

// newSSIMProgressBar creates a progress bar over the SSIM evaluations.
func newSSIMProgressBar(out io.Writer, count int) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Computing SSIM"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("pairs"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}
