package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/ssim-matrix/internal/matrix"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Convert a similarity matrix into an image1/image2/similarity table",
	Long: `Read a similarity matrix written by the matrix command and list every pair
(image1, image2) with image1 <= image2 once, together with its score.

The output format follows the file extension (.csv or .xlsx). Without
--output the table goes to the configured table path (SSIM_TABLE_OUTPUT,
default ./output/ssim_table.xlsx). Use --output - to print it instead.

Examples:
  # Write the table to the configured path
  ssim-matrix table

  # Print the table
  ssim-matrix table --output -

  # Write CSV instead
  ssim-matrix table --output ./output/ssim_table.csv

  # Matrix of images numbered from 0
  ssim-matrix table --input out.json --first 0 --output table.csv`,
	Args: cobra.NoArgs,
	RunE: runTable,
}

func init() {
	rootCmd.AddCommand(tableCmd)

	tableCmd.Flags().String("input", "", "Matrix JSON file (default: configured output path)")
	tableCmd.Flags().String("output", "", "Table file (.csv or .xlsx), - for stdout (default: configured table path)")
	tableCmd.Flags().Int("first", 0, "Number of the first image (default: configured first image)")
}

func runTable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := cfg.Output.MatrixPath
	if cmd.Flags().Changed("input") {
		input = mustGetString(cmd, "input")
	}
	first := cfg.Images.First
	if cmd.Flags().Changed("first") {
		first = mustGetInt(cmd, "first")
	}

	m, err := matrix.ReadJSON(input)
	if err != nil {
		return err
	}
	pairs := matrix.Pairs(m, first)

	output := cfg.Output.TablePath
	if cmd.Flags().Changed("output") {
		output = mustGetString(cmd, "output")
	}
	if output != "" && output != "-" {
		if err := matrix.WriteTable(output, pairs); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pairs to %s\n", len(pairs), output)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "IMAGE1\tIMAGE2\tSIMILARITY\n")
	for _, p := range pairs {
		fmt.Fprintf(w, "%d\t%d\t%.6f\n", p.Image1, p.Image2, p.Similarity)
	}
	return w.Flush()
}
