package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ssim-matrix",
	Short: "Compute pairwise structural similarity across a batch of images",
	Long: `SSIM Matrix loads a numbered batch of images as grayscale, computes the
structural similarity index (SSIM) for every pair using the dynamic range of
the whole batch, and writes the resulting N x N matrix as JSON.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file overriding the built-in defaults")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
