package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "dupesweep",
	Short: "A CLI tool that removes visually duplicate images from Cloudinary",
	Long: `Dupesweep scans a Cloudinary account for visually duplicate images using
perceptual hashing, keeps the oldest copy of each duplicate group and deletes
the rest after writing a recovery manifest and asking for confirmation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
