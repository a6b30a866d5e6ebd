package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dupesweep/internal/cloudinary"
	"dupesweep/internal/config"
	"dupesweep/internal/dedupe"
	"dupesweep/internal/fingerprint"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find and delete visually duplicate images",
	Long: `Enumerates all images in the Cloudinary account, computes a perceptual
fingerprint per image from a server-side thumbnail, groups near-identical
images and deletes everything except the oldest copy of each group.

The list of images selected for deletion is written to a manifest file before
anything is deleted, and deletion only proceeds after an explicit "yes" at the
confirmation prompt (or with --yes).

Examples:
  # Preview what would be deleted, nothing is removed
  dupesweep run --dry-run

  # Dedupe only the scrapbook folder
  dupesweep run --folder scrapbook

  # Stricter matching and non-interactive confirmation
  dupesweep run --threshold 6 --yes`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("folder", "", "Only dedupe assets whose folder starts with this prefix")
	runCmd.Flags().Int("threshold", 0, "Maximum hamming distance between duplicates (default from config)")
	runCmd.Flags().String("manifest", "", "Deletion manifest path (default from config)")
	runCmd.Flags().Bool("dry-run", false, "Write the manifest but skip deletion")
	runCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runRun(cmd *cobra.Command, args []string) error {
	folder := mustGetString(cmd, "folder")
	threshold := mustGetInt(cmd, "threshold")
	manifest := mustGetString(cmd, "manifest")
	dryRun := mustGetBool(cmd, "dry-run")
	yes := mustGetBool(cmd, "yes")

	cfg := config.Load()
	if !cfg.Cloudinary.IsComplete() {
		return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set")
	}

	if threshold <= 0 {
		threshold = cfg.Dedupe.Threshold
	}
	if manifest == "" {
		manifest = cfg.Dedupe.ManifestPath
	}

	client, err := cloudinary.New(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		return fmt.Errorf("failed to create Cloudinary client: %w", err)
	}
	client.SetPageSize(cfg.Dedupe.PageSize)
	if captureDir != "" {
		if err := client.SetCaptureDir(captureDir); err != nil {
			return err
		}
	}

	extractor := fingerprint.NewExtractor(
		time.Duration(cfg.Dedupe.FetchTimeoutSeconds)*time.Second,
		cfg.Dedupe.HashSize,
	)

	confirm := promptConfirm
	if yes {
		confirm = func(int) bool { return true }
	}

	deduper := dedupe.New(client, client, extractor, dedupe.Options{
		FolderPrefix:    folder,
		Threshold:       threshold,
		ThumbSize:       cfg.Dedupe.ThumbSize,
		DeleteBatchSize: cfg.Dedupe.DeleteBatchSize,
		Concurrency:     cfg.Dedupe.Concurrency,
		ManifestPath:    manifest,
		Confirm:         confirm,
		DryRun:          dryRun,
	})

	result, err := deduper.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished.\n", result.RunID)
	fmt.Printf("  Assets scanned:  %d (%d pages)\n", result.TotalAssets, result.Pages)
	fmt.Printf("  Assets analyzed: %d (%d without fingerprint)\n", result.Matched, result.Missing)
	fmt.Printf("  Duplicate groups: %d\n", result.Groups)
	fmt.Printf("  Deletion candidates: %d\n", result.Candidates)
	if result.ManifestPath != "" {
		fmt.Printf("  Manifest: %s\n", result.ManifestPath)
	}
	if result.Aborted {
		fmt.Println("  Nothing was deleted.")
	} else {
		fmt.Printf("  Deleted: %d\n", result.Deleted)
	}

	return nil
}

// promptConfirm asks for an explicit "yes" on stdin before deletion.
// Anything else aborts.
func promptConfirm(candidates int) bool {
	fmt.Printf("\nDelete these %d images? (yes/no): ", candidates)

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}
