package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dupesweep/internal/cloudinary"
	"dupesweep/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-folder asset counts and sizes",
	Long:  `Enumerates every image in the Cloudinary account and prints asset counts and total bytes grouped by folder.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type folderStats struct {
	count int
	bytes int64
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if !cfg.Cloudinary.IsComplete() {
		return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set")
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

	fmt.Println("Fetching all assets...")
	assets, err := client.ListAllAssets(func(page, count, total int) {
		fmt.Printf("  Page %d: %d assets (total: %d)\n", page, count, total)
	})
	if err != nil {
		return err
	}

	byFolder := make(map[string]*folderStats)
	var totalBytes int64
	for _, asset := range assets {
		folder := asset.Folder
		if folder == "" {
			folder = "(root)"
		}
		s, ok := byFolder[folder]
		if !ok {
			s = &folderStats{}
			byFolder[folder] = s
		}
		s.count++
		s.bytes += asset.Bytes
		totalBytes += asset.Bytes
	}

	folders := make([]string, 0, len(byFolder))
	for folder := range byFolder {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOLDER\tASSETS\tMB")
	fmt.Fprintln(w, "------\t------\t--")
	for _, folder := range folders {
		s := byFolder[folder]
		fmt.Fprintf(w, "%s\t%d\t%.1f\n", folder, s.count, float64(s.bytes)/1024/1024)
	}
	fmt.Fprintf(w, "\ttotal: %d\t%.1f\n", len(assets), float64(totalBytes)/1024/1024)
	w.Flush()

	return nil
}
