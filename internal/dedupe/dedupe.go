// Package dedupe implements the duplicate-removal batch: fingerprint all
// remote assets, cluster near-identical ones, keep the oldest copy per group
// and delete the rest after writing a recovery manifest.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"dupesweep/internal/cloudinary"
)

// AssetSource enumerates every asset in the remote host.
type AssetSource interface {
	ListAllAssets(onPage func(page, count, total int)) ([]cloudinary.Asset, error)
}

// AssetDeleter deletes one batch of assets and reports a status per public ID.
type AssetDeleter interface {
	DeleteAssets(publicIDs []string) (map[string]string, error)
}

// Extractor fingerprints the image behind a URL.
type Extractor interface {
	FromURL(ctx context.Context, url string) (string, error)
}

type Options struct {
	FolderPrefix    string // only dedupe assets whose folder starts with this prefix; empty = all
	Threshold       int    // max hamming distance between duplicates
	ThumbSize       int    // square thumbnail dimension requested for hashing
	DeleteBatchSize int    // public IDs per deletion call
	Concurrency     int    // parallel fingerprint downloads
	ManifestPath    string // where the deletion manifest is written

	// Confirm decides whether deletion proceeds once the manifest is on
	// disk. Nil or false aborts without side effects beyond the manifest.
	Confirm func(candidates int) bool

	// DryRun stops after the manifest is written, never asking for
	// confirmation and never deleting.
	DryRun bool
}

// Result summarizes one dedupe run.
type Result struct {
	RunID        string `json:"run_id"`
	Pages        int    `json:"pages"`
	TotalAssets  int    `json:"total_assets"`
	Matched      int    `json:"matched"` // assets left after the folder filter
	Missing      int    `json:"missing"` // assets whose fingerprint could not be computed
	Groups       int    `json:"groups"`
	Candidates   int    `json:"candidates"`
	Deleted      int    `json:"deleted"`
	Aborted      bool   `json:"aborted"`
	ManifestPath string `json:"manifest_path,omitempty"`
}

// Deduper owns the batch sequencing. It holds no algorithmic logic itself;
// clustering and survivor selection live in their own files.
type Deduper struct {
	source    AssetSource
	deleter   AssetDeleter
	extractor Extractor
	opts      Options
}

func New(source AssetSource, deleter AssetDeleter, extractor Extractor, opts Options) *Deduper {
	if opts.DeleteBatchSize <= 0 {
		opts.DeleteBatchSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Deduper{
		source:    source,
		deleter:   deleter,
		extractor: extractor,
		opts:      opts,
	}
}

// Run executes the full batch. The manifest is written before any
// confirmation or deletion whenever there is at least one candidate; a user
// abort or dry run leaves it on disk and returns a non-error Result with
// Aborted set.
func (d *Deduper) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}

	fmt.Println("Fetching all assets...")
	assets, err := d.source.ListAllAssets(func(page, count, total int) {
		result.Pages = page
		fmt.Printf("  Page %d: %d assets (total: %d)\n", page, count, total)
	})
	if err != nil {
		return nil, fmt.Errorf("could not enumerate assets: %w", err)
	}
	result.TotalAssets = len(assets)

	if d.opts.FolderPrefix != "" {
		assets = filterByFolder(assets, d.opts.FolderPrefix)
		fmt.Printf("Assets matching folder prefix %q: %d\n", d.opts.FolderPrefix, len(assets))
	}
	result.Matched = len(assets)

	items := d.fingerprintAll(ctx, assets)
	for _, item := range items {
		if item.Fingerprint == "" {
			result.Missing++
		}
	}
	if result.Missing > 0 {
		fmt.Printf("Warning: %d assets could not be fingerprinted and were skipped\n", result.Missing)
	}

	groups := Cluster(items, d.opts.Threshold)
	result.Groups = len(groups)
	fmt.Printf("Found %d groups of similar images\n", len(groups))

	candidates := collectCandidates(groups)
	result.Candidates = len(candidates)
	fmt.Printf("Images to delete: %d\n", len(candidates))

	if len(candidates) == 0 {
		return result, nil
	}

	// The manifest is the sole recovery artifact; it must exist on disk
	// before anything destructive can happen.
	if err := writeManifest(d.opts.ManifestPath, candidates); err != nil {
		return nil, err
	}
	result.ManifestPath = d.opts.ManifestPath
	fmt.Printf("Saved deletion manifest to %s\n", d.opts.ManifestPath)

	if d.opts.DryRun {
		fmt.Println("Dry run: skipping deletion.")
		result.Aborted = true
		return result, nil
	}

	if d.opts.Confirm == nil || !d.opts.Confirm(len(candidates)) {
		fmt.Println("Aborted.")
		result.Aborted = true
		return result, nil
	}

	deleted, err := d.deleteInBatches(candidates)
	result.Deleted = deleted
	if err != nil {
		return result, err
	}
	return result, nil
}

// fingerprintAll computes fingerprints for all assets with a bounded worker
// pool. Results land in a slice indexed by the asset's enumeration position,
// so the order fed to Cluster is exactly the host's order regardless of which
// download finishes first. A failed fetch only blanks its own slot.
func (d *Deduper) fingerprintAll(ctx context.Context, assets []cloudinary.Asset) []Item {
	items := make([]Item, len(assets))

	bar := progressbar.NewOptions(len(assets),
		progressbar.OptionSetDescription("Computing fingerprints"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(d.opts.Concurrency)

	for i, asset := range assets {
		i, asset := i, asset
		group.Go(func() error {
			url := cloudinary.ThumbnailURL(asset.SecureURL, d.opts.ThumbSize)
			fp, err := d.extractor.FromURL(gctx, url)
			if err != nil {
				// Per-asset failures are recorded as an absent
				// fingerprint, never escalated.
				fp = ""
			}
			items[i] = Item{Asset: asset, Fingerprint: fp}
			_ = bar.Add(1)
			return nil
		})
	}

	// Workers never return errors, so Wait only synchronizes.
	_ = group.Wait()
	fmt.Fprintln(os.Stderr)

	return items
}

// collectCandidates flattens the per-group removal lists in group order.
func collectCandidates(groups []Group) []string {
	var candidates []string
	for _, group := range groups {
		_, remove := SelectSurvivor(group)
		for _, asset := range remove {
			candidates = append(candidates, asset.PublicID)
		}
	}
	return candidates
}

// writeManifest persists the candidate public IDs as a JSON array.
func writeManifest(path string, publicIDs []string) error {
	data, err := json.MarshalIndent(publicIDs, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write manifest: %w", err)
	}
	return nil
}

// deleteInBatches issues deletion calls in fixed-size chunks and counts the
// IDs the host explicitly reported as deleted. IDs with any other status are
// not retried.
func (d *Deduper) deleteInBatches(publicIDs []string) (int, error) {
	bar := progressbar.NewOptions(len(publicIDs),
		progressbar.OptionSetDescription("Deleting duplicates"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	deleted := 0
	for start := 0; start < len(publicIDs); start += d.opts.DeleteBatchSize {
		end := min(start+d.opts.DeleteBatchSize, len(publicIDs))
		batch := publicIDs[start:end]

		statuses, err := d.deleter.DeleteAssets(batch)
		if err != nil {
			return deleted, fmt.Errorf("deletion batch failed: %w", err)
		}

		for _, status := range statuses {
			if status == "deleted" {
				deleted++
			}
		}
		_ = bar.Add(len(batch))
	}
	fmt.Fprintln(os.Stderr)

	return deleted, nil
}

// filterByFolder keeps assets whose folder starts with prefix, preserving order.
func filterByFolder(assets []cloudinary.Asset, prefix string) []cloudinary.Asset {
	filtered := make([]cloudinary.Asset, 0, len(assets))
	for _, asset := range assets {
		if strings.HasPrefix(asset.Folder, prefix) {
			filtered = append(filtered, asset)
		}
	}
	return filtered
}
