package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dupesweep/internal/cloudinary"
)

type fakeSource struct {
	assets []cloudinary.Asset
	err    error
}

func (f *fakeSource) ListAllAssets(onPage func(page, count, total int)) ([]cloudinary.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	if onPage != nil {
		onPage(1, len(f.assets), len(f.assets))
	}
	return f.assets, nil
}

type fakeDeleter struct {
	batches [][]string
}

func (f *fakeDeleter) DeleteAssets(publicIDs []string) (map[string]string, error) {
	batch := make([]string, len(publicIDs))
	copy(batch, publicIDs)
	f.batches = append(f.batches, batch)

	statuses := make(map[string]string, len(publicIDs))
	for _, id := range publicIDs {
		statuses[id] = "deleted"
	}
	return statuses, nil
}

// fakeExtractor serves fingerprints by the public ID embedded in the URL.
// IDs without an entry simulate a failed fetch.
type fakeExtractor struct {
	fingerprints map[string]string
}

func (f *fakeExtractor) FromURL(ctx context.Context, url string) (string, error) {
	for id, fingerprint := range f.fingerprints {
		if strings.Contains(url, "/"+id+".png") {
			return fingerprint, nil
		}
	}
	return "", errors.New("fetch failed")
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Threshold:       12,
		ThumbSize:       128,
		DeleteBatchSize: 100,
		Concurrency:     2,
		ManifestPath:    filepath.Join(t.TempDir(), "manifest.json"),
		Confirm:         func(int) bool { return true },
	}
}

func readManifest(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	return ids
}

func TestRun_EndToEnd(t *testing.T) {
	// a and b are near-duplicates; c, d and e are mutually far apart.
	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		asset("b", "2019-05-01T00:00:00Z"),
		asset("c", "2020-01-01T00:00:00Z"),
		asset("d", "2020-01-01T00:00:00Z"),
		asset("e", "2020-01-01T00:00:00Z"),
	}}
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a": fp(""),
		"b": fp("f"),
		"c": fp("ffffffff"),
		"d": fp("ffffffffffffffff"), // 64 bits from a, 32 from c
		"e": strings.Repeat("f", 24) + strings.Repeat("0", 40),
	}}
	deleter := &fakeDeleter{}

	d := New(source, deleter, extractor, testOptions(t))

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Groups != 1 {
		t.Errorf("expected 1 group, got %d", result.Groups)
	}

	if result.Candidates != 1 {
		t.Errorf("expected 1 candidate, got %d", result.Candidates)
	}

	// b is older, so a is the duplicate.
	ids := readManifest(t, result.ManifestPath)
	if !reflect.DeepEqual(ids, []string{"a"}) {
		t.Errorf("expected manifest [a], got %v", ids)
	}

	if len(deleter.batches) != 1 || !reflect.DeepEqual(deleter.batches[0], []string{"a"}) {
		t.Errorf("expected a single deletion call for [a], got %v", deleter.batches)
	}

	if result.Deleted != 1 {
		t.Errorf("expected 1 deletion counted, got %d", result.Deleted)
	}

	if result.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestRun_FailedExtractionExcludesAsset(t *testing.T) {
	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		asset("broken", "2019-01-01T00:00:00Z"),
		asset("b", "2021-01-01T00:00:00Z"),
	}}
	// "broken" has no fingerprint entry so its fetch fails. Even though it
	// is the oldest asset, it must not join the a/b group or the manifest.
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a": fp(""),
		"b": fp("1"),
	}}
	deleter := &fakeDeleter{}

	d := New(source, deleter, extractor, testOptions(t))

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Missing != 1 {
		t.Errorf("expected 1 missing fingerprint, got %d", result.Missing)
	}

	ids := readManifest(t, result.ManifestPath)
	if !reflect.DeepEqual(ids, []string{"b"}) {
		t.Errorf("expected manifest [b], got %v", ids)
	}
}

func TestRun_AbortLeavesManifestAndDeletesNothing(t *testing.T) {
	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		asset("b", "2021-01-01T00:00:00Z"),
	}}
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a": fp(""),
		"b": fp("1"),
	}}
	deleter := &fakeDeleter{}

	opts := testOptions(t)
	opts.Confirm = func(int) bool { return false }

	d := New(source, deleter, extractor, opts)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Aborted {
		t.Error("expected run to be marked aborted")
	}

	if len(deleter.batches) != 0 {
		t.Errorf("expected no deletion calls, got %d", len(deleter.batches))
	}

	if _, err := os.Stat(opts.ManifestPath); err != nil {
		t.Errorf("expected manifest to remain on disk: %v", err)
	}

	if result.Deleted != 0 {
		t.Errorf("expected 0 deletions, got %d", result.Deleted)
	}
}

func TestRun_DryRunNeverAsksForConfirmation(t *testing.T) {
	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		asset("b", "2021-01-01T00:00:00Z"),
	}}
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a": fp(""),
		"b": fp("1"),
	}}
	deleter := &fakeDeleter{}

	opts := testOptions(t)
	opts.DryRun = true
	opts.Confirm = func(int) bool {
		t.Error("confirm must not be called during a dry run")
		return true
	}

	d := New(source, deleter, extractor, opts)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Aborted {
		t.Error("expected dry run to be marked aborted")
	}

	if len(deleter.batches) != 0 {
		t.Errorf("expected no deletion calls, got %d", len(deleter.batches))
	}

	if _, err := os.Stat(opts.ManifestPath); err != nil {
		t.Errorf("expected manifest to be written during dry run: %v", err)
	}
}

func TestRun_NoCandidatesWritesNoManifest(t *testing.T) {
	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		asset("b", "2021-01-01T00:00:00Z"),
	}}
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a": fp(""),
		"b": fp("ffffffff"),
	}}
	deleter := &fakeDeleter{}

	opts := testOptions(t)
	d := New(source, deleter, extractor, opts)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Candidates != 0 {
		t.Errorf("expected 0 candidates, got %d", result.Candidates)
	}

	if _, err := os.Stat(opts.ManifestPath); !os.IsNotExist(err) {
		t.Error("expected no manifest when there is nothing to delete")
	}
}

func TestRun_FolderPrefixFilter(t *testing.T) {
	outside := asset("outside", "2018-01-01T00:00:00Z")
	outside.Folder = "portfolio"

	source := &fakeSource{assets: []cloudinary.Asset{
		asset("a", "2020-01-01T00:00:00Z"),
		outside,
		asset("b", "2021-01-01T00:00:00Z"),
	}}
	// "outside" matches a visually but lives in another folder.
	extractor := &fakeExtractor{fingerprints: map[string]string{
		"a":       fp(""),
		"outside": fp(""),
		"b":       fp("1"),
	}}
	deleter := &fakeDeleter{}

	opts := testOptions(t)
	opts.FolderPrefix = "scrapbook"

	d := New(source, deleter, extractor, opts)

	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Matched != 2 {
		t.Errorf("expected 2 assets after folder filter, got %d", result.Matched)
	}

	ids := readManifest(t, result.ManifestPath)
	if !reflect.DeepEqual(ids, []string{"b"}) {
		t.Errorf("expected manifest [b], got %v", ids)
	}
}

func TestRun_EnumerationFailureIsFatal(t *testing.T) {
	source := &fakeSource{err: errors.New("search unavailable")}
	d := New(source, &fakeDeleter{}, &fakeExtractor{}, testOptions(t))

	if _, err := d.Run(context.Background()); err == nil {
		t.Fatal("expected enumeration failure to abort the run")
	}
}

func TestDeleteInBatches_ChunkSizes(t *testing.T) {
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("asset-%03d", i)
	}

	deleter := &fakeDeleter{}
	opts := testOptions(t)
	d := New(&fakeSource{}, deleter, &fakeExtractor{}, opts)

	deleted, err := d.deleteInBatches(ids)
	if err != nil {
		t.Fatalf("deleteInBatches failed: %v", err)
	}

	if deleted != 250 {
		t.Errorf("expected 250 deletions counted, got %d", deleted)
	}

	if len(deleter.batches) != 3 {
		t.Fatalf("expected 3 deletion calls, got %d", len(deleter.batches))
	}

	sizes := []int{len(deleter.batches[0]), len(deleter.batches[1]), len(deleter.batches[2])}
	if !reflect.DeepEqual(sizes, []int{100, 100, 50}) {
		t.Errorf("expected batch sizes [100 100 50], got %v", sizes)
	}
}

func TestClusterAndSelect_Idempotent(t *testing.T) {
	items := []Item{
		{Asset: asset("a", "2020-01-01T00:00:00Z"), Fingerprint: fp("")},
		{Asset: asset("b", "2019-05-01T00:00:00Z"), Fingerprint: fp("3")},
		{Asset: asset("c", "2021-01-01T00:00:00Z"), Fingerprint: fp("7")},
		{Asset: asset("d", "2022-01-01T00:00:00Z"), Fingerprint: fp("ffffffff")},
	}

	first := collectCandidates(Cluster(items, 12))
	second := collectCandidates(Cluster(items, 12))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical manifests on repeated clustering: %v vs %v", first, second)
	}
}
