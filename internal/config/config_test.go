package config

import (
	"testing"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Dedupe.Threshold != 12 {
		t.Errorf("expected default threshold 12, got %d", cfg.Dedupe.Threshold)
	}

	if cfg.Dedupe.HashSize != 16 {
		t.Errorf("expected default hash size 16, got %d", cfg.Dedupe.HashSize)
	}

	if cfg.Dedupe.ThumbSize != 128 {
		t.Errorf("expected default thumb size 128, got %d", cfg.Dedupe.ThumbSize)
	}

	if cfg.Dedupe.PageSize != 500 {
		t.Errorf("expected default page size 500, got %d", cfg.Dedupe.PageSize)
	}

	if cfg.Dedupe.DeleteBatchSize != 100 {
		t.Errorf("expected default delete batch size 100, got %d", cfg.Dedupe.DeleteBatchSize)
	}

	if cfg.Dedupe.FetchTimeoutSeconds != 10 {
		t.Errorf("expected default fetch timeout 10s, got %d", cfg.Dedupe.FetchTimeoutSeconds)
	}

	if cfg.Dedupe.ManifestPath != "/tmp/phash_duplicates.json" {
		t.Errorf("unexpected default manifest path: %s", cfg.Dedupe.ManifestPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEDUPE_THRESHOLD", "5")
	t.Setenv("DEDUPE_CONCURRENCY", "8")
	t.Setenv("DEDUPE_MANIFEST_PATH", "/var/tmp/dupes.json")

	cfg := Load()

	if cfg.Dedupe.Threshold != 5 {
		t.Errorf("expected threshold 5 from env, got %d", cfg.Dedupe.Threshold)
	}

	if cfg.Dedupe.Concurrency != 8 {
		t.Errorf("expected concurrency 8 from env, got %d", cfg.Dedupe.Concurrency)
	}

	if cfg.Dedupe.ManifestPath != "/var/tmp/dupes.json" {
		t.Errorf("expected manifest path from env, got %s", cfg.Dedupe.ManifestPath)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("DEDUPE_THRESHOLD", "not-a-number")
	t.Setenv("DEDUPE_PAGE_SIZE", "-3")

	cfg := Load()

	if cfg.Dedupe.Threshold != 12 {
		t.Errorf("expected invalid env to fall back to 12, got %d", cfg.Dedupe.Threshold)
	}

	if cfg.Dedupe.PageSize != 500 {
		t.Errorf("expected non-positive env to fall back to 500, got %d", cfg.Dedupe.PageSize)
	}
}

func TestCloudinaryConfig_IsComplete(t *testing.T) {
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	cfg := Load()
	if !cfg.Cloudinary.IsComplete() {
		t.Error("expected complete credentials")
	}

	cfg.Cloudinary.APISecret = ""
	if cfg.Cloudinary.IsComplete() {
		t.Error("expected incomplete credentials when secret is missing")
	}
}
