package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Cloudinary CloudinaryConfig
	Dedupe     DedupeConfig
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// IsComplete reports whether all Cloudinary credentials are present.
func (c *CloudinaryConfig) IsComplete() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// DedupeConfig holds the pipeline tuning knobs. Defaults come from the
// embedded defaults.yaml; each field can be overridden via environment.
type DedupeConfig struct {
	Threshold           int    `yaml:"threshold"`             // max hamming distance for two assets to be duplicates
	HashSize            int    `yaml:"hash_size"`             // perceptual hash side length (16 -> 256-bit fingerprints)
	ThumbSize           int    `yaml:"thumb_size"`            // square thumbnail dimension requested for hashing
	PageSize            int    `yaml:"page_size"`             // search API results per page
	DeleteBatchSize     int    `yaml:"delete_batch_size"`     // public IDs per deletion call
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"` // per-thumbnail download timeout
	Concurrency         int    `yaml:"concurrency"`           // parallel fingerprint downloads
	ManifestPath        string `yaml:"manifest_path"`         // deletion manifest destination
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable, falling back to a default when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults struct {
		Dedupe DedupeConfig `yaml:"dedupe"`
	}
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	d := defaults.Dedupe
	return &Config{
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Dedupe: DedupeConfig{
			Threshold:           envInt("DEDUPE_THRESHOLD", d.Threshold),
			HashSize:            envInt("DEDUPE_HASH_SIZE", d.HashSize),
			ThumbSize:           envInt("DEDUPE_THUMB_SIZE", d.ThumbSize),
			PageSize:            envInt("DEDUPE_PAGE_SIZE", d.PageSize),
			DeleteBatchSize:     envInt("DEDUPE_DELETE_BATCH_SIZE", d.DeleteBatchSize),
			FetchTimeoutSeconds: envInt("DEDUPE_FETCH_TIMEOUT_SECONDS", d.FetchTimeoutSeconds),
			Concurrency:         envInt("DEDUPE_CONCURRENCY", d.Concurrency),
			ManifestPath:        envString("DEDUPE_MANIFEST_PATH", d.ManifestPath),
		},
	}
}
