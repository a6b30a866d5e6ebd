package fingerprint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Extractor downloads images over HTTP and fingerprints them. Each download
// is bounded by the configured timeout; there are no retries.
type Extractor struct {
	client   *http.Client
	hashSize int
}

// NewExtractor creates an Extractor with the given per-request timeout and
// hash side length.
func NewExtractor(timeout time.Duration, hashSize int) *Extractor {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}
	return &Extractor{
		client:   &http.Client{Timeout: timeout},
		hashSize: hashSize,
	}
}

// FromURL fetches the image at url and returns its fingerprint. Any fetch,
// decode or hash failure is returned as an error; callers treat errored
// assets as having no fingerprint rather than aborting the batch.
func (e *Extractor) FromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read image body: %w", err)
	}

	return FromImage(data, e.hashSize)
}
