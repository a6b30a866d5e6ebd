package cloudinary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cloudinary is a client for the Cloudinary Admin and Search APIs.
// All calls authenticate with HTTP basic auth using the API key and secret.
type Cloudinary struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	parsedURL  *url.URL
	captureDir string

	searchPageSize int
}

// New creates a Cloudinary client for the given cloud.
func New(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	if cloudName == "" {
		return nil, fmt.Errorf("cloud name must not be empty")
	}
	return newWithBaseURL("https://api.cloudinary.com/v1_1/"+cloudName, cloudName, apiKey, apiSecret)
}

// NewWithBaseURL creates a client pointed at a custom API base URL.
// Used by tests to target a mock server.
func NewWithBaseURL(baseURL, cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	return newWithBaseURL(strings.TrimSuffix(baseURL, "/")+"/v1_1/"+cloudName, cloudName, apiKey, apiSecret)
}

func newWithBaseURL(apiURL, cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Cloudinary URL: %w", err)
	}
	return &Cloudinary{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		parsedURL: parsed,
	}, nil
}

// resolveURL builds a full URL from the base API URL and the given path segments.
// If the last segment contains a query string, it is split so JoinPath only
// receives the path portion and the query is appended.
func (c *Cloudinary) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Cloudinary) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
// The filename is generated from the endpoint name and a timestamp.
func (c *Cloudinary) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
