package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// doPostJSON performs a POST request with a JSON body and unmarshals the JSON response.
func doPostJSON[T any](c *Cloudinary, endpoint string, requestBody any) (*T, error) {
	reqURL := c.resolveURL(endpoint)

	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.SetBasicAuth(c.apiKey, c.apiSecret)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return doAndDecode[T](c, endpoint, req)
}

// doDeleteForm performs a DELETE request with a form-encoded body and
// unmarshals the JSON response. The Admin API deletion endpoint expects
// form values rather than JSON.
func doDeleteForm[T any](c *Cloudinary, endpoint string, form url.Values) (*T, error) {
	reqURL := c.resolveURL(endpoint)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doAndDecode[T](c, endpoint, req)
}

// doAndDecode sends a prepared request, checks for a 200 response and decodes
// the JSON body into the result type.
func doAndDecode[T any](c *Cloudinary, endpoint string, req *http.Request) (*T, error) {
	resp, err := http.DefaultClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}
