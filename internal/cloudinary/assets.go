package cloudinary

import (
	"fmt"
	"net/url"
	"strings"
)

// searchRequest is the Search API request body. NextCursor is omitted on the
// first page.
type searchRequest struct {
	Expression string `json:"expression"`
	MaxResults int    `json:"max_results"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// SearchAssets fetches one page of image assets matching the expression.
// Pass the NextCursor of the previous page to continue; an empty cursor in
// the returned page means the enumeration is complete.
func (c *Cloudinary) SearchAssets(expression string, maxResults int, cursor string) (*SearchPage, error) {
	page, err := doPostJSON[SearchPage](c, "resources/search", searchRequest{
		Expression: expression,
		MaxResults: maxResults,
		NextCursor: cursor,
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListAllAssets enumerates every image asset in the cloud by following the
// search cursor until it is exhausted. Assets are returned in the host's
// enumeration order. Repeated public IDs across pages are dropped; the Search
// API occasionally returns the same resource twice around a cursor boundary.
//
// onPage, if non-nil, is called after each page with the 1-based page number,
// the number of assets on that page and the running total.
func (c *Cloudinary) ListAllAssets(onPage func(page, count, total int)) ([]Asset, error) {
	var all []Asset
	seen := make(map[string]bool)
	cursor := ""
	pageNum := 0

	for {
		pageNum++
		page, err := c.SearchAssets("resource_type:image", c.pageSize(), cursor)
		if err != nil {
			return nil, fmt.Errorf("could not list assets (page %d): %w", pageNum, err)
		}

		for _, asset := range page.Resources {
			if seen[asset.PublicID] {
				continue
			}
			seen[asset.PublicID] = true
			all = append(all, asset)
		}

		if onPage != nil {
			onPage(pageNum, len(page.Resources), len(all))
		}

		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}

	return all, nil
}

// pageSize returns the configured search page size, defaulting to 500.
func (c *Cloudinary) pageSize() int {
	if c.searchPageSize > 0 {
		return c.searchPageSize
	}
	return 500
}

// SetPageSize overrides the number of results requested per search page.
func (c *Cloudinary) SetPageSize(n int) {
	if n > 0 {
		c.searchPageSize = n
	}
}

// DeleteAssets deletes the given image assets in a single Admin API call and
// returns the per-ID status map. The caller is responsible for keeping the
// batch within the API's per-call limit.
func (c *Cloudinary) DeleteAssets(publicIDs []string) (map[string]string, error) {
	if len(publicIDs) == 0 {
		return map[string]string{}, nil
	}

	form := url.Values{}
	for _, id := range publicIDs {
		form.Add("public_ids[]", id)
	}

	resp, err := doDeleteForm[deleteResponse](c, "resources/image/upload", form)
	if err != nil {
		return nil, fmt.Errorf("could not delete assets: %w", err)
	}
	return resp.Deleted, nil
}

// ThumbnailURL rewrites a Cloudinary delivery URL to request a server-side
// square thumbnail, bounding download and decode cost for hashing. URLs
// without an /upload/ segment are returned unchanged.
func ThumbnailURL(secureURL string, size int) string {
	transform := fmt.Sprintf("/upload/c_fill,w_%d,h_%d/", size, size)
	return strings.Replace(secureURL, "/upload/", transform, 1)
}
