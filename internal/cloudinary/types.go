package cloudinary

// Asset represents a single Cloudinary resource as returned by the Search API.
type Asset struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int64  `json:"bytes"`
	CreatedAt    string `json:"created_at"`
	Folder       string `json:"folder"`
}

// SearchPage is one page of Search API results.
type SearchPage struct {
	Resources  []Asset `json:"resources"`
	NextCursor string  `json:"next_cursor"`
	TotalCount int     `json:"total_count"`
}

// deleteResponse is the Admin API response to a batch deletion call.
// Deleted maps each public ID to a status string ("deleted", "not_found", ...).
type deleteResponse struct {
	Deleted map[string]string `json:"deleted"`
}
