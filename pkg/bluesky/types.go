package bluesky

// Post is the normalised representation of a Bluesky post.
// It is immutable once fetched and owned by the run that fetched it.
type Post struct {
	URI           string   `json:"uri"`
	Text          string   `json:"text"`
	AuthorHandle  string   `json:"author_handle"`
	CreatedAt     string   `json:"created_at"`
	ExternalLinks []string `json:"external_links"`
	Images        []string `json:"images"`
}

// SearchResult is a single hit from the post-search endpoint.
type SearchResult struct {
	URL    string `json:"url"`
	Handle string `json:"handle"`
	Text   string `json:"text"`
}
