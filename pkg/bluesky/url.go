package bluesky

import (
	"fmt"
	"net/url"
	"strings"
)

const postCollection = "app.bsky.feed.post"

// ParsePostURL extracts the profile and record key segments from a
// bsky.app post URL of the form
// https://bsky.app/profile/<handle-or-did>/post/<rkey>.
func ParsePostURL(rawURL string) (profile string, rkey string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if !strings.Contains(parsed.Host, "bsky.app") {
		return "", "", fmt.Errorf("not a recognised Bluesky URL: %q", rawURL)
	}

	parts := []string{}
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 4 || parts[0] != "profile" || parts[2] != "post" {
		return "", "", fmt.Errorf("unexpected Bluesky post URL format: %q", rawURL)
	}

	return parts[1], parts[3], nil
}

// BuildATURI builds the canonical at:// record identifier for a post.
func BuildATURI(profile, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", profile, postCollection, rkey)
}

// PostURLFromATURI converts an at:// post URI back to its bsky.app URL.
// URIs that do not look like post records are returned unchanged so
// search results always carry something addressable.
func PostURLFromATURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "at://")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return uri
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", parts[0], parts[2])
}
