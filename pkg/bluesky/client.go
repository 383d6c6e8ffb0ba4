package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public Bluesky AppView. No credentials are
	// required for read-only lookups and searches.
	DefaultBaseURL = "https://api.bsky.app"

	defaultTimeout = 15 * time.Second
	maxSearchLimit = 10
)

// Client talks to the Bluesky AppView XRPC endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an AppView client. An empty baseURL selects the
// public AppView.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// threadResponse mirrors the slice of app.bsky.feed.getPostThread we need.
type threadResponse struct {
	Thread struct {
		Post struct {
			URI    string `json:"uri"`
			Author struct {
				Handle string `json:"handle"`
			} `json:"author"`
			Record struct {
				Text      string `json:"text"`
				CreatedAt string `json:"createdAt"`
				Facets    []struct {
					Features []struct {
						Type string `json:"$type"`
						URI  string `json:"uri"`
					} `json:"features"`
				} `json:"facets"`
			} `json:"record"`
			Embed struct {
				Type   string `json:"$type"`
				Images []struct {
					Fullsize string `json:"fullsize"`
				} `json:"images"`
			} `json:"embed"`
		} `json:"post"`
	} `json:"thread"`
}

// FetchPost resolves a bsky.app post URL to its canonical record and
// returns the normalised Post. Malformed URLs fail before any network
// call is attempted.
func (c *Client) FetchPost(ctx context.Context, postURL string) (*Post, error) {
	profile, rkey, err := ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}
	uri := BuildATURI(profile, rkey)

	var raw threadResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPostThread", url.Values{"uri": {uri}}, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch post thread: %w", err)
	}

	post := raw.Thread.Post
	externalLinks := []string{}
	for _, facet := range post.Record.Facets {
		for _, feature := range facet.Features {
			if feature.Type == "app.bsky.richtext.facet#link" && feature.URI != "" {
				externalLinks = append(externalLinks, feature.URI)
			}
		}
	}

	images := []string{}
	if post.Embed.Type == "app.bsky.embed.images#view" {
		for _, img := range post.Embed.Images {
			if img.Fullsize != "" {
				images = append(images, img.Fullsize)
			}
		}
	}

	return &Post{
		URI:           uri,
		Text:          post.Record.Text,
		AuthorHandle:  post.Author.Handle,
		CreatedAt:     post.Record.CreatedAt,
		ExternalLinks: externalLinks,
		Images:        images,
	}, nil
}

// SearchPosts queries app.bsky.feed.searchPosts and normalises the hits.
// Results with empty text are dropped. The limit is clamped to [1,10].
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var raw struct {
		Posts []struct {
			URI    string `json:"uri"`
			Author struct {
				Handle string `json:"handle"`
			} `json:"author"`
			Record struct {
				Text string `json:"text"`
			} `json:"record"`
		} `json:"posts"`
	}
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/xrpc/app.bsky.feed.searchPosts", params, &raw); err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	results := []SearchResult{}
	for _, p := range raw.Posts {
		if p.Record.Text == "" {
			continue
		}
		results = append(results, SearchResult{
			URL:    PostURLFromATURI(p.URI),
			Handle: p.Author.Handle,
			Text:   p.Record.Text,
		})
	}
	return results, nil
}

// get performs a GET against an XRPC endpoint and decodes the JSON body.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("appview returned status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
