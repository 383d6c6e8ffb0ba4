package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadFixture = `{
  "thread": {
    "post": {
      "uri": "at://did:plc:abcd/app.bsky.feed.post/3kxyz",
      "author": {"handle": "alice.bsky.social"},
      "record": {
        "text": "Check out this new protocol I built!",
        "createdAt": "2024-03-01T12:00:00Z",
        "facets": [
          {"features": [
            {"$type": "app.bsky.richtext.facet#link", "uri": "https://example.com/spec"},
            {"$type": "app.bsky.richtext.facet#mention", "did": "did:plc:other"}
          ]}
        ]
      },
      "embed": {
        "$type": "app.bsky.embed.images#view",
        "images": [{"fullsize": "https://cdn.example.com/img1.jpg"}]
      }
    }
  }
}`

func TestFetchPost(t *testing.T) {
	t.Run("should normalise the thread record", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/xrpc/app.bsky.feed.getPostThread", r.URL.Path)
			assert.Equal(t, "at://did:plc:abcd/app.bsky.feed.post/3kxyz", r.URL.Query().Get("uri"))
			fmt.Fprint(w, threadFixture)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		post, err := client.FetchPost(context.Background(), "https://bsky.app/profile/did:plc:abcd/post/3kxyz")
		require.NoError(t, err)

		assert.Equal(t, "at://did:plc:abcd/app.bsky.feed.post/3kxyz", post.URI)
		assert.Equal(t, "Check out this new protocol I built!", post.Text)
		assert.Equal(t, "alice.bsky.social", post.AuthorHandle)
		assert.Equal(t, "2024-03-01T12:00:00Z", post.CreatedAt)
		assert.Equal(t, []string{"https://example.com/spec"}, post.ExternalLinks)
		assert.Equal(t, []string{"https://cdn.example.com/img1.jpg"}, post.Images)
	})

	t.Run("should reject malformed URLs before any network call", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.FetchPost(context.Background(), "https://example.com/profile/x/post/y")
		assert.Error(t, err)
		assert.False(t, called)
	})

	t.Run("should surface upstream failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.FetchPost(context.Background(), "https://bsky.app/profile/a/post/b")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestSearchPosts(t *testing.T) {
	searchFixture := `{
	  "posts": [
	    {"uri": "at://did:plc:one/app.bsky.feed.post/3k1", "author": {"handle": "one.bsky.social"}, "record": {"text": "atproto federation explained"}},
	    {"uri": "at://did:plc:two/app.bsky.feed.post/3k2", "author": {"handle": "two.bsky.social"}, "record": {"text": ""}},
	    {"uri": "at://did:plc:three/app.bsky.feed.post/3k3", "author": {"handle": "three.bsky.social"}, "record": {"text": "more context"}}
	  ]
	}`

	t.Run("should normalise hits and drop empty text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/xrpc/app.bsky.feed.searchPosts", r.URL.Path)
			assert.Equal(t, "atproto", r.URL.Query().Get("q"))
			fmt.Fprint(w, searchFixture)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		results, err := client.SearchPosts(context.Background(), "atproto", 5)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "https://bsky.app/profile/did:plc:one/post/3k1", results[0].URL)
		assert.Equal(t, "one.bsky.social", results[0].Handle)
		assert.Equal(t, "atproto federation explained", results[0].Text)
		assert.Equal(t, "https://bsky.app/profile/did:plc:three/post/3k3", results[1].URL)
	})

	t.Run("should clamp the limit to the API maximum", func(t *testing.T) {
		var gotLimit string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			fmt.Fprint(w, `{"posts": []}`)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.SearchPosts(context.Background(), "q", 50)
		require.NoError(t, err)
		assert.Equal(t, "10", gotLimit)
	})

	t.Run("should default a missing limit", func(t *testing.T) {
		var gotLimit string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			fmt.Fprint(w, `{"posts": []}`)
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.SearchPosts(context.Background(), "q", 0)
		require.NoError(t, err)
		assert.Equal(t, "5", gotLimit)
	})
}
