package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/skylens/pkg/bluesky"
	"github.com/harper/skylens/pkg/toolexecutor"
)

func newRegisteredExecutor(t *testing.T, posts PostService) *toolexecutor.ToolExecutor {
	t.Helper()
	executor := toolexecutor.New()
	require.NoError(t, RegisterTools(executor, posts))
	return executor
}

func TestRegisterTools(t *testing.T) {
	t.Run("should register the full capability set", func(t *testing.T) {
		executor := newRegisteredExecutor(t, &fakePosts{})
		assert.ElementsMatch(t,
			[]string{ToolSearchBluesky, ToolFetchPost, ToolFinish},
			executor.ListTools(),
		)
	})

	t.Run("should default the search limit", func(t *testing.T) {
		posts := &fakePosts{results: []bluesky.SearchResult{
			{URL: "https://bsky.app/profile/x/post/1", Handle: "x", Text: "hit"},
		}}
		executor := newRegisteredExecutor(t, posts)

		result := executor.Execute(context.Background(), ToolSearchBluesky, map[string]interface{}{"query": "atproto"})
		require.True(t, result.Success, result.Error)

		var hits []bluesky.SearchResult
		require.NoError(t, json.Unmarshal([]byte(result.Output), &hits))
		assert.Len(t, hits, 1)
		assert.Equal(t, []string{"atproto"}, posts.searchQueries)
	})

	t.Run("should reject an out-of-range search limit", func(t *testing.T) {
		executor := newRegisteredExecutor(t, &fakePosts{})
		result := executor.Execute(context.Background(), ToolSearchBluesky, map[string]interface{}{
			"query": "atproto",
			"limit": float64(11),
		})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid arguments")
	})

	t.Run("should fetch a post and return url plus text", func(t *testing.T) {
		posts := &fakePosts{post: testPost()}
		executor := newRegisteredExecutor(t, posts)

		result := executor.Execute(context.Background(), ToolFetchPost, map[string]interface{}{
			"url": testPostURL,
		})
		require.True(t, result.Success, result.Error)

		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(result.Output), &payload))
		assert.Equal(t, testPostURL, payload["url"])
		assert.Equal(t, testPost().Text, payload["text"])
	})

	t.Run("should never execute finish through the registry", func(t *testing.T) {
		executor := newRegisteredExecutor(t, &fakePosts{})
		result := executor.Execute(context.Background(), ToolFinish, goodFinishArgs())
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "handled by the run loop")
	})
}

func TestSpecs(t *testing.T) {
	t.Run("should render capabilities in a fixed order", func(t *testing.T) {
		executor := newRegisteredExecutor(t, &fakePosts{})
		specs, err := Specs(executor)
		require.NoError(t, err)

		require.Len(t, specs, 3)
		assert.Equal(t, ToolSearchBluesky, specs[0].Name)
		assert.Equal(t, ToolFetchPost, specs[1].Name)
		assert.Equal(t, ToolFinish, specs[2].Name)

		finish := specs[2].Schema
		props := finish["properties"].(map[string]interface{})
		assert.Contains(t, props, "bullets")
		assert.Contains(t, props, "sources")
	})

	t.Run("should fail when a capability is missing", func(t *testing.T) {
		_, err := Specs(toolexecutor.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tool not registered")
	})
}

func TestParseCandidate(t *testing.T) {
	t.Run("should decode well-formed arguments", func(t *testing.T) {
		candidate, err := ParseCandidate(goodFinishArgs())
		require.NoError(t, err)
		assert.Len(t, candidate.Bullets, 3)
		require.Len(t, candidate.Sources, 2)
		assert.Equal(t, 2, candidate.Sources[1].ID)
	})

	t.Run("should reject empty bullet lists", func(t *testing.T) {
		_, err := ParseCandidate(map[string]interface{}{
			"bullets": []interface{}{},
			"sources": []interface{}{},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one bullet")
	})

	t.Run("should reject blank bullets", func(t *testing.T) {
		args := goodFinishArgs()
		args["bullets"] = []interface{}{"fine [1]", ""}
		_, err := ParseCandidate(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bullet 2 is empty")
	})

	t.Run("should reject non-positive source ids", func(t *testing.T) {
		args := goodFinishArgs()
		args["sources"] = []interface{}{
			map[string]interface{}{"id": float64(0), "url": "https://bsky.app/profile/a/post/1"},
		}
		_, err := ParseCandidate(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive integer")
	})

	t.Run("should reject duplicate source ids", func(t *testing.T) {
		args := goodFinishArgs()
		args["sources"] = []interface{}{
			map[string]interface{}{"id": float64(1), "url": "https://bsky.app/profile/a/post/1"},
			map[string]interface{}{"id": float64(1), "url": "https://bsky.app/profile/b/post/2"},
		}
		_, err := ParseCandidate(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate source id 1")
	})

	t.Run("should reject undecodable argument shapes", func(t *testing.T) {
		_, err := ParseCandidate(map[string]interface{}{"bullets": "not an array"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid finish arguments")
	})
}
