package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/skylens/pkg/bluesky"
	"github.com/harper/skylens/pkg/toolexecutor"
)

// The capability set is closed. Names are declared once here; the
// registry rejects anything else at registration time and the executor
// answers unknown backend-issued names with a structured error.
const (
	ToolSearchBluesky = "search_bluesky"
	ToolFetchPost     = "fetch_post"
	ToolFinish        = "finish"
)

// PostService is the slice of the Bluesky AppView the tools need.
// *bluesky.Client satisfies it.
type PostService interface {
	FetchPost(ctx context.Context, url string) (*bluesky.Post, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]bluesky.SearchResult, error)
}

// RegisterTools registers the capability set on an executor. finish is
// registered for its argument schema only: the run loop intercepts it
// before dispatch, so its handler is unreachable in practice.
func RegisterTools(executor *toolexecutor.ToolExecutor, posts PostService) error {
	one, ten := 1, 10

	defs := []toolexecutor.ToolDefinition{
		{
			Name:        ToolSearchBluesky,
			Description: "Search Bluesky for posts about a topic or entity.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "query", Type: "string", Description: "Search query", Required: true},
				{Name: "limit", Type: "integer", Description: "Max results (1-10)", Minimum: &one, Maximum: &ten},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (string, error) {
				query, _ := params["query"].(string)
				limit := 5
				if raw, ok := params["limit"].(float64); ok {
					limit = int(raw)
				}
				results, err := posts.SearchPosts(ctx, query, limit)
				if err != nil {
					return "", err
				}
				payload, err := json.Marshal(results)
				if err != nil {
					return "", err
				}
				return string(payload), nil
			},
		},
		{
			Name:        ToolFetchPost,
			Description: "Fetch the text of a Bluesky post by its bsky.app URL.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "url", Type: "string", Description: "bsky.app post URL", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (string, error) {
				url, _ := params["url"].(string)
				post, err := posts.FetchPost(ctx, url)
				if err != nil {
					return "", err
				}
				payload, err := json.Marshal(map[string]string{"url": url, "text": post.Text})
				if err != nil {
					return "", err
				}
				return string(payload), nil
			},
		},
		{
			Name:        ToolFinish,
			Description: "Return the final explanation bullets once enough context has been gathered.",
			Parameters: []toolexecutor.ToolParameter{
				{
					Name:        "bullets",
					Type:        "array",
					Description: "3-5 explanation bullets, each with at least one [N] citation.",
					Required:    true,
					Items:       map[string]interface{}{"type": "string"},
				},
				{
					Name:        "sources",
					Type:        "array",
					Description: "Sources cited in bullets.",
					Required:    true,
					Items: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"id":  map[string]interface{}{"type": "integer"},
							"url": map[string]interface{}{"type": "string"},
						},
						"required":             []string{"id", "url"},
						"additionalProperties": false,
					},
				},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (string, error) {
				return "", fmt.Errorf("finish is handled by the run loop, not the executor")
			},
		},
	}

	for _, def := range defs {
		if err := executor.RegisterTool(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	return nil
}

// Specs renders the capability schemas in the fixed order they are
// exposed to the reasoning backend.
func Specs(executor *toolexecutor.ToolExecutor) ([]ToolSpec, error) {
	names := []string{ToolSearchBluesky, ToolFetchPost, ToolFinish}
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		def := executor.GetTool(name)
		if def == nil {
			return nil, fmt.Errorf("tool not registered: %s", name)
		}
		specs = append(specs, ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Schema:      toolexecutor.SchemaMap(*def),
		})
	}
	return specs, nil
}

// ParseCandidate decodes and validates finish arguments. Source ids
// must be positive and unique within the candidate; whether they match
// the [N] markers in bullet text is left to the critique gate's
// criteria.
func ParseCandidate(args map[string]interface{}) (Candidate, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Candidate{}, fmt.Errorf("invalid finish arguments: %w", err)
	}

	var candidate Candidate
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return Candidate{}, fmt.Errorf("invalid finish arguments: %w", err)
	}

	if len(candidate.Bullets) == 0 {
		return Candidate{}, fmt.Errorf("finish requires at least one bullet")
	}
	for i, bullet := range candidate.Bullets {
		if bullet == "" {
			return Candidate{}, fmt.Errorf("bullet %d is empty", i+1)
		}
	}

	seen := map[int]bool{}
	for _, src := range candidate.Sources {
		if src.ID <= 0 {
			return Candidate{}, fmt.Errorf("source id %d must be a positive integer", src.ID)
		}
		if seen[src.ID] {
			return Candidate{}, fmt.Errorf("duplicate source id %d", src.ID)
		}
		seen[src.ID] = true
	}

	return candidate, nil
}
