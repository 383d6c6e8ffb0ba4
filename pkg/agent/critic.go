package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Critic is the critique gate. A fail verdict is a guided retry, not an
// error; the error return is for transport failures only.
type Critic interface {
	Review(ctx context.Context, candidate Candidate, postText string) (Verdict, error)
}

// citationMarker matches the [N] markers bullets must carry.
var citationMarker = regexp.MustCompile(`\[\d+\]`)

// verdictSchema is the strict output contract for the critique call.
var verdictSchema = StructuredSchema{
	Name: "critique",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"verdict": map[string]interface{}{
				"type": "string",
				"enum": []string{"pass", "fail"},
			},
			"reason": map[string]interface{}{
				"type": "string",
			},
		},
		"required":             []string{"verdict", "reason"},
		"additionalProperties": false,
	},
}

// LLMCritic gates candidates against the fixed quality criteria. The
// structural criteria (bullet count, citation markers) are checked
// locally so their verdicts are deterministic; the qualitative ones
// (background vs summary, specificity) go to the reasoning backend as
// a strict structured-output call.
type LLMCritic struct {
	chat ChatService
}

// NewLLMCritic creates the critique gate.
func NewLLMCritic(chat ChatService) *LLMCritic {
	return &LLMCritic{chat: chat}
}

// Review evaluates a candidate against the source post text.
func (c *LLMCritic) Review(ctx context.Context, candidate Candidate, postText string) (Verdict, error) {
	if n := len(candidate.Bullets); n < 3 || n > 5 {
		return Verdict{
			Outcome: OutcomeFail,
			Reason:  fmt.Sprintf("expected 3 to 5 bullets, got %d", n),
		}, nil
	}
	for i, bullet := range candidate.Bullets {
		if !citationMarker.MatchString(bullet) {
			return Verdict{
				Outcome: OutcomeFail,
				Reason:  fmt.Sprintf("bullet %d has no [N] citation", i+1),
			}, nil
		}
	}

	numbered := make([]string, 0, len(candidate.Bullets))
	for i, bullet := range candidate.Bullets {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, bullet))
	}
	user := fmt.Sprintf("POST:\n%s\n\nBULLETS:\n%s", postText, strings.Join(numbered, "\n"))

	var verdict Verdict
	if err := c.chat.ChatStructured(ctx, critiquePrompt, user, verdictSchema, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("critique call failed: %w", err)
	}
	if verdict.Outcome != OutcomePass && verdict.Outcome != OutcomeFail {
		return Verdict{}, fmt.Errorf("critique returned unknown verdict %q", verdict.Outcome)
	}
	return verdict, nil
}
