package evals

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/skylens/pkg/agent"
)

// judgePrompt scores agent bullets against a reference gold summary.
const judgePrompt = `You are evaluating a Bluesky post explainer agent.

Given:
- POST TEXT: the original Bluesky post
- GOLD SUMMARY: a reference description of what the post is about / what context is needed
- AGENT BULLETS: the agent's explanation bullets with citations

Score the agent bullets from 0-10 and give a verdict:
PASS (score >= 6) if:
- Bullets collectively cover the key background context indicated by the gold summary
- Bullets explain WHY concepts matter, not just what they are
- Citations are present

FAIL (score < 6) if:
- Bullets miss the main point of the gold summary
- Bullets merely summarize the post instead of explaining background
- No citations

Be strict. The agent should earn its pass.`

// judgeSchema is the strict output contract for the judge call.
var judgeSchema = agent.StructuredSchema{
	Name: "eval_verdict",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"verdict": map[string]interface{}{
				"type": "string",
				"enum": []string{"pass", "fail"},
			},
			"score":  map[string]interface{}{"type": "integer"},
			"reason": map[string]interface{}{"type": "string"},
		},
		"required":             []string{"verdict", "score", "reason"},
		"additionalProperties": false,
	},
}

// JudgeVerdict is one scored judgement.
type JudgeVerdict struct {
	Verdict string `json:"verdict"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

// Judge scores a sample's bullets against its gold summary.
type Judge interface {
	Judge(ctx context.Context, postText, goldSummary string, bullets []string) (JudgeVerdict, error)
}

// LLMJudge implements Judge with a structured reasoning-backend call.
type LLMJudge struct {
	chat agent.ChatService
}

// NewLLMJudge creates an LLM-backed judge.
func NewLLMJudge(chat agent.ChatService) *LLMJudge {
	return &LLMJudge{chat: chat}
}

// Judge compares bullets to the gold summary and returns the verdict.
func (j *LLMJudge) Judge(ctx context.Context, postText, goldSummary string, bullets []string) (JudgeVerdict, error) {
	numbered := make([]string, 0, len(bullets))
	for i, b := range bullets {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, b))
	}
	user := fmt.Sprintf(
		"POST TEXT:\n%s\n\nGOLD SUMMARY:\n%s\n\nAGENT BULLETS:\n%s",
		postText, goldSummary, strings.Join(numbered, "\n"),
	)

	var verdict JudgeVerdict
	if err := j.chat.ChatStructured(ctx, judgePrompt, user, judgeSchema, &verdict); err != nil {
		return JudgeVerdict{}, fmt.Errorf("judge call failed: %w", err)
	}
	return verdict, nil
}
