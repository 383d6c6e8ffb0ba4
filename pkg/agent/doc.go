// Package agent drives the LLM-directed loop that explains the
// background of a Bluesky post.
//
// Invariants:
// - The conversation is append-only within a run and owned by it.
// - Every tool call the backend issues receives exactly one reply,
//   including a rejected finish.
// - At most one finish proposal is awaiting critique at a time.
// - A run terminates in ACCEPTED (critique passed) or with a distinct
//   error: ErrEmptyPost, ErrNoToolCalls, or ErrExhausted.
//
// Usage:
//
//	chat := agent.NewOpenAIService(key, base, model)
//	runner, _ := agent.NewRunner(agent.Config{
//		Chat:   chat,
//		Critic: agent.NewLLMCritic(chat),
//		Posts:  bluesky.NewClient(""),
//		Logger: logger,
//	})
//	explanation, err := runner.Explain(ctx, postURL)
package agent
