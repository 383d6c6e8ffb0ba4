package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harper/skylens/pkg/toolexecutor"
)

// DefaultMaxIterations bounds the loop. Exhaustion is deterministic
// once this many rejecting cycles occur.
const DefaultMaxIterations = 10

// runState tracks the loop's position in the state machine. ACCEPTED
// and EXHAUSTED are absorbing.
type runState string

const (
	stateAwaitingModel    runState = "awaiting_model"
	stateDispatchingTools runState = "dispatching_tools"
	stateAccepted         runState = "accepted"
	stateExhausted        runState = "exhausted"
)

// Runner owns one run's conversation and drives the tool loop: ask the
// backend for the next capability invocation, execute it, feed the
// result back, and gate finish proposals behind the critique step.
type Runner struct {
	chat          ChatService
	critic        Critic
	executor      *toolexecutor.ToolExecutor
	posts         PostService
	specs         []ToolSpec
	logger        zerolog.Logger
	maxIterations int
}

// Config wires a Runner's collaborators.
type Config struct {
	Chat   ChatService
	Critic Critic
	Posts  PostService
	Logger zerolog.Logger

	// Executor is optional. When nil a fresh executor is created and
	// the capability set registered on it; tests may inject their own.
	Executor *toolexecutor.ToolExecutor

	// MaxIterations defaults to DefaultMaxIterations.
	MaxIterations int
}

// NewRunner validates the wiring and prepares the capability set.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Chat == nil {
		return nil, fmt.Errorf("chat service is required")
	}
	if cfg.Critic == nil {
		return nil, fmt.Errorf("critic is required")
	}
	if cfg.Posts == nil {
		return nil, fmt.Errorf("post service is required")
	}

	executor := cfg.Executor
	if executor == nil {
		executor = toolexecutor.New()
		if err := RegisterTools(executor, cfg.Posts); err != nil {
			return nil, err
		}
	}

	specs, err := Specs(executor)
	if err != nil {
		return nil, err
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Runner{
		chat:          cfg.Chat,
		critic:        cfg.Critic,
		executor:      executor,
		posts:         cfg.Posts,
		specs:         specs,
		logger:        cfg.Logger,
		maxIterations: maxIterations,
	}, nil
}

// Explain fetches the post behind postURL and runs the loop until a
// candidate passes the critique gate or the iteration budget runs out.
func (r *Runner) Explain(ctx context.Context, postURL string) (*Explanation, error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()

	post, err := r.posts.FetchPost(ctx, postURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	if strings.TrimSpace(post.Text) == "" {
		return nil, ErrEmptyPost
	}

	logger.Info().Str("author", post.AuthorHandle).Msg("Post fetched, starting loop")

	messages := []Message{
		SystemTurn(systemPrompt),
		UserTurn(fmt.Sprintf("Explain this Bluesky post:\n\n%s", post.Text)),
	}

	state := stateAwaitingModel
	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		logger.Debug().Int("iteration", iteration).Str("state", string(state)).Msg("Invoking backend")

		reply, err := r.chat.ChatTools(ctx, messages, r.specs)
		if err != nil {
			return nil, err
		}
		messages = append(messages, AssistantTurn(reply.Content, reply.ToolCalls))

		if len(reply.ToolCalls) == 0 {
			logger.Warn().Msg("Backend broke the tool-forcing contract")
			return nil, ErrNoToolCalls
		}

		state = stateDispatchingTools

		var finish *ToolCall
		for i := range reply.ToolCalls {
			if reply.ToolCalls[i].Name == ToolFinish {
				finish = &reply.ToolCalls[i]
				break
			}
		}

		if finish == nil {
			for _, call := range reply.ToolCalls {
				logger.Info().
					Str("tool", call.Name).
					Str("args", truncateArgs(call.Arguments)).
					Msg("Dispatching tool")
				result := r.executor.Execute(ctx, call.Name, call.Arguments)
				messages = append(messages, ToolTurn(call.ID, resultContent(result)))
			}
			state = stateAwaitingModel
			continue
		}

		verdict, err := r.gateFinish(ctx, logger, *finish, post.Text)
		if err != nil {
			// Critique transport failures are fatal, like any other
			// reasoning-backend failure.
			return nil, err
		}
		if verdict.Outcome == OutcomePass {
			state = stateAccepted
			logger.Info().Int("iterations", iteration).Str("state", string(state)).Msg("Explanation accepted")
			candidate, _ := ParseCandidate(finish.Arguments)
			return &Explanation{
				Bullets:  candidate.Bullets,
				Sources:  candidate.Sources,
				PostText: post.Text,
			}, nil
		}

		// Every call in the batch must receive a reply: the rejected
		// finish gets the rejection notice, siblings run for real.
		for _, call := range reply.ToolCalls {
			if call.ID == finish.ID {
				messages = append(messages, ToolTurn(call.ID, rejectionContent(verdict.Reason)))
				continue
			}
			result := r.executor.Execute(ctx, call.Name, call.Arguments)
			messages = append(messages, ToolTurn(call.ID, resultContent(result)))
		}
		messages = append(messages, UserTurn(fmt.Sprintf(retryInstruction, verdict.Reason)))
		state = stateAwaitingModel
	}

	state = stateExhausted
	logger.Warn().Int("iterations", r.maxIterations).Str("state", string(state)).Msg("Iteration budget exhausted")
	return nil, fmt.Errorf("%w (after %d iterations)", ErrExhausted, r.maxIterations)
}

// gateFinish parses and critiques a finish proposal. Malformed
// arguments behave like a rejection so the backend can correct itself;
// only critique transport failures come back as errors.
func (r *Runner) gateFinish(ctx context.Context, logger zerolog.Logger, finish ToolCall, postText string) (Verdict, error) {
	candidate, err := ParseCandidate(finish.Arguments)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejecting malformed finish call")
		return Verdict{Outcome: OutcomeFail, Reason: err.Error()}, nil
	}

	verdict, err := r.critic.Review(ctx, candidate, postText)
	if err != nil {
		logger.Error().Err(err).Msg("Critique call failed")
		return Verdict{}, err
	}

	logger.Info().
		Str("verdict", string(verdict.Outcome)).
		Str("reason", verdict.Reason).
		Msg("Critique verdict")
	return verdict, nil
}

// resultContent serializes a tool result for the conversation. Failures
// become an error object, never a dangling call.
func resultContent(result toolexecutor.ToolResult) string {
	if result.Success {
		return result.Output
	}
	payload, _ := json.Marshal(map[string]string{"error": result.Error})
	return string(payload)
}

// rejectionContent is the reply attached to a rejected finish call.
func rejectionContent(reason string) string {
	payload, _ := json.Marshal(map[string]string{"status": "rejected", "reason": reason})
	return string(payload)
}

// truncateArgs renders call arguments for progress logs.
func truncateArgs(args map[string]interface{}) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return "<unprintable>"
	}
	const max = 120
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
