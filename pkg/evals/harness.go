// Package evals runs a dataset of post URLs through the explainer and
// scores each result with an LLM judge.
package evals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/skylens/pkg/agent"
)

// Sample is one eval dataset record.
type Sample struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	GoldSummary string `json:"gold_summary"`
}

// Result is the scored outcome of one sample. Verdict is "pass",
// "fail", or "error" when the run itself failed.
type Result struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Verdict     string   `json:"verdict"`
	Score       int      `json:"score"`
	ElapsedS    float64  `json:"elapsed_s,omitempty"`
	JudgeReason string   `json:"judge_reason,omitempty"`
	Bullets     []string `json:"bullets,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ExplainFunc is the core entry point the harness drives per sample.
type ExplainFunc func(ctx context.Context, postURL string) (*agent.Explanation, error)

// Harness batches samples through the explainer and the judge.
type Harness struct {
	Explain ExplainFunc
	Judge   Judge
	Logger  zerolog.Logger
	Out     io.Writer // per-sample progress; defaults to os.Stdout
}

// LoadDataset reads a dataset JSON file.
func LoadDataset(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return samples, nil
}

// Run executes every sample. A failing sample is recorded and the
// batch continues; only harness misconfiguration returns an error.
func (h *Harness) Run(ctx context.Context, samples []Sample) ([]Result, error) {
	if h.Explain == nil {
		return nil, fmt.Errorf("explain function is required")
	}
	if h.Judge == nil {
		return nil, fmt.Errorf("judge is required")
	}
	out := h.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "Running eval on %d samples...\n", len(samples))

	results := make([]Result, 0, len(samples))
	for _, sample := range samples {
		fmt.Fprintf(out, "\n[%s] category=%s\n  url: %s\n", sample.ID, sample.Category, sample.URL)

		start := time.Now()
		explanation, err := h.Explain(ctx, sample.URL)
		if err != nil {
			h.Logger.Warn().Str("sample", sample.ID).Err(err).Msg("Sample run failed")
			fmt.Fprintf(out, "  ERROR: %v\n", err)
			results = append(results, Result{
				ID:       sample.ID,
				Category: sample.Category,
				Verdict:  "error",
				Error:    err.Error(),
			})
			continue
		}
		elapsed := time.Since(start).Seconds()

		verdict, err := h.Judge.Judge(ctx, explanation.PostText, sample.GoldSummary, explanation.Bullets)
		if err != nil {
			h.Logger.Warn().Str("sample", sample.ID).Err(err).Msg("Judge failed")
			fmt.Fprintf(out, "  ERROR: %v\n", err)
			results = append(results, Result{
				ID:       sample.ID,
				Category: sample.Category,
				Verdict:  "error",
				Error:    err.Error(),
			})
			continue
		}

		status := "FAIL"
		if verdict.Verdict == "pass" {
			status = "PASS"
		}
		fmt.Fprintf(out, "  %s (score=%d/10, %.1fs)\n  judge: %s\n  bullets (%d):\n",
			status, verdict.Score, elapsed, verdict.Reason, len(explanation.Bullets))
		for _, b := range explanation.Bullets {
			fmt.Fprintf(out, "    - %s\n", truncate(b, 120))
		}

		results = append(results, Result{
			ID:          sample.ID,
			Category:    sample.Category,
			Verdict:     verdict.Verdict,
			Score:       verdict.Score,
			ElapsedS:    round1(elapsed),
			JudgeReason: verdict.Reason,
			Bullets:     explanation.Bullets,
		})
	}

	return results, nil
}

// Summarize prints the aggregate pass rate and a per-sample table.
func Summarize(w io.Writer, results []Result) {
	passed := 0
	for _, r := range results {
		if r.Verdict == "pass" {
			passed++
		}
	}
	total := len(results)
	rate := 0
	if total > 0 {
		rate = 100 * passed / total
	}

	fmt.Fprintf(w, "\nRESULTS: %d/%d passed (%d%%)\n", passed, total, rate)
	for _, r := range results {
		icon := "x"
		switch r.Verdict {
		case "pass":
			icon = "+"
		case "error":
			icon = "!"
		}
		fmt.Fprintf(w, "  %s [%s] %-20s score=%d/10\n", icon, r.ID, r.Category, r.Score)
	}
}

// WriteResults writes the detailed results JSON file.
func WriteResults(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
