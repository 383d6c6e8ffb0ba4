// Package cli wires the skylens commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/skylens/internal/config"
	"github.com/harper/skylens/internal/logger"
	"github.com/harper/skylens/pkg/agent"
	"github.com/harper/skylens/pkg/bluesky"
)

const version = "0.1.0"

var logLevel string

// rootCmd explains a single post; `skylens eval` runs the batch harness.
var rootCmd = &cobra.Command{
	Use:   "skylens <bluesky-post-url>",
	Short: "Explain the background context of a Bluesky post",
	Long: `Skylens fetches a Bluesky post and runs an LLM-directed tool loop that
searches related posts until it can produce 3-5 cited explanation bullets
that pass a quality self-check.`,
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := buildRunner()
		if err != nil {
			return err
		}

		explanation, err := runner.Explain(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printExplanation(cmd, explanation)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// buildRunner loads settings and assembles the agent with its
// collaborators.
func buildRunner() (*agent.Runner, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: logLevel, Pretty: true})
	chat := agent.NewOpenAIService(settings.OpenAIAPIKey, settings.OpenAIAPIBase, settings.OpenAIChatModel)

	return agent.NewRunner(agent.Config{
		Chat:   chat,
		Critic: agent.NewLLMCritic(chat),
		Posts:  bluesky.NewClient(settings.BlueskyAppViewBase),
		Logger: log,
	})
}

func printExplanation(cmd *cobra.Command, explanation *agent.Explanation) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Explanation bullets:")
	fmt.Fprintln(out)
	for _, bullet := range explanation.Bullets {
		fmt.Fprintf(out, "- %s\n", bullet)
	}

	if len(explanation.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, src := range explanation.Sources {
			fmt.Fprintf(out, "[%d] %s\n", src.ID, src.URL)
		}
	}
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
