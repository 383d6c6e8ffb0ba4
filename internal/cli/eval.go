package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/skylens/internal/config"
	"github.com/harper/skylens/internal/logger"
	"github.com/harper/skylens/pkg/agent"
	"github.com/harper/skylens/pkg/bluesky"
	"github.com/harper/skylens/pkg/evals"
)

var (
	datasetPath string
	resultsPath string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the eval dataset through the explainer and score it",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}

		log := logger.New(logger.Config{Level: logLevel, Pretty: true})
		chat := agent.NewOpenAIService(settings.OpenAIAPIKey, settings.OpenAIAPIBase, settings.OpenAIChatModel)

		runner, err := agent.NewRunner(agent.Config{
			Chat:   chat,
			Critic: agent.NewLLMCritic(chat),
			Posts:  bluesky.NewClient(settings.BlueskyAppViewBase),
			Logger: log,
		})
		if err != nil {
			return err
		}

		samples, err := evals.LoadDataset(datasetPath)
		if err != nil {
			return err
		}

		harness := &evals.Harness{
			Explain: runner.Explain,
			Judge:   evals.NewLLMJudge(chat),
			Logger:  log,
			Out:     cmd.OutOrStdout(),
		}

		results, err := harness.Run(cmd.Context(), samples)
		if err != nil {
			return err
		}

		evals.Summarize(cmd.OutOrStdout(), results)

		if err := evals.WriteResults(resultsPath, results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nDetailed results written to %s\n", resultsPath)
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&datasetPath, "dataset", "evals/dataset.json", "path to the eval dataset")
	evalCmd.Flags().StringVar(&resultsPath, "out", "evals/results.json", "path for the results JSON file")
	rootCmd.AddCommand(evalCmd)
}
