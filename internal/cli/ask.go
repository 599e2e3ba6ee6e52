package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"medrag/internal/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Long: `Answer one medical question and print the answer with its sources.

Examples:
  medrag ask "What is a normal heart rate for a newborn?"
  medrag ask --json "What monitoring is needed for IV potassium?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the raw result as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("question is empty")
	}

	a, err := buildApp(GetConfig(), log)
	if err != nil {
		return err
	}

	var (
		result domain.PipelineResult
		runErr error
	)
	withSpinner(os.Stderr, "Thinking...", func() {
		result, runErr = a.pipeline.Process(cmd.Context(), query, nil)
	})
	if runErr != nil {
		return errors.New(describeError(runErr))
	}

	return renderResult(cmd.OutOrStdout(), result, askJSON)
}
