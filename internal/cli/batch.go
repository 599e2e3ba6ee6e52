package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"medrag/internal/adapter/fs"
	"medrag/internal/adapter/httpapi"
	"medrag/internal/domain"
)

var (
	batchPatterns []string
	batchExcludes []string
	batchOutput   string
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Answer every question in a directory of question files",
	Long: `Answer questions read from files under a directory (one question per line,
'#' starts a comment) and write one JSON object per question.

Examples:
  medrag batch questions/
  medrag batch eval/ --pattern "**/*.q" -o answers.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringSliceVar(&batchPatterns, "pattern", []string{fs.DefaultPattern}, "glob for question files (repeatable)")
	batchCmd.Flags().StringSliceVar(&batchExcludes, "exclude", nil, "glob to skip (repeatable)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write JSON Lines here instead of stdout")
}

// batchRecord is one line of batch output.
type batchRecord struct {
	File     string                 `json:"file"`
	Question string                 `json:"question"`
	Result   *domain.PipelineResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

type batchQuestion struct {
	file     string
	question string
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := GetRootDir()
	if len(args) == 1 {
		root = args[0]
	}

	files, err := fs.NewQuestionWalker(batchPatterns, batchExcludes).Walk(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	var questions []batchQuestion
	for _, f := range files {
		qs, err := fs.ReadQuestions(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f, err)
		}
		for _, q := range qs {
			questions = append(questions, batchQuestion{file: f, question: q})
		}
	}
	if len(questions) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No questions found under %s.\n", root)
		return nil
	}

	a, err := buildApp(GetConfig(), log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	bar := progressbar.NewOptions(len(questions),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Answering[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	failed, err := answerAll(cmd.Context(), a.pipeline, questions, out, func() { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Answered %d questions from %d files (%d failed).\n",
		len(questions)-failed, len(files), failed)
	return nil
}

// answerAll runs each question through the pipeline in order and writes a
// JSON line per question. A failed question is recorded, not fatal.
func answerAll(
	ctx context.Context,
	answerer httpapi.Answerer,
	questions []batchQuestion,
	w io.Writer,
	progress func(),
) (int, error) {
	enc := json.NewEncoder(w)
	failed := 0
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		rec := batchRecord{File: q.file, Question: q.question}
		result, err := answerer.Process(ctx, q.question, nil)
		if err != nil {
			failed++
			rec.Error = err.Error()
			if log != nil {
				log.Warn("batch question failed", "file", q.file, "error", err.Error())
			}
		} else {
			rec.Result = &result
		}

		if err := enc.Encode(rec); err != nil {
			return failed, fmt.Errorf("failed to write result: %w", err)
		}
		if progress != nil {
			progress()
		}
	}
	return failed, nil
}
