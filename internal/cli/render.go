package cli

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"medrag/internal/domain"
	"medrag/internal/usecase"
)

//go:embed templates/*.txt
var outputTemplates embed.FS

var answerTemplate = template.Must(
	template.New("answer.txt").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(outputTemplates, "templates/answer.txt"),
)

// renderResult writes a result as text with its sources, or as indented JSON.
func renderResult(w io.Writer, result domain.PipelineResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if err := answerTemplate.Execute(w, result); err != nil {
		return fmt.Errorf("failed to render answer: %w", err)
	}
	return nil
}

// describeError turns a pipeline failure into something a user can act on.
func describeError(err error) string {
	var se *usecase.SynthesisError
	if errors.As(err, &se) {
		if se.IsAuthFailure() {
			return fmt.Sprintf("Error processing your request: %v\nThis may be due to an API authentication issue. Please check your API keys.", err)
		}
		return fmt.Sprintf("Error processing your request: %v", err)
	}
	return err.Error()
}

func capitalizeRole(r domain.Role) string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
