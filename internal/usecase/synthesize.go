package usecase

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"medrag/internal/domain"
	"medrag/internal/platform/logger"
	"medrag/internal/port"
)

// Preamble is the system instruction sent with every chat request.
const Preamble = `You are a knowledgeable and helpful medical assistant.
Use internal chain-of-thought reasoning (without outputting it) to evaluate the user's query along with the provided context documents from medical literature.
IMPORTANT: Pay close attention to document sections and headings. Only use information from sections that are DIRECTLY relevant to the specific question asked. If information appears to be from a different section or topic than what was asked about, DO NOT include it in your answer.
Your final answer should be detailed and written in a formal yet friendly tone with complete sentences.
Provide evidence-based information from authoritative medical sources when available.
Include relevant medical context and explanations in clear terms when appropriate.
If some details are unclear or missing, or if the query requires specific medical expertise beyond what's in the context, directly state what is known without adding disclaimers.
Provide direct medical answers based on the retrieved information without adding cautionary statements or disclaimers about educational purposes.
When responding about procedures, monitoring, or treatments, strictly limit your response to the specific aspects the user asked about.`

const (
	DefaultModel       = "command-r-08-2024"
	DefaultTemperature = 0.3
)

// Synthesizer asks the chat backend for a grounded answer.
type Synthesizer struct {
	backend     port.ChatBackend
	model       string
	temperature float64
	timeout     time.Duration
	log         *logger.Logger
}

func NewSynthesizer(backend port.ChatBackend, model string, temperature float64, timeout time.Duration, log *logger.Logger) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Synthesizer{
		backend:     backend,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		log:         log.With("component", "synthesizer"),
	}
}

// Synthesize sends query, history and chunks to the model. Any backend
// failure, including a timeout, is returned as *SynthesisError.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	query string,
	chunks []domain.Chunk,
	history []domain.ConversationTurn,
) (string, []domain.RawCitation, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	docs := make([]port.ChatDocument, len(chunks))
	for i, c := range chunks {
		docs[i] = port.ChatDocument{ID: c.ID, Title: c.ID, Snippet: c.Text}
	}

	resp, err := s.backend.Chat(ctx, port.ChatRequest{
		Message:     BuildMessage(query, history),
		Documents:   docs,
		Model:       s.model,
		Preamble:    Preamble,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", nil, newSynthesisError(err)
	}
	return resp.Text, resp.Citations, nil
}

// BuildMessage flattens history into "Role: content" lines followed by the
// new query as "User: query". Without history the query is sent as is.
func BuildMessage(query string, history []domain.ConversationTurn) string {
	if len(history) == 0 {
		return query
	}
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(capitalize(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Content)
	}
	b.WriteString("\nUser: ")
	b.WriteString(query)
	return b.String()
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
