package port

import (
	"context"

	"medrag/internal/domain"
)

// ChatBackend is a grounded generative chat model.
type ChatBackend interface {
	// Chat answers the message using the supplied documents and returns the
	// answer text with the spans the model attributes to each document.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// ModelName returns the default model used when a request names none.
	ModelName() string
}

// ChatDocument is a passage handed to the model. ID is what citations refer back to.
type ChatDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type ChatRequest struct {
	Message     string
	Documents   []ChatDocument
	Model       string
	Preamble    string
	Temperature float64
}

// ChatResponse carries the answer. Citations may be nil when the model reports none.
type ChatResponse struct {
	Text      string
	Citations []domain.RawCitation
}
