package llm

import (
	"context"

	"medrag/internal/domain"
	"medrag/internal/port"
)

type chatRequest struct {
	Message     string              `json:"message"`
	Model       string              `json:"model"`
	Preamble    string              `json:"preamble,omitempty"`
	Temperature float64             `json:"temperature"`
	Documents   []port.ChatDocument `json:"documents,omitempty"`
}

type chatResponse struct {
	Text      string         `json:"text"`
	Citations []chatCitation `json:"citations"`
}

type chatCitation struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Text        string   `json:"text"`
	DocumentIDs []string `json:"document_ids"`
}

// Chat implements port.ChatBackend against POST /v1/chat.
func (c *Client) Chat(ctx context.Context, req port.ChatRequest) (port.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	var resp chatResponse
	err := c.do(ctx, "/v1/chat", chatRequest{
		Message:     req.Message,
		Model:       model,
		Preamble:    req.Preamble,
		Temperature: req.Temperature,
		Documents:   req.Documents,
	}, &resp)
	if err != nil {
		return port.ChatResponse{}, err
	}

	out := port.ChatResponse{Text: resp.Text}
	if resp.Citations != nil {
		out.Citations = make([]domain.RawCitation, 0, len(resp.Citations))
		for _, cite := range resp.Citations {
			out.Citations = append(out.Citations, domain.RawCitation{
				Start:       cite.Start,
				End:         cite.End,
				DocumentIDs: cite.DocumentIDs,
			})
		}
	}

	c.log.Debug("chat complete", "model", model, "documents", len(req.Documents), "citations", len(out.Citations))
	return out, nil
}
