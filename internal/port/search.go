package port

import "context"

// SearchBackend runs semantic search against a pre-built chunk index.
type SearchBackend interface {
	// Search returns at most topK hits for the query, best first.
	Search(ctx context.Context, indexName, query string, topK int) ([]SearchHit, error)
}

// SearchHit is one backend hit. Content holds at least a "text" field.
type SearchHit struct {
	ID      string
	Content map[string]any
}

// Text returns the hit's "text" content field, or "" when absent.
func (h SearchHit) Text() string {
	if h.Content == nil {
		return ""
	}
	text, _ := h.Content["text"].(string)
	return text
}
