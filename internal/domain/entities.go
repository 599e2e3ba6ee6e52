package domain

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chunk is a retrieved passage. ID is only unique within one retrieval call.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// RawCitation is a citation span as reported by the model. Start and End are
// character offsets into the answer text.
type RawCitation struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	DocumentIDs []string `json:"document_ids"`
}

type Citation struct {
	SpanText    string   `json:"text"`
	DocumentIDs []string `json:"document_ids"`
}

// Outcome names the terminal state a pipeline call ended in.
type Outcome string

const (
	OutcomeGreeting    Outcome = "greeting"
	OutcomeNoResults   Outcome = "no_results"
	OutcomeNoSelection Outcome = "no_selection"
	OutcomeAnswered    Outcome = "answered"
)

type PipelineResult struct {
	Query     string     `json:"query"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Outcome   Outcome    `json:"outcome"`
}
