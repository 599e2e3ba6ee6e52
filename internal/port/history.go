package port

import (
	"time"

	"medrag/internal/domain"
)

// TranscriptStore keeps chat transcripts for CLI sessions. The pipeline never
// touches it; callers load a history and pass it in on every call.
type TranscriptStore interface {
	AppendTurns(sessionID string, turns ...domain.ConversationTurn) error

	LoadTurns(sessionID string) ([]domain.ConversationTurn, error)

	ListSessions() ([]SessionInfo, error)

	DeleteSession(sessionID string) error

	Clear() error

	Close() error
}

type SessionInfo struct {
	ID        string
	Turns     int
	UpdatedAt time.Time
}
