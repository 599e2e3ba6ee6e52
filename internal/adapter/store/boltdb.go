package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"medrag/internal/domain"
	"medrag/internal/port"
)

var (
	bucketSessions = []byte("sessions")
	bucketMeta     = []byte("session_meta")
	bucketStats    = []byte("stats")
)

// ErrSessionNotFound is returned when a session has no stored turns.
var ErrSessionNotFound = errors.New("session not found")

// BoltStore keeps chat transcripts in a bbolt file. Each session is a nested
// bucket of turns keyed by a big-endian sequence number, so a cursor walks
// them in the order they were appended.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ port.TranscriptStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := &BoltStore{db: db, now: time.Now}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type turnRecord struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
	At      int64       `json:"at"`
}

type sessionMeta struct {
	Turns     int   `json:"turns"`
	UpdatedAt int64 `json:"updated_at"`
}

// AppendTurns adds turns to the end of a session, creating it if needed.
func (s *BoltStore) AppendTurns(sessionID string, turns ...domain.ConversationTurn) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if len(turns) == 0 {
		return nil
	}
	now := s.now()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketSessions).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create session bucket: %w", err)
		}

		for _, turn := range turns {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(turnRecord{Role: turn.Role, Content: turn.Content, At: now.Unix()})
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
		}

		meta, err := getMeta(tx, sessionID)
		if err != nil {
			return err
		}
		meta.Turns += len(turns)
		meta.UpdatedAt = now.Unix()
		return putMeta(tx, sessionID, meta)
	})
}

// LoadTurns returns a session's turns oldest first. An unknown session
// yields an empty history, not an error.
func (s *BoltStore) LoadTurns(sessionID string) ([]domain.ConversationTurn, error) {
	var turns []domain.ConversationTurn
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSessions).Bucket([]byte(sessionID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec turnRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			turns = append(turns, domain.ConversationTurn{Role: rec.Role, Content: rec.Content})
			return nil
		})
	})
	return turns, err
}

// ListSessions returns all sessions, most recently updated first.
func (s *BoltStore) ListSessions() ([]port.SessionInfo, error) {
	var sessions []port.SessionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
			var meta sessionMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			sessions = append(sessions, port.SessionInfo{
				ID:        string(k),
				Turns:     meta.Turns,
				UpdatedAt: time.Unix(meta.UpdatedAt, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (s *BoltStore) DeleteSession(sessionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		if sessions.Bucket([]byte(sessionID)) == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		if err := sessions.DeleteBucket([]byte(sessionID)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete([]byte(sessionID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func getMeta(tx *bbolt.Tx, sessionID string) (sessionMeta, error) {
	var meta sessionMeta
	data := tx.Bucket(bucketMeta).Get([]byte(sessionID))
	if data == nil {
		return meta, nil
	}
	err := json.Unmarshal(data, &meta)
	return meta, err
}

func putMeta(tx *bbolt.Tx, sessionID string, meta sessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put([]byte(sessionID), data)
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
