package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acaiflow/orderboard/internal/chat"
)

// turnMessage is the jsonb payload stored per row in n8n_chat_histories by
// the upstream chat automation.
type turnMessage struct {
	Type    string `json:"type"` // "human" or "ai"
	Content string `json:"content"`
}

// ListTurnsSince returns all conversational turns with a row id greater than
// afterID, in insertion order, along with the highest row id seen. The row id
// doubles as the turn sequence: the table's native ordering is the arrival
// order within each session. Rows with a malformed message payload are
// skipped, not failed — the feed is best-effort conversational data.
func (s *Store) ListTurnsSince(ctx context.Context, afterID int64) ([]chat.Turn, int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, message, created_at
		FROM n8n_chat_histories
		WHERE id > $1
		ORDER BY id ASC`,
		afterID,
	)
	if err != nil {
		return nil, afterID, fmt.Errorf("query chat histories: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows, afterID)
}

// ListSessionTurns returns the full turn history for the given sessions, in
// insertion order. Used to re-extract a session whenever any of its turns is
// new: extraction always runs over the whole conversation.
func (s *Store) ListSessionTurns(ctx context.Context, sessionIDs []string) ([]chat.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, message, created_at
		FROM n8n_chat_histories
		WHERE session_id = ANY($1)
		ORDER BY id ASC`,
		sessionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query session turns: %w", err)
	}
	defer rows.Close()

	turns, _, err := scanTurns(rows, 0)
	return turns, err
}

type turnRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTurns(rows turnRows, maxID int64) ([]chat.Turn, int64, error) {
	var turns []chat.Turn
	for rows.Next() {
		var (
			id        int64
			sessionID string
			payload   []byte
			createdAt *time.Time
		)
		if err := rows.Scan(&id, &sessionID, &payload, &createdAt); err != nil {
			return nil, maxID, fmt.Errorf("scan turn: %w", err)
		}
		if id > maxID {
			maxID = id
		}

		var msg turnMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type != chat.RoleHuman && msg.Type != chat.RoleAI {
			continue
		}

		var ts time.Time
		if createdAt != nil {
			ts = *createdAt
		}
		turns = append(turns, chat.Turn{
			SessionID: sessionID,
			Role:      msg.Type,
			Content:   msg.Content,
			Sequence:  id,
			Timestamp: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, maxID, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, maxID, nil
}
