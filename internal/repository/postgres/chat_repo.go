package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// ChatRepo handles the `chat_messages` table: the in-game chat transcript,
// grounded on the teacher's MessageRepo (internal/repository/postgres/message_repo.go)
// insert/list-by-game shape, narrowed from sender/recipient private messages
// to a single public-to-the-room channel since Secret AGI has no whisper
// mechanic.
type ChatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a ChatRepo.
func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Append records one chat message.
func (r *ChatRepo) Append(ctx context.Context, msg model.ChatMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, game_id, turn_number, speaker_id, message, phase)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.GameID, msg.TurnNumber, msg.SpeakerID, msg.Message, string(msg.Phase),
	)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ListByGame returns the full chat transcript for a game, in turn order.
func (r *ChatRepo) ListByGame(ctx context.Context, gameID string) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn_number, speaker_id, message, phase, created_at
		 FROM chat_messages WHERE game_id = $1 ORDER BY turn_number, created_at`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var phase string
		if err := rows.Scan(&m.ID, &m.GameID, &m.TurnNumber, &m.SpeakerID, &m.Message, &phase, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Phase = model.Phase(phase)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
