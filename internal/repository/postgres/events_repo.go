package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// EventRepo handles the `events` table: the ordered, structured log of
// game-significant occurrences. Grounded on the teacher's MessageRepo
// (internal/repository/postgres/message_repo.go) batch-insert-then-list
// shape.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Append inserts every event produced by one accepted action.
func (r *EventRepo) Append(ctx context.Context, gameID string, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (id, game_id, turn_number, type, actor_id, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("prepare insert event: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, gameID, e.TurnNumber, string(e.Type), nullStr(e.ActorID), payload); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// ListSince returns every event for a game at or after sinceTurn, in order.
func (r *EventRepo) ListSince(ctx context.Context, gameID string, sinceTurn int) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, actor_id, payload, turn_number FROM events
		 WHERE game_id = $1 AND turn_number >= $2 ORDER BY turn_number, created_at`,
		gameID, sinceTurn,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var eventType string
		var actorID sql.NullString
		var payload []byte
		if err := rows.Scan(&e.ID, &eventType, &actorID, &payload, &e.TurnNumber); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = model.EventType(eventType)
		e.ActorID = actorID.String
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal event payload: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
