// Package repository defines the storage-agnostic interfaces the Event
// Store is built from (spec.md §4.4): games, snapshots, actions, events,
// chat, players, and agent metrics. Concrete implementations live in
// internal/repository/postgres (the authoritative store) and
// internal/repository/rediscache (the non-authoritative fast-path cache),
// mirroring the split the teacher keeps between its postgres repos and its
// redis GameCache (internal/repository/interfaces.go).
package repository

import (
	"context"
	"encoding/json"

	"github.com/secretagi/engine/internal/model"
)

// GameRepository persists the `games` table: one row per game, its
// configuration, current turn pointer, status, and final outcome.
type GameRepository interface {
	Create(ctx context.Context, row model.GameRow) error
	Get(ctx context.Context, gameID string) (*model.GameRow, error)
	UpdateProgress(ctx context.Context, gameID string, currentTurn int, status model.GameStatus) error
	Finish(ctx context.Context, gameID string, outcome model.FinalOutcome) error
	ListActive(ctx context.Context) ([]model.GameRow, error)
}

// PlayerRepository persists the `players` table: seat assignment and
// optional agent metadata for each seat in a game.
type PlayerRepository interface {
	InsertSeats(ctx context.Context, gameID string, players []model.Player) error
	ListSeats(ctx context.Context, gameID string) ([]model.Player, error)
}

// SnapshotRepository persists the `game_states` table: one row per
// accepted action, holding the full serialized GameState and its checksum.
type SnapshotRepository interface {
	Save(ctx context.Context, snap model.StateSnapshot) error
	Latest(ctx context.Context, gameID string) (*model.StateSnapshot, error)
	AtTurn(ctx context.Context, gameID string, turn int) (*model.StateSnapshot, error)
}

// ActionRepository persists the `actions` audit table: every submitted
// action, valid or not, with its processing outcome.
type ActionRepository interface {
	Record(ctx context.Context, rec model.ActionRecord) error
	MarkResult(ctx context.Context, actionID string, validity model.Validity, errCode model.ErrorCode, errMsg string, processingNanos int64) error
	// MarkRecovered flags an action as forced to invalid by the Recovery
	// Service rather than by normal Action Processor rejection (spec.md
	// §4.6 recover()'s "recovery marker").
	MarkRecovered(ctx context.Context, actionID string) error
	ListPending(ctx context.Context, gameID string) ([]model.ActionRecord, error)
	ListByGame(ctx context.Context, gameID string) ([]model.ActionRecord, error)
}

// EventRepository persists the `events` table: the ordered, structured
// log of game-significant occurrences an accepted action produced.
type EventRepository interface {
	Append(ctx context.Context, gameID string, events []model.Event) error
	ListSince(ctx context.Context, gameID string, sinceTurn int) ([]model.Event, error)
}

// ChatRepository persists the `chat_messages` table.
type ChatRepository interface {
	Append(ctx context.Context, msg model.ChatMessage) error
	ListByGame(ctx context.Context, gameID string) ([]model.ChatMessage, error)
}

// MetricsRepository persists the `agent_metrics` table: optional, external
// telemetry attached to an actor's turn. The core never reads these values
// back into gameplay decisions; they are write-mostly observability data.
type MetricsRepository interface {
	Record(ctx context.Context, m model.AgentMetric) error
}

// StateCache is the non-authoritative, fast-path mirror of the current
// GameState kept in Redis. It is always safe to discard and rebuild from
// Postgres; the Recovery Service never trusts it (spec.md §4.4, §4.6).
type StateCache interface {
	SetCurrent(ctx context.Context, gameID string, turn int, state json.RawMessage) error
	GetCurrent(ctx context.Context, gameID string) (turn int, state json.RawMessage, ok bool, err error)
	Invalidate(ctx context.Context, gameID string) error
}
