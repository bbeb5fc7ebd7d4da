package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// SnapshotRepo handles the `game_states` table: one row per accepted
// action, holding the fully serialized GameState and its content checksum.
// Grounded on the teacher's PhaseRepo (internal/repository/postgres/phase_repo.go)
// CreatePhase/CurrentPhase/ResolvePhase shape, collapsed to a single
// append-only snapshot sequence since Secret AGI has no separate
// before/after-state distinction per phase.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo creates a SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save inserts a new snapshot row for (game_id, turn_number).
func (r *SnapshotRepo) Save(ctx context.Context, snap model.StateSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_states (id, game_id, turn_number, state_blob, checksum)
		 VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.GameID, snap.TurnNumber, []byte(snap.StateBlob), snap.Checksum,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the highest-turn-number snapshot for a game, or nil if none exists.
func (r *SnapshotRepo) Latest(ctx context.Context, gameID string) (*model.StateSnapshot, error) {
	return r.scanOne(ctx,
		`SELECT id, game_id, turn_number, state_blob, checksum, created_at
		 FROM game_states WHERE game_id = $1 ORDER BY turn_number DESC LIMIT 1`, gameID)
}

// AtTurn returns the snapshot at exactly the given turn number, for
// replay/branch-from-history (spec.md §4.3 "load_game at a prior turn").
func (r *SnapshotRepo) AtTurn(ctx context.Context, gameID string, turn int) (*model.StateSnapshot, error) {
	return r.scanOne(ctx,
		`SELECT id, game_id, turn_number, state_blob, checksum, created_at
		 FROM game_states WHERE game_id = $1 AND turn_number = $2`, gameID, turn)
}

func (r *SnapshotRepo) scanOne(ctx context.Context, query string, args ...any) (*model.StateSnapshot, error) {
	var s model.StateSnapshot
	var blob []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.GameID, &s.TurnNumber, &blob, &s.Checksum, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.StateBlob = blob
	return &s, nil
}
