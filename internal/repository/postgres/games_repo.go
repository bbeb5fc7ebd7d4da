package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// GameRepo handles the `games` table: configuration, current turn pointer,
// status, and final outcome. Grounded on the teacher's GameRepo
// (internal/repository/postgres/game_repo.go), narrowed to the columns a
// single aggregate-per-game store needs instead of a lobby/matchmaking one.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game row.
func (r *GameRepo) Create(ctx context.Context, row model.GameRow) error {
	cfg, err := json.Marshal(row.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	meta, err := json.Marshal(row.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO games (id, status, config, current_turn, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.ID, string(row.Status), cfg, row.CurrentTurn, meta,
	)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// Get returns a game row by id, or nil if it doesn't exist.
func (r *GameRepo) Get(ctx context.Context, gameID string) (*model.GameRow, error) {
	var row model.GameRow
	var status string
	var cfg, meta, winners []byte
	var finalTurns sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, status, config, current_turn, winners, final_turns, metadata
		 FROM games WHERE id = $1`, gameID,
	).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt, &status, &cfg, &row.CurrentTurn, &winners, &finalTurns, &meta)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	row.Status = model.GameStatus(status)
	if err := json.Unmarshal(cfg, &row.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &row.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(winners) > 0 {
		var roles []model.Role
		if err := json.Unmarshal(winners, &roles); err != nil {
			return nil, fmt.Errorf("unmarshal winners: %w", err)
		}
		row.FinalOutcome = &model.FinalOutcome{Winners: roles, Turns: int(finalTurns.Int64)}
	}
	return &row, nil
}

// UpdateProgress advances the persisted turn pointer and status.
func (r *GameRepo) UpdateProgress(ctx context.Context, gameID string, currentTurn int, status model.GameStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET current_turn = $1, status = $2, updated_at = now() WHERE id = $3`,
		currentTurn, string(status), gameID,
	)
	if err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}
	return nil
}

// Finish records the final outcome and marks the game completed.
func (r *GameRepo) Finish(ctx context.Context, gameID string, outcome model.FinalOutcome) error {
	winners, err := json.Marshal(outcome.Winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE games SET status = $1, winners = $2, final_turns = $3, updated_at = now() WHERE id = $4`,
		string(model.StatusCompleted), winners, outcome.Turns, gameID,
	)
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	return nil
}

// ListActive returns every game whose status is active.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.GameRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at, status, config, current_turn, metadata
		 FROM games WHERE status = $1 ORDER BY created_at`, string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	var games []model.GameRow
	for rows.Next() {
		var row model.GameRow
		var status string
		var cfg, meta []byte
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt, &status, &cfg, &row.CurrentTurn, &meta); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		row.Status = model.GameStatus(status)
		if err := json.Unmarshal(cfg, &row.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &row.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		games = append(games, row)
	}
	return games, rows.Err()
}
