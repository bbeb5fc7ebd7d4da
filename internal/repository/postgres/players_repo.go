package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// PlayerRepo handles the `players` table: seat assignment and optional
// external agent metadata for each seat, written once at game creation.
// Grounded on the teacher's UserRepo (internal/repository/postgres/user_repo.go)
// for the upsert-by-identity shape, narrowed to an insert-only seat roster
// since Secret AGI has no account system of its own.
type PlayerRepo struct {
	db *sql.DB
}

// NewPlayerRepo creates a PlayerRepo.
func NewPlayerRepo(db *sql.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// InsertSeats writes the fixed seating roster for a new game.
func (r *PlayerRepo) InsertSeats(ctx context.Context, gameID string, players []model.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO players (game_id, player_id, seat_id, agent_type, agent_config)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare insert seat: %w", err)
	}
	defer stmt.Close()

	for _, p := range players {
		_, err := stmt.ExecContext(ctx, gameID, p.ID, p.SeatID, nullStr(p.AgentType), nullStr(p.AgentConfig))
		if err != nil {
			return fmt.Errorf("insert seat: %w", err)
		}
	}
	return tx.Commit()
}

// ListSeats returns the seating roster for a game, ordered by seat id. Role
// assignment is not stored here — it lives only in the GameState snapshot,
// since it is hidden information the event store must not leak outside the
// Engine Facade's filtered views.
func (r *PlayerRepo) ListSeats(ctx context.Context, gameID string) ([]model.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT player_id, seat_id, agent_type, agent_config FROM players WHERE game_id = $1 ORDER BY seat_id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		var agentType, agentConfig sql.NullString
		if err := rows.Scan(&p.ID, &p.SeatID, &agentType, &agentConfig); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		p.AgentType = agentType.String
		p.AgentConfig = agentConfig.String
		players = append(players, p)
	}
	return players, rows.Err()
}
