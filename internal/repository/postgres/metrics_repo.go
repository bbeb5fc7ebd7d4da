package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secretagi/engine/internal/model"
)

// MetricsRepo handles the `agent_metrics` table: write-mostly telemetry an
// external agent orchestrator may attach to a turn. Grounded on the
// teacher's PhaseRepo insert shape, narrowed to a single insert-only method
// since nothing in the core reads these rows back.
type MetricsRepo struct {
	db *sql.DB
}

// NewMetricsRepo creates a MetricsRepo.
func NewMetricsRepo(db *sql.DB) *MetricsRepo {
	return &MetricsRepo{db: db}
}

// Record inserts one telemetry row.
func (r *MetricsRepo) Record(ctx context.Context, m model.AgentMetric) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agent_metrics (id, game_id, actor_id, turn_number, tokens, response_ms, invalid_attempts, state_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.GameID, m.ActorID, m.TurnNumber, nullIntPtr(m.Tokens), nullIntPtr(m.ResponseMs), m.InvalidAttempts, nullIntPtr(m.StateSize),
	)
	if err != nil {
		return fmt.Errorf("record agent metric: %w", err)
	}
	return nil
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
