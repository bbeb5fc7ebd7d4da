package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/secretagi/engine/internal/model"
)

// ActionRepo handles the `actions` audit table: every submitted action,
// valid or not, recorded before processing and updated with its outcome —
// the pending-row-then-update pattern the Recovery Service relies on to
// find interrupted actions (spec.md §4.6). Grounded on the teacher's
// PhaseRepo.SaveOrders/OrdersByPhase batch-insert-then-query shape.
type ActionRepo struct {
	db *sql.DB
}

// NewActionRepo creates an ActionRepo.
func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

// Record inserts the pending audit row for a just-submitted action.
func (r *ActionRepo) Record(ctx context.Context, rec model.ActionRecord) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO actions (id, game_id, turn_number, actor_id, kind, params, validity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.GameID, rec.TurnNumber, rec.ActorID, string(rec.Kind), params, string(rec.Validity),
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// MarkResult updates a recorded action with its processing outcome.
func (r *ActionRepo) MarkResult(ctx context.Context, actionID string, validity model.Validity, errCode model.ErrorCode, errMsg string, processingNanos int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE actions SET validity = $1, error_code = $2, error_message = $3, processing_nanos = $4 WHERE id = $5`,
		string(validity), nullStr(string(errCode)), nullStr(errMsg), processingNanos, actionID,
	)
	if err != nil {
		return fmt.Errorf("mark action result: %w", err)
	}
	return nil
}

// MarkRecovered flags an action invalid and sets its recovery marker, for
// actions the Recovery Service forces closed rather than the Action
// Processor rejecting normally.
func (r *ActionRepo) MarkRecovered(ctx context.Context, actionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE actions SET validity = $1, error_code = $2, error_message = $3, recovery_marked = true WHERE id = $4`,
		string(model.ValidityInvalid), string(model.ErrInternal), "interrupted action marked failed during recovery", actionID,
	)
	if err != nil {
		return fmt.Errorf("mark action recovered: %w", err)
	}
	return nil
}

// ListPending returns actions whose validity is still "pending" — the
// Recovery Service's starting point for find_interrupted (spec.md §4.6).
func (r *ActionRepo) ListPending(ctx context.Context, gameID string) ([]model.ActionRecord, error) {
	return r.query(ctx,
		`SELECT id, game_id, turn_number, actor_id, kind, params, validity, error_code, error_message, processing_nanos, recovery_marked, created_at
		 FROM actions WHERE game_id = $1 AND validity = $2 ORDER BY turn_number`,
		gameID, string(model.ValidityPending))
}

// ListByGame returns the full action history for a game, in turn order.
func (r *ActionRepo) ListByGame(ctx context.Context, gameID string) ([]model.ActionRecord, error) {
	return r.query(ctx,
		`SELECT id, game_id, turn_number, actor_id, kind, params, validity, error_code, error_message, processing_nanos, recovery_marked, created_at
		 FROM actions WHERE game_id = $1 ORDER BY turn_number`, gameID)
}

func (r *ActionRepo) query(ctx context.Context, query string, args ...any) ([]model.ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var recs []model.ActionRecord
	for rows.Next() {
		var rec model.ActionRecord
		var kind, validity string
		var params []byte
		var errCode, errMsg sql.NullString
		var processingNanos sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.TurnNumber, &rec.ActorID, &kind, &params,
			&validity, &errCode, &errMsg, &processingNanos, &rec.RecoveryMarked, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		rec.Kind = model.ActionKind(kind)
		rec.Validity = model.Validity(validity)
		rec.ErrorCode = model.ErrorCode(errCode.String)
		rec.ErrorMessage = errMsg.String
		rec.ProcessingTime = time.Duration(processingNanos.Int64)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.Params); err != nil {
				return nil, fmt.Errorf("unmarshal params: %w", err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
