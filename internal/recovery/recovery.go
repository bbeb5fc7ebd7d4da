// Package recovery implements the Recovery Service: detecting games an
// interrupted process left mid-action, classifying why, and rolling them
// back to their last consistent snapshot. Grounded on the teacher's
// PhaseService.RecoverActiveGames (internal/service/phase_service.go),
// which performs the analogous "list active games, rehydrate state from
// the last known-good record" sweep on server startup, narrowed here from
// "restore Redis/timers" to "find and repair games an action attempt
// never finished committing."
package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/internal/repository"
)

// FailureClass is the Recovery Service's classification of why a game was
// left interrupted (spec.md §4.6 analyze()).
type FailureClass string

const (
	// FailureIncompleteAction: the newest action record is pending and
	// carries no processing time — the process died before Apply ever ran
	// (or while running it), so nothing downstream of Record was reached.
	FailureIncompleteAction FailureClass = "incomplete_action"
	// FailureTransactionFailure: the newest action record is pending but
	// carries a processing time — Apply ran to completion, so the crash
	// happened during the Transaction Coordinator's persist step.
	FailureTransactionFailure FailureClass = "transaction_failure"
	// FailureAgentTimeout: the newest action record has been pending
	// longer than agentTimeout — whatever external actor or orchestrator
	// was meant to drive the next step never did.
	FailureAgentTimeout FailureClass = "agent_timeout"
)

// agentTimeout is how long a pending action is given before its staleness
// alone is treated as the failure signal, ahead of looking at whether
// Apply ran.
const agentTimeout = 2 * time.Minute

// Service implements find_interrupted/analyze/recover.
type Service struct {
	games     repository.GameRepository
	actions   repository.ActionRepository
	snapshots repository.SnapshotRepository
	now       func() time.Time
}

// New creates a Recovery Service.
func New(games repository.GameRepository, actions repository.ActionRepository, snapshots repository.SnapshotRepository) *Service {
	return &Service{games: games, actions: actions, snapshots: snapshots, now: time.Now}
}

// FindInterrupted returns the ids of active games with at least one
// pending action record.
func (s *Service) FindInterrupted(ctx context.Context) ([]string, error) {
	active, err := s.games.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}

	var interrupted []string
	for _, g := range active {
		pending, err := s.actions.ListPending(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list pending actions for %s: %w", g.ID, err)
		}
		if len(pending) > 0 {
			interrupted = append(interrupted, g.ID)
		}
	}
	return interrupted, nil
}

// Analyze classifies why a game is interrupted, from its newest action
// record.
func (s *Service) Analyze(ctx context.Context, gameID string) (FailureClass, error) {
	pending, err := s.actions.ListPending(ctx, gameID)
	if err != nil {
		return "", fmt.Errorf("list pending actions: %w", err)
	}
	if len(pending) == 0 {
		return "", fmt.Errorf("recovery: game %s has no pending actions", gameID)
	}

	newest := pending[0]
	for _, rec := range pending[1:] {
		if rec.TurnNumber > newest.TurnNumber {
			newest = rec
		}
	}

	if s.now().Sub(newest.CreatedAt) > agentTimeout {
		return FailureAgentTimeout, nil
	}
	if newest.ProcessingTime > 0 {
		return FailureTransactionFailure, nil
	}
	return FailureIncompleteAction, nil
}

// Recover marks every pending action for a game failed, rolls the game
// back to the last snapshot whose turn number matches the count of valid
// actions, and returns the reconstructed state. Idempotent: calling it
// again on an already-recovered game is a no-op beyond re-reading the
// snapshot.
func (s *Service) Recover(ctx context.Context, gameID string) (*model.GameState, error) {
	pending, err := s.actions.ListPending(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	for _, rec := range pending {
		if err := s.actions.MarkRecovered(ctx, rec.ID); err != nil {
			return nil, fmt.Errorf("mark action %s recovered: %w", rec.ID, err)
		}
	}

	all, err := s.actions.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	validCount := 0
	for _, rec := range all {
		if rec.Validity == model.ValidityValid {
			validCount++
		}
	}

	snap, err := s.snapshots.AtTurn(ctx, gameID, validCount)
	if err != nil {
		return nil, fmt.Errorf("load consistent snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("recovery: no snapshot at turn %d for game %s", validCount, gameID)
	}

	var gs model.GameState
	if err := json.Unmarshal(snap.StateBlob, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if err := s.games.UpdateProgress(ctx, gameID, gs.TurnNumber, model.StatusActive); err != nil {
		return nil, fmt.Errorf("reset game progress: %w", err)
	}
	return &gs, nil
}
