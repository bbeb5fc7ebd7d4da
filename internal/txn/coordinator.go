// Package txn implements the Transaction Coordinator: the single place an
// accepted or rejected action is made durable. It groups the audit row,
// the new snapshot, the produced events, and the game's progress pointer
// into one unit of work, and keeps the Redis fast-path cache in sync.
//
// Grounded on the teacher's PhaseService.resolvePhaseInternal
// (internal/service/phase_service.go): load state, run the pure resolver,
// persist results, update the cache, in that order, under a per-game lock
// so a retried or concurrently submitted action for the same game can't
// race the one in flight.
package txn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/secretagi/engine/internal/action"
	"github.com/secretagi/engine/internal/logger"
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/internal/repository"
)

// Coordinator wires the Action Processor to the Event Store.
type Coordinator struct {
	processor *action.Processor
	games     repository.GameRepository
	snapshots repository.SnapshotRepository
	actions   repository.ActionRepository
	events    repository.EventRepository
	chat      repository.ChatRepository
	cache     repository.StateCache // may be nil: cache is optional, never authoritative

	// gameLocks serializes Submit calls per game, mirroring the teacher's
	// gameLock: two submissions for the same game must never both read the
	// same "current" turn and race to append the next one.
	gameLocks sync.Map
}

// New creates a Coordinator. cache may be nil, in which case every read
// falls back to Postgres.
func New(
	processor *action.Processor,
	games repository.GameRepository,
	snapshots repository.SnapshotRepository,
	actions repository.ActionRepository,
	events repository.EventRepository,
	chat repository.ChatRepository,
	cache repository.StateCache,
) *Coordinator {
	return &Coordinator{
		processor: processor,
		games:     games,
		snapshots: snapshots,
		actions:   actions,
		events:    events,
		chat:      chat,
		cache:     cache,
	}
}

func (c *Coordinator) gameLock(gameID string) *sync.Mutex {
	v, _ := c.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Submit is the one way an action enters the system: record it, apply it,
// persist the outcome, and return the new state and events. The returned
// error is only non-nil for infrastructure failures (DB down, marshal
// error); a rejected action is a normal, non-error Outcome with
// Success=false, still durably recorded.
func (c *Coordinator) Submit(ctx context.Context, gameID, actorID string, kind model.ActionKind, params map[string]any) (*model.GameState, []model.Event, action.Outcome, error) {
	mu := c.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	log := logger.ForGame(ctx, gameID)

	current, err := c.loadCurrent(ctx, gameID)
	if err != nil {
		return nil, nil, action.Outcome{}, fmt.Errorf("load current state: %w", err)
	}
	if current == nil {
		return nil, nil, action.Outcome{}, fmt.Errorf("game %s has no state", gameID)
	}

	actionID := newActionID()
	rec := model.ActionRecord{
		ID:         actionID,
		GameID:     gameID,
		TurnNumber: current.TurnNumber + 1,
		ActorID:    actorID,
		Kind:       kind,
		Params:     params,
		Validity:   model.ValidityPending,
	}
	if err := c.actions.Record(ctx, rec); err != nil {
		return nil, nil, action.Outcome{}, fmt.Errorf("record action: %w", err)
	}

	start := time.Now()
	next, evts, outcome := c.processor.Apply(current, actorID, kind, params)
	elapsed := time.Since(start)

	if !outcome.Success {
		if err := c.actions.MarkResult(ctx, actionID, model.ValidityInvalid, outcome.ErrorCode, outcome.ErrorMessage, elapsed.Nanoseconds()); err != nil {
			log.Error().Err(err).Str("actionId", actionID).Msg("failed to mark rejected action")
		}
		attempt := newActionAttemptedEvent(current.TurnNumber, actorID, kind, outcome)
		if err := c.events.Append(ctx, gameID, []model.Event{attempt}); err != nil {
			log.Error().Err(err).Str("actionId", actionID).Msg("failed to record invalid-attempt audit event")
		}
		return nil, nil, outcome, nil
	}

	// Record the processing time while the action is still pending, so a
	// crash during persist leaves a row the Recovery Service classifies as
	// transaction_failure.
	if err := c.actions.MarkResult(ctx, actionID, model.ValidityPending, "", "", elapsed.Nanoseconds()); err != nil {
		log.Error().Err(err).Str("actionId", actionID).Msg("failed to record processing time")
	}

	if err := c.persist(ctx, gameID, next, evts); err != nil {
		return nil, nil, action.Outcome{}, fmt.Errorf("persist accepted action: %w", err)
	}
	if err := c.actions.MarkResult(ctx, actionID, model.ValidityValid, "", "", elapsed.Nanoseconds()); err != nil {
		log.Error().Err(err).Str("actionId", actionID).Msg("failed to mark accepted action")
	}

	log.Info().Str("actionId", actionID).Str("kind", string(kind)).Int("turn", next.TurnNumber).Msg("action applied")
	return next, evts, outcome, nil
}

// persist is the all-or-nothing tail of a successful Apply: snapshot,
// events, chat (appendChat extracts it from the chat_message event
// payloads), game progress, cache.
func (c *Coordinator) persist(ctx context.Context, gameID string, next *model.GameState, evts []model.Event) error {
	blob, err := c.saveSnapshot(ctx, gameID, next)
	if err != nil {
		return err
	}
	if err := c.events.Append(ctx, gameID, evts); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	if err := c.appendChat(ctx, gameID, next, evts); err != nil {
		return fmt.Errorf("append chat: %w", err)
	}

	status := model.StatusActive
	if next.IsGameOver {
		status = model.StatusCompleted
	}
	if status == model.StatusCompleted {
		outcome := model.FinalOutcome{Winners: next.Winners, Turns: next.TurnNumber}
		if err := c.games.Finish(ctx, gameID, outcome); err != nil {
			return fmt.Errorf("finish game: %w", err)
		}
	} else if err := c.games.UpdateProgress(ctx, gameID, next.TurnNumber, status); err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.SetCurrent(ctx, gameID, next.TurnNumber, blob); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("failed to refresh state cache; will rebuild from Postgres on next read")
		}
	}
	return nil
}

// saveSnapshot marshals state and writes it as the game_states row for its
// turn, returning the marshaled blob so callers can also warm the cache
// without re-encoding.
func (c *Coordinator) saveSnapshot(ctx context.Context, gameID string, state *model.GameState) (json.RawMessage, error) {
	blob, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	sum := sha256.Sum256(blob)
	snap := model.StateSnapshot{
		ID:         newSnapshotID(),
		GameID:     gameID,
		TurnNumber: state.TurnNumber,
		StateBlob:  blob,
		Checksum:   hex.EncodeToString(sum[:]),
	}
	if err := c.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return blob, nil
}

// Bootstrap writes the turn-0 snapshot for a freshly created game. The
// Engine Facade calls this once, right after the game row and seating
// roster are persisted, so create_game produces the same durable shape
// perform_action does: a snapshot for every turn, starting at 0.
func (c *Coordinator) Bootstrap(ctx context.Context, gameID string, state *model.GameState) error {
	blob, err := c.saveSnapshot(ctx, gameID, state)
	if err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.SetCurrent(ctx, gameID, state.TurnNumber, blob); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("failed to warm state cache after bootstrap")
		}
	}
	return nil
}

// appendChat mirrors any chat_message events into the dedicated chat
// transcript table, so chat history can be listed without scanning the
// full event log.
func (c *Coordinator) appendChat(ctx context.Context, gameID string, next *model.GameState, evts []model.Event) error {
	for _, e := range evts {
		if e.Type != model.EventChatMessage {
			continue
		}
		message, _ := e.Payload["message"].(string)
		msg := model.ChatMessage{
			ID:         newChatID(),
			GameID:     gameID,
			TurnNumber: e.TurnNumber,
			SpeakerID:  e.ActorID,
			Message:    message,
			Phase:      next.CurrentPhase,
		}
		if err := c.chat.Append(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// loadCurrent returns the current GameState for a game, preferring the
// cache and falling back to the latest Postgres snapshot. A cache hit
// whose turn trails the latest snapshot (a restart raced a write) is
// treated as a miss.
func (c *Coordinator) loadCurrent(ctx context.Context, gameID string) (*model.GameState, error) {
	latest, err := c.snapshots.Latest(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	if latest == nil {
		return nil, nil
	}

	if c.cache != nil {
		if turn, blob, ok, err := c.cache.GetCurrent(ctx, gameID); err == nil && ok && turn == latest.TurnNumber {
			var gs model.GameState
			if err := json.Unmarshal(blob, &gs); err == nil {
				return &gs, nil
			}
		}
	}

	var gs model.GameState
	if err := json.Unmarshal(latest.StateBlob, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.SetCurrent(ctx, gameID, gs.TurnNumber, latest.StateBlob); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("failed to warm state cache")
		}
	}
	return &gs, nil
}

// newActionAttemptedEvent is the audit trail spec.md §4.2 requires for a
// rejected action: no state mutation occurred, but the attempt itself is
// still a durable, queryable fact.
func newActionAttemptedEvent(turn int, actorID string, kind model.ActionKind, outcome action.Outcome) model.Event {
	return model.Event{
		ID:         idPrefix("evt"),
		Type:       model.EventActionAttempted,
		ActorID:    actorID,
		TurnNumber: turn,
		Payload: map[string]any{
			"kind":          string(kind),
			"validity":      string(model.ValidityInvalid),
			"error_code":    string(outcome.ErrorCode),
			"error_message": outcome.ErrorMessage,
		},
	}
}

func newActionID() string   { return idPrefix("act") }
func newSnapshotID() string { return idPrefix("snap") }
func newChatID() string     { return idPrefix("chat") }

func idPrefix(prefix string) string {
	return prefix + "-" + logger.NewRequestID()
}
