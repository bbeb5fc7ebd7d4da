// Package engine implements the Engine Facade: the one entry point that
// wires the Action Processor, Transaction Coordinator, and Recovery
// Service together behind create_game/perform_action/simulate_to_completion/
// load_game/recover/checkpoint (spec.md §4.3, §6).
//
// Grounded on the teacher's PhaseService (internal/service/phase_service.go),
// which plays the same orchestrating role for Diplomacy: it owns the
// current in-memory state for a game, delegates the actual rule evaluation
// to a pure resolver, and persists the result through its repositories. An
// Engine here is bound to exactly one game at a time, matching spec.md §5's
// "single-threaded cooperative per game" concurrency model and the explicit
// non-goal of concurrent games in one process.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/secretagi/engine/internal/action"
	"github.com/secretagi/engine/internal/logger"
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/internal/recovery"
	"github.com/secretagi/engine/internal/repository"
	"github.com/secretagi/engine/internal/txn"
)

// UpdateError is the wire-level {code, message} error shape for a rejected
// action (spec.md §6).
type UpdateError struct {
	Code    model.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Update is what perform_action (and observe) return: whether the action
// succeeded, everything actorID hasn't seen yet, their current filtered
// view, and what they may do next.
type Update struct {
	Success         bool                `json:"success"`
	Error           *UpdateError        `json:"error,omitempty"`
	EventsSinceLast []model.Event       `json:"events_since_last"`
	StateView       FilteredState       `json:"state_view"`
	ValidActions    []model.ActionKind  `json:"valid_actions"`
	ChatSinceLast   []model.ChatMessage `json:"chat_since_last"`
}

// Summary is simulate_to_completion's return value (spec.md §6).
type Summary struct {
	Completed       bool         `json:"completed"`
	Winners         []model.Role `json:"winners,omitempty"`
	Turns           int          `json:"turns"`
	FinalCapability int          `json:"final_capability"`
	FinalSafety     int          `json:"final_safety"`
	GameID          string       `json:"game_id"`
}

// Engine is the Facade. It holds shared, stateless collaborators plus the
// single game it is currently bound to.
type Engine struct {
	processor   *action.Processor
	coord       *txn.Coordinator
	recoverySvc *recovery.Service
	games       repository.GameRepository
	players     repository.PlayerRepository
	snapshots   repository.SnapshotRepository
	events      repository.EventRepository
	chat        repository.ChatRepository
	turnCap     int

	mu           sync.Mutex
	gameID       string
	current      *model.GameState
	lastSeenTurn map[string]int
}

// New creates an Engine with no game bound; call CreateGame, LoadGame, or
// Recover before PerformAction/SimulateToCompletion/Checkpoint.
func New(
	processor *action.Processor,
	coord *txn.Coordinator,
	recoverySvc *recovery.Service,
	games repository.GameRepository,
	players repository.PlayerRepository,
	snapshots repository.SnapshotRepository,
	events repository.EventRepository,
	chat repository.ChatRepository,
	turnCap int,
) *Engine {
	return &Engine{
		processor:   processor,
		coord:       coord,
		recoverySvc: recoverySvc,
		games:       games,
		players:     players,
		snapshots:   snapshots,
		events:      events,
		chat:        chat,
		turnCap:     turnCap,
	}
}

// CreateGame validates the configuration, builds the initial state via the
// Rule Engine, persists the game row, seating roster, and turn-0 snapshot,
// and binds this Engine to the new game (spec.md §4.3 create_game).
func (e *Engine) CreateGame(ctx context.Context, cfg model.GameConfig) (string, error) {
	n := len(cfg.PlayerIDs)
	if n < 5 || n > 10 {
		return "", fmt.Errorf("engine: player count %d out of range [5,10]", n)
	}
	if cfg.PowerNineMode == "" {
		cfg.PowerNineMode = model.PowerNineDirectorOverride
	}
	if cfg.AGIEngineerTiming == "" {
		cfg.AGIEngineerTiming = model.AGIEngineerAtApproval
	}

	gameID := "game-" + logger.NewRequestID()
	gs, err := action.NewGame(gameID, cfg)
	if err != nil {
		return "", fmt.Errorf("build initial state: %w", err)
	}

	row := model.GameRow{
		ID:          gameID,
		Status:      model.StatusActive,
		Config:      cfg,
		CurrentTurn: 0,
	}
	if err := e.games.Create(ctx, row); err != nil {
		return "", fmt.Errorf("create game row: %w", err)
	}
	if err := e.players.InsertSeats(ctx, gameID, gs.Players); err != nil {
		return "", fmt.Errorf("insert seating roster: %w", err)
	}
	if err := e.coord.Bootstrap(ctx, gameID, gs); err != nil {
		return "", fmt.Errorf("write turn-0 snapshot: %w", err)
	}

	e.bind(gameID, gs)
	logger.ForGame(ctx, gameID).Info().Int("playerCount", n).Msg("game created")
	return gameID, nil
}

// PerformAction delegates to the Action Processor under the Transaction
// Coordinator and maps the result onto the actor-filtered wire contract
// (spec.md §4.3 perform_action).
func (e *Engine) PerformAction(ctx context.Context, actorID string, kind model.ActionKind, params map[string]any) (*Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gameID == "" || e.current == nil {
		return nil, fmt.Errorf("engine: no game bound")
	}
	gameID := e.gameID

	next, _, outcome, err := e.coord.Submit(ctx, gameID, actorID, kind, params)
	if err != nil {
		return nil, fmt.Errorf("submit action: %w", err)
	}
	if outcome.Success {
		e.current = next
	}

	since := e.lastSeenTurn[actorID]
	evts, err := e.events.ListSince(ctx, gameID, since+1)
	if err != nil {
		return nil, fmt.Errorf("list events since last call: %w", err)
	}
	chats, err := e.chatSince(ctx, gameID, since)
	if err != nil {
		return nil, err
	}
	e.lastSeenTurn[actorID] = e.current.TurnNumber

	var errOut *UpdateError
	if !outcome.Success {
		errOut = &UpdateError{Code: outcome.ErrorCode, Message: outcome.ErrorMessage}
	}

	return &Update{
		Success:         outcome.Success,
		Error:           errOut,
		EventsSinceLast: evts,
		StateView:       Filter(e.current, actorID),
		ValidActions:    ValidActions(e.current, actorID),
		ChatSinceLast:   chats,
	}, nil
}

// SimulateToCompletion repeatedly picks the next acting player from the
// current sub-phase and asks policy for an action, until GameOver or the
// configured turn cap (spec.md §4.3 simulate_to_completion). A nil policy
// defaults to a freshly seeded RandomPolicy.
func (e *Engine) SimulateToCompletion(ctx context.Context, policy Policy) (Summary, error) {
	if policy == nil {
		policy = NewRandomPolicy(1)
	}

	for i := 0; i < e.turnCap; i++ {
		e.mu.Lock()
		gs := e.current
		gameID := e.gameID
		e.mu.Unlock()
		if gs == nil {
			return Summary{}, fmt.Errorf("engine: no game bound")
		}
		if gs.IsGameOver {
			break
		}

		actorID := nextActor(gs)
		if actorID == "" {
			return Summary{}, fmt.Errorf("engine: no eligible actor in sub-phase %s", gs.SubPhase)
		}
		view := Filter(gs, actorID)
		valid := ValidActions(gs, actorID)
		kind, params := policy.NextAction(view, actorID, valid)

		if _, err := e.PerformAction(ctx, actorID, kind, params); err != nil {
			return Summary{}, fmt.Errorf("simulate turn for game %s: %w", gameID, err)
		}
	}

	e.mu.Lock()
	final := e.current
	gameID := e.gameID
	e.mu.Unlock()

	return Summary{
		Completed:       final.IsGameOver,
		Winners:         final.Winners,
		Turns:           final.TurnNumber,
		FinalCapability: final.Capability,
		FinalSafety:     final.Safety,
		GameID:          gameID,
	}, nil
}

// LoadGame reconstructs state at the given turn (latest if turn is nil) and
// binds this Engine to it (spec.md §4.3 load_game).
func (e *Engine) LoadGame(ctx context.Context, gameID string, turn *int) error {
	var snap *model.StateSnapshot
	var err error
	if turn != nil {
		snap, err = e.snapshots.AtTurn(ctx, gameID, *turn)
	} else {
		snap, err = e.snapshots.Latest(ctx, gameID)
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("engine: no snapshot found for game %s", gameID)
	}

	var gs model.GameState
	if err := json.Unmarshal(snap.StateBlob, &gs); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	e.bind(gameID, &gs)
	return nil
}

// Recover delegates to the Recovery Service and binds this Engine to the
// restored state (spec.md §4.3 recover).
func (e *Engine) Recover(ctx context.Context, gameID string) error {
	gs, err := e.recoverySvc.Recover(ctx, gameID)
	if err != nil {
		return fmt.Errorf("recover game %s: %w", gameID, err)
	}
	e.bind(gameID, gs)
	return nil
}

// Checkpoint confirms a durable snapshot exists for the currently bound
// turn and returns its id (spec.md §4.3 checkpoint). game_states is keyed
// uniquely by (game_id, turn_number) and perform_action already snapshots
// every accepted turn, so a "named" checkpoint at the same turn can't be a
// second row without violating that key; this resolves the ambiguity by
// treating checkpoint as idempotent confirmation of the existing row
// rather than a duplicate insert.
func (e *Engine) Checkpoint(ctx context.Context) (string, error) {
	e.mu.Lock()
	gameID, gs := e.gameID, e.current
	e.mu.Unlock()
	if gameID == "" || gs == nil {
		return "", fmt.Errorf("engine: no game bound")
	}
	snap, err := e.snapshots.AtTurn(ctx, gameID, gs.TurnNumber)
	if err != nil {
		return "", fmt.Errorf("checkpoint: %w", err)
	}
	if snap == nil {
		return "", fmt.Errorf("checkpoint: no snapshot recorded yet for turn %d", gs.TurnNumber)
	}
	return snap.ID, nil
}

func (e *Engine) bind(gameID string, gs *model.GameState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gameID = gameID
	e.current = gs
	e.lastSeenTurn = make(map[string]int)
}

func (e *Engine) chatSince(ctx context.Context, gameID string, sinceTurn int) ([]model.ChatMessage, error) {
	all, err := e.chat.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	out := make([]model.ChatMessage, 0, len(all))
	for _, m := range all {
		if m.TurnNumber > sinceTurn {
			out = append(out, m)
		}
	}
	return out, nil
}

// nextActor picks the single player simulate_to_completion must act as
// next, from the current sub-phase: the director for director-gated steps,
// the nominee for the engineer's decision, or the first alive player who
// hasn't yet voted for an open ballot.
func nextActor(gs *model.GameState) string {
	director, _ := directorID(gs)
	switch gs.SubPhase {
	case model.SubAwaitNomination, model.SubAwaitDirectorDiscard, model.SubAwaitVetoResponse, model.SubAwaitPowerTarget:
		return director
	case model.SubAwaitTeamVote:
		return firstUnvoted(gs.Players, gs.TeamVotes)
	case model.SubAwaitEmergencyVote:
		return firstUnvoted(gs.Players, gs.EmergencyVotes)
	case model.SubAwaitEngineerDecision:
		return gs.NominatedEngineerID
	default:
		return director
	}
}

func firstUnvoted(players []model.Player, votes map[string]bool) string {
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if !hasVoted(votes, p.ID) {
			return p.ID
		}
	}
	return ""
}
