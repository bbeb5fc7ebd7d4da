// Package action implements the Action Processor: the single validated
// entry point that turns one submitted action into a new GameState plus the
// ordered events it produced. It is the only place phase transitions,
// auto-publish, power execution, and win checks happen (spec.md §4.2).
//
// Every handler receives the current state and returns a brand new state
// built from GameState.Clone — old values are never mutated, matching the
// teacher's pkg/diplomacy convention of cloning before transforming
// (pkg/diplomacy/state.go Clone/CloneInto) so a snapshot can be persisted by
// reference without racing the next action.
package action

import (
	"github.com/secretagi/engine/internal/model"
)

// Outcome is the result of one Apply call, mapped 1:1 onto the wire-level
// `update` contract in spec.md §6.
type Outcome struct {
	Success      bool
	ErrorCode    model.ErrorCode
	ErrorMessage string
}

// Config carries the two Open-Question knobs spec.md §9 asks implementers
// to expose.
type Config struct {
	PowerNineMode     model.PowerNineMode
	AGIEngineerTiming model.AGIEngineerTiming
}

// DefaultConfig is the spec's adopted resolution of both Open Questions.
func DefaultConfig() Config {
	return Config{
		PowerNineMode:     model.PowerNineDirectorOverride,
		AGIEngineerTiming: model.AGIEngineerAtApproval,
	}
}

// Processor is the Action Processor. It is stateless beyond its Config and
// safe to share across games; all per-game data lives in the GameState
// values passed to Apply.
type Processor struct {
	cfg Config
}

// New creates a Processor with the given configuration.
func New(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// actionCtx bundles the per-call mutable working state so handlers don't
// need long parameter lists; next is the clone handlers mutate and return.
type actionCtx struct {
	next    *model.GameState
	events  []model.Event
	actorID string
	turn    int
}

func (c *actionCtx) emit(e model.Event) {
	e.TurnNumber = c.turn
	c.events = append(c.events, e)
}

func (c *actionCtx) fail(code model.ErrorCode, msg string) (*model.GameState, []model.Event, Outcome) {
	return nil, nil, Outcome{Success: false, ErrorCode: code, ErrorMessage: msg}
}

// Apply validates and applies one action against state, producing a new
// state and the events it generated. On validation failure the returned
// state is nil and no mutation occurred; the caller (Transaction
// Coordinator / Facade) is still responsible for recording the invalid
// ActionAttempted audit row — Apply itself is a pure function over values.
func (p *Processor) Apply(state *model.GameState, actorID string, kind model.ActionKind, params map[string]any) (*model.GameState, []model.Event, Outcome) {
	if state.IsGameOver {
		return nil, nil, Outcome{Success: false, ErrorCode: model.ErrGameOver, ErrorMessage: "game is over"}
	}

	c := &actionCtx{
		next:    state.Clone(),
		actorID: actorID,
		turn:    state.TurnNumber + 1,
	}
	c.next.TurnNumber = c.turn

	var outcome Outcome
	switch kind {
	case model.ActionNominate:
		outcome = p.nominate(c, params)
	case model.ActionVoteTeam:
		outcome = p.voteTeam(c, params)
	case model.ActionCallEmergencySafety:
		outcome = p.callEmergencySafety(c, params)
	case model.ActionVoteEmergency:
		outcome = p.voteEmergency(c, params)
	case model.ActionDiscardPaper:
		outcome = p.discardPaper(c, params)
	case model.ActionDeclareVeto:
		outcome = p.declareVeto(c, params)
	case model.ActionRespondVeto:
		outcome = p.respondVeto(c, params)
	case model.ActionPublishPaper:
		outcome = p.publishPaper(c, params)
	case model.ActionUsePower:
		outcome = p.usePower(c, params)
	case model.ActionSendChatMessage:
		outcome = p.sendChatMessage(c, params)
	case model.ActionObserve:
		outcome = Outcome{Success: true}
	default:
		outcome = Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "unknown action kind"}
	}

	if !outcome.Success {
		return nil, nil, outcome
	}

	c.emit(newStateChangedEvent(actorID, c.turn, kind))
	return c.next, c.events, Outcome{Success: true}
}

// currentDirector returns the id of the player at CurrentDirectorIndex.
func currentDirector(gs *model.GameState) string {
	if gs.CurrentDirectorIndex < 0 || gs.CurrentDirectorIndex >= len(gs.Players) {
		return ""
	}
	return gs.Players[gs.CurrentDirectorIndex].ID
}

func findPlayer(players []model.Player, id string) (model.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

func findPlayerIndex(players []model.Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func playerCount(players []model.Player) int {
	return len(players)
}
