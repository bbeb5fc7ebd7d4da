// Package model holds the persisted value types for Secret AGI: papers,
// players, game metadata, and the event/action/snapshot records the event
// store keeps. These are plain data — no behavior, no validation. Rule and
// phase logic live in pkg/rules and internal/action.
package model

import (
	"encoding/json"
	"time"
)

// Role is a player's hidden role.
type Role string

const (
	RoleSafety          Role = "safety"
	RoleAccelerationist Role = "accelerationist"
	RoleAGI             Role = "agi"
)

// Allegiance is the team a role answers to. AGI's allegiance is Acceleration.
type Allegiance string

const (
	AllegianceSafety       Allegiance = "safety"
	AllegianceAcceleration Allegiance = "acceleration"
)

// AllegianceForRole returns the fixed allegiance for a role.
func AllegianceForRole(r Role) Allegiance {
	if r == RoleSafety {
		return AllegianceSafety
	}
	return AllegianceAcceleration
}

// Phase is one of the three top-level game phases.
type Phase string

const (
	PhaseTeamProposal Phase = "team_proposal"
	PhaseResearch     Phase = "research"
	PhaseGameOver     Phase = "game_over"
)

// SubPhase is the sub-state within TeamProposal/Research; GameState persists
// it so a reconstructed engine resumes awaiting exactly the right action.
type SubPhase string

const (
	SubAwaitNomination       SubPhase = "await_nomination"
	SubAwaitTeamVote         SubPhase = "await_team_vote"
	SubAwaitEmergencyVote    SubPhase = "await_emergency_vote"
	SubAwaitDirectorDiscard  SubPhase = "await_director_discard"
	SubAwaitEngineerDecision SubPhase = "await_engineer_decision"
	SubAwaitVetoResponse     SubPhase = "await_veto_response"
	SubAwaitPowerTarget      SubPhase = "await_power_target"
	SubNone                  SubPhase = ""
)

// GameStatus is the persisted status of a game row.
type GameStatus string

const (
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusFailed    GameStatus = "failed"
	StatusPaused    GameStatus = "paused"
)

// Validity is the tri-state outcome of an action attempt.
type Validity string

const (
	ValidityPending Validity = "pending"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
)

// EventType tags the kind of event recorded in the event log.
type EventType string

const (
	EventActionAttempted EventType = "action_attempted"
	EventStateChanged    EventType = "state_changed"
	EventPhaseTransition EventType = "phase_transition"
	EventPaperPublished  EventType = "paper_published"
	EventPowerTriggered  EventType = "power_triggered"
	EventVoteCompleted   EventType = "vote_completed"
	EventChatMessage     EventType = "chat_message"
	EventGameEnded       EventType = "game_ended"
)

// ActionKind enumerates the action verbs the Action Processor accepts.
type ActionKind string

const (
	ActionNominate            ActionKind = "nominate"
	ActionVoteTeam            ActionKind = "vote_team"
	ActionCallEmergencySafety ActionKind = "call_emergency_safety"
	ActionVoteEmergency       ActionKind = "vote_emergency"
	ActionDiscardPaper        ActionKind = "discard_paper"
	ActionDeclareVeto         ActionKind = "declare_veto"
	ActionRespondVeto         ActionKind = "respond_veto"
	ActionPublishPaper        ActionKind = "publish_paper"
	ActionUsePower            ActionKind = "use_power"
	ActionSendChatMessage     ActionKind = "send_chat_message"
	ActionObserve             ActionKind = "observe"
)

// ErrorCode is a wire-level, machine-readable validation failure code.
type ErrorCode string

const (
	ErrInvalidPhase     ErrorCode = "invalid_phase"
	ErrNotActor         ErrorCode = "not_actor"
	ErrIneligibleTarget ErrorCode = "ineligible_target"
	ErrDuplicateVote    ErrorCode = "duplicate_vote"
	ErrNotUnlocked      ErrorCode = "not_unlocked"
	ErrUnknownPaper     ErrorCode = "unknown_paper"
	ErrSizeGated        ErrorCode = "size_gated"
	ErrGameOver         ErrorCode = "game_over"
	ErrInternal         ErrorCode = "internal"
)

// Paper is an immutable research paper: a pair of non-negative contribution
// amounts added to the board when it is published.
type Paper struct {
	ID         string `json:"id"`
	Capability int    `json:"capability"`
	Safety     int    `json:"safety"`
}

// Player is one seat at the table.
type Player struct {
	ID              string     `json:"id"`
	SeatID          int        `json:"seat_id"`
	AgentType       string     `json:"agent_type,omitempty"`
	AgentConfig     string     `json:"agent_config,omitempty"`
	Role            Role       `json:"role"`
	Allegiance      Allegiance `json:"allegiance"`
	Alive           bool       `json:"alive"`
	WasLastEngineer bool       `json:"was_last_engineer"`
}

// GameState is the single aggregate the engine evolves. Values are produced
// immutably by the Action Processor: callers never mutate a GameState in
// place once it has been handed to the event store.
type GameState struct {
	GameID      string `json:"game_id"`
	TurnNumber  int    `json:"turn_number"`
	RoundNumber int    `json:"round_number"`

	Players []Player `json:"players"`

	Capability int `json:"capability"`
	Safety     int `json:"safety"`

	Deck    []Paper `json:"deck"`
	Discard []Paper `json:"discard"`

	CurrentDirectorIndex int `json:"current_director_index"`
	FailedProposals      int `json:"failed_proposals"`

	CurrentPhase Phase    `json:"current_phase"`
	SubPhase     SubPhase `json:"sub_phase"`
	// PausedSubPhase remembers the sub-phase an emergency vote interrupted,
	// so vote_emergency's completion can resume exactly where play left off.
	PausedSubPhase SubPhase `json:"paused_sub_phase,omitempty"`

	NominatedEngineerID string  `json:"nominated_engineer_id,omitempty"`
	DirectorCards       []Paper `json:"director_cards,omitempty"`
	EngineerCards       []Paper `json:"engineer_cards,omitempty"`

	// PublishedPapers accumulates every paper whose capability/safety
	// deltas have been applied to the board, manual or auto-published.
	// Discard holds papers removed from play WITHOUT contributing to the
	// meters (the engineer's unchosen card, the director's discarded
	// card, vetoed cards). Both are tracked so invariant 2 in spec.md §8
	// (deck+discard+hands+published == 17) holds unambiguously.
	PublishedPapers []Paper `json:"published_papers,omitempty"`

	TeamVotes      map[string]bool `json:"team_votes,omitempty"`
	EmergencyVotes map[string]bool `json:"emergency_votes,omitempty"`

	VetoUnlocked                   bool `json:"veto_unlocked"`
	EmergencySafetyActive          bool `json:"emergency_safety_active"`
	EmergencySafetyCalledThisRound bool `json:"emergency_safety_called_this_round"`
	AGIMustReveal                  bool `json:"agi_must_reveal"`

	// PendingPowerThresholds holds power thresholds still to execute from
	// the publication in progress, in ascending order; use_power pops the
	// front one after applying its effect.
	PendingPowerThresholds []int `json:"pending_power_thresholds,omitempty"`

	// ViewedAllegiances: viewer id -> (target id -> allegiance).
	ViewedAllegiances map[string]map[string]Allegiance `json:"viewed_allegiances,omitempty"`

	// NextDirectorOverrideID is set by the C=9 power and takes effect the
	// next time a TeamProposal phase begins (see DESIGN.md Open Question).
	NextDirectorOverrideID string `json:"next_director_override_id,omitempty"`

	IsGameOver bool   `json:"is_game_over"`
	Winners    []Role `json:"winners,omitempty"`

	Events []Event `json:"events,omitempty"`
}

// Event is a structured record of a game-significant occurrence.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	TurnNumber int            `json:"turn_number"`
}

// ActionRecord is the audit row for one submitted action, valid or not.
type ActionRecord struct {
	ID             string         `json:"id"`
	GameID         string         `json:"game_id"`
	TurnNumber     int            `json:"turn_number"`
	ActorID        string         `json:"actor_id"`
	Kind           ActionKind     `json:"kind"`
	Params         map[string]any `json:"params,omitempty"`
	Validity       Validity       `json:"validity"`
	ErrorCode      ErrorCode      `json:"error_code,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
	CreatedAt      time.Time      `json:"created_at"`
	RecoveryMarked bool           `json:"recovery_marked,omitempty"`
}

// StateSnapshot is the full serialized state after an accepted action,
// keyed by (game_id, turn_number), with a content digest for integrity.
type StateSnapshot struct {
	ID         string          `json:"id"`
	GameID     string          `json:"game_id"`
	TurnNumber int             `json:"turn_number"`
	StateBlob  json.RawMessage `json:"state_blob"`
	CreatedAt  time.Time       `json:"created_at"`
	Checksum   string          `json:"checksum"`
}

// GameRow is the persisted `games` table row (§4.4).
type GameRow struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Status       GameStatus    `json:"status"`
	Config       GameConfig    `json:"config"`
	CurrentTurn  int           `json:"current_turn"`
	FinalOutcome *FinalOutcome `json:"final_outcome,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// FinalOutcome records the winning roles and the turn the game ended on.
type FinalOutcome struct {
	Winners []Role `json:"winners"`
	Turns   int    `json:"turns"`
}

// PowerNineMode selects which C=9 behavior is implemented (see spec.md §9
// Open Questions). DirectorOverride is the spec's adopted default.
type PowerNineMode string

const (
	PowerNineDirectorOverride PowerNineMode = "director_override"
)

// AGIEngineerTiming selects when the AGI-engineer win condition is checked.
// AtApproval is the spec's adopted default.
type AGIEngineerTiming string

const (
	AGIEngineerAtApproval AGIEngineerTiming = "at_approval"
)

// GameConfig is the caller-supplied configuration for create_game.
type GameConfig struct {
	PlayerIDs         []string          `json:"player_ids"`
	Seed              int64             `json:"seed"`
	PowerNineMode     PowerNineMode     `json:"power_nine_mode"`
	AGIEngineerTiming AGIEngineerTiming `json:"agi_engineer_timing"`
}

// ChatMessage is a recorded in-game chat row.
type ChatMessage struct {
	ID         string    `json:"id"`
	GameID     string    `json:"game_id"`
	TurnNumber int       `json:"turn_number"`
	SpeakerID  string    `json:"speaker_id"`
	Message    string    `json:"message"`
	Phase      Phase     `json:"phase"`
	CreatedAt  time.Time `json:"created_at"`
}

// AgentMetric is a per-turn, per-actor telemetry row an external
// orchestrator may attach; the core persists it without interpreting it.
type AgentMetric struct {
	ID              string    `json:"id"`
	GameID          string    `json:"game_id"`
	ActorID         string    `json:"actor_id"`
	TurnNumber      int       `json:"turn_number"`
	Tokens          *int      `json:"tokens,omitempty"`
	ResponseMs      *int      `json:"response_ms,omitempty"`
	InvalidAttempts int       `json:"invalid_attempts"`
	StateSize       *int      `json:"state_size,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
