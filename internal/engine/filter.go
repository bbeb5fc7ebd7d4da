package engine

import "github.com/secretagi/engine/internal/model"

// PublicPlayer is the seat-and-liveness information every player sees
// about every other player, regardless of role (spec.md §6 "Filtered
// state view").
type PublicPlayer struct {
	ID              string `json:"id"`
	SeatID          int    `json:"seat_id"`
	Alive           bool   `json:"alive"`
	WasLastEngineer bool   `json:"was_last_engineer"`
}

// FilteredState is the per-actor view perform_action/observe return: public
// board state plus whatever hidden information that specific actor is
// entitled to (own role, known allies, viewed allegiances, hand).
type FilteredState struct {
	GameID      string `json:"game_id"`
	TurnNumber  int    `json:"turn_number"`
	RoundNumber int    `json:"round_number"`

	Capability int `json:"capability"`
	Safety     int `json:"safety"`

	Phase                          model.Phase    `json:"phase"`
	SubPhase                       model.SubPhase `json:"sub_phase"`
	FailedProposals                int            `json:"failed_proposals"`
	VetoUnlocked                   bool           `json:"veto_unlocked"`
	EmergencySafetyActive          bool           `json:"emergency_safety_active"`
	EmergencySafetyCalledThisRound bool           `json:"emergency_safety_called_this_round"`
	AGIMustReveal                  bool           `json:"agi_must_reveal"`

	Players             []PublicPlayer `json:"players"`
	CurrentDirectorID   string         `json:"current_director_id"`
	NominatedEngineerID string         `json:"nominated_engineer_id,omitempty"`

	IsGameOver bool         `json:"is_game_over"`
	Winners    []model.Role `json:"winners,omitempty"`

	// Actor-private fields below; zero-valued for an actor not seated in
	// the game (e.g. a pure spectator view is not supported today).
	OwnRole           model.Role                  `json:"own_role,omitempty"`
	OwnAllegiance     model.Allegiance            `json:"own_allegiance,omitempty"`
	KnownAllies       []string                    `json:"known_allies,omitempty"`
	ViewedAllegiances map[string]model.Allegiance `json:"viewed_allegiances,omitempty"`
	Hand              []model.Paper               `json:"hand,omitempty"`
}

// Filter builds the FilteredState actorID is entitled to see from the full,
// unfiltered GameState (spec.md §6 "Filtered state view"): public scalars
// and seating for everyone, plus own role, teammates (for Accelerationist/
// AGI), viewed allegiances, and an in-progress hand for the actor alone.
func Filter(gs *model.GameState, actorID string) FilteredState {
	fs := FilteredState{
		GameID:                         gs.GameID,
		TurnNumber:                     gs.TurnNumber,
		RoundNumber:                    gs.RoundNumber,
		Capability:                     gs.Capability,
		Safety:                         gs.Safety,
		Phase:                          gs.CurrentPhase,
		SubPhase:                       gs.SubPhase,
		FailedProposals:                gs.FailedProposals,
		VetoUnlocked:                   gs.VetoUnlocked,
		EmergencySafetyActive:          gs.EmergencySafetyActive,
		EmergencySafetyCalledThisRound: gs.EmergencySafetyCalledThisRound,
		AGIMustReveal:                  gs.AGIMustReveal,
		NominatedEngineerID:            gs.NominatedEngineerID,
		IsGameOver:                     gs.IsGameOver,
		Winners:                        gs.Winners,
	}

	if director, ok := directorID(gs); ok {
		fs.CurrentDirectorID = director
	}

	fs.Players = make([]PublicPlayer, len(gs.Players))
	for i, p := range gs.Players {
		fs.Players[i] = PublicPlayer{ID: p.ID, SeatID: p.SeatID, Alive: p.Alive, WasLastEngineer: p.WasLastEngineer}
	}

	actor, ok := findSeat(gs.Players, actorID)
	if !ok {
		return fs
	}
	fs.OwnRole = actor.Role
	fs.OwnAllegiance = actor.Allegiance

	if actor.Role == model.RoleAccelerationist || actor.Role == model.RoleAGI {
		for _, p := range gs.Players {
			if p.Role == model.RoleAccelerationist || p.Role == model.RoleAGI {
				fs.KnownAllies = append(fs.KnownAllies, p.ID)
			}
		}
	}

	if viewed, ok := gs.ViewedAllegiances[actorID]; ok {
		fs.ViewedAllegiances = make(map[string]model.Allegiance, len(viewed))
		for k, v := range viewed {
			fs.ViewedAllegiances[k] = v
		}
	}

	switch {
	case fs.CurrentDirectorID == actorID && len(gs.DirectorCards) > 0:
		fs.Hand = gs.DirectorCards
	case gs.NominatedEngineerID == actorID && len(gs.EngineerCards) > 0:
		fs.Hand = gs.EngineerCards
	}

	return fs
}

func directorID(gs *model.GameState) (string, bool) {
	if gs.CurrentDirectorIndex < 0 || gs.CurrentDirectorIndex >= len(gs.Players) {
		return "", false
	}
	return gs.Players[gs.CurrentDirectorIndex].ID, true
}

func findSeat(players []model.Player, id string) (model.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}
