package rules

import "github.com/secretagi/engine/internal/model"

// WinCheckInput carries the subset of GameState win-condition evaluation
// needs, so callers in internal/action can evaluate without importing a
// whole GameState evolution context.
type WinCheckInput struct {
	Capability    int
	Safety        int
	DeckEmpty     bool
	DeckExhaustionMoment bool // true only when the engine would otherwise draw or conclude a round with an empty deck
	AGIEliminated bool
	AGIIsEngineerOfApprovedTeam bool // capability >= 8 and the just-approved engineer is the AGI
}

// EvaluateWinConditions collects every simultaneously-triggered win
// condition (spec.md §4.1) and applies the Evil-wins tie-break. It returns
// (gameOver, winningAllegiance-derived roles). Roles returned are the set
// of roles on the winning side: {Safety} or {Accelerationist, AGI}.
func EvaluateWinConditions(in WinCheckInput) (over bool, winners []model.Role) {
	safetyTriggered := false
	evilTriggered := false

	if in.Capability == 10 && in.Safety >= in.Capability {
		safetyTriggered = true
	}
	if in.Safety >= 15 {
		safetyTriggered = true
	}
	if in.AGIEliminated {
		safetyTriggered = true
	}

	if in.Capability == 15 && in.Safety < 10 {
		evilTriggered = true
	}
	if in.Capability-in.Safety >= 6 {
		evilTriggered = true
	}
	if in.AGIIsEngineerOfApprovedTeam && in.Capability >= 8 {
		evilTriggered = true
	}

	if in.DeckExhaustionMoment {
		if in.Safety >= in.Capability {
			safetyTriggered = true
		} else {
			evilTriggered = true
		}
	}

	switch {
	case evilTriggered:
		return true, []model.Role{model.RoleAccelerationist, model.RoleAGI}
	case safetyTriggered:
		return true, []model.Role{model.RoleSafety}
	default:
		return false, nil
	}
}
