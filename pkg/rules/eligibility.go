package rules

import "github.com/secretagi/engine/internal/model"

// ResetEligibility clears WasLastEngineer for every player, returning a new
// slice (players is not mutated). Called after a successful team formation
// or after auto-publish from three failures (spec.md §4.1 "Eligibility").
func ResetEligibility(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	for i, p := range players {
		p.WasLastEngineer = false
		out[i] = p
	}
	return out
}

// EligibleNominee reports whether target may be nominated by the director:
// alive, and not the player whose WasLastEngineer flag is set.
func EligibleNominee(players []model.Player, targetID string) bool {
	for _, p := range players {
		if p.ID == targetID {
			return p.Alive && !p.WasLastEngineer
		}
	}
	return false
}

// NextAliveDirector returns the index, clockwise from (from+1) mod len,
// of the next alive player. Seating is fixed; rotation wraps around.
func NextAliveDirector(players []model.Player, from int) int {
	n := len(players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if players[idx].Alive {
			return idx
		}
	}
	return from
}
