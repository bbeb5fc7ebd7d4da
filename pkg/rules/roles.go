// Package rules implements the pure rule engine for Secret AGI: role
// distribution, deck composition, win-condition evaluation, power-trigger
// computation, vote tallies, and eligibility resets. Every function here is
// deterministic and free of I/O, mirroring the teacher's pkg/diplomacy
// split between static map data (map_data.go) and pure transforms over a
// GameState (phase.go).
package rules

import (
	"fmt"
	"math/rand"

	"github.com/secretagi/engine/internal/model"
)

// roleCounts maps player count to (safety, accelerationist, agi) counts,
// the table in spec.md §4.1.
var roleCounts = map[int][3]int{
	5:  {3, 1, 1},
	6:  {4, 1, 1},
	7:  {4, 2, 1},
	8:  {5, 2, 1},
	9:  {5, 3, 1},
	10: {6, 3, 1},
}

// RoleCounts returns (safety, accelerationist, agi) for a valid player count.
func RoleCounts(n int) (safety, accel, agi int, err error) {
	c, ok := roleCounts[n]
	if !ok {
		return 0, 0, 0, fmt.Errorf("rules: player count %d out of range [5,10]", n)
	}
	return c[0], c[1], c[2], nil
}

// AssignRoles deals roles to playerIDs uniformly at random using rng, in
// the fixed seating order given by playerIDs. The returned slice preserves
// that seating order — seating is fixed for the whole game (spec.md §3).
func AssignRoles(playerIDs []string, rng *rand.Rand) ([]model.Player, error) {
	n := len(playerIDs)
	safety, accel, agi, err := RoleCounts(n)
	if err != nil {
		return nil, err
	}

	roles := make([]model.Role, 0, n)
	for i := 0; i < safety; i++ {
		roles = append(roles, model.RoleSafety)
	}
	for i := 0; i < accel; i++ {
		roles = append(roles, model.RoleAccelerationist)
	}
	for i := 0; i < agi; i++ {
		roles = append(roles, model.RoleAGI)
	}

	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	players := make([]model.Player, n)
	for i, id := range playerIDs {
		players[i] = model.Player{
			ID:         id,
			SeatID:     i,
			Role:       roles[i],
			Allegiance: model.AllegianceForRole(roles[i]),
			Alive:      true,
		}
	}
	return players, nil
}

// SizeGated9_11 reports whether the 9-player-and-10-player-only power
// thresholds (3 and 11) apply at this player count.
func SizeGated9_11(playerCount int) bool {
	return playerCount == 9 || playerCount == 10
}

// ChooseStartingDirector picks a uniformly random seat index among n seats.
func ChooseStartingDirector(n int, rng *rand.Rand) int {
	return rng.Intn(n)
}
