package rules

import "github.com/secretagi/engine/internal/model"

// AlivePlayerIDs returns the ids of all alive players, in seating order.
func AlivePlayerIDs(players []model.Player) []string {
	var ids []string
	for _, p := range players {
		if p.Alive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// VoteComplete reports whether every alive player has cast a vote.
func VoteComplete(players []model.Player, votes map[string]bool) bool {
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if _, voted := votes[p.ID]; !voted {
			return false
		}
	}
	return true
}

// TallyResult is the outcome of a completed majority vote.
type TallyResult struct {
	Yes, No int
	Passed  bool // strict majority of alive voters; ties fail
}

// Tally computes a strict-majority result over the alive players' votes.
// Eliminated players are excluded from the denominator (spec.md §4.1).
func Tally(players []model.Player, votes map[string]bool) TallyResult {
	var yes, no int
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if votes[p.ID] {
			yes++
		} else {
			no++
		}
	}
	total := yes + no
	return TallyResult{Yes: yes, No: no, Passed: yes*2 > total}
}
