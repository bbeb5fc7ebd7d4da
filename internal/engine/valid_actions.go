package engine

import "github.com/secretagi/engine/internal/model"

// ValidActions lists the action kinds actorID may currently submit, derived
// from the game's phase/sub-phase and who has and hasn't voted yet. It is
// advisory: the Action Processor remains the sole source of truth on
// whether a given action actually validates (spec.md §6 "valid_actions").
// It returns nil once the game is over or when actorID is not seated;
// otherwise send_chat_message and observe are always included, and every
// other kind requires the actor hold the role the current sub-phase is
// waiting on.
func ValidActions(gs *model.GameState, actorID string) []model.ActionKind {
	if gs.IsGameOver {
		return nil
	}
	actor, ok := findSeat(gs.Players, actorID)
	if !ok {
		return nil
	}
	director, _ := directorID(gs)

	var kinds []model.ActionKind
	switch gs.SubPhase {
	case model.SubAwaitNomination:
		if actorID == director {
			kinds = append(kinds, model.ActionNominate)
		}
		if actor.Alive && emergencyCallable(gs) {
			kinds = append(kinds, model.ActionCallEmergencySafety)
		}
	case model.SubAwaitTeamVote:
		if actor.Alive && !hasVoted(gs.TeamVotes, actorID) {
			kinds = append(kinds, model.ActionVoteTeam)
		}
		if actor.Alive && emergencyCallable(gs) {
			kinds = append(kinds, model.ActionCallEmergencySafety)
		}
	case model.SubAwaitEmergencyVote:
		if actor.Alive && !hasVoted(gs.EmergencyVotes, actorID) {
			kinds = append(kinds, model.ActionVoteEmergency)
		}
	case model.SubAwaitDirectorDiscard:
		if actorID == director {
			kinds = append(kinds, model.ActionDiscardPaper)
		}
	case model.SubAwaitEngineerDecision:
		if actorID == gs.NominatedEngineerID {
			kinds = append(kinds, model.ActionPublishPaper)
			if gs.VetoUnlocked {
				kinds = append(kinds, model.ActionDeclareVeto)
			}
		}
	case model.SubAwaitVetoResponse:
		if actorID == director {
			kinds = append(kinds, model.ActionRespondVeto)
		}
	case model.SubAwaitPowerTarget:
		if actorID == director {
			kinds = append(kinds, model.ActionUsePower)
		}
	}

	return append(kinds, model.ActionSendChatMessage, model.ActionObserve)
}

// emergencyCallable mirrors call_emergency_safety's precondition (spec.md
// §4.2): capability minus safety must be 4 or 5, and it hasn't already
// been called this round.
func emergencyCallable(gs *model.GameState) bool {
	if gs.EmergencySafetyCalledThisRound {
		return false
	}
	diff := gs.Capability - gs.Safety
	return diff == 4 || diff == 5
}

func hasVoted(votes map[string]bool, actorID string) bool {
	_, voted := votes[actorID]
	return voted
}
