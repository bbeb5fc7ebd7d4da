package action

import (
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/pkg/rules"
)

// callEmergencySafety lets any alive player interrupt the team-proposal
// sub-phase to force an emergency vote, once per round. The interrupted
// sub-phase is remembered in PausedSubPhase and restored once the emergency
// vote resolves (spec.md §4.2 TeamProposal{await_nomination,
// await_team_vote, await_emergency_vote?}).
func (p *Processor) callEmergencySafety(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseTeamProposal); o != nil {
		return *o
	}
	if c.next.SubPhase != model.SubAwaitNomination && c.next.SubPhase != model.SubAwaitTeamVote {
		return Outcome{Success: false, ErrorCode: model.ErrInvalidPhase, ErrorMessage: "no team proposal in progress to interrupt"}
	}
	if o := requireAlive(c, c.actorID); o != nil {
		return *o
	}
	if c.next.EmergencySafetyCalledThisRound {
		return Outcome{Success: false, ErrorCode: model.ErrInvalidPhase, ErrorMessage: "emergency safety already called this round"}
	}
	if diff := c.next.Capability - c.next.Safety; diff != 4 && diff != 5 {
		return Outcome{Success: false, ErrorCode: model.ErrInvalidPhase, ErrorMessage: "capability minus safety is not in {4,5}"}
	}

	c.next.EmergencySafetyCalledThisRound = true
	c.next.PausedSubPhase = c.next.SubPhase
	c.next.SubPhase = model.SubAwaitEmergencyVote
	c.next.EmergencyVotes = map[string]bool{}
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

// voteEmergency records one player's vote on the pending emergency safety
// call. Once every alive player has voted, the interrupted sub-phase
// resumes; a passed vote sets EmergencySafetyActive, which lowers the
// capability delta of the next publication by 1 (floored at 0).
func (p *Processor) voteEmergency(c *actionCtx, params map[string]any) Outcome {
	if o := requireSubPhase(c, model.SubAwaitEmergencyVote); o != nil {
		return *o
	}
	if o := requireAlive(c, c.actorID); o != nil {
		return *o
	}
	if _, voted := c.next.EmergencyVotes[c.actorID]; voted {
		return Outcome{Success: false, ErrorCode: model.ErrDuplicateVote, ErrorMessage: "player already voted"}
	}
	approve, ok := paramBool(params, "approve")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "approve is required"}
	}

	if c.next.EmergencyVotes == nil {
		c.next.EmergencyVotes = map[string]bool{}
	}
	c.next.EmergencyVotes[c.actorID] = approve

	if !rules.VoteComplete(c.next.Players, c.next.EmergencyVotes) {
		return Outcome{Success: true}
	}

	result := rules.Tally(c.next.Players, c.next.EmergencyVotes)
	c.emit(newVoteCompletedEvent(c.turn, "emergency", result.Passed, result.Yes, result.No))

	if result.Passed {
		c.next.EmergencySafetyActive = true
	}
	c.next.SubPhase = c.next.PausedSubPhase
	c.next.PausedSubPhase = model.SubNone
	c.next.EmergencyVotes = map[string]bool{}
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}
