package action

import (
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/pkg/rules"
)

// nominate lets the current director propose an engineer for the round.
func (p *Processor) nominate(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseTeamProposal); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitNomination); o != nil {
		return *o
	}
	if o := requireActorIs(c, currentDirector(c.next)); o != nil {
		return *o
	}

	targetID, ok := paramString(params, "target_id")
	if !ok || !eligibleNomineeWithSelf(c.next, targetID) {
		return Outcome{Success: false, ErrorCode: model.ErrIneligibleTarget, ErrorMessage: "target is not eligible for nomination"}
	}

	c.next.NominatedEngineerID = targetID
	c.next.SubPhase = model.SubAwaitTeamVote
	c.next.TeamVotes = map[string]bool{}
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

// eligibleNomineeWithSelf allows self-nomination; the only restriction is
// liveness and the was-last-engineer cooldown (spec.md §4.1 "Eligibility").
func eligibleNomineeWithSelf(gs *model.GameState, targetID string) bool {
	for _, pl := range gs.Players {
		if pl.ID == targetID {
			return pl.Alive && !pl.WasLastEngineer
		}
	}
	return false
}

// voteTeam records one player's vote on the currently nominated team. Once
// every alive player has voted, the team is approved or rejected and the
// resulting cascade (research phase, or next director / auto-publish on a
// third consecutive failure) runs immediately.
func (p *Processor) voteTeam(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseTeamProposal); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitTeamVote); o != nil {
		return *o
	}
	if o := requireAlive(c, c.actorID); o != nil {
		return *o
	}
	if _, voted := c.next.TeamVotes[c.actorID]; voted {
		return Outcome{Success: false, ErrorCode: model.ErrDuplicateVote, ErrorMessage: "player already voted"}
	}
	approve, ok := paramBool(params, "approve")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "approve is required"}
	}

	if c.next.TeamVotes == nil {
		c.next.TeamVotes = map[string]bool{}
	}
	c.next.TeamVotes[c.actorID] = approve

	if !rules.VoteComplete(c.next.Players, c.next.TeamVotes) {
		return Outcome{Success: true}
	}

	result := rules.Tally(c.next.Players, c.next.TeamVotes)
	c.emit(newVoteCompletedEvent(c.turn, "team", result.Passed, result.Yes, result.No))

	if !result.Passed {
		return p.onTeamRejected(c)
	}
	return p.onTeamApproved(c)
}

func (p *Processor) onTeamApproved(c *actionCtx) Outcome {
	engineerID := c.next.NominatedEngineerID

	if p.cfg.AGIEngineerTiming == model.AGIEngineerAtApproval {
		if eng, ok := findPlayer(c.next.Players, engineerID); ok && eng.Role == model.RoleAGI && c.next.Capability >= 8 {
			c.next.IsGameOver = true
			c.next.Winners = []model.Role{model.RoleAccelerationist, model.RoleAGI}
			c.emit(newGameEndedEvent(c.turn, c.next.Winners))
			return Outcome{Success: true}
		}
	}

	c.next.Players = rules.ResetEligibility(c.next.Players)
	markLastEngineer(c.next.Players, engineerID)

	c.next.FailedProposals = 0
	c.next.EmergencySafetyCalledThisRound = false
	drawn, exhausted := drawForResearch(c.next, 3)
	if exhausted {
		resolveDeckExhaustion(c)
		return Outcome{Success: true}
	}
	c.next.DirectorCards = drawn
	c.next.CurrentPhase = model.PhaseResearch
	c.next.SubPhase = model.SubAwaitDirectorDiscard
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

func (p *Processor) onTeamRejected(c *actionCtx) Outcome {
	c.next.FailedProposals++
	c.next.NominatedEngineerID = ""
	c.next.TeamVotes = map[string]bool{}

	if c.next.FailedProposals >= 3 {
		autoPublishTopCard(c)
		if c.next.IsGameOver {
			return Outcome{Success: true}
		}
		c.next.FailedProposals = 0
		c.next.Players = rules.ResetEligibility(c.next.Players)
		if c.next.SubPhase == model.SubAwaitPowerTarget {
			// A queued power still needs a target; use_power will advance
			// the director once it resolves (see finishResearchRound).
			return Outcome{Success: true}
		}
	}

	advanceDirector(c.next)
	c.next.SubPhase = model.SubAwaitNomination
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

func advanceDirector(gs *model.GameState) {
	gs.CurrentDirectorIndex = nextAliveDirectorOrOverride(gs)
	gs.RoundNumber++
}

func nextAliveDirectorOrOverride(gs *model.GameState) int {
	if gs.NextDirectorOverrideID != "" {
		idx := findPlayerIndex(gs.Players, gs.NextDirectorOverrideID)
		gs.NextDirectorOverrideID = ""
		if idx >= 0 && gs.Players[idx].Alive {
			return idx
		}
	}
	return rules.NextAliveDirector(gs.Players, gs.CurrentDirectorIndex)
}

func markLastEngineer(players []model.Player, engineerID string) {
	for i := range players {
		if players[i].ID == engineerID {
			players[i].WasLastEngineer = true
		}
	}
}
