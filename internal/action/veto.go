package action

import (
	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/pkg/rules"
)

// declareVeto lets the engineer, once the veto power is unlocked, propose
// discarding both research cards instead of choosing one to publish. The
// director must agree for the veto to take effect.
func (p *Processor) declareVeto(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseResearch); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitEngineerDecision); o != nil {
		return *o
	}
	if o := requireActorIs(c, c.next.NominatedEngineerID); o != nil {
		return *o
	}
	if !c.next.VetoUnlocked {
		return Outcome{Success: false, ErrorCode: model.ErrNotUnlocked, ErrorMessage: "veto power is not unlocked"}
	}

	c.next.SubPhase = model.SubAwaitVetoResponse
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

// respondVeto is the director's answer to a declared veto. Agreement
// discards both remaining research cards and counts as a failed proposal,
// running the same cascade a rejected team vote does (including auto-
// publish after a third consecutive failure). Disagreement sends the
// engineer back to choose a paper normally.
func (p *Processor) respondVeto(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseResearch); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitVetoResponse); o != nil {
		return *o
	}
	if o := requireActorIs(c, currentDirector(c.next)); o != nil {
		return *o
	}

	agree, ok := paramBool(params, "agree")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "agree is required"}
	}

	if !agree {
		c.next.SubPhase = model.SubAwaitEngineerDecision
		c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
		return Outcome{Success: true}
	}

	c.next.Discard = append(c.next.Discard, c.next.EngineerCards...)
	c.next.EngineerCards = nil
	c.next.FailedProposals++

	if c.next.FailedProposals >= 3 {
		autoPublishTopCard(c)
		if c.next.IsGameOver {
			return Outcome{Success: true}
		}
		c.next.FailedProposals = 0
		c.next.Players = rules.ResetEligibility(c.next.Players)
		if c.next.SubPhase == model.SubAwaitPowerTarget {
			return Outcome{Success: true}
		}
	}

	c.next.NominatedEngineerID = ""
	advanceDirector(c.next)
	c.next.CurrentPhase = model.PhaseTeamProposal
	c.next.SubPhase = model.SubAwaitNomination
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}
