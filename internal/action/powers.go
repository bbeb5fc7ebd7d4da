package action

import "github.com/secretagi/engine/internal/model"

// usePower resolves the front-most pending target-requiring power
// threshold: 3 or 6 (investigate loyalty, 3 is size-gated to 9-10p games),
// 9 (director override), or 11 (elimination). Multiple queued thresholds are
// resolved one per action, each consuming its own turn number, in the
// ascending order they were queued (spec.md §4.1 "Power triggers",
// invariant 10 in spec.md §8).
func (p *Processor) usePower(c *actionCtx, params map[string]any) Outcome {
	if o := requireSubPhase(c, model.SubAwaitPowerTarget); o != nil {
		return *o
	}
	if o := requireActorIs(c, currentDirector(c.next)); o != nil {
		return *o
	}
	if len(c.next.PendingPowerThresholds) == 0 {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "no power is awaiting a target"}
	}

	targetID, ok := paramString(params, "target_id")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "target_id is required"}
	}
	if o := requireAlive(c, targetID); o != nil {
		return *o
	}

	threshold := c.next.PendingPowerThresholds[0]
	c.next.PendingPowerThresholds = c.next.PendingPowerThresholds[1:]
	c.emit(newPowerTriggeredEvent(c.turn, threshold, targetID))

	switch threshold {
	case 3, 6:
		revealAllegiance(c.next, c.actorID, targetID)
	case 9:
		applyPowerNine(c.next, p.cfg.PowerNineMode, targetID)
	case 11:
		eliminatePlayer(c.next, targetID)
	}

	if over, winners := evaluateWin(c.next, false); over {
		c.next.IsGameOver = true
		c.next.Winners = winners
		c.emit(newGameEndedEvent(c.turn, winners))
		return Outcome{Success: true}
	}

	if len(c.next.PendingPowerThresholds) == 0 {
		finishResearchRound(c)
	}
	return Outcome{Success: true}
}

// applyPowerNine resolves the C=9 power per the configured mode. The only
// implemented mode, DirectorOverride, sets the next director seat directly
// rather than handing out a one-shot "special election" card.
func applyPowerNine(gs *model.GameState, mode model.PowerNineMode, targetID string) {
	if mode == model.PowerNineDirectorOverride {
		gs.NextDirectorOverrideID = targetID
	}
}

func eliminatePlayer(gs *model.GameState, targetID string) {
	idx := findPlayerIndex(gs.Players, targetID)
	if idx >= 0 {
		gs.Players[idx].Alive = false
	}
}
