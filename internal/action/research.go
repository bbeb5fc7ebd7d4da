package action

import (
	"math/rand"

	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/pkg/rules"
)

// drawForResearch deals n papers off the top of the deck, reshuffling the
// discard pile back into the deck first if it doesn't hold enough. The
// reshuffle uses a deterministic, turn-seeded source so replay from a
// snapshot reproduces the identical draw (spec.md §4.1 "Deck exhaustion").
// exhausted is true when even a post-reshuffle deck can't supply n cards;
// the caller must treat that as a deck-exhaustion moment rather than hand
// out a short draw.
func drawForResearch(gs *model.GameState, n int) (drawn []model.Paper, exhausted bool) {
	if len(gs.Deck) < n && len(gs.Discard) > 0 {
		rng := rand.New(rand.NewSource(int64(gs.TurnNumber)))
		gs.Deck = append(gs.Deck, rules.Shuffle(gs.Discard, rng)...)
		gs.Discard = nil
	}
	if len(gs.Deck) < n {
		drawn = append([]model.Paper(nil), gs.Deck...)
		gs.Deck = nil
		return drawn, true
	}
	drawn = append([]model.Paper(nil), gs.Deck[:n]...)
	gs.Deck = gs.Deck[n:]
	return drawn, false
}

// resolveDeckExhaustion evaluates the win conditions at a deck-exhaustion
// moment (spec.md §4.1: "if deck is empty at any point where the engine
// would otherwise need to draw or conclude a round"). The comparison is
// always decisive: safety >= capability gives Safety the win, otherwise
// Evil wins.
func resolveDeckExhaustion(c *actionCtx) {
	if over, winners := evaluateWin(c.next, true); over {
		c.next.IsGameOver = true
		c.next.Winners = winners
		c.emit(newGameEndedEvent(c.turn, winners))
	}
}

// discardPaper is the director's choice among the three research cards:
// one is discarded face-down, leaving two for the engineer.
func (p *Processor) discardPaper(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseResearch); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitDirectorDiscard); o != nil {
		return *o
	}
	if o := requireActorIs(c, currentDirector(c.next)); o != nil {
		return *o
	}

	paperID, ok := paramString(params, "paper_id")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "paper_id is required"}
	}

	idx, found := -1, false
	for i, card := range c.next.DirectorCards {
		if card.ID == paperID {
			idx, found = i, true
			break
		}
	}
	if !found {
		return Outcome{Success: false, ErrorCode: model.ErrUnknownPaper, ErrorMessage: "paper_id is not among the director's cards"}
	}

	discarded := c.next.DirectorCards[idx]
	remaining := make([]model.Paper, 0, 2)
	for i, card := range c.next.DirectorCards {
		if i != idx {
			remaining = append(remaining, card)
		}
	}

	c.next.Discard = append(c.next.Discard, discarded)
	c.next.EngineerCards = remaining
	c.next.DirectorCards = nil
	c.next.SubPhase = model.SubAwaitEngineerDecision
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	return Outcome{Success: true}
}

// publishPaper is the engineer's choice between the two remaining cards.
// The chosen paper's deltas are applied to the board, the unchosen paper is
// discarded, power thresholds crossed are queued, and win conditions are
// re-evaluated immediately. The auto-publish after three failed proposals
// does not come through here; autoPublishTopCard calls applyPublication
// directly.
func (p *Processor) publishPaper(c *actionCtx, params map[string]any) Outcome {
	if o := requirePhase(c, model.PhaseResearch); o != nil {
		return *o
	}
	if o := requireSubPhase(c, model.SubAwaitEngineerDecision); o != nil {
		return *o
	}
	if o := requireActorIs(c, c.next.NominatedEngineerID); o != nil {
		return *o
	}

	paperID, ok := paramString(params, "paper_id")
	if !ok {
		return Outcome{Success: false, ErrorCode: model.ErrInternal, ErrorMessage: "paper_id is required"}
	}

	idx, found := -1, false
	for i, card := range c.next.EngineerCards {
		if card.ID == paperID {
			idx, found = i, true
			break
		}
	}
	if !found {
		return Outcome{Success: false, ErrorCode: model.ErrUnknownPaper, ErrorMessage: "paper_id is not among the engineer's cards"}
	}

	chosen := c.next.EngineerCards[idx]
	for i, card := range c.next.EngineerCards {
		if i != idx {
			c.next.Discard = append(c.next.Discard, card)
		}
	}
	c.next.EngineerCards = nil

	applyPublication(c, chosen, c.next.NominatedEngineerID, false)
	if c.next.IsGameOver {
		return Outcome{Success: true}
	}

	if c.next.SubPhase == model.SubAwaitPowerTarget {
		return Outcome{Success: true}
	}
	finishResearchRound(c)
	return Outcome{Success: true}
}

// applyPublication adds paper's deltas to the board, records it as
// published, queues any power thresholds crossed, and checks for an
// immediate win. If a target-requiring power is pending, SubPhase is set to
// await_power_target and the caller must not advance the round yet.
func applyPublication(c *actionCtx, paper model.Paper, actorID string, autopublish bool) {
	cOld := c.next.Capability
	capDelta := paper.Capability
	if c.next.EmergencySafetyActive {
		capDelta--
		if capDelta < 0 {
			capDelta = 0
		}
	}
	c.next.Capability += capDelta
	c.next.Safety += paper.Safety
	c.next.EmergencySafetyActive = false
	c.next.PublishedPapers = append(c.next.PublishedPapers, paper)
	c.emit(newPaperPublishedEvent(c.turn, actorID, paper, autopublish))

	thresholds := rules.TriggeredPowers(cOld, c.next.Capability, len(c.next.Players))

	if overNow, winners := evaluateWin(c.next, false); overNow {
		c.next.IsGameOver = true
		c.next.Winners = winners
		c.emit(newGameEndedEvent(c.turn, winners))
		return
	}

	if len(thresholds) == 0 {
		return
	}

	immediate, queued := splitThresholds(thresholds)
	for _, t := range immediate {
		applyImmediatePower(c, t)
		if c.next.IsGameOver {
			return
		}
	}
	if len(queued) > 0 {
		c.next.PendingPowerThresholds = queued
		c.next.SubPhase = model.SubAwaitPowerTarget
		c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
	}
}

// splitThresholds separates thresholds that require a target (3 and 6
// investigate, 9 director override, 11 elimination) from those that resolve
// without one (10 and 12, the permanent flags), preserving ascending order.
func splitThresholds(thresholds []int) (immediate, queued []int) {
	targetRequired := map[int]bool{3: true, 6: true, 9: true, 11: true}
	for _, t := range thresholds {
		if targetRequired[t] {
			queued = append(queued, t)
		} else {
			immediate = append(immediate, t)
		}
	}
	return immediate, queued
}

// applyImmediatePower executes a power threshold that needs no target: 10
// permanently sets agi_must_reveal, 12 permanently sets veto_unlocked. Both
// flags, once set, stay true for the rest of the game (spec.md §8
// invariant 8).
func applyImmediatePower(c *actionCtx, threshold int) {
	c.emit(newPowerTriggeredEvent(c.turn, threshold, ""))
	switch threshold {
	case 10:
		c.next.AGIMustReveal = true
	case 12:
		c.next.VetoUnlocked = true
	}
}

func findAGI(players []model.Player) string {
	for _, p := range players {
		if p.Role == model.RoleAGI {
			return p.ID
		}
	}
	return ""
}

func revealAllegiance(gs *model.GameState, viewerID, targetID string) {
	if viewerID == "" || targetID == "" {
		return
	}
	target, ok := findPlayer(gs.Players, targetID)
	if !ok {
		return
	}
	if gs.ViewedAllegiances == nil {
		gs.ViewedAllegiances = map[string]map[string]model.Allegiance{}
	}
	if gs.ViewedAllegiances[viewerID] == nil {
		gs.ViewedAllegiances[viewerID] = map[string]model.Allegiance{}
	}
	gs.ViewedAllegiances[viewerID][targetID] = target.Allegiance
}

// finishResearchRound rotates to the next team proposal once a publication
// (and all its queued powers) is settled. veto_unlocked is not touched here:
// it is a one-way flag set permanently by the C=12 power (spec.md §8
// invariant 8).
func finishResearchRound(c *actionCtx) {
	c.next.NominatedEngineerID = ""
	advanceDirector(c.next)
	c.next.CurrentPhase = model.PhaseTeamProposal
	c.next.SubPhase = model.SubAwaitNomination
	c.emit(newPhaseTransitionEvent(c.turn, c.next.CurrentPhase, c.next.SubPhase))
}

// evaluateWin wraps rules.EvaluateWinConditions with state-derived context:
// whether the AGI has been eliminated and whether the deck and discard are
// both empty (spec.md §4.1 "Win conditions"). The AGI-as-engineer win is
// not checked here; onTeamApproved checks it when the team is approved.
func evaluateWin(gs *model.GameState, deckExhaustion bool) (bool, []model.Role) {
	agiEliminated := true
	for _, p := range gs.Players {
		if p.Role == model.RoleAGI && p.Alive {
			agiEliminated = false
		}
	}
	return rules.EvaluateWinConditions(rules.WinCheckInput{
		Capability:           gs.Capability,
		Safety:               gs.Safety,
		DeckEmpty:            len(gs.Deck) == 0 && len(gs.Discard) == 0,
		DeckExhaustionMoment: deckExhaustion,
		AGIEliminated:        agiEliminated,
	})
}
