package engine

import (
	"math/rand"

	"github.com/secretagi/engine/internal/model"
)

// Policy selects the next action for an actor during simulate_to_completion.
// Grounded on the teacher's bot.Strategy interface and
// bot.StrategyForDifficulty factory (api/internal/bot/strategy.go), which
// pick per-phase orders for a bot power; narrowed here to the single
// reference implementation spec.md calls for ("asks the policy, e.g.
// random, for an action") with no learned or externally hosted difficulty
// tiers.
type Policy interface {
	NextAction(view FilteredState, actorID string, validActions []model.ActionKind) (model.ActionKind, map[string]any)
}

// RandomPolicy picks uniformly among an actor's valid actions, skipping the
// two optional interrupts (call_emergency_safety, declare_veto) so a
// simulated game always converges instead of occasionally stalling on an
// optional sub-protocol neither side benefits from forcing. It also skips
// send_chat_message and observe, and returns observe only when nothing
// else is left.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a RandomPolicy seeded deterministically, so two
// simulate_to_completion runs against the same game seed produce the same
// playout.
func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) NextAction(view FilteredState, _ string, validActions []model.ActionKind) (model.ActionKind, map[string]any) {
	choices := make([]model.ActionKind, 0, len(validActions))
	for _, k := range validActions {
		switch k {
		case model.ActionCallEmergencySafety, model.ActionDeclareVeto, model.ActionSendChatMessage, model.ActionObserve:
			continue
		}
		choices = append(choices, k)
	}
	if len(choices) == 0 {
		return model.ActionObserve, nil
	}
	kind := choices[p.rng.Intn(len(choices))]
	return kind, p.paramsFor(kind, view)
}

func (p *RandomPolicy) paramsFor(kind model.ActionKind, view FilteredState) map[string]any {
	switch kind {
	case model.ActionNominate:
		eligible := eligibleNominees(view)
		if len(eligible) == 0 {
			return map[string]any{"target_id": view.CurrentDirectorID}
		}
		return map[string]any{"target_id": eligible[p.rng.Intn(len(eligible))]}
	case model.ActionVoteTeam, model.ActionVoteEmergency:
		return map[string]any{"approve": p.rng.Intn(2) == 0}
	case model.ActionDiscardPaper, model.ActionPublishPaper:
		if len(view.Hand) == 0 {
			return nil
		}
		return map[string]any{"paper_id": view.Hand[p.rng.Intn(len(view.Hand))].ID}
	case model.ActionRespondVeto:
		return map[string]any{"agree": p.rng.Intn(2) == 0}
	case model.ActionUsePower:
		alive := alivePlayerIDs(view)
		if len(alive) == 0 {
			return nil
		}
		return map[string]any{"target_id": alive[p.rng.Intn(len(alive))]}
	default:
		return nil
	}
}

func eligibleNominees(view FilteredState) []string {
	var out []string
	for _, pl := range view.Players {
		if pl.Alive && !pl.WasLastEngineer {
			out = append(out, pl.ID)
		}
	}
	return out
}

func alivePlayerIDs(view FilteredState) []string {
	var out []string
	for _, pl := range view.Players {
		if pl.Alive {
			out = append(out, pl.ID)
		}
	}
	return out
}
