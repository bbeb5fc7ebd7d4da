package action

import (
	"fmt"
	"math/rand"

	"github.com/secretagi/engine/internal/model"
	"github.com/secretagi/engine/pkg/rules"
)

// NewGame builds the initial GameState for a fresh game: assigns roles,
// shuffles the deck, and seats the starting director, all deterministically
// from cfg.Seed (spec.md §4.1 "Game setup").
func NewGame(gameID string, cfg model.GameConfig) (*model.GameState, error) {
	n := len(cfg.PlayerIDs)
	if n < 5 || n > 10 {
		return nil, fmt.Errorf("action: player count %d out of range [5,10]", n)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	players, err := rules.AssignRoles(cfg.PlayerIDs, rng)
	if err != nil {
		return nil, err
	}

	deck := rules.Shuffle(rules.NewDeck(), rng)
	director := rules.ChooseStartingDirector(n, rng)

	return &model.GameState{
		GameID:               gameID,
		TurnNumber:           0,
		RoundNumber:          1,
		Players:              players,
		Capability:           0,
		Safety:               0,
		Deck:                 deck,
		CurrentDirectorIndex: director,
		CurrentPhase:         model.PhaseTeamProposal,
		SubPhase:             model.SubAwaitNomination,
		ViewedAllegiances:    map[string]map[string]model.Allegiance{},
	}, nil
}
