package rules

import (
	"fmt"
	"math/rand"

	"github.com/secretagi/engine/internal/model"
)

// deckComposition is the canonical 17-paper deck (spec.md §4.1): three
// (0,2) papers, two each of the remaining seven (capability, safety) pairs.
var deckComposition = []struct {
	capability, safety, count int
}{
	{0, 2, 3},
	{1, 2, 2},
	{1, 3, 2},
	{1, 1, 2},
	{2, 2, 2},
	{3, 0, 2},
	{2, 1, 2},
	{3, 1, 2},
}

// NewDeck builds the 17-card deck in canonical (unshuffled) order, with
// stable ids taken from each card's position in that order (paper-00 to
// paper-16), so a card keeps its id however the deck is later shuffled.
func NewDeck() []model.Paper {
	deck := make([]model.Paper, 0, 17)
	id := 0
	for _, c := range deckComposition {
		for i := 0; i < c.count; i++ {
			deck = append(deck, model.Paper{
				ID:         paperID(id),
				Capability: c.capability,
				Safety:     c.safety,
			})
			id++
		}
	}
	return deck
}

// Shuffle returns a new slice with the papers in papers shuffled by rng.
// The input is never mutated.
func Shuffle(papers []model.Paper, rng *rand.Rand) []model.Paper {
	out := make([]model.Paper, len(papers))
	copy(out, papers)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// TotalPaperCount is the invariant total across deck + discard + any draw
// buffers + published contributions (spec.md §3, §8 invariant 2).
const TotalPaperCount = 17

func paperID(i int) string {
	return fmt.Sprintf("paper-%02d", i)
}
