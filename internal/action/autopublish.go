package action

// autoPublishTopCard publishes the top card of the deck unconditionally,
// the penalty for three consecutive failed proposals (spec.md §4.1
// "Auto-publish"). It shares applyPublication with the engineer's manual
// choice so deltas, power triggers, and win checks run identically either
// way; it differs only in never leaving a card in the engineer's hand.
func autoPublishTopCard(c *actionCtx) {
	top, exhausted := drawForResearch(c.next, 1)
	if exhausted {
		resolveDeckExhaustion(c)
		return
	}
	applyPublication(c, top[0], "", true)
}
