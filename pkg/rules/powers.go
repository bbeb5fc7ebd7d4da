package rules

// PowerThresholds lists every threshold that can trigger a power, in
// ascending order. 3 and 11 are size-gated to 9-10 player games.
var PowerThresholds = []int{3, 6, 9, 10, 11, 12}

// sizeGatedThresholds are only active in 9-10 player games (spec.md §4.1).
var sizeGatedThresholds = map[int]bool{3: true, 11: true}

// TriggeredPowers returns the thresholds in PowerThresholds that are
// strictly greater than cOld and less-than-or-equal-to cNew, in ascending
// order, filtered by the player-count size gate. This is the exact
// definition in spec.md §4.1 ("Power triggers") and §4.2 ("strictly
// ascending threshold order and only for thresholds in (c_old, c_new]",
// invariant 10 in spec.md §8).
func TriggeredPowers(cOld, cNew, playerCount int) []int {
	gated := SizeGated9_11(playerCount)
	var out []int
	for _, t := range PowerThresholds {
		if sizeGatedThresholds[t] && !gated {
			continue
		}
		if t > cOld && t <= cNew {
			out = append(out, t)
		}
	}
	return out
}
