package casting

// narratorCount returns the trial's narrator groups plus the cameo groups
// that already narrate.
func (r *run) narratorCount(t *trialConfiguration) int {
	return len(t.narratorGroups) + r.cameoNarrators
}

// better reports whether a beats b. A cast without gender mismatches wins;
// then the one whose worst conflict is further apart; then the one with more
// narrator groups.
func (r *run) better(a, b *trialConfiguration) bool {
	if b == nil {
		return a != nil
	}
	if a == nil {
		return false
	}
	if a.hasGenderMismatch != b.hasGenderMismatch {
		return !a.hasGenderMismatch
	}
	if c := a.worstProximity.Compare(b.worstProximity); c != 0 {
		return c > 0
	}
	return r.narratorCount(a) > r.narratorCount(b)
}

// isAcceptable reports whether t can be returned without a fallback pass.
func (r *run) isAcceptable(t *trialConfiguration) bool {
	return t != nil &&
		!t.hasGenderMismatch &&
		t.worstProximity.IsAcceptable() &&
		r.narratorCount(t) == r.targetFor(t)
}

// targetFor returns the number of narrator groups t must reach.
func (r *run) targetFor(t *trialConfiguration) int {
	if t.narratorTarget > 0 {
		return t.narratorTarget
	}
	return r.targetNarrators
}

// best returns the best trial. Ties keep the earliest trial, so the outcome
// does not depend on the order in which trials finished.
func (r *run) best(trials []*trialConfiguration) *trialConfiguration {
	var winner *trialConfiguration
	for _, t := range trials {
		if r.better(t, winner) {
			winner = t
		}
	}
	return winner
}
