package casting

import (
	"cmp"
	"slices"
	"strconv"
)

// finalize turns the winning trial into the returned cast: transient locks
// are lifted, non-real actor assignments cleared, empty groups dropped,
// previous actors re-attached and the groups renumbered.
func (r *run) finalize(t *trialConfiguration, previous []CharacterGroup) []*CharacterGroup {
	var out []*CharacterGroup
	for _, g := range t.groups {
		if !g.Cameo {
			g.Closed = false
		}
		if g.HasActor() && !r.real[g.ActorID] {
			g.clearActor()
		}
		if g.Len() == 0 && !(g.Cameo && g.HasActor()) {
			continue
		}
		out = append(out, g)
	}

	r.reattach(out, previous)
	r.sortAndNumber(out)
	return out
}

// reattach restores previous actor assignments. Characters are walked from
// the largest workload down; an actor returns to the new group holding the
// character when that group is still unassigned and the actor is active,
// not a cameo and not already cast.
func (r *run) reattach(groups []*CharacterGroup, previous []CharacterGroup) {
	if len(previous) == 0 {
		return
	}
	prevActor := make(map[string]int)
	for _, pg := range previous {
		if !pg.HasActor() {
			continue
		}
		for c := range pg.CharacterIDs {
			prevActor[c] = pg.ActorID
		}
	}

	used := make(map[int]bool)
	holder := make(map[string]*CharacterGroup)
	for _, g := range groups {
		if g.HasActor() {
			used[g.ActorID] = true
		}
		for c := range g.CharacterIDs {
			holder[c] = g
		}
	}

	chars := slices.Clone(r.project.Characters)
	slices.SortStableFunc(chars, func(a, b string) int {
		if c := cmp.Compare(r.keystrokes[b], r.keystrokes[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for _, c := range chars {
		actorID, ok := prevActor[c]
		if !ok || used[actorID] {
			continue
		}
		a, ok := r.reattachable[actorID]
		if !ok {
			continue
		}
		g := holder[c]
		if g == nil || g.HasActor() {
			continue
		}
		g.assignActor(a)
		used[actorID] = true
	}
}

func (r *run) groupKeystrokes(g *CharacterGroup) int {
	total := 0
	for c := range g.CharacterIDs {
		total += r.keystrokes[c]
	}
	return total
}

// sortAndNumber orders groups by workload and numbers the non-cameo groups
// 1..n, skipping IDs already taken by cameo groups.
func (r *run) sortAndNumber(groups []*CharacterGroup) {
	load := make(map[*CharacterGroup]int, len(groups))
	first := make(map[*CharacterGroup]string, len(groups))
	for _, g := range groups {
		load[g] = r.groupKeystrokes(g)
		if ids := g.Characters(); len(ids) > 0 {
			first[g] = ids[0]
		}
	}
	slices.SortStableFunc(groups, func(a, b *CharacterGroup) int {
		if c := cmp.Compare(load[b], load[a]); c != 0 {
			return c
		}
		return cmp.Compare(first[a], first[b])
	})

	taken := make(map[string]bool)
	for _, g := range groups {
		if g.Cameo {
			taken[g.ID] = true
		}
	}
	next := 1
	for _, g := range groups {
		if g.Cameo {
			continue
		}
		for taken[strconv.Itoa(next)] {
			next++
		}
		g.ID = strconv.Itoa(next)
		next++
	}
}
