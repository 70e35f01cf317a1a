package casting

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

// Proximity weightings per match-quality bucket. Lower-quality buckets divide
// the block distance by a larger factor, so they only win when better
// buckets conflict badly. The values are empirically tuned.
const (
	weightPerfectGender    = 1.0
	weightAcceptableGender = 1.1
	weightMismatchGender   = 2.3
	weightMismatchGenderA  = 2.4
	weightMismatchGenderP  = 2.5
	weightPerfectMismatch  = 2.7
	weightAcceptMismatch   = 2.9
	weightMismatchMismatch = 3.2
)

// tier is one bucket of the assignment fallback order.
type tier struct {
	quality MatchQuality
	weight  float64
}

// tiers lists the buckets in the order they are scanned. Qualities missing
// from this table are scanned after it with the last weight.
var tiers = []tier{
	{MatchQuality{Perfect, Perfect}, weightPerfectGender},
	{MatchQuality{Perfect, Acceptable}, weightPerfectGender},
	{MatchQuality{Perfect, Poor}, weightPerfectGender},
	{MatchQuality{Acceptable, Perfect}, weightAcceptableGender},
	{MatchQuality{Acceptable, Acceptable}, weightAcceptableGender},
	{MatchQuality{Acceptable, Poor}, weightAcceptableGender},
	{MatchQuality{Poor, Poor}, weightAcceptableGender},
	{MatchQuality{Mismatch, Perfect}, weightMismatchGender},
	{MatchQuality{Mismatch, Acceptable}, weightMismatchGenderA},
	{MatchQuality{Mismatch, Poor}, weightMismatchGenderP},
	{MatchQuality{Perfect, Mismatch}, weightPerfectMismatch},
	{MatchQuality{Acceptable, Mismatch}, weightAcceptMismatch},
	{MatchQuality{Mismatch, Mismatch}, weightMismatchMismatch},
}

// orderedTiers returns the tier table followed by any bucket of quals not
// listed in it, at the last tier's weight.
func orderedTiers(quals map[MatchQuality][]*CharacterGroup) []tier {
	out := slices.Clone(tiers)
	listed := make(map[MatchQuality]bool, len(tiers))
	for _, t := range tiers {
		listed[t.quality] = true
	}
	var rest []MatchQuality
	for q := range maps.Keys(quals) {
		if !listed[q] {
			rest = append(rest, q)
		}
	}
	slices.SortFunc(rest, func(a, b MatchQuality) int {
		if c := cmp.Compare(a.Gender, b.Gender); c != 0 {
			return c
		}
		return cmp.Compare(a.Age, b.Age)
	})
	last := tiers[len(tiers)-1].weight
	for _, q := range rest {
		out = append(out, tier{q, last})
	}
	return out
}

// candidateGroups returns the groups a character may be placed into.
func candidateGroups(t *trialConfiguration) []*CharacterGroup {
	var open, nonCameo []*CharacterGroup
	for _, g := range t.groups {
		if g.Cameo {
			continue
		}
		nonCameo = append(nonCameo, g)
		if !g.Closed {
			open = append(open, g)
		}
	}
	if len(open) > 0 {
		return open
	}
	return nonCameo
}

// narrow drops groups graded Mismatch by level as long as at least one
// other group remains.
func narrow(groups []*CharacterGroup, level func(*CharacterGroup) MatchLevel) []*CharacterGroup {
	kept := slices.DeleteFunc(slices.Clone(groups), func(g *CharacterGroup) bool {
		return level(g) == Mismatch
	})
	if len(kept) == 0 {
		return groups
	}
	return kept
}

// assignToBestGroup places characterID in the lowest-conflict group of the
// best match-quality bucket that yields a good enough proximity.
func (r *run) assignToBestGroup(ctx context.Context, t *trialConfiguration, characterID string) error {
	groups := candidateGroups(t)
	if len(groups) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAvailableGroup, characterID)
	}
	detail := r.details[characterID]
	m := r.g.matcher

	groups = narrow(groups, func(g *CharacterGroup) MatchLevel { return m.GenderQuality(g.actor, detail) })
	if detail.Age == types.AgeElder || (detail.Age == types.AgeAdult && detail.Gender.IsMaleLeaning()) {
		groups = narrow(groups, func(g *CharacterGroup) MatchLevel { return m.AgeQuality(g.actor, detail) })
	}

	buckets := make(map[MatchQuality][]*CharacterGroup)
	for _, g := range groups {
		q := Quality(m, g.actor, detail)
		buckets[q] = append(buckets[q], g)
	}

	var (
		best     *CharacterGroup
		bestProx proximity.Proximity
		bestTier MatchQuality
	)
	for _, tr := range orderedTiers(buckets) {
		bucket := buckets[tr.quality]
		if len(bucket) == 0 {
			continue
		}
		for _, g := range bucket {
			p := r.g.proximity.MinimumProximity(g.withCharacter(characterID)).WithWeighting(tr.weight)
			if best == nil || p.IsBetterThan(bestProx) {
				best, bestProx, bestTier = g, p, tr.quality
			}
		}
		if bestProx.IsAcceptable() || r.g.goodEnough(bestProx, t.worstProximity) {
			break
		}
	}

	r.place(t, characterID, best)
	if t.worstProximity.IsBetterThan(bestProx) {
		t.worstProximity = bestProx
		t.worstGroup = best
	}
	for _, s := range r.g.catalog.SiblingsOf(characterID, SameCharacter) {
		if r.inProject[s] && !t.isPlaced(s) {
			r.place(t, s, best)
		}
	}
	r.g.metrics.RecordAssignment(ctx, bestTier.String())
	return nil
}

// goodEnough reports whether p is no worse than the trial's current worst,
// which makes scanning lower buckets pointless.
func (g *Generator) goodEnough(p, worst proximity.Proximity) bool {
	if g.stopOnEqualWorst {
		return p.IsBetterThanOrEqualTo(worst)
	}
	return p.IsBetterThan(worst)
}
