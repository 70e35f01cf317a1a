package casting

import (
	"cmp"
	"context"
	"slices"

	"github.com/sillsdev/Glyssen-sub016/internal/observe"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// trialSpec parameterises one trial configuration.
type trialSpec struct {
	maleNarrators   int
	femaleNarrators int

	// relaxed lets groups that already hold ordinary characters take
	// narrator and extra-biblical roles.
	relaxed bool

	// favorFemale picks the gender for roles dramatized by an actor of
	// either gender.
	favorFemale bool
}

// trialConfiguration is one complete candidate cast. Each trial owns deep
// copies of the base groups, so trials never share mutable state.
type trialConfiguration struct {
	index int
	spec  trialSpec

	groups []*CharacterGroup
	placed map[string]*CharacterGroup

	narratorGroups []*CharacterGroup
	narratorFor    map[string]*CharacterGroup

	// narratorTarget overrides the run's narrator target when non-zero.
	narratorTarget int

	bookTitleChapterGroup *CharacterGroup
	sectionHeadGroup      *CharacterGroup
	bookIntroductionGroup *CharacterGroup

	worstGroup        *CharacterGroup
	worstProximity    proximity.Proximity
	hasGenderMismatch bool
}

func newTrial(index int, spec trialSpec, base []*CharacterGroup, threshold int) *trialConfiguration {
	t := &trialConfiguration{
		index:          index,
		spec:           spec,
		groups:         make([]*CharacterGroup, len(base)),
		placed:         make(map[string]*CharacterGroup),
		narratorFor:    make(map[string]*CharacterGroup),
		worstProximity: proximity.Perfect(threshold),
	}
	for i, g := range base {
		c := g.Copy()
		t.groups[i] = c
		for id := range c.CharacterIDs {
			t.placed[id] = c
		}
	}
	return t
}

func (t *trialConfiguration) isPlaced(characterID string) bool {
	_, ok := t.placed[characterID]
	return ok
}

func (t *trialConfiguration) isNarratorGroup(g *CharacterGroup) bool {
	return slices.Contains(t.narratorGroups, g)
}

func (t *trialConfiguration) isRoleGroup(g *CharacterGroup) bool {
	return g == t.bookTitleChapterGroup || g == t.sectionHeadGroup || g == t.bookIntroductionGroup
}

func (t *trialConfiguration) roleGroup(st types.StandardType) *CharacterGroup {
	switch st {
	case types.BookOrChapter:
		return t.bookTitleChapterGroup
	case types.ExtraBiblical:
		return t.sectionHeadGroup
	case types.Intro:
		return t.bookIntroductionGroup
	}
	return nil
}

func (t *trialConfiguration) setRoleGroup(st types.StandardType, g *CharacterGroup) {
	switch st {
	case types.BookOrChapter:
		t.bookTitleChapterGroup = g
	case types.ExtraBiblical:
		t.sectionHeadGroup = g
	case types.Intro:
		t.bookIntroductionGroup = g
	}
}

// place adds characterID to g and keeps the trial's bookkeeping current.
func (r *run) place(t *trialConfiguration, characterID string, g *CharacterGroup) {
	g.add(characterID)
	t.placed[characterID] = g
	if !g.Cameo && r.g.matcher.GenderQuality(g.actor, r.details[characterID]) == Mismatch {
		t.hasGenderMismatch = true
	}
}

// ageRank orders actors for narration and deity roles: adults first, then
// elders and young adults.
func ageRank(a types.ActorAge) int {
	switch a {
	case types.ActorAdult, "":
		return 0
	case types.ActorElder:
		return 1
	case types.ActorYoungAdult:
		return 2
	}
	return 3
}

func byAgePreference(groups []*CharacterGroup) []*CharacterGroup {
	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b *CharacterGroup) int {
		return cmp.Compare(ageRank(a.actor.Age), ageRank(b.actor.Age))
	})
	return sorted
}

// eligibleForNarration returns the groups that may take a narrator or
// extra-biblical role.
func eligibleForNarration(groups []*CharacterGroup, relaxed bool) []*CharacterGroup {
	var out []*CharacterGroup
	for _, g := range groups {
		if g.Closed || g.actor.IsChild() {
			continue
		}
		if !relaxed && g.hasNonStandardCharacters() {
			continue
		}
		out = append(out, g)
	}
	return out
}

// buildTrial populates one trial configuration from the base groups.
func (r *run) buildTrial(ctx context.Context, index int, base []*CharacterGroup, spec trialSpec) (*trialConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	ctx, span := observe.StartSpan(ctx, "casting.trial",
		attribute.Int("trial", index),
		attribute.Int("male_narrators", spec.maleNarrators),
		attribute.Int("female_narrators", spec.femaleNarrators),
		attribute.Bool("relaxed", spec.relaxed),
		attribute.Bool("favor_female", spec.favorFemale),
	)
	defer span.End()

	t := newTrial(index, spec, base, r.g.threshold)
	eligible := eligibleForNarration(t.groups, spec.relaxed)

	switch {
	case len(eligible) == 1:
		only := eligible[0]
		if len(r.remainingBooks) > 0 {
			t.narratorGroups = []*CharacterGroup{only}
			r.distributeBooks(t)
		}
		for _, st := range extraBiblicalRoles {
			if r.prefs.policyFor(st) != Omitted {
				t.setRoleGroup(st, only)
			}
		}
	case len(r.authors) > 1 && len(eligible) == len(r.authors):
		// One narrator per author, whatever the requested count.
		t.narratorGroups = byAgePreference(eligible)
		t.narratorTarget = r.cameoNarrators + len(r.authors)
		r.distributeBooks(t)
		r.placeExtraBiblicalRoles(t, eligible)
	default:
		t.narratorGroups = selectNarrators(eligible, spec.maleNarrators, spec.femaleNarrators)
		if len(t.narratorGroups) == 0 && len(r.remainingBooks) > 0 && len(eligible) > 0 {
			t.narratorGroups = byAgePreference(eligible)[:1]
		}
		if len(t.narratorGroups) > len(r.remainingBooks) {
			t.narratorGroups = t.narratorGroups[:len(r.remainingBooks)]
		}
		r.distributeBooks(t)
		r.placeExtraBiblicalRoles(t, eligible)
	}
	if len(r.remainingBooks) > 0 && len(t.narratorGroups) == 0 {
		return nil, ErrNoNarratorGroups
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	leftovers := r.placeStandardCharacters(t)
	r.placeDeityCharacters(t)

	for _, c := range leftovers {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		if err := r.assignToBestGroup(ctx, t, c); err != nil {
			return nil, err
		}
	}
	for _, c := range r.order {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		if t.isPlaced(c) {
			continue
		}
		if err := r.assignToBestGroup(ctx, t, c); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("narrator_groups", len(t.narratorGroups)),
		attribute.Int("worst_proximity", t.worstProximity.Blocks),
		attribute.Bool("gender_mismatch", t.hasGenderMismatch),
	)
	observe.Logger(ctx).Debug("casting: trial evaluated",
		"trial", index,
		"relaxed", spec.relaxed,
		"narrators", len(t.narratorGroups),
		"worst_proximity", t.worstProximity.String(),
		"gender_mismatch", t.hasGenderMismatch,
	)
	return t, nil
}

// selectNarrators fills the male and female narrator buckets from eligible
// groups, adults first.
func selectNarrators(eligible []*CharacterGroup, male, female int) []*CharacterGroup {
	var out []*CharacterGroup
	var m, f int
	for _, g := range byAgePreference(eligible) {
		if m >= male && f >= female {
			break
		}
		switch g.actor.Gender {
		case types.ActorMale:
			if m < male {
				out = append(out, g)
				m++
			}
		case types.ActorFemale:
			if f < female {
				out = append(out, g)
				f++
			}
		}
	}
	return out
}

// rolePolicyGenders returns the actor genders to try, in order, for policy.
func rolePolicyGenders(policy RolePolicy, favorFemale bool) []types.ActorGender {
	switch policy {
	case MaleActor:
		return []types.ActorGender{types.ActorMale, types.ActorFemale}
	case FemaleActor:
		return []types.ActorGender{types.ActorFemale, types.ActorMale}
	case ActorOfEitherGender:
		if favorFemale {
			return []types.ActorGender{types.ActorFemale, types.ActorMale}
		}
		return []types.ActorGender{types.ActorMale, types.ActorFemale}
	}
	return nil
}

// placeExtraBiblicalRoles chooses the target group of each extra-biblical
// role. Roles with identical policies share a group; roles read by the
// narrator, or for which no group is available, keep a nil target.
func (r *run) placeExtraBiblicalRoles(t *trialConfiguration, eligible []*CharacterGroup) {
	byPolicy := make(map[RolePolicy]*CharacterGroup)
	taken := make(map[*CharacterGroup]bool)
	candidates := byAgePreference(eligible)

	for _, st := range extraBiblicalRoles {
		policy := r.prefs.policyFor(st)
		if policy == Omitted || policy == ByNarrator {
			continue
		}
		if g, ok := byPolicy[policy]; ok {
			t.setRoleGroup(st, g)
			continue
		}
		var target *CharacterGroup
	search:
		for _, gender := range rolePolicyGenders(policy, t.spec.favorFemale) {
			for _, g := range candidates {
				if g.actor.Gender == gender && !taken[g] && !t.isNarratorGroup(g) {
					target = g
					break search
				}
			}
		}
		if target != nil {
			byPolicy[policy] = target
			taken[target] = true
			t.setRoleGroup(st, target)
		}
	}
}

// placeStandardCharacters sweeps every unplaced narrator, book/chapter,
// section head and introduction character into its target group. It returns
// the characters that have no target and must go through general assignment.
func (r *run) placeStandardCharacters(t *trialConfiguration) []string {
	var leftovers []string
	for _, c := range r.project.Characters {
		if t.isPlaced(c) {
			continue
		}
		st, book, ok := types.ParseStandardCharacterID(c)
		if !ok {
			continue
		}
		var target *CharacterGroup
		if st != types.Narrator {
			target = t.roleGroup(st)
		}
		if target == nil {
			target = t.narratorFor[book]
		}
		if target == nil && len(t.narratorGroups) > 0 {
			target = t.narratorGroups[0]
		}
		if target == nil {
			leftovers = append(leftovers, c)
			continue
		}
		r.place(t, c, target)
	}
	return leftovers
}
