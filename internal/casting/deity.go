package casting

import "github.com/sillsdev/Glyssen-sub016/pkg/types"

// deityPartition maps a minimum number of qualifying groups to the way the
// deity and scripture characters are split among them. Rows are ordered from
// the finest split down; the first row whose threshold is met wins.
type deityPartition struct {
	minGroups int
	sets      [][]string
}

var deityTable = []deityPartition{
	{17, [][]string{{types.Jesus}, {types.God}, {types.HolySpirit}, {types.Scripture}}},
	{7, [][]string{{types.Jesus}, {types.God, types.Scripture}, {types.HolySpirit}}},
	{4, [][]string{{types.Jesus}, {types.God, types.HolySpirit, types.Scripture}}},
	{1, [][]string{{types.Jesus, types.God, types.HolySpirit, types.Scripture}}},
}

// deityPartitionFor returns the partition for the given number of
// qualifying groups, or nil when there are none.
func deityPartitionFor(available int) [][]string {
	for _, row := range deityTable {
		if available >= row.minGroups {
			return row.sets
		}
	}
	return nil
}

// deityCandidates returns the open, empty, adult-voiced male groups that
// hold neither a narrator nor an extra-biblical role, in age-preference
// order.
func (t *trialConfiguration) deityCandidates() []*CharacterGroup {
	var out []*CharacterGroup
	for _, g := range t.groups {
		if g.Closed || g.Cameo || g.Len() > 0 || t.isNarratorGroup(g) || t.isRoleGroup(g) {
			continue
		}
		if g.actor.Gender != types.ActorMale || g.actor.IsChild() {
			continue
		}
		out = append(out, g)
	}
	return byAgePreference(out)
}

// placeDeityCharacters puts each set of the selected partition into its own
// qualifying group and closes that group. Sets with no unplaced project
// character consume no group.
func (r *run) placeDeityCharacters(t *trialConfiguration) {
	candidates := t.deityCandidates()
	next := 0
	for _, set := range deityPartitionFor(len(candidates)) {
		var present []string
		for _, c := range set {
			if r.inProject[c] && !t.isPlaced(c) {
				present = append(present, c)
			}
		}
		if len(present) == 0 || next >= len(candidates) {
			continue
		}
		g := candidates[next]
		next++
		for _, c := range present {
			r.place(t, c, g)
		}
		g.Closed = true
	}
}
