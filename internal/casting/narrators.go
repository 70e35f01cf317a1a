package casting

import (
	"cmp"
	"slices"

	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

// authorStats aggregates the narration workload of one biblical author over
// the books that still need a narrator.
type authorStats struct {
	author     types.Author
	books      []string
	keystrokes int
}

// sortAuthors orders authors by workload, heaviest first. Ties go to the
// author whose first book comes earliest in canonical order.
func sortAuthors(stats []authorStats, canon map[string]int) []authorStats {
	sorted := slices.Clone(stats)
	slices.SortStableFunc(sorted, func(a, b authorStats) int {
		if c := cmp.Compare(b.keystrokes, a.keystrokes); c != 0 {
			return c
		}
		return cmp.Compare(canon[a.books[0]], canon[b.books[0]])
	})
	return sorted
}

// partitionBooks splits books (canonical order) among n narrator groups.
// Books of one author stay together whenever the group count allows it. Each
// returned partition lists its books in canonical order.
func partitionBooks(n int, books []string, stats []authorStats, bookKeystrokes map[string]int) [][]string {
	if n <= 0 || len(books) == 0 {
		return nil
	}
	canon := make(map[string]int, len(books))
	for i, b := range books {
		canon[b] = i
	}

	var parts [][]string
	switch {
	case n == 1:
		parts = [][]string{slices.Clone(books)}
	case n >= len(books):
		for _, b := range books {
			parts = append(parts, []string{b})
		}
	case n == len(stats):
		for _, a := range sortAuthors(stats, canon) {
			parts = append(parts, slices.Clone(a.books))
		}
	case n < len(stats):
		parts = combineAuthors(n, sortAuthors(stats, canon))
	default:
		parts = splitAuthors(n, sortAuthors(stats, canon), bookKeystrokes, canon)
	}

	for _, p := range parts {
		slices.SortFunc(p, func(a, b string) int { return cmp.Compare(canon[a], canon[b]) })
	}
	return parts
}

// combineAuthors packs more authors than groups. The heaviest remaining
// author opens each group; the lightest authors are folded into it while
// doing so brings the group closer to the average load of the groups still
// to fill. Enough authors are always left for the remaining groups.
func combineAuthors(n int, sorted []authorStats) [][]string {
	remaining := 0
	for _, a := range sorted {
		remaining += a.keystrokes
	}

	parts := make([][]string, 0, n)
	head, tail := 0, len(sorted)-1
	for g := range n {
		left := n - g
		if left == 1 {
			var last []string
			for _, a := range sorted[head : tail+1] {
				last = append(last, a.books...)
			}
			parts = append(parts, last)
			break
		}

		part := slices.Clone(sorted[head].books)
		load := sorted[head].keystrokes
		head++
		target := remaining / left
		for tail >= head && tail-head+1 > left-1 {
			next := load + sorted[tail].keystrokes
			if abs(next-target) >= abs(load-target) {
				break
			}
			part = append(part, sorted[tail].books...)
			load = next
			tail--
		}
		remaining -= load
		parts = append(parts, part)
	}
	return parts
}

// splitAuthors spreads more groups than authors. Every author gets one group;
// the extra groups go round-robin to authors with several books, heaviest
// first. Each author's books are then dealt largest first to the
// least-loaded of that author's groups.
func splitAuthors(n int, sorted []authorStats, bookKeystrokes map[string]int, canon map[string]int) [][]string {
	slots := make([]int, len(sorted))
	for i := range slots {
		slots[i] = 1
	}
	extra := n - len(sorted)
	for extra > 0 {
		progress := false
		for i, a := range sorted {
			if extra == 0 {
				break
			}
			if len(a.books) > slots[i] {
				slots[i]++
				extra--
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	var parts [][]string
	for i, a := range sorted {
		books := slices.Clone(a.books)
		slices.SortStableFunc(books, func(x, y string) int {
			if c := cmp.Compare(bookKeystrokes[y], bookKeystrokes[x]); c != 0 {
				return c
			}
			return cmp.Compare(canon[x], canon[y])
		})
		own := make([][]string, slots[i])
		loads := make([]int, slots[i])
		for _, b := range books {
			best := 0
			for j := 1; j < len(own); j++ {
				if loads[j] < loads[best] || (loads[j] == loads[best] && len(own[j]) < len(own[best])) {
					best = j
				}
			}
			own[best] = append(own[best], b)
			loads[best] += bookKeystrokes[b]
		}
		for _, p := range own {
			if len(p) > 0 {
				parts = append(parts, p)
			}
		}
	}
	return parts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// distributeBooks places the narrator role of every remaining book into the
// trial's narrator groups, then folds each combined author character into
// the group narrating that author's first book.
func (r *run) distributeBooks(t *trialConfiguration) {
	if len(t.narratorGroups) == 0 || len(r.remainingBooks) == 0 {
		return
	}
	parts := partitionBooks(len(t.narratorGroups), r.remainingBooks, r.authors, r.bookKeystrokes)
	for i, books := range parts {
		g := t.narratorGroups[i]
		for _, b := range books {
			r.place(t, types.StandardCharacterID(types.Narrator, b), g)
			t.narratorFor[b] = g
		}
	}
	if len(parts) < len(t.narratorGroups) {
		t.narratorGroups = t.narratorGroups[:len(parts)]
	}

	for _, a := range r.authors {
		if !a.author.CombineAuthorAndNarrator || !r.inProject[a.author.Name] || t.isPlaced(a.author.Name) {
			continue
		}
		if g := t.narratorFor[a.books[0]]; g != nil {
			r.place(t, a.author.Name, g)
		}
	}
}

