package casting

import (
	"context"
	"reflect"
	"testing"

	"github.com/sillsdev/Glyssen-sub016/pkg/proximity/mock"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

func stats(name string, keystrokes int, books ...string) authorStats {
	return authorStats{author: types.Author{Name: name}, books: books, keystrokes: keystrokes}
}

func TestPartitionBooks(t *testing.T) {
	t.Parallel()

	gospels := []authorStats{
		stats("Matthew", 100, "MAT"),
		stats("Mark", 60, "MRK"),
		stats("Luke", 90, "LUK"),
	}
	paul := []authorStats{
		stats("Luke", 90, "LUK"),
		stats("Paul", 230, "ROM", "1CO", "2CO", "GAL"),
	}
	paulBooks := map[string]int{"LUK": 90, "ROM": 100, "1CO": 80, "2CO": 30, "GAL": 20}

	tests := []struct {
		name    string
		n       int
		books   []string
		authors []authorStats
		ks      map[string]int
		want    [][]string
	}{
		{
			name:    "no groups",
			n:       0,
			books:   []string{"MAT"},
			authors: gospels[:1],
			want:    nil,
		},
		{
			name:    "single group takes every book",
			n:       1,
			books:   []string{"MAT", "MRK", "LUK"},
			authors: gospels,
			want:    [][]string{{"MAT", "MRK", "LUK"}},
		},
		{
			name:    "one group per book",
			n:       3,
			books:   []string{"MAT", "MRK", "LUK"},
			authors: gospels,
			want:    [][]string{{"MAT"}, {"MRK"}, {"LUK"}},
		},
		{
			name:    "heaviest author alone, lighter authors combined",
			n:       2,
			books:   []string{"MAT", "MRK", "LUK"},
			authors: gospels,
			want:    [][]string{{"MAT"}, {"MRK", "LUK"}},
		},
		{
			name:    "one group per author",
			n:       2,
			books:   []string{"LUK", "ROM", "1CO", "2CO", "GAL"},
			authors: paul,
			ks:      paulBooks,
			want:    [][]string{{"ROM", "1CO", "2CO", "GAL"}, {"LUK"}},
		},
		{
			name:    "extra group splits the prolific author",
			n:       3,
			books:   []string{"LUK", "ROM", "1CO", "2CO", "GAL"},
			authors: paul,
			ks:      paulBooks,
			want:    [][]string{{"ROM", "GAL"}, {"1CO", "2CO"}, {"LUK"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := partitionBooks(tc.n, tc.books, tc.authors, tc.ks)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("partitionBooks = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCombineAuthors_LeavesAuthorForEveryGroup(t *testing.T) {
	t.Parallel()

	// One dominant author would otherwise swallow every light author.
	sorted := []authorStats{
		stats("A", 1000, "A1"),
		stats("B", 10, "B1"),
		stats("C", 10, "C1"),
		stats("D", 10, "D1"),
	}
	got := combineAuthors(3, sorted)
	if len(got) != 3 {
		t.Fatalf("got %d groups, want 3: %v", len(got), got)
	}
	for i, p := range got {
		if len(p) == 0 {
			t.Errorf("group %d is empty", i)
		}
	}
}

func TestGenerate_MatthewMarkLuke(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog().
		book("MAT", "Matthew", 100).
		book("MRK", "Mark", 60).
		book("LUK", "Luke", 90)
	project := projectOf(cat, "MAT", "MRK", "LUK")
	g := newTestGenerator(t, cat, mock.NewCalculator(30))

	res, err := g.Generate(context.Background(), Request{
		Project:     project,
		Actors:      []types.Actor{actor(1, types.ActorMale, types.ActorAdult), actor(2, types.ActorMale, types.ActorAdult)},
		Preferences: Preferences{MaleNarrators: 2},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertCoverage(t, project, res.Groups)

	mat := groupWith(t, res.Groups, "narrator-MAT")
	if mat.Len() != 1 {
		t.Errorf("Matthew's narrator group = %v, want only narrator-MAT", mat.Characters())
	}
	mrk := groupWith(t, res.Groups, "narrator-MRK")
	if !mrk.Contains("narrator-LUK") {
		t.Errorf("Mark and Luke should share a narrator, got %v", mrk.Characters())
	}
	if !res.Acceptable {
		t.Error("cast should be acceptable")
	}
}

func TestGenerate_NarratorCountInvariant(t *testing.T) {
	t.Parallel()

	books := []string{"MAT", "MRK", "LUK", "JHN"}
	newCatalog := func() *fakeCatalog {
		return newFakeCatalog().
			book("MAT", "Matthew", 100).
			book("MRK", "Mark", 60).
			book("LUK", "Luke", 90).
			book("JHN", "John", 80)
	}
	actors := func(n int) []types.Actor {
		var out []types.Actor
		for i := range n {
			out = append(out, actor(i+1, types.ActorMale, types.ActorAdult))
		}
		return out
	}

	t.Run("one narrator per book", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog()
		project := projectOf(cat, books...)
		res, err := newTestGenerator(t, cat, mock.NewCalculator(30)).Generate(context.Background(), Request{
			Project:     project,
			Actors:      actors(4),
			Preferences: Preferences{MaleNarrators: 4},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for _, g := range res.Groups {
			if n := len(g.narratedBooks()); n != 1 {
				t.Errorf("group %s narrates %d books, want 1", g.ID, n)
			}
		}
	})

	t.Run("single narrator takes every book", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog()
		project := projectOf(cat, books...)
		res, err := newTestGenerator(t, cat, mock.NewCalculator(30)).Generate(context.Background(), Request{
			Project:     project,
			Actors:      actors(3),
			Preferences: Preferences{MaleNarrators: 1},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		g := groupWith(t, res.Groups, "narrator-MAT")
		if got := g.narratedBooks(); len(got) != len(books) {
			t.Errorf("narrator group narrates %v, want all of %v", got, books)
		}
	})
}

func TestDistributeBooks_FoldsCombinedAuthor(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog().
		book("LUK", "Luke", 90).
		book("ROM", "Paul", 100).
		character("Paul", types.GenderMale, types.AgeAdult, 40)
	cat.authors["ROM"] = types.Author{Name: "Paul", CombineAuthorAndNarrator: true}
	project := projectOf(cat, "LUK", "ROM")
	g := newTestGenerator(t, cat, mock.NewCalculator(30))

	r, base := prepare(t, g, Request{
		Project: project,
		Actors: []types.Actor{
			actor(1, types.ActorMale, types.ActorAdult),
			actor(2, types.ActorMale, types.ActorAdult),
			actor(3, types.ActorMale, types.ActorAdult),
		},
		Preferences: Preferences{MaleNarrators: 2},
	})
	trial, err := r.buildTrial(context.Background(), 0, base, trialSpec{maleNarrators: 2})
	if err != nil {
		t.Fatalf("buildTrial: %v", err)
	}
	rom := trial.narratorFor["ROM"]
	if rom == nil || !rom.Contains("Paul") {
		t.Errorf("Paul should be read by the narrator of Romans")
	}
	if trial.narratorFor["LUK"] == rom {
		t.Error("Luke and Romans should have separate narrators")
	}
}

func TestGenerate_OneNarratorPerAuthor(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog().
		book("MAT", "Matthew", 100).
		book("MRK", "Mark", 60)
	project := projectOf(cat, "MAT", "MRK")
	g := newTestGenerator(t, cat, mock.NewCalculator(30))

	res, err := g.Generate(context.Background(), Request{
		Project:     project,
		Actors:      []types.Actor{actor(1, types.ActorMale, types.ActorAdult), actor(2, types.ActorMale, types.ActorAdult)},
		Preferences: Preferences{MaleNarrators: 1},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertCoverage(t, project, res.Groups)

	mat := groupWith(t, res.Groups, "narrator-MAT")
	if mat.Contains("narrator-MRK") {
		t.Errorf("Matthew and Mark share narrator group %v; each author should get one", mat.Characters())
	}
	if !res.Acceptable {
		t.Error("a narrator per author should be acceptable")
	}
}

func TestDistributeBooks_FoldsCombinedAuthorIntoSharedGroup(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog().
		book("MAT", "Matthew", 100).
		book("MRK", "Mark", 60).
		book("ROM", "Paul", 30).
		character("Paul", types.GenderMale, types.AgeAdult, 10)
	cat.authors["ROM"] = types.Author{Name: "Paul", CombineAuthorAndNarrator: true}
	project := projectOf(cat, "MAT", "MRK", "ROM")
	g := newTestGenerator(t, cat, mock.NewCalculator(30))

	r, base := prepare(t, g, Request{
		Project: project,
		Actors: []types.Actor{
			actor(1, types.ActorMale, types.ActorAdult),
			actor(2, types.ActorMale, types.ActorAdult),
			actor(3, types.ActorMale, types.ActorAdult),
			actor(4, types.ActorMale, types.ActorAdult),
		},
		Preferences: Preferences{MaleNarrators: 2},
	})
	trial, err := r.buildTrial(context.Background(), 0, base, trialSpec{maleNarrators: 2})
	if err != nil {
		t.Fatalf("buildTrial: %v", err)
	}
	rom := trial.narratorFor["ROM"]
	if rom == nil || trial.narratorFor["MRK"] != rom {
		t.Fatalf("Mark and Romans should share a narrator group")
	}
	if !rom.Contains("Paul") {
		t.Errorf("Paul should be read by the group narrating Romans, got %v", rom.Characters())
	}
}
