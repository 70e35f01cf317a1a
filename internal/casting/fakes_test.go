package casting

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sillsdev/Glyssen-sub016/internal/observe"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity/mock"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var errUnknown = errors.New("unknown id")

// fakeCatalog is an in-memory Catalog. Standard characters are recognised
// by ID; keystrokes default to zero.
type fakeCatalog struct {
	chars      map[string]types.CharacterDetail
	keystrokes map[string]int
	scores     map[string]int
	authors    map[string]types.Author
	siblings   map[string][]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		chars:      make(map[string]types.CharacterDetail),
		keystrokes: make(map[string]int),
		scores:     make(map[string]int),
		authors:    make(map[string]types.Author),
		siblings:   make(map[string][]string),
	}
}

func (c *fakeCatalog) character(id string, g types.CharacterGender, a types.CharacterAge, keystrokes int) *fakeCatalog {
	c.chars[id] = types.CharacterDetail{CharacterID: id, Gender: g, Age: a}
	c.keystrokes[id] = keystrokes
	return c
}

func (c *fakeCatalog) book(id, author string, keystrokes int) *fakeCatalog {
	c.authors[id] = types.Author{Name: author}
	c.keystrokes[types.StandardCharacterID(types.Narrator, id)] = keystrokes
	return c
}

func (c *fakeCatalog) Character(id string) (types.CharacterDetail, error) {
	if d, ok := types.StandardCharacterDetail(id); ok {
		return d, nil
	}
	d, ok := c.chars[id]
	if !ok {
		return types.CharacterDetail{}, errUnknown
	}
	return d, nil
}

func (c *fakeCatalog) AuthorOfBook(book string) (types.Author, error) {
	a, ok := c.authors[book]
	if !ok {
		return types.Author{}, errUnknown
	}
	return a, nil
}

func (c *fakeCatalog) KeystrokesFor(id string) (int, error) {
	if _, err := c.Character(id); err != nil {
		return 0, err
	}
	return c.keystrokes[id], nil
}

func (c *fakeCatalog) SpeechDistributionScore(id string) (int, error) {
	if _, err := c.Character(id); err != nil {
		return 0, err
	}
	return c.scores[id], nil
}

func (c *fakeCatalog) SiblingsOf(id string, kind RelationKind) []string {
	if kind != SameCharacter {
		return nil
	}
	return c.siblings[id]
}

// testMetrics returns metrics backed by a private provider so tests never
// touch the global one.
func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func newTestGenerator(t *testing.T, cat *fakeCatalog, calc *mock.Calculator, opts ...Option) *Generator {
	t.Helper()
	return New(cat, calc, append([]Option{WithMetrics(testMetrics(t))}, opts...)...)
}

func actor(id int, g types.ActorGender, a types.ActorAge) types.Actor {
	return types.Actor{ID: id, Gender: g, Age: a}
}

// projectOf lists books and every catalogued character with keystrokes,
// narrators included.
func projectOf(cat *fakeCatalog, books ...string) Project {
	p := Project{Name: "test", Books: books}
	for _, b := range books {
		p.Characters = append(p.Characters, types.StandardCharacterID(types.Narrator, b))
	}
	var others []string
	for id := range cat.chars {
		others = append(others, id)
	}
	slices.Sort(others)
	p.Characters = append(p.Characters, others...)
	return p
}

// groupWith returns the group holding characterID, failing the test when
// there is none.
func groupWith(t *testing.T, groups []*CharacterGroup, characterID string) *CharacterGroup {
	t.Helper()
	for _, g := range groups {
		if g.Contains(characterID) {
			return g
		}
	}
	t.Fatalf("no group holds %q", characterID)
	return nil
}

// assertCoverage checks that every project character sits in exactly one
// group and that no actor is cast twice.
func assertCoverage(t *testing.T, p Project, groups []*CharacterGroup) {
	t.Helper()
	seen := make(map[string]string)
	actors := make(map[int]string)
	for _, g := range groups {
		for c := range g.CharacterIDs {
			if prev, dup := seen[c]; dup {
				t.Errorf("character %q in groups %s and %s", c, prev, g.ID)
			}
			seen[c] = g.ID
		}
		if g.HasActor() {
			if prev, dup := actors[g.ActorID]; dup {
				t.Errorf("actor %d cast to groups %s and %s", g.ActorID, prev, g.ID)
			}
			actors[g.ActorID] = g.ID
		}
	}
	for _, c := range p.Characters {
		if _, ok := seen[c]; !ok {
			t.Errorf("character %q not cast", c)
		}
	}
	if len(seen) != len(p.Characters) {
		t.Errorf("cast holds %d characters, project has %d", len(seen), len(p.Characters))
	}
}

// prepare runs everything before the trial passes and returns the run and
// its base groups.
func prepare(t *testing.T, g *Generator, req Request) (*run, []*CharacterGroup) {
	t.Helper()
	roster, err := buildRoster(req)
	if err != nil {
		t.Fatalf("buildRoster: %v", err)
	}
	r, err := g.newRun(req, roster)
	if err != nil {
		t.Fatalf("newRun: %v", err)
	}
	base, err := r.createGroups(req.ExistingGroups)
	if err != nil {
		t.Fatalf("createGroups: %v", err)
	}
	r.forceMatches(base)
	r.survey(base)
	return r, base
}
