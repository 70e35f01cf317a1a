package casting

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/sillsdev/Glyssen-sub016/internal/observe"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Generation outcomes reported through the generations metric.
const (
	StatusOK           = "ok"
	StatusBestEffort   = "best_effort"
	StatusUnacceptable = "unacceptable"
	StatusCancelled    = "cancelled"
	StatusError        = "error"
)

// Generator partitions a project's characters among a roster of actors.
// A Generator is safe for concurrent use; each call to [Generator.Generate]
// keeps its state private.
type Generator struct {
	catalog          Catalog
	proximity        proximity.Calculator
	matcher          Matcher
	parallel         int
	stopOnEqualWorst bool
	threshold        int
	metrics          *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Generator)

// WithMatcher replaces [DefaultMatcher].
func WithMatcher(m Matcher) Option {
	return func(g *Generator) { g.matcher = m }
}

// WithParallelTrials bounds the number of trial configurations evaluated
// concurrently. 1 evaluates them sequentially; values below 1 are ignored.
func WithParallelTrials(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.parallel = n
		}
	}
}

// WithStopOnEqualWorst controls the bucket-scan cut-off. When true (the
// default) a candidate equal to the trial's worst proximity so far ends the
// scan; when false only a strictly better candidate does.
func WithStopOnEqualWorst(v bool) Option {
	return func(g *Generator) { g.stopOnEqualWorst = v }
}

// WithThreshold sets the acceptable proximity used for the initial worst
// value of each trial. It should match the calculator's own threshold.
func WithThreshold(blocks int) Option {
	return func(g *Generator) {
		if blocks > 0 {
			g.threshold = blocks
		}
	}
}

// WithMetrics sets the metric instruments. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// New creates a Generator backed by catalog and calc.
func New(catalog Catalog, calc proximity.Calculator, opts ...Option) *Generator {
	g := &Generator{
		catalog:          catalog,
		proximity:        calc,
		matcher:          DefaultMatcher{},
		parallel:         runtime.GOMAXPROCS(0),
		stopOnEqualWorst: true,
		threshold:        proximity.DefaultThreshold,
	}
	for _, o := range opts {
		o(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g
}

// Request is the input of one generation run.
type Request struct {
	Project Project

	// Actors is the full roster. Inactive actors are ignored.
	Actors []types.Actor

	// GhostCast, when non-zero, replaces the non-cameo actors with
	// synthesized ones.
	GhostCast GhostCast

	// ExistingGroups supplies the fixed groups of cameo actors.
	ExistingGroups []CharacterGroup

	// PreviousGroups is the project's last cast. Its actors are re-attached
	// where the same characters still share a group.
	PreviousGroups []CharacterGroup

	Preferences Preferences

	// Strict makes an unacceptable best configuration an error.
	Strict bool
}

// Result is a finalized cast.
type Result struct {
	Groups []*CharacterGroup

	// WorstProximity is the worst conflict introduced by general assignment.
	WorstProximity proximity.Proximity

	// Acceptable reports whether the cast met every acceptance criterion.
	Acceptable bool

	// Fallback reports whether the relaxed pass produced the cast.
	Fallback bool

	// Trials is the number of trial configurations evaluated.
	Trials int

	// RunID is the trace ID of the generation, empty when tracing is off.
	RunID string
}

// Generate runs the casting search for req. It returns [ErrCancelled] when
// ctx is cancelled and never a partial cast.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "casting.Generate",
		attribute.String("project", req.Project.Name),
		attribute.Int("books", len(req.Project.Books)),
		attribute.Int("characters", len(req.Project.Characters)),
		attribute.Bool("ghost_cast", !req.GhostCast.IsZero()),
	)
	defer span.End()

	res, err := g.generate(ctx, req)
	g.metrics.RecordGeneration(ctx, statusOf(res, err), time.Since(start))
	if err != nil {
		observe.Fail(span, err)
		return nil, err
	}

	res.RunID = observe.RunID(ctx)
	if res.WorstProximity.Blocks != proximity.Max {
		g.metrics.RecordWorstProximity(ctx, res.WorstProximity.Blocks)
	}
	span.SetAttributes(
		attribute.Int("groups", len(res.Groups)),
		attribute.Bool("acceptable", res.Acceptable),
		attribute.Bool("fallback", res.Fallback),
	)
	observe.Logger(ctx).Info("casting: generation complete",
		"project", req.Project.Name,
		"groups", len(res.Groups),
		"trials", res.Trials,
		"worst_proximity", res.WorstProximity.String(),
		"acceptable", res.Acceptable,
		"fallback", res.Fallback,
	)
	return res, nil
}

func statusOf(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrCancelled):
		return StatusCancelled
	case errors.Is(err, ErrNoAcceptableCast):
		return StatusUnacceptable
	case err != nil:
		return StatusError
	case !res.Acceptable:
		return StatusBestEffort
	}
	return StatusOK
}

// run holds the read-only inputs of one generation, resolved from the
// catalogs up front so trials never consult them concurrently for anything
// but siblings and proximity.
type run struct {
	g       *Generator
	project Project
	prefs   Preferences
	roster  []types.Actor
	ghost   bool

	details    map[string]types.CharacterDetail
	keystrokes map[string]int
	scores     map[string]int
	inProject  map[string]bool

	// order lists the ordinary characters in assignment order.
	order []string

	bookAuthor     map[string]types.Author
	bookKeystrokes map[string]int
	remainingBooks []string
	authors        []authorStats

	cameoNarrators       int
	cameoMaleNarrators   int
	cameoFemaleNarrators int
	wantMale             int
	wantFemale           int
	targetNarrators      int

	// real holds the actors whose assignment survives finalization.
	real map[int]bool

	// reattachable holds the active, non-ghost, non-cameo actors that may
	// get a previous assignment back.
	reattachable map[int]types.Actor
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	roster, err := buildRoster(req)
	if err != nil {
		return nil, err
	}
	r, err := g.newRun(req, roster)
	if err != nil {
		return nil, err
	}

	base, err := r.createGroups(req.ExistingGroups)
	if err != nil {
		return nil, err
	}
	forced := r.forceMatches(base)
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	r.survey(base)
	observe.Logger(ctx).Debug("casting: pre-pass complete",
		"groups", len(base),
		"forced", forced,
		"remaining_books", len(r.remainingBooks),
		"authors", len(r.authors),
	)

	best, trials, err := r.runPass(ctx, base, false)
	if err != nil && !errors.Is(err, ErrNoNarratorGroups) {
		return nil, err
	}
	fallback := false
	if !r.isAcceptable(best) {
		observe.Logger(ctx).Debug("casting: fallback pass", "project", r.project.Name)
		relaxed, n, err := r.runPass(ctx, base, true)
		if err != nil {
			return nil, err
		}
		trials += n
		if r.better(relaxed, best) {
			best, fallback = relaxed, true
		}
	}

	acceptable := r.isAcceptable(best)
	if req.Strict && !acceptable {
		return nil, fmt.Errorf("%w: worst proximity %s", ErrNoAcceptableCast, best.worstProximity)
	}

	return &Result{
		Groups:         r.finalize(best, req.PreviousGroups),
		WorstProximity: best.worstProximity,
		Acceptable:     acceptable,
		Fallback:       fallback,
		Trials:         trials,
	}, nil
}

// buildRoster returns the actors to cast: the active roster, or the ghost
// cast plus the active cameo actors.
func buildRoster(req Request) ([]types.Actor, error) {
	var roster []types.Actor
	if !req.GhostCast.IsZero() {
		roster = req.GhostCast.Actors()
	}
	seen := make(map[int]bool)
	for _, a := range req.Actors {
		if a.Inactive {
			continue
		}
		if a.ID == NoActor {
			return nil, fmt.Errorf("casting: actor %q has no ID", a.Name)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("casting: duplicate actor ID %d", a.ID)
		}
		seen[a.ID] = true
		if !req.GhostCast.IsZero() && !a.Cameo {
			continue
		}
		roster = append(roster, a)
	}
	if len(roster) == 0 {
		return nil, ErrNoActors
	}
	return roster, nil
}

func (g *Generator) newRun(req Request, roster []types.Actor) (*run, error) {
	r := &run{
		g:              g,
		project:        req.Project,
		prefs:          req.Preferences,
		roster:         roster,
		ghost:          !req.GhostCast.IsZero(),
		details:        make(map[string]types.CharacterDetail, len(req.Project.Characters)),
		keystrokes:     make(map[string]int, len(req.Project.Characters)),
		scores:         make(map[string]int),
		inProject:      make(map[string]bool, len(req.Project.Characters)),
		bookAuthor:     make(map[string]types.Author, len(req.Project.Books)),
		bookKeystrokes: make(map[string]int, len(req.Project.Books)),
		real:           make(map[int]bool),
		reattachable:   make(map[int]types.Actor),
	}

	for _, c := range req.Project.Characters {
		r.inProject[c] = true
		d, err := g.catalog.Character(c)
		if err != nil {
			return nil, fmt.Errorf("casting: character %q: %w", c, err)
		}
		r.details[c] = d
		ks, err := g.catalog.KeystrokesFor(c)
		if err != nil {
			return nil, fmt.Errorf("casting: keystrokes for %q: %w", c, err)
		}
		r.keystrokes[c] = ks
		if types.IsStandardCharacter(c) {
			continue
		}
		score, err := g.catalog.SpeechDistributionScore(c)
		if err != nil {
			return nil, fmt.Errorf("casting: speech distribution for %q: %w", c, err)
		}
		r.scores[c] = score
		r.order = append(r.order, c)
	}
	slices.SortStableFunc(r.order, r.compareForAssignment)

	for _, b := range req.Project.Books {
		a, err := g.catalog.AuthorOfBook(b)
		if err != nil {
			return nil, fmt.Errorf("casting: author of %s: %w", b, err)
		}
		r.bookAuthor[b] = a
		r.bookKeystrokes[b] = r.keystrokes[types.StandardCharacterID(types.Narrator, b)]
	}

	for _, a := range req.Actors {
		if !a.Inactive && !a.Cameo && !a.Ghost {
			r.reattachable[a.ID] = a
		}
	}
	return r, nil
}

// compareForAssignment orders characters by speech distribution score,
// largest first, with gender-neutral characters last. Ties fall back to
// keystrokes, then ID.
func (r *run) compareForAssignment(a, b string) int {
	na, nb := r.details[a].Gender.IsNeutral(), r.details[b].Gender.IsNeutral()
	if na != nb {
		if na {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(r.scores[b], r.scores[a]); c != 0 {
		return c
	}
	if c := cmp.Compare(r.keystrokes[b], r.keystrokes[a]); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// createGroups builds one group per actor. Cameo actors get a closed copy
// of their existing group restricted to the project's characters; child
// actors are skipped when no character is a child.
func (r *run) createGroups(existing []CharacterGroup) ([]*CharacterGroup, error) {
	hasChild := false
	for _, c := range r.order {
		if r.details[c].Age == types.AgeChild {
			hasChild = true
			break
		}
	}
	byActor := make(map[int]*CharacterGroup, len(existing))
	for i := range existing {
		if existing[i].HasActor() {
			byActor[existing[i].ActorID] = &existing[i]
		}
	}

	var groups []*CharacterGroup
	for i, a := range r.roster {
		if a.IsChild() && !hasChild {
			continue
		}
		if a.Cameo {
			eg, ok := byActor[a.ID]
			if !ok {
				continue
			}
			g := eg.Copy()
			for c := range g.CharacterIDs {
				if !r.inProject[c] {
					delete(g.CharacterIDs, c)
				}
			}
			g.Closed = true
			g.Cameo = true
			g.assignActor(a)
			r.real[a.ID] = true
			groups = append(groups, g)
			continue
		}
		g := NewCharacterGroup(strconv.Itoa(i+1), a.ID)
		g.assignActor(a)
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, ErrNoActors
	}
	return groups, nil
}

// forceMatches pins every ordinary character that exactly one non-cameo
// actor can voice to that actor's group. It returns the number of pinned
// characters.
func (r *run) forceMatches(groups []*CharacterGroup) int {
	byActor := make(map[int]*CharacterGroup, len(groups))
	placed := make(map[string]bool)
	for _, g := range groups {
		for c := range g.CharacterIDs {
			placed[c] = true
		}
		if !g.Cameo {
			byActor[g.ActorID] = g
		}
	}

	forced := 0
	for _, c := range r.project.Characters {
		if placed[c] || types.IsStandardCharacter(c) {
			continue
		}
		match, n := NoActor, 0
		for _, a := range r.roster {
			if a.Cameo || !Compatible(r.g.matcher, a, r.details[c]) {
				continue
			}
			match = a.ID
			n++
		}
		if n != 1 {
			continue
		}
		g, ok := byActor[match]
		if !ok {
			continue
		}
		g.add(c)
		placed[c] = true
		forced++
		if !r.ghost {
			r.real[match] = true
		}
	}
	return forced
}

// survey records the cameo narrators, the books still needing a narrator
// and the per-author workload of those books.
func (r *run) survey(groups []*CharacterGroup) {
	placed := make(map[string]bool)
	for _, g := range groups {
		for c := range g.CharacterIDs {
			placed[c] = true
		}
		if g.Cameo && len(g.narratedBooks()) > 0 {
			r.cameoNarrators++
			switch g.actor.Gender {
			case types.ActorMale:
				r.cameoMaleNarrators++
			case types.ActorFemale:
				r.cameoFemaleNarrators++
			}
		}
	}

	index := make(map[string]int)
	for _, b := range r.project.Books {
		narrator := types.StandardCharacterID(types.Narrator, b)
		if !r.inProject[narrator] || placed[narrator] {
			continue
		}
		r.remainingBooks = append(r.remainingBooks, b)
		author := r.bookAuthor[b]
		i, ok := index[author.Name]
		if !ok {
			i = len(r.authors)
			index[author.Name] = i
			r.authors = append(r.authors, authorStats{author: author})
			if author.CombineAuthorAndNarrator && r.inProject[author.Name] {
				r.authors[i].keystrokes += r.keystrokes[author.Name]
			}
		}
		r.authors[i].books = append(r.authors[i].books, b)
		r.authors[i].keystrokes += r.bookKeystrokes[b]
	}

	r.wantMale = max(0, r.prefs.MaleNarrators-r.cameoMaleNarrators)
	r.wantFemale = max(0, r.prefs.FemaleNarrators-r.cameoFemaleNarrators)
	books := len(r.remainingBooks)
	if over := r.wantMale + r.wantFemale - books; over > 0 {
		cut := min(over, r.wantFemale)
		r.wantFemale -= cut
		r.wantMale -= over - cut
	}
	if books > 0 && r.wantMale+r.wantFemale == 0 {
		r.wantMale = 1
	}
	r.targetNarrators = r.cameoNarrators + r.wantMale + r.wantFemale
}

// trialSpecs lists the trial configurations of one pass.
func (r *run) trialSpecs(base []*CharacterGroup, relaxed bool) ([]trialSpec, error) {
	eligible := eligibleForNarration(base, relaxed)
	if len(r.remainingBooks) > 0 && len(eligible) == 0 {
		return nil, ErrNoNarratorGroups
	}
	var availMale, availFemale int
	for _, g := range eligible {
		switch g.actor.Gender {
		case types.ActorMale:
			availMale++
		case types.ActorFemale:
			availFemale++
		}
	}

	clampedMale := min(r.wantMale, availMale)
	clampedFemale := min(r.wantFemale, availFemale)
	shiftedMale := clampedMale + min(r.wantFemale-clampedFemale, availMale-clampedMale)
	shiftedFemale := clampedFemale + min(r.wantMale-clampedMale, availFemale-clampedFemale)

	splits := [][2]int{{shiftedMale, shiftedFemale}}
	if clampedMale != shiftedMale || clampedFemale != shiftedFemale {
		splits = append(splits, [2]int{clampedMale, clampedFemale})
	}
	favor := []bool{false}
	if r.prefs.usesEitherGender() {
		favor = append(favor, true)
	}

	var specs []trialSpec
	for _, s := range splits {
		for _, f := range favor {
			specs = append(specs, trialSpec{
				maleNarrators:   s[0],
				femaleNarrators: s[1],
				relaxed:         relaxed,
				favorFemale:     f,
			})
		}
	}
	return specs, nil
}

// runPass builds every trial of one pass, concurrently up to the
// generator's limit, and returns the best. Results are slotted by index so
// the choice is deterministic.
func (r *run) runPass(ctx context.Context, base []*CharacterGroup, relaxed bool) (*trialConfiguration, int, error) {
	pass := "strict"
	if relaxed {
		pass = "relaxed"
	}
	specs, err := r.trialSpecs(base, relaxed)
	if err != nil {
		return nil, 0, err
	}

	ctx, span := observe.StartSpan(ctx, "casting.pass",
		attribute.String("pass", pass),
		attribute.Int("trials", len(specs)),
	)
	defer span.End()

	results := make([]*trialConfiguration, len(specs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.g.parallel)
	for i, spec := range specs {
		eg.Go(func() error {
			t, err := r.buildTrial(egCtx, i, base, spec)
			if err != nil {
				return err
			}
			results[i] = t
			r.g.metrics.RecordTrial(ctx, pass)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, cancelled(ctxErr)
		}
		observe.Fail(span, err)
		return nil, 0, err
	}
	return r.best(results), len(specs), nil
}
