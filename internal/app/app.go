// Package app wires the casting subsystems into one generation run.
//
// The App struct owns the full lifecycle: New creates and connects the
// store, proximity calculator and generator, Run casts the project and
// persists the result, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithCalculator). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/internal/catalog"
	"github.com/sillsdev/Glyssen-sub016/internal/config"
	"github.com/sillsdev/Glyssen-sub016/internal/groupstore"
	"github.com/sillsdev/Glyssen-sub016/internal/observe"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
)

// App owns the subsystems of one casting run.
type App struct {
	cfg     *config.Config
	catalog *catalog.Catalog

	// Subsystems, initialised in New and torn down in Shutdown.
	store     groupstore.Store
	calc      proximity.Calculator
	metrics   *observe.Metrics
	generator *casting.Generator

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a cast store instead of creating one from config.
func WithStore(s groupstore.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCalculator injects a proximity calculator instead of building one from
// the project script.
func WithCalculator(c proximity.Calculator) Option {
	return func(a *App) { a.calc = c }
}

// WithMetrics injects the metric instruments used by the generator.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App for the project held by cat. Use Option functions to
// inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, opts ...Option) (*App, error) {
	a := &App{
		cfg:     cfg,
		catalog: cat,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Cast store ────────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Proximity calculator ──────────────────────────────────────────
	if a.calc == nil {
		a.calc = proximity.NewBlockCalculator(cat.Blocks(),
			proximity.WithThreshold(cfg.Casting.AcceptableProximity))
	}

	// ── 3. Generator ─────────────────────────────────────────────────────
	genOpts := []casting.Option{
		casting.WithParallelTrials(cfg.Casting.ParallelTrials),
		casting.WithStopOnEqualWorst(cfg.Casting.StopOnEqualWorstOrDefault()),
		casting.WithThreshold(cfg.Casting.AcceptableProximity),
	}
	if a.metrics != nil {
		genOpts = append(genOpts, casting.WithMetrics(a.metrics))
	}
	a.generator = casting.New(cat, a.calc, genOpts...)

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore opens the PostgreSQL store when a DSN is configured, otherwise
// keeps casts in memory for the lifetime of the process. A configured memory
// fallback is put behind whichever store is used, injected ones included.
func (a *App) initStore(ctx context.Context) error {
	if a.store == nil {
		dsn := a.cfg.Store.PostgresDSN
		if dsn == "" {
			slog.Debug("store.postgres_dsn is empty; casts are kept in memory")
			a.store = groupstore.NewMemStore()
			return nil
		}

		pg, err := groupstore.Open(ctx, dsn)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error {
			pg.Close()
			return nil
		})
		a.store = pg
	}
	a.store = a.withFallback(a.store)
	return nil
}

// withFallback puts an in-memory store behind primary when
// store.memory_fallback is set.
func (a *App) withFallback(primary groupstore.Store) groupstore.Store {
	if !a.cfg.Store.MemoryFallback {
		return primary
	}
	fs := groupstore.NewFailoverStore("primary", primary, a.cfg.Store.Breaker())
	fs.Add("memory", groupstore.NewMemStore())
	return fs
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// ProjectID returns the key under which the project's cast is stored.
func (a *App) ProjectID() string {
	if a.cfg.Store.ProjectID != "" {
		return a.cfg.Store.ProjectID
	}
	return a.catalog.Name()
}

// Run casts the project. The previously stored cast, if any, supplies the
// actors to re-attach. The new cast is stored unless it was generated for a
// ghost roster.
func (a *App) Run(ctx context.Context) (*casting.Result, error) {
	log := observe.Logger(ctx)
	projectID := a.ProjectID()

	var previous []casting.CharacterGroup
	prev, err := a.store.Load(ctx, projectID)
	switch {
	case err == nil:
		previous = prev.CharacterGroups()
		log.Debug("loaded previous cast", "project", projectID, "groups", len(previous))
	case errors.Is(err, groupstore.ErrNotFound):
	default:
		return nil, fmt.Errorf("app: load previous cast: %w", err)
	}

	ghost := a.cfg.Casting.Ghost()
	res, err := a.generator.Generate(ctx, casting.Request{
		Project:        a.catalog.Project(),
		Actors:         a.catalog.Actors(),
		GhostCast:      ghost,
		ExistingGroups: a.catalog.Groups(),
		PreviousGroups: previous,
		Preferences:    a.cfg.Casting.Preferences(),
		Strict:         a.cfg.Casting.Strict,
	})
	if err != nil {
		return nil, fmt.Errorf("app: generate: %w", err)
	}

	if !ghost.IsZero() {
		log.Info("ghost cast generated; not stored", "project", projectID, "groups", len(res.Groups))
		return res, nil
	}
	if err := a.store.Save(ctx, groupstore.NewCast(projectID, res)); err != nil {
		return nil, fmt.Errorf("app: save cast: %w", err)
	}
	return res, nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Debug("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}
