// Package config provides the configuration schema and loader for the
// castgen casting generator.
package config

import (
	"log/slog"
	"time"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/internal/resilience"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to a [slog.Level]. Empty and unknown levels map to
// [slog.LevelInfo].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel  LogLevel        `yaml:"log_level"`
	Casting   CastingConfig   `yaml:"casting"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CastingConfig holds the dramatization preferences and search settings of a
// generation run.
type CastingConfig struct {
	MaleNarrators   int `yaml:"male_narrators"`
	FemaleNarrators int `yaml:"female_narrators"`

	// Extra-biblical role policies. Empty means "narrator".
	BookTitleChapter  casting.RolePolicy `yaml:"book_title_chapter"`
	SectionHeads      casting.RolePolicy `yaml:"section_heads"`
	BookIntroductions casting.RolePolicy `yaml:"book_introductions"`

	// Strict turns an unacceptable best cast into an error.
	Strict bool `yaml:"strict"`

	// ParallelTrials bounds concurrent trial evaluation. Zero uses GOMAXPROCS.
	ParallelTrials int `yaml:"parallel_trials"`

	// AcceptableProximity is the weighted block count at or above which a
	// conflict is acceptable. Zero uses the calculator default.
	AcceptableProximity int `yaml:"acceptable_proximity"`

	// StopOnEqualWorst ends the assignment scan on a group that ties the
	// trial's current worst proximity. Nil means true.
	StopOnEqualWorst *bool `yaml:"stop_on_equal_worst"`

	GhostCast GhostCastConfig `yaml:"ghost_cast"`
}

// GhostCastConfig requests a synthesized roster. All zero uses the real
// roster.
type GhostCastConfig struct {
	MaleAdults   int `yaml:"male_adults"`
	FemaleAdults int `yaml:"female_adults"`
	MaleChildren int `yaml:"male_children"`
}

// StoreConfig selects where finalized casts are kept.
type StoreConfig struct {
	// PostgresDSN is the connection string. Empty keeps casts in memory.
	PostgresDSN string `yaml:"postgres_dsn"`

	// ProjectID keys the stored cast. Empty uses the project name.
	ProjectID string `yaml:"project_id"`

	// MemoryFallback keeps casts in memory while the database is unreachable
	// instead of failing the run.
	MemoryFallback bool `yaml:"memory_fallback"`

	// BreakerFailures is the number of consecutive database failures after
	// which the database is skipped. Zero uses the default of 3.
	BreakerFailures int `yaml:"breaker_failures"`

	// BreakerCooldown is how long a skipped database rests before it is
	// tried again. Zero uses the default of 10s.
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// Breaker returns the breaker tuning for the database store.
func (s StoreConfig) Breaker() resilience.BreakerConfig {
	return resilience.BreakerConfig{Failures: s.BreakerFailures, Cooldown: s.BreakerCooldown}
}

// TelemetryConfig configures the OpenTelemetry resource.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`

	// MetricsFile receives a Prometheus text snapshot of the run's metrics.
	// Empty writes none.
	MetricsFile string `yaml:"metrics_file"`
}

// Preferences returns the dramatization preferences for the generator.
func (c CastingConfig) Preferences() casting.Preferences {
	return casting.Preferences{
		MaleNarrators:     c.MaleNarrators,
		FemaleNarrators:   c.FemaleNarrators,
		BookTitleChapter:  c.BookTitleChapter,
		SectionHeads:      c.SectionHeads,
		BookIntroductions: c.BookIntroductions,
	}
}

// Ghost returns the requested ghost cast.
func (c CastingConfig) Ghost() casting.GhostCast {
	return casting.GhostCast{
		MaleAdults:   c.GhostCast.MaleAdults,
		FemaleAdults: c.GhostCast.FemaleAdults,
		MaleChildren: c.GhostCast.MaleChildren,
	}
}

// StopOnEqualWorstOrDefault resolves [CastingConfig.StopOnEqualWorst].
func (c CastingConfig) StopOnEqualWorstOrDefault() bool {
	if c.StopOnEqualWorst == nil {
		return true
	}
	return *c.StopOnEqualWorst
}
