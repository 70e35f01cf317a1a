package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// An empty document yields the zero configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Casting
	c := cfg.Casting
	if c.MaleNarrators < 0 {
		errs = append(errs, fmt.Errorf("casting.male_narrators must be >= 0, got %d", c.MaleNarrators))
	}
	if c.FemaleNarrators < 0 {
		errs = append(errs, fmt.Errorf("casting.female_narrators must be >= 0, got %d", c.FemaleNarrators))
	}
	for _, p := range []struct {
		field  string
		policy casting.RolePolicy
	}{
		{"book_title_chapter", c.BookTitleChapter},
		{"section_heads", c.SectionHeads},
		{"book_introductions", c.BookIntroductions},
	} {
		if p.policy != "" && !p.policy.IsValid() {
			errs = append(errs, fmt.Errorf("casting.%s %q is invalid; valid values: omitted, narrator, male_actor, female_actor, either", p.field, p.policy))
		}
	}
	if c.ParallelTrials < 0 {
		errs = append(errs, fmt.Errorf("casting.parallel_trials must be >= 0, got %d", c.ParallelTrials))
	}
	if c.AcceptableProximity < 0 {
		errs = append(errs, fmt.Errorf("casting.acceptable_proximity must be >= 0, got %d", c.AcceptableProximity))
	}
	g := c.GhostCast
	if g.MaleAdults < 0 || g.FemaleAdults < 0 || g.MaleChildren < 0 {
		errs = append(errs, fmt.Errorf("casting.ghost_cast counts must be >= 0, got %d/%d/%d", g.MaleAdults, g.FemaleAdults, g.MaleChildren))
	}

	// Store
	st := cfg.Store
	if st.BreakerFailures < 0 {
		errs = append(errs, fmt.Errorf("store.breaker_failures must be >= 0, got %d", st.BreakerFailures))
	}
	if st.BreakerCooldown < 0 {
		errs = append(errs, fmt.Errorf("store.breaker_cooldown must be >= 0, got %s", st.BreakerCooldown))
	}
	if st.MemoryFallback && st.PostgresDSN == "" {
		slog.Warn("store.memory_fallback has no effect without store.postgres_dsn")
	}

	if c.MaleNarrators == 0 && c.FemaleNarrators == 0 {
		slog.Warn("no narrators requested; narrator roles will be placed in a single group")
	}
	if c.Strict && c.GhostCast != (GhostCastConfig{}) {
		slog.Warn("casting.strict with a ghost cast fails whenever the ghost roster is too small")
	}

	return errors.Join(errs...)
}
