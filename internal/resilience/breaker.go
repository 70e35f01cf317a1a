// Package resilience keeps a casting run going when a backing service, such
// as the cast database, stops answering.
//
// [Breaker] counts consecutive failures of one backend and, once tripped,
// rejects calls until a cool-down has passed. [Failover] orders several
// backends of the same type and hands each call to the first one whose
// breaker lets it through.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: breaker open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota
	// Open rejects every call until the cool-down elapses.
	Open
	// Probing lets a single call through to test the backend.
	Probing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Probing:
		return "probing"
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker].
type BreakerConfig struct {
	// Name labels the backend in log output.
	Name string

	// Failures is the number of consecutive failures that trips the breaker.
	// Default: 3.
	Failures int

	// Cooldown is how long a tripped breaker waits before probing. Default: 10s.
	Cooldown time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Failures <= 0 {
		c.Failures = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 10 * time.Second
	}
	return c
}

// Breaker guards calls to one backend. It is safe for concurrent use.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	trippedAt time.Time
	probing   bool
}

// NewBreaker returns a closed [Breaker].
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// Do runs fn unless the breaker is open. A failure while probing re-opens the
// breaker at once; a success closes it.
func (b *Breaker) Do(fn func() error) error {
	if !b.admit() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.trippedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = Probing
		b.probing = false
		slog.Info("breaker probing", "backend", b.cfg.Name)
		fallthrough
	case Probing:
		if b.probing {
			return false
		}
		b.probing = true
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != Closed {
			slog.Info("breaker closed", "backend", b.cfg.Name)
		}
		b.state = Closed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == Probing || b.failures >= b.cfg.Failures {
		if b.state != Open {
			slog.Warn("breaker opened", "backend", b.cfg.Name, "failures", b.failures, "err", err)
		}
		b.state = Open
		b.trippedAt = b.now()
		b.probing = false
	}
}

// State reports the breaker's current mode. An open breaker whose cool-down
// has elapsed reports [Probing].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.trippedAt) >= b.cfg.Cooldown {
		return Probing
	}
	return b.state
}
