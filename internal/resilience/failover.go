package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrExhausted is returned when no backend in a [Failover] could serve a call.
var ErrExhausted = errors.New("resilience: all backends failed")

type backend[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Failover tries backends of the same type in the order they were added. Each
// backend has its own [Breaker]; a tripped backend is skipped without being
// called.
type Failover[T any] struct {
	cfg      BreakerConfig
	backends []backend[T]
}

// NewFailover returns a Failover whose first choice is primary.
func NewFailover[T any](name string, primary T, cfg BreakerConfig) *Failover[T] {
	f := &Failover[T]{cfg: cfg}
	f.Add(name, primary)
	return f
}

// Add appends a backend tried after every backend added before it. Add is not
// safe to call concurrently with [Failover.Do] or [Call].
func (f *Failover[T]) Add(name string, value T) {
	cfg := f.cfg
	cfg.Name = name
	f.backends = append(f.backends, backend[T]{name: name, value: value, breaker: NewBreaker(cfg)})
}

// Names lists the backends in the order they are tried.
func (f *Failover[T]) Names() []string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.name
	}
	return names
}

// Do runs fn against each backend until one succeeds.
func (f *Failover[T]) Do(fn func(T) error) error {
	_, err := Call(f, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// Call runs fn against each backend of f until one succeeds and returns that
// backend's result. It is a function rather than a method because methods
// cannot declare type parameters.
func Call[T, R any](f *Failover[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range f.backends {
		b := &f.backends[i]
		var out R
		err := b.breaker.Do(func() error {
			var err error
			out, err = fn(b.value)
			return err
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("backend skipped", "backend", b.name)
			continue
		}
		slog.Warn("backend failed", "backend", b.name, "err", err)
	}
	var zero R
	return zero, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}
