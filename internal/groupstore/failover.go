package groupstore

import (
	"context"
	"errors"

	"github.com/sillsdev/Glyssen-sub016/internal/resilience"
)

// FailoverStore hands each call to the first healthy store of an ordered
// list. A store that keeps failing is skipped until its breaker cools down.
//
// A missing cast is an answer, not a failure: when the first reachable store
// reports [ErrNotFound], FailoverStore returns it without asking the rest.
type FailoverStore struct {
	stores *resilience.Failover[Store]
}

var _ Store = (*FailoverStore)(nil)

// NewFailoverStore returns a FailoverStore that prefers primary and falls back
// to the stores added with [FailoverStore.Add].
func NewFailoverStore(name string, primary Store, cfg resilience.BreakerConfig) *FailoverStore {
	return &FailoverStore{stores: resilience.NewFailover(name, primary, cfg)}
}

// Add registers a fallback store.
func (f *FailoverStore) Add(name string, s Store) {
	f.stores.Add(name, s)
}

// Save implements [Store].
func (f *FailoverStore) Save(ctx context.Context, c *Cast) error {
	return f.stores.Do(func(s Store) error {
		return s.Save(ctx, c)
	})
}

// Load implements [Store].
func (f *FailoverStore) Load(ctx context.Context, projectID string) (*Cast, error) {
	c, err := resilience.Call(f.stores, func(s Store) (*Cast, error) {
		c, err := s.Load(ctx, projectID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return c, err
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound(projectID)
	}
	return c, nil
}

// Delete implements [Store].
func (f *FailoverStore) Delete(ctx context.Context, projectID string) error {
	return f.stores.Do(func(s Store) error {
		return s.Delete(ctx, projectID)
	})
}
