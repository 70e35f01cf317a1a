package groupstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	casts map[string]*Cast

	now func() time.Time
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{casts: make(map[string]*Cast)}
}

// Save implements [Store.Save].
func (s *MemStore) Save(_ context.Context, c *Cast) error {
	if c.ProjectID == "" {
		return fmt.Errorf("groupstore: save: project id is required")
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	c.SavedAt = now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.casts == nil {
		s.casts = make(map[string]*Cast)
	}
	s.casts[c.ProjectID] = c.clone()
	return nil
}

// Load implements [Store.Load].
func (s *MemStore) Load(_ context.Context, projectID string) (*Cast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.casts[projectID]
	if !ok {
		return nil, notFound(projectID)
	}
	return c.clone(), nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.casts, projectID)
	return nil
}
