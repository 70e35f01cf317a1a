// Package groupstore persists finalized casts so that later generation runs
// can re-attach actors to the characters they voiced before.
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
)

// ErrNotFound is returned when no cast is stored for a project.
var ErrNotFound = errors.New("groupstore: cast not found")

// Store saves and loads the latest cast per project.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save replaces the stored cast of c.ProjectID and stamps c.SavedAt.
	Save(ctx context.Context, c *Cast) error

	// Load returns the stored cast of projectID, or an error wrapping
	// [ErrNotFound].
	Load(ctx context.Context, projectID string) (*Cast, error)

	// Delete removes the cast of projectID. Deleting a missing cast is not an
	// error.
	Delete(ctx context.Context, projectID string) error
}

// Cast is one finalized casting of a project.
type Cast struct {
	ProjectID      string    `json:"project_id" yaml:"project_id"`
	Groups         []Group   `json:"groups" yaml:"groups"`
	WorstProximity int       `json:"worst_proximity" yaml:"worst_proximity"`
	Acceptable     bool      `json:"acceptable" yaml:"acceptable"`
	SavedAt        time.Time `json:"saved_at" yaml:"saved_at,omitempty"`
}

// Group is the persisted form of a [casting.CharacterGroup].
type Group struct {
	ID         string   `json:"id" yaml:"id"`
	ActorID    int      `json:"actor_id,omitempty" yaml:"actor_id,omitempty"`
	Cameo      bool     `json:"cameo,omitempty" yaml:"cameo,omitempty"`
	Characters []string `json:"characters" yaml:"characters"`
}

// NewCast builds a cast from a generation result.
func NewCast(projectID string, res *casting.Result) *Cast {
	c := &Cast{
		ProjectID:      projectID,
		Groups:         make([]Group, 0, len(res.Groups)),
		WorstProximity: res.WorstProximity.Blocks,
		Acceptable:     res.Acceptable,
	}
	for _, g := range res.Groups {
		c.Groups = append(c.Groups, Group{
			ID:         g.ID,
			ActorID:    g.ActorID,
			Cameo:      g.Cameo,
			Characters: g.Characters(),
		})
	}
	return c
}

// CharacterGroups converts the cast back into groups, suitable as the
// previous assignments of a new generation run.
func (c *Cast) CharacterGroups() []casting.CharacterGroup {
	out := make([]casting.CharacterGroup, 0, len(c.Groups))
	for _, g := range c.Groups {
		grp := casting.NewCharacterGroup(g.ID, g.ActorID, g.Characters...)
		grp.Cameo = g.Cameo
		out = append(out, *grp)
	}
	return out
}

func (c *Cast) clone() *Cast {
	cp := *c
	cp.Groups = make([]Group, len(c.Groups))
	for i, g := range c.Groups {
		g.Characters = slices.Clone(g.Characters)
		cp.Groups[i] = g
	}
	return &cp
}

func notFound(projectID string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, projectID)
}
