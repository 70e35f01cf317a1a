// Package casting generates character groups: it partitions every speaking
// role of a multi-book script among a roster of voice actors.
//
// The [Generator] runs a multi-pass search:
//
//  1. One [CharacterGroup] is created per actor. Cameo actors keep their
//     pre-existing, closed group.
//  2. Characters that only one actor can voice are pinned to that actor's
//     group before anything else competes for it.
//  3. Several trial configurations are built, differing in narrator gender
//     split and extra-biblical role placement. Each trial distributes the
//     books among narrator groups, places the deity characters, then
//     greedily assigns every remaining character to the best-fitting,
//     lowest-conflict group.
//  4. The best trial is selected. When no trial is acceptable a relaxed
//     fallback pass runs.
//  5. The winner is finalized: transient locks are removed, unused or ghost
//     actor assignments are cleared and previous actor assignments are
//     re-attached where the same characters still share a group.
//
// Attribute matching, proximity, and the author/keystroke catalogs are
// consumed through the narrow interfaces declared in this package and in
// [proximity.Calculator].
package casting

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

var (
	// ErrNoActors is returned when the roster yields no castable group.
	ErrNoActors = errors.New("casting: no actors to cast")

	// ErrNoNarratorGroups is returned when books still need a narrator but no
	// group is eligible for narration.
	ErrNoNarratorGroups = errors.New("casting: no group is eligible to narrate")

	// ErrNoAcceptableCast is returned when strict enforcement was requested
	// and even the fallback pass found no acceptable configuration.
	ErrNoAcceptableCast = errors.New("casting: no acceptable cast found")

	// ErrNoAvailableGroup is returned when a character cannot be placed
	// because every group is a closed cameo group.
	ErrNoAvailableGroup = errors.New("casting: no group available for character")

	// ErrCancelled wraps the context error when a run is cancelled.
	ErrCancelled = errors.New("casting: generation cancelled")
)

// RolePolicy controls how an extra-biblical role is dramatized.
type RolePolicy string

const (
	Omitted             RolePolicy = "omitted"
	ByNarrator          RolePolicy = "narrator"
	MaleActor           RolePolicy = "male_actor"
	FemaleActor         RolePolicy = "female_actor"
	ActorOfEitherGender RolePolicy = "either"
)

// IsValid reports whether p is a recognised policy.
func (p RolePolicy) IsValid() bool {
	switch p {
	case Omitted, ByNarrator, MaleActor, FemaleActor, ActorOfEitherGender:
		return true
	}
	return false
}

// Preferences holds the dramatization choices for a generation run.
type Preferences struct {
	MaleNarrators   int
	FemaleNarrators int

	// Policies for the three extra-biblical roles. An empty policy means
	// [ByNarrator].
	BookTitleChapter  RolePolicy
	SectionHeads      RolePolicy
	BookIntroductions RolePolicy
}

// NarratorCount returns the requested total number of narrator groups.
func (p Preferences) NarratorCount() int { return p.MaleNarrators + p.FemaleNarrators }

func (p Preferences) policyFor(st types.StandardType) RolePolicy {
	var pol RolePolicy
	switch st {
	case types.BookOrChapter:
		pol = p.BookTitleChapter
	case types.ExtraBiblical:
		pol = p.SectionHeads
	case types.Intro:
		pol = p.BookIntroductions
	}
	if pol == "" {
		return ByNarrator
	}
	return pol
}

// usesEitherGender reports whether any role lets the trial choose a gender.
func (p Preferences) usesEitherGender() bool {
	for _, st := range extraBiblicalRoles {
		if p.policyFor(st) == ActorOfEitherGender {
			return true
		}
	}
	return false
}

var extraBiblicalRoles = []types.StandardType{types.BookOrChapter, types.ExtraBiblical, types.Intro}

// GhostCast describes a synthesized roster used to explore cast sizes before
// real actors are committed.
type GhostCast struct {
	MaleAdults   int
	FemaleAdults int
	MaleChildren int
}

// IsZero reports whether no ghost actors are requested.
func (gc GhostCast) IsZero() bool {
	return gc.MaleAdults == 0 && gc.FemaleAdults == 0 && gc.MaleChildren == 0
}

// Actors synthesizes the ghost roster. Ghost actors have negative IDs.
func (gc GhostCast) Actors() []types.Actor {
	actors := make([]types.Actor, 0, gc.MaleAdults+gc.FemaleAdults+gc.MaleChildren)
	add := func(n int, g types.ActorGender, a types.ActorAge) {
		for range n {
			id := -(len(actors) + 1)
			actors = append(actors, types.Actor{
				ID:     id,
				Name:   "ghost " + strconv.Itoa(-id),
				Gender: g,
				Age:    a,
				Ghost:  true,
			})
		}
	}
	add(gc.MaleAdults, types.ActorMale, types.ActorAdult)
	add(gc.FemaleAdults, types.ActorFemale, types.ActorAdult)
	add(gc.MaleChildren, types.ActorMale, types.ActorChild)
	return actors
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
