package casting

import (
	"maps"
	"slices"

	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

// NoActor is the ActorID of a group with no actor assigned.
const NoActor = 0

// CharacterGroup is the atomic casting unit: one actor (or none yet) and the
// characters that actor will voice.
//
// A closed group's character set must not change. Cameo groups are always
// closed; other groups are closed transiently during generation.
type CharacterGroup struct {
	ID           string
	CharacterIDs map[string]struct{}
	ActorID      int
	Closed       bool
	Cameo        bool

	// actor is the roster entry behind ActorID during generation.
	actor types.Actor
}

// NewCharacterGroup returns an open group holding characterIDs.
func NewCharacterGroup(id string, actorID int, characterIDs ...string) *CharacterGroup {
	g := &CharacterGroup{ID: id, ActorID: actorID, CharacterIDs: make(map[string]struct{}, len(characterIDs))}
	for _, c := range characterIDs {
		g.CharacterIDs[c] = struct{}{}
	}
	return g
}

// Copy returns a deep copy of g.
func (g *CharacterGroup) Copy() *CharacterGroup {
	c := *g
	c.CharacterIDs = maps.Clone(g.CharacterIDs)
	if c.CharacterIDs == nil {
		c.CharacterIDs = make(map[string]struct{})
	}
	return &c
}

// Contains reports whether the group holds characterID.
func (g *CharacterGroup) Contains(characterID string) bool {
	_, ok := g.CharacterIDs[characterID]
	return ok
}

// Len returns the number of characters in the group.
func (g *CharacterGroup) Len() int { return len(g.CharacterIDs) }

// HasActor reports whether an actor is assigned.
func (g *CharacterGroup) HasActor() bool { return g.ActorID != NoActor }

// Characters returns the group's character IDs, sorted.
func (g *CharacterGroup) Characters() []string {
	return slices.Sorted(maps.Keys(g.CharacterIDs))
}

// Actor returns the roster entry used during generation. It is the zero
// value for groups that were not produced by a [Generator].
func (g *CharacterGroup) Actor() types.Actor { return g.actor }

func (g *CharacterGroup) add(characterID string) {
	if g.CharacterIDs == nil {
		g.CharacterIDs = make(map[string]struct{})
	}
	g.CharacterIDs[characterID] = struct{}{}
}

func (g *CharacterGroup) assignActor(a types.Actor) {
	g.ActorID = a.ID
	g.actor = a
}

func (g *CharacterGroup) clearActor() {
	g.ActorID = NoActor
	g.actor = types.Actor{}
}

// withCharacter returns the group's characters plus characterID.
func (g *CharacterGroup) withCharacter(characterID string) []string {
	ids := make([]string, 0, len(g.CharacterIDs)+1)
	for c := range g.CharacterIDs {
		ids = append(ids, c)
	}
	return append(ids, characterID)
}

// hasNonStandardCharacters reports whether the group holds any ordinary
// speaking part.
func (g *CharacterGroup) hasNonStandardCharacters() bool {
	for c := range g.CharacterIDs {
		if !types.IsStandardCharacter(c) {
			return true
		}
	}
	return false
}

// narratedBooks returns the books whose narrator role the group holds.
func (g *CharacterGroup) narratedBooks() []string {
	var books []string
	for c := range g.CharacterIDs {
		if st, book, ok := types.ParseStandardCharacterID(c); ok && st == types.Narrator {
			books = append(books, book)
		}
	}
	slices.Sort(books)
	return books
}
