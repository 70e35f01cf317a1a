// Package types defines the shared value types used across the casting
// packages.
//
// These types form the lingua franca between the catalog, the proximity
// calculator, the group store and the generator. Each package defines its own
// domain types, but the actor and character records live here to avoid
// circular imports.
package types

import "fmt"

// ActorGender is the gender of a voice actor.
type ActorGender string

const (
	ActorMale   ActorGender = "male"
	ActorFemale ActorGender = "female"
)

// IsValid reports whether g is a recognised actor gender.
func (g ActorGender) IsValid() bool {
	return g == ActorMale || g == ActorFemale
}

// ActorAge is the vocal age range of a voice actor.
type ActorAge string

const (
	ActorAdult      ActorAge = "adult"
	ActorElder      ActorAge = "elder"
	ActorYoungAdult ActorAge = "young_adult"
	ActorChild      ActorAge = "child"
)

// IsValid reports whether a is a recognised actor age.
func (a ActorAge) IsValid() bool {
	switch a {
	case ActorAdult, ActorElder, ActorYoungAdult, ActorChild:
		return true
	}
	return false
}

// Actor is a real or synthesized ("ghost") voice talent that can be cast to
// a character group.
type Actor struct {
	// ID uniquely identifies the actor within a project. Ghost actors use
	// negative IDs.
	ID int `yaml:"id" json:"id"`

	// Name is the display name. Empty for ghost actors.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	Gender ActorGender `yaml:"gender" json:"gender"`
	Age    ActorAge    `yaml:"age" json:"age"`

	// Cameo marks an actor pre-committed to a fixed, closed group.
	Cameo bool `yaml:"cameo,omitempty" json:"cameo,omitempty"`

	// Inactive actors are ignored by the generator.
	Inactive bool `yaml:"inactive,omitempty" json:"inactive,omitempty"`

	// Ghost marks a synthesized actor used to explore cast sizes.
	Ghost bool `yaml:"-" json:"ghost,omitempty"`
}

// IsChild reports whether the actor voices children.
func (a Actor) IsChild() bool { return a.Age == ActorChild }

func (a Actor) String() string {
	if a.Name != "" {
		return fmt.Sprintf("%s (#%d)", a.Name, a.ID)
	}
	return fmt.Sprintf("#%d", a.ID)
}

// CharacterGender is the gender a character requires of its actor.
type CharacterGender string

const (
	GenderEither       CharacterGender = "either"
	GenderFemale       CharacterGender = "female"
	GenderPreferFemale CharacterGender = "prefer_female"
	GenderMale         CharacterGender = "male"
	GenderPreferMale   CharacterGender = "prefer_male"
	GenderNeuter       CharacterGender = "neuter"
)

// IsValid reports whether g is a recognised character gender.
func (g CharacterGender) IsValid() bool {
	switch g {
	case GenderEither, GenderFemale, GenderPreferFemale, GenderMale, GenderPreferMale, GenderNeuter:
		return true
	}
	return false
}

// IsMaleLeaning reports whether g is Male or PreferMale.
func (g CharacterGender) IsMaleLeaning() bool {
	return g == GenderMale || g == GenderPreferMale
}

// IsNeutral reports whether any actor fits g equally well.
func (g CharacterGender) IsNeutral() bool {
	return g == GenderEither || g == GenderNeuter
}

// CharacterAge is the age a character is portrayed at.
type CharacterAge string

const (
	AgeAdult      CharacterAge = "adult"
	AgeChild      CharacterAge = "child"
	AgeYoungAdult CharacterAge = "young_adult"
	AgeElder      CharacterAge = "elder"
)

// IsValid reports whether a is a recognised character age.
func (a CharacterAge) IsValid() bool {
	switch a {
	case AgeAdult, AgeChild, AgeYoungAdult, AgeElder:
		return true
	}
	return false
}

// StandardType classifies per-book roles that are not individual speaking
// parts.
type StandardType string

const (
	NonStandard   StandardType = ""
	Narrator      StandardType = "narrator"
	BookOrChapter StandardType = "book_or_chapter"
	ExtraBiblical StandardType = "extra_biblical"
	Intro         StandardType = "intro"
)

// CharacterDetail holds the casting-relevant attributes of one character.
type CharacterDetail struct {
	CharacterID  string          `yaml:"id" json:"id"`
	Gender       CharacterGender `yaml:"gender" json:"gender"`
	Age          CharacterAge    `yaml:"age" json:"age"`
	StandardType StandardType    `yaml:"-" json:"standard_type,omitempty"`
}

// IsStandard reports whether the character is one of the per-book roles.
func (c CharacterDetail) IsStandard() bool { return c.StandardType != NonStandard }

// Author is the biblical author of one or more books.
type Author struct {
	Name string `yaml:"name" json:"name"`

	// CombineAuthorAndNarrator requests that the author's own speaking part
	// be voiced by the narrator of the author's books.
	CombineAuthorAndNarrator bool `yaml:"combine_author_and_narrator,omitempty" json:"combine_author_and_narrator,omitempty"`
}
