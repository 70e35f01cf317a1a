package casting

import "github.com/sillsdev/Glyssen-sub016/pkg/types"

// MatchLevel grades how well an actor attribute fits a character.
// Lower values are better.
type MatchLevel int

const (
	Perfect MatchLevel = iota
	Acceptable
	Poor
	Mismatch
)

func (l MatchLevel) String() string {
	switch l {
	case Perfect:
		return "perfect"
	case Acceptable:
		return "acceptable"
	case Poor:
		return "poor"
	case Mismatch:
		return "mismatch"
	}
	return "unknown"
}

// MatchQuality is the (gender, age) pair used to bucket candidate groups.
type MatchQuality struct {
	Gender MatchLevel
	Age    MatchLevel
}

func (q MatchQuality) String() string {
	return q.Gender.String() + "/" + q.Age.String()
}

// Matcher grades actors against characters.
// Implementations must be safe for concurrent use.
type Matcher interface {
	GenderQuality(actor types.Actor, character types.CharacterDetail) MatchLevel
	AgeQuality(actor types.Actor, character types.CharacterDetail) MatchLevel
}

// Quality returns both grades for actor and character.
func Quality(m Matcher, actor types.Actor, character types.CharacterDetail) MatchQuality {
	return MatchQuality{
		Gender: m.GenderQuality(actor, character),
		Age:    m.AgeQuality(actor, character),
	}
}

// Compatible reports whether actor could reasonably voice character: both
// grades are Perfect or Acceptable.
func Compatible(m Matcher, actor types.Actor, character types.CharacterDetail) bool {
	q := Quality(m, actor, character)
	return q.Gender <= Acceptable && q.Age <= Acceptable
}

// DefaultMatcher implements the standard casting rules.
//
// A female actor may always voice a male child, so that pairing is graded
// Acceptable rather than Mismatch.
type DefaultMatcher struct{}

var _ Matcher = DefaultMatcher{}

// GenderQuality implements [Matcher].
func (DefaultMatcher) GenderQuality(actor types.Actor, character types.CharacterDetail) MatchLevel {
	male := actor.Gender == types.ActorMale
	switch character.Gender {
	case types.GenderMale:
		if male {
			return Perfect
		}
		if character.Age == types.AgeChild {
			return Acceptable
		}
		return Mismatch
	case types.GenderPreferMale:
		if male {
			return Perfect
		}
		return Acceptable
	case types.GenderFemale:
		if male {
			return Mismatch
		}
		return Perfect
	case types.GenderPreferFemale:
		if male {
			return Acceptable
		}
		return Perfect
	}
	return Perfect
}

// AgeQuality implements [Matcher].
func (DefaultMatcher) AgeQuality(actor types.Actor, character types.CharacterDetail) MatchLevel {
	actorChild := actor.Age == types.ActorChild
	charChild := character.Age == types.AgeChild
	if actorChild || charChild {
		if actorChild == charChild {
			return Perfect
		}
		return Mismatch
	}

	actorAge := actor.Age
	if actorAge == "" {
		actorAge = types.ActorAdult
	}
	charAge := character.Age
	if charAge == "" {
		charAge = types.AgeAdult
	}
	switch {
	case string(actorAge) == string(charAge):
		return Perfect
	case actorAge == types.ActorAdult || charAge == types.AgeAdult:
		return Acceptable
	}
	// Elder against young adult.
	return Poor
}
