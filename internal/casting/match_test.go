package casting_test

import (
	"testing"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

func TestDefaultMatcher_GenderQuality(t *testing.T) {
	t.Parallel()

	male := types.Actor{ID: 1, Gender: types.ActorMale, Age: types.ActorAdult}
	female := types.Actor{ID: 2, Gender: types.ActorFemale, Age: types.ActorAdult}

	tests := []struct {
		name   string
		gender types.CharacterGender
		age    types.CharacterAge
		actor  types.Actor
		want   casting.MatchLevel
	}{
		{"male/male", types.GenderMale, types.AgeAdult, male, casting.Perfect},
		{"male/female", types.GenderMale, types.AgeAdult, female, casting.Mismatch},
		{"male child/female", types.GenderMale, types.AgeChild, female, casting.Acceptable},
		{"prefer male/female", types.GenderPreferMale, types.AgeAdult, female, casting.Acceptable},
		{"female/male", types.GenderFemale, types.AgeAdult, male, casting.Mismatch},
		{"female child/male", types.GenderFemale, types.AgeChild, male, casting.Mismatch},
		{"prefer female/male", types.GenderPreferFemale, types.AgeAdult, male, casting.Acceptable},
		{"either/female", types.GenderEither, types.AgeAdult, female, casting.Perfect},
		{"neuter/male", types.GenderNeuter, types.AgeAdult, male, casting.Perfect},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := types.CharacterDetail{CharacterID: "x", Gender: tc.gender, Age: tc.age}
			if got := (casting.DefaultMatcher{}).GenderQuality(tc.actor, c); got != tc.want {
				t.Errorf("GenderQuality = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultMatcher_AgeQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		actor types.ActorAge
		char  types.CharacterAge
		want  casting.MatchLevel
	}{
		{types.ActorAdult, types.AgeAdult, casting.Perfect},
		{types.ActorAdult, types.AgeElder, casting.Acceptable},
		{types.ActorAdult, types.AgeYoungAdult, casting.Acceptable},
		{types.ActorElder, types.AgeAdult, casting.Acceptable},
		{types.ActorElder, types.AgeElder, casting.Perfect},
		{types.ActorElder, types.AgeYoungAdult, casting.Poor},
		{types.ActorYoungAdult, types.AgeElder, casting.Poor},
		{types.ActorChild, types.AgeChild, casting.Perfect},
		{types.ActorChild, types.AgeAdult, casting.Mismatch},
		{types.ActorAdult, types.AgeChild, casting.Mismatch},
	}
	for _, tc := range tests {
		t.Run(string(tc.actor)+"/"+string(tc.char), func(t *testing.T) {
			t.Parallel()
			a := types.Actor{ID: 1, Gender: types.ActorMale, Age: tc.actor}
			c := types.CharacterDetail{CharacterID: "x", Gender: types.GenderEither, Age: tc.char}
			if got := (casting.DefaultMatcher{}).AgeQuality(a, c); got != tc.want {
				t.Errorf("AgeQuality = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	m := casting.DefaultMatcher{}
	child := types.Actor{ID: 1, Gender: types.ActorMale, Age: types.ActorChild}
	adult := types.Actor{ID: 2, Gender: types.ActorMale, Age: types.ActorAdult}
	boy := types.CharacterDetail{CharacterID: "boy", Gender: types.GenderMale, Age: types.AgeChild}
	oldMan := types.CharacterDetail{CharacterID: "Simeon", Gender: types.GenderMale, Age: types.AgeElder}

	if !casting.Compatible(m, child, boy) {
		t.Error("child actor should be compatible with a boy")
	}
	if casting.Compatible(m, adult, boy) {
		t.Error("adult actor should not be compatible with a boy")
	}
	if !casting.Compatible(m, adult, oldMan) {
		t.Error("adult actor should be compatible with an elder")
	}
	if casting.Compatible(m, child, oldMan) {
		t.Error("child actor should not be compatible with an elder")
	}
}
