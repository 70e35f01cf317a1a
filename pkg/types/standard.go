package types

import "strings"

// Standard character ID prefixes. A standard character ID is the prefix, a
// dash and the three-letter book code, e.g. "narrator-MAT".
const (
	narratorPrefix      = "narrator-"
	bookOrChapterPrefix = "BC-"
	extraBiblicalPrefix = "extra-"
	introPrefix         = "intro-"
)

// Deity and scripture character IDs that receive dedicated groups.
const (
	Jesus      = "Jesus"
	God        = "God"
	HolySpirit = "Holy Spirit, the"
	Scripture  = "scripture"
)

// StandardCharacterID returns the ID of the standard character of kind st for
// bookID. It returns "" for [NonStandard].
func StandardCharacterID(st StandardType, bookID string) string {
	switch st {
	case Narrator:
		return narratorPrefix + bookID
	case BookOrChapter:
		return bookOrChapterPrefix + bookID
	case ExtraBiblical:
		return extraBiblicalPrefix + bookID
	case Intro:
		return introPrefix + bookID
	}
	return ""
}

// ParseStandardCharacterID splits a standard character ID into its kind and
// book code. ok is false for ordinary character IDs.
func ParseStandardCharacterID(id string) (st StandardType, bookID string, ok bool) {
	for _, p := range []struct {
		prefix string
		st     StandardType
	}{
		{narratorPrefix, Narrator},
		{bookOrChapterPrefix, BookOrChapter},
		{extraBiblicalPrefix, ExtraBiblical},
		{introPrefix, Intro},
	} {
		if book, found := strings.CutPrefix(id, p.prefix); found && book != "" {
			return p.st, book, true
		}
	}
	return NonStandard, "", false
}

// IsStandardCharacter reports whether id names a per-book standard role.
func IsStandardCharacter(id string) bool {
	_, _, ok := ParseStandardCharacterID(id)
	return ok
}

// StandardCharacterDetail returns the detail record used for standard
// characters. Standard roles can be read by any adult actor.
func StandardCharacterDetail(id string) (CharacterDetail, bool) {
	st, _, ok := ParseStandardCharacterID(id)
	if !ok {
		return CharacterDetail{}, false
	}
	return CharacterDetail{
		CharacterID:  id,
		Gender:       GenderEither,
		Age:          AgeAdult,
		StandardType: st,
	}, true
}
