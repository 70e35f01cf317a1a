package casting

import "github.com/sillsdev/Glyssen-sub016/pkg/types"

// RelationKind names a relation between character IDs.
type RelationKind string

// SameCharacter relates IDs that denote one person at different ages, e.g.
// "Jesus" and "Jesus (child)".
const SameCharacter RelationKind = "same_character"

// CharacterCatalog supplies character attributes.
type CharacterCatalog interface {
	Character(characterID string) (types.CharacterDetail, error)
}

// AuthorCatalog supplies the biblical author of each book.
type AuthorCatalog interface {
	AuthorOfBook(bookID string) (types.Author, error)
}

// KeystrokeCatalog supplies the dictated-text volume of each character.
type KeystrokeCatalog interface {
	KeystrokesFor(characterID string) (int, error)
}

// SpeechDistribution supplies the ordering key used to sequence assignment.
type SpeechDistribution interface {
	SpeechDistributionScore(characterID string) (int, error)
}

// RelatedCharacters supplies relations between character IDs.
type RelatedCharacters interface {
	SiblingsOf(characterID string, kind RelationKind) []string
}

// Catalog bundles every catalog the generator consumes. Implementations are
// treated as read-only for the duration of a run and must be safe for
// concurrent reads.
type Catalog interface {
	CharacterCatalog
	AuthorCatalog
	KeystrokeCatalog
	SpeechDistribution
	RelatedCharacters
}

// Project is the set of books and characters to cast.
type Project struct {
	Name string

	// Books lists the book codes in canonical order.
	Books []string

	// Characters lists every character with lines in the project, standard
	// per-book roles included.
	Characters []string
}
