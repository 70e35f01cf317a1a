// Package catalog loads a project file and serves the character, author,
// keystroke, speech distribution and relation lookups the casting generator
// consumes.
//
// A [Catalog] is built once from a validated [File] and is read-only
// afterwards; all methods are safe for concurrent use.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

// Sentinel errors returned by catalog lookups.
var (
	ErrUnknownCharacter = errors.New("catalog: unknown character")
	ErrUnknownBook      = errors.New("catalog: unknown book")
)

// Compile-time interface check.
var _ casting.Catalog = (*Catalog)(nil)

var suggester = NewSuggester()

func unknownCharacter(id string, known []string) error {
	return fmt.Errorf("%w %q%s", ErrUnknownCharacter, id, suggester.hint(id, known))
}

func unknownBook(id string, known []string) error {
	return fmt.Errorf("%w %q%s", ErrUnknownBook, id, suggester.hint(id, known))
}

// Catalog is the indexed form of a project [File].
type Catalog struct {
	name       string
	books      []string
	bookAuthor map[string]types.Author
	details    map[string]types.CharacterDetail
	keystrokes map[string]int
	scores     map[string]int
	siblings   map[string][]string
	blocks     []proximity.Block
	actors     []types.Actor
	groups     []GroupEntry

	knownCharacters []string
}

// New validates pf and indexes it.
func New(pf *File) (*Catalog, error) {
	if err := Validate(pf); err != nil {
		return nil, err
	}

	c := &Catalog{
		name:       pf.Name,
		bookAuthor: make(map[string]types.Author, len(pf.Books)),
		details:    make(map[string]types.CharacterDetail, len(pf.Characters)),
		keystrokes: make(map[string]int),
		scores:     make(map[string]int),
		siblings:   make(map[string][]string),
		actors:     slices.Clone(pf.Actors),
		groups:     slices.Clone(pf.Groups),
	}

	authors := make(map[string]types.Author, len(pf.Authors))
	for _, a := range pf.Authors {
		authors[a.Name] = a
	}
	for _, b := range pf.Books {
		a, ok := authors[b.Author]
		if !ok {
			a = types.Author{Name: b.Author}
		}
		c.bookAuthor[b.ID] = a
		c.books = append(c.books, b.ID)
	}
	slices.SortFunc(c.books, func(a, b string) int {
		ia, _ := BookIndex(a)
		ib, _ := BookIndex(b)
		return cmp.Compare(ia, ib)
	})

	for _, ch := range pf.Characters {
		c.details[ch.ID] = types.CharacterDetail{CharacterID: ch.ID, Gender: ch.Gender, Age: ch.Age}
		for _, s := range ch.SameCharacterAs {
			c.relate(ch.ID, s)
		}
	}
	c.knownCharacters = knownCharacters(pf.Characters, c.books)

	c.indexScript(pf.Script)
	for _, ch := range pf.Characters {
		if ch.Keystrokes > 0 {
			c.keystrokes[ch.ID] = ch.Keystrokes
		}
		if ch.SpeechDistribution > 0 {
			c.scores[ch.ID] = ch.SpeechDistribution
		}
	}
	return c, nil
}

// relate records a symmetric same-character relation.
func (c *Catalog) relate(a, b string) {
	if !slices.Contains(c.siblings[a], b) {
		c.siblings[a] = append(c.siblings[a], b)
	}
	if !slices.Contains(c.siblings[b], a) {
		c.siblings[b] = append(c.siblings[b], a)
	}
}

// indexScript computes keystrokes and speech distribution scores and keeps
// the block sequence for proximity calculation.
func (c *Catalog) indexScript(script []ScriptLine) {
	type chapterKey struct {
		book    string
		chapter int
	}
	blockCount := make(map[string]int)
	chapters := make(map[string]map[chapterKey]struct{})

	c.blocks = make([]proximity.Block, 0, len(script))
	for _, l := range script {
		c.blocks = append(c.blocks, proximity.Block{BookID: l.Book, Chapter: l.Chapter, CharacterID: l.Character})
		c.keystrokes[l.Character] += utf8.RuneCountInString(l.Text)
		blockCount[l.Character]++
		if chapters[l.Character] == nil {
			chapters[l.Character] = make(map[chapterKey]struct{})
		}
		chapters[l.Character][chapterKey{l.Book, l.Chapter}] = struct{}{}
	}
	for id, n := range blockCount {
		c.scores[id] = len(chapters[id]) * n
	}
}

// Name returns the project name.
func (c *Catalog) Name() string { return c.name }

// Character implements [casting.CharacterCatalog]. Standard characters of
// the project's books get their standard detail record.
func (c *Catalog) Character(characterID string) (types.CharacterDetail, error) {
	if d, ok := c.details[characterID]; ok {
		return d, nil
	}
	if d, ok := types.StandardCharacterDetail(characterID); ok {
		_, book, _ := types.ParseStandardCharacterID(characterID)
		if _, known := c.bookAuthor[book]; !known {
			return types.CharacterDetail{}, fmt.Errorf("character %q: %w", characterID, unknownBook(book, c.books))
		}
		return d, nil
	}
	return types.CharacterDetail{}, unknownCharacter(characterID, c.knownCharacters)
}

// AuthorOfBook implements [casting.AuthorCatalog].
func (c *Catalog) AuthorOfBook(bookID string) (types.Author, error) {
	a, ok := c.bookAuthor[bookID]
	if !ok {
		return types.Author{}, unknownBook(bookID, c.books)
	}
	return a, nil
}

// KeystrokesFor implements [casting.KeystrokeCatalog]. A character with no
// script lines has zero keystrokes.
func (c *Catalog) KeystrokesFor(characterID string) (int, error) {
	if _, err := c.Character(characterID); err != nil {
		return 0, err
	}
	return c.keystrokes[characterID], nil
}

// SpeechDistributionScore implements [casting.SpeechDistribution]. The
// score is the number of distinct chapters a character speaks in times its
// block count, unless the project overrides it.
func (c *Catalog) SpeechDistributionScore(characterID string) (int, error) {
	if _, err := c.Character(characterID); err != nil {
		return 0, err
	}
	return c.scores[characterID], nil
}

// SiblingsOf implements [casting.RelatedCharacters].
func (c *Catalog) SiblingsOf(characterID string, kind casting.RelationKind) []string {
	if kind != casting.SameCharacter {
		return nil
	}
	return slices.Clone(c.siblings[characterID])
}

// Books returns the project's book codes in canonical order.
func (c *Catalog) Books() []string { return slices.Clone(c.books) }

// Project returns the casting project: every character with lines, heaviest
// first.
func (c *Catalog) Project() casting.Project {
	var chars []string
	for id, ks := range c.keystrokes {
		if ks > 0 {
			chars = append(chars, id)
		}
	}
	slices.SortFunc(chars, func(a, b string) int {
		if n := cmp.Compare(c.keystrokes[b], c.keystrokes[a]); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})
	return casting.Project{Name: c.name, Books: c.Books(), Characters: chars}
}

// Blocks returns the script as proximity blocks, in script order.
func (c *Catalog) Blocks() []proximity.Block { return slices.Clone(c.blocks) }

// Actors returns the project's actor roster.
func (c *Catalog) Actors() []types.Actor { return slices.Clone(c.actors) }

// Groups returns the project's existing character groups. Cameo groups are
// closed.
func (c *Catalog) Groups() []casting.CharacterGroup {
	out := make([]casting.CharacterGroup, 0, len(c.groups))
	for _, g := range c.groups {
		grp := casting.NewCharacterGroup(g.ID, g.ActorID, g.Characters...)
		grp.Cameo = g.Cameo
		grp.Closed = g.Cameo
		out = append(out, *grp)
	}
	return out
}
