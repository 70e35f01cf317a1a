package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sillsdev/Glyssen-sub016/pkg/types"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a project: its books, character catalog,
// script, actor roster and any pre-existing character groups.
type File struct {
	Name       string           `yaml:"name"`
	Books      []BookEntry      `yaml:"books"`
	Authors    []types.Author   `yaml:"authors"`
	Characters []CharacterEntry `yaml:"characters"`
	Script     []ScriptLine     `yaml:"script"`
	Actors     []types.Actor    `yaml:"actors"`
	Groups     []GroupEntry     `yaml:"groups"`
}

// BookEntry declares one book of the project.
type BookEntry struct {
	ID     string `yaml:"id"`
	Author string `yaml:"author"`
}

// CharacterEntry declares one speaking character. Standard per-book
// characters (narrator-MAT, BC-MAT, extra-MAT, intro-MAT) are recognised by
// their ID and must not be declared.
type CharacterEntry struct {
	ID     string                `yaml:"id"`
	Gender types.CharacterGender `yaml:"gender"`
	Age    types.CharacterAge    `yaml:"age"`

	// Keystrokes overrides the text volume computed from the script.
	Keystrokes int `yaml:"keystrokes,omitempty"`

	// SpeechDistribution overrides the computed speech distribution score.
	SpeechDistribution int `yaml:"speech_distribution,omitempty"`

	// SameCharacterAs lists IDs that denote this character at another age.
	SameCharacterAs []string `yaml:"same_character_as,omitempty"`
}

// ScriptLine is one block of the script, spoken by a single character.
type ScriptLine struct {
	Book      string `yaml:"book"`
	Chapter   int    `yaml:"chapter"`
	Character string `yaml:"character"`
	Text      string `yaml:"text"`
}

// GroupEntry is a character group carried over from earlier casting work.
// Cameo groups are kept as-is by the generator.
type GroupEntry struct {
	ID         string   `yaml:"id"`
	ActorID    int      `yaml:"actor_id,omitempty"`
	Cameo      bool     `yaml:"cameo,omitempty"`
	Characters []string `yaml:"characters"`
}

// Load reads the project file at path and returns its [Catalog].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return c, nil
}

// LoadFromReader decodes a YAML project from r, validates it and builds the
// catalog.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	pf := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(pf); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return New(pf)
}

// Validate checks that pf is internally consistent. It returns a joined
// error listing every problem found. Unknown IDs carry a "did you mean"
// suggestion when a close match exists.
func Validate(pf *File) error {
	var errs []error

	if pf.Name == "" {
		slog.Warn("project has no name")
	}

	// Books
	books := make(map[string]string, len(pf.Books))
	var bookIDs []string
	for i, b := range pf.Books {
		switch {
		case b.ID == "":
			errs = append(errs, fmt.Errorf("books[%d].id is required", i))
			continue
		case books[b.ID] != "":
			errs = append(errs, fmt.Errorf("books[%d].id %q is duplicated", i, b.ID))
			continue
		}
		if _, ok := BookIndex(b.ID); !ok {
			errs = append(errs, fmt.Errorf("books[%d].id: %w", i, unknownBook(b.ID, canon)))
		}
		if b.Author == "" {
			errs = append(errs, fmt.Errorf("books[%d].author is required", i))
		}
		books[b.ID] = b.Author
		bookIDs = append(bookIDs, b.ID)
	}
	if len(pf.Books) == 0 {
		errs = append(errs, errors.New("books: at least one book is required"))
	}

	// Authors
	authors := make(map[string]bool, len(pf.Authors))
	for i, a := range pf.Authors {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("authors[%d].name is required", i))
		case authors[a.Name]:
			errs = append(errs, fmt.Errorf("authors[%d].name %q is duplicated", i, a.Name))
		}
		authors[a.Name] = true
	}
	for name := range authors {
		if !authorWritesAny(name, pf.Books) {
			slog.Warn("author wrote none of the project's books", "author", name)
		}
	}

	// Characters
	chars := make(map[string]bool, len(pf.Characters))
	for i, c := range pf.Characters {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("characters[%d].id is required", i))
			continue
		case types.IsStandardCharacter(c.ID):
			errs = append(errs, fmt.Errorf("characters[%d].id %q is a standard character and must not be declared", i, c.ID))
			continue
		case chars[c.ID]:
			errs = append(errs, fmt.Errorf("characters[%d].id %q is duplicated", i, c.ID))
			continue
		}
		chars[c.ID] = true
		if !c.Gender.IsValid() {
			errs = append(errs, fmt.Errorf("characters[%d].gender %q is invalid; valid values: either, female, prefer_female, male, prefer_male, neuter", i, c.Gender))
		}
		if !c.Age.IsValid() {
			errs = append(errs, fmt.Errorf("characters[%d].age %q is invalid; valid values: adult, child, young_adult, elder", i, c.Age))
		}
		if c.Keystrokes < 0 {
			errs = append(errs, fmt.Errorf("characters[%d].keystrokes must be >= 0, got %d", i, c.Keystrokes))
		}
		if c.SpeechDistribution < 0 {
			errs = append(errs, fmt.Errorf("characters[%d].speech_distribution must be >= 0, got %d", i, c.SpeechDistribution))
		}
	}
	known := knownCharacters(pf.Characters, bookIDs)
	for i, c := range pf.Characters {
		for j, s := range c.SameCharacterAs {
			if !chars[s] {
				errs = append(errs, fmt.Errorf("characters[%d].same_character_as[%d]: %w", i, j, unknownCharacter(s, known)))
			} else if s == c.ID {
				errs = append(errs, fmt.Errorf("characters[%d].same_character_as[%d] refers to itself", i, j))
			}
		}
	}

	// Script
	for i, l := range pf.Script {
		if _, ok := books[l.Book]; !ok {
			errs = append(errs, fmt.Errorf("script[%d].book: %w", i, unknownBook(l.Book, bookIDs)))
		}
		if l.Chapter < 0 {
			errs = append(errs, fmt.Errorf("script[%d].chapter must be >= 0, got %d", i, l.Chapter))
		}
		if _, book, ok := types.ParseStandardCharacterID(l.Character); ok {
			if book != l.Book {
				errs = append(errs, fmt.Errorf("script[%d].character %q belongs to book %q, not %q", i, l.Character, book, l.Book))
			}
		} else if !chars[l.Character] {
			errs = append(errs, fmt.Errorf("script[%d].character: %w", i, unknownCharacter(l.Character, known)))
		}
	}

	// Actors
	actors := make(map[int]bool, len(pf.Actors))
	for i, a := range pf.Actors {
		switch {
		case a.ID <= 0:
			errs = append(errs, fmt.Errorf("actors[%d].id must be > 0, got %d", i, a.ID))
		case actors[a.ID]:
			errs = append(errs, fmt.Errorf("actors[%d].id %d is duplicated", i, a.ID))
		}
		actors[a.ID] = true
		if !a.Gender.IsValid() {
			errs = append(errs, fmt.Errorf("actors[%d].gender %q is invalid; valid values: male, female", i, a.Gender))
		}
		if !a.Age.IsValid() {
			errs = append(errs, fmt.Errorf("actors[%d].age %q is invalid; valid values: adult, elder, young_adult, child", i, a.Age))
		}
	}

	// Groups
	groups := make(map[string]bool, len(pf.Groups))
	for i, g := range pf.Groups {
		switch {
		case g.ID == "":
			errs = append(errs, fmt.Errorf("groups[%d].id is required", i))
		case groups[g.ID]:
			errs = append(errs, fmt.Errorf("groups[%d].id %q is duplicated", i, g.ID))
		}
		groups[g.ID] = true
		if g.ActorID != 0 && !actors[g.ActorID] {
			errs = append(errs, fmt.Errorf("groups[%d].actor_id %d does not name an actor", i, g.ActorID))
		}
		if g.Cameo && g.ActorID == 0 {
			errs = append(errs, fmt.Errorf("groups[%d]: a cameo group needs an actor_id", i))
		}
		for j, c := range g.Characters {
			if !chars[c] && !types.IsStandardCharacter(c) {
				errs = append(errs, fmt.Errorf("groups[%d].characters[%d]: %w", i, j, unknownCharacter(c, known)))
			}
		}
	}
	for i, g := range pf.Groups {
		if !g.Cameo || g.ActorID == 0 {
			continue
		}
		for _, a := range pf.Actors {
			if a.ID == g.ActorID && !a.Cameo {
				slog.Warn("cameo group is held by an actor not marked cameo; the group will be regenerated",
					"group", g.ID, "index", i, "actor", a.ID)
			}
		}
	}

	return errors.Join(errs...)
}

func authorWritesAny(name string, books []BookEntry) bool {
	for _, b := range books {
		if b.Author == name {
			return true
		}
	}
	return false
}

// knownCharacters lists declared character IDs and the standard characters
// of bookIDs, for suggestions.
func knownCharacters(chars []CharacterEntry, bookIDs []string) []string {
	known := make([]string, 0, len(chars)+4*len(bookIDs))
	for _, c := range chars {
		if c.ID != "" {
			known = append(known, c.ID)
		}
	}
	for _, b := range bookIDs {
		for _, st := range []types.StandardType{types.Narrator, types.BookOrChapter, types.ExtraBiblical, types.Intro} {
			known = append(known, types.StandardCharacterID(st, b))
		}
	}
	return known
}
