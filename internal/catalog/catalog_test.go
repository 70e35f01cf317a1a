package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/internal/catalog"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"github.com/sillsdev/Glyssen-sub016/pkg/types"
)

const gospelsYAML = `
name: Gospels
books:
  - id: MRK
    author: Mark
  - id: MAT
    author: Matthew
authors:
  - name: Matthew
    combine_author_and_narrator: true
characters:
  - id: Jesus
    gender: male
    age: adult
    same_character_as: ["Jesus (child)"]
  - id: Jesus (child)
    gender: male
    age: child
  - id: Peter
    gender: male
    age: adult
    keystrokes: 500
  - id: Mary
    gender: female
    age: adult
script:
  - {book: MAT, chapter: 1, character: narrator-MAT, text: "abcde"}
  - {book: MAT, chapter: 1, character: Jesus, text: "héllo"}
  - {book: MAT, chapter: 2, character: Jesus, text: "hi"}
  - {book: MAT, chapter: 2, character: Peter, text: "x"}
  - {book: MRK, chapter: 1, character: narrator-MRK, text: "abc"}
  - {book: MRK, chapter: 1, character: Jesus, text: "abc"}
actors:
  - id: 1
    name: Alice
    gender: female
    age: adult
  - id: 2
    name: Bob
    gender: male
    age: adult
    cameo: true
groups:
  - id: cameo-1
    actor_id: 2
    cameo: true
    characters: [Peter]
`

func loadGospels(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadFromReader(strings.NewReader(gospelsYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return c
}

func TestLoadFromReader_Project(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)
	if c.Name() != "Gospels" {
		t.Errorf("Name = %q, want Gospels", c.Name())
	}

	p := c.Project()
	if want := []string{"MAT", "MRK"}; !reflect.DeepEqual(p.Books, want) {
		t.Errorf("Books = %v, want canonical order %v", p.Books, want)
	}
	// Heaviest first; characters without lines are excluded.
	if want := []string{"Peter", "Jesus", "narrator-MAT", "narrator-MRK"}; !reflect.DeepEqual(p.Characters, want) {
		t.Errorf("Characters = %v, want %v", p.Characters, want)
	}
}

func TestCatalog_Keystrokes(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)
	tests := []struct {
		id   string
		want int
	}{
		{"Jesus", 10},
		{"Peter", 500},
		{"narrator-MAT", 5},
		{"Mary", 0},
		{"intro-MAT", 0},
	}
	for _, tc := range tests {
		got, err := c.KeystrokesFor(tc.id)
		if err != nil {
			t.Errorf("KeystrokesFor(%q): %v", tc.id, err)
			continue
		}
		if got != tc.want {
			t.Errorf("KeystrokesFor(%q) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestCatalog_SpeechDistributionScore(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)
	// Jesus speaks in three distinct chapters across three blocks.
	if got, err := c.SpeechDistributionScore("Jesus"); err != nil || got != 9 {
		t.Errorf("SpeechDistributionScore(Jesus) = %d, %v; want 9", got, err)
	}
	if got, err := c.SpeechDistributionScore("Peter"); err != nil || got != 1 {
		t.Errorf("SpeechDistributionScore(Peter) = %d, %v; want 1", got, err)
	}
	if _, err := c.SpeechDistributionScore("Pilate"); !errors.Is(err, catalog.ErrUnknownCharacter) {
		t.Errorf("SpeechDistributionScore(Pilate) error = %v, want ErrUnknownCharacter", err)
	}
}

func TestCatalog_Character(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)

	d, err := c.Character("Jesus (child)")
	if err != nil {
		t.Fatalf("Character: %v", err)
	}
	if d.Gender != types.GenderMale || d.Age != types.AgeChild {
		t.Errorf("Jesus (child) = %+v", d)
	}

	d, err = c.Character("narrator-MRK")
	if err != nil {
		t.Fatalf("Character(narrator-MRK): %v", err)
	}
	if d.StandardType != types.Narrator || d.Gender != types.GenderEither {
		t.Errorf("narrator-MRK = %+v, want a narrator of either gender", d)
	}

	if _, err := c.Character("narrator-LUK"); !errors.Is(err, catalog.ErrUnknownBook) {
		t.Errorf("Character(narrator-LUK) error = %v, want ErrUnknownBook", err)
	}

	_, err = c.Character("Jseus")
	if !errors.Is(err, catalog.ErrUnknownCharacter) {
		t.Fatalf("Character(Jseus) error = %v, want ErrUnknownCharacter", err)
	}
	if !strings.Contains(err.Error(), `did you mean "Jesus"?`) {
		t.Errorf("error %q carries no suggestion", err)
	}
}

func TestCatalog_AuthorOfBook(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)

	a, err := c.AuthorOfBook("MAT")
	if err != nil {
		t.Fatalf("AuthorOfBook(MAT): %v", err)
	}
	if a.Name != "Matthew" || !a.CombineAuthorAndNarrator {
		t.Errorf("AuthorOfBook(MAT) = %+v", a)
	}

	a, err = c.AuthorOfBook("MRK")
	if err != nil || a != (types.Author{Name: "Mark"}) {
		t.Errorf("AuthorOfBook(MRK) = %+v, %v; want plain Mark", a, err)
	}

	if _, err := c.AuthorOfBook("LUK"); !errors.Is(err, catalog.ErrUnknownBook) {
		t.Errorf("AuthorOfBook(LUK) error = %v, want ErrUnknownBook", err)
	}
}

func TestCatalog_SiblingsOf(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)
	if got := c.SiblingsOf("Jesus (child)", casting.SameCharacter); !reflect.DeepEqual(got, []string{"Jesus"}) {
		t.Errorf("SiblingsOf(Jesus (child)) = %v, want [Jesus]", got)
	}
	if got := c.SiblingsOf("Jesus", casting.SameCharacter); !reflect.DeepEqual(got, []string{"Jesus (child)"}) {
		t.Errorf("SiblingsOf(Jesus) = %v, want [Jesus (child)]", got)
	}
	if got := c.SiblingsOf("Jesus", casting.RelationKind("other")); got != nil {
		t.Errorf("SiblingsOf with unknown kind = %v, want nil", got)
	}
}

func TestCatalog_BlocksActorsGroups(t *testing.T) {
	t.Parallel()

	c := loadGospels(t)

	blocks := c.Blocks()
	if len(blocks) != 6 {
		t.Fatalf("got %d blocks, want 6", len(blocks))
	}
	if want := (proximity.Block{BookID: "MAT", Chapter: 1, CharacterID: "narrator-MAT"}); blocks[0] != want {
		t.Errorf("blocks[0] = %+v, want %+v", blocks[0], want)
	}

	if got := len(c.Actors()); got != 2 {
		t.Errorf("got %d actors, want 2", got)
	}

	groups := c.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.ID != "cameo-1" || g.ActorID != 2 || !g.Cameo || !g.Closed || !g.Contains("Peter") {
		t.Errorf("group = %+v, want closed cameo-1 for actor 2 holding Peter", g)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(gospelsYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name() != "Gospels" {
		t.Errorf("Name = %q", c.Name())
	}

	if _, err := catalog.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	t.Parallel()

	const books = "books:\n  - {id: MAT, author: Matthew}\n"

	tests := []struct {
		name    string
		yaml    string
		wantIs  error
		wantMsg string
	}{
		{
			name:    "unknown field",
			yaml:    books + "bogus: 1\n",
			wantMsg: "bogus",
		},
		{
			name:    "no books",
			yaml:    "name: Empty\n",
			wantMsg: "at least one book",
		},
		{
			name:    "book outside the canon",
			yaml:    "books:\n  - {id: MTA, author: Matthew}\n",
			wantIs:  catalog.ErrUnknownBook,
			wantMsg: "books[0].id",
		},
		{
			name:    "unknown script character",
			yaml:    books + "characters:\n  - {id: Jesus, gender: male, age: adult}\nscript:\n  - {book: MAT, chapter: 1, character: Jseus, text: x}\n",
			wantIs:  catalog.ErrUnknownCharacter,
			wantMsg: `did you mean "Jesus"?`,
		},
		{
			name:    "script line in an undeclared book",
			yaml:    books + "script:\n  - {book: MRK, chapter: 1, character: narrator-MRK, text: x}\n",
			wantIs:  catalog.ErrUnknownBook,
			wantMsg: "script[0].book",
		},
		{
			name:    "standard character in the wrong book",
			yaml:    "books:\n  - {id: MAT, author: Matthew}\n  - {id: MRK, author: Mark}\nscript:\n  - {book: MAT, chapter: 1, character: narrator-MRK, text: x}\n",
			wantMsg: "belongs to book",
		},
		{
			name:    "declared standard character",
			yaml:    books + "characters:\n  - {id: narrator-MAT, gender: male, age: adult}\n",
			wantMsg: "must not be declared",
		},
		{
			name:    "invalid gender",
			yaml:    books + "characters:\n  - {id: Jesus, gender: manly, age: adult}\n",
			wantMsg: "characters[0].gender",
		},
		{
			name:    "duplicate actor",
			yaml:    books + "actors:\n  - {id: 1, gender: male, age: adult}\n  - {id: 1, gender: female, age: adult}\n",
			wantMsg: "actors[1].id 1 is duplicated",
		},
		{
			name:    "cameo group without actor",
			yaml:    books + "groups:\n  - {id: c, cameo: true, characters: []}\n",
			wantMsg: "cameo group needs an actor_id",
		},
		{
			name:    "unknown sibling",
			yaml:    books + "characters:\n  - {id: Jesus, gender: male, age: adult, same_character_as: [Jesu]}\n",
			wantIs:  catalog.ErrUnknownCharacter,
			wantMsg: "same_character_as[0]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Errorf("error %v does not wrap %v", err, tc.wantIs)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestBookIndex(t *testing.T) {
	t.Parallel()

	mat, ok := catalog.BookIndex("MAT")
	if !ok {
		t.Fatal("MAT should be canonical")
	}
	rev, _ := catalog.BookIndex("REV")
	gen, _ := catalog.BookIndex("GEN")
	if gen != 0 || !(gen < mat && mat < rev) {
		t.Errorf("indices GEN=%d MAT=%d REV=%d out of order", gen, mat, rev)
	}
	if _, ok := catalog.BookIndex("XYZ"); ok {
		t.Error("XYZ should not be canonical")
	}
}
