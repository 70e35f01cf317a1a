package groupstore_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/internal/groupstore"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
)

func sampleResult() *casting.Result {
	cameo := casting.NewCharacterGroup("cameo-1", 7, "Herod")
	cameo.Cameo = true
	return &casting.Result{
		Groups: []*casting.CharacterGroup{
			casting.NewCharacterGroup("1", 0, "narrator-MAT", "Peter"),
			cameo,
		},
		WorstProximity: proximity.Proximity{Blocks: 42, Threshold: 30, Weighting: 1},
		Acceptable:     true,
	}
}

func TestNewCast(t *testing.T) {
	t.Parallel()

	c := groupstore.NewCast("gospels", sampleResult())
	if c.ProjectID != "gospels" || c.WorstProximity != 42 || !c.Acceptable {
		t.Errorf("cast = %+v", c)
	}
	want := []groupstore.Group{
		{ID: "1", Characters: []string{"Peter", "narrator-MAT"}},
		{ID: "cameo-1", ActorID: 7, Cameo: true, Characters: []string{"Herod"}},
	}
	if !reflect.DeepEqual(c.Groups, want) {
		t.Errorf("Groups = %+v, want %+v", c.Groups, want)
	}

	back := c.CharacterGroups()
	if len(back) != 2 || !back[1].Cameo || back[1].ActorID != 7 || !back[0].Contains("Peter") {
		t.Errorf("CharacterGroups = %+v", back)
	}
}

func TestMemStore_SaveLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := groupstore.NewMemStore()

	c := groupstore.NewCast("gospels", sampleResult())
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.SavedAt.IsZero() {
		t.Error("Save should stamp SavedAt")
	}

	got, err := s.Load(ctx, "gospels")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("Load = %+v, want %+v", got, c)
	}

	// The stored copy is isolated from later mutation.
	got.Groups[0].Characters[0] = "changed"
	again, _ := s.Load(ctx, "gospels")
	if again.Groups[0].Characters[0] == "changed" {
		t.Error("Load returned shared state")
	}
}

func TestMemStore_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var s groupstore.MemStore

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, groupstore.ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, &groupstore.Cast{ProjectID: "p"}); err != nil {
		t.Fatalf("Save on zero value: %v", err)
	}
	if err := s.Delete(ctx, "p"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "p"); !errors.Is(err, groupstore.ErrNotFound) {
		t.Errorf("Load after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "p"); err != nil {
		t.Errorf("deleting a missing cast: %v", err)
	}
}

func TestMemStore_SaveRequiresProjectID(t *testing.T) {
	t.Parallel()

	if err := groupstore.NewMemStore().Save(context.Background(), &groupstore.Cast{}); err == nil {
		t.Error("expected an error for an empty project id")
	}
}

func TestMemStore_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := groupstore.NewMemStore()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save(ctx, groupstore.NewCast("gospels", sampleResult()))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Load(ctx, "gospels")
		}()
	}
	wg.Wait()

	if _, err := s.Load(ctx, "gospels"); err != nil {
		t.Errorf("Load after concurrent saves: %v", err)
	}
}
