package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/everforgeworks/gangwars/internal/game"
	"github.com/everforgeworks/gangwars/internal/save"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "gangwars.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSetGetOverwrite(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, "a", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "a", "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := store.Get(ctx, "a")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got != "two" {
		t.Fatalf("value = %q, want %q", got, "two")
	}
	if err := store.Set(ctx, "", "x"); err == nil {
		t.Fatal("expected empty key error")
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, k, k); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if _, found, _ := store.Get(ctx, "a"); found {
		t.Fatal("a should be gone")
	}
	if _, found, _ := store.Get(ctx, "b"); !found {
		t.Fatal("b should remain")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, k := range []string{"b", "c"} {
		if _, found, _ := store.Get(ctx, k); found {
			t.Fatalf("%s survived clear", k)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gangwars.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m := save.NewManager(first)
	if err := m.Save(ctx, game.State{Eddies: 777, GangName: "Maelstrom"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	st, found, err := save.NewManager(second).Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if st.Eddies != 777 || st.GangName != "Maelstrom" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "a", "b"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "a"); err == nil {
		t.Fatal("expected unconfigured error")
	}
}
