package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	monitorout "camwatch/internal/modules/monitor/adapter/out"
	"camwatch/internal/modules/monitor/domain"
	monitorport "camwatch/internal/modules/monitor/port/out"
	apperrors "camwatch/internal/platform/errors"
)

func exerciseSessionStore(t *testing.T, store monitorport.SessionStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, domain.KeyActiveJobID); err != apperrors.ErrNotFound {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := store.Set(ctx, domain.KeyActiveJobID, "job-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, domain.KeyStartedAtMs, "1772355600000"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, domain.KeyActiveJobID, "job-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, domain.KeyActiveJobID)
	if err != nil || got != "job-2" {
		t.Fatalf("expected job-2, got %q (%v)", got, err)
	}
	if err := store.Remove(ctx, domain.KeyActiveJobID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, domain.KeyActiveJobID); err != nil {
		t.Fatalf("remove of missing key must be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, domain.KeyActiveJobID); err != apperrors.ErrNotFound {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if v, err := store.Get(ctx, domain.KeyStartedAtMs); err != nil || v != "1772355600000" {
		t.Fatalf("other keys must survive, got %q (%v)", v, err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	t.Parallel()
	exerciseSessionStore(t, monitorout.NewMemorySessionStore())
}

func TestFileSessionStoreSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".camwatch", "session.json")
	exerciseSessionStore(t, monitorout.NewFileSessionStore(path))

	reopened := monitorout.NewFileSessionStore(path)
	if v, err := reopened.Get(context.Background(), domain.KeyStartedAtMs); err != nil || v != "1772355600000" {
		t.Fatalf("value must persist across instances, got %q (%v)", v, err)
	}
}

func TestFileSessionStoreTreatsNullFileAsEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("null"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := monitorout.NewFileSessionStore(path)
	if _, err := store.Get(context.Background(), domain.KeyActiveJobID); err != apperrors.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(context.Background(), domain.KeyActiveJobID, "job-1"); err != nil {
		t.Fatalf("set over null file: %v", err)
	}
	if v, err := store.Get(context.Background(), domain.KeyActiveJobID); err != nil || v != "job-1" {
		t.Fatalf("expected job-1, got %q (%v)", v, err)
	}
}

func TestSQLiteSessionStore(t *testing.T) {
	t.Parallel()
	db, err := monitorout.OpenSQLite(filepath.Join(t.TempDir(), "camwatch.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	store, err := monitorout.NewSQLiteSessionStore(context.Background(), db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	exerciseSessionStore(t, store)
}

func TestBadgerSessionStore(t *testing.T) {
	t.Parallel()
	store, err := monitorout.NewBadgerSessionStore(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer store.Close()
	exerciseSessionStore(t, store)
}
