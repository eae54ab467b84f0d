package notice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"etag/internal/adapters/storage"
	domain "etag/internal/domain/notice"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestSQLiteStore_SaveGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n := domain.Notice{
		ID:         "n1",
		Title:      "Rates updated",
		Content:    "Game sessions now claim at the **new** rate.",
		CreatedBy:  "admin@example.com",
		AuthorName: "Admin",
		ShowAuthor: true,
		Color:      domain.ColorBlue,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, n); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != n.Title || got.Content != n.Content || !got.ShowAuthor || got.Color != domain.ColorBlue {
		t.Errorf("got %+v", got)
	}

	if err := store.Delete(ctx, "n1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "n1"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestSQLiteStore_ListVisible(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	save := func(id string, pinned bool, from, until time.Time) {
		t.Helper()
		err := store.Save(ctx, domain.Notice{
			ID: id, Title: id, Content: "c", CreatedBy: "admin@example.com",
			Pinned: pinned, PinnedAt: now, VisibleFrom: from, VisibleUntil: until,
			CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	save("always", false, time.Time{}, time.Time{})
	save("pinned", true, time.Time{}, time.Time{})
	save("future", false, now.Add(time.Hour), time.Time{})
	save("expired", false, time.Time{}, now.Add(-time.Hour))

	got, err := store.ListVisible(ctx, now)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("visible = %d, want 2: %+v", len(got), got)
	}
	// Pinned notices sort first.
	if got[0].ID != "pinned" || got[1].ID != "always" {
		t.Errorf("order = [%s, %s]", got[0].ID, got[1].ID)
	}
}

func TestSQLiteStore_ListByCreator(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	store.Save(ctx, domain.Notice{ID: "a", Title: "a", Content: "c", CreatedBy: "one@example.com", CreatedAt: now})
	store.Save(ctx, domain.Notice{ID: "b", Title: "b", Content: "c", CreatedBy: "two@example.com", CreatedAt: now})

	got, err := store.List(ctx, ListFilter{CreatedBy: "one@example.com"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %+v", got)
	}
}
