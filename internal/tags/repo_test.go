package tags

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"

	"shelfmark/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVocabulary(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO books (id, title) VALUES ('b1', 'The Hobbit')`); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	for id, name := range map[int64]string{1: "Adventure", 2: "Friendship", 3: "Courage"} {
		if _, err := db.Exec(`INSERT INTO themes (id, name) VALUES (?, ?)`, id, name); err != nil {
			t.Fatalf("insert theme: %v", err)
		}
	}
	for id, name := range map[int64]string{1: "Chapter Books", 2: "Space"} {
		if _, err := db.Exec(`INSERT INTO categories (id, name) VALUES (?, ?)`, id, name); err != nil {
			t.Fatalf("insert category: %v", err)
		}
	}
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestSaveLinksReplacesSet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	seedVocabulary(t, db)

	if err := repo.SaveLinks(ctx, "b1", []int64{1, 2}, []int64{1}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// replace: drop theme 1, add theme 3, move category 1 -> 2
	if err := repo.SaveLinks(ctx, "b1", []int64{2, 3}, []int64{2}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	links, err := repo.GetLinks(ctx, "b1")
	if err != nil {
		t.Fatalf("get links: %v", err)
	}

	themes := sortedIDs(links.ThemeIDs)
	if len(themes) != 2 || themes[0] != 2 || themes[1] != 3 {
		t.Errorf("themes = %v, want [2 3]", themes)
	}
	if len(links.CategoryIDs) != 1 || links.CategoryIDs[0] != 2 {
		t.Errorf("categories = %v, want [2]", links.CategoryIDs)
	}
}

func TestSaveLinksNoopWhenUnchanged(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	seedVocabulary(t, db)

	if err := repo.SaveLinks(ctx, "b1", []int64{1}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	// same set again, different order semantics don't apply to a single id
	if err := repo.SaveLinks(ctx, "b1", []int64{1}, nil); err != nil {
		t.Fatalf("repeat save: %v", err)
	}

	links, err := repo.GetLinks(ctx, "b1")
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(links.ThemeIDs) != 1 || links.ThemeIDs[0] != 1 {
		t.Errorf("themes = %v, want [1]", links.ThemeIDs)
	}
}

func TestSaveLinksClearAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	seedVocabulary(t, db)

	if err := repo.SaveLinks(ctx, "b1", []int64{1, 2}, []int64{1, 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveLinks(ctx, "b1", nil, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}

	links, err := repo.GetLinks(ctx, "b1")
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(links.ThemeIDs) != 0 || len(links.CategoryIDs) != 0 {
		t.Errorf("links not cleared: %+v", links)
	}
}

func TestLoadMeta(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	seedVocabulary(t, db)

	meta, err := repo.LoadMeta(context.Background())
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if len(meta.Themes) != 3 || len(meta.Categories) != 2 {
		t.Errorf("meta = %d themes, %d categories", len(meta.Themes), len(meta.Categories))
	}
	// name-sorted
	if meta.Themes[0].Name != "Adventure" || meta.Categories[0].Name != "Chapter Books" {
		t.Errorf("vocabulary not name-sorted: %+v", meta)
	}
}
