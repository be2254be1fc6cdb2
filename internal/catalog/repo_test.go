package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"shelfmark/pkg/apperr"
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

func TestCreateRequiresTitle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	_, err := repo.Create(context.Background(), "b1", "   ", "Someone", "")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "b1", "The Hobbit", "Tolkien", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "The Hobbit" || got.Author != "Tolkien" {
		t.Errorf("got %+v", got)
	}

	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing book: got %v, %v; want nil, nil", missing, err)
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "b1", "The Hobbit", "Tolkien", "old blurb"); err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "The Hobbit, or There and Back Again"
	subjects := []string{"Fantasy", "Dragons"}
	err := repo.Update(ctx, "b1", BookPatch{
		Title:    &newTitle,
		Subjects: &subjects,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != newTitle {
		t.Errorf("title = %q", got.Title)
	}
	if got.Author != "Tolkien" || got.Description != "old blurb" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if len(got.Subjects) != 2 {
		t.Errorf("subjects = %v", got.Subjects)
	}

	// clearing subjects stores NULL
	empty := []string{}
	if err := repo.Update(ctx, "b1", BookPatch{Subjects: &empty}); err != nil {
		t.Fatalf("clear subjects: %v", err)
	}
	got, _ = repo.GetByID(ctx, "b1")
	if len(got.Subjects) != 0 {
		t.Errorf("subjects not cleared: %v", got.Subjects)
	}
}

func TestUpdateUnknownBook(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	title := "X"
	err := repo.Update(context.Background(), "nope", BookPatch{Title: &title})
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestDeleteBlockedWhileCopiesExist(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "b1", "The Hobbit", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO book_copies (id, book_id, copy_code) VALUES ('c1', 'b1', 'BK-X-001')
	`); err != nil {
		t.Fatalf("insert copy: %v", err)
	}

	err := repo.Delete(ctx, "b1")
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want ConflictError", err)
	}

	// remove the copy, then delete goes through
	if _, err := db.Exec(`DELETE FROM book_copies WHERE id = 'c1'`); err != nil {
		t.Fatalf("remove copy: %v", err)
	}
	if err := repo.Delete(ctx, "b1"); err != nil {
		t.Fatalf("delete after removing copies: %v", err)
	}

	got, err := repo.GetByID(ctx, "b1")
	if err != nil || got != nil {
		t.Errorf("book still present after delete")
	}
}

func TestListAttachesTagNames(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "b1", "The Hobbit", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO themes (id, name) VALUES (1, 'Adventure')`); err != nil {
		t.Fatalf("insert theme: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO categories (id, name) VALUES (1, 'Chapter Books')`); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO book_themes (book_id, theme_id) VALUES ('b1', 1)`); err != nil {
		t.Fatalf("link theme: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO book_categories (book_id, category_id) VALUES ('b1', 1)`); err != nil {
		t.Fatalf("link category: %v", err)
	}

	books, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("books = %d, want 1", len(books))
	}
	b := books[0]
	if len(b.ThemeNames) != 1 || b.ThemeNames[0] != "Adventure" {
		t.Errorf("themes = %v", b.ThemeNames)
	}
	if len(b.CategoryNames) != 1 || b.CategoryNames[0] != "Chapter Books" {
		t.Errorf("categories = %v", b.CategoryNames)
	}
}
