package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"shelfmark/internal/openlibrary"
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

// stubSource scripts per-title outcomes; unlisted titles are misses.
type stubSource struct {
	covers       map[string]*openlibrary.CoverResult
	descriptions map[string]*openlibrary.DescriptionResult
	subjects     map[string]*openlibrary.SubjectsResult
	failTitles   map[string]bool
	calls        []string
}

func (s *stubSource) LookupCover(_ context.Context, title, _ string) (*openlibrary.CoverResult, error) {
	s.calls = append(s.calls, title)
	if s.failTitles[title] {
		return nil, fmt.Errorf("boom")
	}
	return s.covers[title], nil
}

func (s *stubSource) LookupDescription(_ context.Context, title, _ string) (*openlibrary.DescriptionResult, error) {
	s.calls = append(s.calls, title)
	if s.failTitles[title] {
		return nil, fmt.Errorf("boom")
	}
	return s.descriptions[title], nil
}

func (s *stubSource) LookupSubjects(_ context.Context, title, _ string) (*openlibrary.SubjectsResult, error) {
	s.calls = append(s.calls, title)
	if s.failTitles[title] {
		return nil, fmt.Errorf("boom")
	}
	return s.subjects[title], nil
}

func seedBooks(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for i, title := range titles {
		if _, err := db.Exec(`
			INSERT INTO books (id, title, created_at) VALUES (?, ?, datetime('now', ?))
		`, fmt.Sprintf("b%d", i+1), title, fmt.Sprintf("+%d seconds", i)); err != nil {
			t.Fatalf("insert book: %v", err)
		}
	}
}

func TestFillCoversContinuesPastFailures(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db, "Alpha", "Broken", "Gamma")

	src := &stubSource{
		covers: map[string]*openlibrary.CoverResult{
			"Alpha": {URL: "https://covers.openlibrary.org/b/id/1-M.jpg", Source: "openlibrary:cover_i:1"},
			"Gamma": {URL: "https://covers.openlibrary.org/b/id/3-M.jpg", Source: "openlibrary:cover_i:3"},
		},
		failTitles: map[string]bool{"Broken": true},
	}

	r := &Runner{Repo: NewRepo(db), Source: src, Limit: 500}
	stats, err := r.FillCovers(context.Background())
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	if stats.Added != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 added, 1 failed", stats)
	}
	if len(src.calls) != 3 {
		t.Errorf("calls = %v; the failure must not stop the batch", src.calls)
	}

	var url, source string
	if err := db.QueryRow(`SELECT cover_url, cover_source FROM books WHERE title = 'Gamma'`).Scan(&url, &source); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if url != "https://covers.openlibrary.org/b/id/3-M.jpg" || source != "openlibrary:cover_i:3" {
		t.Errorf("cover = %q / %q", url, source)
	}

	var brokenURL sql.NullString
	if err := db.QueryRow(`SELECT cover_url FROM books WHERE title = 'Broken'`).Scan(&brokenURL); err != nil {
		t.Fatalf("read broken: %v", err)
	}
	if brokenURL.Valid {
		t.Errorf("failed book was written to: %q", brokenURL.String)
	}
}

func TestFillCoversSkipsBooksWithCovers(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db, "Alpha")
	if _, err := db.Exec(`UPDATE books SET cover_url = 'have-one' WHERE title = 'Alpha'`); err != nil {
		t.Fatalf("seed cover: %v", err)
	}

	src := &stubSource{}
	r := &Runner{Repo: NewRepo(db), Source: src, Limit: 500}
	stats, err := r.FillCovers(context.Background())
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if stats.Found != 0 || len(src.calls) != 0 {
		t.Errorf("books with covers were re-looked-up: %+v, calls %v", stats, src.calls)
	}
}

func TestFillSubjectsWritesJSONAndProvenance(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db, "Alpha")

	src := &stubSource{
		subjects: map[string]*openlibrary.SubjectsResult{
			"Alpha": {Subjects: []string{"Fantasy", "Dragons"}, Source: "openlibrary:/works/OL1W"},
		},
	}

	r := &Runner{Repo: NewRepo(db), Source: src, Limit: 500}
	stats, err := r.FillSubjects(context.Background())
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if stats.Added != 1 {
		t.Errorf("stats = %+v", stats)
	}

	var subjects, source string
	var updatedAt sql.NullTime
	if err := db.QueryRow(`SELECT subjects, subjects_source, subjects_updated_at FROM books WHERE title = 'Alpha'`).
		Scan(&subjects, &source, &updatedAt); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if subjects != `["Fantasy","Dragons"]` {
		t.Errorf("subjects = %q", subjects)
	}
	if source != "openlibrary:/works/OL1W" || !updatedAt.Valid {
		t.Errorf("provenance = %q / %v", source, updatedAt)
	}
}

func TestFillDescriptionsRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db, "Alpha", "Beta", "Gamma")

	src := &stubSource{}
	r := &Runner{Repo: NewRepo(db), Source: src, Limit: 2}
	stats, err := r.FillDescriptions(context.Background())
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if stats.Found != 2 || len(src.calls) != 2 {
		t.Errorf("limit ignored: %+v, calls %v", stats, src.calls)
	}
}

func TestFixTitlesOnlyWritesChanges(t *testing.T) {
	db := newTestDB(t)
	seedBooks(t, db, "the hobbit", "Matilda")

	r := &Runner{Repo: NewRepo(db)}
	updated, err := r.FixTitles(context.Background())
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	var title string
	if err := db.QueryRow(`SELECT title FROM books WHERE id = 'b1'`).Scan(&title); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if title != "The Hobbit" {
		t.Errorf("title = %q", title)
	}
}
