package inventory

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/database"
	"shelfmark/pkg/models"
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

func insertBook(t *testing.T, db *sql.DB, id, title string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO books (id, title) VALUES (?, ?)`, id, title); err != nil {
		t.Fatalf("insert book: %v", err)
	}
}

func TestAddCopiesContinuesCodeSequence(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	bookID := "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	insertBook(t, db, bookID, "The Hobbit")

	first, err := repo.AddCopies(ctx, bookID, 2)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := repo.AddCopies(ctx, bookID, 2)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	got := []string{first[0].CopyCode, first[1].CopyCode, second[0].CopyCode, second[1].CopyCode}
	want := []string{"BK-A1B2C3D4-001", "BK-A1B2C3D4-002", "BK-A1B2C3D4-003", "BK-A1B2C3D4-004"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("code %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAddCopiesRejectsOutOfRangeCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	insertBook(t, db, "b1", "Matilda")

	for _, count := range []int{0, 51} {
		_, err := repo.AddCopies(ctx, "b1", count)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("count %d: got %v, want ValidationError", count, err)
		}
	}
}

func TestAddCopiesUnknownBook(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	_, err := repo.AddCopies(context.Background(), "nope", 1)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestRemoveCopyBlockedWhileCheckedOut(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	insertBook(t, db, "b1", "Matilda")
	copies, err := repo.AddCopies(ctx, "b1", 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	copyID := copies[0].ID

	if _, err := db.Exec(`UPDATE book_copies SET status = ? WHERE id = ?`, models.CopyCheckedOut, copyID); err != nil {
		t.Fatalf("mark checked out: %v", err)
	}

	err = repo.RemoveCopy(ctx, copyID)
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want ConflictError", err)
	}

	// still there
	list, err := repo.ListCopies(ctx, "b1", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("copy was removed despite being checked out")
	}
}

func TestRemoveCopyKeepsLoanHistory(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	insertBook(t, db, "b1", "Matilda")
	copies, err := repo.AddCopies(ctx, "b1", 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	copyID := copies[0].ID

	// a closed loan from an earlier borrow
	if _, err := db.Exec(`
		INSERT INTO circulation (id, copy_id, borrower_name, checked_in_at)
		VALUES ('l1', ?, 'Ada', CURRENT_TIMESTAMP)
	`, copyID); err != nil {
		t.Fatalf("insert loan: %v", err)
	}

	if err := repo.RemoveCopy(ctx, copyID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	var loans int
	if err := db.QueryRow(`SELECT COUNT(*) FROM circulation WHERE copy_id = ?`, copyID).Scan(&loans); err != nil {
		t.Fatalf("count loans: %v", err)
	}
	if loans != 1 {
		t.Errorf("loan history rows = %d, want 1", loans)
	}
}

func TestListCopiesAnnotatesOpenLoans(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	insertBook(t, db, "b1", "Matilda")
	copies, err := repo.AddCopies(ctx, "b1", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := db.Exec(`UPDATE book_copies SET status = ? WHERE id = ?`, models.CopyCheckedOut, copies[0].ID); err != nil {
		t.Fatalf("mark checked out: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO circulation (id, copy_id, borrower_name, borrower_class)
		VALUES ('l1', ?, 'Ada', '5B')
	`, copies[0].ID); err != nil {
		t.Fatalf("insert loan: %v", err)
	}

	withLoans, err := repo.ListCopies(ctx, "b1", true)
	if err != nil {
		t.Fatalf("list with loans: %v", err)
	}
	if withLoans[0].Loan == nil || withLoans[0].Loan.BorrowerName != "Ada" {
		t.Errorf("checked-out copy missing loan annotation: %+v", withLoans[0].Loan)
	}
	if withLoans[1].Loan != nil {
		t.Errorf("available copy should have nil loan")
	}

	public, err := repo.ListCopies(ctx, "b1", false)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	for _, c := range public {
		if c.Loan != nil {
			t.Errorf("public listing leaked borrower info")
		}
	}
}
