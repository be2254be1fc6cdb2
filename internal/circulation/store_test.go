package circulation

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

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

func seedBookWithCopies(t *testing.T, db *sql.DB, bookID, title string, copyIDs ...string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO books (id, title) VALUES (?, ?)`, bookID, title); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range copyIDs {
		if _, err := db.Exec(`
			INSERT INTO book_copies (id, book_id, copy_code, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, id, bookID, id, models.CopyAvailable, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert copy: %v", err)
		}
	}
}

func TestCheckoutOpensLoanAndFlipsStatus(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1")

	loan, err := store.Checkout(ctx, "c1", "Ada", "5B", nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loan.CheckedInAt != nil {
		t.Errorf("new loan should be open")
	}

	var status string
	if err := db.QueryRow(`SELECT status FROM book_copies WHERE id = 'c1'`).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != models.CopyCheckedOut {
		t.Errorf("status = %q, want checked_out", status)
	}
}

func TestCheckoutConflictOnCheckedOutCopy(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1")

	if _, err := store.Checkout(ctx, "c1", "Ada", "", nil); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := store.Checkout(ctx, "c1", "Ben", "", nil)
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want ConflictError", err)
	}
}

func TestCheckoutUnknownCopy(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.Checkout(context.Background(), "nope", "Ada", "", nil)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

// Two simultaneous checkouts of the same copy: exactly one may win.
func TestConcurrentCheckoutExactlyOneSucceeds(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1")

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Checkout(ctx, "c1", "Racer", "", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var ce *apperr.ConflictError
		if !errors.As(err, &ce) {
			t.Errorf("loser got %v, want ConflictError", err)
		}
	}
	if wins != 1 {
		t.Fatalf("successful checkouts = %d, want exactly 1", wins)
	}

	var open int
	if err := db.QueryRow(`SELECT COUNT(*) FROM circulation WHERE checked_in_at IS NULL`).Scan(&open); err != nil {
		t.Fatalf("count open loans: %v", err)
	}
	if open != 1 {
		t.Errorf("open loans = %d, want 1", open)
	}
}

func TestCheckinClosesLoan(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1")

	opened, err := store.Checkout(ctx, "c1", "Ada", "", nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	closed, err := store.Checkin(ctx, "c1")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if closed.ID != opened.ID {
		t.Errorf("closed loan id = %s, want %s", closed.ID, opened.ID)
	}
	if closed.CheckedInAt == nil {
		t.Errorf("closed loan has no checked_in_at")
	}

	var status string
	if err := db.QueryRow(`SELECT status FROM book_copies WHERE id = 'c1'`).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != models.CopyAvailable {
		t.Errorf("status = %q, want available", status)
	}
}

func TestCheckinWithoutOpenLoanConflicts(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1")

	_, err := store.Checkin(ctx, "c1")
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want ConflictError", err)
	}

	_, err = store.Checkin(ctx, "nope")
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestListActiveLoansJoinsAndOrders(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1", "c2")

	// explicit checkout times so ordering is deterministic
	for i, row := range []struct{ id, copy, name string }{
		{"l1", "c1", "Ada"},
		{"l2", "c2", "Ben"},
	} {
		at := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if _, err := db.Exec(`
			INSERT INTO circulation (id, copy_id, borrower_name, checked_out_at)
			VALUES (?, ?, ?, ?)
		`, row.id, row.copy, row.name, at); err != nil {
			t.Fatalf("insert loan: %v", err)
		}
	}
	// a loan whose copy no longer exists
	if _, err := db.Exec(`
		INSERT INTO circulation (id, copy_id, borrower_name, checked_out_at)
		VALUES ('l3', 'gone', 'Cleo', ?)
	`, time.Now().UTC().Add(2*time.Minute)); err != nil {
		t.Fatalf("insert orphan loan: %v", err)
	}

	loans, err := store.ListActiveLoans(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loans) != 3 {
		t.Fatalf("loans = %d, want 3", len(loans))
	}

	// newest checkout first
	if loans[0].BorrowerName != "Cleo" || loans[1].BorrowerName != "Ben" || loans[2].BorrowerName != "Ada" {
		t.Errorf("wrong order: %s, %s, %s", loans[0].BorrowerName, loans[1].BorrowerName, loans[2].BorrowerName)
	}

	if loans[1].BookTitle != "Matilda" || loans[1].CopyCode != "c2" {
		t.Errorf("join failed: %+v", loans[1])
	}
	if loans[0].BookTitle != "(Unknown book)" {
		t.Errorf("orphan loan title = %q, want (Unknown book)", loans[0].BookTitle)
	}
}

func TestOpenCopyIDsForBookCreationOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seedBookWithCopies(t, db, "b1", "Matilda", "c1", "c2", "c3")

	for _, copyID := range []string{"c3", "c1"} {
		if _, err := store.Checkout(ctx, copyID, "Ada", "", nil); err != nil {
			t.Fatalf("checkout %s: %v", copyID, err)
		}
	}

	ids, err := store.OpenCopyIDsForBook(ctx, "b1")
	if err != nil {
		t.Fatalf("open copies: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "c3" {
		t.Errorf("ids = %v, want [c1 c3]", ids)
	}
}
