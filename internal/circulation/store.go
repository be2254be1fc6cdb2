package circulation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

// Store owns the two transactional circulation procedures. Checkout and
// Checkin are the mutual-exclusion point for the whole system: each runs
// in one transaction whose copy-status flip doubles as the lock, so two
// concurrent checkouts of the same copy cannot both succeed.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Checkout atomically verifies the copy is available, flips it to
// checked_out and opens a loan. On any failure the copy keeps its prior
// state.
func (s *Store) Checkout(ctx context.Context, copyID, borrowerName, borrowerClass string, dueAt *time.Time) (*models.Loan, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE book_copies SET status = ? WHERE id = ? AND status = ?
	`, models.CopyCheckedOut, copyID, models.CopyAvailable)
	if err != nil {
		return nil, fmt.Errorf("mark copy checked out: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_copies WHERE id = ?`, copyID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check copy: %w", err)
		}
		if exists == 0 {
			return nil, apperr.NewNotFoundError("copy not found")
		}
		return nil, apperr.NewConflictError("copy is already checked out")
	}

	loan := &models.Loan{
		ID:            uuid.NewString(),
		CopyID:        copyID,
		BorrowerName:  borrowerName,
		BorrowerClass: borrowerClass,
		CheckedOutAt:  time.Now().UTC(),
		DueAt:         dueAt,
	}

	var class any
	if loan.BorrowerClass != "" {
		class = loan.BorrowerClass
	}
	var due any
	if loan.DueAt != nil {
		due = *loan.DueAt
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO circulation (id, copy_id, borrower_name, borrower_class, checked_out_at, due_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, loan.ID, loan.CopyID, loan.BorrowerName, class, loan.CheckedOutAt, due); err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}
	return loan, nil
}

// Checkin atomically closes the copy's open loan and marks the copy
// available. A copy with no open loan is reported as a conflict and
// nothing changes.
func (s *Store) Checkin(ctx context.Context, copyID string) (*models.Loan, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE circulation SET checked_in_at = ? WHERE copy_id = ? AND checked_in_at IS NULL
	`, now, copyID)
	if err != nil {
		return nil, fmt.Errorf("close loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_copies WHERE id = ?`, copyID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check copy: %w", err)
		}
		if exists == 0 {
			return nil, apperr.NewNotFoundError("copy not found")
		}
		return nil, apperr.NewConflictError("copy is not checked out")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE book_copies SET status = ? WHERE id = ?
	`, models.CopyAvailable, copyID); err != nil {
		return nil, fmt.Errorf("mark copy available: %w", err)
	}

	loan, err := scanLoan(tx.QueryRowContext(ctx, `
		SELECT id, copy_id, borrower_name, borrower_class, checked_out_at, due_at, checked_in_at
		FROM circulation
		WHERE copy_id = ? AND checked_in_at = ?
	`, copyID, now))
	if err != nil {
		return nil, fmt.Errorf("reload closed loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkin: %w", err)
	}
	return loan, nil
}

// ListActiveLoans fetches all open loans newest-checkout first and joins
// them to copies and books with two batched lookups instead of one round
// trip per loan.
func (s *Store) ListActiveLoans(ctx context.Context) ([]models.ActiveLoan, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, copy_id, borrower_name, borrower_class, checked_out_at, due_at
		FROM circulation
		WHERE checked_in_at IS NULL
		ORDER BY checked_out_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		var (
			l     models.Loan
			class sql.NullString
			due   sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.CopyID, &l.BorrowerName, &class, &l.CheckedOutAt, &due); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.BorrowerClass = class.String
		if due.Valid {
			t := due.Time
			l.DueAt = &t
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if len(loans) == 0 {
		return []models.ActiveLoan{}, nil
	}

	copyIDs := uniqueStrings(loans, func(l models.Loan) string { return l.CopyID })

	type copyRow struct {
		bookID   string
		copyCode string
	}
	copyByID := make(map[string]copyRow, len(copyIDs))

	q, args := inQuery(`SELECT id, book_id, copy_code FROM book_copies WHERE id IN`, copyIDs)
	copyRows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("batch copies: %w", err)
	}
	defer copyRows.Close()
	bookIDSet := make(map[string]struct{})
	for copyRows.Next() {
		var id string
		var cr copyRow
		if err := copyRows.Scan(&id, &cr.bookID, &cr.copyCode); err != nil {
			return nil, fmt.Errorf("scan copy row: %w", err)
		}
		copyByID[id] = cr
		bookIDSet[cr.bookID] = struct{}{}
	}
	if err := copyRows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	type bookRow struct {
		title    string
		author   string
		coverURL string
	}
	bookByID := make(map[string]bookRow, len(bookIDSet))

	if len(bookIDSet) > 0 {
		bookIDs := make([]string, 0, len(bookIDSet))
		for id := range bookIDSet {
			bookIDs = append(bookIDs, id)
		}
		q, args := inQuery(`SELECT id, title, author, cover_url FROM books WHERE id IN`, bookIDs)
		bookRows, err := s.DB.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("batch books: %w", err)
		}
		defer bookRows.Close()
		for bookRows.Next() {
			var (
				id     string
				br     bookRow
				author sql.NullString
				cover  sql.NullString
			)
			if err := bookRows.Scan(&id, &br.title, &author, &cover); err != nil {
				return nil, fmt.Errorf("scan book row: %w", err)
			}
			br.author = author.String
			br.coverURL = cover.String
			bookByID[id] = br
		}
		if err := bookRows.Err(); err != nil {
			return nil, fmt.Errorf("rows err: %w", err)
		}
	}

	out := make([]models.ActiveLoan, 0, len(loans))
	for _, l := range loans {
		al := models.ActiveLoan{
			Loan:           l,
			BookTitle:      "(Unknown book)",
			CheckedOutTime: l.CheckedOutAt,
		}
		if cr, ok := copyByID[l.CopyID]; ok {
			al.BookID = cr.bookID
			al.CopyCode = cr.copyCode
			if br, ok := bookByID[cr.bookID]; ok {
				al.BookTitle = br.title
				al.BookAuthor = br.author
				al.BookCoverURL = br.coverURL
			}
		}
		out = append(out, al)
	}
	return out, nil
}

// OpenCopyIDsForBook returns the ids of the book's currently checked-out
// copies, creation order. Used by the quick-checkin shortcut.
func (s *Store) OpenCopyIDsForBook(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.id
		FROM book_copies c
		JOIN circulation l ON l.copy_id = c.id AND l.checked_in_at IS NULL
		WHERE c.book_id = ?
		ORDER BY c.created_at ASC, c.copy_code ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("open copies for book: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan copy id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanLoan(row *sql.Row) (*models.Loan, error) {
	var (
		l     models.Loan
		class sql.NullString
		due   sql.NullTime
		in    sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.CopyID, &l.BorrowerName, &class, &l.CheckedOutAt, &due, &in); err != nil {
		return nil, err
	}
	l.BorrowerClass = class.String
	if due.Valid {
		t := due.Time
		l.DueAt = &t
	}
	if in.Valid {
		t := in.Time
		l.CheckedInAt = &t
	}
	return &l, nil
}

func uniqueStrings(loans []models.Loan, key func(models.Loan) string) []string {
	seen := make(map[string]struct{}, len(loans))
	out := make([]string, 0, len(loans))
	for _, l := range loans {
		k := key(l)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func inQuery(prefix string, ids []string) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return prefix + " (" + strings.Join(ph, ", ") + ")", args
}
