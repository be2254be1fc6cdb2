package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ListCopies returns a book's copies oldest-created first. When withLoans
// is set each checked-out copy is annotated with its open loan, fetched
// in one batched query.
func (r *Repo) ListCopies(ctx context.Context, bookID string, withLoans bool) ([]models.CopyWithLoan, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, book_id, copy_code, status, created_at
		FROM book_copies
		WHERE book_id = ?
		ORDER BY created_at ASC, copy_code ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}
	defer rows.Close()

	var out []models.CopyWithLoan
	for rows.Next() {
		var c models.CopyWithLoan
		if err := rows.Scan(&c.ID, &c.BookID, &c.CopyCode, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan copy: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if !withLoans || len(out) == 0 {
		return out, nil
	}

	loanRows, err := r.DB.QueryContext(ctx, `
		SELECT l.id, l.copy_id, l.borrower_name, l.borrower_class, l.checked_out_at, l.due_at
		FROM circulation l
		JOIN book_copies c ON c.id = l.copy_id
		WHERE c.book_id = ? AND l.checked_in_at IS NULL
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}
	defer loanRows.Close()

	loanByCopy := make(map[string]*models.Loan)
	for loanRows.Next() {
		var (
			l     models.Loan
			class sql.NullString
			due   sql.NullTime
		)
		if err := loanRows.Scan(&l.ID, &l.CopyID, &l.BorrowerName, &class, &l.CheckedOutAt, &due); err != nil {
			return nil, fmt.Errorf("scan open loan: %w", err)
		}
		l.BorrowerClass = class.String
		if due.Valid {
			t := due.Time
			l.DueAt = &t
		}
		loan := l
		loanByCopy[l.CopyID] = &loan
	}
	if err := loanRows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	for i := range out {
		out[i].Loan = loanByCopy[out[i].ID]
	}
	return out, nil
}

// AddCopies inserts count new available copies, continuing the code
// sequence after the book's current copy count. The count read and the
// inserts share one transaction so two concurrent adds cannot mint the
// same code.
func (r *Repo) AddCopies(ctx context.Context, bookID string, count int) ([]models.Copy, error) {
	if count < MinCopiesPerAdd || count > MaxCopiesPerAdd {
		return nil, apperr.NewValidationError("count must be between %d and %d", MinCopiesPerAdd, MaxCopiesPerAdd)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add copies: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = ?`, bookID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if exists == 0 {
		return nil, apperr.NewNotFoundError("book not found")
	}

	var existingCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_copies WHERE book_id = ?`, bookID).Scan(&existingCount); err != nil {
		return nil, fmt.Errorf("count copies: %w", err)
	}

	now := time.Now().UTC()
	codes := NextCopyCodes(bookID, existingCount, count)
	out := make([]models.Copy, 0, count)

	for _, code := range codes {
		cp := models.Copy{
			ID:        uuid.NewString(),
			BookID:    bookID,
			CopyCode:  code,
			Status:    models.CopyAvailable,
			CreatedAt: now,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO book_copies (id, book_id, copy_code, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, cp.ID, cp.BookID, cp.CopyCode, cp.Status, cp.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert copy %s: %w", code, err)
		}
		out = append(out, cp)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add copies: %w", err)
	}
	return out, nil
}

// RemoveCopy deletes a copy. The status guard is a fresh read inside the
// delete transaction, not the caller's cached list, so a checkout that
// landed after the list was loaded still blocks the removal.
func (r *Repo) RemoveCopy(ctx context.Context, copyID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove copy: %w", err)
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM book_copies WHERE id = ?`, copyID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return apperr.NewNotFoundError("copy not found")
		}
		return fmt.Errorf("get copy status: %w", err)
	}
	if status == models.CopyCheckedOut {
		return apperr.NewConflictError("copy is checked out")
	}

	// Closed loans stay behind as history; only the copy row goes.
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_copies WHERE id = ?`, copyID); err != nil {
		return fmt.Errorf("delete copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove copy: %w", err)
	}
	return nil
}
