package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// List returns all books joined with their theme and category names,
// title-sorted. Tag names come from two batched queries instead of one
// round trip per book.
func (r *Repo) List(ctx context.Context) ([]models.BookWithTags, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, author, description, subjects, cover_url, created_at
		FROM books
		ORDER BY title COLLATE NOCASE ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []models.BookWithTags
	index := make(map[string]int)

	for rows.Next() {
		var (
			b           models.BookWithTags
			author      sql.NullString
			description sql.NullString
			subjects    sql.NullString
			coverURL    sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Title, &author, &description, &subjects, &coverURL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		b.Author = author.String
		b.Description = description.String
		b.CoverURL = coverURL.String
		if subjects.Valid && subjects.String != "" {
			_ = json.Unmarshal([]byte(subjects.String), &b.Subjects)
		}

		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if err := r.attachThemes(ctx, out, index); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) attachThemes(ctx context.Context, books []models.BookWithTags, index map[string]int) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT bt.book_id, t.id, t.name
		FROM book_themes bt
		JOIN themes t ON t.id = bt.theme_id
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		return fmt.Errorf("list book themes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookID string
			id     int64
			name   string
		)
		if err := rows.Scan(&bookID, &id, &name); err != nil {
			return fmt.Errorf("scan book theme: %w", err)
		}
		if i, ok := index[bookID]; ok {
			books[i].ThemeIDs = append(books[i].ThemeIDs, id)
			books[i].ThemeNames = append(books[i].ThemeNames, name)
		}
	}
	return rows.Err()
}

func (r *Repo) attachCategories(ctx context.Context, books []models.BookWithTags, index map[string]int) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT bc.book_id, c.id, c.name
		FROM book_categories bc
		JOIN categories c ON c.id = bc.category_id
		ORDER BY c.name COLLATE NOCASE
	`)
	if err != nil {
		return fmt.Errorf("list book categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookID string
			id     int64
			name   string
		)
		if err := rows.Scan(&bookID, &id, &name); err != nil {
			return fmt.Errorf("scan book category: %w", err)
		}
		if i, ok := index[bookID]; ok {
			books[i].CategoryIDs = append(books[i].CategoryIDs, id)
			books[i].CategoryNames = append(books[i].CategoryNames, name)
		}
	}
	return rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, author, description, subjects, cover_url, created_at
		FROM books
		WHERE id = ?
	`, id)

	var (
		b           models.Book
		author      sql.NullString
		description sql.NullString
		subjects    sql.NullString
		coverURL    sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Title, &author, &description, &subjects, &coverURL, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	b.Author = author.String
	b.Description = description.String
	b.CoverURL = coverURL.String
	if subjects.Valid && subjects.String != "" {
		_ = json.Unmarshal([]byte(subjects.String), &b.Subjects)
	}
	return &b, nil
}

// Create inserts a new book. Title is required; author and description
// may be empty and are stored as NULL.
func (r *Repo) Create(ctx context.Context, id, title, author, description string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.NewValidationError("title is required")
	}

	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO books (id, title, author, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, title, nullIfEmpty(author), nullIfEmpty(description), now)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return &models.Book{
		ID:          id,
		Title:       title,
		Author:      strings.TrimSpace(author),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}, nil
}

// BookPatch carries the admin edit-info fields. Nil pointers leave the
// column untouched.
type BookPatch struct {
	Title       *string
	Author      *string
	Description *string
	Subjects    *[]string
	CoverURL    *string
}

func (r *Repo) Update(ctx context.Context, id string, patch BookPatch) error {
	var sets []string
	var args []any

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return apperr.NewValidationError("title is required")
		}
		sets = append(sets, "title = ?")
		args = append(args, t)
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, nullIfEmpty(*patch.Author))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullIfEmpty(*patch.Description))
	}
	if patch.Subjects != nil {
		if len(*patch.Subjects) == 0 {
			sets = append(sets, "subjects = NULL")
		} else {
			b, err := json.Marshal(*patch.Subjects)
			if err != nil {
				return fmt.Errorf("marshal subjects: %w", err)
			}
			sets = append(sets, "subjects = ?")
			args = append(args, string(b))
		}
	}
	if patch.CoverURL != nil {
		sets = append(sets, "cover_url = ?")
		args = append(args, nullIfEmpty(*patch.CoverURL))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, `UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewNotFoundError("book not found")
	}
	return nil
}

// Delete removes a book only if it has zero copies. The copy count is a
// fresh read inside the same transaction as the delete, so a copy added
// concurrently cannot slip past the guard.
func (r *Repo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete book: %w", err)
	}
	defer tx.Rollback()

	var title string
	if err := tx.QueryRowContext(ctx, `SELECT title FROM books WHERE id = ?`, id).Scan(&title); err != nil {
		if err == sql.ErrNoRows {
			return apperr.NewNotFoundError("book not found")
		}
		return fmt.Errorf("get book title: %w", err)
	}

	var copies int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_copies WHERE book_id = ?`, id).Scan(&copies); err != nil {
		return fmt.Errorf("count copies: %w", err)
	}
	if copies > 0 {
		return apperr.NewConflictError("can't delete %q: it has copies, remove copies first", title)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete book: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
