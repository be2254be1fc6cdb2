package enrich

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Candidate is the slice of a book record the fill jobs work on.
type Candidate struct {
	ID     string
	Title  string
	Author string
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) listCandidates(ctx context.Context, where string, limit int) ([]Candidate, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, title, COALESCE(author, '')
		FROM books
		WHERE %s
		ORDER BY created_at ASC
		LIMIT ?
	`, where), limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Title, &c.Author); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) MissingCovers(ctx context.Context, limit int) ([]Candidate, error) {
	return r.listCandidates(ctx, `cover_url IS NULL OR cover_url = ''`, limit)
}

func (r *Repo) MissingDescriptions(ctx context.Context, limit int) ([]Candidate, error) {
	return r.listCandidates(ctx, `description IS NULL OR description = ''`, limit)
}

func (r *Repo) MissingSubjects(ctx context.Context, limit int) ([]Candidate, error) {
	return r.listCandidates(ctx, `subjects IS NULL OR subjects = '' OR subjects = '[]'`, limit)
}

func (r *Repo) SetCover(ctx context.Context, bookID, url, source string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE books
		SET cover_url = ?, cover_source = ?, cover_updated_at = ?
		WHERE id = ?
	`, url, source, time.Now().UTC(), bookID)
	if err != nil {
		return fmt.Errorf("set cover: %w", err)
	}
	return nil
}

func (r *Repo) SetDescription(ctx context.Context, bookID, text, source string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE books
		SET description = ?, description_source = ?, description_updated_at = ?
		WHERE id = ?
	`, text, source, time.Now().UTC(), bookID)
	if err != nil {
		return fmt.Errorf("set description: %w", err)
	}
	return nil
}

func (r *Repo) SetSubjects(ctx context.Context, bookID string, subjects []string, source string) error {
	blob, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		UPDATE books
		SET subjects = ?, subjects_source = ?, subjects_updated_at = ?
		WHERE id = ?
	`, string(blob), source, time.Now().UTC(), bookID)
	if err != nil {
		return fmt.Errorf("set subjects: %w", err)
	}
	return nil
}

func (r *Repo) AllTitles(ctx context.Context) ([]Candidate, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title, COALESCE(author, '')
		FROM books
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Title, &c.Author); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) SetTitle(ctx context.Context, bookID, title string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE books
		SET title = ?
		WHERE id = ?
	`, title, bookID)
	if err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}
