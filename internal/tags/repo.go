package tags

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"shelfmark/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) ListThemes(ctx context.Context) ([]models.Theme, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM themes ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var out []models.Theme
	for rows.Next() {
		var t models.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Meta is the tag vocabulary the edit-tags form needs.
type Meta struct {
	Themes     []models.Theme    `json:"themes"`
	Categories []models.Category `json:"categories"`
}

// LoadMeta issues the two vocabulary reads in parallel; they are
// independent and the results are merged here.
func (r *Repo) LoadMeta(ctx context.Context) (*Meta, error) {
	var (
		wg      sync.WaitGroup
		themes  []models.Theme
		cats    []models.Category
		tErr    error
		cErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		themes, tErr = r.ListThemes(ctx)
	}()
	go func() {
		defer wg.Done()
		cats, cErr = r.ListCategories(ctx)
	}()
	wg.Wait()

	if tErr != nil {
		return nil, tErr
	}
	if cErr != nil {
		return nil, cErr
	}
	return &Meta{Themes: themes, Categories: cats}, nil
}

// Links are a book's current tag associations.
type Links struct {
	ThemeIDs    []int64 `json:"theme_ids"`
	CategoryIDs []int64 `json:"category_ids"`
}

func (r *Repo) GetLinks(ctx context.Context, bookID string) (*Links, error) {
	links := &Links{}

	rows, err := r.DB.QueryContext(ctx, `SELECT theme_id FROM book_themes WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book themes: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan book theme: %w", err)
		}
		links.ThemeIDs = append(links.ThemeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.DB.QueryContext(ctx, `SELECT category_id FROM book_categories WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book category: %w", err)
		}
		links.CategoryIDs = append(links.CategoryIDs, id)
	}
	return links, rows.Err()
}

// SaveLinks replaces a book's tag sets with the given ones. The diff is
// computed against the current rows so unchanged links are untouched,
// then adds and removes run in one transaction.
func (r *Repo) SaveLinks(ctx context.Context, bookID string, themeIDs, categoryIDs []int64) error {
	cur, err := r.GetLinks(ctx, bookID)
	if err != nil {
		return err
	}

	themesAdd, themesRemove := diffIDs(cur.ThemeIDs, themeIDs)
	catsAdd, catsRemove := diffIDs(cur.CategoryIDs, categoryIDs)

	if len(themesAdd)+len(themesRemove)+len(catsAdd)+len(catsRemove) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save links: %w", err)
	}
	defer tx.Rollback()

	for _, id := range themesAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_themes (book_id, theme_id) VALUES (?, ?)`, bookID, id); err != nil {
			return fmt.Errorf("add theme link: %w", err)
		}
	}
	for _, id := range catsAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_categories (book_id, category_id) VALUES (?, ?)`, bookID, id); err != nil {
			return fmt.Errorf("add category link: %w", err)
		}
	}
	if len(themesRemove) > 0 {
		q, args := inClause(`DELETE FROM book_themes WHERE book_id = ? AND theme_id IN`, bookID, themesRemove)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("remove theme links: %w", err)
		}
	}
	if len(catsRemove) > 0 {
		q, args := inClause(`DELETE FROM book_categories WHERE book_id = ? AND category_id IN`, bookID, catsRemove)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("remove category links: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save links: %w", err)
	}
	return nil
}

func diffIDs(current, next []int64) (add, remove []int64) {
	curSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
	}
	nextSet := make(map[int64]struct{}, len(next))
	for _, id := range next {
		nextSet[id] = struct{}{}
	}

	for id := range nextSet {
		if _, ok := curSet[id]; !ok {
			add = append(add, id)
		}
	}
	for id := range curSet {
		if _, ok := nextSet[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func inClause(prefix string, bookID string, ids []int64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, bookID)
	for i, id := range ids {
		ph[i] = "?"
		args = append(args, id)
	}
	return prefix + " (" + strings.Join(ph, ", ") + ")", args
}
