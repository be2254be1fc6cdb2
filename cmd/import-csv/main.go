package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"shelfmark/pkg/database"
)

func main() {
	var (
		booksIn  = flag.String("books", "data/books.csv", "input CSV path for books")
		copiesIn = flag.String("copies", "data/copies.csv", "input CSV path for copies")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := importBooks(ctx, db, *booksIn); err != nil {
		log.Fatalf("import books failed: %v", err)
	}
	if err := importCopies(ctx, db, *copiesIn); err != nil {
		log.Fatalf("import copies failed: %v", err)
	}

	log.Printf("imported books from %s and copies from %s", *booksIn, *copiesIn)
}

func importBooks(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO books (id, title, author, description, subjects, cover_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  author = excluded.author,
		  description = excluded.description,
		  subjects = excluded.subjects,
		  cover_url = excluded.cover_url
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		id := valueAt(header, row, "id")
		title := valueAt(header, row, "title")
		if id == "" || title == "" {
			continue
		}

		if _, err := stmt.ExecContext(
			ctx,
			id,
			title,
			nullString(valueAt(header, row, "author")),
			nullString(valueAt(header, row, "description")),
			nullString(valueAt(header, row, "subjects")),
			nullString(valueAt(header, row, "cover_url")),
		); err != nil {
			return err
		}
	}

	return nil
}

func importCopies(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO book_copies (id, book_id, copy_code, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  book_id = excluded.book_id,
		  copy_code = excluded.copy_code,
		  status = excluded.status
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		id := valueAt(header, row, "id")
		bookID := valueAt(header, row, "book_id")
		copyCode := valueAt(header, row, "copy_code")
		if id == "" || bookID == "" || copyCode == "" {
			continue
		}

		status := valueAt(header, row, "status")
		if status == "" {
			status = "available"
		}

		if _, err := stmt.ExecContext(ctx, id, bookID, copyCode, status); err != nil {
			return err
		}
	}

	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
