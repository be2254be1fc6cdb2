package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"shelfmark/pkg/database"
)

func main() {
	var (
		booksOut  = flag.String("books", "data/books.csv", "output CSV path for books")
		copiesOut = flag.String("copies", "data/copies.csv", "output CSV path for copies")
		loansOut  = flag.String("loans", "data/loans.csv", "output CSV path for loan history")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportBooks(ctx, db, *booksOut); err != nil {
		log.Fatalf("export books failed: %v", err)
	}
	if err := exportCopies(ctx, db, *copiesOut); err != nil {
		log.Fatalf("export copies failed: %v", err)
	}
	if err := exportLoans(ctx, db, *loansOut); err != nil {
		log.Fatalf("export loans failed: %v", err)
	}

	log.Printf("exported books to %s, copies to %s, loans to %s", *booksOut, *copiesOut, *loansOut)
}

func openWriter(outPath string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func exportBooks(ctx context.Context, db *sql.DB, outPath string) error {
	f, w, err := openWriter(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "title", "author", "description", "subjects", "cover_url", "created_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, title, COALESCE(author, ''), COALESCE(description, ''),
               COALESCE(subjects, ''), COALESCE(cover_url, ''), created_at
        FROM books
        ORDER BY title COLLATE NOCASE
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, title, author, description, subjects, coverURL string
		var createdAt time.Time
		if err := rows.Scan(&id, &title, &author, &description, &subjects, &coverURL, &createdAt); err != nil {
			return err
		}
		if err := w.Write([]string{id, title, author, description, subjects, coverURL, createdAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportCopies(ctx context.Context, db *sql.DB, outPath string) error {
	f, w, err := openWriter(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "book_id", "copy_code", "status", "created_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, book_id, copy_code, status, created_at
        FROM book_copies
        ORDER BY book_id, created_at
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, bookID, copyCode, status string
		var createdAt time.Time
		if err := rows.Scan(&id, &bookID, &copyCode, &status, &createdAt); err != nil {
			return err
		}
		if err := w.Write([]string{id, bookID, copyCode, status, createdAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportLoans(ctx context.Context, db *sql.DB, outPath string) error {
	f, w, err := openWriter(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "copy_id", "borrower_name", "borrower_class", "checked_out_at", "due_at", "checked_in_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, copy_id, borrower_name, COALESCE(borrower_class, ''),
               checked_out_at, due_at, checked_in_at
        FROM circulation
        ORDER BY checked_out_at
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, copyID, borrowerName, borrowerClass string
		var checkedOutAt time.Time
		var dueAt, checkedInAt sql.NullTime
		if err := rows.Scan(&id, &copyID, &borrowerName, &borrowerClass, &checkedOutAt, &dueAt, &checkedInAt); err != nil {
			return err
		}
		if err := w.Write([]string{
			id, copyID, borrowerName, borrowerClass,
			checkedOutAt.UTC().Format(time.RFC3339),
			formatNullTime(dueAt),
			formatNullTime(checkedInAt),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339)
}
