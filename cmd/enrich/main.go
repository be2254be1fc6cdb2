package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shelfmark/internal/enrich"
	"shelfmark/internal/openlibrary"
	"shelfmark/pkg/database"
	"shelfmark/pkg/utils"
)

func openDB() *sql.DB {
	db := database.MustOpen(database.DefaultConfig())
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}
	return db
}

// newRunner wires a Runner against the live Open Library API. Covers use
// a shorter delay than the text lookups, which may fan out to work and
// edition fetches per book.
func newRunner(db *sql.DB, defaultDelayMS int) *enrich.Runner {
	cfg := utils.LoadEnrichConfig(defaultDelayMS)
	return &enrich.Runner{
		Repo:   enrich.NewRepo(db),
		Source: openlibrary.NewClient(),
		Delay:  cfg.Delay,
		Limit:  cfg.MaxBooks,
	}
}

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "enrich",
		Short: "Batch metadata jobs for the catalogue",
		Long:  "Fills missing covers, descriptions and subjects from Open Library, and normalizes titles.",
	}

	root.AddCommand(&cobra.Command{
		Use:   "covers",
		Short: "Fill missing cover URLs from Open Library",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()

			stats, err := newRunner(db, 900).FillCovers(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("[enrich] covers done: added=%d missed=%d failed=%d", stats.Added, stats.Missed, stats.Failed)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "descriptions",
		Short: "Fill missing descriptions from Open Library",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()

			stats, err := newRunner(db, 1200).FillDescriptions(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("[enrich] descriptions done: added=%d missed=%d failed=%d", stats.Added, stats.Missed, stats.Failed)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "subjects",
		Short: "Fill missing subject lists from Open Library",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()

			stats, err := newRunner(db, 1200).FillSubjects(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("[enrich] subjects done: added=%d missed=%d failed=%d", stats.Added, stats.Missed, stats.Failed)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "fix-titles",
		Short: "Rewrite book titles into title case",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()
			defer db.Close()

			updated, err := newRunner(db, 0).FixTitles(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("[enrich] fix-titles done: updated=%d", updated)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
