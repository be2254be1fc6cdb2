package enrich

import (
	"context"
	"log"
	"strings"
	"time"

	"shelfmark/internal/openlibrary"
)

// MetadataSource is what the fill jobs need from the Open Library
// client. An interface so tests can stub the remote side.
type MetadataSource interface {
	LookupCover(ctx context.Context, title, author string) (*openlibrary.CoverResult, error)
	LookupDescription(ctx context.Context, title, author string) (*openlibrary.DescriptionResult, error)
	LookupSubjects(ctx context.Context, title, author string) (*openlibrary.SubjectsResult, error)
}

// Stats summarizes one fill run.
type Stats struct {
	Found  int
	Added  int
	Missed int
	Failed int
}

// Runner drives the sequential fill jobs. One book at a time with a
// delay between lookups; a failed book is logged and skipped, never
// fatal to the batch.
type Runner struct {
	Repo   *Repo
	Source MetadataSource
	Delay  time.Duration
	Limit  int
}

func (r *Runner) pause() {
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
}

func (r *Runner) FillCovers(ctx context.Context) (Stats, error) {
	books, err := r.Repo.MissingCovers(ctx, r.Limit)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("[enrich] %d books missing covers", len(books))

	stats := Stats{Found: len(books)}
	for _, b := range books {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}

		found, err := r.Source.LookupCover(ctx, title, strings.TrimSpace(b.Author))
		if err != nil {
			log.Printf("[enrich] cover lookup failed: %s: %v", title, err)
			stats.Failed++
			r.pause()
			continue
		}
		if found == nil {
			log.Printf("[enrich] no cover: %s", title)
			stats.Missed++
			r.pause()
			continue
		}

		if err := r.Repo.SetCover(ctx, b.ID, found.URL, found.Source); err != nil {
			log.Printf("[enrich] cover update failed: %s: %v", title, err)
			stats.Failed++
		} else {
			log.Printf("[enrich] cover added: %s", title)
			stats.Added++
		}
		r.pause()
	}
	return stats, nil
}

func (r *Runner) FillDescriptions(ctx context.Context) (Stats, error) {
	books, err := r.Repo.MissingDescriptions(ctx, r.Limit)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("[enrich] %d books missing descriptions", len(books))

	stats := Stats{Found: len(books)}
	for _, b := range books {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}

		found, err := r.Source.LookupDescription(ctx, title, strings.TrimSpace(b.Author))
		if err != nil {
			log.Printf("[enrich] description lookup failed: %s: %v", title, err)
			stats.Failed++
			r.pause()
			continue
		}
		if found == nil || found.Text == "" {
			log.Printf("[enrich] no description: %s", title)
			stats.Missed++
			r.pause()
			continue
		}

		if err := r.Repo.SetDescription(ctx, b.ID, found.Text, found.Source); err != nil {
			log.Printf("[enrich] description update failed: %s: %v", title, err)
			stats.Failed++
		} else {
			log.Printf("[enrich] description added: %s", title)
			stats.Added++
		}
		r.pause()
	}
	return stats, nil
}

func (r *Runner) FillSubjects(ctx context.Context) (Stats, error) {
	books, err := r.Repo.MissingSubjects(ctx, r.Limit)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("[enrich] %d books missing subjects", len(books))

	stats := Stats{Found: len(books)}
	for _, b := range books {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}

		found, err := r.Source.LookupSubjects(ctx, title, strings.TrimSpace(b.Author))
		if err != nil {
			log.Printf("[enrich] subjects lookup failed: %s: %v", title, err)
			stats.Failed++
			r.pause()
			continue
		}
		if found == nil || len(found.Subjects) == 0 {
			log.Printf("[enrich] no subjects: %s", title)
			stats.Missed++
			r.pause()
			continue
		}

		if err := r.Repo.SetSubjects(ctx, b.ID, found.Subjects, found.Source); err != nil {
			log.Printf("[enrich] subjects update failed: %s: %v", title, err)
			stats.Failed++
		} else {
			log.Printf("[enrich] subjects added: %s (%d)", title, len(found.Subjects))
			stats.Added++
		}
		r.pause()
	}
	return stats, nil
}

// FixTitles rewrites every title into title case. No remote calls and
// no delay; only changed titles are written back.
func (r *Runner) FixTitles(ctx context.Context) (int, error) {
	books, err := r.Repo.AllTitles(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, b := range books {
		if b.Title == "" {
			continue
		}
		fixed := ToTitleCase(b.Title)
		if fixed == b.Title {
			continue
		}
		if err := r.Repo.SetTitle(ctx, b.ID, fixed); err != nil {
			log.Printf("[enrich] title update failed: %s: %v", b.Title, err)
			continue
		}
		log.Printf("[enrich] title fixed: %s -> %s", b.Title, fixed)
		updated++
	}
	return updated, nil
}
