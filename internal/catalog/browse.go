package catalog

import (
	"sort"
	"strings"

	"shelfmark/pkg/models"
)

// Category filter sentinels, distinct from any real category name.
const (
	CategoryAll           = "__ALL__"
	CategoryUncategorized = "__UNCATEGORIZED__"
)

// MatchesSearch reports whether q (already trimmed) appears, case
// insensitively, anywhere in the book's title, author, description,
// subjects, theme names or category names.
func MatchesSearch(b models.BookWithTags, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)

	parts := make([]string, 0, 3+len(b.Subjects)+len(b.ThemeNames)+len(b.CategoryNames))
	parts = append(parts, b.Title, b.Author, b.Description)
	parts = append(parts, b.Subjects...)
	parts = append(parts, b.ThemeNames...)
	parts = append(parts, b.CategoryNames...)

	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), q)
}

func matchesCategory(b models.BookWithTags, filter string) bool {
	switch filter {
	case CategoryAll:
		return true
	case CategoryUncategorized:
		return len(b.CategoryNames) == 0
	default:
		for _, n := range b.CategoryNames {
			if n == filter {
				return true
			}
		}
		return false
	}
}

// FilterBooks applies the category filter then the search filter, and
// returns the result title-sorted (case-insensitive). The input slice is
// not modified.
func FilterBooks(books []models.BookWithTags, query, categoryFilter string) []models.BookWithTags {
	q := strings.TrimSpace(query)
	if categoryFilter == "" {
		categoryFilter = CategoryAll
	}

	out := make([]models.BookWithTags, 0, len(books))
	for _, b := range books {
		if !matchesCategory(b, categoryFilter) {
			continue
		}
		if !MatchesSearch(b, q) {
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// CategoryTally counts books per category name, plus books with no
// category at all.
type CategoryTally struct {
	Counts        map[string]int
	Uncategorized int
}

func TallyCategories(books []models.BookWithTags) CategoryTally {
	t := CategoryTally{Counts: make(map[string]int)}
	for _, b := range books {
		if len(b.CategoryNames) == 0 {
			t.Uncategorized++
			continue
		}
		for _, n := range b.CategoryNames {
			t.Counts[n]++
		}
	}
	return t
}

// CategoryOption is one entry of the category dropdown. Empty categories
// are hidden; Uncategorized appears last and only when non-empty.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

func CategoryOptions(books []models.BookWithTags) []CategoryOption {
	tally := TallyCategories(books)

	opts := []CategoryOption{{Value: CategoryAll, Label: "All", Count: len(books)}}

	names := make([]string, 0, len(tally.Counts))
	for n, c := range tally.Counts {
		if c > 0 {
			names = append(names, n)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	for _, n := range names {
		opts = append(opts, CategoryOption{Value: n, Label: n, Count: tally.Counts[n]})
	}

	if tally.Uncategorized > 0 {
		opts = append(opts, CategoryOption{
			Value: CategoryUncategorized,
			Label: "Uncategorized",
			Count: tally.Uncategorized,
		})
	}
	return opts
}
