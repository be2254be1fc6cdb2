package catalog

import "shelfmark/pkg/models"

// BrowseState is the browse surface's whole state: loaded books plus the
// two filters. Mutations go through Reduce with a named action, so the
// filtering behaviour is testable without any rendering layer.
type BrowseState struct {
	Books          []models.BookWithTags
	Query          string
	CategoryFilter string
}

func NewBrowseState() BrowseState {
	return BrowseState{CategoryFilter: CategoryAll}
}

type Action interface {
	isAction()
}

// BooksLoaded replaces the book list after a (re)load.
type BooksLoaded struct {
	Books []models.BookWithTags
}

// SetQuery updates the free-text search.
type SetQuery struct {
	Query string
}

// SetCategoryFilter selects a category, CategoryAll, or
// CategoryUncategorized.
type SetCategoryFilter struct {
	Name string
}

func (BooksLoaded) isAction()       {}
func (SetQuery) isAction()          {}
func (SetCategoryFilter) isAction() {}

// Reduce is the pure transition function. A reload that empties the
// currently selected category bounces the filter back to All.
func Reduce(s BrowseState, a Action) BrowseState {
	switch a := a.(type) {
	case BooksLoaded:
		s.Books = a.Books
		if s.CategoryFilter != CategoryAll && countForFilter(s.Books, s.CategoryFilter) == 0 {
			s.CategoryFilter = CategoryAll
		}
	case SetQuery:
		s.Query = a.Query
	case SetCategoryFilter:
		name := a.Name
		if name == "" {
			name = CategoryAll
		}
		s.CategoryFilter = name
	}
	return s
}

func countForFilter(books []models.BookWithTags, filter string) int {
	tally := TallyCategories(books)
	if filter == CategoryUncategorized {
		return tally.Uncategorized
	}
	return tally.Counts[filter]
}

// Visible derives the filtered, title-sorted list for the current state.
func (s BrowseState) Visible() []models.BookWithTags {
	return FilterBooks(s.Books, s.Query, s.CategoryFilter)
}
