package openlibrary

import (
	"context"
	"strings"
)

type SubjectsResult struct {
	Subjects []string
	Source   string
}

// NormalizeSubject collapses internal whitespace and strips one layer of
// surrounding quotes, which some feeds leave on subject strings.
func NormalizeSubject(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimFunc(s, func(r rune) bool {
		return r == '"' || r == '\''
	})
	return s
}

// DedupeSubjects drops empty strings and case-insensitive duplicates,
// keeping first-seen casing and order.
func DedupeSubjects(subjects []string) []string {
	out := make([]string, 0, len(subjects))
	seen := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		k := strings.ToLower(s)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// LookupSubjects takes the first search hit that carries any subject
// list, preferring the human-readable subject field over the facet and
// key variants. Returns nil when no hit had subjects.
func (c *Client) LookupSubjects(ctx context.Context, title, author string) (*SubjectsResult, error) {
	docs, err := c.search(ctx, title, author, "key,title,author_name,subject,subject_facet,subject_key")
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		raw := doc.Subject
		if len(raw) == 0 {
			raw = doc.SubjectFacet
		}
		if len(raw) == 0 {
			raw = doc.SubjectKey
		}
		if len(raw) == 0 {
			continue
		}

		normalized := make([]string, 0, len(raw))
		for _, s := range raw {
			normalized = append(normalized, NormalizeSubject(s))
		}
		subjects := DedupeSubjects(normalized)
		if len(subjects) == 0 {
			continue
		}

		source := doc.Key
		if source == "" {
			source = "search"
		}
		return &SubjectsResult{
			Subjects: subjects,
			Source:   "openlibrary:" + source,
		}, nil
	}
	return nil, nil
}
