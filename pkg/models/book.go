package models

import "time"

// Book is the catalogue record as stored. Subjects live in a JSON text
// column; the store layer marshals/unmarshals them.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Subjects    []string  `json:"subjects"`
	CoverURL    string    `json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookWithTags is a Book joined with its theme and category names,
// the shape the browse surface works over.
type BookWithTags struct {
	Book
	ThemeIDs      []int64  `json:"theme_ids"`
	ThemeNames    []string `json:"themes"`
	CategoryIDs   []int64  `json:"category_ids"`
	CategoryNames []string `json:"categories"`
}
