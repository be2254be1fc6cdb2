package models

import "time"

// Loan is a circulation record. CheckedInAt is nil while the loan is open;
// a copy has at most one open loan at any time.
type Loan struct {
	ID            string     `json:"id"`
	CopyID        string     `json:"copy_id"`
	BorrowerName  string     `json:"borrower_name"`
	BorrowerClass string     `json:"borrower_class,omitempty"`
	CheckedOutAt  time.Time  `json:"checked_out_at"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
}

// ActiveLoan is the denormalized "who has what" row: an open loan joined
// to its copy and book, newest checkout first.
type ActiveLoan struct {
	Loan
	BookID         string    `json:"book_id"`
	CopyCode       string    `json:"copy_code"`
	BookTitle      string    `json:"book_title"`
	BookAuthor     string    `json:"book_author,omitempty"`
	BookCoverURL   string    `json:"book_cover_url,omitempty"`
	CheckedOutTime time.Time `json:"checked_out_time"`
}
