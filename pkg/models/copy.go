package models

import "time"

const (
	CopyAvailable  = "available"
	CopyCheckedOut = "checked_out"
)

// Copy is one physical, circulation-trackable instance of a Book.
// Status mirrors whether an open loan references the copy; the store is
// the source of truth and status is refreshed on every circulation change.
type Copy struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	CopyCode  string    `json:"copy_code"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CopyWithLoan annotates a Copy with its open loan, if any. Loan is nil
// for available copies and for callers without loan visibility.
type CopyWithLoan struct {
	Copy
	Loan *Loan `json:"loan,omitempty"`
}
