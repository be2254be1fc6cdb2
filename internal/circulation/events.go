package circulation

import "time"

const (
	EventCheckout = "circulation.checkout"
	EventCheckin  = "circulation.checkin"
)

// Event is broadcast after every successful checkout or check-in so
// connected clients refresh both the per-book copy list and the
// aggregated active-loan view.
type Event struct {
	Type   string    `json:"type"`
	CopyID string    `json:"copy_id"`
	LoanID string    `json:"loan_id"`
	At     time.Time `json:"at"`
}
