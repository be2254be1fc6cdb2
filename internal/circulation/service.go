package circulation

import (
	"context"
	"strings"
	"time"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service drives the per-copy two-state machine (available ↔ checked_out).
// It validates inputs before touching the store, delegates atomicity to
// the store's procedures, and announces every successful transition on
// the hub so copy lists and the aggregated view refresh together.
type Service struct {
	store *Store
	hub   *Hub
	clock Clock
}

func NewService(store *Store, hub *Hub) *Service {
	return &Service{store: store, hub: hub, clock: realClock{}}
}

// Checkout moves a copy available → checked_out. Empty borrower names are
// rejected before any store call. dueDate, when given, is YYYY-MM-DD and
// means end of that day.
func (s *Service) Checkout(ctx context.Context, copyID, borrowerName, borrowerClass, dueDate string) (*models.Loan, error) {
	borrowerName = strings.TrimSpace(borrowerName)
	if borrowerName == "" {
		return nil, apperr.NewValidationError("borrower name is required to check out")
	}
	if strings.TrimSpace(copyID) == "" {
		return nil, apperr.NewValidationError("copy_id is required")
	}

	var dueAt *time.Time
	if dueDate = strings.TrimSpace(dueDate); dueDate != "" {
		parsed, err := time.Parse("2006-01-02", dueDate)
		if err != nil {
			return nil, apperr.NewValidationError("invalid due date, expected YYYY-MM-DD")
		}
		eod := parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		dueAt = &eod
	}

	loan, err := s.store.Checkout(ctx, copyID, borrowerName, strings.TrimSpace(borrowerClass), dueAt)
	if err != nil {
		return nil, err
	}

	s.broadcast(EventCheckout, loan)
	return loan, nil
}

// Checkin moves a copy checked_out → available by closing its open loan.
func (s *Service) Checkin(ctx context.Context, copyID string) (*models.Loan, error) {
	if strings.TrimSpace(copyID) == "" {
		return nil, apperr.NewValidationError("copy_id is required")
	}

	loan, err := s.store.Checkin(ctx, copyID)
	if err != nil {
		return nil, err
	}

	s.broadcast(EventCheckin, loan)
	return loan, nil
}

func (s *Service) ListActiveLoans(ctx context.Context) ([]models.ActiveLoan, error) {
	return s.store.ListActiveLoans(ctx)
}

// QuickCheckinResult is the outcome of the book-card "check in" button.
// Exactly one copy out → that copy is checked in here. More than one →
// ambiguous: the caller must send the operator to the detail view to pick
// a copy, and Candidates lists the choices.
type QuickCheckinResult struct {
	Loan       *models.Loan `json:"loan,omitempty"`
	Ambiguous  bool         `json:"ambiguous"`
	Candidates []string     `json:"candidates,omitempty"`
}

func (s *Service) QuickCheckin(ctx context.Context, bookID string) (*QuickCheckinResult, error) {
	copyIDs, err := s.store.OpenCopyIDsForBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	switch len(copyIDs) {
	case 0:
		return nil, apperr.NewConflictError("no copies of this book are checked out")
	case 1:
		loan, err := s.Checkin(ctx, copyIDs[0])
		if err != nil {
			return nil, err
		}
		return &QuickCheckinResult{Loan: loan}, nil
	default:
		return &QuickCheckinResult{Ambiguous: true, Candidates: copyIDs}, nil
	}
}

func (s *Service) broadcast(eventType string, loan *models.Loan) {
	if s.hub == nil {
		return
	}
	ev := Event{
		Type:   eventType,
		CopyID: loan.CopyID,
		LoanID: loan.ID,
		At:     s.clock.Now().UTC(),
	}
	go s.hub.BroadcastJSON(ev)
}
