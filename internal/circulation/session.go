package circulation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"shelfmark/pkg/models"
)

// DetailSession tracks one open detail view. When the operator arrived
// via "check out" on the book card, the first available copy in creation
// order is pre-selected exactly once; a cancel followed by a list refresh
// must not re-trigger the selection.
type DetailSession struct {
	ID           string
	BookID       string
	wantCheckout bool
	autoUsed     bool
	openedAt     time.Time
}

// AutoTarget returns the copy to pre-select for checkout, consuming the
// one-shot. Later calls (refreshes within the same session) return false.
func (s *DetailSession) AutoTarget(copies []models.CopyWithLoan) (string, bool) {
	if !s.wantCheckout || s.autoUsed || len(copies) == 0 {
		return "", false
	}
	for _, c := range copies {
		if c.Status == models.CopyAvailable {
			s.autoUsed = true
			return c.ID, true
		}
	}
	return "", false
}

// Sessions is the in-memory registry of open detail views. Sessions are
// short-lived; anything older than the TTL is dropped on the next sweep.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*DetailSession
	ttl  time.Duration
}

func NewSessions() *Sessions {
	return &Sessions{
		byID: make(map[string]*DetailSession),
		ttl:  time.Hour,
	}
}

func (r *Sessions) Open(bookID string, wantCheckout bool) *DetailSession {
	s := &DetailSession{
		ID:           uuid.NewString(),
		BookID:       bookID,
		wantCheckout: wantCheckout,
		openedAt:     time.Now(),
	}

	r.mu.Lock()
	r.sweepLocked()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Sessions) Get(id string) *DetailSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func (r *Sessions) Close(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

func (r *Sessions) sweepLocked() {
	cutoff := time.Now().Add(-r.ttl)
	for id, s := range r.byID {
		if s.openedAt.Before(cutoff) {
			delete(r.byID, id)
		}
	}
}
