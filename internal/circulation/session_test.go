package circulation

import (
	"testing"

	"shelfmark/pkg/models"
)

func copyList(statusByID map[string]string, order ...string) []models.CopyWithLoan {
	out := make([]models.CopyWithLoan, 0, len(order))
	for _, id := range order {
		out = append(out, models.CopyWithLoan{
			Copy: models.Copy{ID: id, Status: statusByID[id]},
		})
	}
	return out
}

func TestAutoTargetPicksFirstAvailableOnce(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open("b1", true)

	copies := copyList(map[string]string{
		"c1": models.CopyCheckedOut,
		"c2": models.CopyAvailable,
		"c3": models.CopyAvailable,
	}, "c1", "c2", "c3")

	target, ok := sess.AutoTarget(copies)
	if !ok || target != "c2" {
		t.Fatalf("target = %q, %v; want c2, true", target, ok)
	}

	// refresh after cancel: must not re-select
	if _, ok := sess.AutoTarget(copies); ok {
		t.Errorf("auto target fired twice in one session")
	}
}

func TestAutoTargetOnlyWhenCheckoutIntent(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open("b1", false)

	copies := copyList(map[string]string{"c1": models.CopyAvailable}, "c1")
	if _, ok := sess.AutoTarget(copies); ok {
		t.Errorf("auto target fired without checkout intent")
	}
}

func TestAutoTargetWaitsForAvailableCopy(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open("b1", true)

	allOut := copyList(map[string]string{"c1": models.CopyCheckedOut}, "c1")
	if _, ok := sess.AutoTarget(allOut); ok {
		t.Fatalf("auto target fired with nothing available")
	}

	// not consumed yet: a refresh that frees a copy may still trigger it
	freed := copyList(map[string]string{"c1": models.CopyAvailable}, "c1")
	target, ok := sess.AutoTarget(freed)
	if !ok || target != "c1" {
		t.Errorf("target = %q, %v; want c1, true", target, ok)
	}
}

func TestSessionsRegistry(t *testing.T) {
	reg := NewSessions()
	sess := reg.Open("b1", true)

	if got := reg.Get(sess.ID); got != sess {
		t.Fatalf("Get returned %v, want the open session", got)
	}

	reg.Close(sess.ID)
	if reg.Get(sess.ID) != nil {
		t.Errorf("session survived Close")
	}
}
