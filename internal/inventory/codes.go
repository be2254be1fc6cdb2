package inventory

import (
	"fmt"
	"strings"
)

const (
	MinCopiesPerAdd = 1
	MaxCopiesPerAdd = 50
)

// CopyCode builds the human-readable label for the n-th copy of a book:
// BK-<first 8 hex chars of the book id, uppercased>-<3-digit sequence>.
func CopyCode(bookID string, n int) string {
	short := strings.ReplaceAll(bookID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("BK-%s-%03d", strings.ToUpper(short), n)
}

// NextCopyCodes continues the sequence after existingCount.
func NextCopyCodes(bookID string, existingCount, count int) []string {
	out := make([]string, 0, count)
	for i := existingCount + 1; i <= existingCount+count; i++ {
		out = append(out, CopyCode(bookID, i))
	}
	return out
}

// ClampAddCount forces a requested copy count into [1,50], the way the
// add-copies form does before submitting.
func ClampAddCount(n int) int {
	if n < MinCopiesPerAdd {
		return MinCopiesPerAdd
	}
	if n > MaxCopiesPerAdd {
		return MaxCopiesPerAdd
	}
	return n
}
