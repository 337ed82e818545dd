package services

import (
	"github.com/avolkov/libris/internal/entities"
)

// IsCopyAvailable reports whether a copy can be lent right now. A copy is
// unavailable when it is lost or when any borrowing referencing it is still
// open. Availability is always computed from the current borrowing snapshot,
// never stored, so it cannot go stale.
func IsCopyAvailable(copy entities.Copy, borrowings []entities.Borrowing) bool {
	if copy.IsLost {
		return false
	}
	return !hasOpenBorrowing(borrowings)
}

func hasOpenBorrowing(borrowings []entities.Borrowing) bool {
	for _, b := range borrowings {
		if b.IsOpen() {
			return true
		}
	}
	return false
}

// byCopy groups borrowings by their copy id, for book-level availability
// checks that inspect many copies in one pass.
func byCopy(borrowings []entities.Borrowing) map[string][]entities.Borrowing {
	grouped := make(map[string][]entities.Borrowing)
	for _, b := range borrowings {
		key := b.CopyID.String()
		grouped[key] = append(grouped[key], b)
	}
	return grouped
}

// isBookAvailable reports whether at least one of the copies is available.
func isBookAvailable(copies []entities.Copy, borrowingsByCopy map[string][]entities.Borrowing) bool {
	for _, c := range copies {
		if IsCopyAvailable(c, borrowingsByCopy[c.ID.String()]) {
			return true
		}
	}
	return false
}
