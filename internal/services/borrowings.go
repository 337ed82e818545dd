package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/search"
	"github.com/avolkov/libris/internal/store"
	"github.com/avolkov/libris/internal/validate"
)

// Borrowings governs the lending lifecycle. A borrowing is Open while its
// return date is unset and Closed once it is recorded; the rules here keep
// at most one open borrowing per copy at any time.
type Borrowings struct {
	st  *store.Store
	now Clock
}

func NewBorrowings(st *store.Store, now Clock) *Borrowings {
	return &Borrowings{st: st, now: now}
}

type BorrowingFilter struct {
	Term          string // matched against reader name/card and book title
	CopyID        string
	ReaderID      string
	StartedBefore string // inclusive
	StartedAfter  string // inclusive
	Open          *bool
	Page          *int
	PageSize      *int
}

func (s *Borrowings) Search(f BorrowingFilter) (search.Page[entities.Borrowing], error) {
	var page search.Page[entities.Borrowing]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	var copyID, readerID *uuid.UUID
	if f.CopyID != "" {
		id, err := validate.ParseID(f.CopyID)
		if err != nil {
			return page, err
		}
		copyID = &id
	}
	if f.ReaderID != "" {
		id, err := validate.ParseID(f.ReaderID)
		if err != nil {
			return page, err
		}
		readerID = &id
	}
	var startedBefore, startedAfter *time.Time
	if f.StartedBefore != "" {
		d, err := validate.ParseDateTime(f.StartedBefore)
		if err != nil {
			return page, err
		}
		startedBefore = &d
	}
	if f.StartedAfter != "" {
		d, err := validate.ParseDateTime(f.StartedAfter)
		if err != nil {
			return page, err
		}
		startedAfter = &d
	}

	err = s.st.View(func(tx *store.Tx) error {
		if copyID != nil {
			if _, err := getCopy(tx, *copyID); err != nil {
				return err
			}
		}
		if readerID != nil {
			if _, err := getReader(tx, *readerID); err != nil {
				return err
			}
		}

		borrowings, err := store.All[entities.Borrowing](tx)
		if err != nil {
			return err
		}

		var preds []func(entities.Borrowing) bool
		if p.Term != "" {
			readers, err := store.All[entities.Reader](tx)
			if err != nil {
				return err
			}
			readersByID := make(map[uuid.UUID]entities.Reader, len(readers))
			for _, r := range readers {
				readersByID[r.ID] = r
			}
			copies, err := store.All[entities.Copy](tx)
			if err != nil {
				return err
			}
			books, err := store.All[entities.Book](tx)
			if err != nil {
				return err
			}
			titles := make(map[uuid.UUID]string, len(books))
			for _, b := range books {
				titles[b.ID] = b.Title
			}
			titleByCopy := make(map[uuid.UUID]string, len(copies))
			for _, c := range copies {
				titleByCopy[c.ID] = titles[c.BookID]
			}
			preds = append(preds, func(b entities.Borrowing) bool {
				r := readersByID[b.ReaderID]
				return search.MatchesTerm(p.Term,
					r.FirstName, r.LastName, r.CardNumber, titleByCopy[b.CopyID])
			})
		}
		if copyID != nil {
			preds = append(preds, func(b entities.Borrowing) bool { return b.CopyID == *copyID })
		}
		if readerID != nil {
			preds = append(preds, func(b entities.Borrowing) bool { return b.ReaderID == *readerID })
		}
		if startedBefore != nil {
			preds = append(preds, func(b entities.Borrowing) bool { return !b.StartedAt.After(*startedBefore) })
		}
		if startedAfter != nil {
			preds = append(preds, func(b entities.Borrowing) bool { return !b.StartedAt.Before(*startedAfter) })
		}
		if f.Open != nil {
			preds = append(preds, func(b entities.Borrowing) bool { return b.IsOpen() == *f.Open })
		}

		page, err = search.Paginate(search.Filter(borrowings, preds...), p)
		return err
	})
	return page, err
}

func (s *Borrowings) Get(rawID string) (*entities.Borrowing, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var borrowing *entities.Borrowing
	err = s.st.View(func(tx *store.Tx) error {
		borrowing, err = getBorrowing(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return borrowing, nil
}

type CreateBorrowingParams struct {
	CopyID     string  `json:"copy_id"`
	ReaderID   string  `json:"reader_id"`
	StartedAt  *string `json:"started_at"`  // defaults to now
	ReturnedAt *string `json:"returned_at"` // set to record an already-closed loan
}

func (s *Borrowings) Create(p CreateBorrowingParams) (*entities.Borrowing, error) {
	copyID, err := validate.ParseID(p.CopyID)
	if err != nil {
		return nil, err
	}
	readerID, err := validate.ParseID(p.ReaderID)
	if err != nil {
		return nil, err
	}

	startedAt := s.now()
	if p.StartedAt != nil && *p.StartedAt != "" {
		startedAt, err = validate.ParseDateTime(*p.StartedAt)
		if err != nil {
			return nil, err
		}
		if startedAt.After(s.now()) {
			return nil, apperr.Conflict("startedDate must not be in the future")
		}
	}
	var returnedAt *time.Time
	if p.ReturnedAt != nil && *p.ReturnedAt != "" {
		d, err := validate.ParseDateTime(*p.ReturnedAt)
		if err != nil {
			return nil, err
		}
		if d.Before(startedAt) {
			return nil, apperr.Conflict("actualReturnDate must not precede startedDate")
		}
		returnedAt = &d
	}

	borrowing := &entities.Borrowing{
		ID:         uuid.New(),
		StartedAt:  startedAt,
		ReturnedAt: returnedAt,
		CopyID:     copyID,
		ReaderID:   readerID,
	}
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if err := s.guardLendable(tx, copyID, uuid.Nil); err != nil {
			return err
		}
		reader, err := getReader(tx, readerID)
		if err != nil {
			return err
		}
		if reader.IsBanned {
			return apperr.Conflict("reader %s %s is banned and cannot borrow",
				reader.FirstName, reader.LastName)
		}
		return store.Add(tx, borrowing)
	})
	if err != nil {
		return nil, err
	}
	return borrowing, nil
}

// guardLendable verifies the copy exists, is not lost, and has no open
// borrowing other than exclude.
func (s *Borrowings) guardLendable(tx *store.Tx, copyID, exclude uuid.UUID) error {
	copy, err := getCopy(tx, copyID)
	if err != nil {
		return err
	}
	if copy.IsLost {
		return apperr.Conflict("copy #%d is marked lost and cannot be lent", copy.CopyNumber)
	}
	open, err := store.All(tx, func(b entities.Borrowing) bool {
		return b.CopyID == copyID && b.ID != exclude && b.IsOpen()
	})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return apperr.Conflict("copy #%d already has an open borrowing", copy.CopyNumber)
	}
	return nil
}

// UpdateBorrowingParams is a partial update. An empty ReturnedAt string
// explicitly reopens the loan; nil leaves the field untouched.
type UpdateBorrowingParams struct {
	CopyID     *string `json:"copy_id"`
	ReaderID   *string `json:"reader_id"`
	StartedAt  *string `json:"started_at"`
	ReturnedAt *string `json:"returned_at"`
}

func (s *Borrowings) Update(rawID string, p UpdateBorrowingParams) (*entities.Borrowing, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var copyID, readerID *uuid.UUID
	if p.CopyID != nil {
		cid, err := validate.ParseID(*p.CopyID)
		if err != nil {
			return nil, err
		}
		copyID = &cid
	}
	if p.ReaderID != nil {
		rid, err := validate.ParseID(*p.ReaderID)
		if err != nil {
			return nil, err
		}
		readerID = &rid
	}
	var startedAt *time.Time
	if p.StartedAt != nil {
		d, err := validate.ParseDateTime(*p.StartedAt)
		if err != nil {
			return nil, err
		}
		if d.After(s.now()) {
			return nil, apperr.Conflict("startedDate must not be in the future")
		}
		startedAt = &d
	}
	var returnedAt *time.Time
	reopen := false
	if p.ReturnedAt != nil {
		if *p.ReturnedAt == "" {
			reopen = true
		} else {
			d, err := validate.ParseDateTime(*p.ReturnedAt)
			if err != nil {
				return nil, err
			}
			if d.After(s.now()) {
				return nil, apperr.Conflict("actualReturnDate must not be in the future")
			}
			returnedAt = &d
		}
	}

	var updated *entities.Borrowing
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		borrowing, err := getBorrowing(tx, id)
		if err != nil {
			return err
		}

		if copyID != nil && *copyID != borrowing.CopyID {
			// Swapping the copy re-runs the same checks as lending it fresh.
			if err := s.guardLendable(tx, *copyID, borrowing.ID); err != nil {
				return err
			}
			borrowing.CopyID = *copyID
		}
		if readerID != nil && *readerID != borrowing.ReaderID {
			reader, err := getReader(tx, *readerID)
			if err != nil {
				return err
			}
			if reader.IsBanned {
				return apperr.Conflict("reader %s %s is banned and cannot borrow",
					reader.FirstName, reader.LastName)
			}
			borrowing.ReaderID = *readerID
		}
		if startedAt != nil {
			borrowing.StartedAt = *startedAt
		}
		if reopen {
			borrowing.ReturnedAt = nil
		} else if returnedAt != nil {
			borrowing.ReturnedAt = returnedAt
		}

		if borrowing.ReturnedAt != nil && borrowing.ReturnedAt.Before(borrowing.StartedAt) {
			return apperr.Conflict("actualReturnDate must not precede startedDate")
		}
		if borrowing.IsOpen() {
			// Whatever made this loan open again, the copy must not end up
			// with two open borrowings.
			open, err := store.All(tx, func(b entities.Borrowing) bool {
				return b.CopyID == borrowing.CopyID && b.ID != borrowing.ID && b.IsOpen()
			})
			if err != nil {
				return err
			}
			if len(open) > 0 {
				return apperr.Conflict("copy already has an open borrowing")
			}
		}

		if err := store.Save(tx, borrowing); err != nil {
			return err
		}
		updated = borrowing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a borrowing record unconditionally.
func (s *Borrowings) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getBorrowing(tx, id); err != nil {
			return err
		}
		return store.Remove[entities.Borrowing](tx, id)
	})
	return err
}
