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

type Copies struct {
	st  *store.Store
	now Clock
}

func NewCopies(st *store.Store, now Clock) *Copies {
	return &Copies{st: st, now: now}
}

type CopyFilter struct {
	Term        string // matched against the owning book's title
	BookID      string
	Condition   string
	IsLost      *bool
	IsAvailable *bool
	Page        *int
	PageSize    *int
}

func (s *Copies) Search(f CopyFilter) (search.Page[entities.Copy], error) {
	var page search.Page[entities.Copy]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	var bookID *uuid.UUID
	if f.BookID != "" {
		id, err := validate.ParseID(f.BookID)
		if err != nil {
			return page, err
		}
		bookID = &id
	}
	var condition *string
	if f.Condition != "" {
		c, err := validate.ParseEnum("condition", f.Condition, entities.ConditionNames())
		if err != nil {
			return page, err
		}
		condition = &c
	}

	err = s.st.View(func(tx *store.Tx) error {
		if bookID != nil {
			if _, err := getBook(tx, *bookID); err != nil {
				return err
			}
		}

		copies, err := store.All[entities.Copy](tx)
		if err != nil {
			return err
		}

		var preds []func(entities.Copy) bool
		if p.Term != "" {
			books, err := store.All[entities.Book](tx)
			if err != nil {
				return err
			}
			titles := make(map[uuid.UUID]string, len(books))
			for _, b := range books {
				titles[b.ID] = b.Title
			}
			preds = append(preds, func(c entities.Copy) bool {
				return search.MatchesTerm(p.Term, titles[c.BookID])
			})
		}
		if bookID != nil {
			preds = append(preds, func(c entities.Copy) bool { return c.BookID == *bookID })
		}
		if condition != nil {
			preds = append(preds, func(c entities.Copy) bool { return string(c.Condition) == *condition })
		}
		if f.IsLost != nil {
			preds = append(preds, func(c entities.Copy) bool { return c.IsLost == *f.IsLost })
		}
		if f.IsAvailable != nil {
			borrowings, err := store.All[entities.Borrowing](tx)
			if err != nil {
				return err
			}
			openByCopy := byCopy(borrowings)
			want := *f.IsAvailable
			preds = append(preds, func(c entities.Copy) bool {
				return IsCopyAvailable(c, openByCopy[c.ID.String()]) == want
			})
		}

		page, err = search.Paginate(search.Filter(copies, preds...), p)
		return err
	})
	return page, err
}

func (s *Copies) Get(rawID string) (*entities.Copy, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var copy *entities.Copy
	err = s.st.View(func(tx *store.Tx) error {
		copy, err = getCopy(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return copy, nil
}

type CreateCopyParams struct {
	BookID          string  `json:"book_id"`
	ShelfNumber     int     `json:"shelf_number"`
	Condition       string  `json:"condition"`
	AcquiredAt      *string `json:"acquired_at"`
	LastInspectedAt *string `json:"last_inspected_at"`
}

// Create adds a copy to a book, assigning the next sequential copy number
// within that book.
func (s *Copies) Create(p CreateCopyParams) (*entities.Copy, error) {
	bookID, err := validate.ParseID(p.BookID)
	if err != nil {
		return nil, err
	}
	if p.ShelfNumber < 1 {
		return nil, apperr.Argument("shelfNumber must be a positive integer, got %d", p.ShelfNumber)
	}
	condition, err := validate.ParseEnum("condition", p.Condition, entities.ConditionNames())
	if err != nil {
		return nil, err
	}
	acquiredAt := s.now()
	if p.AcquiredAt != nil && *p.AcquiredAt != "" {
		acquiredAt, err = validate.ParseDate(*p.AcquiredAt)
		if err != nil {
			return nil, err
		}
	}
	var inspectedAt *time.Time
	if p.LastInspectedAt != nil && *p.LastInspectedAt != "" {
		d, err := validate.ParseDate(*p.LastInspectedAt)
		if err != nil {
			return nil, err
		}
		inspectedAt = &d
	}

	copy := &entities.Copy{
		ID:              uuid.New(),
		ShelfNumber:     p.ShelfNumber,
		Condition:       entities.Condition(condition),
		AcquiredAt:      acquiredAt,
		LastInspectedAt: inspectedAt,
		BookID:          bookID,
	}
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getBook(tx, bookID); err != nil {
			return err
		}
		siblings, err := copiesForBook(tx, bookID)
		if err != nil {
			return err
		}
		copy.CopyNumber = nextCopyNumber(siblings)
		return store.Add(tx, copy)
	})
	if err != nil {
		return nil, err
	}
	return copy, nil
}

func nextCopyNumber(siblings []entities.Copy) int {
	max := 0
	for _, c := range siblings {
		if c.CopyNumber > max {
			max = c.CopyNumber
		}
	}
	return max + 1
}

// UpdateCopyParams is a partial update; an empty LastInspectedAt string
// clears the inspection date.
type UpdateCopyParams struct {
	CopyNumber      *int    `json:"copy_number"`
	ShelfNumber     *int    `json:"shelf_number"`
	IsLost          *bool   `json:"is_lost"`
	Condition       *string `json:"condition"`
	AcquiredAt      *string `json:"acquired_at"`
	LastInspectedAt *string `json:"last_inspected_at"`
}

func (s *Copies) Update(rawID string, p UpdateCopyParams) (*entities.Copy, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	if p.CopyNumber != nil && *p.CopyNumber < 1 {
		return nil, apperr.Argument("copyNumber must be a positive integer, got %d", *p.CopyNumber)
	}
	if p.ShelfNumber != nil && *p.ShelfNumber < 1 {
		return nil, apperr.Argument("shelfNumber must be a positive integer, got %d", *p.ShelfNumber)
	}
	var condition *string
	if p.Condition != nil {
		c, err := validate.ParseEnum("condition", *p.Condition, entities.ConditionNames())
		if err != nil {
			return nil, err
		}
		condition = &c
	}
	var acquiredAt *time.Time
	if p.AcquiredAt != nil {
		d, err := validate.ParseDate(*p.AcquiredAt)
		if err != nil {
			return nil, err
		}
		acquiredAt = &d
	}
	var inspectedAt *time.Time
	clearInspectedAt := false
	if p.LastInspectedAt != nil {
		if *p.LastInspectedAt == "" {
			clearInspectedAt = true
		} else {
			d, err := validate.ParseDate(*p.LastInspectedAt)
			if err != nil {
				return nil, err
			}
			inspectedAt = &d
		}
	}

	var updated *entities.Copy
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		copy, err := getCopy(tx, id)
		if err != nil {
			return err
		}
		if p.CopyNumber != nil && *p.CopyNumber != copy.CopyNumber {
			taken, err := store.All(tx, func(c entities.Copy) bool {
				return c.BookID == copy.BookID && c.ID != copy.ID && c.CopyNumber == *p.CopyNumber
			})
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return apperr.Conflict(
					"copy number %d is already taken for this book", *p.CopyNumber)
			}
			copy.CopyNumber = *p.CopyNumber
		}
		if p.ShelfNumber != nil {
			copy.ShelfNumber = *p.ShelfNumber
		}
		if p.IsLost != nil {
			copy.IsLost = *p.IsLost
		}
		if condition != nil {
			copy.Condition = entities.Condition(*condition)
		}
		if acquiredAt != nil {
			copy.AcquiredAt = *acquiredAt
		}
		if clearInspectedAt {
			copy.LastInspectedAt = nil
		} else if inspectedAt != nil {
			copy.LastInspectedAt = inspectedAt
		}
		if err := store.Save(tx, copy); err != nil {
			return err
		}
		updated = copy
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a copy and its closed borrowing history. A copy with an
// open borrowing can only be deleted once it is marked lost.
func (s *Copies) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}

	_, err = s.st.Atomically(func(tx *store.Tx) error {
		copy, err := getCopy(tx, id)
		if err != nil {
			return err
		}
		borrowings, err := borrowingsForCopy(tx, id)
		if err != nil {
			return err
		}
		if hasOpenBorrowing(borrowings) && !copy.IsLost {
			return apperr.Conflict(
				"cannot delete copy #%d: it is currently on loan", copy.CopyNumber)
		}
		for _, b := range borrowings {
			if err := store.Remove[entities.Borrowing](tx, b.ID); err != nil {
				return err
			}
		}
		return store.Remove[entities.Copy](tx, id)
	})
	return err
}
