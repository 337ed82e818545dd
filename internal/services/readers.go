package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/search"
	"github.com/avolkov/libris/internal/store"
	"github.com/avolkov/libris/internal/validate"
)

type Readers struct {
	st *store.Store
}

func NewReaders(st *store.Store) *Readers {
	return &Readers{st: st}
}

type ReaderFilter struct {
	Term     string
	IsBanned *bool
	Page     *int
	PageSize *int
}

func (s *Readers) Search(f ReaderFilter) (search.Page[entities.Reader], error) {
	var page search.Page[entities.Reader]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	err = s.st.View(func(tx *store.Tx) error {
		readers, err := store.All[entities.Reader](tx)
		if err != nil {
			return err
		}

		var preds []func(entities.Reader) bool
		if p.Term != "" {
			preds = append(preds, func(r entities.Reader) bool {
				return search.MatchesTerm(p.Term, r.FirstName, r.LastName, r.CardNumber, r.Email)
			})
		}
		if f.IsBanned != nil {
			preds = append(preds, func(r entities.Reader) bool { return r.IsBanned == *f.IsBanned })
		}

		page, err = search.Paginate(search.Filter(readers, preds...), p)
		return err
	})
	return page, err
}

func (s *Readers) Get(rawID string) (*entities.Reader, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var reader *entities.Reader
	err = s.st.View(func(tx *store.Tx) error {
		reader, err = getReader(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reader, nil
}

type CreateReaderParams struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	CardNumber string `json:"card_number"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func (s *Readers) Create(p CreateReaderParams) (*entities.Reader, error) {
	if strings.TrimSpace(p.FirstName) == "" {
		return nil, apperr.Argument("firstName is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return nil, apperr.Argument("lastName is required")
	}
	if strings.TrimSpace(p.CardNumber) == "" {
		return nil, apperr.Argument("cardNumber is required")
	}

	reader := &entities.Reader{
		ID:         uuid.New(),
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		CardNumber: p.CardNumber,
		Email:      p.Email,
		Phone:      p.Phone,
	}
	if _, err := s.st.Atomically(func(tx *store.Tx) error {
		return store.Add(tx, reader)
	}); err != nil {
		return nil, err
	}
	return reader, nil
}

type UpdateReaderParams struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	CardNumber *string `json:"card_number"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	IsBanned   *bool   `json:"is_banned"`
}

func (s *Readers) Update(rawID string, p UpdateReaderParams) (*entities.Reader, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) == "" {
		return nil, apperr.Argument("firstName must not be blank")
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) == "" {
		return nil, apperr.Argument("lastName must not be blank")
	}
	if p.CardNumber != nil && strings.TrimSpace(*p.CardNumber) == "" {
		return nil, apperr.Argument("cardNumber must not be blank")
	}

	var updated *entities.Reader
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		reader, err := getReader(tx, id)
		if err != nil {
			return err
		}
		if p.FirstName != nil {
			reader.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			reader.LastName = *p.LastName
		}
		if p.CardNumber != nil {
			reader.CardNumber = *p.CardNumber
		}
		if p.Email != nil {
			reader.Email = *p.Email
		}
		if p.Phone != nil {
			reader.Phone = *p.Phone
		}
		if p.IsBanned != nil {
			reader.IsBanned = *p.IsBanned
		}
		if err := store.Save(tx, reader); err != nil {
			return err
		}
		updated = reader
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete refuses to remove a reader who still has open borrowings; the
// error lists each borrowed book title and copy number.
func (s *Readers) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}

	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getReader(tx, id); err != nil {
			return err
		}
		open, err := store.All(tx, func(b entities.Borrowing) bool {
			return b.ReaderID == id && b.IsOpen()
		})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			var lent []string
			for _, b := range open {
				copy, err := getCopy(tx, b.CopyID)
				if err != nil {
					return err
				}
				book, err := getBook(tx, copy.BookID)
				if err != nil {
					return err
				}
				lent = append(lent, fmt.Sprintf("%s (copy #%d)", book.Title, copy.CopyNumber))
			}
			return apperr.Conflict(
				"cannot delete reader: %d open borrowing(s): %s",
				len(open), strings.Join(lent, ", "))
		}

		// Closed borrowing history goes with the reader.
		closed, err := store.All(tx, func(b entities.Borrowing) bool {
			return b.ReaderID == id
		})
		if err != nil {
			return err
		}
		for _, b := range closed {
			if err := store.Remove[entities.Borrowing](tx, b.ID); err != nil {
				return err
			}
		}
		return store.Remove[entities.Reader](tx, id)
	})
	return err
}
