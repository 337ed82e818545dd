package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/search"
	"github.com/avolkov/libris/internal/store"
	"github.com/avolkov/libris/internal/validate"
)

type Authors struct {
	st *store.Store
}

func NewAuthors(st *store.Store) *Authors {
	return &Authors{st: st}
}

type AuthorFilter struct {
	Term     string
	Page     *int
	PageSize *int
}

func (s *Authors) Search(f AuthorFilter) (search.Page[entities.Author], error) {
	var page search.Page[entities.Author]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	err = s.st.View(func(tx *store.Tx) error {
		authors, err := store.All[entities.Author](tx)
		if err != nil {
			return err
		}
		if p.Term != "" {
			authors = search.Filter(authors, func(a entities.Author) bool {
				return search.MatchesTerm(p.Term, a.FirstName, a.LastName, a.Description, a.Tags)
			})
		}
		page, err = search.Paginate(authors, p)
		return err
	})
	return page, err
}

func (s *Authors) Get(rawID string) (*entities.Author, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var author *entities.Author
	err = s.st.View(func(tx *store.Tx) error {
		author, err = getAuthor(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return author, nil
}

type CreateAuthorParams struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Description string   `json:"description"`
	BirthDate   *string  `json:"birth_date"`
	Tags        []string `json:"tags"`
}

func (s *Authors) Create(p CreateAuthorParams) (*entities.Author, error) {
	if strings.TrimSpace(p.FirstName) == "" {
		return nil, apperr.Argument("firstName is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return nil, apperr.Argument("lastName is required")
	}

	var birthDate *time.Time
	if p.BirthDate != nil && *p.BirthDate != "" {
		d, err := validate.ParseDate(*p.BirthDate)
		if err != nil {
			return nil, err
		}
		birthDate = &d
	}

	tags, err := validate.NormalizeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	author := &entities.Author{
		ID:          uuid.New(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Description: p.Description,
		BirthDate:   birthDate,
		Tags:        tags,
	}
	if _, err := s.st.Atomically(func(tx *store.Tx) error {
		return store.Add(tx, author)
	}); err != nil {
		return nil, err
	}
	return author, nil
}

// UpdateAuthorParams carries a partial update: nil means "leave untouched",
// an empty BirthDate string clears the date.
type UpdateAuthorParams struct {
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Description *string  `json:"description"`
	BirthDate   *string  `json:"birth_date"`
	Tags        []string `json:"tags"`
}

func (s *Authors) Update(rawID string, p UpdateAuthorParams) (*entities.Author, error) {
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

	var birthDate *time.Time
	clearBirthDate := false
	if p.BirthDate != nil {
		if *p.BirthDate == "" {
			clearBirthDate = true
		} else {
			d, err := validate.ParseDate(*p.BirthDate)
			if err != nil {
				return nil, err
			}
			birthDate = &d
		}
	}

	var tags string
	if p.Tags != nil {
		tags, err = validate.NormalizeTags(p.Tags)
		if err != nil {
			return nil, err
		}
	}

	var updated *entities.Author
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		author, err := getAuthor(tx, id)
		if err != nil {
			return err
		}
		if p.FirstName != nil {
			author.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			author.LastName = *p.LastName
		}
		if p.Description != nil {
			author.Description = *p.Description
		}
		if clearBirthDate {
			author.BirthDate = nil
		} else if birthDate != nil {
			author.BirthDate = birthDate
		}
		if p.Tags != nil {
			author.Tags = tags
		}
		if err := store.Save(tx, author); err != nil {
			return err
		}
		updated = author
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Authors) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}

	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getAuthor(tx, id); err != nil {
			return err
		}
		books, err := store.All(tx, func(b entities.Book) bool {
			return b.AuthorID == id
		})
		if err != nil {
			return err
		}
		if len(books) > 0 {
			titles := make([]string, len(books))
			for i, b := range books {
				titles[i] = b.Title
			}
			return apperr.Conflict(
				"cannot delete author: %d book(s) still reference them: %s",
				len(books), strings.Join(titles, ", "))
		}
		return store.Remove[entities.Author](tx, id)
	})
	return err
}
