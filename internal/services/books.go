package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/search"
	"github.com/avolkov/libris/internal/store"
	"github.com/avolkov/libris/internal/validate"
)

type Books struct {
	st *store.Store
}

func NewBooks(st *store.Store) *Books {
	return &Books{st: st}
}

type BookFilter struct {
	Term        string
	AuthorID    string
	CategoryID  string
	OlderThan   string // inclusive upper bound on release date
	NewerThan   string // inclusive lower bound on release date
	IsAvailable *bool
	Page        *int
	PageSize    *int
}

// Search applies the book filters conjunctively. The free-text term matches
// the book's own fields plus the referenced author and category fields; the
// availability filter is computed from copies and borrowings at query time.
func (s *Books) Search(f BookFilter) (search.Page[entities.Book], error) {
	var page search.Page[entities.Book]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	// Structural validation first, relational lookups afterwards.
	var authorID, categoryID *uuid.UUID
	if f.AuthorID != "" {
		id, err := validate.ParseID(f.AuthorID)
		if err != nil {
			return page, err
		}
		authorID = &id
	}
	if f.CategoryID != "" {
		id, err := validate.ParseID(f.CategoryID)
		if err != nil {
			return page, err
		}
		categoryID = &id
	}
	var olderThan, newerThan *time.Time
	if f.OlderThan != "" {
		d, err := validate.ParseDate(f.OlderThan)
		if err != nil {
			return page, err
		}
		olderThan = &d
	}
	if f.NewerThan != "" {
		d, err := validate.ParseDate(f.NewerThan)
		if err != nil {
			return page, err
		}
		newerThan = &d
	}

	err = s.st.View(func(tx *store.Tx) error {
		if authorID != nil {
			if _, err := getAuthor(tx, *authorID); err != nil {
				return err
			}
		}
		if categoryID != nil {
			if _, err := getCategory(tx, *categoryID); err != nil {
				return err
			}
		}

		books, err := store.All[entities.Book](tx)
		if err != nil {
			return err
		}
		authors, err := authorsByID(tx)
		if err != nil {
			return err
		}
		categories, err := categoriesByID(tx)
		if err != nil {
			return err
		}

		var preds []func(entities.Book) bool
		if p.Term != "" {
			preds = append(preds, func(b entities.Book) bool {
				return bookMatchesTerm(p.Term, b, authors[b.AuthorID], categories[b.CategoryID])
			})
		}
		if authorID != nil {
			preds = append(preds, func(b entities.Book) bool { return b.AuthorID == *authorID })
		}
		if categoryID != nil {
			preds = append(preds, func(b entities.Book) bool { return b.CategoryID == *categoryID })
		}
		if olderThan != nil {
			preds = append(preds, func(b entities.Book) bool { return !b.ReleaseDate.After(*olderThan) })
		}
		if newerThan != nil {
			preds = append(preds, func(b entities.Book) bool { return !b.ReleaseDate.Before(*newerThan) })
		}
		if f.IsAvailable != nil {
			copies, err := store.All[entities.Copy](tx)
			if err != nil {
				return err
			}
			borrowings, err := store.All[entities.Borrowing](tx)
			if err != nil {
				return err
			}
			copiesByBook := make(map[uuid.UUID][]entities.Copy)
			for _, c := range copies {
				copiesByBook[c.BookID] = append(copiesByBook[c.BookID], c)
			}
			openByCopy := byCopy(borrowings)
			want := *f.IsAvailable
			preds = append(preds, func(b entities.Book) bool {
				return isBookAvailable(copiesByBook[b.ID], openByCopy) == want
			})
		}

		page, err = search.Paginate(search.Filter(books, preds...), p)
		return err
	})
	return page, err
}

func bookMatchesTerm(term string, b entities.Book, author *entities.Author, category *entities.Category) bool {
	fields := []string{b.Title, b.Description, b.Tags, string(b.Language)}
	if author != nil {
		fields = append(fields, author.FirstName, author.LastName, author.Description, author.Tags)
	}
	if category != nil {
		fields = append(fields, category.Name, category.Description, category.Tags)
	}
	return search.MatchesTerm(term, fields...)
}

func authorsByID(tx *store.Tx) (map[uuid.UUID]*entities.Author, error) {
	authors, err := store.All[entities.Author](tx)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]*entities.Author, len(authors))
	for i := range authors {
		m[authors[i].ID] = &authors[i]
	}
	return m, nil
}

func categoriesByID(tx *store.Tx) (map[uuid.UUID]*entities.Category, error) {
	categories, err := store.All[entities.Category](tx)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]*entities.Category, len(categories))
	for i := range categories {
		m[categories[i].ID] = &categories[i]
	}
	return m, nil
}

func (s *Books) Get(rawID string) (*entities.Book, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var book *entities.Book
	err = s.st.View(func(tx *store.Tx) error {
		book, err = getBook(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

type CreateBookParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ReleaseDate string   `json:"release_date"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	AuthorID    string   `json:"author_id"`
	CategoryID  string   `json:"category_id"`
}

func (s *Books) Create(p CreateBookParams) (*entities.Book, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperr.Argument("title is required")
	}
	releaseDate, err := validate.ParseDate(p.ReleaseDate)
	if err != nil {
		return nil, err
	}
	language, err := validate.ParseEnum("language", p.Language, entities.LanguageNames())
	if err != nil {
		return nil, err
	}
	tags, err := validate.NormalizeTags(p.Tags)
	if err != nil {
		return nil, err
	}
	authorID, err := validate.ParseID(p.AuthorID)
	if err != nil {
		return nil, err
	}
	categoryID, err := validate.ParseID(p.CategoryID)
	if err != nil {
		return nil, err
	}

	book := &entities.Book{
		ID:          uuid.New(),
		Title:       p.Title,
		Description: p.Description,
		ReleaseDate: releaseDate,
		Language:    entities.Language(language),
		Tags:        tags,
		AuthorID:    authorID,
		CategoryID:  categoryID,
	}
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getAuthor(tx, authorID); err != nil {
			return err
		}
		if _, err := getCategory(tx, categoryID); err != nil {
			return err
		}
		if err := guardDuplicateTitle(tx, book.Title, authorID, uuid.Nil); err != nil {
			return err
		}
		return store.Add(tx, book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// guardDuplicateTitle fails when another book of the same author carries the
// same title, compared case-insensitively. exclude skips the book being
// updated so it does not collide with itself.
func guardDuplicateTitle(tx *store.Tx, title string, authorID, exclude uuid.UUID) error {
	lowered := strings.ToLower(title)
	dupes, err := store.All(tx, func(b entities.Book) bool {
		return b.ID != exclude && b.AuthorID == authorID && strings.ToLower(b.Title) == lowered
	})
	if err != nil {
		return err
	}
	if len(dupes) > 0 {
		return apperr.Conflict("a book titled %q by the same author already exists", title)
	}
	return nil
}

type UpdateBookParams struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"release_date"`
	Language    *string  `json:"language"`
	Tags        []string `json:"tags"`
	AuthorID    *string  `json:"author_id"`
	CategoryID  *string  `json:"category_id"`
}

func (s *Books) Update(rawID string, p UpdateBookParams) (*entities.Book, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, apperr.Argument("title must not be blank")
	}
	var releaseDate *time.Time
	if p.ReleaseDate != nil {
		d, err := validate.ParseDate(*p.ReleaseDate)
		if err != nil {
			return nil, err
		}
		releaseDate = &d
	}
	var language *string
	if p.Language != nil {
		l, err := validate.ParseEnum("language", *p.Language, entities.LanguageNames())
		if err != nil {
			return nil, err
		}
		language = &l
	}
	var tags string
	if p.Tags != nil {
		tags, err = validate.NormalizeTags(p.Tags)
		if err != nil {
			return nil, err
		}
	}
	var authorID, categoryID *uuid.UUID
	if p.AuthorID != nil {
		aid, err := validate.ParseID(*p.AuthorID)
		if err != nil {
			return nil, err
		}
		authorID = &aid
	}
	if p.CategoryID != nil {
		cid, err := validate.ParseID(*p.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryID = &cid
	}

	var updated *entities.Book
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		book, err := getBook(tx, id)
		if err != nil {
			return err
		}
		if authorID != nil {
			if _, err := getAuthor(tx, *authorID); err != nil {
				return err
			}
			book.AuthorID = *authorID
		}
		if categoryID != nil {
			if _, err := getCategory(tx, *categoryID); err != nil {
				return err
			}
			book.CategoryID = *categoryID
		}
		if p.Title != nil {
			book.Title = *p.Title
		}
		if p.Description != nil {
			book.Description = *p.Description
		}
		if releaseDate != nil {
			book.ReleaseDate = *releaseDate
		}
		if language != nil {
			book.Language = entities.Language(*language)
		}
		if p.Tags != nil {
			book.Tags = tags
		}

		// The duplicate guard runs against the resulting state, whether the
		// title, the author or both changed.
		if err := guardDuplicateTitle(tx, book.Title, book.AuthorID, book.ID); err != nil {
			return err
		}
		if err := store.Save(tx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the book and cascades to its copies and their closed
// borrowing history. An open borrowing on a non-lost copy blocks deletion;
// lost copies count as already resolved and never block.
func (s *Books) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}

	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getBook(tx, id); err != nil {
			return err
		}
		copies, err := copiesForBook(tx, id)
		if err != nil {
			return err
		}

		var blocked []string
		for _, c := range copies {
			if c.IsLost {
				continue
			}
			borrowings, err := borrowingsForCopy(tx, c.ID)
			if err != nil {
				return err
			}
			if hasOpenBorrowing(borrowings) {
				blocked = append(blocked, fmt.Sprintf("#%d", c.CopyNumber))
			}
		}
		if len(blocked) > 0 {
			return apperr.Conflict(
				"cannot delete book: copy %s currently on loan", strings.Join(blocked, ", "))
		}

		for _, c := range copies {
			borrowings, err := borrowingsForCopy(tx, c.ID)
			if err != nil {
				return err
			}
			for _, b := range borrowings {
				if err := store.Remove[entities.Borrowing](tx, b.ID); err != nil {
					return err
				}
			}
			if err := store.Remove[entities.Copy](tx, c.ID); err != nil {
				return err
			}
		}
		return store.Remove[entities.Book](tx, id)
	})
	return err
}
