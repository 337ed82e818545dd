// Package services implements the domain rule engine: per-entity validation
// cascades, the availability computation and the borrowing lifecycle. Each
// operation reads through the entity store, applies its rules, and commits
// all writes atomically. Validation always completes before the first write.
package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/libris/internal/apperr"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/store"
)

// Clock supplies "now" for temporal checks; injected so tests control time.
type Clock func() time.Time

func getAuthor(tx *store.Tx, id uuid.UUID) (*entities.Author, error) {
	a, err := store.ByID[entities.Author](tx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("author with id %q does not exist", id)
	}
	return a, nil
}

func getCategory(tx *store.Tx, id uuid.UUID) (*entities.Category, error) {
	c, err := store.ByID[entities.Category](tx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("category with id %q does not exist", id)
	}
	return c, nil
}

func getBook(tx *store.Tx, id uuid.UUID) (*entities.Book, error) {
	b, err := store.ByID[entities.Book](tx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("book with id %q does not exist", id)
	}
	return b, nil
}

func getCopy(tx *store.Tx, id uuid.UUID) (*entities.Copy, error) {
	c, err := store.ByID[entities.Copy](tx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("copy with id %q does not exist", id)
	}
	return c, nil
}

func getReader(tx *store.Tx, id uuid.UUID) (*entities.Reader, error) {
	r, err := store.ByID[entities.Reader](tx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("reader with id %q does not exist", id)
	}
	return r, nil
}

func getBorrowing(tx *store.Tx, id uuid.UUID) (*entities.Borrowing, error) {
	b, err := store.ByID[entities.Borrowing](tx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("borrowing with id %q does not exist", id)
	}
	return b, nil
}

func borrowingsForCopy(tx *store.Tx, copyID uuid.UUID) ([]entities.Borrowing, error) {
	return store.All(tx, func(b entities.Borrowing) bool {
		return b.CopyID == copyID
	})
}

func copiesForBook(tx *store.Tx, bookID uuid.UUID) ([]entities.Copy, error) {
	return store.All(tx, func(c entities.Copy) bool {
		return c.BookID == bookID
	})
}
