// Package store is the generic entity store: type-parameterized CRUD with
// predicate querying over gorm. One Atomically call is one commit boundary;
// every write inside it succeeds or none do.
package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avolkov/libris/internal/apperr"
)

// Entity is anything the store can persist.
type Entity interface {
	PrimaryKey() uuid.UUID
}

// Predicate filters entities in a query. Predicates compose conjunctively.
type Predicate[T Entity] func(T) bool

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx is a handle to one transaction. Reads performed through it are
// consistent with the writes that follow within the same transaction.
type Tx struct {
	db     *gorm.DB
	writes int
}

// View runs fn inside a read-only snapshot.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.Transaction(func(g *gorm.DB) error {
		return fn(&Tx{db: g})
	})
}

// Atomically runs fn inside one transaction and returns the number of
// entity writes committed. Any error rolls the whole transaction back.
func (s *Store) Atomically(fn func(tx *Tx) error) (int, error) {
	var writes int
	err := s.db.Transaction(func(g *gorm.DB) error {
		tx := &Tx{db: g}
		if err := fn(tx); err != nil {
			return err
		}
		writes = tx.writes
		return nil
	})
	return writes, err
}

// All returns every entity of type T matching all predicates.
func All[T Entity](tx *Tx, preds ...Predicate[T]) ([]T, error) {
	var items []T
	if err := tx.db.Find(&items).Error; err != nil {
		return nil, apperr.Unexpected(err)
	}
	if len(preds) == 0 {
		return items, nil
	}
	matched := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue outer
			}
		}
		matched = append(matched, item)
	}
	return matched, nil
}

// ByID returns the entity with the given id, or nil when absent. Absence is
// not an error here; callers decide what "not found" means for them.
func ByID[T Entity](tx *Tx, id uuid.UUID) (*T, error) {
	var item T
	err := tx.db.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return &item, nil
}

// Add inserts a new entity.
func Add[T Entity](tx *Tx, item *T) error {
	if err := tx.db.Create(item).Error; err != nil {
		return apperr.Unexpected(err)
	}
	tx.writes++
	return nil
}

// Save persists all fields of an existing entity.
func Save[T Entity](tx *Tx, item *T) error {
	if err := tx.db.Save(item).Error; err != nil {
		return apperr.Unexpected(err)
	}
	tx.writes++
	return nil
}

// Remove deletes the entity with the given id. Removing an absent id is a
// no-op, mirroring SQL DELETE semantics.
func Remove[T Entity](tx *Tx, id uuid.UUID) error {
	var zero T
	if err := tx.db.Delete(&zero, "id = ?", id).Error; err != nil {
		return apperr.Unexpected(err)
	}
	tx.writes++
	return nil
}
