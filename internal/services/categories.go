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

type Categories struct {
	st *store.Store
}

func NewCategories(st *store.Store) *Categories {
	return &Categories{st: st}
}

type CategoryFilter struct {
	Term             string
	ParentCategoryID string
	Page             *int
	PageSize         *int
}

func (s *Categories) Search(f CategoryFilter) (search.Page[entities.Category], error) {
	var page search.Page[entities.Category]

	p, err := search.Normalize(f.Page, f.PageSize, f.Term)
	if err != nil {
		return page, err
	}

	var parentID *uuid.UUID
	if f.ParentCategoryID != "" {
		id, err := validate.ParseID(f.ParentCategoryID)
		if err != nil {
			return page, err
		}
		parentID = &id
	}

	err = s.st.View(func(tx *store.Tx) error {
		if parentID != nil {
			if _, err := getCategory(tx, *parentID); err != nil {
				return err
			}
		}
		categories, err := store.All[entities.Category](tx)
		if err != nil {
			return err
		}

		var preds []func(entities.Category) bool
		if p.Term != "" {
			preds = append(preds, func(c entities.Category) bool {
				return search.MatchesTerm(p.Term, c.Name, c.Description, c.Tags)
			})
		}
		if parentID != nil {
			preds = append(preds, func(c entities.Category) bool {
				return c.ParentCategoryID != nil && *c.ParentCategoryID == *parentID
			})
		}

		page, err = search.Paginate(search.Filter(categories, preds...), p)
		return err
	})
	return page, err
}

func (s *Categories) Get(rawID string) (*entities.Category, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	var category *entities.Category
	err = s.st.View(func(tx *store.Tx) error {
		category, err = getCategory(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

type CreateCategoryParams struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	ParentCategoryID *string  `json:"parent_category_id"`
}

func (s *Categories) Create(p CreateCategoryParams) (*entities.Category, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.Argument("name is required")
	}

	tags, err := validate.NormalizeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if p.ParentCategoryID != nil && *p.ParentCategoryID != "" {
		id, err := validate.ParseID(*p.ParentCategoryID)
		if err != nil {
			return nil, err
		}
		parentID = &id
	}

	category := &entities.Category{
		ID:               uuid.New(),
		Name:             p.Name,
		Description:      p.Description,
		Tags:             tags,
		ParentCategoryID: parentID,
	}
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if parentID != nil {
			if _, err := getCategory(tx, *parentID); err != nil {
				return err
			}
		}
		return store.Add(tx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategoryParams is a partial update; an empty ParentCategoryID string
// detaches the category from its parent.
type UpdateCategoryParams struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	Tags             []string `json:"tags"`
	ParentCategoryID *string  `json:"parent_category_id"`
}

func (s *Categories) Update(rawID string, p UpdateCategoryParams) (*entities.Category, error) {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, apperr.Argument("name must not be blank")
	}

	var tags string
	if p.Tags != nil {
		tags, err = validate.NormalizeTags(p.Tags)
		if err != nil {
			return nil, err
		}
	}

	var parentID *uuid.UUID
	detachParent := false
	if p.ParentCategoryID != nil {
		if *p.ParentCategoryID == "" {
			detachParent = true
		} else {
			pid, err := validate.ParseID(*p.ParentCategoryID)
			if err != nil {
				return nil, err
			}
			parentID = &pid
		}
	}

	var updated *entities.Category
	_, err = s.st.Atomically(func(tx *store.Tx) error {
		category, err := getCategory(tx, id)
		if err != nil {
			return err
		}
		if parentID != nil {
			// Only direct self-parenting is guarded; deeper cycles are not
			// checked, matching the historical behavior.
			if *parentID == id {
				return apperr.Conflict("category cannot be its own parent")
			}
			if _, err := getCategory(tx, *parentID); err != nil {
				return err
			}
		}

		if p.Name != nil {
			category.Name = *p.Name
		}
		if p.Description != nil {
			category.Description = *p.Description
		}
		if p.Tags != nil {
			category.Tags = tags
		}
		if detachParent {
			category.ParentCategoryID = nil
		} else if parentID != nil {
			category.ParentCategoryID = parentID
		}
		if err := store.Save(tx, category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Categories) Delete(rawID string) error {
	id, err := validate.ParseID(rawID)
	if err != nil {
		return err
	}

	_, err = s.st.Atomically(func(tx *store.Tx) error {
		if _, err := getCategory(tx, id); err != nil {
			return err
		}

		// Both guards are always evaluated so the error names every
		// blocking condition, not just the first one hit.
		books, err := store.All(tx, func(b entities.Book) bool {
			return b.CategoryID == id
		})
		if err != nil {
			return err
		}
		children, err := store.All(tx, func(c entities.Category) bool {
			return c.ParentCategoryID != nil && *c.ParentCategoryID == id
		})
		if err != nil {
			return err
		}

		var blocking []string
		if len(books) > 0 {
			blocking = append(blocking, pluralize(len(books), "book references it", "books reference it"))
		}
		if len(children) > 0 {
			blocking = append(blocking, pluralize(len(children), "child category exists", "child categories exist"))
		}
		if len(blocking) > 0 {
			return apperr.Conflict("cannot delete category: %s", strings.Join(blocking, "; "))
		}

		return store.Remove[entities.Category](tx, id)
	})
	return err
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
