package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/apperr"
)

func TestBooksCreate(t *testing.T) {
	t.Run("rejects unknown language", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		_, err := f.books.Create(CreateBookParams{
			Title:       "Fiasco",
			ReleaseDate: "1986-01-01",
			Language:    "polish", // case sensitive
			AuthorID:    book.AuthorID.String(),
			CategoryID:  book.CategoryID.String(),
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindFormat))
		assert.Contains(t, err.Error(), "English")
	})

	t.Run("author must exist", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		_, err := f.books.Create(CreateBookParams{
			Title:       "Fiasco",
			ReleaseDate: "1986-01-01",
			Language:    "Polish",
			AuthorID:    "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			CategoryID:  book.CategoryID.String(),
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("duplicate title for the same author is a conflict", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		_, err := f.books.Create(CreateBookParams{
			Title:       "SOLARIS", // case-insensitive match
			ReleaseDate: "1961-06-01",
			Language:    "Polish",
			AuthorID:    book.AuthorID.String(),
			CategoryID:  book.CategoryID.String(),
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("same title by another author is fine", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		other, err := f.authors.Create(CreateAuthorParams{FirstName: "Other", LastName: "Writer"})
		require.NoError(t, err)

		_, err = f.books.Create(CreateBookParams{
			Title:       "Solaris",
			ReleaseDate: "2001-01-01",
			Language:    "English",
			AuthorID:    other.ID.String(),
			CategoryID:  book.CategoryID.String(),
		})
		assert.NoError(t, err)
	})
}

func TestBooksUpdate(t *testing.T) {
	t.Run("renaming onto an existing title is a conflict", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		second, err := f.books.Create(CreateBookParams{
			Title:       "Fiasco",
			ReleaseDate: "1986-01-01",
			Language:    "Polish",
			AuthorID:    book.AuthorID.String(),
			CategoryID:  book.CategoryID.String(),
		})
		require.NoError(t, err)

		_, err = f.books.Update(second.ID.String(), UpdateBookParams{
			Title: strPtr("solaris"),
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("update does not collide with itself", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		updated, err := f.books.Update(book.ID.String(), UpdateBookParams{
			Description: strPtr("a planet that thinks"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Solaris", updated.Title)
		assert.Equal(t, "a planet that thinks", updated.Description)
	})
}

func TestBooksDelete(t *testing.T) {
	t.Run("cascades copies and their history", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		// A closed borrowing must not block deletion.
		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID:     copy.ID.String(),
			ReaderID:   reader.ID.String(),
			StartedAt:  strPtr("2024-06-01 10:00"),
			ReturnedAt: strPtr("2024-06-10 10:00"),
		})
		require.NoError(t, err)

		require.NoError(t, f.books.Delete(book.ID.String()))

		_, err = f.copies.Get(copy.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("blocked by an open borrowing on a non-lost copy", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID:   copy.ID.String(),
			ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)

		err = f.books.Delete(book.ID.String())
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		assert.Contains(t, err.Error(), "on loan")
	})

	t.Run("a lost copy with an open borrowing does not block", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID:   copy.ID.String(),
			ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)

		_, err = f.copies.Update(copy.ID.String(), UpdateCopyParams{IsLost: boolPtr(true)})
		require.NoError(t, err)

		assert.NoError(t, f.books.Delete(book.ID.String()))
	})
}

func TestBooksSearch(t *testing.T) {
	t.Run("term matches author fields", func(t *testing.T) {
		f := setup(t)
		f.seedBook(t, "Solaris")

		page, err := f.books.Search(BookFilter{Term: "lem"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Solaris", page.Items[0].Title)
	})

	t.Run("inclusive date bounds", func(t *testing.T) {
		f := setup(t)
		f.seedBook(t, "Solaris") // released 1961-06-01

		page, err := f.books.Search(BookFilter{OlderThan: "1961-06-01"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1, "olderThan bound is inclusive")

		page, err = f.books.Search(BookFilter{NewerThan: "1961-06-01"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1, "newerThan bound is inclusive")

		page, err = f.books.Search(BookFilter{NewerThan: "1961-06-02"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("availability filter follows borrowing state", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		page, err := f.books.Search(BookFilter{IsAvailable: boolPtr(true)})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)

		borrowing, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID:   copy.ID.String(),
			ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)

		page, err = f.books.Search(BookFilter{IsAvailable: boolPtr(true)})
		require.NoError(t, err)
		assert.Empty(t, page.Items, "only copy is out")

		_, err = f.borrowings.Update(borrowing.ID.String(), UpdateBorrowingParams{
			ReturnedAt: strPtr("2024-06-15 11:00"),
		})
		require.NoError(t, err)

		page, err = f.books.Search(BookFilter{IsAvailable: boolPtr(true)})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1, "return makes the book available again")
	})

	t.Run("zero matches is an empty page, not an error", func(t *testing.T) {
		f := setup(t)
		f.seedBook(t, "Solaris")

		page, err := f.books.Search(BookFilter{Term: "nonexistent"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("page past the end is a conflict", func(t *testing.T) {
		f := setup(t)
		f.seedBook(t, "Solaris")

		_, err := f.books.Search(BookFilter{Page: intPtr(3)})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("format errors win over not-found", func(t *testing.T) {
		f := setup(t)

		_, err := f.books.Search(BookFilter{
			AuthorID:  "broken",
			OlderThan: "also-broken",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindFormat))
	})
}
