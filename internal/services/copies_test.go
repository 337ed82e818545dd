package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/apperr"
)

func TestCopiesCreate(t *testing.T) {
	t.Run("copy numbers are sequential per book", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		first := f.seedCopy(t, book.ID.String())
		second := f.seedCopy(t, book.ID.String())
		assert.Equal(t, 1, first.CopyNumber)
		assert.Equal(t, 2, second.CopyNumber)

		other := f.seedBook(t, "Fiasco")
		firstOfOther := f.seedCopy(t, other.ID.String())
		assert.Equal(t, 1, firstOfOther.CopyNumber, "numbering restarts per book")
	})

	t.Run("shelf number must be positive", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		_, err := f.copies.Create(CreateCopyParams{
			BookID: book.ID.String(), ShelfNumber: 0, Condition: "Good",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindArgument))
	})

	t.Run("condition enum is case sensitive", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")

		_, err := f.copies.Create(CreateCopyParams{
			BookID: book.ID.String(), ShelfNumber: 1, Condition: "good",
		})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindFormat))
	})

	t.Run("book must exist", func(t *testing.T) {
		f := setup(t)

		_, err := f.copies.Create(CreateCopyParams{
			BookID:      "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			ShelfNumber: 1,
			Condition:   "New",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestCopiesUpdate(t *testing.T) {
	t.Run("copy number collision within the book", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		f.seedCopy(t, book.ID.String())
		second := f.seedCopy(t, book.ID.String())

		_, err := f.copies.Update(second.ID.String(), UpdateCopyParams{CopyNumber: intPtr(1)})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("keeping its own number is fine", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())

		_, err := f.copies.Update(copy.ID.String(), UpdateCopyParams{CopyNumber: intPtr(1)})
		assert.NoError(t, err)
	})

	t.Run("clearing the inspection date", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())

		updated, err := f.copies.Update(copy.ID.String(), UpdateCopyParams{
			LastInspectedAt: strPtr("2024-05-01"),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.LastInspectedAt)

		updated, err = f.copies.Update(copy.ID.String(), UpdateCopyParams{
			LastInspectedAt: strPtr(""),
		})
		require.NoError(t, err)
		assert.Nil(t, updated.LastInspectedAt)
	})
}

func TestCopiesDelete(t *testing.T) {
	t.Run("blocked while on loan", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID: copy.ID.String(), ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)

		err = f.copies.Delete(copy.ID.String())
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("lost copy with open borrowing can be deleted", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		borrowing, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID: copy.ID.String(), ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)
		_, err = f.copies.Update(copy.ID.String(), UpdateCopyParams{IsLost: boolPtr(true)})
		require.NoError(t, err)

		require.NoError(t, f.copies.Delete(copy.ID.String()))

		_, err = f.borrowings.Get(borrowing.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "history goes with the copy")
	})

	t.Run("returned copy deletes along with history", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		copy := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID:     copy.ID.String(),
			ReaderID:   reader.ID.String(),
			StartedAt:  strPtr("2024-06-01 10:00"),
			ReturnedAt: strPtr("2024-06-10 10:00"),
		})
		require.NoError(t, err)

		assert.NoError(t, f.copies.Delete(copy.ID.String()))
	})
}

func TestCopiesSearch(t *testing.T) {
	t.Run("availability filter", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		available := f.seedCopy(t, book.ID.String())
		lent := f.seedCopy(t, book.ID.String())
		reader := f.seedReader(t, "Nowak")

		_, err := f.borrowings.Create(CreateBorrowingParams{
			CopyID: lent.ID.String(), ReaderID: reader.ID.String(),
		})
		require.NoError(t, err)

		page, err := f.copies.Search(CopyFilter{IsAvailable: boolPtr(true)})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, available.ID, page.Items[0].ID)
	})

	t.Run("term matches the owning book title", func(t *testing.T) {
		f := setup(t)
		book := f.seedBook(t, "Solaris")
		f.seedCopy(t, book.ID.String())

		page, err := f.copies.Search(CopyFilter{Term: "solaris"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
	})
}
