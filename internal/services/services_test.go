package services

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/database"
	"github.com/avolkov/libris/internal/entities"
	"github.com/avolkov/libris/internal/store"
)

// testNow is the fixed "now" used by every service test.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type fixture struct {
	st         *store.Store
	authors    *Authors
	categories *Categories
	books      *Books
	copies     *Copies
	readers    *Readers
	borrowings *Borrowings
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dbPath := "./test_services_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewTestDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	st := store.New(db.DB)
	return &fixture{
		st:         st,
		authors:    NewAuthors(st),
		categories: NewCategories(st),
		books:      NewBooks(st),
		copies:     NewCopies(st, testClock),
		readers:    NewReaders(st),
		borrowings: NewBorrowings(st, testClock),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }

// seedBook creates an author, a category and a book, returning the book.
func (f *fixture) seedBook(t *testing.T, title string) *entities.Book {
	t.Helper()

	author, err := f.authors.Create(CreateAuthorParams{
		FirstName: "Stanisław", LastName: "Lem",
	})
	require.NoError(t, err)
	category, err := f.categories.Create(CreateCategoryParams{Name: "Science Fiction"})
	require.NoError(t, err)

	book, err := f.books.Create(CreateBookParams{
		Title:       title,
		ReleaseDate: "1961-06-01",
		Language:    "Polish",
		AuthorID:    author.ID.String(),
		CategoryID:  category.ID.String(),
	})
	require.NoError(t, err)
	return book
}

func (f *fixture) seedCopy(t *testing.T, bookID string) *entities.Copy {
	t.Helper()

	copy, err := f.copies.Create(CreateCopyParams{
		BookID:      bookID,
		ShelfNumber: 7,
		Condition:   "Good",
	})
	require.NoError(t, err)
	return copy
}

func (f *fixture) seedReader(t *testing.T, lastName string) *entities.Reader {
	t.Helper()

	reader, err := f.readers.Create(CreateReaderParams{
		FirstName:  "Anna",
		LastName:   lastName,
		CardNumber: "CARD-" + lastName,
	})
	require.NoError(t, err)
	return reader
}
