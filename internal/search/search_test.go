package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/apperr"
)

func intPtr(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := Normalize(nil, nil, "")
		require.NoError(t, err)
		assert.Equal(t, Params{Page: 1, PageSize: 25}, p)
	})

	t.Run("explicit values", func(t *testing.T) {
		p, err := Normalize(intPtr(3), intPtr(10), "Tolkien")
		require.NoError(t, err)
		assert.Equal(t, Params{Page: 3, PageSize: 10, Term: "tolkien"}, p)
	})

	t.Run("non-positive page", func(t *testing.T) {
		_, err := Normalize(intPtr(0), nil, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindArgument))
		assert.Contains(t, err.Error(), "page")
	})

	t.Run("non-positive pageSize", func(t *testing.T) {
		_, err := Normalize(nil, intPtr(-1), "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindArgument))
		assert.Contains(t, err.Error(), "pageSize")
	})

	t.Run("too-short term", func(t *testing.T) {
		_, err := Normalize(nil, nil, "ab")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindArgument))
	})

	t.Run("three-character term is accepted", func(t *testing.T) {
		p, err := Normalize(nil, nil, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", p.Term)
	})
}

func TestFilter(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	even := func(v int) bool { return v%2 == 0 }
	big := func(v int) bool { return v > 3 }

	t.Run("conjunctive", func(t *testing.T) {
		assert.Equal(t, []int{4, 6}, Filter(items, even, big))
	})

	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, Filter(items, even, big), Filter(items, big, even))
	})

	t.Run("no predicates keeps everything", func(t *testing.T) {
		assert.Equal(t, items, Filter(items))
	})
}

func TestPaginate(t *testing.T) {
	t.Run("slices the requested page", func(t *testing.T) {
		items := []string{"a", "b", "c", "d", "e"}
		page, err := Paginate(items, Params{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, page.Items)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("last page may be short", func(t *testing.T) {
		items := []string{"a", "b", "c", "d", "e"}
		page, err := Paginate(items, Params{Page: 3, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"e"}, page.Items)
	})

	t.Run("page 1 of empty set is valid", func(t *testing.T) {
		page, err := Paginate([]string{}, Params{Page: 1, PageSize: 25})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.Total)
	})

	t.Run("page beyond the last fails", func(t *testing.T) {
		_, err := Paginate([]string{"a", "b"}, Params{Page: 3, PageSize: 25})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("concatenated pages reproduce the set", func(t *testing.T) {
		var items []int
		for i := 0; i < 23; i++ {
			items = append(items, i)
		}
		const pageSize = 5

		var rebuilt []int
		for p := 1; ; p++ {
			page, err := Paginate(items, Params{Page: p, PageSize: pageSize})
			if err != nil {
				assert.True(t, apperr.IsKind(err, apperr.KindConflict))
				break
			}
			rebuilt = append(rebuilt, page.Items...)
		}
		assert.Equal(t, items, rebuilt, "no duplicates, no omissions")
	})
}

func TestMatchesTerm(t *testing.T) {
	assert.True(t, MatchesTerm("wied", "Wiedźmin", ""))
	assert.True(t, MatchesTerm("fantasy", "The Hobbit", "high FANTASY classic"))
	assert.False(t, MatchesTerm("romance", "The Hobbit", "fantasy"))
}

func ExamplePaginate() {
	page, _ := Paginate([]string{"a", "b", "c"}, Params{Page: 1, PageSize: 2})
	fmt.Println(page.Items, page.Total, page.TotalPages)
	// Output: [a b] 3 2
}
