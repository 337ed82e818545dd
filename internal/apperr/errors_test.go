package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Run("classifies domain errors", func(t *testing.T) {
		assert.Equal(t, KindFormat, KindOf(Format("bad id %q", "x")))
		assert.Equal(t, KindNotFound, KindOf(NotFound("book not found")))
		assert.Equal(t, KindArgument, KindOf(Argument("page must be positive")))
		assert.Equal(t, KindConflict, KindOf(Conflict("copy already lent")))
	})

	t.Run("foreign errors are unexpected", func(t *testing.T) {
		assert.Equal(t, KindUnexpected, KindOf(errors.New("disk full")))
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("searching books: %w", Argument("pageSize must be positive"))
		assert.Equal(t, KindArgument, KindOf(err))
		assert.True(t, IsKind(err, KindArgument))
	})
}

func TestUnexpected(t *testing.T) {
	cause := errors.New("database is locked")
	err := Unexpected(cause)

	require.Equal(t, "internal error", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestMessageFormatting(t *testing.T) {
	err := NotFound("author with id %q does not exist", "123")
	assert.Equal(t, `author with id "123" does not exist`, err.Error())
}
