package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
		require.NoError(t, err)

		assert.NoError(t, CheckPassword("correct horse battery", hash))
		assert.ErrorIs(t, CheckPassword("wrong horse battery!", hash), ErrInvalidPassword)
	})

	t.Run("length limits", func(t *testing.T) {
		_, err := HashPassword("short", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}
