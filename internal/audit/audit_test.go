package audit

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libris/internal/database"
	"github.com/avolkov/libris/internal/entities"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	dbPath := "./test_audit_" + t.Name() + ".db"
	db, err := database.NewTestDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return NewService(db.DB)
}

func TestRecordAndList(t *testing.T) {
	svc := setupService(t)

	bookID := uuid.New()
	require.NoError(t, svc.Record(&entities.AuditEvent{
		Actor:       "librarian",
		Action:      entities.AuditActionCreate,
		EntityType:  "book",
		EntityID:    bookID,
		Description: "Created book: Solaris",
	}))
	require.NoError(t, svc.Record(&entities.AuditEvent{
		Actor:      "librarian",
		Action:     entities.AuditActionDelete,
		EntityType: "author",
		EntityID:   uuid.New(),
	}))

	events, total, err := svc.Events("", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, events, 2)

	events, total, err = svc.Events("book", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, bookID, events[0].EntityID)
	assert.Equal(t, entities.AuditActionCreate, events[0].Action)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestDeleteOldEvents(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Record(&entities.AuditEvent{
		Actor:      "librarian",
		Action:     entities.AuditActionUpdate,
		EntityType: "book",
		EntityID:   uuid.New(),
		CreatedAt:  time.Now().Add(-72 * time.Hour),
	}))
	require.NoError(t, svc.Record(&entities.AuditEvent{
		Actor:      "librarian",
		Action:     entities.AuditActionUpdate,
		EntityType: "book",
		EntityID:   uuid.New(),
	}))

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, total, err := svc.Events("", 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestRecordMutationTruncatesDescription(t *testing.T) {
	svc := setupService(t)

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	svc.RecordMutation("admin", entities.AuditActionDelete, "reader", uuid.New(), string(long))

	// RecordAsync writes in the background.
	require.Eventually(t, func() bool {
		_, total, err := svc.Events("reader", 50, 0)
		return err == nil && total == 1
	}, 2*time.Second, 10*time.Millisecond)

	events, _, err := svc.Events("reader", 50, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(events[0].Description), 500)
}
