package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropstech/crops-backend/internal/model"
)

func newNotif(userID, eventID string, createdAt time.Time) *model.Notification {
	return &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		EventType: string(model.EventMention),
		CreatedAt: createdAt,
	}
}

func TestCreateDedupesOnUserAndEvent(t *testing.T) {
	db := setupDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newNotif("u1", "e1", time.Now()))
	require.NoError(t, err)
	assert.True(t, created)

	// Same event redelivered to the same user.
	created, err = repo.Create(ctx, newNotif("u1", "e1", time.Now()))
	require.NoError(t, err)
	assert.False(t, created)

	// Same event for a different user is a distinct row.
	created, err = repo.Create(ctx, newNotif("u2", "e1", time.Now()))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestListByUserUnreadFilterAndOrder(t *testing.T) {
	db := setupDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	older := newNotif("u1", "e1", base)
	newer := newNotif("u1", "e2", base.Add(time.Minute))
	_, err := repo.Create(ctx, older)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newer)
	require.NoError(t, err)

	all, err := repo.ListByUser(ctx, "u1", false, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "e2", all[0].EventID) // newest first

	require.NoError(t, repo.MarkRead(ctx, older.ID, "u1"))
	unread, err := repo.ListByUser(ctx, "u1", true, 0, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "e2", unread[0].EventID)
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	db := setupDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := newNotif("u1", "e1", time.Now())
	_, err := repo.Create(ctx, n)
	require.NoError(t, err)

	err = repo.MarkRead(ctx, n.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotOwned)

	require.NoError(t, repo.MarkRead(ctx, n.ID, "u1"))
	// Marking read twice is fine.
	require.NoError(t, repo.MarkRead(ctx, n.ID, "u1"))
}

func TestMarkAllRead(t *testing.T) {
	db := setupDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i, e := range []string{"e1", "e2", "e3"} {
		_, err := repo.Create(ctx, newNotif("u1", e, time.Now().Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	require.NoError(t, repo.MarkAllRead(ctx, "u1"))

	unread, err := repo.ListByUser(ctx, "u1", true, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
