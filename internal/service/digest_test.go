package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropstech/crops-backend/internal/model"
)

func (e *env) enqueueNotification(t *testing.T, userID string, i int) {
	t.Helper()
	ctx := context.Background()
	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   fmt.Sprintf("ev-%d", i),
		EventType: string(model.EventCommentOnFollowedBoard),
		BoardID:   "b1",
		ActorID:   "actor",
		CreatedAt: time.Now(),
	}
	created, err := e.notifs.Create(ctx, n)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, e.digests.Enqueue(ctx, userID, n.ID))
}

func TestHourlyDigestBundlesIntoOneEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedUser(t, "u1")
	require.NoError(t, e.prefs.SetInterval(ctx, "u1", model.BatchHourly))
	for i := 0; i < 5; i++ {
		e.enqueueNotification(t, "u1", i)
	}

	e.digest.Sweep(ctx)

	sent := e.mail.sentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "u1@example.com", sent[0].to)
	assert.Equal(t, "5 new notifications", sent[0].subject)
	assert.Equal(t, 5, strings.Count(sent[0].body, "- "))
	assert.Empty(t, e.queuedEntries(t, "u1"))

	// Nothing left to send.
	e.digest.Sweep(ctx)
	assert.Len(t, e.mail.sentMails(), 1)
}

func TestDigestWaitsForIntervalBoundary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedUser(t, "u1")
	require.NoError(t, e.prefs.SetInterval(ctx, "u1", model.BatchHourly))
	require.NoError(t, e.db.Create(&model.DigestState{
		UserID:      "u1",
		LastFlushAt: time.Now().Add(-10 * time.Minute),
	}).Error)
	e.enqueueNotification(t, "u1", 0)

	e.digest.Sweep(ctx)

	assert.Empty(t, e.mail.sentMails())
	assert.Len(t, e.queuedEntries(t, "u1"), 1)

	// Past the boundary the same entry goes out.
	require.NoError(t, e.db.Model(&model.DigestState{}).
		Where("user_id = ?", "u1").
		Update("last_flush_at", time.Now().Add(-2*time.Hour)).Error)
	e.digest.Sweep(ctx)
	assert.Len(t, e.mail.sentMails(), 1)
	assert.Empty(t, e.queuedEntries(t, "u1"))
}

func TestFailedSendKeepsEverythingQueued(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedUser(t, "u1")
	for i := 0; i < 3; i++ {
		e.enqueueNotification(t, "u1", i)
	}

	e.mail.fail(errors.New("smtp down"))
	err := e.digest.FlushUser(ctx, "u1", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Len(t, e.queuedEntries(t, "u1"), 3)

	state, sErr := e.digests.State(ctx, "u1")
	require.NoError(t, sErr)
	assert.Contains(t, state.LastError, "smtp down")

	// Recovery sends everything exactly once.
	e.mail.fail(nil)
	require.NoError(t, e.digest.FlushUser(ctx, "u1", time.Now()))
	sent := e.mail.sentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "3 new notifications", sent[0].subject)
	assert.Empty(t, e.queuedEntries(t, "u1"))

	state, sErr = e.digests.State(ctx, "u1")
	require.NoError(t, sErr)
	assert.Empty(t, state.LastError)
}

func TestFlushConsumesOnlyEntriesBeforeCutoff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedUser(t, "u1")
	now := time.Now()
	mk := func(eventID string, enqueuedAt time.Time) {
		n := &model.Notification{
			ID:        uuid.New().String(),
			UserID:    "u1",
			EventID:   eventID,
			EventType: string(model.EventItemUploaded),
			CreatedAt: enqueuedAt,
		}
		created, err := e.notifs.Create(ctx, n)
		require.NoError(t, err)
		require.True(t, created)
		require.NoError(t, e.db.Create(&model.DigestQueueEntry{
			ID:             uuid.New().String(),
			UserID:         "u1",
			NotificationID: n.ID,
			EnqueuedAt:     enqueuedAt,
		}).Error)
	}
	mk("old", now.Add(-10*time.Minute))
	mk("new", now.Add(10*time.Minute))

	require.NoError(t, e.digest.FlushUser(ctx, "u1", now))

	sent := e.mail.sentMails()
	require.Len(t, sent, 1)
	remaining := e.queuedEntries(t, "u1")
	require.Len(t, remaining, 1)

	var keptNotif model.Notification
	require.NoError(t, e.db.First(&keptNotif, "id = ?", remaining[0].NotificationID).Error)
	assert.Equal(t, "new", keptNotif.EventID)
}
