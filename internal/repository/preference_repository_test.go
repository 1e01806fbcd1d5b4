package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropstech/crops-backend/internal/model"
)

func TestGetCreatesDefaultsLazily(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.BatchImmediate, pref.Interval)
	require.Len(t, pref.EventPrefs, len(model.NotifiableEventTypes))
	for _, et := range model.NotifiableEventTypes {
		assert.Equal(t, model.ChannelPref{InApp: true, Email: true}, pref.EventPrefs[et])
	}

	exists, err = repo.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Second read returns the same record.
	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, pref.ID, again.ID)
}

func TestGetBackfillsMissingEventTypes(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	// A record written before custom_field_changed existed.
	stale := model.NotificationPreference{
		ID:     uuid.New().String(),
		UserID: "u1",
		EventPrefs: map[model.EventType]model.ChannelPref{
			model.EventCommentOnFollowedBoard: {InApp: false, Email: false},
			model.EventMention:                {InApp: true, Email: true},
		},
		Interval: model.BatchHourly,
	}
	require.NoError(t, db.Create(&stale).Error)

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ChannelPref{InApp: true, Email: true},
		pref.EventPrefs[model.EventCustomFieldChanged])
	// Explicit choices survive the backfill.
	assert.Equal(t, model.ChannelPref{InApp: false, Email: false},
		pref.EventPrefs[model.EventCommentOnFollowedBoard])

	// Backfill is persisted, not recomputed per read.
	var raw model.NotificationPreference
	require.NoError(t, db.Where("user_id = ?", "u1").First(&raw).Error)
	assert.Len(t, raw.EventPrefs, len(model.NotifiableEventTypes))
}

func TestSetChannelAndInterval(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetChannel(ctx, "u1", model.EventItemUploaded,
		model.ChannelPref{InApp: true, Email: false}))
	require.NoError(t, repo.SetInterval(ctx, "u1", model.BatchDaily))

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ChannelPref{InApp: true, Email: false},
		pref.EventPrefs[model.EventItemUploaded])
	assert.Equal(t, model.BatchDaily, pref.Interval)
	// Untouched types keep defaults.
	assert.Equal(t, model.ChannelPref{InApp: true, Email: true},
		pref.EventPrefs[model.EventMention])
}
