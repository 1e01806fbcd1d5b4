package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cropstech/crops-backend/internal/model"
)

func pairState(t *testing.T, db *gorm.DB, userID, boardID string) (followed, unfollowed bool) {
	t.Helper()
	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).
		Where("user_id = ? AND board_id = ?", userID, boardID).Count(&cnt).Error)
	followed = cnt > 0
	require.NoError(t, db.Model(&model.ExplicitUnfollow{}).
		Where("user_id = ? AND board_id = ?", userID, boardID).Count(&cnt).Error)
	unfollowed = cnt > 0
	return
}

func TestFollowIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	created, err := repo.Follow(ctx, "u1", "b1", model.FollowSourceManual)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Follow(ctx, "u1", "b1", model.FollowSourceManual)
	require.NoError(t, err)
	assert.False(t, created)

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestUnfollowIsAtomicAndExclusive(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	_, err := repo.Follow(ctx, "u1", "b1", model.FollowSourceAuto)
	require.NoError(t, err)

	require.NoError(t, repo.Unfollow(ctx, "u1", "b1"))

	followed, unfollowed := pairState(t, db, "u1", "b1")
	assert.False(t, followed)
	assert.True(t, unfollowed)

	// Repeat unfollow stays consistent.
	require.NoError(t, repo.Unfollow(ctx, "u1", "b1"))
	followed, unfollowed = pairState(t, db, "u1", "b1")
	assert.False(t, followed)
	assert.True(t, unfollowed)
}

func TestManualFollowClearsExplicitUnfollow(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Unfollow(ctx, "u1", "b1"))

	created, err := repo.Follow(ctx, "u1", "b1", model.FollowSourceManual)
	require.NoError(t, err)
	assert.True(t, created)

	followed, unfollowed := pairState(t, db, "u1", "b1")
	assert.True(t, followed)
	assert.False(t, unfollowed)
}

func TestAutoFollowCannotOverrideExplicitUnfollow(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Unfollow(ctx, "u1", "b1"))

	created, err := repo.Follow(ctx, "u1", "b1", model.FollowSourceAuto)
	require.NoError(t, err)
	assert.False(t, created)

	followed, unfollowed := pairState(t, db, "u1", "b1")
	assert.False(t, followed)
	assert.True(t, unfollowed)

	isUnfollowed, err := repo.IsExplicitlyUnfollowed(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.True(t, isUnfollowed)
}

func TestFollowersOf(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := repo.Follow(ctx, u, "b1", model.FollowSourceAuto)
		require.NoError(t, err)
	}
	_, err := repo.Follow(ctx, "u4", "b2", model.FollowSourceManual)
	require.NoError(t, err)

	ids, err := repo.FollowersOf(ctx, "b1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, ids)
}

func TestListFollowedBoardsKeepsSource(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	_, err := repo.Follow(ctx, "u1", "b1", model.FollowSourceAuto)
	require.NoError(t, err)
	_, err = repo.Follow(ctx, "u1", "b2", model.FollowSourceManual)
	require.NoError(t, err)

	follows, err := repo.ListFollowedBoards(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, follows, 2)
	sources := map[string]string{}
	for _, f := range follows {
		sources[f.BoardID] = f.Source
	}
	assert.Equal(t, model.FollowSourceAuto, sources["b1"])
	assert.Equal(t, model.FollowSourceManual, sources["b2"])
}
