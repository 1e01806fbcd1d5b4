package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropstech/crops-backend/internal/model"
)

func (e *env) followedBoardIDs(t *testing.T, userID string) []string {
	t.Helper()
	follows, err := e.follows.ListFollowedBoards(context.Background(), userID)
	require.NoError(t, err)
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.BoardID
	}
	return ids
}

func TestAdminFollowsEveryBoard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedBoard(t, "root1", "ws1", nil)
	e.seedBoard(t, "root2", "ws1", nil)
	e.seedBoard(t, "sub1", "ws1", str("root1"))
	e.seedBoard(t, "other", "ws2", nil)

	created, err := e.engine.ApplyRoleAssignment(ctx, "admin", "ws1", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.ElementsMatch(t, []string{"root1", "root2", "sub1"}, e.followedBoardIDs(t, "admin"))
}

func TestEditorFollowsRootBoardsOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedBoard(t, "root1", "ws1", nil)
	e.seedBoard(t, "sub1", "ws1", str("root1"))

	created, err := e.engine.ApplyRoleAssignment(ctx, "editor", "ws1", model.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, []string{"root1"}, e.followedBoardIDs(t, "editor"))
}

func TestRoleAssignmentSkipsExplicitUnfollows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedBoard(t, "root1", "ws1", nil)
	e.seedBoard(t, "root2", "ws1", nil)
	require.NoError(t, e.follows.Unfollow(ctx, "u1", "root1"))

	created, err := e.engine.ApplyRoleAssignment(ctx, "u1", "ws1", model.RoleCommenter)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, []string{"root2"}, e.followedBoardIDs(t, "u1"))
}

func TestRoleAssignmentRejectsUnknownRole(t *testing.T) {
	e := newEnv(t)
	_, err := e.engine.ApplyRoleAssignment(context.Background(), "u1", "ws1", "OWNER")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCommentOnAssetFollowsAllItsBoards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seedUser(t, "u1")
	e.seedBoard(t, "b1", "ws1", nil)
	e.seedBoard(t, "b2", "ws1", nil)
	e.seedAssetOnBoard(t, "a1", "ws1", "someone", "b1", "b2")

	ev := newEvent(t, model.EventCommentOnFollowedBoard, "b1", "u1",
		&model.EventPayload{AssetID: "a1", CommentID: "c1"})
	created, err := e.engine.ApplyActivity(ctx, ev, &model.EventPayload{AssetID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.ElementsMatch(t, []string{"b1", "b2"}, e.followedBoardIDs(t, "u1"))

	// Re-running is a no-op.
	created, err = e.engine.ApplyActivity(ctx, ev, &model.EventPayload{AssetID: "a1"})
	require.NoError(t, err)
	assert.Zero(t, created)
}
