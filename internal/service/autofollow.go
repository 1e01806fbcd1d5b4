package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cropstech/crops-backend/internal/cache"
	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/pkg/logger"
)

// AutoFollowEngine computes follow-worthy (user, board) pairs from role
// assignments and activity events. Every write goes through the follow
// store's auto-source upsert, which refuses to resurrect explicitly
// unfollowed pairs, so the engine is idempotent and safe to re-run.
type AutoFollowEngine struct {
	followRepo repository.FollowRepository
	boardRepo  repository.BoardRepository
	audience   *cache.FollowerCache
}

func NewAutoFollowEngine(followRepo repository.FollowRepository, boardRepo repository.BoardRepository, audience *cache.FollowerCache) *AutoFollowEngine {
	return &AutoFollowEngine{followRepo: followRepo, boardRepo: boardRepo, audience: audience}
}

// ApplyRoleAssignment follows boards according to the workspace role:
// admins follow every board, editors and commenters follow root boards.
// Returns the number of follows created.
func (e *AutoFollowEngine) ApplyRoleAssignment(ctx context.Context, userID, workspaceID, role string) (int, error) {
	if !model.ValidRole(role) {
		return 0, validationErr("unknown role %q", role)
	}

	var boards []*model.Board
	var err error
	switch role {
	case model.RoleAdmin:
		boards, err = e.boardRepo.ListByWorkspace(ctx, workspaceID)
	default:
		boards, err = e.boardRepo.ListRootsByWorkspace(ctx, workspaceID)
	}
	if err != nil {
		return 0, err
	}

	ids := make([]string, len(boards))
	for i, b := range boards {
		ids[i] = b.ID
	}
	return e.FollowBoards(ctx, userID, ids)
}

// ApplyActivity follows the boards touched by an actor's event:
// commenting on an asset follows every board containing it, commenting
// on a board follows that board, uploading follows the destination.
func (e *AutoFollowEngine) ApplyActivity(ctx context.Context, ev *model.Event, payload *model.EventPayload) (int, error) {
	boards, err := e.activityBoards(ctx, ev, payload)
	if err != nil {
		return 0, err
	}
	if len(boards) == 0 {
		return 0, nil
	}
	return e.FollowBoards(ctx, ev.ActorID, boards)
}

func (e *AutoFollowEngine) activityBoards(ctx context.Context, ev *model.Event, payload *model.EventPayload) ([]string, error) {
	switch model.EventType(ev.Type) {
	case model.EventCommentOnFollowedBoard:
		if payload.AssetID != "" {
			return e.boardRepo.BoardIDsOfAsset(ctx, payload.AssetID)
		}
		return []string{ev.BoardID}, nil
	case model.EventItemUploaded:
		return []string{ev.BoardID}, nil
	}
	return nil, nil
}

// FollowBoards applies the per-pair rule to each candidate: skip when
// explicitly unfollowed, otherwise idempotent auto-follow. Returns the
// number of new follows.
func (e *AutoFollowEngine) FollowBoards(ctx context.Context, userID string, boardIDs []string) (int, error) {
	created := 0
	for _, boardID := range boardIDs {
		ok, err := e.followRepo.Follow(ctx, userID, boardID, model.FollowSourceAuto)
		if err != nil {
			return created, err
		}
		if ok {
			created++
			e.audience.Invalidate(ctx, boardID)
			logger.Debug("auto-followed board",
				zap.String("user", userID), zap.String("board", boardID))
		}
	}
	return created, nil
}
