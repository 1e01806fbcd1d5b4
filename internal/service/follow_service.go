package service

import (
	"context"
	"errors"

	"github.com/cropstech/crops-backend/internal/cache"
	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
)

var ErrBoardNotFound = errors.New("board not found")

// FollowService is the user-facing follow/unfollow surface. Explicit
// actions always carry manual-source semantics: a manual follow clears
// a prior explicit unfollow, a manual unfollow blocks future
// auto-follows.
type FollowService interface {
	Follow(ctx context.Context, userID, boardID string) error
	Unfollow(ctx context.Context, userID, boardID string) error
	FollowedBoards(ctx context.Context, userID string) ([]*model.Follow, error)
}

type followService struct {
	followRepo repository.FollowRepository
	boardRepo  repository.BoardRepository
	audience   *cache.FollowerCache
}

func NewFollowService(followRepo repository.FollowRepository, boardRepo repository.BoardRepository, audience *cache.FollowerCache) FollowService {
	return &followService{followRepo: followRepo, boardRepo: boardRepo, audience: audience}
}

func (s *followService) Follow(ctx context.Context, userID, boardID string) error {
	if _, err := s.boardRepo.Get(ctx, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return ErrBoardNotFound
		}
		return err
	}
	if _, err := s.followRepo.Follow(ctx, userID, boardID, model.FollowSourceManual); err != nil {
		return err
	}
	s.audience.Invalidate(ctx, boardID)
	return nil
}

func (s *followService) Unfollow(ctx context.Context, userID, boardID string) error {
	if err := s.followRepo.Unfollow(ctx, userID, boardID); err != nil {
		return err
	}
	s.audience.Invalidate(ctx, boardID)
	return nil
}

func (s *followService) FollowedBoards(ctx context.Context, userID string) ([]*model.Follow, error) {
	return s.followRepo.ListFollowedBoards(ctx, userID)
}
