package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cropstech/crops-backend/internal/model"
)

// FollowRepository is the follow store. Follow and Unfollow are single
// atomic operations so no pair can end up both actively followed and
// explicitly unfollowed, even under concurrent callers.
type FollowRepository interface {
	// Follow upserts an active follow. A manual follow clears any
	// explicit unfollow for the pair; an auto follow against an
	// explicit unfollow is a no-op. Reports whether a new follow row
	// was created.
	Follow(ctx context.Context, userID, boardID, source string) (bool, error)
	// Unfollow deletes the follow row (any source) and records the
	// explicit unfollow in one transaction.
	Unfollow(ctx context.Context, userID, boardID string) error
	IsFollowed(ctx context.Context, userID, boardID string) (bool, error)
	IsExplicitlyUnfollowed(ctx context.Context, userID, boardID string) (bool, error)
	// FollowersOf returns user ids with an active follow on the board.
	// Ancestor expansion is the caller's policy, not the store's.
	FollowersOf(ctx context.Context, boardID string) ([]string, error)
	ListFollowedBoards(ctx context.Context, userID string) ([]*model.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Follow(ctx context.Context, userID, boardID, source string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if source == model.FollowSourceManual {
			if err := tx.Where("user_id = ? AND board_id = ?", userID, boardID).
				Delete(&model.ExplicitUnfollow{}).Error; err != nil {
				return err
			}
		} else {
			// Auto-follow must never resurrect a deliberately left board.
			var cnt int64
			if err := tx.Model(&model.ExplicitUnfollow{}).
				Where("user_id = ? AND board_id = ?", userID, boardID).
				Count(&cnt).Error; err != nil {
				return err
			}
			if cnt > 0 {
				return nil
			}
		}
		f := &model.Follow{ID: uuid.New().String(), UserID: userID, BoardID: boardID, Source: source}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(f)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	return created, err
}

func (r *followRepository) Unfollow(ctx context.Context, userID, boardID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND board_id = ?", userID, boardID).
			Delete(&model.Follow{}).Error; err != nil {
			return err
		}
		u := &model.ExplicitUnfollow{ID: uuid.New().String(), UserID: userID, BoardID: boardID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error
	})
}

func (r *followRepository) IsFollowed(ctx context.Context, userID, boardID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND board_id = ?", userID, boardID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) IsExplicitlyUnfollowed(ctx context.Context, userID, boardID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ExplicitUnfollow{}).
		Where("user_id = ? AND board_id = ?", userID, boardID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) FollowersOf(ctx context.Context, boardID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("board_id = ?", boardID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *followRepository) ListFollowedBoards(ctx context.Context, userID string) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}
