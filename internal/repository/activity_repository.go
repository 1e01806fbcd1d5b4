package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cropstech/crops-backend/internal/model"
)

// ActivityRepository reads historical activity for the auto-follow
// backfill: who commented where, who uploaded what.
type ActivityRepository interface {
	CommentedAssetIDs(ctx context.Context, userID string) ([]string, error)
	CommentedBoardIDs(ctx context.Context, userID string) ([]string, error)
	UploadedAssetIDs(ctx context.Context, userID, workspaceID string) ([]string, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	UserEmail(ctx context.Context, userID string) (string, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CommentedAssetIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Distinct("asset_id").
		Where("author_id = ? AND asset_id IS NOT NULL", userID).
		Pluck("asset_id", &ids).Error
	return ids, err
}

func (r *activityRepository) CommentedBoardIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Distinct("board_id").
		Where("author_id = ? AND board_id IS NOT NULL", userID).
		Pluck("board_id", &ids).Error
	return ids, err
}

func (r *activityRepository) UploadedAssetIDs(ctx context.Context, userID, workspaceID string) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("created_by = ?", userID)
	if workspaceID != "" {
		q = q.Where("workspace_id = ?", workspaceID)
	}
	var ids []string
	err := q.Pluck("id", &ids).Error
	return ids, err
}

func (r *activityRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.User{}).Order("created_at").Pluck("id", &ids).Error
	return ids, err
}

func (r *activityRepository) UserEmail(ctx context.Context, userID string) (string, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return "", err
	}
	return u.Email, nil
}

func (r *activityRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
