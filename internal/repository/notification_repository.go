package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cropstech/crops-backend/internal/model"
)

// NotificationRepository owns notification rows. Rows are immutable
// after creation except for read_at; the system never deletes them.
type NotificationRepository interface {
	// Create inserts a notification, deduping on (user_id, event_id).
	// Reports whether a row was actually created.
	Create(ctx context.Context, n *model.Notification) (bool, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// ErrNotOwned is returned when a notification does not exist or
// belongs to a different user.
var ErrNotOwned = errors.New("notification not found for user")

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var res []*model.Notification
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *notificationRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already read, or not this user's notification.
		var cnt int64
		if err := r.db.WithContext(ctx).Model(&model.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotOwned
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
}
