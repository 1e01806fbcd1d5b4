package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cropstech/crops-backend/internal/model"
)

// DigestRepository holds queued email notifications and per-user flush
// state. Entries claimed for a flush are deleted by id, so entries
// enqueued mid-flush always survive into the next cycle.
type DigestRepository interface {
	Enqueue(ctx context.Context, userID, notificationID string) error
	// PendingUserIDs returns users with at least one queued entry.
	PendingUserIDs(ctx context.Context) ([]string, error)
	// EntriesBefore returns a user's entries enqueued strictly before
	// the cutoff, oldest first.
	EntriesBefore(ctx context.Context, userID string, cutoff time.Time) ([]*model.DigestQueueEntry, error)
	// Consume deletes the flushed entries and stamps the user's flush
	// time in one transaction.
	Consume(ctx context.Context, userID string, entryIDs []string, flushedAt time.Time) error
	State(ctx context.Context, userID string) (*model.DigestState, error)
	RecordError(ctx context.Context, userID, msg string) error
}

type digestRepository struct {
	db *gorm.DB
}

func NewDigestRepository(db *gorm.DB) DigestRepository { return &digestRepository{db: db} }

func (r *digestRepository) Enqueue(ctx context.Context, userID, notificationID string) error {
	e := &model.DigestQueueEntry{
		ID:             uuid.New().String(),
		UserID:         userID,
		NotificationID: notificationID,
		EnqueuedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (r *digestRepository) PendingUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.DigestQueueEntry{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *digestRepository) EntriesBefore(ctx context.Context, userID string, cutoff time.Time) ([]*model.DigestQueueEntry, error) {
	var res []*model.DigestQueueEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enqueued_at < ?", userID, cutoff).
		Order("enqueued_at ASC").
		Find(&res).Error
	return res, err
}

func (r *digestRepository) Consume(ctx context.Context, userID string, entryIDs []string, flushedAt time.Time) error {
	if len(entryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", entryIDs).
			Delete(&model.DigestQueueEntry{}).Error; err != nil {
			return err
		}
		state := &model.DigestState{UserID: userID, LastFlushAt: flushedAt}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"last_flush_at": flushedAt, "last_error": ""}),
		}).Create(state).Error
	})
}

func (r *digestRepository) State(ctx context.Context, userID string) (*model.DigestState, error) {
	var s model.DigestState
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.DigestState{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *digestRepository) RecordError(ctx context.Context, userID, msg string) error {
	state := &model.DigestState{UserID: userID, LastError: msg}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_error": msg}),
	}).Create(state).Error
}
