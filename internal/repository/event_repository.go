package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cropstech/crops-backend/internal/model"
)

// EventRepository is the durable domain event feed. Producers append;
// dispatcher workers claim pending batches. Append is idempotent on
// the event id, which is what makes at-least-once delivery safe.
type EventRepository interface {
	Append(ctx context.Context, e *model.Event) error
	// ClaimBatch moves up to limit pending events to processing and
	// returns them, oldest first. Concurrent workers never claim the
	// same event twice.
	ClaimBatch(ctx context.Context, limit int) ([]*model.Event, error)
	MarkDone(ctx context.Context, id string) error
	// MarkInvalid parks an event permanently (validation failure).
	MarkInvalid(ctx context.Context, id, reason string) error
	// Release puts a claimed event back to pending for a later retry
	// (transient store failure).
	Release(ctx context.Context, id, reason string) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepository{db: db} }

func (r *eventRepository) Append(ctx context.Context, e *model.Event) error {
	if e.Status == "" {
		e.Status = model.EventStatusPending
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (r *eventRepository) ClaimBatch(ctx context.Context, limit int) ([]*model.Event, error) {
	var batch []*model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", model.EventStatusPending).
			Order("created_at").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			// Skip rows another worker has already locked.
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, e := range batch {
			ids[i] = e.ID
		}
		return tx.Model(&model.Event{}).
			Where("id IN ?", ids).
			Update("status", model.EventStatusProcessing).Error
	})
	return batch, err
}

func (r *eventRepository) MarkDone(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.EventStatusDone, "processed_at": now}).Error
}

func (r *eventRepository) MarkInvalid(ctx context.Context, id, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.EventStatusInvalid, "processed_at": now, "last_error": reason}).Error
}

func (r *eventRepository) Release(ctx context.Context, id, reason string) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.EventStatusPending, "last_error": reason}).Error
}
