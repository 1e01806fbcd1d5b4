package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cropstech/crops-backend/internal/model"
)

// PreferenceRepository is the per-user notification preference store.
// Records are created lazily with defaults; reads backfill event types
// added after the record was written and persist the backfill.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*model.NotificationPreference, error)
	Exists(ctx context.Context, userID string) (bool, error)
	SetChannel(ctx context.Context, userID string, eventType model.EventType, pref model.ChannelPref) error
	SetInterval(ctx context.Context, userID string, interval model.BatchInterval) error
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	var pref model.NotificationPreference
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = model.NotificationPreference{
				ID:         uuid.New().String(),
				UserID:     userID,
				EventPrefs: model.DefaultChannelPrefs(),
				Interval:   model.BatchImmediate,
			}
			// Concurrent lazy creates collapse onto one row.
			if cErr := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pref).Error; cErr != nil {
				return cErr
			}
			return tx.Where("user_id = ?", userID).First(&pref).Error
		}
		if err != nil {
			return err
		}
		if pref.Backfill() {
			return tx.Model(&model.NotificationPreference{}).
				Where("id = ?", pref.ID).
				Update("event_prefs", pref.EventPrefs).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.NotificationPreference{}).
		Where("user_id = ?", userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *preferenceRepository) SetChannel(ctx context.Context, userID string, eventType model.EventType, chPref model.ChannelPref) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pref, err := r.lockedGet(tx, userID)
		if err != nil {
			return err
		}
		pref.EventPrefs[eventType] = chPref
		return tx.Model(&model.NotificationPreference{}).
			Where("id = ?", pref.ID).
			Update("event_prefs", pref.EventPrefs).Error
	})
}

func (r *preferenceRepository) SetInterval(ctx context.Context, userID string, interval model.BatchInterval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pref, err := r.lockedGet(tx, userID)
		if err != nil {
			return err
		}
		return tx.Model(&model.NotificationPreference{}).
			Where("id = ?", pref.ID).
			Update("interval", interval).Error
	})
}

// lockedGet is Get's get-or-create inside an already open transaction.
func (r *preferenceRepository) lockedGet(tx *gorm.DB, userID string) (*model.NotificationPreference, error) {
	var pref model.NotificationPreference
	err := tx.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = model.NotificationPreference{
			ID:         uuid.New().String(),
			UserID:     userID,
			EventPrefs: model.DefaultChannelPrefs(),
			Interval:   model.BatchImmediate,
		}
		if cErr := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pref).Error; cErr != nil {
			return nil, cErr
		}
		if fErr := tx.Where("user_id = ?", userID).First(&pref).Error; fErr != nil {
			return nil, fErr
		}
	} else if err != nil {
		return nil, err
	}
	pref.Backfill()
	return &pref, nil
}
