package service

import (
	"context"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
)

// PreferenceService reads and writes per-user notification preferences.
type PreferenceService interface {
	Get(ctx context.Context, userID string) (*model.NotificationPreference, error)
	SetChannel(ctx context.Context, userID string, eventType model.EventType, pref model.ChannelPref) error
	SetInterval(ctx context.Context, userID string, interval model.BatchInterval) error
}

type preferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

func (s *preferenceService) Get(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	return s.repo.Get(ctx, userID)
}

func (s *preferenceService) SetChannel(ctx context.Context, userID string, eventType model.EventType, pref model.ChannelPref) error {
	if !eventType.Notifiable() {
		return validationErr("unknown event type %q", eventType)
	}
	return s.repo.SetChannel(ctx, userID, eventType, pref)
}

func (s *preferenceService) SetInterval(ctx context.Context, userID string, interval model.BatchInterval) error {
	if !interval.Valid() {
		return validationErr("unknown batch interval %q", interval)
	}
	return s.repo.SetInterval(ctx, userID, interval)
}
