package handler

import (
	"github.com/cropstech/crops-backend/internal/service"
)

// Handler bundles the API's service dependencies.
type Handler struct {
	follows       service.FollowService
	notifications service.NotificationService
	preferences   service.PreferenceService
	ingest        service.IngestService
}

func New(
	follows service.FollowService,
	notifications service.NotificationService,
	preferences service.PreferenceService,
	ingest service.IngestService,
) *Handler {
	return &Handler{
		follows:       follows,
		notifications: notifications,
		preferences:   preferences,
		ingest:        ingest,
	}
}
