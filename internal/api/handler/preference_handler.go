package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/middleware"
	"github.com/cropstech/crops-backend/pkg/response"
)

type eventPrefView struct {
	EventType string `json:"event_type"`
	InApp     bool   `json:"in_app"`
	Email     bool   `json:"email"`
}

type preferencesView struct {
	Events   []eventPrefView `json:"events"`
	Interval string          `json:"email_batch_interval"`
}

// GetPreferences returns the caller's full preference record, with
// every event type present (missing ones defaulted and persisted).
// @Summary Get notification preferences
// @Tags preferences
// @Produce json
// @Success 200 {object} response.Response{data=preferencesView}
// @Router /api/v1/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	userID := middleware.UserID(c)
	pref, err := h.preferences.Get(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	view := preferencesView{Interval: string(pref.Interval)}
	for _, t := range model.NotifiableEventTypes {
		ch := pref.PrefFor(t)
		view.Events = append(view.Events, eventPrefView{EventType: string(t), InApp: ch.InApp, Email: ch.Email})
	}
	response.Success(c, view)
}

type updatePreferencesRequest struct {
	Events []struct {
		EventType string `json:"event_type" binding:"required,eventtype"`
		InApp     *bool  `json:"in_app" binding:"required"`
		Email     *bool  `json:"email" binding:"required"`
	} `json:"events"`
	Interval string `json:"email_batch_interval" binding:"omitempty,oneof=immediate hourly daily"`
}

// UpdatePreferences overwrites channel switches and/or the batch
// interval.
// @Summary Update notification preferences
// @Tags preferences
// @Accept json
// @Produce json
// @Param request body updatePreferencesRequest true "Updates"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/preferences [put]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := middleware.UserID(c)
	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	for _, e := range req.Events {
		pref := model.ChannelPref{InApp: *e.InApp, Email: *e.Email}
		if err := h.preferences.SetChannel(ctx, userID, model.EventType(e.EventType), pref); err != nil {
			if errors.Is(err, service.ErrValidation) {
				response.BadRequest(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
	}
	if req.Interval != "" {
		if err := h.preferences.SetInterval(ctx, userID, model.BatchInterval(req.Interval)); err != nil {
			if errors.Is(err, service.ErrValidation) {
				response.BadRequest(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
	}
	response.Success(c, nil)
}
