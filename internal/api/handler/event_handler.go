package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/middleware"
	"github.com/cropstech/crops-backend/pkg/response"
)

type ingestEventRequest struct {
	ID         string              `json:"id"`
	Type       string              `json:"type" binding:"required"`
	BoardID    string              `json:"board_id"`
	OccurredAt *time.Time          `json:"occurred_at"`
	Payload    *model.EventPayload `json:"payload"`
}

// IngestEvent appends a domain event to the feed. Producers may pass
// their own id; redelivery with the same id is a no-op.
// @Summary Ingest a domain event
// @Tags events
// @Accept json
// @Produce json
// @Param request body ingestEventRequest true "Event"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/events [post]
func (h *Handler) IngestEvent(c *gin.Context) {
	var req ingestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in := service.IngestInput{
		ID:      req.ID,
		Type:    model.EventType(req.Type),
		BoardID: req.BoardID,
		ActorID: middleware.UserID(c),
		Payload: req.Payload,
	}
	if req.OccurredAt != nil {
		in.OccurredAt = *req.OccurredAt
	}
	id, err := h.ingest.Ingest(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"event_id": id})
}
