package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/middleware"
	"github.com/cropstech/crops-backend/pkg/response"
)

// Follow subscribes the caller to a board's activity.
// @Summary Follow a board
// @Tags follows
// @Produce json
// @Param board_id path string true "Board ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/boards/{board_id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	userID := middleware.UserID(c)
	boardID := c.Param("board_id")
	if err := h.follows.Follow(c.Request.Context(), userID, boardID); err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			response.NotFound(c, "board not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow removes the caller's follow and blocks future auto-follows
// of the board.
// @Summary Unfollow a board
// @Tags follows
// @Produce json
// @Param board_id path string true "Board ID"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/boards/{board_id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	userID := middleware.UserID(c)
	boardID := c.Param("board_id")
	if err := h.follows.Unfollow(c.Request.Context(), userID, boardID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type followedBoard struct {
	BoardID   string `json:"board_id"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// FollowedBoards lists the boards the caller follows, newest first.
// @Summary List followed boards
// @Tags follows
// @Produce json
// @Success 200 {object} response.Response{data=[]followedBoard}
// @Router /api/v1/followed-boards [get]
func (h *Handler) FollowedBoards(c *gin.Context) {
	userID := middleware.UserID(c)
	follows, err := h.follows.FollowedBoards(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]followedBoard, len(follows))
	for i, f := range follows {
		out[i] = followedBoard{BoardID: f.BoardID, Source: f.Source, CreatedAt: f.CreatedAt.Format("2006-01-02T15:04:05Z07:00")}
	}
	response.Success(c, out)
}
