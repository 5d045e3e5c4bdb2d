// Package actionhandler exposes action dispatch over HTTP.
package actionhandler

import (
	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/action"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type Handler struct {
	dispatcher *action.Dispatcher
}

func NewHandler(dispatcher *action.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

type executeRequest struct {
	SenderID     string         `json:"sender_id" binding:"required"`
	Slots        map[string]any `json:"slots"`
	LatestText   string         `json:"latest_text"`
	LatestIntent string         `json:"latest_intent"`
}

// Execute runs the named action against the supplied conversation state.
func (h *Handler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}

	tracker := &action.Tracker{
		SenderID:     req.SenderID,
		Slots:        req.Slots,
		LatestText:   req.LatestText,
		LatestIntent: req.LatestIntent,
	}
	domain := &action.Domain{Bot: c.Param("bot")}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), c.Param("name"), tracker, domain)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, result)
}
