// Package traininghandler exposes the training coordinator over HTTP.
package traininghandler

import (
	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type Handler struct {
	coordinator *training.Coordinator
}

func NewHandler(coordinator *training.Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

func actingUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "system"
}

// Train starts a training run for the bot. The gates reject a second
// concurrent run and runs beyond the daily cap.
func (h *Handler) Train(c *gin.Context) {
	run, err := h.coordinator.StartTraining(c.Request.Context(), c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"run_id": run.ID, "status": run.Status})
}

func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	bot := c.Param("bot")
	inProgress, err := h.coordinator.IsTrainingInProgress(ctx, bot)
	if err != nil {
		dto.Error(c, err)
		return
	}
	limitExceeded, err := h.coordinator.IsDailyLimitExceeded(ctx, bot)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, gin.H{
		"in_progress":          inProgress,
		"daily_limit_exceeded": limitExceeded,
	})
}

func (h *Handler) History(c *gin.Context) {
	runs, err := h.coordinator.History(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, runs)
}
