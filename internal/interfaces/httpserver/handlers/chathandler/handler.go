// Package chathandler serves conversational queries against cached agents.
package chathandler

import (
	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/agent"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type Handler struct {
	cache *agent.Cache
	locks agent.LockStore
}

func NewHandler(cache *agent.Cache, locks agent.LockStore) *Handler {
	return &Handler{cache: cache, locks: locks}
}

type chatRequest struct {
	Text           string `json:"text" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
}

// Chat routes a message through the bot's agent. Handling is serialised per
// conversation so concurrent messages cannot interleave tracker state.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	bot := c.Param("bot")

	loaded, err := h.cache.Get(ctx, bot)
	if err != nil {
		dto.Error(c, err)
		return
	}

	var messages []agent.Message
	err = h.locks.WithLock(ctx, bot, req.ConversationID, func() error {
		var handleErr error
		messages, handleErr = loaded.HandleText(ctx, req.Text, req.ConversationID)
		return handleErr
	})
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, messages)
}

type parseRequest struct {
	Text string `json:"text" binding:"required"`
}

// Parse runs intent classification without advancing any conversation.
func (h *Handler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	loaded, err := h.cache.Get(ctx, c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	result, err := loaded.Parse(ctx, req.Text)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, result)
}

// Reload forces a fresh agent load for the bot.
func (h *Handler) Reload(c *gin.Context) {
	if err := h.cache.Reload(c.Request.Context(), c.Param("bot")); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}
