// Package bothandler manages bot accounts and their billing flag.
package bothandler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/bot"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

type Handler struct {
	repo bot.Repository
}

func NewHandler(repo bot.Repository) *Handler {
	return &Handler{repo: repo}
}

func actingUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "system"
}

type createBotRequest struct {
	Name     string `json:"name" binding:"required"`
	Account  string `json:"account"`
	IsBilled bool   `json:"is_billed"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	existing, err := h.repo.FindByName(ctx, req.Name)
	if err != nil {
		dto.Error(c, err)
		return
	}
	if existing != nil {
		dto.Error(c, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeConflict,
			"bot already exists: "+req.Name, nil))
		return
	}
	row := &bot.Bot{
		Name:      req.Name,
		Account:   req.Account,
		User:      actingUser(c),
		IsBilled:  req.IsBilled,
		Timestamp: time.Now().UTC(),
		Status:    true,
	}
	if err := h.repo.Create(ctx, row); err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": row.ID})
}

func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	row, err := h.repo.FindByName(ctx, c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	if row == nil {
		dto.Error(c, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound,
			"bot not found: "+c.Param("bot"), nil))
		return
	}
	dto.OK(c, row)
}

type billingRequest struct {
	IsBilled bool `json:"is_billed"`
}

// SetBilling flips the billing flag that drives agent cache eviction priority.
func (h *Handler) SetBilling(c *gin.Context) {
	var req billingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	if err := h.repo.SetBilled(c.Request.Context(), c.Param("bot"), req.IsBilled); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}
