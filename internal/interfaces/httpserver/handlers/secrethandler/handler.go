// Package secrethandler exposes the secret resolver over HTTP. Values are
// returned decrypted only on explicit read; listings never include them.
package secrethandler

import (
	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/secret"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type Handler struct {
	resolver *secret.Resolver
}

func NewHandler(resolver *secret.Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func actingUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "system"
}

type botSecretRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

func (h *Handler) AddBotSecret(c *gin.Context) {
	var req botSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.resolver.AddBotSecret(c.Request.Context(), c.Param("bot"), actingUser(c), req.Name, req.Value)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) GetBotSecret(c *gin.Context) {
	raiseErr := c.Query("raise_err") != "false"
	value, err := h.resolver.GetBotSecret(c.Request.Context(), c.Param("bot"), c.Param("name"), raiseErr)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, gin.H{"value": value})
}

type llmSecretRequest struct {
	Provider   string `json:"provider" binding:"required"`
	APIKey     string `json:"api_key" binding:"required"`
	Token      string `json:"token"`
	APIBaseURL string `json:"api_base_url"`
	APIVersion string `json:"api_version"`
	Global     bool   `json:"global"`
}

// AddLLMSecret stores provider credentials. With global set the row becomes
// the fallback for every bot without its own credentials.
func (h *Handler) AddLLMSecret(c *gin.Context) {
	var req llmSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	bot := c.Param("bot")
	if req.Global {
		bot = ""
	}
	id, err := h.resolver.AddLLMSecret(c.Request.Context(), bot, req.Provider, req.APIKey, req.Token, req.APIBaseURL, req.APIVersion)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}
