// Package raghandler exposes the retrieval-augmented generation engine.
package raghandler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type Handler struct {
	engine *rag.Engine
}

func NewHandler(engine *rag.Engine) *Handler {
	return &Handler{engine: engine}
}

func actingUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "system"
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		dto.BadRequest(c, err)
		return 0, false
	}
	return uint(id), true
}

type contentRequest struct {
	Collection  string          `json:"collection"`
	ContentType rag.ContentType `json:"content_type" binding:"required"`
	Data        map[string]any  `json:"data" binding:"required"`
	Metadata    []string        `json:"metadata"`
}

func (h *Handler) AddContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	content := &rag.VectorContent{
		Bot:         c.Param("bot"),
		User:        actingUser(c),
		Collection:  req.Collection,
		ContentType: req.ContentType,
		Data:        req.Data,
		Metadata:    req.Metadata,
	}
	if err := h.engine.AddContent(c.Request.Context(), content); err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": content.ID, "vector_id": content.VectorID})
}

func (h *Handler) ListContent(c *gin.Context) {
	contents, err := h.engine.ListContent(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, contents)
}

func (h *Handler) DeleteContent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.engine.DeleteContent(c.Request.Context(), id, c.Param("bot")); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

// Index rebuilds the bot's vector collections from stored content.
func (h *Handler) Index(c *gin.Context) {
	count, err := h.engine.Train(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, gin.H{"indexed": count})
}

type predictRequest struct {
	Query   string             `json:"query" binding:"required"`
	Options rag.PredictOptions `json:"options"`
}

// Predict answers a query through the full RAG path: response cache, context
// retrieval, completion, then cache write-back.
func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	result, err := h.engine.Predict(c.Request.Context(), req.Query, c.Param("bot"), req.Options)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, result)
}
