package corpushandler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
)

type sessionConfigRequest struct {
	SessionExpirationTime int  `json:"session_expiration_time" binding:"required"`
	CarryOverSlots        bool `json:"carry_over_slots"`
}

func (h *Handler) SaveSessionConfig(c *gin.Context) {
	var req sessionConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	err := h.service.SaveSessionConfig(c.Request.Context(), req.SessionExpirationTime, req.CarryOverSlots, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) GetSessionConfig(c *gin.Context) {
	cfg, err := h.service.GetSessionConfig(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, cfg)
}

type pipelineConfigRequest struct {
	Language string           `json:"language" binding:"required"`
	Pipeline []map[string]any `json:"pipeline"`
	Policies []map[string]any `json:"policies"`
}

func (h *Handler) SavePipelineConfig(c *gin.Context) {
	var req pipelineConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	cfg := &corpus.PipelineConfig{Language: req.Language, Pipeline: req.Pipeline, Policies: req.Policies}
	if err := h.service.SavePipelineConfig(c.Request.Context(), cfg, c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) GetPipelineConfig(c *gin.Context) {
	cfg, err := h.service.GetPipelineConfig(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, cfg)
}

type endpointsRequest struct {
	BotEndpoint     string `json:"bot_endpoint"`
	ActionEndpoint  string `json:"action_endpoint"`
	TrackerEndpoint string `json:"tracker_endpoint"`
}

func (h *Handler) SaveEndpoints(c *gin.Context) {
	var req endpointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	endpoints := &corpus.Endpoints{
		BotEndpoint:     req.BotEndpoint,
		ActionEndpoint:  req.ActionEndpoint,
		TrackerEndpoint: req.TrackerEndpoint,
	}
	if err := h.service.SaveEndpoints(c.Request.Context(), endpoints, c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) GetEndpoints(c *gin.Context) {
	endpoints, err := h.service.GetEndpoints(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, endpoints)
}

type importRequest struct {
	NLU       string `json:"nlu"`
	Domain    string `json:"domain"`
	Stories   string `json:"stories"`
	Config    string `json:"config"`
	Overwrite bool   `json:"overwrite"`
}

// Import ingests a training bundle. The bundle is parsed before any write;
// a malformed file aborts the import with the corpus untouched.
func (h *Handler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	files := corpus.BundleFiles{
		NLU:     []byte(req.NLU),
		Domain:  []byte(req.Domain),
		Stories: []byte(req.Stories),
		Config:  []byte(req.Config),
	}
	if err := h.importer.Import(c.Request.Context(), files, c.Param("bot"), actingUser(c), req.Overwrite); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

// Export streams the live corpus as a zip of the four bundle files.
func (h *Handler) Export(c *gin.Context) {
	data, err := h.importer.Export(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	filename := fmt.Sprintf("%s_%s.zip", c.Param("bot"), time.Now().UTC().Format("20060102150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "application/zip", data)
}

func (h *Handler) ApplyTemplate(c *gin.Context) {
	err := h.importer.ApplyTemplate(c.Request.Context(), c.Param("name"), c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

// DeleteBot soft-deletes every corpus collection of the bot.
func (h *Handler) DeleteBot(c *gin.Context) {
	if err := h.service.DeleteBot(c.Request.Context(), c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}
