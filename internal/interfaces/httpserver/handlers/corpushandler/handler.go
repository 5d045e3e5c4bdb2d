// Package corpushandler exposes the corpus store over HTTP.
package corpushandler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/interfaces/httpserver/dto"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

type Handler struct {
	service  *corpus.Service
	importer *corpus.Importer
}

func NewHandler(service *corpus.Service, importer *corpus.Importer) *Handler {
	return &Handler{service: service, importer: importer}
}

// actingUser is the author recorded on every write.
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

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) AddIntent(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddIntent(c.Request.Context(), req.Name, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) ListIntents(c *gin.Context) {
	intents, err := h.service.ListIntents(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, intents)
}

// DeleteIntent cascades over the intent's training examples and dependent
// stories.
func (h *Handler) DeleteIntent(c *gin.Context) {
	err := h.service.DeleteIntentWithDependencies(c.Request.Context(), c.Param("name"), c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

type exampleRequest struct {
	Intent   string             `json:"intent" binding:"required"`
	Text     string             `json:"text" binding:"required"`
	Entities []corpus.EntityRef `json:"entities"`
}

func (h *Handler) AddTrainingExample(c *gin.Context) {
	var req exampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddTrainingExample(c.Request.Context(), req.Intent, req.Text, req.Entities, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) EditTrainingExample(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req exampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	if err := h.service.EditTrainingExample(c.Request.Context(), id, req.Intent, req.Text, req.Entities, c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) ListTrainingExamples(c *gin.Context) {
	ctx := c.Request.Context()
	bot := c.Param("bot")
	if query := c.Query("search"); query != "" {
		examples, err := h.service.SearchTrainingExamples(ctx, query, bot)
		if err != nil {
			dto.Error(c, err)
			return
		}
		dto.OK(c, examples)
		return
	}
	examples, err := h.service.ListTrainingExamples(ctx, bot)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, examples)
}

type synonymRequest struct {
	Value   string `json:"value" binding:"required"`
	Synonym string `json:"synonym" binding:"required"`
}

func (h *Handler) AddEntitySynonym(c *gin.Context) {
	var req synonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddEntitySynonym(c.Request.Context(), req.Value, req.Synonym, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) ListEntitySynonyms(c *gin.Context) {
	synonyms, err := h.service.ListEntitySynonyms(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, synonyms)
}

type lookupRequest struct {
	Name   string   `json:"name" binding:"required"`
	Values []string `json:"values" binding:"required"`
}

func (h *Handler) AddLookupTable(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	ids, err := h.service.AddLookupTable(c.Request.Context(), req.Name, req.Values, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"ids": ids})
}

func (h *Handler) ListLookupTables(c *gin.Context) {
	tables, err := h.service.ListLookupTables(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, tables)
}

type regexRequest struct {
	Name    string `json:"name" binding:"required"`
	Pattern string `json:"pattern" binding:"required"`
}

func (h *Handler) AddRegexFeature(c *gin.Context) {
	var req regexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddRegexFeature(c.Request.Context(), req.Name, req.Pattern, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) ListRegexFeatures(c *gin.Context) {
	features, err := h.service.ListRegexFeatures(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, features)
}

func (h *Handler) AddEntity(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddEntity(c.Request.Context(), req.Name, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) ListEntities(c *gin.Context) {
	entities, err := h.service.ListEntities(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, entities)
}

type slotRequest struct {
	Name            string          `json:"name" binding:"required"`
	Type            corpus.SlotType `json:"type" binding:"required"`
	InitialValue    any             `json:"initial_value"`
	ValueResetDelay *int            `json:"value_reset_delay"`
	AutoFill        *bool           `json:"auto_fill"`
	MinValue        *float64        `json:"min_value"`
	MaxValue        *float64        `json:"max_value"`
	Values          []string        `json:"values"`
}

func (r *slotRequest) toDomain() *corpus.Slot {
	autoFill := true
	if r.AutoFill != nil {
		autoFill = *r.AutoFill
	}
	return &corpus.Slot{
		Name:            r.Name,
		Type:            r.Type,
		InitialValue:    r.InitialValue,
		ValueResetDelay: r.ValueResetDelay,
		AutoFill:        autoFill,
		MinValue:        r.MinValue,
		MaxValue:        r.MaxValue,
		Values:          r.Values,
	}
}

func (h *Handler) AddSlot(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddSlot(c.Request.Context(), req.toDomain(), c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) EditSlot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	if err := h.service.EditSlot(c.Request.Context(), id, req.toDomain(), c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, slots)
}

type responseRequest struct {
	Name   string                 `json:"name" binding:"required"`
	Text   *corpus.ResponseText   `json:"text"`
	Custom *corpus.ResponseCustom `json:"custom"`
}

func (h *Handler) AddResponse(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	response := &corpus.Response{Name: req.Name, Text: req.Text, Custom: req.Custom}
	id, err := h.service.AddResponse(c.Request.Context(), response, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) EditResponse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	response := &corpus.Response{Name: req.Name, Text: req.Text, Custom: req.Custom}
	if err := h.service.EditResponse(c.Request.Context(), id, response, c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) ListResponses(c *gin.Context) {
	responses, err := h.service.ListResponses(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, responses)
}

func (h *Handler) AddAction(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddAction(c.Request.Context(), req.Name, c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) ListActions(c *gin.Context) {
	actions, err := h.service.ListActions(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, actions)
}

type storyRequest struct {
	BlockName        string              `json:"block_name" binding:"required"`
	Events           []corpus.StoryEvent `json:"events" binding:"required"`
	StartCheckpoints []string            `json:"start_checkpoints"`
	EndCheckpoints   []string            `json:"end_checkpoints"`
}

func (r *storyRequest) toDomain() *corpus.Story {
	return &corpus.Story{
		BlockName:        r.BlockName,
		Events:           r.Events,
		StartCheckpoints: r.StartCheckpoints,
		EndCheckpoints:   r.EndCheckpoints,
	}
}

func (h *Handler) AddStory(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	id, err := h.service.AddStory(c.Request.Context(), req.toDomain(), c.Param("bot"), actingUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, gin.H{"id": id})
}

func (h *Handler) EditStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err)
		return
	}
	if err := h.service.EditStory(c.Request.Context(), id, req.toDomain(), c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}

func (h *Handler) ListStories(c *gin.Context) {
	stories, err := h.service.ListStories(c.Request.Context(), c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, stories)
}

// GetUtterance resolves the reply utterance for an intent through the oldest
// story that opens with it.
func (h *Handler) GetUtterance(c *gin.Context) {
	intent := c.Query("intent")
	if intent == "" {
		dto.Error(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeValidation, "intent query parameter is required", nil))
		return
	}
	utterance, err := h.service.GetUtteranceFromIntent(c.Request.Context(), intent, c.Param("bot"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, gin.H{"utterance": utterance})
}

// Remove soft-deletes one row of any corpus collection.
func (h *Handler) Remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	kind := corpus.Kind(c.Param("kind"))
	if err := h.service.Remove(c.Request.Context(), kind, id, c.Param("bot"), actingUser(c)); err != nil {
		dto.Error(c, err)
		return
	}
	dto.OK(c, nil)
}
