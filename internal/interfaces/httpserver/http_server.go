// Package httpserver wires the platform's HTTP API.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/config"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/actionhandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/bothandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/corpushandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/raghandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/secrethandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/traininghandler"
	middleware "github.com/botforge/botforge/internal/interfaces/httpserver/middlewares"
)

type HTTPServer struct {
	engine   *gin.Engine
	config   *config.Config
	bots     *bothandler.Handler
	corpus   *corpushandler.Handler
	training *traininghandler.Handler
	chat     *chathandler.Handler
	rag      *raghandler.Handler
	secrets  *secrethandler.Handler
	actions  *actionhandler.Handler
}

func NewHTTPServer(
	cfg *config.Config,
	logger zerolog.Logger,
	bots *bothandler.Handler,
	corpus *corpushandler.Handler,
	training *traininghandler.Handler,
	chat *chathandler.Handler,
	rag *raghandler.Handler,
	secrets *secrethandler.Handler,
	actions *actionhandler.Handler,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := &HTTPServer{
		engine:   gin.New(),
		config:   cfg,
		bots:     bots,
		corpus:   corpus,
		training: training,
		chat:     chat,
		rag:      rag,
		secrets:  secrets,
		actions:  actions,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.LoggingMiddleware(logger))

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.registerRoutes()
	return server
}

func (s *HTTPServer) registerRoutes() {
	v1 := s.engine.Group("/api/v1")

	v1.POST("/bots", s.bots.Create)

	bot := v1.Group("/bots/:bot")
	{
		bot.GET("", s.bots.Get)
		bot.PUT("/billing", s.bots.SetBilling)
		bot.DELETE("", s.corpus.DeleteBot)

		bot.POST("/intents", s.corpus.AddIntent)
		bot.GET("/intents", s.corpus.ListIntents)
		bot.DELETE("/intents/:name", s.corpus.DeleteIntent)

		bot.POST("/examples", s.corpus.AddTrainingExample)
		bot.GET("/examples", s.corpus.ListTrainingExamples)
		bot.PUT("/examples/:id", s.corpus.EditTrainingExample)

		bot.POST("/synonyms", s.corpus.AddEntitySynonym)
		bot.GET("/synonyms", s.corpus.ListEntitySynonyms)

		bot.POST("/lookups", s.corpus.AddLookupTable)
		bot.GET("/lookups", s.corpus.ListLookupTables)

		bot.POST("/regexes", s.corpus.AddRegexFeature)
		bot.GET("/regexes", s.corpus.ListRegexFeatures)

		bot.POST("/entities", s.corpus.AddEntity)
		bot.GET("/entities", s.corpus.ListEntities)

		bot.POST("/slots", s.corpus.AddSlot)
		bot.GET("/slots", s.corpus.ListSlots)
		bot.PUT("/slots/:id", s.corpus.EditSlot)

		bot.POST("/responses", s.corpus.AddResponse)
		bot.GET("/responses", s.corpus.ListResponses)
		bot.PUT("/responses/:id", s.corpus.EditResponse)

		bot.POST("/actions", s.corpus.AddAction)
		bot.GET("/actions", s.corpus.ListActions)
		bot.POST("/actions/:name/execute", s.actions.Execute)

		bot.POST("/stories", s.corpus.AddStory)
		bot.GET("/stories", s.corpus.ListStories)
		bot.PUT("/stories/:id", s.corpus.EditStory)
		bot.GET("/utterance", s.corpus.GetUtterance)

		bot.DELETE("/data/:kind/:id", s.corpus.Remove)

		bot.PUT("/session-config", s.corpus.SaveSessionConfig)
		bot.GET("/session-config", s.corpus.GetSessionConfig)
		bot.PUT("/pipeline-config", s.corpus.SavePipelineConfig)
		bot.GET("/pipeline-config", s.corpus.GetPipelineConfig)
		bot.PUT("/endpoints", s.corpus.SaveEndpoints)
		bot.GET("/endpoints", s.corpus.GetEndpoints)

		bot.POST("/import", s.corpus.Import)
		bot.GET("/export", s.corpus.Export)
		bot.POST("/templates/:name", s.corpus.ApplyTemplate)

		bot.POST("/train", s.training.Train)
		bot.GET("/train/status", s.training.Status)
		bot.GET("/train/history", s.training.History)

		bot.POST("/chat", s.chat.Chat)
		bot.POST("/parse", s.chat.Parse)
		bot.POST("/agent/reload", s.chat.Reload)

		bot.POST("/content", s.rag.AddContent)
		bot.GET("/content", s.rag.ListContent)
		bot.DELETE("/content/:id", s.rag.DeleteContent)
		bot.POST("/content/index", s.rag.Index)
		bot.POST("/predict", s.rag.Predict)

		bot.POST("/secrets", s.secrets.AddBotSecret)
		bot.GET("/secrets/:name", s.secrets.GetBotSecret)
		bot.POST("/llm-secrets", s.secrets.AddLLMSecret)
	}
}

func (s *HTTPServer) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}

// Engine exposes the router, primarily for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}
