package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/config"
	"github.com/botforge/botforge/internal/domain/action"
	"github.com/botforge/botforge/internal/domain/agent"
	"github.com/botforge/botforge/internal/domain/bot"
	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/domain/secret"
	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/infrastructure/actionremote"
	"github.com/botforge/botforge/internal/infrastructure/bundle"
	"github.com/botforge/botforge/internal/infrastructure/crontab"
	"github.com/botforge/botforge/internal/infrastructure/database"
	"github.com/botforge/botforge/internal/infrastructure/database/repository/botrepo"
	"github.com/botforge/botforge/internal/infrastructure/database/repository/contentrepo"
	"github.com/botforge/botforge/internal/infrastructure/database/repository/corpusrepo"
	"github.com/botforge/botforge/internal/infrastructure/database/repository/secretrepo"
	"github.com/botforge/botforge/internal/infrastructure/database/repository/trainingrepo"
	"github.com/botforge/botforge/internal/infrastructure/llm"
	"github.com/botforge/botforge/internal/infrastructure/lockstore"
	"github.com/botforge/botforge/internal/infrastructure/metrics"
	"github.com/botforge/botforge/internal/infrastructure/modelstore"
	"github.com/botforge/botforge/internal/infrastructure/nluagent"
	"github.com/botforge/botforge/internal/infrastructure/vectorstore"
	"github.com/botforge/botforge/internal/interfaces/httpserver"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/actionhandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/bothandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/corpushandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/raghandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/secrethandler"
	"github.com/botforge/botforge/internal/interfaces/httpserver/handlers/traininghandler"
	"github.com/botforge/botforge/internal/utils/httpclients"
)

// application owns every long lived component and runs the HTTP, metrics and
// cron loops until the context is cancelled.
type application struct {
	cfg         *config.Config
	log         zerolog.Logger
	server      *httpserver.HTTPServer
	cron        *crontab.Crontab
	locks       agent.LockStore
	redisLocks  *lockstore.RedisLockStore
	coordinator *training.Coordinator
}

func newApplication(cfg *config.Config, log zerolog.Logger) (*application, error) {
	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	corpusRepo := corpusrepo.New(db)
	trainingRepo := trainingrepo.New(db)
	contentRepo := contentrepo.New(db)
	secretRepo := secretrepo.New(db)
	botRepo := botrepo.New(db)

	corpusService := corpus.NewService(corpusRepo, log)
	importer := corpus.NewImporter(corpusService, bundle.NewCodec(), bundle.NewTemplateReader(cfg.TemplateDir))
	resolver := secret.NewResolver(secretRepo, cfg.EncryptionSecret)

	llmClient := llm.NewClient(resolver, cfg.LLMProvider, cfg.ChatModel, cfg.EmbeddingModel, log)
	vectorClient := vectorstore.NewClient(httpclients.NewClient("vectorstore"), cfg.VectorStoreURL)
	ragEngine := rag.NewEngine(contentRepo, vectorClient, llmClient, log)

	store := modelstore.NewStore(cfg.ModelDir)
	trainer := modelstore.NewTrainer(importer, store, httpclients.NewClient("trainer"), cfg.TrainerURL, log)
	loader := nluagent.NewLoader(store, corpusService, httpclients.NewClient("agent"), log)

	billing := bot.NewService(botRepo)
	cache := agent.NewCache(cfg.AgentCacheCapacity, loader, billing, log)
	coordinator := training.NewCoordinator(trainingRepo, trainer, cache, cfg.TrainingDailyLimit, log)

	var locks agent.LockStore
	var redisLocks *lockstore.RedisLockStore
	if cfg.LockStore.Enabled() {
		redisLocks, err = lockstore.New(cfg.LockStore)
		if err != nil {
			return nil, fmt.Errorf("connect lock store: %w", err)
		}
		locks = redisLocks
		log.Info().Str("addr", cfg.LockStore.Addr()).Msg("using redis lock store")
	} else {
		locks = agent.NewInProcessLockStore()
	}

	dispatcher := action.NewDispatcher(
		actionremote.NewRegistry(corpusRepo),
		map[action.Type]action.HandlerFactory{
			action.TypeHTTP: actionremote.NewWebhookFactory(corpusService, httpclients.NewClient("actionserver")),
		},
		log,
	)

	server := httpserver.NewHTTPServer(
		cfg,
		log,
		bothandler.NewHandler(botRepo),
		corpushandler.NewHandler(corpusService, importer),
		traininghandler.NewHandler(coordinator),
		chathandler.NewHandler(cache, locks),
		raghandler.NewHandler(ragEngine),
		secrethandler.NewHandler(resolver),
		actionhandler.NewHandler(dispatcher),
	)

	return &application{
		cfg:         cfg,
		log:         log,
		server:      server,
		cron:        crontab.NewCrontab(coordinator),
		locks:       locks,
		redisLocks:  redisLocks,
		coordinator: coordinator,
	}, nil
}

// Run starts the metrics endpoint and cron loop, then serves HTTP until the
// context is cancelled.
func (a *application) Run(ctx context.Context) error {
	metricsServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", a.cfg.MetricsPort),
		Handler:     metrics.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		a.log.Info().Int("port", a.cfg.MetricsPort).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		if err := a.cron.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("cron loop exited")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Int("port", a.cfg.HTTPPort).Msg("http server listening")
		errCh <- a.server.Run()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases external connections.
func (a *application) Close() {
	if a.redisLocks != nil {
		if err := a.redisLocks.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close lock store")
		}
	}
}
