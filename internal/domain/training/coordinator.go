package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/infrastructure/metrics"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Coordinator serialises model training per bot and enforces the rolling
// daily cap. One Coordinator serves all bots.
type Coordinator struct {
	repo       Repository
	trainer    Trainer
	notifier   ReloadNotifier
	dailyLimit int
	log        zerolog.Logger

	mu    sync.Mutex
	gates map[string]*sync.Mutex
}

// NewCoordinator creates a training coordinator.
func NewCoordinator(repo Repository, trainer Trainer, notifier ReloadNotifier, dailyLimit int, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		repo:       repo,
		trainer:    trainer,
		notifier:   notifier,
		dailyLimit: dailyLimit,
		log:        log,
		gates:      make(map[string]*sync.Mutex),
	}
}

// botGate returns the mutex serialising the gate-and-create window for one
// bot. Without it two concurrent requests could both pass the in-progress
// check before either writes its row.
func (c *Coordinator) botGate(bot string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate, ok := c.gates[bot]
	if !ok {
		gate = &sync.Mutex{}
		c.gates[bot] = gate
	}
	return gate
}

// IsTrainingInProgress reports whether the bot has an active run.
func (c *Coordinator) IsTrainingInProgress(ctx context.Context, bot string) (bool, error) {
	run, err := c.repo.FindInProgress(ctx, bot)
	if err != nil {
		return false, err
	}
	return run != nil, nil
}

// IsDailyLimitExceeded reports whether the bot has used up its rolling 24h
// training quota.
func (c *Coordinator) IsDailyLimitExceeded(ctx context.Context, bot string) (bool, error) {
	count, err := c.repo.CountSince(ctx, bot, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return false, err
	}
	return count >= int64(c.dailyLimit), nil
}

// StartTraining gates, records an IN_PROGRESS run, and kicks off the trainer
// in the background. It returns as soon as the run row is written; the
// background task owns the terminal-state write and the reload notification.
func (c *Coordinator) StartTraining(ctx context.Context, bot, user string) (*Run, error) {
	gate := c.botGate(bot)
	gate.Lock()
	defer gate.Unlock()

	inProgress, err := c.IsTrainingInProgress(ctx, bot)
	if err != nil {
		return nil, err
	}
	if inProgress {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeGate,
			fmt.Sprintf("previous model training for bot %s is still in progress", bot), nil)
	}
	exceeded, err := c.IsDailyLimitExceeded(ctx, bot)
	if err != nil {
		return nil, err
	}
	if exceeded {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeGate,
			fmt.Sprintf("daily model training limit of %d exceeded for bot %s", c.dailyLimit, bot), nil)
	}

	run := &Run{
		Bot:     bot,
		User:    user,
		Status:  StatusInProgress,
		StartTS: time.Now().UTC(),
	}
	if err := c.repo.Create(ctx, run); err != nil {
		// The unique index on (bot) WHERE IN_PROGRESS backstops the gate
		// across processes sharing the database.
		if errors.Is(err, ErrActiveRunExists) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeGate,
				fmt.Sprintf("previous model training for bot %s is still in progress", bot), nil)
		}
		return nil, err
	}
	metrics.TrainingsStarted.Inc()

	go c.runTraining(run)
	return run, nil
}

// runTraining executes the trainer and writes the terminal state. It runs
// detached from the request context so a client disconnect cannot abort a
// training in flight.
func (c *Coordinator) runTraining(run *Run) {
	ctx := context.Background()
	log := c.log.With().Str("bot", run.Bot).Uint("run_id", run.ID).Logger()

	modelPath, trainErr := c.trainer.Train(ctx, run.Bot)
	endTS := time.Now().UTC()

	if trainErr != nil {
		log.Error().Err(trainErr).Msg("model training failed")
		metrics.TrainingsFailed.Inc()
		if err := c.repo.Complete(ctx, run.ID, StatusFail, endTS, "", trainErr.Error()); err != nil {
			log.Error().Err(err).Msg("failed to record training failure")
		}
		return
	}

	if err := c.repo.Complete(ctx, run.ID, StatusDone, endTS, modelPath, ""); err != nil {
		log.Error().Err(err).Msg("failed to record training completion")
		return
	}
	metrics.TrainingsCompleted.Inc()
	log.Info().Str("model_path", modelPath).Dur("duration", endTS.Sub(run.StartTS)).Msg("model training completed")

	if c.notifier != nil {
		c.notifier.NotifyReload(ctx, run.Bot)
	}
}

// History returns the bot's training runs, newest first.
func (c *Coordinator) History(ctx context.Context, bot string) ([]Run, error) {
	return c.repo.History(ctx, bot)
}

// SweepStaleRuns fails IN_PROGRESS runs older than ttl. A process crash
// leaves its run orphaned; the sweep turns those into recoverable tombstones.
func (c *Coordinator) SweepStaleRuns(ctx context.Context, ttl time.Duration) (int64, error) {
	swept, err := c.repo.FailStaleRuns(ctx, time.Now().UTC().Add(-ttl), "aborted: stale run")
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		c.log.Warn().Int64("count", swept).Msg("swept stale training runs")
	}
	return swept, nil
}
