package training

import (
	"context"
	"errors"
	"time"
)

// ErrActiveRunExists is returned by Repository.Create when the database
// rejects a second IN_PROGRESS row for the same bot.
var ErrActiveRunExists = errors.New("an in-progress training run already exists for this bot")

// Status is the lifecycle state of a training run.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusFail       Status = "FAIL"
)

// Run records one training attempt for a bot. A run moves from IN_PROGRESS
// to exactly one terminal state on the same row.
type Run struct {
	ID        uint
	Bot       string
	User      string
	Status    Status
	StartTS   time.Time
	EndTS     *time.Time
	ModelPath string
	Exception string
}

// Repository is the persistence contract for training runs.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	// Complete moves a run to its terminal state in place.
	Complete(ctx context.Context, id uint, status Status, endTS time.Time, modelPath, exception string) error
	FindInProgress(ctx context.Context, bot string) (*Run, error)
	CountSince(ctx context.Context, bot string, since time.Time) (int64, error)
	History(ctx context.Context, bot string) ([]Run, error)
	// FailStaleRuns marks IN_PROGRESS runs older than the cutoff as failed
	// and returns how many were swept.
	FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// Trainer produces a model archive from a corpus snapshot. Implementations
// wrap the external NLU pipeline trainer.
type Trainer interface {
	Train(ctx context.Context, bot string) (modelPath string, err error)
}

// ReloadNotifier is told when a bot has a fresh artefact to serve.
type ReloadNotifier interface {
	NotifyReload(ctx context.Context, bot string)
}
