package trainingrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// Repository implements training.Repository on postgres.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ training.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, run *training.Run) error {
	row := dbschema.NewSchemaTrainingRun(run)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return training.ErrActiveRunExists
		}
		return fmt.Errorf("create training run: %w", err)
	}
	run.ID = row.ID
	return nil
}

func (r *Repository) Complete(ctx context.Context, id uint, status training.Status, endTS time.Time, modelPath, exception string) error {
	result := r.db.WithContext(ctx).
		Model(&dbschema.TrainingRun{}).
		Where("id = ? AND status = ?", id, training.StatusInProgress).
		Updates(map[string]any{
			"status":     string(status),
			"end_ts":     endTS,
			"model_path": modelPath,
			"exception":  exception,
		})
	if result.Error != nil {
		return fmt.Errorf("complete training run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("training run %d is not in progress", id)
	}
	return nil
}

func (r *Repository) FindInProgress(ctx context.Context, bot string) (*training.Run, error) {
	var rows []dbschema.TrainingRun
	if err := r.db.WithContext(ctx).
		Where("bot = ? AND status = ?", bot, training.StatusInProgress).
		Order("start_ts DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find in-progress run: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	run := rows[0].EtoD()
	return &run, nil
}

func (r *Repository) CountSince(ctx context.Context, bot string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&dbschema.TrainingRun{}).
		Where("bot = ? AND start_ts >= ?", bot, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count training runs: %w", err)
	}
	return count, nil
}

func (r *Repository) History(ctx context.Context, bot string) ([]training.Run, error) {
	var rows []dbschema.TrainingRun
	if err := r.db.WithContext(ctx).
		Where("bot = ?", bot).
		Order("start_ts DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list training runs: %w", err)
	}
	runs := make([]training.Run, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].EtoD())
	}
	return runs, nil
}

func (r *Repository) FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&dbschema.TrainingRun{}).
		Where("status = ? AND start_ts < ?", training.StatusInProgress, cutoff).
		Updates(map[string]any{
			"status":    string(training.StatusFail),
			"end_ts":    time.Now().UTC(),
			"exception": reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("fail stale runs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
