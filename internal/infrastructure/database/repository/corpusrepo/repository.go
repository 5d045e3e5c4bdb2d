package corpusrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// Repository implements corpus.Repository on postgres. Reads filter on the
// live-row status flag and order by descending timestamp; deletes flip the
// flag and stamp the acting user.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ corpus.Repository = (*Repository)(nil)

func kindModel(kind corpus.Kind) (any, error) {
	switch kind {
	case corpus.KindIntent:
		return &dbschema.Intent{}, nil
	case corpus.KindTrainingExample:
		return &dbschema.TrainingExample{}, nil
	case corpus.KindEntitySynonym:
		return &dbschema.EntitySynonym{}, nil
	case corpus.KindLookupTable:
		return &dbschema.LookupTable{}, nil
	case corpus.KindRegexFeature:
		return &dbschema.RegexFeature{}, nil
	case corpus.KindEntity:
		return &dbschema.Entity{}, nil
	case corpus.KindSlot:
		return &dbschema.Slot{}, nil
	case corpus.KindResponse:
		return &dbschema.Response{}, nil
	case corpus.KindAction:
		return &dbschema.Action{}, nil
	case corpus.KindStory:
		return &dbschema.Story{}, nil
	case corpus.KindSessionConfig:
		return &dbschema.SessionConfig{}, nil
	case corpus.KindPipelineConfig:
		return &dbschema.PipelineConfig{}, nil
	case corpus.KindEndpoints:
		return &dbschema.Endpoints{}, nil
	default:
		return nil, fmt.Errorf("unknown corpus kind %q", kind)
	}
}

func (r *Repository) SoftDelete(ctx context.Context, kind corpus.Kind, id uint, bot, user string) error {
	model, err := kindModel(kind)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND bot = ? AND status = true", id, bot).
		Updates(map[string]any{
			"status":    false,
			"user":      user,
			"timestamp": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("soft delete %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteAll(ctx context.Context, kind corpus.Kind, bot, user string) (int64, error) {
	model, err := kindModel(kind)
	if err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).
		Model(model).
		Where("bot = ? AND status = true", bot).
		Updates(map[string]any{
			"status":    false,
			"user":      user,
			"timestamp": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("soft delete all %s: %w", kind, result.Error)
	}
	return result.RowsAffected, nil
}

// live scopes a query to undeleted rows of one bot.
func live(bot string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("bot = ? AND status = true", bot)
	}
}
