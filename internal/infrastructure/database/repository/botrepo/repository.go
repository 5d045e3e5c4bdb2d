package botrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/botforge/botforge/internal/domain/bot"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// Repository implements bot.Repository on postgres.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ bot.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, row *bot.Bot) error {
	schema := dbschema.NewSchemaBot(row)
	if err := r.db.WithContext(ctx).Create(schema).Error; err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	row.ID = schema.ID
	return nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*bot.Bot, error) {
	var rows []dbschema.Bot
	if err := r.db.WithContext(ctx).
		Where("name = ? AND status = true", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find bot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := rows[0].EtoD()
	return &found, nil
}

func (r *Repository) SetBilled(ctx context.Context, name string, billed bool) error {
	result := r.db.WithContext(ctx).
		Model(&dbschema.Bot{}).
		Where("name = ? AND status = true", name).
		Updates(map[string]any{
			"is_billed": billed,
			"timestamp": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("set bot billing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
