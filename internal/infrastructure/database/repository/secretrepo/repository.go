package secretrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/botforge/botforge/internal/domain/secret"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// Repository implements secret.Repository on postgres.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ secret.Repository = (*Repository)(nil)

func (r *Repository) CreateBotSecret(ctx context.Context, row *secret.BotSecret) error {
	schema := dbschema.NewSchemaBotSecret(row)
	if err := r.db.WithContext(ctx).Create(schema).Error; err != nil {
		return fmt.Errorf("create bot secret: %w", err)
	}
	row.ID = schema.ID
	return nil
}

func (r *Repository) FindBotSecret(ctx context.Context, bot, name string) (*secret.BotSecret, error) {
	var rows []dbschema.BotSecret
	if err := r.db.WithContext(ctx).
		Where("bot = ? AND LOWER(name) = LOWER(?) AND status = true", bot, name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find bot secret: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := rows[0].EtoD()
	return &found, nil
}

func (r *Repository) CreateLLMSecret(ctx context.Context, row *secret.LLMSecret) error {
	schema := dbschema.NewSchemaLLMSecret(row)
	if err := r.db.WithContext(ctx).Create(schema).Error; err != nil {
		return fmt.Errorf("create llm secret: %w", err)
	}
	row.ID = schema.ID
	return nil
}

func (r *Repository) FindLLMSecret(ctx context.Context, bot, provider string) (*secret.LLMSecret, error) {
	var rows []dbschema.LLMSecret
	if err := r.db.WithContext(ctx).
		Where("bot = ? AND LOWER(provider) = LOWER(?) AND status = true", bot, provider).
		Order("timestamp DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find llm secret: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := rows[0].EtoD()
	return &found, nil
}
