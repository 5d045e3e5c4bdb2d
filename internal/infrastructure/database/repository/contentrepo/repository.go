package contentrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// Repository implements rag.ContentRepository on postgres. Vector content is
// hard-deleted; the vector store holds the derived embeddings.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ rag.ContentRepository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, content *rag.VectorContent) error {
	row, err := dbschema.NewSchemaVectorContent(content)
	if err != nil {
		return fmt.Errorf("encode vector content: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create vector content: %w", err)
	}
	content.ID = row.ID
	return nil
}

func (r *Repository) ListByBot(ctx context.Context, bot string) ([]rag.VectorContent, error) {
	var rows []dbschema.VectorContent
	if err := r.db.WithContext(ctx).
		Where("bot = ?", bot).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list vector content: %w", err)
	}
	contents := make([]rag.VectorContent, 0, len(rows))
	for i := range rows {
		contents = append(contents, rows[i].EtoD())
	}
	return contents, nil
}

func (r *Repository) Delete(ctx context.Context, id uint, bot string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND bot = ?", id, bot).
		Delete(&dbschema.VectorContent{})
	if result.Error != nil {
		return fmt.Errorf("delete vector content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
