package corpusrepo

import (
	"context"
	"fmt"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateStory(ctx context.Context, story *corpus.Story) error {
	row, err := dbschema.NewSchemaStory(story)
	if err != nil {
		return fmt.Errorf("encode story: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	story.ID = row.ID
	return nil
}

func (r *Repository) ListStories(ctx context.Context, bot string) ([]corpus.Story, error) {
	var rows []dbschema.Story
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	stories := make([]corpus.Story, 0, len(rows))
	for i := range rows {
		stories = append(stories, rows[i].EtoD())
	}
	return stories, nil
}

func (r *Repository) FindStory(ctx context.Context, bot, blockName string) (*corpus.Story, error) {
	var rows []dbschema.Story
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(block_name) = LOWER(?)", blockName).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find story: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	story := rows[0].EtoD()
	return &story, nil
}

func (r *Repository) UpdateStory(ctx context.Context, story *corpus.Story) error {
	row, err := dbschema.NewSchemaStory(story)
	if err != nil {
		return fmt.Errorf("encode story: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.Story{}).
		Where("id = ? AND bot = ? AND status = true", story.ID, story.Bot).
		Updates(map[string]any{
			"block_name":        row.BlockName,
			"events":            row.Events,
			"start_checkpoints": row.StartCheckpoints,
			"end_checkpoints":   row.EndCheckpoints,
			"first_intent":      row.FirstIntent,
			"user":              row.User,
			"timestamp":         row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return nil
}

// ListStoriesByFirstIntent returns live stories whose opening user event is
// the given intent, oldest first so callers can pick the earliest path.
func (r *Repository) ListStoriesByFirstIntent(ctx context.Context, bot, intent string) ([]corpus.Story, error) {
	var rows []dbschema.Story
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(first_intent) = LOWER(?)", intent).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list stories by first intent: %w", err)
	}
	stories := make([]corpus.Story, 0, len(rows))
	for i := range rows {
		stories = append(stories, rows[i].EtoD())
	}
	return stories, nil
}
