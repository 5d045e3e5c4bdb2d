package corpusrepo

import (
	"context"
	"fmt"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

// The session config, pipeline config and endpoints tables hold at most one
// live row per bot; Save overwrites it in place.

func (r *Repository) SaveSessionConfig(ctx context.Context, cfg *corpus.SessionConfig) error {
	var rows []dbschema.SessionConfig
	if err := r.db.WithContext(ctx).
		Scopes(live(cfg.Bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	row := dbschema.NewSchemaSessionConfig(cfg)
	if len(rows) == 0 {
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("create session config: %w", err)
		}
		cfg.ID = row.ID
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.SessionConfig{}).
		Where("id = ?", rows[0].ID).
		Updates(map[string]any{
			"session_expiration_time": row.SessionExpirationTime,
			"carry_over_slots":        row.CarryOverSlots,
			"user":                    row.User,
			"timestamp":               row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update session config: %w", err)
	}
	cfg.ID = rows[0].ID
	return nil
}

func (r *Repository) GetSessionConfig(ctx context.Context, bot string) (*corpus.SessionConfig, error) {
	var rows []dbschema.SessionConfig
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get session config: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cfg := rows[0].EtoD()
	return &cfg, nil
}

func (r *Repository) SavePipelineConfig(ctx context.Context, cfg *corpus.PipelineConfig) error {
	var rows []dbschema.PipelineConfig
	if err := r.db.WithContext(ctx).
		Scopes(live(cfg.Bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}
	row, err := dbschema.NewSchemaPipelineConfig(cfg)
	if err != nil {
		return fmt.Errorf("encode pipeline config: %w", err)
	}
	if len(rows) == 0 {
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("create pipeline config: %w", err)
		}
		cfg.ID = row.ID
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.PipelineConfig{}).
		Where("id = ?", rows[0].ID).
		Updates(map[string]any{
			"language":  row.Language,
			"pipeline":  row.Pipeline,
			"policies":  row.Policies,
			"user":      row.User,
			"timestamp": row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update pipeline config: %w", err)
	}
	cfg.ID = rows[0].ID
	return nil
}

func (r *Repository) GetPipelineConfig(ctx context.Context, bot string) (*corpus.PipelineConfig, error) {
	var rows []dbschema.PipelineConfig
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get pipeline config: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cfg := rows[0].EtoD()
	return &cfg, nil
}

func (r *Repository) SaveEndpoints(ctx context.Context, endpoints *corpus.Endpoints) error {
	var rows []dbschema.Endpoints
	if err := r.db.WithContext(ctx).
		Scopes(live(endpoints.Bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load endpoints: %w", err)
	}
	row := dbschema.NewSchemaEndpoints(endpoints)
	if len(rows) == 0 {
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("create endpoints: %w", err)
		}
		endpoints.ID = row.ID
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.Endpoints{}).
		Where("id = ?", rows[0].ID).
		Updates(map[string]any{
			"bot_endpoint":     row.BotEndpoint,
			"action_endpoint":  row.ActionEndpoint,
			"tracker_endpoint": row.TrackerEndpoint,
			"user":             row.User,
			"timestamp":        row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update endpoints: %w", err)
	}
	endpoints.ID = rows[0].ID
	return nil
}

func (r *Repository) GetEndpoints(ctx context.Context, bot string) (*corpus.Endpoints, error) {
	var rows []dbschema.Endpoints
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get endpoints: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	endpoints := rows[0].EtoD()
	return &endpoints, nil
}
