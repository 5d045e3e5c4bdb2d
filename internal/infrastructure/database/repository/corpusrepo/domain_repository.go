package corpusrepo

import (
	"context"
	"fmt"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateSlot(ctx context.Context, slot *corpus.Slot) error {
	row, err := dbschema.NewSchemaSlot(slot)
	if err != nil {
		return fmt.Errorf("encode slot: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	slot.ID = row.ID
	return nil
}

func (r *Repository) ListSlots(ctx context.Context, bot string) ([]corpus.Slot, error) {
	var rows []dbschema.Slot
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	slots := make([]corpus.Slot, 0, len(rows))
	for i := range rows {
		slots = append(slots, rows[i].EtoD())
	}
	return slots, nil
}

func (r *Repository) FindSlot(ctx context.Context, bot, name string) (*corpus.Slot, error) {
	var rows []dbschema.Slot
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	slot := rows[0].EtoD()
	return &slot, nil
}

func (r *Repository) UpdateSlot(ctx context.Context, slot *corpus.Slot) error {
	row, err := dbschema.NewSchemaSlot(slot)
	if err != nil {
		return fmt.Errorf("encode slot: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.Slot{}).
		Where("id = ? AND bot = ? AND status = true", slot.ID, slot.Bot).
		Updates(map[string]any{
			"name":              row.Name,
			"type":              row.Type,
			"initial_value":     row.InitialValue,
			"value_reset_delay": row.ValueResetDelay,
			"auto_fill":         row.AutoFill,
			"min_value":         row.MinValue,
			"max_value":         row.MaxValue,
			"values":            row.Values,
			"user":              row.User,
			"timestamp":         row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

func (r *Repository) CreateResponse(ctx context.Context, response *corpus.Response) error {
	row, err := dbschema.NewSchemaResponse(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create response: %w", err)
	}
	response.ID = row.ID
	return nil
}

func (r *Repository) ListResponses(ctx context.Context, bot string) ([]corpus.Response, error) {
	var rows []dbschema.Response
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	responses := make([]corpus.Response, 0, len(rows))
	for i := range rows {
		responses = append(responses, rows[i].EtoD())
	}
	return responses, nil
}

func (r *Repository) ListResponsesByName(ctx context.Context, bot, name string) ([]corpus.Response, error) {
	var rows []dbschema.Response
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?)", name).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list responses by name: %w", err)
	}
	responses := make([]corpus.Response, 0, len(rows))
	for i := range rows {
		responses = append(responses, rows[i].EtoD())
	}
	return responses, nil
}

func (r *Repository) UpdateResponse(ctx context.Context, response *corpus.Response) error {
	row, err := dbschema.NewSchemaResponse(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.Response{}).
		Where("id = ? AND bot = ? AND status = true", response.ID, response.Bot).
		Updates(map[string]any{
			"name":      row.Name,
			"text":      row.Text,
			"custom":    row.Custom,
			"user":      row.User,
			"timestamp": row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	return nil
}

func (r *Repository) CreateAction(ctx context.Context, action *corpus.Action) error {
	row := dbschema.NewSchemaAction(action)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	action.ID = row.ID
	return nil
}

func (r *Repository) ListActions(ctx context.Context, bot string) ([]corpus.Action, error) {
	var rows []dbschema.Action
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	actions := make([]corpus.Action, 0, len(rows))
	for i := range rows {
		actions = append(actions, rows[i].EtoD())
	}
	return actions, nil
}

func (r *Repository) FindAction(ctx context.Context, bot, name string) (*corpus.Action, error) {
	var rows []dbschema.Action
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find action: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	action := rows[0].EtoD()
	return &action, nil
}
