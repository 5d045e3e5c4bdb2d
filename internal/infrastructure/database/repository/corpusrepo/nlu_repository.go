package corpusrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateIntent(ctx context.Context, intent *corpus.Intent) error {
	row := dbschema.NewSchemaIntent(intent)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create intent: %w", err)
	}
	intent.ID = row.ID
	return nil
}

func (r *Repository) ListIntents(ctx context.Context, bot string) ([]corpus.Intent, error) {
	var rows []dbschema.Intent
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	intents := make([]corpus.Intent, 0, len(rows))
	for i := range rows {
		intents = append(intents, rows[i].EtoD())
	}
	return intents, nil
}

func (r *Repository) FindIntent(ctx context.Context, bot, name string) (*corpus.Intent, error) {
	var rows []dbschema.Intent
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find intent: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	intent := rows[0].EtoD()
	return &intent, nil
}

func (r *Repository) CreateTrainingExample(ctx context.Context, example *corpus.TrainingExample) error {
	row, err := dbschema.NewSchemaTrainingExample(example)
	if err != nil {
		return fmt.Errorf("encode training example: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create training example: %w", err)
	}
	example.ID = row.ID
	return nil
}

func (r *Repository) ListTrainingExamples(ctx context.Context, bot string) ([]corpus.TrainingExample, error) {
	var rows []dbschema.TrainingExample
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list training examples: %w", err)
	}
	examples := make([]corpus.TrainingExample, 0, len(rows))
	for i := range rows {
		examples = append(examples, rows[i].EtoD())
	}
	return examples, nil
}

func (r *Repository) ListTrainingExamplesByIntent(ctx context.Context, bot, intent string) ([]corpus.TrainingExample, error) {
	var rows []dbschema.TrainingExample
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(intent) = LOWER(?)", intent).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list training examples by intent: %w", err)
	}
	examples := make([]corpus.TrainingExample, 0, len(rows))
	for i := range rows {
		examples = append(examples, rows[i].EtoD())
	}
	return examples, nil
}

func (r *Repository) SearchTrainingExamples(ctx context.Context, bot, query string) ([]corpus.TrainingExample, error) {
	var rows []dbschema.TrainingExample
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("text ILIKE ?", "%"+query+"%").
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("search training examples: %w", err)
	}
	examples := make([]corpus.TrainingExample, 0, len(rows))
	for i := range rows {
		examples = append(examples, rows[i].EtoD())
	}
	return examples, nil
}

func (r *Repository) UpdateTrainingExample(ctx context.Context, example *corpus.TrainingExample) error {
	row, err := dbschema.NewSchemaTrainingExample(example)
	if err != nil {
		return fmt.Errorf("encode training example: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&dbschema.TrainingExample{}).
		Where("id = ? AND bot = ? AND status = true", example.ID, example.Bot).
		Updates(map[string]any{
			"intent":    row.Intent,
			"text":      row.Text,
			"entities":  row.Entities,
			"user":      row.User,
			"timestamp": row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update training example: %w", err)
	}
	return nil
}

func (r *Repository) FindTrainingExampleByText(ctx context.Context, bot, text string) (*corpus.TrainingExample, error) {
	var rows []dbschema.TrainingExample
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(text) = LOWER(?)", text).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find training example: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	example := rows[0].EtoD()
	return &example, nil
}

func (r *Repository) SoftDeleteTrainingExamplesByIntent(ctx context.Context, bot, intent, user string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&dbschema.TrainingExample{}).
		Where("bot = ? AND status = true AND LOWER(intent) = LOWER(?)", bot, intent).
		Updates(map[string]any{
			"status":    false,
			"user":      user,
			"timestamp": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("soft delete training examples by intent: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) CreateEntitySynonym(ctx context.Context, synonym *corpus.EntitySynonym) error {
	row := dbschema.NewSchemaEntitySynonym(synonym)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create entity synonym: %w", err)
	}
	synonym.ID = row.ID
	return nil
}

func (r *Repository) ListEntitySynonyms(ctx context.Context, bot string) ([]corpus.EntitySynonym, error) {
	var rows []dbschema.EntitySynonym
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entity synonyms: %w", err)
	}
	synonyms := make([]corpus.EntitySynonym, 0, len(rows))
	for i := range rows {
		synonyms = append(synonyms, rows[i].EtoD())
	}
	return synonyms, nil
}

func (r *Repository) FindEntitySynonym(ctx context.Context, bot, value string) (*corpus.EntitySynonym, error) {
	var rows []dbschema.EntitySynonym
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(value) = LOWER(?)", value).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find entity synonym: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	synonym := rows[0].EtoD()
	return &synonym, nil
}

func (r *Repository) UpdateEntitySynonym(ctx context.Context, synonym *corpus.EntitySynonym) error {
	row := dbschema.NewSchemaEntitySynonym(synonym)
	if err := r.db.WithContext(ctx).
		Model(&dbschema.EntitySynonym{}).
		Where("id = ? AND bot = ? AND status = true", synonym.ID, synonym.Bot).
		Updates(map[string]any{
			"value":     row.Value,
			"synonym":   row.Synonym,
			"user":      row.User,
			"timestamp": row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update entity synonym: %w", err)
	}
	return nil
}

func (r *Repository) CreateLookupTable(ctx context.Context, table *corpus.LookupTable) error {
	row := dbschema.NewSchemaLookupTable(table)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create lookup table: %w", err)
	}
	table.ID = row.ID
	return nil
}

func (r *Repository) ListLookupTables(ctx context.Context, bot string) ([]corpus.LookupTable, error) {
	var rows []dbschema.LookupTable
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list lookup tables: %w", err)
	}
	tables := make([]corpus.LookupTable, 0, len(rows))
	for i := range rows {
		tables = append(tables, rows[i].EtoD())
	}
	return tables, nil
}

func (r *Repository) FindLookupTableValue(ctx context.Context, bot, name, value string) (*corpus.LookupTable, error) {
	var rows []dbschema.LookupTable
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?) AND LOWER(value) = LOWER(?)", name, value).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find lookup table value: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	table := rows[0].EtoD()
	return &table, nil
}

func (r *Repository) CreateRegexFeature(ctx context.Context, feature *corpus.RegexFeature) error {
	row := dbschema.NewSchemaRegexFeature(feature)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create regex feature: %w", err)
	}
	feature.ID = row.ID
	return nil
}

func (r *Repository) ListRegexFeatures(ctx context.Context, bot string) ([]corpus.RegexFeature, error) {
	var rows []dbschema.RegexFeature
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list regex features: %w", err)
	}
	features := make([]corpus.RegexFeature, 0, len(rows))
	for i := range rows {
		features = append(features, rows[i].EtoD())
	}
	return features, nil
}

func (r *Repository) FindRegexFeatureByPattern(ctx context.Context, bot, pattern string) (*corpus.RegexFeature, error) {
	var rows []dbschema.RegexFeature
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("pattern = ?", pattern).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find regex feature: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	feature := rows[0].EtoD()
	return &feature, nil
}

func (r *Repository) UpdateRegexFeature(ctx context.Context, feature *corpus.RegexFeature) error {
	row := dbschema.NewSchemaRegexFeature(feature)
	if err := r.db.WithContext(ctx).
		Model(&dbschema.RegexFeature{}).
		Where("id = ? AND bot = ? AND status = true", feature.ID, feature.Bot).
		Updates(map[string]any{
			"name":      row.Name,
			"pattern":   row.Pattern,
			"user":      row.User,
			"timestamp": row.Timestamp,
		}).Error; err != nil {
		return fmt.Errorf("update regex feature: %w", err)
	}
	return nil
}

func (r *Repository) CreateEntity(ctx context.Context, entity *corpus.Entity) error {
	row := dbschema.NewSchemaEntity(entity)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	entity.ID = row.ID
	return nil
}

func (r *Repository) ListEntities(ctx context.Context, bot string) ([]corpus.Entity, error) {
	var rows []dbschema.Entity
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	entities := make([]corpus.Entity, 0, len(rows))
	for i := range rows {
		entities = append(entities, rows[i].EtoD())
	}
	return entities, nil
}

func (r *Repository) FindEntity(ctx context.Context, bot, name string) (*corpus.Entity, error) {
	var rows []dbschema.Entity
	if err := r.db.WithContext(ctx).
		Scopes(live(bot)).
		Where("LOWER(name) = LOWER(?)", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	entity := rows[0].EtoD()
	return &entity, nil
}
