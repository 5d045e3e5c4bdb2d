package corpus

import (
	"context"
	"sort"
	"strings"
	"time"
)

// memRepo is an in-memory Repository used by the package tests. It mirrors
// the database implementation's contract: reads see live rows only, newest
// first, with case-insensitive name matching.
type memRepo struct {
	nextID          uint
	intents         []*Intent
	examples        []*TrainingExample
	synonyms        []*EntitySynonym
	lookups         []*LookupTable
	regexes         []*RegexFeature
	entities        []*Entity
	slots           []*Slot
	responses       []*Response
	actions         []*Action
	stories         []*Story
	sessionConfigs  []*SessionConfig
	pipelineConfigs []*PipelineConfig
	endpointConfigs []*Endpoints
	softDeleteCalls int
}

func newMemRepo() *memRepo { return &memRepo{} }

func (r *memRepo) id() uint {
	r.nextID++
	return r.nextID
}

func sameName(a, b string) bool { return normalizeName(a) == normalizeName(b) }

func (r *memRepo) CreateIntent(_ context.Context, intent *Intent) error {
	intent.ID = r.id()
	r.intents = append(r.intents, intent)
	return nil
}

func (r *memRepo) ListIntents(_ context.Context, bot string) ([]Intent, error) {
	var out []Intent
	for i := len(r.intents) - 1; i >= 0; i-- {
		if r.intents[i].Bot == bot && r.intents[i].Status {
			out = append(out, *r.intents[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindIntent(_ context.Context, bot, name string) (*Intent, error) {
	for _, intent := range r.intents {
		if intent.Bot == bot && intent.Status && sameName(intent.Name, name) {
			return intent, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateTrainingExample(_ context.Context, example *TrainingExample) error {
	example.ID = r.id()
	r.examples = append(r.examples, example)
	return nil
}

func (r *memRepo) ListTrainingExamples(_ context.Context, bot string) ([]TrainingExample, error) {
	var out []TrainingExample
	for i := len(r.examples) - 1; i >= 0; i-- {
		if r.examples[i].Bot == bot && r.examples[i].Status {
			out = append(out, *r.examples[i])
		}
	}
	return out, nil
}

func (r *memRepo) ListTrainingExamplesByIntent(_ context.Context, bot, intent string) ([]TrainingExample, error) {
	var out []TrainingExample
	for i := len(r.examples) - 1; i >= 0; i-- {
		row := r.examples[i]
		if row.Bot == bot && row.Status && sameName(row.Intent, intent) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memRepo) SearchTrainingExamples(_ context.Context, bot, query string) ([]TrainingExample, error) {
	var out []TrainingExample
	for i := len(r.examples) - 1; i >= 0; i-- {
		row := r.examples[i]
		if row.Bot == bot && row.Status && strings.Contains(strings.ToLower(row.Text), strings.ToLower(query)) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateTrainingExample(_ context.Context, example *TrainingExample) error {
	for i, row := range r.examples {
		if row.ID == example.ID && row.Bot == example.Bot && row.Status {
			r.examples[i] = example
			return nil
		}
	}
	return nil
}

func (r *memRepo) FindTrainingExampleByText(_ context.Context, bot, text string) (*TrainingExample, error) {
	for _, row := range r.examples {
		if row.Bot == bot && row.Status && strings.EqualFold(strings.TrimSpace(row.Text), strings.TrimSpace(text)) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SoftDeleteTrainingExamplesByIntent(_ context.Context, bot, intent, user string) (int64, error) {
	var removed int64
	for _, row := range r.examples {
		if row.Bot == bot && row.Status && sameName(row.Intent, intent) {
			row.Status = false
			row.User = user
			removed++
		}
	}
	return removed, nil
}

func (r *memRepo) CreateEntitySynonym(_ context.Context, synonym *EntitySynonym) error {
	synonym.ID = r.id()
	r.synonyms = append(r.synonyms, synonym)
	return nil
}

func (r *memRepo) ListEntitySynonyms(_ context.Context, bot string) ([]EntitySynonym, error) {
	var out []EntitySynonym
	for i := len(r.synonyms) - 1; i >= 0; i-- {
		if r.synonyms[i].Bot == bot && r.synonyms[i].Status {
			out = append(out, *r.synonyms[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindEntitySynonym(_ context.Context, bot, value string) (*EntitySynonym, error) {
	for _, row := range r.synonyms {
		if row.Bot == bot && row.Status && sameName(row.Value, value) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateEntitySynonym(_ context.Context, synonym *EntitySynonym) error {
	for i, row := range r.synonyms {
		if row.ID == synonym.ID && row.Bot == synonym.Bot && row.Status {
			r.synonyms[i] = synonym
		}
	}
	return nil
}

func (r *memRepo) CreateLookupTable(_ context.Context, row *LookupTable) error {
	row.ID = r.id()
	r.lookups = append(r.lookups, row)
	return nil
}

func (r *memRepo) ListLookupTables(_ context.Context, bot string) ([]LookupTable, error) {
	var out []LookupTable
	for i := len(r.lookups) - 1; i >= 0; i-- {
		if r.lookups[i].Bot == bot && r.lookups[i].Status {
			out = append(out, *r.lookups[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindLookupTableValue(_ context.Context, bot, name, value string) (*LookupTable, error) {
	for _, row := range r.lookups {
		if row.Bot == bot && row.Status && sameName(row.Name, name) && sameName(row.Value, value) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateRegexFeature(_ context.Context, feature *RegexFeature) error {
	feature.ID = r.id()
	r.regexes = append(r.regexes, feature)
	return nil
}

func (r *memRepo) ListRegexFeatures(_ context.Context, bot string) ([]RegexFeature, error) {
	var out []RegexFeature
	for i := len(r.regexes) - 1; i >= 0; i-- {
		if r.regexes[i].Bot == bot && r.regexes[i].Status {
			out = append(out, *r.regexes[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindRegexFeatureByPattern(_ context.Context, bot, pattern string) (*RegexFeature, error) {
	for _, row := range r.regexes {
		if row.Bot == bot && row.Status && row.Pattern == pattern {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateRegexFeature(_ context.Context, feature *RegexFeature) error {
	for i, row := range r.regexes {
		if row.ID == feature.ID && row.Bot == feature.Bot && row.Status {
			r.regexes[i] = feature
		}
	}
	return nil
}

func (r *memRepo) CreateEntity(_ context.Context, entity *Entity) error {
	entity.ID = r.id()
	r.entities = append(r.entities, entity)
	return nil
}

func (r *memRepo) ListEntities(_ context.Context, bot string) ([]Entity, error) {
	var out []Entity
	for i := len(r.entities) - 1; i >= 0; i-- {
		if r.entities[i].Bot == bot && r.entities[i].Status {
			out = append(out, *r.entities[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindEntity(_ context.Context, bot, name string) (*Entity, error) {
	for _, row := range r.entities {
		if row.Bot == bot && row.Status && sameName(row.Name, name) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateSlot(_ context.Context, slot *Slot) error {
	slot.ID = r.id()
	r.slots = append(r.slots, slot)
	return nil
}

func (r *memRepo) ListSlots(_ context.Context, bot string) ([]Slot, error) {
	var out []Slot
	for i := len(r.slots) - 1; i >= 0; i-- {
		if r.slots[i].Bot == bot && r.slots[i].Status {
			out = append(out, *r.slots[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindSlot(_ context.Context, bot, name string) (*Slot, error) {
	for _, row := range r.slots {
		if row.Bot == bot && row.Status && sameName(row.Name, name) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateSlot(_ context.Context, slot *Slot) error {
	for i, row := range r.slots {
		if row.ID == slot.ID && row.Bot == slot.Bot && row.Status {
			r.slots[i] = slot
		}
	}
	return nil
}

func (r *memRepo) CreateResponse(_ context.Context, response *Response) error {
	response.ID = r.id()
	r.responses = append(r.responses, response)
	return nil
}

func (r *memRepo) ListResponses(_ context.Context, bot string) ([]Response, error) {
	var out []Response
	for i := len(r.responses) - 1; i >= 0; i-- {
		if r.responses[i].Bot == bot && r.responses[i].Status {
			out = append(out, *r.responses[i])
		}
	}
	return out, nil
}

func (r *memRepo) ListResponsesByName(_ context.Context, bot, name string) ([]Response, error) {
	var out []Response
	for i := len(r.responses) - 1; i >= 0; i-- {
		row := r.responses[i]
		if row.Bot == bot && row.Status && sameName(row.Name, name) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateResponse(_ context.Context, response *Response) error {
	for i, row := range r.responses {
		if row.ID == response.ID && row.Bot == response.Bot && row.Status {
			r.responses[i] = response
		}
	}
	return nil
}

func (r *memRepo) CreateAction(_ context.Context, action *Action) error {
	action.ID = r.id()
	r.actions = append(r.actions, action)
	return nil
}

func (r *memRepo) ListActions(_ context.Context, bot string) ([]Action, error) {
	var out []Action
	for i := len(r.actions) - 1; i >= 0; i-- {
		if r.actions[i].Bot == bot && r.actions[i].Status {
			out = append(out, *r.actions[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindAction(_ context.Context, bot, name string) (*Action, error) {
	for _, row := range r.actions {
		if row.Bot == bot && row.Status && sameName(row.Name, name) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateStory(_ context.Context, story *Story) error {
	story.ID = r.id()
	r.stories = append(r.stories, story)
	return nil
}

func (r *memRepo) ListStories(_ context.Context, bot string) ([]Story, error) {
	var out []Story
	for i := len(r.stories) - 1; i >= 0; i-- {
		if r.stories[i].Bot == bot && r.stories[i].Status {
			out = append(out, *r.stories[i])
		}
	}
	return out, nil
}

func (r *memRepo) FindStory(_ context.Context, bot, blockName string) (*Story, error) {
	for _, row := range r.stories {
		if row.Bot == bot && row.Status && sameName(row.BlockName, blockName) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateStory(_ context.Context, story *Story) error {
	for i, row := range r.stories {
		if row.ID == story.ID && row.Bot == story.Bot && row.Status {
			r.stories[i] = story
		}
	}
	return nil
}

func (r *memRepo) ListStoriesByFirstIntent(_ context.Context, bot, intent string) ([]Story, error) {
	var out []Story
	for _, row := range r.stories {
		if row.Bot != bot || !row.Status || len(row.Events) == 0 {
			continue
		}
		first := row.Events[0]
		if first.Type == StoryEventUser && sameName(first.Name, intent) {
			out = append(out, *row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *memRepo) SaveSessionConfig(_ context.Context, cfg *SessionConfig) error {
	for _, row := range r.sessionConfigs {
		if row.Bot == cfg.Bot && row.Status {
			cfg.ID = row.ID
			*row = *cfg
			return nil
		}
	}
	cfg.ID = r.id()
	r.sessionConfigs = append(r.sessionConfigs, cfg)
	return nil
}

func (r *memRepo) GetSessionConfig(_ context.Context, bot string) (*SessionConfig, error) {
	for _, row := range r.sessionConfigs {
		if row.Bot == bot && row.Status {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SavePipelineConfig(_ context.Context, cfg *PipelineConfig) error {
	for _, row := range r.pipelineConfigs {
		if row.Bot == cfg.Bot && row.Status {
			cfg.ID = row.ID
			*row = *cfg
			return nil
		}
	}
	cfg.ID = r.id()
	r.pipelineConfigs = append(r.pipelineConfigs, cfg)
	return nil
}

func (r *memRepo) GetPipelineConfig(_ context.Context, bot string) (*PipelineConfig, error) {
	for _, row := range r.pipelineConfigs {
		if row.Bot == bot && row.Status {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SaveEndpoints(_ context.Context, endpoints *Endpoints) error {
	for _, row := range r.endpointConfigs {
		if row.Bot == endpoints.Bot && row.Status {
			endpoints.ID = row.ID
			*row = *endpoints
			return nil
		}
	}
	endpoints.ID = r.id()
	r.endpointConfigs = append(r.endpointConfigs, endpoints)
	return nil
}

func (r *memRepo) GetEndpoints(_ context.Context, bot string) (*Endpoints, error) {
	for _, row := range r.endpointConfigs {
		if row.Bot == bot && row.Status {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SoftDelete(_ context.Context, kind Kind, id uint, bot, user string) error {
	r.softDeleteCalls++
	tombstone := func(audit *Audit) bool {
		if audit.ID == id && audit.Bot == bot && audit.Status {
			audit.Status = false
			audit.User = user
			audit.Timestamp = time.Now().UTC()
			return true
		}
		return false
	}
	switch kind {
	case KindIntent:
		for _, row := range r.intents {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindTrainingExample:
		for _, row := range r.examples {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindEntitySynonym:
		for _, row := range r.synonyms {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindLookupTable:
		for _, row := range r.lookups {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindRegexFeature:
		for _, row := range r.regexes {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindEntity:
		for _, row := range r.entities {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindSlot:
		for _, row := range r.slots {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindResponse:
		for _, row := range r.responses {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindAction:
		for _, row := range r.actions {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	case KindStory:
		for _, row := range r.stories {
			if tombstone(&row.Audit) {
				return nil
			}
		}
	}
	return notFoundErr(context.Background(), "%s row %d does not exist", kind, id)
}

func (r *memRepo) SoftDeleteAll(_ context.Context, kind Kind, bot, user string) (int64, error) {
	var removed int64
	sweep := func(audit *Audit) {
		if audit.Bot == bot && audit.Status {
			audit.Status = false
			audit.User = user
			removed++
		}
	}
	switch kind {
	case KindIntent:
		for _, row := range r.intents {
			sweep(&row.Audit)
		}
	case KindTrainingExample:
		for _, row := range r.examples {
			sweep(&row.Audit)
		}
	case KindEntitySynonym:
		for _, row := range r.synonyms {
			sweep(&row.Audit)
		}
	case KindLookupTable:
		for _, row := range r.lookups {
			sweep(&row.Audit)
		}
	case KindRegexFeature:
		for _, row := range r.regexes {
			sweep(&row.Audit)
		}
	case KindEntity:
		for _, row := range r.entities {
			sweep(&row.Audit)
		}
	case KindSlot:
		for _, row := range r.slots {
			sweep(&row.Audit)
		}
	case KindResponse:
		for _, row := range r.responses {
			sweep(&row.Audit)
		}
	case KindAction:
		for _, row := range r.actions {
			sweep(&row.Audit)
		}
	case KindStory:
		for _, row := range r.stories {
			sweep(&row.Audit)
		}
	case KindSessionConfig:
		for _, row := range r.sessionConfigs {
			sweep(&row.Audit)
		}
	case KindPipelineConfig:
		for _, row := range r.pipelineConfigs {
			sweep(&row.Audit)
		}
	case KindEndpoints:
		for _, row := range r.endpointConfigs {
			sweep(&row.Audit)
		}
	}
	return removed, nil
}
