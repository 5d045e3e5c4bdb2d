package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Service implements the corpus store operations on top of Repository.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService creates a corpus service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func newAudit(bot, user string) Audit {
	return Audit{Bot: bot, User: user, Timestamp: time.Now().UTC(), Status: true}
}

func conflictErr(ctx context.Context, format string, args ...any) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
		fmt.Sprintf(format, args...), nil)
}

func notFoundErr(ctx context.Context, format string, args ...any) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf(format, args...), nil)
}

// AddIntent creates a new intent; name is unique per bot, case-insensitively.
func (s *Service) AddIntent(ctx context.Context, name, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "intent name", name); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	existing, err := s.repo.FindIntent(ctx, bot, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "intent %q already exists", name)
	}
	intent := &Intent{Audit: newAudit(bot, user), Name: name}
	if err := s.repo.CreateIntent(ctx, intent); err != nil {
		return 0, err
	}
	return intent.ID, nil
}

// ListIntents returns live intents, newest first.
func (s *Service) ListIntents(ctx context.Context, bot string) ([]Intent, error) {
	return s.repo.ListIntents(ctx, bot)
}

// ensureIntent creates the intent when it does not already exist.
func (s *Service) ensureIntent(ctx context.Context, name, bot, user string) error {
	existing, err := s.repo.FindIntent(ctx, bot, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.repo.CreateIntent(ctx, &Intent{Audit: newAudit(bot, user), Name: strings.TrimSpace(name)})
}

// ensureEntity creates the entity and its backing text slot when absent.
// Both upserts are idempotent.
func (s *Service) ensureEntity(ctx context.Context, name, bot, user string) error {
	name = strings.TrimSpace(name)
	existing, err := s.repo.FindEntity(ctx, bot, name)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.repo.CreateEntity(ctx, &Entity{Audit: newAudit(bot, user), Name: name}); err != nil {
			return err
		}
	}
	slot, err := s.repo.FindSlot(ctx, bot, name)
	if err != nil {
		return err
	}
	if slot == nil {
		return s.repo.CreateSlot(ctx, &Slot{
			Audit:    newAudit(bot, user),
			Name:     name,
			Type:     SlotTypeText,
			AutoFill: true,
		})
	}
	return nil
}

// ensureAction creates the action when it does not already exist.
func (s *Service) ensureAction(ctx context.Context, name, bot, user string) error {
	name = strings.TrimSpace(name)
	existing, err := s.repo.FindAction(ctx, bot, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.repo.CreateAction(ctx, &Action{Audit: newAudit(bot, user), Name: name})
}

// AddTrainingExample stores a labelled utterance under an intent. The intent
// is created when missing; annotated entities are validated against the text
// and registered (entity plus text slot) on first use.
func (s *Service) AddTrainingExample(ctx context.Context, intent, text string, entities []EntityRef, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "intent name", intent); err != nil {
		return 0, err
	}
	if err := requireNonBlank(ctx, "example text", text); err != nil {
		return 0, err
	}
	if err := validateEntityRefs(ctx, text, entities); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindTrainingExampleByText(ctx, bot, text)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "training example %q already exists", text)
	}
	if err := s.ensureIntent(ctx, intent, bot, user); err != nil {
		return 0, err
	}
	for _, ref := range entities {
		if err := s.ensureEntity(ctx, ref.Entity, bot, user); err != nil {
			return 0, err
		}
	}
	example := &TrainingExample{
		Audit:    newAudit(bot, user),
		Intent:   strings.TrimSpace(intent),
		Text:     strings.TrimSpace(text),
		Entities: entities,
	}
	if err := s.repo.CreateTrainingExample(ctx, example); err != nil {
		return 0, err
	}
	return example.ID, nil
}

// EditTrainingExample mutates an example in place, preserving its id.
func (s *Service) EditTrainingExample(ctx context.Context, id uint, intent, text string, entities []EntityRef, bot, user string) error {
	if err := requireNonBlank(ctx, "example text", text); err != nil {
		return err
	}
	if err := validateEntityRefs(ctx, text, entities); err != nil {
		return err
	}
	for _, ref := range entities {
		if err := s.ensureEntity(ctx, ref.Entity, bot, user); err != nil {
			return err
		}
	}
	example := &TrainingExample{
		Audit:    Audit{ID: id, Bot: bot, User: user, Timestamp: time.Now().UTC(), Status: true},
		Intent:   strings.TrimSpace(intent),
		Text:     strings.TrimSpace(text),
		Entities: entities,
	}
	return s.repo.UpdateTrainingExample(ctx, example)
}

// ListTrainingExamples returns live examples, newest first.
func (s *Service) ListTrainingExamples(ctx context.Context, bot string) ([]TrainingExample, error) {
	return s.repo.ListTrainingExamples(ctx, bot)
}

// SearchTrainingExamples runs a full-text match against live example text.
func (s *Service) SearchTrainingExamples(ctx context.Context, query, bot string) ([]TrainingExample, error) {
	if err := requireNonBlank(ctx, "search query", query); err != nil {
		return nil, err
	}
	return s.repo.SearchTrainingExamples(ctx, bot, strings.TrimSpace(query))
}

// AddEntitySynonym maps a canonical value to a surface form; (bot, value) is unique.
func (s *Service) AddEntitySynonym(ctx context.Context, value, synonym, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "synonym value", value); err != nil {
		return 0, err
	}
	if err := requireNonBlank(ctx, "synonym", synonym); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindEntitySynonym(ctx, bot, value)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "synonym for value %q already exists", value)
	}
	row := &EntitySynonym{Audit: newAudit(bot, user), Value: strings.TrimSpace(value), Synonym: strings.TrimSpace(synonym)}
	if err := s.repo.CreateEntitySynonym(ctx, row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// ListEntitySynonyms returns live synonyms, newest first.
func (s *Service) ListEntitySynonyms(ctx context.Context, bot string) ([]EntitySynonym, error) {
	return s.repo.ListEntitySynonyms(ctx, bot)
}

// AddLookupTable appends values to a named lookup list, one row per element.
// Values already present in the list are rejected.
func (s *Service) AddLookupTable(ctx context.Context, name string, values []string, bot, user string) ([]uint, error) {
	if err := requireNonBlank(ctx, "lookup table name", name); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"lookup table requires at least one value", nil)
	}
	ids := make([]uint, 0, len(values))
	for _, value := range values {
		if err := requireNonBlank(ctx, "lookup value", value); err != nil {
			return nil, err
		}
		existing, err := s.repo.FindLookupTableValue(ctx, bot, name, value)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, conflictErr(ctx, "lookup value %q already exists in %q", value, name)
		}
		row := &LookupTable{Audit: newAudit(bot, user), Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
		if err := s.repo.CreateLookupTable(ctx, row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// ListLookupTables returns live lookup rows, newest first.
func (s *Service) ListLookupTables(ctx context.Context, bot string) ([]LookupTable, error) {
	return s.repo.ListLookupTables(ctx, bot)
}

// AddRegexFeature stores a named pattern; the pattern must compile.
func (s *Service) AddRegexFeature(ctx context.Context, name, pattern, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "regex name", name); err != nil {
		return 0, err
	}
	if err := requireNonBlank(ctx, "regex pattern", pattern); err != nil {
		return 0, err
	}
	if err := validateRegexPattern(ctx, pattern); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindRegexFeatureByPattern(ctx, bot, pattern)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "regex pattern %q already exists", pattern)
	}
	feature := &RegexFeature{Audit: newAudit(bot, user), Name: strings.TrimSpace(name), Pattern: pattern}
	if err := s.repo.CreateRegexFeature(ctx, feature); err != nil {
		return 0, err
	}
	return feature.ID, nil
}

// ListRegexFeatures returns live regex features, newest first.
func (s *Service) ListRegexFeatures(ctx context.Context, bot string) ([]RegexFeature, error) {
	return s.repo.ListRegexFeatures(ctx, bot)
}

// AddEntity registers an extractable entity; a text slot of the same name is
// created when absent.
func (s *Service) AddEntity(ctx context.Context, name, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "entity name", name); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindEntity(ctx, bot, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "entity %q already exists", name)
	}
	if err := s.ensureEntity(ctx, name, bot, user); err != nil {
		return 0, err
	}
	created, err := s.repo.FindEntity(ctx, bot, name)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// ListEntities returns live entities, newest first.
func (s *Service) ListEntities(ctx context.Context, bot string) ([]Entity, error) {
	return s.repo.ListEntities(ctx, bot)
}

// AddSlot creates a typed conversation variable.
func (s *Service) AddSlot(ctx context.Context, slot *Slot, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "slot name", slot.Name); err != nil {
		return 0, err
	}
	if err := validateSlot(ctx, slot); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindSlot(ctx, bot, slot.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "slot %q already exists", slot.Name)
	}
	slot.Audit = newAudit(bot, user)
	slot.Name = strings.TrimSpace(slot.Name)
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return 0, err
	}
	return slot.ID, nil
}

// EditSlot mutates a slot in place, preserving its id.
func (s *Service) EditSlot(ctx context.Context, id uint, slot *Slot, bot, user string) error {
	if err := validateSlot(ctx, slot); err != nil {
		return err
	}
	slot.Audit = Audit{ID: id, Bot: bot, User: user, Timestamp: time.Now().UTC(), Status: true}
	return s.repo.UpdateSlot(ctx, slot)
}

// ListSlots returns live slots, newest first.
func (s *Service) ListSlots(ctx context.Context, bot string) ([]Slot, error) {
	return s.repo.ListSlots(ctx, bot)
}

// AddResponse stores a named utterance; an action of the same name is created
// when absent so stories can reference it.
func (s *Service) AddResponse(ctx context.Context, response *Response, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "response name", response.Name); err != nil {
		return 0, err
	}
	if err := validateResponse(ctx, response); err != nil {
		return 0, err
	}
	response.Audit = newAudit(bot, user)
	response.Name = strings.TrimSpace(response.Name)
	if err := s.repo.CreateResponse(ctx, response); err != nil {
		return 0, err
	}
	if err := s.ensureAction(ctx, response.Name, bot, user); err != nil {
		return 0, err
	}
	return response.ID, nil
}

// EditResponse mutates a response in place, preserving its id.
func (s *Service) EditResponse(ctx context.Context, id uint, response *Response, bot, user string) error {
	if err := validateResponse(ctx, response); err != nil {
		return err
	}
	response.Audit = Audit{ID: id, Bot: bot, User: user, Timestamp: time.Now().UTC(), Status: true}
	response.Name = strings.TrimSpace(response.Name)
	return s.repo.UpdateResponse(ctx, response)
}

// ListResponses returns live responses, newest first.
func (s *Service) ListResponses(ctx context.Context, bot string) ([]Response, error) {
	return s.repo.ListResponses(ctx, bot)
}

// AddAction registers an executable step, unique per bot.
func (s *Service) AddAction(ctx context.Context, name, bot, user string) (uint, error) {
	if err := requireNonBlank(ctx, "action name", name); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindAction(ctx, bot, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "action %q already exists", name)
	}
	action := &Action{Audit: newAudit(bot, user), Name: strings.TrimSpace(name)}
	if err := s.repo.CreateAction(ctx, action); err != nil {
		return 0, err
	}
	return action.ID, nil
}

// ListActions returns live actions, newest first.
func (s *Service) ListActions(ctx context.Context, bot string) ([]Action, error) {
	return s.repo.ListActions(ctx, bot)
}

// AddStory stores a dialogue path. Block names are unique per bot and two
// stories may not share an identical event sequence.
func (s *Service) AddStory(ctx context.Context, story *Story, bot, user string) (uint, error) {
	if err := validateStory(ctx, story); err != nil {
		return 0, err
	}
	existing, err := s.repo.FindStory(ctx, bot, story.BlockName)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, conflictErr(ctx, "story %q already exists", story.BlockName)
	}
	stories, err := s.repo.ListStories(ctx, bot)
	if err != nil {
		return 0, err
	}
	for _, other := range stories {
		if storyEventsEqual(other.Events, story.Events) {
			return 0, conflictErr(ctx, "story with an identical event sequence already exists: %q", other.BlockName)
		}
	}
	story.Audit = newAudit(bot, user)
	story.BlockName = strings.TrimSpace(story.BlockName)
	if err := s.repo.CreateStory(ctx, story); err != nil {
		return 0, err
	}
	return story.ID, nil
}

// EditStory mutates a story in place, preserving its id.
func (s *Service) EditStory(ctx context.Context, id uint, story *Story, bot, user string) error {
	if err := validateStory(ctx, story); err != nil {
		return err
	}
	story.Audit = Audit{ID: id, Bot: bot, User: user, Timestamp: time.Now().UTC(), Status: true}
	story.BlockName = strings.TrimSpace(story.BlockName)
	return s.repo.UpdateStory(ctx, story)
}

// ListStories returns live stories, newest first.
func (s *Service) ListStories(ctx context.Context, bot string) ([]Story, error) {
	return s.repo.ListStories(ctx, bot)
}

// Remove soft-deletes a single row of the given kind.
func (s *Service) Remove(ctx context.Context, kind Kind, id uint, bot, user string) error {
	return s.repo.SoftDelete(ctx, kind, id, bot, user)
}

// DeleteIntentWithDependencies soft-deletes the intent, all of its training
// examples, and any story whose first user event references it.
func (s *Service) DeleteIntentWithDependencies(ctx context.Context, name, bot, user string) error {
	intent, err := s.repo.FindIntent(ctx, bot, name)
	if err != nil {
		return err
	}
	if intent == nil {
		return notFoundErr(ctx, "intent %q does not exist", name)
	}
	if err := s.repo.SoftDelete(ctx, KindIntent, intent.ID, bot, user); err != nil {
		return err
	}
	removed, err := s.repo.SoftDeleteTrainingExamplesByIntent(ctx, bot, intent.Name, user)
	if err != nil {
		return err
	}
	stories, err := s.repo.ListStoriesByFirstIntent(ctx, bot, intent.Name)
	if err != nil {
		return err
	}
	for _, story := range stories {
		if err := s.repo.SoftDelete(ctx, KindStory, story.ID, bot, user); err != nil {
			return err
		}
	}
	s.log.Info().
		Str("bot", bot).
		Str("intent", intent.Name).
		Int64("examples_removed", removed).
		Int("stories_removed", len(stories)).
		Msg("deleted intent with dependencies")
	return nil
}

// GetUtteranceFromIntent finds the first story whose first user event matches
// the intent and returns the first subsequent action that is also a live
// response name.
func (s *Service) GetUtteranceFromIntent(ctx context.Context, intent, bot string) (string, error) {
	stories, err := s.repo.ListStoriesByFirstIntent(ctx, bot, intent)
	if err != nil {
		return "", err
	}
	if len(stories) == 0 {
		return "", notFoundErr(ctx, "no story starts with intent %q", intent)
	}
	story := stories[0] // oldest story wins the lookup
	for _, event := range story.Events[1:] {
		if event.Type != StoryEventAction {
			continue
		}
		responses, err := s.repo.ListResponsesByName(ctx, bot, event.Name)
		if err != nil {
			return "", err
		}
		if len(responses) > 0 {
			return event.Name, nil
		}
	}
	return "", notFoundErr(ctx, "no utterance action found for intent %q", intent)
}

// MatchIntent resolves an utterance to an intent by exact (case-insensitive)
// training example text. Absence is not an error; an unmatched utterance
// returns an empty intent with zero confidence.
func (s *Service) MatchIntent(ctx context.Context, text, bot string) (string, float64, error) {
	example, err := s.repo.FindTrainingExampleByText(ctx, bot, text)
	if err != nil {
		return "", 0, err
	}
	if example == nil {
		return "", 0, nil
	}
	return example.Intent, 1.0, nil
}

// GetResponseText returns the plain text of the newest live response with
// the given name.
func (s *Service) GetResponseText(ctx context.Context, name, bot string) (string, error) {
	responses, err := s.repo.ListResponsesByName(ctx, bot, name)
	if err != nil {
		return "", err
	}
	for _, response := range responses {
		if response.Text != nil {
			return response.Text.Text, nil
		}
	}
	return "", notFoundErr(ctx, "no text response named %q", name)
}

// SaveSessionConfig upserts the singleton session configuration.
func (s *Service) SaveSessionConfig(ctx context.Context, expirationTime int, carryOverSlots bool, bot, user string) error {
	if expirationTime <= 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"session expiration time must be positive", nil)
	}
	return s.repo.SaveSessionConfig(ctx, &SessionConfig{
		Audit:                 newAudit(bot, user),
		SessionExpirationTime: expirationTime,
		CarryOverSlots:        carryOverSlots,
	})
}

// GetSessionConfig returns the live session configuration, if any.
func (s *Service) GetSessionConfig(ctx context.Context, bot string) (*SessionConfig, error) {
	return s.repo.GetSessionConfig(ctx, bot)
}

// SavePipelineConfig upserts the singleton NLU pipeline configuration.
func (s *Service) SavePipelineConfig(ctx context.Context, cfg *PipelineConfig, bot, user string) error {
	if err := requireNonBlank(ctx, "language", cfg.Language); err != nil {
		return err
	}
	cfg.Audit = newAudit(bot, user)
	return s.repo.SavePipelineConfig(ctx, cfg)
}

// GetPipelineConfig returns the live pipeline configuration, if any.
func (s *Service) GetPipelineConfig(ctx context.Context, bot string) (*PipelineConfig, error) {
	return s.repo.GetPipelineConfig(ctx, bot)
}

// SaveEndpoints upserts the per-bot endpoint URLs after validating each.
func (s *Service) SaveEndpoints(ctx context.Context, endpoints *Endpoints, bot, user string) error {
	if err := validateEndpointURL(ctx, "bot endpoint", endpoints.BotEndpoint); err != nil {
		return err
	}
	if err := validateEndpointURL(ctx, "action endpoint", endpoints.ActionEndpoint); err != nil {
		return err
	}
	if err := validateEndpointURL(ctx, "tracker endpoint", endpoints.TrackerEndpoint); err != nil {
		return err
	}
	endpoints.Audit = newAudit(bot, user)
	return s.repo.SaveEndpoints(ctx, endpoints)
}

// GetEndpoints returns the live endpoint configuration, if any.
func (s *Service) GetEndpoints(ctx context.Context, bot string) (*Endpoints, error) {
	return s.repo.GetEndpoints(ctx, bot)
}

// DeleteBot cascades a soft delete over every corpus collection of the bot.
func (s *Service) DeleteBot(ctx context.Context, bot, user string) error {
	for _, kind := range AllKinds {
		if _, err := s.repo.SoftDeleteAll(ctx, kind, bot, user); err != nil {
			return err
		}
	}
	s.log.Info().Str("bot", bot).Msg("soft-deleted all corpus collections for bot")
	return nil
}
