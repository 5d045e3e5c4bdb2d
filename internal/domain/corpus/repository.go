package corpus

import "context"

// Kind names one corpus collection; used by soft delete and import dedup.
type Kind string

const (
	KindIntent          Kind = "intents"
	KindTrainingExample Kind = "training_examples"
	KindEntitySynonym   Kind = "entity_synonyms"
	KindLookupTable     Kind = "lookup_tables"
	KindRegexFeature    Kind = "regex_features"
	KindEntity          Kind = "entities"
	KindSlot            Kind = "slots"
	KindResponse        Kind = "responses"
	KindAction          Kind = "actions"
	KindStory           Kind = "stories"
	KindSessionConfig   Kind = "session_configs"
	KindPipelineConfig  Kind = "pipeline_configs"
	KindEndpoints       Kind = "endpoints"
)

// AllKinds lists every corpus collection, in import order.
var AllKinds = []Kind{
	KindIntent, KindTrainingExample, KindEntitySynonym, KindLookupTable,
	KindRegexFeature, KindEntity, KindSlot, KindResponse, KindAction,
	KindStory, KindSessionConfig, KindPipelineConfig, KindEndpoints,
}

// Repository is the persistence contract for the corpus store. All reads
// return live rows only, ordered by descending timestamp. Name matching is
// case-insensitive.
type Repository interface {
	// Intents
	CreateIntent(ctx context.Context, intent *Intent) error
	ListIntents(ctx context.Context, bot string) ([]Intent, error)
	FindIntent(ctx context.Context, bot, name string) (*Intent, error)

	// Training examples
	CreateTrainingExample(ctx context.Context, example *TrainingExample) error
	ListTrainingExamples(ctx context.Context, bot string) ([]TrainingExample, error)
	ListTrainingExamplesByIntent(ctx context.Context, bot, intent string) ([]TrainingExample, error)
	SearchTrainingExamples(ctx context.Context, bot, query string) ([]TrainingExample, error)
	UpdateTrainingExample(ctx context.Context, example *TrainingExample) error
	FindTrainingExampleByText(ctx context.Context, bot, text string) (*TrainingExample, error)
	SoftDeleteTrainingExamplesByIntent(ctx context.Context, bot, intent, user string) (int64, error)

	// Entity synonyms
	CreateEntitySynonym(ctx context.Context, synonym *EntitySynonym) error
	ListEntitySynonyms(ctx context.Context, bot string) ([]EntitySynonym, error)
	FindEntitySynonym(ctx context.Context, bot, value string) (*EntitySynonym, error)
	UpdateEntitySynonym(ctx context.Context, synonym *EntitySynonym) error

	// Lookup tables
	CreateLookupTable(ctx context.Context, row *LookupTable) error
	ListLookupTables(ctx context.Context, bot string) ([]LookupTable, error)
	FindLookupTableValue(ctx context.Context, bot, name, value string) (*LookupTable, error)

	// Regex features
	CreateRegexFeature(ctx context.Context, feature *RegexFeature) error
	ListRegexFeatures(ctx context.Context, bot string) ([]RegexFeature, error)
	FindRegexFeatureByPattern(ctx context.Context, bot, pattern string) (*RegexFeature, error)
	UpdateRegexFeature(ctx context.Context, feature *RegexFeature) error

	// Entities
	CreateEntity(ctx context.Context, entity *Entity) error
	ListEntities(ctx context.Context, bot string) ([]Entity, error)
	FindEntity(ctx context.Context, bot, name string) (*Entity, error)

	// Slots
	CreateSlot(ctx context.Context, slot *Slot) error
	ListSlots(ctx context.Context, bot string) ([]Slot, error)
	FindSlot(ctx context.Context, bot, name string) (*Slot, error)
	UpdateSlot(ctx context.Context, slot *Slot) error

	// Responses
	CreateResponse(ctx context.Context, response *Response) error
	ListResponses(ctx context.Context, bot string) ([]Response, error)
	ListResponsesByName(ctx context.Context, bot, name string) ([]Response, error)
	UpdateResponse(ctx context.Context, response *Response) error

	// Actions
	CreateAction(ctx context.Context, action *Action) error
	ListActions(ctx context.Context, bot string) ([]Action, error)
	FindAction(ctx context.Context, bot, name string) (*Action, error)

	// Stories
	CreateStory(ctx context.Context, story *Story) error
	ListStories(ctx context.Context, bot string) ([]Story, error)
	FindStory(ctx context.Context, bot, blockName string) (*Story, error)
	UpdateStory(ctx context.Context, story *Story) error
	ListStoriesByFirstIntent(ctx context.Context, bot, intent string) ([]Story, error)

	// Singleton configs
	SaveSessionConfig(ctx context.Context, cfg *SessionConfig) error
	GetSessionConfig(ctx context.Context, bot string) (*SessionConfig, error)
	SavePipelineConfig(ctx context.Context, cfg *PipelineConfig) error
	GetPipelineConfig(ctx context.Context, bot string) (*PipelineConfig, error)
	SaveEndpoints(ctx context.Context, endpoints *Endpoints) error
	GetEndpoints(ctx context.Context, bot string) (*Endpoints, error)

	// Lifecycle
	SoftDelete(ctx context.Context, kind Kind, id uint, bot, user string) error
	SoftDeleteAll(ctx context.Context, kind Kind, bot, user string) (int64, error)
}
