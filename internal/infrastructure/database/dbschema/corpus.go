package dbschema

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(
		Intent{}, TrainingExample{}, EntitySynonym{}, LookupTable{},
		RegexFeature{}, Entity{}, Slot{}, Response{}, Action{}, Story{},
		SessionConfig{}, PipelineConfig{}, Endpoints{},
	)
}

func auditToDomain(m AuditModel) corpus.Audit {
	return corpus.Audit{ID: m.ID, Bot: m.Bot, User: m.User, Timestamp: m.Timestamp, Status: m.Status}
}

func auditFromDomain(a corpus.Audit) AuditModel {
	return AuditModel{ID: a.ID, Bot: a.Bot, User: a.User, Timestamp: a.Timestamp, Status: a.Status}
}

// Intent is the database schema for intents.
type Intent struct {
	AuditModel
	Name string `gorm:"type:varchar(128);not null;index"`
}

func NewSchemaIntent(d *corpus.Intent) *Intent {
	return &Intent{AuditModel: auditFromDomain(d.Audit), Name: d.Name}
}

func (m *Intent) EtoD() corpus.Intent {
	return corpus.Intent{Audit: auditToDomain(m.AuditModel), Name: m.Name}
}

// TrainingExample is the database schema for labelled utterances. Entity
// annotations are stored as a JSON column.
type TrainingExample struct {
	AuditModel
	Intent   string         `gorm:"type:varchar(128);not null;index"`
	Text     string         `gorm:"type:text;not null"`
	Entities datatypes.JSON `gorm:"type:jsonb"`
}

func NewSchemaTrainingExample(d *corpus.TrainingExample) (*TrainingExample, error) {
	var entities datatypes.JSON
	if len(d.Entities) > 0 {
		data, err := json.Marshal(d.Entities)
		if err != nil {
			return nil, err
		}
		entities = data
	}
	return &TrainingExample{
		AuditModel: auditFromDomain(d.Audit),
		Intent:     d.Intent,
		Text:       d.Text,
		Entities:   entities,
	}, nil
}

func (m *TrainingExample) EtoD() corpus.TrainingExample {
	example := corpus.TrainingExample{
		Audit:  auditToDomain(m.AuditModel),
		Intent: m.Intent,
		Text:   m.Text,
	}
	if len(m.Entities) > 0 {
		_ = json.Unmarshal(m.Entities, &example.Entities)
	}
	return example
}

// EntitySynonym is the database schema for synonym mappings.
type EntitySynonym struct {
	AuditModel
	Value   string `gorm:"type:varchar(256);not null;index"`
	Synonym string `gorm:"type:varchar(256);not null"`
}

func NewSchemaEntitySynonym(d *corpus.EntitySynonym) *EntitySynonym {
	return &EntitySynonym{AuditModel: auditFromDomain(d.Audit), Value: d.Value, Synonym: d.Synonym}
}

func (m *EntitySynonym) EtoD() corpus.EntitySynonym {
	return corpus.EntitySynonym{Audit: auditToDomain(m.AuditModel), Value: m.Value, Synonym: m.Synonym}
}

// LookupTable is the database schema for lookup list elements, one row per
// element.
type LookupTable struct {
	AuditModel
	Name  string `gorm:"type:varchar(128);not null;index"`
	Value string `gorm:"type:varchar(256);not null"`
}

func NewSchemaLookupTable(d *corpus.LookupTable) *LookupTable {
	return &LookupTable{AuditModel: auditFromDomain(d.Audit), Name: d.Name, Value: d.Value}
}

func (m *LookupTable) EtoD() corpus.LookupTable {
	return corpus.LookupTable{Audit: auditToDomain(m.AuditModel), Name: m.Name, Value: m.Value}
}

// RegexFeature is the database schema for regex features.
type RegexFeature struct {
	AuditModel
	Name    string `gorm:"type:varchar(128);not null;index"`
	Pattern string `gorm:"type:text;not null"`
}

func NewSchemaRegexFeature(d *corpus.RegexFeature) *RegexFeature {
	return &RegexFeature{AuditModel: auditFromDomain(d.Audit), Name: d.Name, Pattern: d.Pattern}
}

func (m *RegexFeature) EtoD() corpus.RegexFeature {
	return corpus.RegexFeature{Audit: auditToDomain(m.AuditModel), Name: m.Name, Pattern: m.Pattern}
}

// Entity is the database schema for extractable entity names.
type Entity struct {
	AuditModel
	Name string `gorm:"type:varchar(128);not null;index"`
}

func NewSchemaEntity(d *corpus.Entity) *Entity {
	return &Entity{AuditModel: auditFromDomain(d.Audit), Name: d.Name}
}

func (m *Entity) EtoD() corpus.Entity {
	return corpus.Entity{Audit: auditToDomain(m.AuditModel), Name: m.Name}
}

// Slot is the database schema for conversation slots. InitialValue and
// Values are JSON columns.
type Slot struct {
	AuditModel
	Name            string         `gorm:"type:varchar(128);not null;index"`
	Type            string         `gorm:"type:varchar(20);not null"`
	InitialValue    datatypes.JSON `gorm:"type:jsonb"`
	ValueResetDelay *int
	AutoFill        bool `gorm:"not null;default:true"`
	MinValue        *float64
	MaxValue        *float64
	Values          datatypes.JSON `gorm:"type:jsonb"`
}

func NewSchemaSlot(d *corpus.Slot) (*Slot, error) {
	slot := &Slot{
		AuditModel:      auditFromDomain(d.Audit),
		Name:            d.Name,
		Type:            string(d.Type),
		ValueResetDelay: d.ValueResetDelay,
		AutoFill:        d.AutoFill,
		MinValue:        d.MinValue,
		MaxValue:        d.MaxValue,
	}
	if d.InitialValue != nil {
		data, err := json.Marshal(d.InitialValue)
		if err != nil {
			return nil, err
		}
		slot.InitialValue = data
	}
	if len(d.Values) > 0 {
		data, err := json.Marshal(d.Values)
		if err != nil {
			return nil, err
		}
		slot.Values = data
	}
	return slot, nil
}

func (m *Slot) EtoD() corpus.Slot {
	slot := corpus.Slot{
		Audit:           auditToDomain(m.AuditModel),
		Name:            m.Name,
		Type:            corpus.SlotType(m.Type),
		ValueResetDelay: m.ValueResetDelay,
		AutoFill:        m.AutoFill,
		MinValue:        m.MinValue,
		MaxValue:        m.MaxValue,
	}
	if len(m.InitialValue) > 0 {
		_ = json.Unmarshal(m.InitialValue, &slot.InitialValue)
	}
	if len(m.Values) > 0 {
		_ = json.Unmarshal(m.Values, &slot.Values)
	}
	return slot
}

// Response is the database schema for named utterances. Exactly one of the
// text and custom JSON columns is populated.
type Response struct {
	AuditModel
	Name   string         `gorm:"type:varchar(128);not null;index"`
	Text   datatypes.JSON `gorm:"type:jsonb"`
	Custom datatypes.JSON `gorm:"type:jsonb"`
}

func NewSchemaResponse(d *corpus.Response) (*Response, error) {
	response := &Response{AuditModel: auditFromDomain(d.Audit), Name: d.Name}
	if d.Text != nil {
		data, err := json.Marshal(d.Text)
		if err != nil {
			return nil, err
		}
		response.Text = data
	}
	if d.Custom != nil {
		data, err := json.Marshal(d.Custom)
		if err != nil {
			return nil, err
		}
		response.Custom = data
	}
	return response, nil
}

func (m *Response) EtoD() corpus.Response {
	response := corpus.Response{Audit: auditToDomain(m.AuditModel), Name: m.Name}
	if len(m.Text) > 0 {
		text := corpus.ResponseText{}
		if err := json.Unmarshal(m.Text, &text); err == nil {
			response.Text = &text
		}
	}
	if len(m.Custom) > 0 {
		custom := corpus.ResponseCustom{}
		if err := json.Unmarshal(m.Custom, &custom); err == nil {
			response.Custom = &custom
		}
	}
	return response
}

// Action is the database schema for action names.
type Action struct {
	AuditModel
	Name string `gorm:"type:varchar(128);not null;index"`
}

func NewSchemaAction(d *corpus.Action) *Action {
	return &Action{AuditModel: auditFromDomain(d.Audit), Name: d.Name}
}

func (m *Action) EtoD() corpus.Action {
	return corpus.Action{Audit: auditToDomain(m.AuditModel), Name: m.Name}
}

// Story is the database schema for dialogue paths; events and checkpoints
// are JSON columns. FirstIntent denormalises the first user event for the
// intent-cascade and utterance lookups.
type Story struct {
	AuditModel
	BlockName        string         `gorm:"type:varchar(128);not null;index"`
	Events           datatypes.JSON `gorm:"type:jsonb;not null"`
	StartCheckpoints datatypes.JSON `gorm:"type:jsonb"`
	EndCheckpoints   datatypes.JSON `gorm:"type:jsonb"`
	FirstIntent      string         `gorm:"type:varchar(128);index"`
}

func NewSchemaStory(d *corpus.Story) (*Story, error) {
	events, err := json.Marshal(d.Events)
	if err != nil {
		return nil, err
	}
	story := &Story{
		AuditModel: auditFromDomain(d.Audit),
		BlockName:  d.BlockName,
		Events:     events,
	}
	if len(d.Events) > 0 {
		story.FirstIntent = d.Events[0].Name
	}
	if len(d.StartCheckpoints) > 0 {
		data, err := json.Marshal(d.StartCheckpoints)
		if err != nil {
			return nil, err
		}
		story.StartCheckpoints = data
	}
	if len(d.EndCheckpoints) > 0 {
		data, err := json.Marshal(d.EndCheckpoints)
		if err != nil {
			return nil, err
		}
		story.EndCheckpoints = data
	}
	return story, nil
}

func (m *Story) EtoD() corpus.Story {
	story := corpus.Story{Audit: auditToDomain(m.AuditModel), BlockName: m.BlockName}
	_ = json.Unmarshal(m.Events, &story.Events)
	if len(m.StartCheckpoints) > 0 {
		_ = json.Unmarshal(m.StartCheckpoints, &story.StartCheckpoints)
	}
	if len(m.EndCheckpoints) > 0 {
		_ = json.Unmarshal(m.EndCheckpoints, &story.EndCheckpoints)
	}
	return story
}

// SessionConfig is the database schema for the per-bot session singleton.
type SessionConfig struct {
	AuditModel
	SessionExpirationTime int  `gorm:"not null"`
	CarryOverSlots        bool `gorm:"not null;default:true"`
}

func NewSchemaSessionConfig(d *corpus.SessionConfig) *SessionConfig {
	return &SessionConfig{
		AuditModel:            auditFromDomain(d.Audit),
		SessionExpirationTime: d.SessionExpirationTime,
		CarryOverSlots:        d.CarryOverSlots,
	}
}

func (m *SessionConfig) EtoD() corpus.SessionConfig {
	return corpus.SessionConfig{
		Audit:                 auditToDomain(m.AuditModel),
		SessionExpirationTime: m.SessionExpirationTime,
		CarryOverSlots:        m.CarryOverSlots,
	}
}

// PipelineConfig is the database schema for the per-bot NLU pipeline
// singleton.
type PipelineConfig struct {
	AuditModel
	Language string         `gorm:"type:varchar(16);not null"`
	Pipeline datatypes.JSON `gorm:"type:jsonb"`
	Policies datatypes.JSON `gorm:"type:jsonb"`
}

func NewSchemaPipelineConfig(d *corpus.PipelineConfig) (*PipelineConfig, error) {
	cfg := &PipelineConfig{AuditModel: auditFromDomain(d.Audit), Language: d.Language}
	if len(d.Pipeline) > 0 {
		data, err := json.Marshal(d.Pipeline)
		if err != nil {
			return nil, err
		}
		cfg.Pipeline = data
	}
	if len(d.Policies) > 0 {
		data, err := json.Marshal(d.Policies)
		if err != nil {
			return nil, err
		}
		cfg.Policies = data
	}
	return cfg, nil
}

func (m *PipelineConfig) EtoD() corpus.PipelineConfig {
	cfg := corpus.PipelineConfig{Audit: auditToDomain(m.AuditModel), Language: m.Language}
	if len(m.Pipeline) > 0 {
		_ = json.Unmarshal(m.Pipeline, &cfg.Pipeline)
	}
	if len(m.Policies) > 0 {
		_ = json.Unmarshal(m.Policies, &cfg.Policies)
	}
	return cfg
}

// Endpoints is the database schema for the per-bot endpoint URLs.
type Endpoints struct {
	AuditModel
	BotEndpoint     string `gorm:"type:varchar(512)"`
	ActionEndpoint  string `gorm:"type:varchar(512)"`
	TrackerEndpoint string `gorm:"type:varchar(512)"`
}

func NewSchemaEndpoints(d *corpus.Endpoints) *Endpoints {
	return &Endpoints{
		AuditModel:      auditFromDomain(d.Audit),
		BotEndpoint:     d.BotEndpoint,
		ActionEndpoint:  d.ActionEndpoint,
		TrackerEndpoint: d.TrackerEndpoint,
	}
}

func (m *Endpoints) EtoD() corpus.Endpoints {
	return corpus.Endpoints{
		Audit:           auditToDomain(m.AuditModel),
		BotEndpoint:     m.BotEndpoint,
		ActionEndpoint:  m.ActionEndpoint,
		TrackerEndpoint: m.TrackerEndpoint,
	}
}
