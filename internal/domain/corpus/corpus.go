package corpus

import (
	"time"
)

// SlotType enumerates the supported slot value types.
type SlotType string

const (
	SlotTypeText         SlotType = "text"
	SlotTypeBool         SlotType = "bool"
	SlotTypeFloat        SlotType = "float"
	SlotTypeCategorical  SlotType = "categorical"
	SlotTypeList         SlotType = "list"
	SlotTypeUnfeaturized SlotType = "unfeaturized"
)

// Audit carries the tenancy and soft-delete bookkeeping every corpus row has.
// Status false marks a logical tombstone; reads only ever see live rows.
type Audit struct {
	ID        uint
	Bot       string
	User      string
	Timestamp time.Time
	Status    bool
}

// Intent is a labelled class of user utterances, unique per bot.
type Intent struct {
	Audit
	Name string
}

// EntityRef annotates a span of a training example text.
type EntityRef struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Value  string `json:"value"`
	Entity string `json:"entity"`
}

// TrainingExample is a labelled utterance belonging to an intent.
type TrainingExample struct {
	Audit
	Intent   string
	Text     string
	Entities []EntityRef
}

// EntitySynonym maps a canonical value to one surface form.
type EntitySynonym struct {
	Audit
	Value   string
	Synonym string
}

// LookupTable holds one element of a named lookup list.
type LookupTable struct {
	Audit
	Name  string
	Value string
}

// RegexFeature is a named regular expression feature; the pattern must
// compile at write time.
type RegexFeature struct {
	Audit
	Name    string
	Pattern string
}

// Entity is a named extractable span type, unique per bot. Creating one
// also creates a text slot of the same name when absent.
type Entity struct {
	Audit
	Name string
}

// Slot is a typed conversation variable.
type Slot struct {
	Audit
	Name            string
	Type            SlotType
	InitialValue    any
	ValueResetDelay *int
	AutoFill        bool
	MinValue        *float64
	MaxValue        *float64
	Values          []string
}

// Button is one quick-reply attached to a text response.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// ResponseText is the plain-text variant of a response.
type ResponseText struct {
	Text    string   `json:"text"`
	Image   string   `json:"image,omitempty"`
	Channel string   `json:"channel,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// ResponseCustom is the free-form JSON variant of a response.
type ResponseCustom struct {
	Custom map[string]any `json:"custom"`
}

// Response is a bot-authored message addressable by name. Exactly one of
// Text or Custom is set. Multiple responses may share a name.
type Response struct {
	Audit
	Name   string
	Text   *ResponseText
	Custom *ResponseCustom
}

// Action is a named executable step, unique per bot.
type Action struct {
	Audit
	Name string
}

// StoryEventType enumerates the event kinds a story block may contain.
type StoryEventType string

const (
	StoryEventUser   StoryEventType = "user"
	StoryEventAction StoryEventType = "action"
	StoryEventForm   StoryEventType = "form"
	StoryEventSlot   StoryEventType = "slot"
)

// StoryEvent is one step in a story block.
type StoryEvent struct {
	Name  string         `json:"name"`
	Type  StoryEventType `json:"type"`
	Value any            `json:"value,omitempty"`
}

// Story is an ordered dialogue path. Events must be non-empty, start with a
// user event and end with an action event.
type Story struct {
	Audit
	BlockName        string
	Events           []StoryEvent
	StartCheckpoints []string
	EndCheckpoints   []string
}

// SessionConfig controls conversation session expiry; at most one live per bot.
type SessionConfig struct {
	Audit
	SessionExpirationTime int
	CarryOverSlots        bool
}

// PipelineConfig is the NLU pipeline definition; at most one live per bot.
type PipelineConfig struct {
	Audit
	Language string
	Pipeline []map[string]any
	Policies []map[string]any
}

// Endpoints holds the per-bot endpoint URLs, validated on write.
type Endpoints struct {
	Audit
	BotEndpoint     string
	ActionEndpoint  string
	TrackerEndpoint string
}
