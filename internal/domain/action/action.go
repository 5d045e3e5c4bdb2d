package action

import (
	"context"
)

// Type enumerates the supported action handler kinds.
type Type string

const (
	TypeHTTP             Type = "http_action"
	TypeSlotSet          Type = "slot_set_action"
	TypeEmail            Type = "email_action"
	TypeGoogleSearch     Type = "google_search_action"
	TypeJira             Type = "jira_action"
	TypeZendesk          Type = "zendesk_action"
	TypePipedriveLeads   Type = "pipedrive_leads_action"
	TypeHubspotForms     Type = "hubspot_forms_action"
	TypeFormValidation   Type = "form_validation_action"
	TypeTwoStageFallback Type = "two_stage_fallback_action"
	TypeRazorpay         Type = "razorpay_action"
	TypeFAQRAG           Type = "faq_rag_action"
	TypeBotResponse      Type = "bot_response_action"
)

// ResponseEventName is the standard result event every handler emits.
const ResponseEventName = "kairon_action_response"

// Tracker is the conversation state handed to a handler by the runtime.
type Tracker struct {
	SenderID     string         `json:"sender_id"`
	Slots        map[string]any `json:"slots"`
	LatestText   string         `json:"latest_text"`
	LatestIntent string         `json:"latest_intent"`
}

// Domain is the bot definition snapshot handed to a handler.
type Domain struct {
	Bot       string         `json:"bot"`
	Intents   []string       `json:"intents"`
	Responses []string       `json:"responses"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// Event is one side effect returned by a handler, such as a slot set or a
// followup action.
type Event struct {
	Name  string `json:"event"`
	Key   string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Response is one user-visible message returned by a handler.
type Response struct {
	Text   string         `json:"text,omitempty"`
	Custom map[string]any `json:"custom,omitempty"`
}

// Result is the full outcome of one action dispatch.
type Result struct {
	Events    []Event    `json:"events"`
	Responses []Response `json:"responses"`
}

// Handler executes one action kind. Implementations live in the external
// action server; the core only defines the contract.
type Handler interface {
	Execute(ctx context.Context, tracker *Tracker, domain *Domain) (*Result, error)
}

// HandlerFactory builds a handler for a named action of its type.
type HandlerFactory func(bot, actionName string) (Handler, error)

// Registry resolves an action name to its registered type.
type Registry interface {
	LookupType(ctx context.Context, bot, actionName string) (Type, bool, error)
}
