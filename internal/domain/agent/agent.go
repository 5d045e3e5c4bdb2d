package agent

import (
	"context"
)

// Message is one user-visible reply produced by an agent.
type Message struct {
	Text   string         `json:"text,omitempty"`
	Custom map[string]any `json:"custom,omitempty"`
}

// ParseResult is the classifier output for a single utterance.
type ParseResult struct {
	Intent     string             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Entities   map[string]string  `json:"entities,omitempty"`
	Ranking    map[string]float64 `json:"ranking,omitempty"`
}

// Agent is a loaded, trained model object ready to answer queries.
type Agent interface {
	Parse(ctx context.Context, text string) (*ParseResult, error)
	HandleText(ctx context.Context, text, conversationID string) ([]Message, error)
}

// Loader resolves the latest trained artefact for a bot and constructs an
// agent from it. Load fails with a NOT_FOUND gate error when the bot has no
// successful artefact.
type Loader interface {
	Load(ctx context.Context, bot string) (Agent, error)
}

// BillingChecker reports whether a bot is revenue-bearing. Billed bots are
// protected from cache eviction while unbilled bots remain.
type BillingChecker interface {
	IsBilled(ctx context.Context, bot string) (bool, error)
}
