package rag

import (
	"context"
	"fmt"
)

const (
	// EmbeddingDimension is the vector size of the embedding model.
	EmbeddingDimension = 1536
	// EmbeddingCtxLimit is the token budget of the embedding model; longer
	// texts are truncated at token boundaries.
	EmbeddingCtxLimit = 8191
	// CacheMatchThreshold is the exact-match score for the cached-response
	// collection.
	CacheMatchThreshold = 0.99
	// DefaultTopK is the retrieval depth when a similarity prompt leaves it
	// unset.
	DefaultTopK = 10
	// DefaultSimilarityThreshold gates retrieval and the failure fallback.
	DefaultSimilarityThreshold = 0.70
	// FallbackLimit is the cached-response depth on the failure path.
	FallbackLimit = 3
	// TrainBatchSize chunks content during indexing.
	TrainBatchSize = 100
)

// ContentType distinguishes plain text payloads from structured JSON ones.
type ContentType string

const (
	ContentTypeText ContentType = "text"
	ContentTypeJSON ContentType = "json"
)

// VectorContent is one indexable item of a bot's knowledge base.
type VectorContent struct {
	ID          uint
	Bot         string
	User        string
	Collection  string
	ContentType ContentType
	Data        map[string]any
	VectorID    string
	Metadata    []string // JSON fields included in the embedded projection
}

// ContentRepository is the persistence contract for vector content.
type ContentRepository interface {
	Create(ctx context.Context, content *VectorContent) error
	ListByBot(ctx context.Context, bot string) ([]VectorContent, error)
	Delete(ctx context.Context, id uint, bot string) error
}

// CollectionName returns the bot's content collection, optionally scoped to
// a named sub-collection.
func CollectionName(bot, collection string) string {
	if collection == "" {
		return fmt.Sprintf("%s_faq_embd", bot)
	}
	return fmt.Sprintf("%s_%s_faq_embd", bot, collection)
}

// CacheCollectionName returns the bot's cached-response collection.
func CacheCollectionName(bot string) string {
	return fmt.Sprintf("%s_cached_response_embd", bot)
}

// Point is one vector with its payload, as stored in a collection.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// VectorStore is the collection-level contract of the vector database.
type VectorStore interface {
	CreateCollection(ctx context.Context, name string, dimension int) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64) ([]ScoredPoint, error)
	Scroll(ctx context.Context, collection string, limit int) ([]Point, error)
}

// Hyperparameters are the caller-supplied completion controls.
type Hyperparameters struct {
	Temperature      float32 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	N                int     `json:"n,omitempty"`
	Stream           bool    `json:"stream,omitempty"`
	TopP             float32 `json:"top_p,omitempty"`
	FrequencyPenalty float32 `json:"frequency_penalty,omitempty"`
	PresencePenalty  float32 `json:"presence_penalty,omitempty"`
}

// SimilarityPrompt configures one retrieval pass over a (sub-)collection.
type SimilarityPrompt struct {
	Name                string  `json:"name"`
	Instructions        string  `json:"instructions"`
	Collection          string  `json:"collection"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	Enabled             bool    `json:"enabled"`
}

// PredictOptions is the full per-request RAG configuration.
type PredictOptions struct {
	SystemPrompt         string             `json:"system_prompt"`
	ContextPrompt        string             `json:"context_prompt"`
	QueryPrompt          string             `json:"query_prompt,omitempty"`
	UseQueryPrompt       bool               `json:"use_query_prompt"`
	SimilarityPrompts    []SimilarityPrompt `json:"similarity_prompts"`
	EnableResponseCache  bool               `json:"enable_response_cache"`
	PreviousBotResponses []Message          `json:"previous_bot_responses,omitempty"`
	Instructions         []string           `json:"instructions,omitempty"`
	Hyperparameters      Hyperparameters    `json:"hyperparameters"`
	NumPreviousResponses int                `json:"num_previous_responses"`
	InvocationTag        string             `json:"invocation_tag,omitempty"`
	RaiseErrIfNotExists  bool               `json:"raise_err_if_not_exists,omitempty"`
}

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient is the embedding and chat-completion contract of the provider.
type LLMClient interface {
	Embed(ctx context.Context, bot, text string) ([]float32, error)
	ChatCompletion(ctx context.Context, bot string, messages []Message, params Hyperparameters) (string, error)
}

// PredictResult is the outcome of one RAG query.
type PredictResult struct {
	Content     string `json:"content,omitempty"`
	IsFromCache bool   `json:"is_from_cache"`
	IsFailure   bool   `json:"is_failure,omitempty"`
	Exception   string `json:"exception,omitempty"`
}
