package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/botforge/botforge/internal/infrastructure/metrics"
	"github.com/botforge/botforge/internal/utils/functional"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Engine orchestrates the retrieval-augmented answer path: content indexing,
// cached-response lookup, similarity retrieval and chat-completion.
type Engine struct {
	contents ContentRepository
	store    VectorStore
	llm      LLMClient
	log      zerolog.Logger
}

// NewEngine creates a RAG engine.
func NewEngine(contents ContentRepository, store VectorStore, llm LLMClient, log zerolog.Logger) *Engine {
	return &Engine{contents: contents, store: store, llm: llm, log: log}
}

// Train indexes the bot's vector content. Rows are grouped by collection;
// each group's collection is recreated, then content is embedded and
// upserted in batches. Returns the number of indexed items.
func (e *Engine) Train(ctx context.Context, bot string) (int, error) {
	rows, err := e.contents.ListByBot(ctx, bot)
	if err != nil {
		return 0, err
	}

	groups := functional.GroupBy(rows, func(row VectorContent) string { return row.Collection })

	indexed := 0
	for collection, group := range groups {
		name := CollectionName(bot, collection)
		if err := e.store.DeleteCollection(ctx, name); err != nil {
			e.log.Warn().Err(err).Str("collection", name).Msg("collection drop failed, creating anyway")
		}
		if err := e.store.CreateCollection(ctx, name, EmbeddingDimension); err != nil {
			return indexed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create collection "+name)
		}

		for start := 0; start < len(group); start += TrainBatchSize {
			end := min(start+TrainBatchSize, len(group))
			points := make([]Point, 0, end-start)
			for _, row := range group[start:end] {
				text, err := row.embeddableText()
				if err != nil {
					return indexed, err
				}
				vector, err := e.llm.Embed(ctx, bot, TruncateToTokenLimit(text, EmbeddingCtxLimit))
				if err != nil {
					return indexed, platformerrors.NewError(ctx, platformerrors.LayerDomain,
						platformerrors.ErrorTypeExternal, "embedding failed during indexing", err)
				}
				points = append(points, Point{ID: row.VectorID, Vector: vector, Payload: row.Data})
			}
			if err := e.store.Upsert(ctx, name, points); err != nil {
				return indexed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upsert points into "+name)
			}
			indexed += len(points)
		}
	}
	return indexed, nil
}

// embeddableText projects a content row to the string that gets embedded:
// the raw string for text rows, a canonical JSON projection restricted to
// metadata-declared fields for json rows.
func (row VectorContent) embeddableText() (string, error) {
	switch row.ContentType {
	case ContentTypeText:
		if content, ok := row.Data["content"].(string); ok {
			return content, nil
		}
		return "", fmt.Errorf("text content row %s has no string content", row.VectorID)
	case ContentTypeJSON:
		projection := row.Data
		if len(row.Metadata) > 0 {
			projection = make(map[string]any, len(row.Metadata))
			for _, field := range row.Metadata {
				if value, ok := row.Data[field]; ok {
					projection[field] = value
				}
			}
		}
		// json.Marshal sorts map keys, giving a canonical form
		encoded, err := json.Marshal(projection)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	default:
		return "", fmt.Errorf("unknown content type %q", row.ContentType)
	}
}

// Predict answers a query through the RAG pipeline. Any embedding or
// completion failure falls back to the cached-response collection; when the
// fallback also misses, the result carries the failure unless the caller
// asked for an error.
func (e *Engine) Predict(ctx context.Context, query, bot string, options PredictOptions) (*PredictResult, error) {
	queryEmbedding, err := e.llm.Embed(ctx, bot, TruncateToTokenLimit(query, EmbeddingCtxLimit))
	if err != nil {
		e.log.Error().Err(err).Str("bot", bot).Msg("query embedding failed")
		metrics.RAGFailures.WithLabelValues("embedding").Inc()
		return e.fallback(ctx, bot, nil, options, err)
	}

	if options.EnableResponseCache {
		hits, err := e.store.Search(ctx, CacheCollectionName(bot), queryEmbedding, 1, CacheMatchThreshold)
		if err == nil && len(hits) > 0 {
			if response, ok := hits[0].Payload["response"].(string); ok {
				metrics.RAGCacheHits.Inc()
				return &PredictResult{Content: response, IsFromCache: true}, nil
			}
		}
	}

	effectiveQuery := query
	if options.UseQueryPrompt && options.QueryPrompt != "" {
		rephrased, err := e.llm.ChatCompletion(ctx, bot, []Message{
			{Role: "system", Content: options.QueryPrompt},
			{Role: "user", Content: query},
		}, options.Hyperparameters)
		if err != nil {
			e.log.Error().Err(err).Str("bot", bot).Msg("query rephrasing failed")
			metrics.RAGFailures.WithLabelValues("completion").Inc()
			return e.fallback(ctx, bot, queryEmbedding, options, err)
		}
		effectiveQuery = rephrased
	}

	contextText, err := e.retrieveContext(ctx, bot, queryEmbedding, options)
	if err != nil {
		metrics.RAGFailures.WithLabelValues("retrieval").Inc()
		return e.fallback(ctx, bot, queryEmbedding, options, err)
	}

	messages := e.buildMessages(effectiveQuery, contextText, options)
	answer, err := e.llm.ChatCompletion(ctx, bot, messages, options.Hyperparameters)
	if err != nil {
		e.log.Error().Err(err).Str("bot", bot).Msg("chat completion failed")
		metrics.RAGFailures.WithLabelValues("completion").Inc()
		return e.fallback(ctx, bot, queryEmbedding, options, err)
	}

	if options.EnableResponseCache {
		point := Point{
			ID:      uuid.NewString(),
			Vector:  queryEmbedding,
			Payload: map[string]any{"query": query, "response": answer},
		}
		if err := e.store.Upsert(ctx, CacheCollectionName(bot), []Point{point}); err != nil {
			e.log.Warn().Err(err).Str("bot", bot).Msg("failed to cache response")
		}
	}

	return &PredictResult{Content: answer, IsFromCache: false}, nil
}

// retrieveContext runs every enabled similarity prompt and concatenates the
// retrieved payload content.
func (e *Engine) retrieveContext(ctx context.Context, bot string, queryEmbedding []float32, options PredictOptions) (string, error) {
	var builder strings.Builder
	for _, prompt := range options.SimilarityPrompts {
		if !prompt.Enabled {
			continue
		}
		topK := prompt.TopK
		if topK <= 0 {
			topK = DefaultTopK
		}
		threshold := prompt.SimilarityThreshold
		if threshold <= 0 {
			threshold = DefaultSimilarityThreshold
		}
		hits, err := e.store.Search(ctx, CollectionName(bot, prompt.Collection), queryEmbedding, topK, threshold)
		if err != nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
				"similarity search failed for "+prompt.Name, err)
		}
		if len(hits) == 0 {
			continue
		}
		if prompt.Instructions != "" {
			builder.WriteString(prompt.Instructions)
			builder.WriteString("\n")
		}
		for _, hit := range hits {
			if content, ok := hit.Payload["content"].(string); ok {
				builder.WriteString(content)
			} else {
				encoded, _ := json.Marshal(hit.Payload)
				builder.Write(encoded)
			}
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

// buildMessages assembles the completion message list: system prompt, a
// window of previous bot responses, then the user turn carrying retrieved
// context, instructions and the question.
func (e *Engine) buildMessages(query, contextText string, options PredictOptions) []Message {
	messages := make([]Message, 0, len(options.PreviousBotResponses)+2)
	if options.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: options.SystemPrompt})
	}

	previous := options.PreviousBotResponses
	if options.NumPreviousResponses > 0 && len(previous) > options.NumPreviousResponses {
		previous = previous[len(previous)-options.NumPreviousResponses:]
	}
	messages = append(messages, previous...)

	var user strings.Builder
	if options.ContextPrompt != "" {
		user.WriteString(options.ContextPrompt)
		user.WriteString("\n")
	}
	if contextText != "" {
		user.WriteString(contextText)
		user.WriteString("\n")
	}
	for _, instruction := range options.Instructions {
		user.WriteString(instruction)
		user.WriteString("\n")
	}
	user.WriteString("Q: ")
	user.WriteString(query)
	user.WriteString("\nA:")
	return append(messages, Message{Role: "user", Content: user.String()})
}

// fallback looks up the cached-response collection with the default
// similarity threshold after a pipeline failure.
func (e *Engine) fallback(ctx context.Context, bot string, queryEmbedding []float32, options PredictOptions, cause error) (*PredictResult, error) {
	if queryEmbedding != nil {
		hits, err := e.store.Search(ctx, CacheCollectionName(bot), queryEmbedding, FallbackLimit, DefaultSimilarityThreshold)
		if err == nil && len(hits) > 0 {
			if response, ok := hits[0].Payload["response"].(string); ok {
				e.log.Info().Str("bot", bot).Msg("answered from cached responses after pipeline failure")
				return &PredictResult{Content: response, IsFromCache: true}, nil
			}
		}
	}
	if options.RaiseErrIfNotExists {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to answer query and no cached response exists", cause)
	}
	return &PredictResult{IsFailure: true, Exception: cause.Error()}, nil
}

// AddContent stores a new vector content row for later indexing.
func (e *Engine) AddContent(ctx context.Context, content *VectorContent) error {
	if content.VectorID == "" {
		content.VectorID = uuid.NewString()
	}
	if content.ContentType != ContentTypeText && content.ContentType != ContentTypeJSON {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown content type %q", content.ContentType), nil)
	}
	if _, err := content.embeddableText(); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"content is not embeddable", err)
	}
	return e.contents.Create(ctx, content)
}

// ListContent returns every stored vector content row for a bot.
func (e *Engine) ListContent(ctx context.Context, bot string) ([]VectorContent, error) {
	return e.contents.ListByBot(ctx, bot)
}

// DeleteContent removes a vector content row. The vector store keeps its
// embedding until the next Train rebuilds the collections.
func (e *Engine) DeleteContent(ctx context.Context, id uint, bot string) error {
	return e.contents.Delete(ctx, id, bot)
}
