// Package llm adapts the OpenAI-compatible chat and embedding APIs behind
// the rag.LLMClient contract, resolving per-bot credentials at call time.
package llm

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/domain/secret"
	"github.com/botforge/botforge/internal/infrastructure/metrics"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Client implements rag.LLMClient. Credentials are looked up per bot on each
// call so secret rotation takes effect without a restart.
type Client struct {
	resolver       *secret.Resolver
	provider       string
	chatModel      string
	embeddingModel string
	log            zerolog.Logger
}

func NewClient(resolver *secret.Resolver, provider, chatModel, embeddingModel string, log zerolog.Logger) *Client {
	return &Client{
		resolver:       resolver,
		provider:       provider,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		log:            log.With().Str("component", "llm").Logger(),
	}
}

var _ rag.LLMClient = (*Client)(nil)

func (c *Client) apiClient(ctx context.Context, bot string) (*openai.Client, error) {
	creds, err := c.resolver.GetLLMSecret(ctx, c.provider, bot)
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(creds.APIKey)
	if creds.APIBaseURL != "" {
		cfg.BaseURL = creds.APIBaseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}

func (c *Client) Embed(ctx context.Context, bot, text string) ([]float32, error) {
	api, err := c.apiClient(ctx, bot)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"embedding response contains no vectors", nil)
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) ChatCompletion(ctx context.Context, bot string, messages []rag.Message, params rag.Hyperparameters) (string, error) {
	api, err := c.apiClient(ctx, bot)
	if err != nil {
		return "", err
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}
	request := openai.ChatCompletionRequest{
		Model:            c.chatModel,
		Messages:         chatMessages,
		Temperature:      params.Temperature,
		MaxTokens:        params.MaxTokens,
		N:                params.N,
		TopP:             params.TopP,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}

	start := time.Now()
	defer func() {
		metrics.CompletionDuration.Observe(time.Since(start).Seconds())
	}()

	if params.Stream {
		return c.streamCompletion(ctx, api, request)
	}

	resp, err := api.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion returned no choices", nil)
	}
	choice := resp.Choices[rand.Intn(len(resp.Choices))]
	return choice.Message.Content, nil
}

// streamCompletion consumes a completion stream and reassembles one choice.
// With n > 1 the deltas of every candidate arrive interleaved; one candidate
// index is picked at random and the others discarded.
func (c *Client) streamCompletion(ctx context.Context, api *openai.Client, request openai.ChatCompletionRequest) (string, error) {
	request.Stream = true
	stream, err := api.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion stream failed", err)
	}
	defer stream.Close()

	candidates := map[int]*strings.Builder{}
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
				"chat completion stream interrupted", err)
		}
		for _, choice := range chunk.Choices {
			builder, ok := candidates[choice.Index]
			if !ok {
				builder = &strings.Builder{}
				candidates[choice.Index] = builder
			}
			builder.WriteString(choice.Delta.Content)
		}
	}
	if len(candidates) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"chat completion stream produced no content", nil)
	}
	picked := rand.Intn(len(candidates))
	builder, ok := candidates[picked]
	if !ok {
		// indices are not guaranteed contiguous; fall back to any candidate
		for _, b := range candidates {
			builder = b
			break
		}
	}
	c.log.Debug().Int("candidates", len(candidates)).Int("chars", builder.Len()).Msg("assembled streamed completion")
	return builder.String(), nil
}
