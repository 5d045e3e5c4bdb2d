package nluagent

import (
	"context"

	"github.com/botforge/botforge/internal/domain/agent"
	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

const fallbackIntent = "nlu_fallback"

// corpusAgent answers directly from the stored corpus: an utterance matching
// a training example resolves to its intent, and the reply is the first
// utterance action of the oldest story opening with that intent.
type corpusAgent struct {
	corpus *corpus.Service
	bot    string
}

func newCorpusAgent(corpusService *corpus.Service, bot string) *corpusAgent {
	return &corpusAgent{corpus: corpusService, bot: bot}
}

var _ agent.Agent = (*corpusAgent)(nil)

func (a *corpusAgent) Parse(ctx context.Context, text string) (*agent.ParseResult, error) {
	intent, confidence, err := a.corpus.MatchIntent(ctx, text, a.bot)
	if err != nil {
		return nil, err
	}
	if intent == "" {
		return &agent.ParseResult{Intent: fallbackIntent, Confidence: 0}, nil
	}
	return &agent.ParseResult{Intent: intent, Confidence: confidence}, nil
}

func (a *corpusAgent) HandleText(ctx context.Context, text, conversationID string) ([]agent.Message, error) {
	parsed, err := a.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	if parsed.Intent == fallbackIntent {
		return nil, nil
	}
	utterance, err := a.corpus.GetUtteranceFromIntent(ctx, parsed.Intent, a.bot)
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	reply, err := a.corpus.GetResponseText(ctx, utterance, a.bot)
	if err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []agent.Message{{Text: reply}}, nil
}
