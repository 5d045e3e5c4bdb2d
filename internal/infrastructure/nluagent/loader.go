// Package nluagent loads serving agents from trained artefacts. A bot whose
// endpoints name a model runtime is served over HTTP; otherwise a corpus
// backed agent answers from the stored stories and responses.
package nluagent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/botforge/botforge/internal/domain/agent"
	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/infrastructure/modelstore"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Loader implements agent.Loader on top of the artefact store.
type Loader struct {
	store  *modelstore.Store
	corpus *corpus.Service
	client *resty.Client
	log    zerolog.Logger
}

func NewLoader(store *modelstore.Store, corpusService *corpus.Service, client *resty.Client, log zerolog.Logger) *Loader {
	return &Loader{
		store:  store,
		corpus: corpusService,
		client: client,
		log:    log.With().Str("component", "agent_loader").Logger(),
	}
}

var _ agent.Loader = (*Loader)(nil)

func (l *Loader) Load(ctx context.Context, bot string) (agent.Agent, error) {
	modelPath, err := l.store.LatestModelPath(bot)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to resolve model artefact")
	}
	if modelPath == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeGate,
			fmt.Sprintf("bot %s has not been trained yet", bot), nil)
	}

	endpoints, err := l.corpus.GetEndpoints(ctx, bot)
	if err != nil {
		return nil, err
	}
	if endpoints != nil && endpoints.BotEndpoint != "" {
		l.log.Debug().Str("bot", bot).Str("endpoint", endpoints.BotEndpoint).Msg("loaded remote agent")
		return newRemoteAgent(l.client, endpoints.BotEndpoint, bot), nil
	}
	l.log.Debug().Str("bot", bot).Str("model_path", modelPath).Msg("loaded corpus agent")
	return newCorpusAgent(l.corpus, bot), nil
}
