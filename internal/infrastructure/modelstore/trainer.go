package modelstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Trainer snapshots a bot's corpus into an artefact. When a remote trainer
// URL is configured the serialised bundle is sent there first so the NLU
// pipeline can build the model; either way the snapshot lands in the store.
type Trainer struct {
	exporter   *corpus.Importer
	store      *Store
	client     *resty.Client
	trainerURL string
	log        zerolog.Logger
}

func NewTrainer(exporter *corpus.Importer, store *Store, client *resty.Client, trainerURL string, log zerolog.Logger) *Trainer {
	if client != nil {
		client.SetTimeout(10 * time.Minute)
	}
	return &Trainer{
		exporter:   exporter,
		store:      store,
		client:     client,
		trainerURL: strings.TrimRight(trainerURL, "/"),
		log:        log.With().Str("component", "trainer").Logger(),
	}
}

var _ training.Trainer = (*Trainer)(nil)

type remoteTrainRequest struct {
	Bot     string `json:"bot"`
	NLU     string `json:"nlu"`
	Domain  string `json:"domain"`
	Stories string `json:"stories"`
	Config  string `json:"config"`
}

func (t *Trainer) Train(ctx context.Context, bot string) (string, error) {
	files, err := t.exporter.ExportFiles(ctx, bot)
	if err != nil {
		return "", err
	}
	if len(files.NLU) == 0 && len(files.Stories) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("bot %s has no training data", bot), nil)
	}

	if t.trainerURL != "" {
		if err := t.trainRemote(ctx, bot, files); err != nil {
			return "", err
		}
	}

	path, err := t.store.SaveArtifact(bot, files)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to persist model artefact")
	}
	t.log.Info().Str("bot", bot).Str("model_path", path).Msg("training artefact written")
	return path, nil
}

func (t *Trainer) trainRemote(ctx context.Context, bot string, files corpus.BundleFiles) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(remoteTrainRequest{
			Bot:     bot,
			NLU:     string(files.NLU),
			Domain:  string(files.Domain),
			Stories: string(files.Stories),
			Config:  string(files.Config),
		}).
		Post(t.trainerURL + "/model/train")
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "trainer request failed")
	}
	if resp.IsError() {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("trainer returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String())), nil)
	}
	return nil
}
