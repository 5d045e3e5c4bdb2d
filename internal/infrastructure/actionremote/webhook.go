package actionremote

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/botforge/botforge/internal/domain/action"
	"github.com/botforge/botforge/internal/domain/corpus"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// NewWebhookFactory builds HTTP action handlers that call the bot's
// configured action endpoint with the Rasa action-server webhook contract.
func NewWebhookFactory(corpusService *corpus.Service, client *resty.Client) action.HandlerFactory {
	return func(bot, actionName string) (action.Handler, error) {
		return &webhookHandler{
			corpus:     corpusService,
			client:     client,
			bot:        bot,
			actionName: actionName,
		}, nil
	}
}

type webhookHandler struct {
	corpus     *corpus.Service
	client     *resty.Client
	bot        string
	actionName string
}

var _ action.Handler = (*webhookHandler)(nil)

type webhookRequest struct {
	NextAction string          `json:"next_action"`
	SenderID   string          `json:"sender_id"`
	Tracker    *action.Tracker `json:"tracker"`
	Domain     *action.Domain  `json:"domain"`
}

func (h *webhookHandler) Execute(ctx context.Context, tracker *action.Tracker, domain *action.Domain) (*action.Result, error) {
	endpoints, err := h.corpus.GetEndpoints(ctx, h.bot)
	if err != nil {
		return nil, err
	}
	if endpoints == nil || endpoints.ActionEndpoint == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeGate,
			fmt.Sprintf("bot %s has no action endpoint configured", h.bot), nil)
	}

	var result action.Result
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(webhookRequest{
			NextAction: h.actionName,
			SenderID:   tracker.SenderID,
			Tracker:    tracker,
			Domain:     domain,
		}).
		SetResult(&result).
		Post(strings.TrimRight(endpoints.ActionEndpoint, "/") + "/webhook")
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "action webhook request failed")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("action webhook returned status %d", resp.StatusCode()), nil)
	}
	return &result, nil
}
