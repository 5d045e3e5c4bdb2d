package nluagent

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/botforge/botforge/internal/domain/agent"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// remoteAgent proxies queries to a model runtime over its REST API.
type remoteAgent struct {
	client  *resty.Client
	baseURL string
	bot     string
}

func newRemoteAgent(client *resty.Client, baseURL, bot string) *remoteAgent {
	return &remoteAgent{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		bot:     bot,
	}
}

var _ agent.Agent = (*remoteAgent)(nil)

type parseRequest struct {
	Text string `json:"text"`
}

type webhookRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

func (a *remoteAgent) Parse(ctx context.Context, text string) (*agent.ParseResult, error) {
	var result agent.ParseResult
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(parseRequest{Text: text}).
		SetResult(&result).
		Post(a.baseURL + "/model/parse")
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "agent parse request failed")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("agent parse returned status %d", resp.StatusCode()), nil)
	}
	return &result, nil
}

func (a *remoteAgent) HandleText(ctx context.Context, text, conversationID string) ([]agent.Message, error) {
	var messages []agent.Message
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(webhookRequest{Sender: conversationID, Message: text}).
		SetResult(&messages).
		Post(a.baseURL + "/webhooks/rest/webhook")
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "agent message request failed")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("agent message returned status %d", resp.StatusCode()), nil)
	}
	return messages, nil
}
