// Package vectorstore talks to the vector database over its REST API.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/botforge/botforge/internal/domain/rag"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Client implements rag.VectorStore over the HTTP API.
type Client struct {
	client  *resty.Client
	baseURL string
}

func NewClient(httpClient *resty.Client, baseURL string) *Client {
	httpClient.SetTimeout(30 * time.Second)
	return &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

var _ rag.VectorStore = (*Client)(nil)

type createCollectionRequest struct {
	Name    string        `json:"name"`
	Vectors vectorsConfig `json:"vectors"`
}

type vectorsConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type upsertRequest struct {
	Points []rag.Point `json:"points"`
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold,omitempty"`
	WithPayload    bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []rag.ScoredPoint `json:"result"`
}

type scrollRequest struct {
	Limit       int  `json:"limit"`
	WithPayload bool `json:"with_payload"`
	WithVector  bool `json:"with_vector"`
}

type scrollResponse struct {
	Result struct {
		Points []rag.Point `json:"points"`
	} `json:"result"`
}

func (c *Client) CreateCollection(ctx context.Context, name string, dimension int) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createCollectionRequest{Name: name, Vectors: vectorsConfig{Size: dimension, Distance: "Cosine"}}).
		Put(c.endpoint("/collections/" + name))
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "create collection request failed")
	}
	if resp.IsError() {
		return c.errorFromResponse(ctx, resp, fmt.Sprintf("create collection %s failed", name))
	}
	return nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(c.endpoint("/collections/" + name))
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "delete collection request failed")
	}
	// deleting an absent collection is not an error for callers
	if resp.IsError() && resp.StatusCode() != 404 {
		return c.errorFromResponse(ctx, resp, fmt.Sprintf("delete collection %s failed", name))
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, collection string, points []rag.Point) error {
	if len(points) == 0 {
		return nil
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(upsertRequest{Points: points}).
		Put(c.endpoint("/collections/" + collection + "/points"))
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "upsert points request failed")
	}
	if resp.IsError() {
		return c.errorFromResponse(ctx, resp, fmt.Sprintf("upsert into %s failed", collection))
	}
	return nil
}

func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64) ([]rag.ScoredPoint, error) {
	var respBody searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{
			Vector:         vector,
			Limit:          limit,
			ScoreThreshold: scoreThreshold,
			WithPayload:    true,
		}).
		SetResult(&respBody).
		Post(c.endpoint("/collections/" + collection + "/points/search"))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "search request failed")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, fmt.Sprintf("search in %s failed", collection))
	}
	return respBody.Result, nil
}

func (c *Client) Scroll(ctx context.Context, collection string, limit int) ([]rag.Point, error) {
	var respBody scrollResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(scrollRequest{Limit: limit, WithPayload: true, WithVector: true}).
		SetResult(&respBody).
		Post(c.endpoint("/collections/" + collection + "/points/scroll"))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "scroll request failed")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, fmt.Sprintf("scroll in %s failed", collection))
	}
	return respBody.Result.Points, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	body := strings.TrimSpace(resp.String())
	if body != "" {
		message = fmt.Sprintf("%s with status %d: %s", message, resp.StatusCode(), body)
	} else {
		message = fmt.Sprintf("%s with status %d", message, resp.StatusCode())
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil)
}
