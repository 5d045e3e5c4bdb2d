package actionremote

import (
	"context"

	"github.com/botforge/botforge/internal/domain/action"
	"github.com/botforge/botforge/internal/domain/corpus"
)

// Registry resolves action names against the corpus action table. Every
// registered action runs through the external action server webhook, so the
// lookup always yields the HTTP action type.
type Registry struct {
	repo corpus.Repository
}

func NewRegistry(repo corpus.Repository) *Registry {
	return &Registry{repo: repo}
}

var _ action.Registry = (*Registry)(nil)

func (r *Registry) LookupType(ctx context.Context, bot, actionName string) (action.Type, bool, error) {
	found, err := r.repo.FindAction(ctx, bot, actionName)
	if err != nil {
		return "", false, err
	}
	if found == nil {
		return "", false, nil
	}
	return action.TypeHTTP, true, nil
}
