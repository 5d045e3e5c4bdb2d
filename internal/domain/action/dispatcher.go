package action

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Dispatcher resolves an action name to its typed handler and runs it.
// Unknown action names are not an error: dispatch returns an empty result so
// the runtime can continue the conversation.
type Dispatcher struct {
	registry  Registry
	factories map[Type]HandlerFactory
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher with the given handler factories.
func NewDispatcher(registry Registry, factories map[Type]HandlerFactory, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, factories: factories, log: log}
}

// Register adds or replaces the factory for one action type.
func (d *Dispatcher) Register(actionType Type, factory HandlerFactory) {
	if d.factories == nil {
		d.factories = make(map[Type]HandlerFactory)
	}
	d.factories[actionType] = factory
}

// Dispatch looks up the action's type, instantiates its handler and executes
// it against the tracker and domain snapshot.
func (d *Dispatcher) Dispatch(ctx context.Context, actionName string, tracker *Tracker, domain *Domain) (*Result, error) {
	actionType, found, err := d.registry.LookupType(ctx, domain.Bot, actionName)
	if err != nil {
		return nil, err
	}
	if !found {
		d.log.Debug().Str("bot", domain.Bot).Str("action", actionName).Msg("unknown action name, returning empty result")
		return &Result{Events: []Event{}, Responses: []Response{}}, nil
	}

	factory, ok := d.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for action type %q", actionType)
	}
	handler, err := factory(domain.Bot, actionName)
	if err != nil {
		return nil, err
	}

	result, err := handler.Execute(ctx, tracker, domain)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	result.Events = append(result.Events, Event{Name: ResponseEventName, Key: actionName})
	return result, nil
}
