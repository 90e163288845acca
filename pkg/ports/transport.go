package ports

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
)

// Transport sends output to the end user through a messaging provider.
type Transport interface {
	SendText(ctx context.Context, conversationID, text string, buttons []domain.Button) error
	SendImage(ctx context.Context, conversationID, imageURL, caption string) error
	SendTyping(ctx context.Context, conversationID string) error

	// AnswerCallback acknowledges a button click.
	AnswerCallback(ctx context.Context, callbackID string) error
}

// CommandRegistrar publishes the commands a bot understands.
type CommandRegistrar interface {
	RegisterCommands(ctx context.Context, commands []domain.Command) error
}

// Receiver pulls inbound events with a cursor.
type Receiver interface {
	// Receive returns the events at or after offset, waiting up to the
	// provider's long-poll timeout, and the offset to use for the next call.
	Receive(ctx context.Context, offset int64) ([]domain.Event, int64, error)
}

// Deliverer turns interpreter actions into transport calls.
type Deliverer interface {
	Deliver(ctx context.Context, conversationID string, actions []domain.Action) domain.DeliveryReport
	Acknowledge(ctx context.Context, callbackID string) error
}

// FlowEngine is the driving port used by push adapters (HTTP, MCP, CLI).
type FlowEngine interface {
	// Handle processes one event with persisted, serialized state.
	Handle(ctx context.Context, flowID string, event domain.Event) (domain.Outcome, error)

	// Simulate routes one event against the given state without persisting.
	Simulate(ctx context.Context, flowID string, event domain.Event, state *domain.State) (domain.Outcome, error)

	// Flow returns the flow definition.
	Flow(ctx context.Context, flowID string) (*domain.Flow, error)

	// Flows lists the available flow ids.
	Flows(ctx context.Context) ([]string, error)
}
