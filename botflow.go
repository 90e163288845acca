package botflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/runtime"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/session"
)

// Messages are the canned texts the interpreter emits on its own.
type Messages = runtime.Messages

// DefaultMessages returns the built-in canned texts.
func DefaultMessages() Messages {
	return runtime.DefaultMessages()
}

// ErrNoConversation is returned for events that do not name a conversation.
var ErrNoConversation = errors.New("event has no conversation id")

var _ ports.FlowEngine = (*Engine)(nil)

// Engine is the high-level entry point of the library. It loads flows, routes
// events through the interpreter and persists conversation state with
// per-conversation mutual exclusion.
type Engine struct {
	loader      ports.GraphLoader
	interpreter *runtime.Interpreter
	sessions    *session.Manager
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	store    ports.StateStore
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	messages *Messages
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMessages overrides canned texts. Empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(e *Engine) {
		e.messages = &m
	}
}

// WithStore sets where conversation state is persisted (default: in memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker adds a distributed lock around each event, for deployments
// where several replicas share a store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// New creates an Engine serving the flows of loader.
func New(loader ports.GraphLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("botflow: a graph loader is required")
	}
	e := &Engine{loader: loader}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	var rtOpts []runtime.Option
	if e.messages != nil {
		rtOpts = append(rtOpts, runtime.WithMessages(*e.messages))
	}
	e.interpreter = runtime.NewInterpreter(rtOpts...)

	sessOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker), session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(e.store, sessOpts...)
	return e, nil
}

// Handle routes one event of flowID against the persisted state of its
// conversation and saves the result. Concurrent calls for the same
// conversation are serialized.
func (e *Engine) Handle(ctx context.Context, flowID string, ev domain.Event) (domain.Outcome, error) {
	if ev.ConversationID == "" {
		return domain.Outcome{}, ErrNoConversation
	}
	flow, err := e.loader.Load(ctx, flowID)
	if err != nil {
		return domain.Outcome{}, err
	}

	start := time.Now()
	key := domain.ConversationKey{FlowID: flowID, ConversationID: ev.ConversationID}
	outcome, err := e.sessions.Process(ctx, key, func(_ context.Context, state *domain.State) (domain.Result, error) {
		return e.interpreter.Route(flow.Graph, ev, state), nil
	})
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("handle %s: %w", key, err)
	}

	e.emit(ctx, flow, ev, outcome.Result, time.Since(start))
	e.logger.Debug("event routed",
		"flow_id", flowID,
		"conversation_id", ev.ConversationID,
		"kind", ev.Kind,
		"route", outcome.Result.Route,
		"actions", len(outcome.Result.Actions),
		"assignments", len(outcome.Result.Assignments),
		"pending_node_id", outcome.State.PendingNodeID,
	)
	return outcome, nil
}

// Simulate routes one event against state without reading or writing the
// store. A nil state is a conversation that never interacted. Hooks do not fire.
func (e *Engine) Simulate(ctx context.Context, flowID string, ev domain.Event, state *domain.State) (domain.Outcome, error) {
	flow, err := e.loader.Load(ctx, flowID)
	if err != nil {
		return domain.Outcome{}, err
	}
	return e.Run(flow, ev, state), nil
}

// Run is Simulate for a flow the caller already holds.
func (e *Engine) Run(flow *domain.Flow, ev domain.Event, state *domain.State) domain.Outcome {
	prev := state.Snapshot()
	res := e.interpreter.Route(flow.Graph, ev, prev)
	return domain.Outcome{Result: res, Previous: prev, State: prev.Apply(res)}
}

// Flow returns the definition of flowID.
func (e *Engine) Flow(ctx context.Context, flowID string) (*domain.Flow, error) {
	return e.loader.Load(ctx, flowID)
}

// Flows lists the flows the loader knows.
func (e *Engine) Flows(ctx context.Context) ([]string, error) {
	return e.loader.List(ctx)
}

// State returns the persisted state of a conversation (fresh when absent).
func (e *Engine) State(ctx context.Context, flowID, conversationID string) (*domain.State, error) {
	return e.sessions.Load(ctx, domain.ConversationKey{FlowID: flowID, ConversationID: conversationID})
}

// Reset forgets a conversation: variables and pending node are dropped.
func (e *Engine) Reset(ctx context.Context, flowID, conversationID string) error {
	return e.sessions.Delete(ctx, domain.ConversationKey{FlowID: flowID, ConversationID: conversationID})
}

// Conversations lists the stored conversations of a flow.
func (e *Engine) Conversations(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	return e.sessions.List(ctx, flowID)
}

// Messages returns the canned texts in effect.
func (e *Engine) Messages() Messages {
	return e.interpreter.Messages()
}

func (e *Engine) emit(ctx context.Context, flow *domain.Flow, ev domain.Event, res domain.Result, took time.Duration) {
	base := domain.EventBase{Timestamp: time.Now(), FlowID: flow.ID}
	if e.hooks.OnNodeVisit != nil {
		for _, id := range res.Visited {
			n, _ := flow.Graph.Node(id)
			e.hooks.OnNodeVisit(ctx, &domain.NodeEvent{EventBase: base, NodeID: id, NodeKind: n.Kind()})
		}
	}
	if e.hooks.OnRoute != nil {
		e.hooks.OnRoute(ctx, &domain.RouteEvent{
			EventBase:      base,
			ConversationID: ev.ConversationID,
			Kind:           ev.Kind,
			Route:          res.Route,
			Actions:        len(res.Actions),
			PendingNodeID:  res.PendingNodeID,
			Duration:       took,
		})
	}
}
