package intake

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

// Handler processes one event of a flow.
type Handler interface {
	Process(ctx context.Context, flowID string, ev domain.Event) (domain.Outcome, domain.DeliveryReport, error)
}

// Processor runs one event end to end.
type Processor struct {
	engine       ports.FlowEngine
	deliverer    ports.Deliverer
	logger       *slog.Logger
	maxInputSize int
}

var _ Handler = (*Processor)(nil)

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) ProcessorOption {
	return func(p *Processor) { p.maxInputSize = n }
}

// NewProcessor wires an engine to a deliverer.
func NewProcessor(engine ports.FlowEngine, deliverer ports.Deliverer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		engine:       engine,
		deliverer:    deliverer,
		logger:       logging.NewNop(),
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process acknowledges a click (always, and first), then routes the event and
// delivers the actions. Events without a conversation and events rejected by
// the sanitizer are dropped without touching state.
// The returned error is only set when the engine failed; delivery problems
// are reported in the DeliveryReport.
func (p *Processor) Process(ctx context.Context, flowID string, ev domain.Event) (domain.Outcome, domain.DeliveryReport, error) {
	if ev.Kind == domain.EventCallback {
		// Failure is already logged by the deliverer; routing goes on.
		_ = p.deliverer.Acknowledge(ctx, ev.CallbackID)
	}
	if ev.ConversationID == "" {
		return domain.Outcome{}, domain.DeliveryReport{}, nil
	}

	text, err := Sanitize(ev.Text, p.maxInputSize)
	if err != nil {
		p.logger.Warn("event rejected",
			"flow_id", flowID,
			"conversation_id", ev.ConversationID,
			"update_id", ev.UpdateID,
			"err", err,
		)
		return domain.Outcome{}, domain.DeliveryReport{}, nil
	}
	ev.Text = text

	outcome, err := p.engine.Handle(ctx, flowID, ev)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			p.logger.Warn("event for unknown flow", "flow_id", flowID, "err", err)
		}
		return domain.Outcome{}, domain.DeliveryReport{}, err
	}

	report := p.deliverer.Deliver(ctx, ev.ConversationID, outcome.Result.Actions)
	p.logger.Debug("event processed",
		"flow_id", flowID,
		"conversation_id", ev.ConversationID,
		"route", outcome.Result.Route,
		"actions", len(outcome.Result.Actions),
		"delivered", report.Delivered,
		"failed", report.Failed(),
		"pending_node_id", outcome.State.PendingNodeID,
	)
	return outcome, report, nil
}
