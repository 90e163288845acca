package intake

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Backoff bounds for transient receive failures.
const (
	DefaultBackoffMin = time.Second
	DefaultBackoffMax = 30 * time.Second
)

// WebhookRemover is implemented by receivers that must drop a push
// registration before they can be polled.
type WebhookRemover interface {
	DeleteWebhook(ctx context.Context) error
}

// Poller long-polls a Receiver for one flow.
type Poller struct {
	flowID   string
	receiver ports.Receiver
	handler  Handler
	logger   *slog.Logger

	backoffMin  time.Duration
	backoffMax  time.Duration
	concurrency int
	sleep       func(context.Context, time.Duration) error

	offset atomic.Int64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets the logger.
func WithPollerLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// WithBackoff sets the retry delay bounds. The delay starts at min, doubles on
// each consecutive failure up to max, and resets after a successful receive.
func WithBackoff(lo, hi time.Duration) PollerOption {
	return func(p *Poller) {
		if lo > 0 {
			p.backoffMin = lo
		}
		if hi >= p.backoffMin {
			p.backoffMax = hi
		}
	}
}

// WithConcurrency caps how many conversations of a batch are processed at once.
func WithConcurrency(n int) PollerOption {
	return func(p *Poller) { p.concurrency = n }
}

// WithOffset sets the first offset to request.
func WithOffset(offset int64) PollerOption {
	return func(p *Poller) { p.offset.Store(offset) }
}

// WithPollerSleep replaces the backoff wait.
func WithPollerSleep(fn func(context.Context, time.Duration) error) PollerOption {
	return func(p *Poller) { p.sleep = fn }
}

// NewPoller creates a Poller feeding flowID's events from receiver to handler.
func NewPoller(flowID string, receiver ports.Receiver, handler Handler, opts ...PollerOption) *Poller {
	p := &Poller{
		flowID:     flowID,
		receiver:   receiver,
		handler:    handler,
		logger:     logging.NewNop(),
		backoffMin: DefaultBackoffMin,
		backoffMax: DefaultBackoffMax,
		sleep:      dispatch.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Offset is the next offset the poller will request.
func (p *Poller) Offset() int64 {
	return p.offset.Load()
}

// Run polls until ctx is cancelled and then returns nil. Receive errors are
// retried with backoff. Once a batch has been received it is processed to
// completion even if ctx is cancelled meanwhile; the offset advances only
// after the batch is done.
func (p *Poller) Run(ctx context.Context) error {
	if r, ok := p.receiver.(WebhookRemover); ok {
		if err := r.DeleteWebhook(ctx); err != nil {
			p.logger.Warn("could not remove webhook before polling", "flow_id", p.flowID, "err", err)
		}
	}

	p.logger.Info("polling started", "flow_id", p.flowID, "offset", p.Offset())
	defer p.logger.Info("polling stopped", "flow_id", p.flowID, "offset", p.Offset())

	delay := p.backoffMin
	for ctx.Err() == nil {
		events, next, err := p.receiver.Receive(ctx, p.Offset())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("receive failed", "flow_id", p.flowID, "retry_in", delay, "err", err)
			if p.sleep(ctx, delay) != nil {
				return nil
			}
			delay = min(delay*2, p.backoffMax)
			continue
		}
		delay = p.backoffMin

		p.process(context.WithoutCancel(ctx), events)
		p.offset.Store(next)
	}
	return nil
}

// process runs the batch with one goroutine per conversation. Events of the
// same conversation stay sequential, in arrival order.
func (p *Poller) process(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	var order []string
	byConv := make(map[string][]domain.Event)
	for _, ev := range events {
		if _, ok := byConv[ev.ConversationID]; !ok {
			order = append(order, ev.ConversationID)
		}
		byConv[ev.ConversationID] = append(byConv[ev.ConversationID], ev)
	}

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for _, conv := range order {
		batch := byConv[conv]
		g.Go(func() error {
			for _, ev := range batch {
				if _, _, err := p.handler.Process(ctx, p.flowID, ev); err != nil {
					p.logger.Error("event processing failed",
						"flow_id", p.flowID,
						"conversation_id", ev.ConversationID,
						"update_id", ev.UpdateID,
						"err", err,
					)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
