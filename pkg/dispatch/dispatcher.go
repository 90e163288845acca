// Package dispatch delivers interpreter actions through a messaging transport.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

var _ ports.Deliverer = (*Dispatcher)(nil)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Dispatcher realizes actions in emission order. A failed action is logged
// and recorded in the report; delivery carries on with the next one.
type Dispatcher struct {
	transport ports.Transport
	flowID    string
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	sleep     SleepFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for delivery failures and log actions.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithFlowID tags logs and delivery events with the flow the transport serves.
func WithFlowID(id string) Option {
	return func(d *Dispatcher) { d.flowID = id }
}

// WithLifecycleHooks registers the OnDelivery hook.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(d *Dispatcher) { d.hooks = h }
}

// WithSleep replaces the wait used by delay actions.
func WithSleep(fn SleepFunc) Option {
	return func(d *Dispatcher) { d.sleep = fn }
}

// New creates a Dispatcher over transport.
func New(transport ports.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		logger:    logging.NewNop(),
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sleep is the default SleepFunc, a timer that gives up when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acknowledge answers a button click.
func (d *Dispatcher) Acknowledge(ctx context.Context, callbackID string) error {
	if callbackID == "" {
		return nil
	}
	if err := d.transport.AnswerCallback(ctx, callbackID); err != nil {
		d.logger.Warn("callback acknowledgement failed", "flow_id", d.flowID, "callback_id", callbackID, "err", err)
		return err
	}
	return nil
}

// Deliver sends actions to conversationID in order. When ctx is cancelled
// the remaining actions are counted as skipped.
func (d *Dispatcher) Deliver(ctx context.Context, conversationID string, actions []domain.Action) domain.DeliveryReport {
	var report domain.DeliveryReport
	for i, a := range actions {
		if ctx.Err() != nil {
			report.Skipped += len(actions) - i
			d.logger.Warn("delivery interrupted",
				"flow_id", d.flowID,
				"conversation_id", conversationID,
				"remaining", len(actions)-i,
				"err", ctx.Err(),
			)
			break
		}

		if a.Type == domain.ActionLog {
			d.logger.Info("flow log", "flow_id", d.flowID, "conversation_id", conversationID, "node_id", a.NodeID, "text", a.Text)
			report.Skipped++
			continue
		}

		err := d.deliver(ctx, conversationID, a)
		d.emit(ctx, conversationID, a, err)
		if err != nil {
			d.logger.Warn("action delivery failed",
				"flow_id", d.flowID,
				"conversation_id", conversationID,
				"node_id", a.NodeID,
				"action", a.Type,
				"err", err,
			)
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Delivered++
	}
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, conversationID string, a domain.Action) error {
	switch a.Type {
	case domain.ActionSendText:
		return d.transport.SendText(ctx, conversationID, a.Text, a.Buttons)
	case domain.ActionSendImage:
		return d.transport.SendImage(ctx, conversationID, a.ImageURL, a.Text)
	case domain.ActionDelay:
		var typingErr error
		if a.Typing {
			typingErr = d.transport.SendTyping(ctx, conversationID)
		}
		// The pause is honored even if the typing indicator failed.
		if err := d.sleep(ctx, time.Duration(a.Seconds)*time.Second); err != nil {
			return err
		}
		if typingErr != nil {
			return fmt.Errorf("typing indicator: %w", typingErr)
		}
		return nil
	default:
		return fmt.Errorf("unsupported action type %q", a.Type)
	}
}

func (d *Dispatcher) emit(ctx context.Context, conversationID string, a domain.Action, err error) {
	if d.hooks.OnDelivery == nil {
		return
	}
	d.hooks.OnDelivery(ctx, &domain.DeliveryEvent{
		EventBase:      domain.EventBase{Timestamp: time.Now(), FlowID: d.flowID},
		ConversationID: conversationID,
		Action:         a.Type,
		Err:            err,
	})
}
