package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	h := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{Timestamp: time.Now(), FlowID: "support"}

	h.OnRoute(ctx, &domain.RouteEvent{EventBase: base, Kind: domain.EventText, Route: domain.RouteCommand, Actions: 3, Duration: time.Millisecond})
	h.OnRoute(ctx, &domain.RouteEvent{EventBase: base, Kind: domain.EventText, Route: domain.RouteCommand, Actions: 1})
	h.OnNodeVisit(ctx, &domain.NodeEvent{EventBase: base, NodeID: "m1", NodeKind: domain.KindMessage})
	h.OnDelivery(ctx, &domain.DeliveryEvent{EventBase: base, Action: domain.ActionSendText})
	h.OnDelivery(ctx, &domain.DeliveryEvent{EventBase: base, Action: domain.ActionSendText, Err: errors.New("x")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("support", "text", "command")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ActionsEmitted.WithLabelValues("support")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisitsTotal.WithLabelValues("support", "message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("support", "send_text", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("support", "send_text", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnNodeVisit(context.Background(), &domain.NodeEvent{EventBase: domain.EventBase{FlowID: "f"}, NodeKind: domain.KindDelay})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `botflow_node_visits_total{flow_id="f",node_kind="delay"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMerge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnRoute: func(context.Context, *domain.RouteEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnRoute:     func(context.Context, *domain.RouteEvent) { calls = append(calls, "b") },
		OnNodeVisit: func(context.Context, *domain.NodeEvent) { calls = append(calls, "b-visit") },
	}

	merged := observability.Merge(a, domain.LifecycleHooks{}, b)
	merged.OnRoute(context.Background(), &domain.RouteEvent{})
	merged.OnNodeVisit(context.Background(), &domain.NodeEvent{})
	assert.Nil(t, merged.OnDelivery)
	assert.Equal(t, []string{"a", "b", "b-visit"}, calls)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := observability.LogHooks(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	ctx := context.Background()

	h.OnRoute(ctx, &domain.RouteEvent{EventBase: domain.EventBase{FlowID: "f"}, ConversationID: "42", Route: domain.RouteResume})
	h.OnNodeVisit(ctx, &domain.NodeEvent{NodeID: "hidden"})
	h.OnDelivery(ctx, &domain.DeliveryEvent{Action: domain.ActionSendText})
	h.OnDelivery(ctx, &domain.DeliveryEvent{Action: domain.ActionSendImage, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "route=resume")
	assert.Contains(t, out, "conversation_id=42")
	assert.NotContains(t, out, "hidden", "node visits are debug")
	assert.Contains(t, out, "delivery_failed")
	assert.Contains(t, out, "err=boom")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
