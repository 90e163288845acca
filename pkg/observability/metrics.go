package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot runtime collectors.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal     *prometheus.CounterVec
	RouteDuration   *prometheus.HistogramVec
	ActionsEmitted  *prometheus.CounterVec
	NodeVisitsTotal *prometheus.CounterVec
	DeliveriesTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors, plus the Go and process collectors,
// on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botflow_events_total",
				Help: "Inbound events handled, by route",
			},
			[]string{"flow_id", "kind", "route"},
		),
		RouteDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botflow_route_duration_seconds",
				Help:    "Time to load state, route and persist one event",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"flow_id"},
		),
		ActionsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botflow_actions_emitted_total",
				Help: "Actions produced by the interpreter",
			},
			[]string{"flow_id"},
		),
		NodeVisitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botflow_node_visits_total",
				Help: "Nodes executed, by kind",
			},
			[]string{"flow_id", "node_kind"},
		),
		DeliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botflow_deliveries_total",
				Help: "Actions handed to the transport, by result",
			},
			[]string{"flow_id", "action", "result"}, // ok, error
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.EventsTotal.WithLabelValues(e.FlowID, string(e.Kind), string(e.Route)).Inc()
			m.RouteDuration.WithLabelValues(e.FlowID).Observe(e.Duration.Seconds())
			m.ActionsEmitted.WithLabelValues(e.FlowID).Add(float64(e.Actions))
		},
		OnNodeVisit: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisitsTotal.WithLabelValues(e.FlowID, string(e.NodeKind)).Inc()
		},
		OnDelivery: func(_ context.Context, e *domain.DeliveryEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.DeliveriesTotal.WithLabelValues(e.FlowID, string(e.Action), result).Inc()
		},
	}
}
