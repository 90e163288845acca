package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/presentation/graph"
	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/intake"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// DefaultMaxBodySize bounds request bodies. Telegram updates are far smaller.
const DefaultMaxBodySize = 1 << 20

// Server exposes flows over HTTP: the Telegram webhook, the simulator and
// read-only graph introspection.
type Server struct {
	engine     ports.FlowEngine
	processors map[string]intake.Handler
	metrics    http.Handler
	logger     *slog.Logger
	maxBody    int64
}

// Option configures the Server.
type Option func(*Server)

// WithProcessor serves the webhook of flowID with h.
// Flows without a processor answer 404 on their webhook.
func WithProcessor(flowID string, h intake.Handler) Option {
	return func(s *Server) {
		s.processors[flowID] = h
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.FlowEngine, opts ...Option) http.Handler {
	s := &Server{
		engine:     engine,
		processors: make(map[string]intake.Handler),
		logger:     logging.NewNop(),
		maxBody:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(HandlerFromMux(s, r))
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Botflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Flows(r.Context())
	if err != nil {
		s.fail(w, "list flows", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, FlowList{Flows: ids})
}

// GetGraph handles the GET /flows/{flowID}/graph request.
// ?format=mermaid returns a flowchart instead of the editor document.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, flowID FlowID, params GetGraphParams) {
	format := GetGraphParamsFormatJson
	if params.Format != nil {
		format = *params.Format
	}
	if format != GetGraphParamsFormatJson && format != GetGraphParamsFormatMermaid {
		http.Error(w, fmt.Sprintf("Unknown format %q", format), http.StatusBadRequest)
		return
	}

	flow, err := s.engine.Flow(r.Context(), flowID)
	if err != nil {
		s.fail(w, "load flow", err)
		return
	}

	if format == GetGraphParamsFormatMermaid {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, graph.GenerateMermaid(flow, nil))
		return
	}
	writeJSON(w, http.StatusOK, FlowDocument(flow.Spec()))
}

// Simulate handles the POST /flows/{flowID}/simulate request.
// Nothing is persisted and delays are not honored.
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request, flowID FlowID) {
	var body SimulateJSONRequestBody
	if err := xjson.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	ev := mapEventToDomain(body.Event)
	var prior *domain.State
	if body.State != nil {
		prior = mapStateToDomain(*body.State)
	}

	outcome, err := s.engine.Simulate(r.Context(), flowID, ev, prior)
	if err != nil {
		s.fail(w, "simulate", err)
		return
	}

	rec := dispatch.NewRecorder()
	d := dispatch.New(rec, dispatch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	d.Deliver(r.Context(), ev.ConversationID, outcome.Result.Actions)

	sent := rec.Sent()
	if sent == nil {
		sent = []SentCall{}
	}
	writeJSON(w, http.StatusOK, SimulateResponse{
		Result: mapResultFromDomain(outcome.Result),
		State:  mapStateFromDomain(outcome.State),
		Diff:   outcome.Diff(),
		Sent:   sent,
	})
}

// Webhook handles the POST /webhook/{flowID} request.
// Any update that decodes is answered 200 so the provider does not redeliver
// it; processing failures are logged instead.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request, flowID FlowID) {
	h, ok := s.processors[flowID]
	if !ok {
		http.Error(w, fmt.Sprintf("No webhook for flow %q", flowID), http.StatusNotFound)
		return
	}

	var update WebhookJSONRequestBody
	if err := xjson.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&update); err != nil {
		http.Error(w, fmt.Sprintf("Invalid update: %v", err), http.StatusBadRequest)
		return
	}

	if ev, ok := update.Event(); ok {
		// Detached: a client hanging up must not cut a turn short mid-delivery.
		ctx := context.WithoutCancel(r.Context())
		if _, _, err := h.Process(ctx, flowID, ev); err != nil {
			s.logger.Error("webhook processing failed",
				"flow_id", flowID,
				"conversation_id", ev.ConversationID,
				"update_id", update.UpdateID,
				"err", err,
			)
		}
	}
	writeJSON(w, http.StatusOK, WebhookAck{Ok: true})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrFlowNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Error(op+" failed", "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := xjson.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// -- Helpers --

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// mapEventToDomain fills the defaults of a hand-written event: a missing
// kind is a text message.
func mapEventToDomain(e Event) domain.Event {
	ev := domain.Event{
		Kind:           domain.EventText,
		ConversationID: e.ConversationId,
		Text:           deref(e.Text),
		CallbackID:     deref(e.CallbackId),
		UpdateID:       deref(e.UpdateId),
	}
	if e.Kind != nil && *e.Kind != "" {
		ev.Kind = domain.EventKind(*e.Kind)
	}
	return ev
}

func mapStateToDomain(s ConversationState) *domain.State {
	d := domain.NewState()
	d.PendingNodeID = deref(s.PendingNodeId)
	for k, v := range s.Variables {
		d.Variables[k] = v
	}
	return d
}

func mapStateFromDomain(d *domain.State) ConversationState {
	s := ConversationState{Variables: map[string]string{}}
	if d == nil {
		return s
	}
	if d.PendingNodeID != "" {
		s.PendingNodeId = ptr(d.PendingNodeID)
	}
	for k, v := range d.Variables {
		s.Variables[k] = v
	}
	return s
}

func mapResultFromDomain(r domain.Result) RouteResult {
	res := RouteResult{
		Route:   Route(r.Route),
		Actions: r.Actions,
	}
	if res.Actions == nil {
		res.Actions = []Action{}
	}
	if r.PendingNodeID != "" {
		res.PendingNodeId = ptr(r.PendingNodeID)
	}
	if len(r.Assignments) > 0 {
		as := make([]Assignment, len(r.Assignments))
		for i, a := range r.Assignments {
			as[i] = Assignment{Name: a.Name, Value: a.Value}
		}
		res.Assignments = &as
	}
	if len(r.Visited) > 0 {
		res.Visited = ptr(r.Visited)
	}
	return res
}
