package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/presentation/graph"
	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/intake"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowURIPrefix prefixes the resource URI of every flow.
const FlowURIPrefix = "botflow://flows/"

// SimulateArgs are the arguments of the simulate tool.
type SimulateArgs struct {
	FlowID         string `json:"flow_id"`
	Text           string `json:"text"`
	Callback       bool   `json:"callback,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	State          string `json:"state,omitempty"`
}

// SimulateResponse is the structured result of the simulate tool.
type SimulateResponse struct {
	Route   domain.Route      `json:"route" jsonschema_description:"How the event was routed"`
	Actions []domain.Action   `json:"actions" jsonschema_description:"Outputs the bot would send, in order"`
	State   *domain.State     `json:"state" jsonschema_description:"Conversation state after the event"`
	Diff    *domain.StateDiff `json:"diff,omitempty" jsonschema_description:"What changed in the state"`
}

// FlowArgs select a flow.
type FlowArgs struct {
	FlowID string `json:"flow_id"`
	Format string `json:"format,omitempty"`
}

// ValidateResponse is the structured result of the validate_flow tool.
type ValidateResponse struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Unreachable []string `json:"unreachable,omitempty" jsonschema_description:"Nodes no entry point leads to"`
}

// NodeArgs select one node of a flow.
type NodeArgs struct {
	FlowID string `json:"flow_id"`
	NodeID string `json:"node_id"`
}

// Server wraps the engine and exposes its flows as an MCP Server.
type Server struct {
	engine    ports.FlowEngine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.FlowEngine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("botflow-mcp", strings.TrimSpace(botflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the ids of the available flows."),
	), s.handleListFlows)

	simulateTool := mcp.NewTool("simulate",
		mcp.WithDescription("Route one user message or button click through a flow without persisting anything. Pass the returned state back to continue the conversation."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to run")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text, or callback data when callback is true")),
		mcp.WithBoolean("callback", mcp.Description("Treat text as the data of a clicked button")),
		mcp.WithString("conversation_id", mcp.Description("Conversation id used in interpolation and logs (default: mcp)")),
		mcp.WithString("state", mcp.Description(`JSON state from a previous call, e.g. {"pending_node_id":"ask","variables":{}}`)),
		mcp.WithOutputSchema[SimulateResponse](),
	)
	s.mcpServer.AddTool(simulateTool, mcp.NewStructuredToolHandler(s.handleSimulate))

	validateTool := mcp.NewTool("validate_flow",
		mcp.WithDescription("Check a flow for structural problems: dangling edges, duplicate ids or triggers, bad payloads."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to check")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full graph definition of a flow."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to describe")),
		mcp.WithString("format", mcp.Description("json (editor export, default) or mermaid")),
	), mcp.NewTypedToolHandler(s.handleGetGraph))

	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one node of a flow with its outgoing edges."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow id")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
	), mcp.NewTypedToolHandler(s.handleGetNode))
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.Flows(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args SimulateArgs) (SimulateResponse, error) {
	text, err := intake.Sanitize(args.Text, intake.DefaultMaxInputSize)
	if err != nil {
		s.logger.Warn("MCP simulate: input rejected", "err", err, "size", len(args.Text))
		return SimulateResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	conv := args.ConversationID
	if conv == "" {
		conv = "mcp"
	}
	ev := domain.TextEvent(conv, text)
	if args.Callback {
		ev = domain.CallbackEvent(conv, "", text)
	}

	var state *domain.State
	if args.State != "" {
		state = domain.NewState()
		if err := xjson.Unmarshal([]byte(args.State), state); err != nil {
			return SimulateResponse{}, fmt.Errorf("invalid state: %w", err)
		}
	}

	outcome, err := s.engine.Simulate(ctx, args.FlowID, ev, state)
	if err != nil {
		return SimulateResponse{}, fmt.Errorf("simulate failed: %w", err)
	}
	actions := outcome.Result.Actions
	if actions == nil {
		actions = []domain.Action{}
	}
	return SimulateResponse{
		Route:   outcome.Result.Route,
		Actions: actions,
		State:   outcome.State,
		Diff:    outcome.Diff(),
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (ValidateResponse, error) {
	flow, err := s.engine.Flow(ctx, args.FlowID)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("load failed: %w", err)
	}

	resp := ValidateResponse{Valid: true, Errors: []string{}}
	if err := schema.ValidateFlow(flow); err != nil {
		resp.Valid = false
		for _, e := range schema.ValidationErrors(err) {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	resp.Unreachable = schema.Unreachable(flow)
	return resp, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (*mcp.CallToolResult, error) {
	flow, err := s.engine.Flow(ctx, args.FlowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if args.Format == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(flow, nil)), nil
	}
	b, err := xjson.Marshal(flow.Spec())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

// nodeView is a node plus the edges leaving it.
type nodeView struct {
	Node  domain.Node   `json:"node"`
	Edges []domain.Edge `json:"edges"`
}

func (s *Server) handleGetNode(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, error) {
	flow, err := s.engine.Flow(ctx, args.FlowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	n, err := flow.Lookup(args.NodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	view := nodeView{Node: n, Edges: []domain.Edge{}}
	for _, e := range flow.Graph.Edges() {
		if e.Source == n.ID {
			view.Edges = append(view.Edges, e)
		}
	}
	b, err := xjson.Marshal(view)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(FlowURIPrefix+"{id}", "Flow definition",
			mcp.WithTemplateDescription("Editor export of a flow"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readFlow,
	)
}

func (s *Server) readFlow(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, FlowURIPrefix)
	if id == uri || id == "" {
		return nil, fmt.Errorf("unsupported resource %q", uri)
	}

	flow, err := s.engine.Flow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	b, err := xjson.Marshal(flow.Spec())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
