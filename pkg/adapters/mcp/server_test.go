package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/xjson"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("shop")
	b.Add("start").Command("/start").Go("ask")
	b.Add("ask").Input("Which size?", "size").Go("done")
	b.Add("done").Message("Size {{size}} noted")
	b.Add("orphan").Message("never reached")
	loader, err := b.Loader()
	require.NoError(t, err)

	eng, err := botflow.New(loader)
	require.NoError(t, err)
	return NewServer(eng)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestSimulate_Conversation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	first, err := s.handleSimulate(ctx, mcp.CallToolRequest{}, SimulateArgs{FlowID: "shop", Text: "/start"})
	require.NoError(t, err)
	assert.Equal(t, domain.RouteCommand, first.Route)
	require.Len(t, first.Actions, 1)
	assert.Equal(t, "Which size?", first.Actions[0].Text)
	assert.Equal(t, "ask", first.State.PendingNodeID)

	state, err := xjson.Marshal(first.State)
	require.NoError(t, err)

	second, err := s.handleSimulate(ctx, mcp.CallToolRequest{}, SimulateArgs{FlowID: "shop", Text: "M", State: string(state)})
	require.NoError(t, err)
	assert.Equal(t, domain.RouteResume, second.Route)
	require.Len(t, second.Actions, 1)
	assert.Equal(t, "Size M noted", second.Actions[0].Text)
	assert.Equal(t, "M", second.State.Variables["size"])
	require.NotNil(t, second.Diff)
}

func TestSimulate_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSimulate(ctx, mcp.CallToolRequest{}, SimulateArgs{FlowID: "missing", Text: "/start"})
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	_, err = s.handleSimulate(ctx, mcp.CallToolRequest{}, SimulateArgs{FlowID: "shop", Text: "x", State: "{"})
	assert.Error(t, err)

	_, err = s.handleSimulate(ctx, mcp.CallToolRequest{}, SimulateArgs{FlowID: "shop", Text: "\xff"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, FlowArgs{FlowID: "shop"})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, []string{"orphan"}, resp.Unreachable)
}

func TestGetGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetGraph(ctx, mcp.CallToolRequest{}, FlowArgs{FlowID: "shop"})
	require.NoError(t, err)
	var spec domain.FlowSpec
	require.NoError(t, xjson.Unmarshal([]byte(resultText(t, res)), &spec))
	assert.Len(t, spec.Nodes, 4)
	assert.Len(t, spec.Edges, 2)

	res, err = s.handleGetGraph(ctx, mcp.CallToolRequest{}, FlowArgs{FlowID: "shop", Format: "mermaid"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "start --> ask")

	res, err = s.handleGetGraph(ctx, mcp.CallToolRequest{}, FlowArgs{FlowID: "missing"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetNode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetNode(ctx, mcp.CallToolRequest{}, NodeArgs{FlowID: "shop", NodeID: "ask"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var view struct {
		Node  domain.NodeSpec `json:"node"`
		Edges []domain.Edge   `json:"edges"`
	}
	require.NoError(t, xjson.Unmarshal([]byte(resultText(t, res)), &view))
	assert.Equal(t, "inputWait", view.Node.Type)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, "done", view.Edges[0].Target)

	res, err = s.handleGetNode(ctx, mcp.CallToolRequest{}, NodeArgs{FlowID: "shop", NodeID: "nope"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "node not found")
}

func TestListFlows(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleListFlows(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, "shop", resultText(t, res))
}

func TestReadFlowResource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	req := mcp.ReadResourceRequest{}
	req.Params.URI = FlowURIPrefix + "shop"
	contents, err := s.readFlow(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"command"`)

	req.Params.URI = "other://shop"
	_, err = s.readFlow(ctx, req)
	assert.Error(t, err)
}
