package botflow_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signup(t *testing.T) *memory.Loader {
	t.Helper()
	b := dsl.New("signup")
	b.Add("start").Command("/start").Go("ask")
	b.Add("ask").Input("Your name?", "name").Go("thanks")
	b.Add("thanks").Message("Thanks, {{name}}")
	b.Add("hello").Command("/hello").Go("greet")
	b.Add("greet").Message("Hi {{name}}")
	b.Add("count").Command("/count").Go("counter")
	b.Add("counter").Message("tick")
	loader, err := b.Loader()
	require.NoError(t, err)
	return loader
}

func texts(actions []domain.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Text)
	}
	return out
}

func TestNew_RequiresLoader(t *testing.T) {
	_, err := botflow.New(nil)
	assert.Error(t, err)
}

func TestEngine_SuspendResumePersists(t *testing.T) {
	store := memory.NewStore()
	eng, err := botflow.New(signup(t), botflow.WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	out, err := eng.Handle(ctx, "signup", domain.TextEvent("42", "/start"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Your name?"}, texts(out.Result.Actions))
	assert.Equal(t, "ask", out.State.PendingNodeID)

	stored, err := store.Load(ctx, domain.ConversationKey{FlowID: "signup", ConversationID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "ask", stored.PendingNodeID)

	out, err = eng.Handle(ctx, "signup", domain.TextEvent("42", "Bob"))
	require.NoError(t, err)
	assert.Equal(t, domain.RouteResume, out.Result.Route)
	assert.Equal(t, []string{"Thanks, Bob"}, texts(out.Result.Actions))
	assert.Empty(t, out.State.PendingNodeID)

	// A later traversal that assigns nothing still sees the variable.
	out, err = eng.Handle(ctx, "signup", domain.TextEvent("42", "/hello"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi Bob"}, texts(out.Result.Actions))

	diff := out.Diff()
	assert.True(t, diff.IsEmpty())
}

func TestEngine_ConversationsAreIsolated(t *testing.T) {
	eng, err := botflow.New(signup(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Handle(ctx, "signup", domain.TextEvent("1", "/start"))
	require.NoError(t, err)

	out, err := eng.Handle(ctx, "signup", domain.TextEvent("2", "Bob"))
	require.NoError(t, err)
	assert.Equal(t, domain.RouteNoMatch, out.Result.Route, "conversation 2 is not pending")

	state, err := eng.State(ctx, "signup", "1")
	require.NoError(t, err)
	assert.Equal(t, "ask", state.PendingNodeID)
}

func TestEngine_UnknownFlowAndMissingConversation(t *testing.T) {
	eng, err := botflow.New(signup(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Handle(ctx, "nope", domain.TextEvent("1", "/start"))
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	_, err = eng.Handle(ctx, "signup", domain.TextEvent("", "/start"))
	assert.ErrorIs(t, err, botflow.ErrNoConversation)
}

func TestEngine_SimulateDoesNotPersist(t *testing.T) {
	store := memory.NewStore()
	eng, err := botflow.New(signup(t), botflow.WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	out, err := eng.Simulate(ctx, "signup", domain.TextEvent("42", "Ann"), &domain.State{
		PendingNodeID: "ask",
		Variables:     map[string]string{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Thanks, Ann"}, texts(out.Result.Actions))
	assert.Equal(t, "Ann", out.State.Variables["name"])
	assert.Equal(t, "ask", out.Previous.PendingNodeID)

	keys, err := store.List(ctx, "signup")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEngine_UnknownCommandLeavesStateUnchanged(t *testing.T) {
	eng, err := botflow.New(signup(t), botflow.WithMessages(botflow.Messages{UnknownCommand: "No idea: %s"}))
	require.NoError(t, err)
	ctx := context.Background()

	out, err := eng.Handle(ctx, "signup", domain.TextEvent("7", "/bogus"))
	require.NoError(t, err)
	assert.Equal(t, []string{"No idea: /bogus"}, texts(out.Result.Actions))
	assert.Nil(t, out.Diff())
	assert.Equal(t, botflow.DefaultMessages().ChooseOption, eng.Messages().ChooseOption)
}

func TestEngine_ConcurrentEventsAreSerialized(t *testing.T) {
	b := dsl.New("tally")
	b.Add("start").Command("/start").Go("ask")
	b.Add("ask").Input("n?", "n").Go("again")
	b.Add("again").Command("/again").Go("ask")
	loader, err := b.Loader()
	require.NoError(t, err)

	eng, err := botflow.New(loader)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Handle(ctx, "tally", domain.TextEvent("1", "/start"))
	require.NoError(t, err)

	// Every reply resumes the pending wait and suspends on it again, so each
	// one is routed as a resume only if the previous save is visible.
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.Handle(ctx, "tally", domain.TextEvent("1", strconv.Itoa(i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := eng.State(ctx, "tally", "1")
	require.NoError(t, err)
	assert.Equal(t, "ask", state.PendingNodeID)
	assert.Contains(t, state.Variables, "n")
}

func TestEngine_Hooks(t *testing.T) {
	var mu sync.Mutex
	var visited []string
	var routes []domain.RouteEvent
	hooks := domain.LifecycleHooks{
		OnNodeVisit: func(_ context.Context, e *domain.NodeEvent) {
			mu.Lock()
			defer mu.Unlock()
			visited = append(visited, fmt.Sprintf("%s:%s", e.NodeID, e.NodeKind))
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			mu.Lock()
			defer mu.Unlock()
			routes = append(routes, *e)
		},
	}
	eng, err := botflow.New(signup(t), botflow.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	_, err = eng.Handle(context.Background(), "signup", domain.TextEvent("42", "/start"))
	require.NoError(t, err)

	assert.Equal(t, []string{"start:command", "ask:inputWait"}, visited)
	require.Len(t, routes, 1)
	assert.Equal(t, "signup", routes[0].FlowID)
	assert.Equal(t, domain.RouteCommand, routes[0].Route)
	assert.Equal(t, 1, routes[0].Actions)
	assert.Equal(t, "ask", routes[0].PendingNodeID)
}

func TestEngine_ResetAndConversations(t *testing.T) {
	eng, err := botflow.New(signup(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Handle(ctx, "signup", domain.TextEvent("42", "/start"))
	require.NoError(t, err)

	keys, err := eng.Conversations(ctx, "signup")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConversationKey{{FlowID: "signup", ConversationID: "42"}}, keys)

	require.NoError(t, eng.Reset(ctx, "signup", "42"))
	state, err := eng.State(ctx, "signup", "42")
	require.NoError(t, err)
	assert.False(t, state.Pending())

	flows, err := eng.Flows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"signup"}, flows)
}
