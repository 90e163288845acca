package intake_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoEngine answers every event with one text action echoing it.
type echoEngine struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (e *echoEngine) Handle(_ context.Context, _ string, ev domain.Event) (domain.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return domain.Outcome{}, e.err
	}
	e.events = append(e.events, ev)
	return domain.Outcome{
		Result:   domain.Result{Actions: []domain.Action{{Type: domain.ActionSendText, Text: "echo " + ev.Text}}},
		Previous: domain.NewState(),
		State:    domain.NewState(),
	}, nil
}

func (e *echoEngine) Simulate(ctx context.Context, flowID string, ev domain.Event, _ *domain.State) (domain.Outcome, error) {
	return e.Handle(ctx, flowID, ev)
}

func (e *echoEngine) Flow(context.Context, string) (*domain.Flow, error) { return nil, domain.ErrFlowNotFound }
func (e *echoEngine) Flows(context.Context) ([]string, error)           { return nil, nil }

func (e *echoEngine) seen() []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Event(nil), e.events...)
}

func TestProcessor_AcknowledgesBeforeRouting(t *testing.T) {
	rec := dispatch.NewRecorder()
	engine := &echoEngine{}
	p := intake.NewProcessor(engine, dispatch.New(rec))

	_, report, err := p.Process(context.Background(), "support", domain.CallbackEvent("42", "cb-1", "yes"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, []dispatch.Sent{
		{Method: "answer", CallbackID: "cb-1"},
		{Method: "text", ConversationID: "42", Text: "echo yes"},
	}, rec.Sent())
}

func TestProcessor_AcknowledgesEvenWithoutConversation(t *testing.T) {
	rec := dispatch.NewRecorder()
	engine := &echoEngine{}
	p := intake.NewProcessor(engine, dispatch.New(rec))

	_, _, err := p.Process(context.Background(), "support", domain.CallbackEvent("", "cb-2", "yes"))
	require.NoError(t, err)
	assert.Equal(t, []dispatch.Sent{{Method: "answer", CallbackID: "cb-2"}}, rec.Sent())
	assert.Empty(t, engine.seen())
}

func TestProcessor_SanitizesAndRejects(t *testing.T) {
	rec := dispatch.NewRecorder()
	engine := &echoEngine{}
	p := intake.NewProcessor(engine, dispatch.New(rec), intake.WithMaxInputSize(8))
	ctx := context.Background()

	_, _, err := p.Process(ctx, "f", domain.TextEvent("1", "hi\x1b!"))
	require.NoError(t, err)
	_, _, err = p.Process(ctx, "f", domain.TextEvent("1", "far too long input"))
	require.NoError(t, err)

	seen := engine.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, "hi!", seen[0].Text)
}

func TestProcessor_EngineError(t *testing.T) {
	rec := dispatch.NewRecorder()
	p := intake.NewProcessor(&echoEngine{err: domain.ErrFlowNotFound}, dispatch.New(rec))

	_, _, err := p.Process(context.Background(), "missing", domain.TextEvent("1", "hi"))
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	assert.Empty(t, rec.Sent())
}

// scriptedReceiver replays a fixed sequence of Receive results, then blocks
// until the context is cancelled.
type scriptedReceiver struct {
	mu       sync.Mutex
	steps    []step
	offsets  []int64
	deleted  bool
	done     chan struct{}
	doneOnce sync.Once
}

type step struct {
	events []domain.Event
	next   int64
	err    error
}

func (r *scriptedReceiver) DeleteWebhook(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = true
	return nil
}

func (r *scriptedReceiver) Receive(ctx context.Context, offset int64) ([]domain.Event, int64, error) {
	r.mu.Lock()
	r.offsets = append(r.offsets, offset)
	if len(r.steps) == 0 {
		r.mu.Unlock()
		r.doneOnce.Do(func() { close(r.done) })
		<-ctx.Done()
		return nil, offset, ctx.Err()
	}
	s := r.steps[0]
	r.steps = r.steps[1:]
	r.mu.Unlock()
	return s.events, s.next, s.err
}

func TestPoller_Run(t *testing.T) {
	transient := errors.New("connection reset")
	recv := &scriptedReceiver{
		done: make(chan struct{}),
		steps: []step{
			{err: transient},
			{err: transient},
			{err: transient},
			{events: []domain.Event{
				{Kind: domain.EventText, ConversationID: "1", Text: "a", UpdateID: 5},
				{Kind: domain.EventText, ConversationID: "2", Text: "b", UpdateID: 6},
				{Kind: domain.EventText, ConversationID: "1", Text: "c", UpdateID: 7},
			}, next: 8},
			{err: transient},
			{next: 8},
		},
	}
	engine := &echoEngine{}
	rec := dispatch.NewRecorder()

	var waits []time.Duration
	p := intake.NewPoller("support", recv, intake.NewProcessor(engine, dispatch.New(rec)),
		intake.WithOffset(5),
		intake.WithBackoff(time.Second, 3*time.Second),
		intake.WithPollerSleep(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	select {
	case <-recv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not drain the script")
	}
	cancel()
	require.NoError(t, <-errCh)

	assert.True(t, recv.deleted, "webhook removed before polling")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, time.Second}, waits)
	assert.Equal(t, []int64{5, 5, 5, 5, 8, 8, 8}, recv.offsets)
	assert.Equal(t, int64(8), p.Offset())

	var conv1 []string
	for _, ev := range engine.seen() {
		if ev.ConversationID == "1" {
			conv1 = append(conv1, ev.Text)
		}
	}
	assert.Equal(t, []string{"a", "c"}, conv1, "events of one conversation stay in order")
	assert.Len(t, rec.Sent(), 3)
}

func TestPoller_StopsDuringBackoff(t *testing.T) {
	recv := &scriptedReceiver{done: make(chan struct{}), steps: []step{{err: errors.New("down")}}}
	p := intake.NewPoller("f", recv, intake.NewProcessor(&echoEngine{}, dispatch.New(dispatch.NewRecorder())),
		intake.WithBackoff(time.Hour, time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller ignored cancellation during backoff")
	}
}

// blockingHandler holds the first event until released, to show that a
// received batch completes after cancellation.
type blockingHandler struct {
	started  chan struct{}
	release  chan struct{}
	mu       sync.Mutex
	finished []string
	ctxErr   error
}

func (h *blockingHandler) Process(ctx context.Context, _ string, ev domain.Event) (domain.Outcome, domain.DeliveryReport, error) {
	if ev.Text == "first" {
		close(h.started)
		<-h.release
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = append(h.finished, ev.Text)
	if ctx.Err() != nil {
		h.ctxErr = ctx.Err()
	}
	return domain.Outcome{}, domain.DeliveryReport{}, nil
}

func TestPoller_CompletesInFlightBatch(t *testing.T) {
	recv := &scriptedReceiver{done: make(chan struct{}), steps: []step{{
		events: []domain.Event{
			{ConversationID: "1", Text: "first"},
			{ConversationID: "1", Text: "second"},
		},
		next: 3,
	}}}
	h := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	p := intake.NewPoller("f", recv, h)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	<-h.started
	cancel()
	close(h.release)
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"first", "second"}, h.finished)
	assert.NoError(t, h.ctxErr, "batch context is detached from cancellation")
	assert.Equal(t, int64(3), p.Offset())
}
