package session_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/aretw0/botflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, key)
}

var key = domain.ConversationKey{FlowID: "bot", ConversationID: "42"}

func TestManager_LoadDefault(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())

	state, err := mgr.Load(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, state.Pending())
	assert.Empty(t, state.Variables)
	assert.NotNil(t, state.Variables)
}

func TestManager_SaveMerges(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	_, err := mgr.Save(ctx, key, domain.Result{
		Assignments:   []domain.Assignment{{Name: "name", Value: "Bob"}},
		PendingNodeID: "ask",
	})
	require.NoError(t, err)

	state, err := mgr.Save(ctx, key, domain.Result{
		Assignments: []domain.Assignment{{Name: "city", Value: "Porto"}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": "Bob", "city": "Porto"}, state.Variables)
	assert.Empty(t, state.PendingNodeID, "pending is overwritten back to idle")

	loaded, err := mgr.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestManager_ProcessSerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(slowStore{memory.NewStore()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Process(ctx, key, func(ctx context.Context, s *domain.State) (domain.Result, error) {
				n, _ := strconv.Atoi(s.Variables["count"])
				return domain.Result{Assignments: []domain.Assignment{{Name: "count", Value: strconv.Itoa(n + 1)}}}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := mgr.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "20", state.Variables["count"], "no lost updates")
}

func TestManager_ProcessErrorSavesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := session.NewManager(store)
	boom := errors.New("boom")

	_, err := mgr.Process(ctx, key, func(ctx context.Context, s *domain.State) (domain.Result, error) {
		return domain.Result{}, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_ProcessOutcome(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	out, err := mgr.Process(ctx, key, func(ctx context.Context, s *domain.State) (domain.Result, error) {
		s.Variables["mutated"] = "ignored" // the snapshot is private to fn
		return domain.Result{PendingNodeID: "ask"}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out.Previous.Variables)
	assert.Equal(t, "ask", out.State.PendingNodeID)
	require.NotNil(t, out.Diff())
	assert.Equal(t, "ask", *out.Diff().PendingNodeID)
}

type recordingLocker struct {
	mu     sync.Mutex
	locked []string
	failed bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failed {
		return nil, errors.New("unavailable")
	}
	l.locked = append(l.locked, key)
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))

	_, err := mgr.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"bot:42"}, locker.locked)

	locker.failed = true
	_, err = mgr.Load(ctx, key)
	assert.ErrorContains(t, err, "distributed lock")
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())
	_, _ = mgr.Save(ctx, key, domain.Result{})
	_, _ = mgr.Save(ctx, domain.ConversationKey{FlowID: "other", ConversationID: "1"}, domain.Result{})

	keys, err := mgr.List(ctx, "bot")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConversationKey{key}, keys)
}
