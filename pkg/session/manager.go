package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a conversation.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates conversation state access, ensuring that events of the
// same conversation are processed one at a time.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load returns the stored state, or a fresh state if the conversation never interacted.
func (m *Manager) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		state, err = m.load(ctx, key)
		return err
	})
	return state, err
}

func (m *Manager) load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	state, err := m.store.Load(ctx, key)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", key, err)
	}
	if state.Variables == nil {
		state.Variables = make(map[string]string)
	}
	return state, nil
}

// Save merges the assignments of r into the stored variables and replaces
// the pending node with the one in r, returning the new state.
func (m *Manager) Save(ctx context.Context, key domain.ConversationKey, r domain.Result) (*domain.State, error) {
	var next *domain.State
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		prev, err := m.load(ctx, key)
		if err != nil {
			return err
		}
		next = prev.Apply(r)
		return m.store.Save(ctx, key, next)
	})
	return next, err
}

// Process runs fn against the current state of a conversation and persists
// the merged result, all while holding the conversation lock.
// Nothing is saved when fn fails.
func (m *Manager) Process(ctx context.Context, key domain.ConversationKey, fn func(context.Context, *domain.State) (domain.Result, error)) (domain.Outcome, error) {
	var out domain.Outcome
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		prev, err := m.load(ctx, key)
		if err != nil {
			return err
		}
		res, err := fn(ctx, prev.Snapshot())
		if err != nil {
			return err
		}
		next := prev.Apply(res)
		if err := m.store.Save(ctx, key, next); err != nil {
			return fmt.Errorf("failed to save state for %s: %w", key, err)
		}
		out = domain.Outcome{Result: res, Previous: prev, State: next}
		return nil
	})
	return out, err
}

// Delete removes the conversation from the store.
func (m *Manager) Delete(ctx context.Context, key domain.ConversationKey) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	return m.store.List(ctx, flowID)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes a function while holding the lock for the conversation.
func (m *Manager) WithLock(ctx context.Context, key domain.ConversationKey, fn func(context.Context) error) error {
	id := key.String()
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release even if ctx was cancelled mid-way.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
