package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
)

// Loader implements ports.GraphLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu    sync.RWMutex
	flows map[string]*domain.Flow
}

// NewLoader creates a loader serving the given flows.
func NewLoader(flows ...*domain.Flow) *Loader {
	l := &Loader{flows: make(map[string]*domain.Flow)}
	for _, f := range flows {
		l.Add(f)
	}
	return l
}

// Add registers or replaces a flow.
func (l *Loader) Add(f *domain.Flow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flows[f.ID] = f
}

// Load returns the flow with the given id.
func (l *Loader) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.flows[flowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, flowID)
	}
	return f, nil
}

// List returns all available flow ids.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.flows))
	for id := range l.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
