package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

// Mask replaces the value of every variable whose name matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of variables whose
// names match any of the patterns. Masking happens on the way to the inner
// store; the caller's state is never modified.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error {
	masked := state.Snapshot()
	for name := range masked.Variables {
		if m.sensitive(name) {
			masked.Variables[name] = Mask
		}
	}
	return m.next.Save(ctx, key, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key domain.ConversationKey) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	return m.next.List(ctx, flowID)
}

func (m *piiMiddleware) sensitive(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
