package ports

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
)

// StateStore defines the interface for persisting conversation state.
// Implementations store snapshots as given; merge semantics live in the
// session manager.
type StateStore interface {
	// Save persists the state for a conversation.
	Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error

	// Load retrieves the state for a conversation.
	// Returns domain.ErrSessionNotFound if nothing was stored.
	Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error)

	// Delete removes the state for a conversation. Deleting a missing key is not an error.
	Delete(ctx context.Context, key domain.ConversationKey) error

	// List returns the stored conversations of a flow.
	List(ctx context.Context, flowID string) ([]domain.ConversationKey, error)
}
