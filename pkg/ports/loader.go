package ports

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
)

// GraphLoader defines how the engine retrieves flow definitions.
// Returned flows are treated as read-only.
type GraphLoader interface {
	// Load returns the flow with the given id, or domain.ErrFlowNotFound.
	Load(ctx context.Context, flowID string) (*domain.Flow, error)

	// List returns the ids of every available flow, sorted.
	List(ctx context.Context) ([]string, error)
}
