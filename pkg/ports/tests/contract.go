package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// want lists the flows the loader was set up with.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, want ...*domain.Flow) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for _, w := range want {
			got, err := loader.Load(ctx, w.ID)
			require.NoError(t, err, "loading %s", w.ID)
			assert.Equal(t, w.ID, got.ID)
			assert.Equal(t, w.Graph.Nodes(), got.Graph.Nodes())
			assert.Equal(t, w.Graph.Edges(), got.Graph.Edges())
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-flow")
		assert.True(t, errors.Is(err, domain.ErrFlowNotFound), "expected ErrFlowNotFound, got %v", err)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		require.NoError(t, err)
		for _, w := range want {
			assert.Contains(t, ids, w.ID)
		}
		assert.IsIncreasing(t, ids)
	})
}
