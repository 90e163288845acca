package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	flowID := "contract-" + time.Now().Format("20060102150405.000000")
	key := domain.ConversationKey{FlowID: flowID, ConversationID: "1001"}

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState()
		state.PendingNodeID = "ask"
		state.Variables["name"] = "Bob"
		state.Variables["city"] = "Lisbon"

		require.NoError(t, store.Save(ctx, key, state), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "ask", loaded.PendingNodeID)
		assert.Equal(t, map[string]string{"name": "Bob", "city": "Lisbon"}, loaded.Variables)
	})

	t.Run("Overwrite clears pending", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, &domain.State{Variables: map[string]string{"name": "Ann"}}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, loaded.PendingNodeID)
		assert.Equal(t, "Ann", loaded.Variables["name"])
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewState()
		state.Variables["k"] = "v"
		require.NoError(t, store.Save(ctx, key, state))

		state.Variables["k"] = "mutated"
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "v", loaded.Variables["k"], "store must not alias the saved state")

		loaded.Variables["k"] = "mutated"
		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "v", again.Variables["k"], "store must not alias the loaded state")
	})

	t.Run("Separators in ids do not collide", func(t *testing.T) {
		pairs := [][2]domain.ConversationKey{
			{{FlowID: flowID + ":eu", ConversationID: "7"}, {FlowID: flowID, ConversationID: "eu:7"}},
			{{FlowID: flowID + "/eu", ConversationID: "7"}, {FlowID: flowID, ConversationID: "eu/7"}},
		}
		for _, p := range pairs {
			saved, other := p[0], p[1]
			state := domain.NewState()
			state.Variables["name"] = "Ann"
			require.NoError(t, store.Save(ctx, saved, state))

			_, err := store.Load(ctx, other)
			assert.ErrorIs(t, err, domain.ErrSessionNotFound, "%v must not read the state of %v", other, saved)

			keys, err := store.List(ctx, flowID)
			require.NoError(t, err)
			assert.NotContains(t, keys, other)

			require.NoError(t, store.Delete(ctx, saved))
		}
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, domain.ConversationKey{FlowID: flowID, ConversationID: "missing"})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, domain.NewState()))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := domain.ConversationKey{FlowID: flowID, ConversationID: "1"}
		k2 := domain.ConversationKey{FlowID: flowID, ConversationID: "2"}
		other := domain.ConversationKey{FlowID: flowID + "-other", ConversationID: "3"}
		require.NoError(t, store.Save(ctx, k1, domain.NewState()))
		require.NoError(t, store.Save(ctx, k2, domain.NewState()))
		require.NoError(t, store.Save(ctx, other, domain.NewState()))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
			_ = store.Delete(ctx, other)
		}()

		keys, err := store.List(ctx, flowID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.ConversationKey{k1, k2}, keys)
	})
}
