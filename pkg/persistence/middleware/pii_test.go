package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewPIIMiddleware([]string{"password", "^ssn"})(underlying)
	ctx := context.Background()

	state := &domain.State{
		PendingNodeID: "ask",
		Variables: map[string]string{
			"username":      "jdoe",
			"user_password": "secret123",
			"ssn_number":    "999-99-9999",
			"my_ssn":        "kept",
		},
	}
	require.NoError(t, secure.Save(ctx, key, state))
	assert.Equal(t, "secret123", state.Variables["user_password"], "caller state must not be modified")

	stored, err := underlying.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "ask", stored.PendingNodeID)
	assert.Equal(t, map[string]string{
		"username":      "jdoe",
		"user_password": middleware.Mask,
		"ssn_number":    middleware.Mask,
		"my_ssn":        "kept",
	}, stored.Variables)
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	k := generateKey(t)
	// PII runs first, so the encrypted payload already holds the mask.
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"email"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: k}),
	)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, key, &domain.State{Variables: map[string]string{"email": "a@b.co", "name": "Ana"}}))

	raw, err := underlying.Load(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, raw.Variables, middleware.EnvelopeKey)

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": middleware.Mask, "name": "Ana"}, loaded.Variables)
}
