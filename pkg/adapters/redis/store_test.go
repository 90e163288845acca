package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/botflow/pkg/adapters/redis"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	now := time.Now()
	store := redis.NewFromClient(client,
		redis.WithTTL(time.Second),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()
	key := domain.ConversationKey{FlowID: "bot", ConversationID: "7"}

	require.NoError(t, store.Save(ctx, key, &domain.State{Variables: map[string]string{"foo": "bar"}}))

	keys, err := store.List(ctx, "bot")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	keys, err = store.List(ctx, "bot")
	require.NoError(t, err)
	assert.Empty(t, keys, "expired entries are pruned from the index")
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	key := domain.ConversationKey{FlowID: "bot", ConversationID: "my-chat"}

	require.NoError(t, store.Save(ctx, key, domain.NewState()))

	assert.True(t, mr.Exists("custom:app:session:bot:my-chat"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index:bot"), "Expected index with custom prefix to exist")
}
