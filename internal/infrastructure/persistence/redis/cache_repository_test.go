package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testutils.SetupTestRedis(t)})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	cache := NewCacheRepository(client, "test:", zaptest.NewLogger(t))

	_, err := cache.Get(ctx, "peers:specialty:r1:20")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "peers:specialty:r1:20", []byte(`[]`), time.Hour))
	got, err := cache.Get(ctx, "peers:specialty:r1:20")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	// keys are namespaced
	raw, err := client.Get(ctx, "test:peers:specialty:r1:20").Result()
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	ttl, err := client.TTL(ctx, "test:peers:specialty:r1:20").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	exists, err := cache.Exists(ctx, "peers:specialty:r1:20")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "peers:specialty:r1:20"))
	exists, err = cache.Exists(ctx, "peers:specialty:r1:20")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEventPublisher(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	sub := client.Subscribe(ctx, EventChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	reviewedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	publisher := NewEventPublisher(client, "")
	require.NoError(t, publisher.Handle(ctx, optimization.CandidateReviewedEvent{
		Kind:         optimization.KindSuggestion,
		CandidateID:  "s1",
		RestaurantID: "r1",
		Status:       optimization.StatusApproved,
		ReviewedAt:   reviewedAt,
	}))

	select {
	case msg := <-sub.Channel():
		var envelope EventEnvelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
		assert.Equal(t, "suggestion.approved", envelope.Name)
		assert.True(t, reviewedAt.Equal(envelope.OccurredAt))
		assert.Contains(t, string(envelope.Payload), `"CandidateID":"s1"`)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not published")
	}
}
