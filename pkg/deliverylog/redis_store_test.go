package deliverylog_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
)

// Runs against a real server when REDIS_URL is set.
func newRedisStore(t *testing.T) *deliverylog.RedisStore {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return deliverylog.NewRedisStore(client, "mailrelay-test:"+uuid.NewString()+":", time.Minute)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	ctx := context.Background()

	entry := &deliverylog.Entry{
		ID:       "r1",
		To:       "a@example.org",
		Status:   deliverylog.StatusPending,
		Metadata: map[string]any{"client": map[string]any{"ip": "203.0.113.1"}},
	}
	require.NoError(t, store.Create(ctx, entry))
	assert.ErrorIs(t, store.Create(ctx, entry), deliverylog.ErrDuplicateEntry)

	patch := deliverylog.Patch{}.
		WithStatus(deliverylog.StatusSent).
		WithMessageID("<m@example.org>").
		WithMetadata(map[string]any{"client": map[string]any{"userAgent": "ua"}})
	require.NoError(t, store.Update(ctx, "r1", patch))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, deliverylog.StatusSent, got.Status)
	assert.Equal(t, "<m@example.org>", got.MessageID)
	assert.Equal(t, map[string]any{"ip": "203.0.113.1", "userAgent": "ua"}, got.Metadata["client"])

	assert.ErrorIs(t, store.Update(ctx, "missing", patch), deliverylog.ErrEntryNotFound)
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, deliverylog.ErrEntryNotFound)
}
