package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobaccostore/backend/services/storefront-service/repository"
)

func TestIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repository.NewIdempotencyStore(client, 24*time.Hour)
	ctx := context.Background()

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, "k1", "tx-1"))
	require.NoError(t, store.Set(ctx, "k1", "tx-2"))

	got, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", got, "first writer wins")
	assert.True(t, mr.Exists("idem:payment:k1"))

	mr.FastForward(25 * time.Hour)
	got, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdempotencyStore_NilClient(t *testing.T) {
	store := repository.NewIdempotencyStore(nil, time.Hour)
	got, err := store.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, store.Set(context.Background(), "k", "v"))
}
