package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore maps a client supplied idempotency key to the payment
// transaction it produced. It is a fast path in front of the unique index on
// payment_transactions.idempotency_key.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore returns a store; a nil client turns every call into a
// miss.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) getIdemKey(key string) string {
	return "idem:payment:" + key
}

// Get returns the stored transaction id, or "" when the key is unknown.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", nil
	}
	val, err := s.client.Get(ctx, s.getIdemKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set records key -> transactionID unless the key is already present.
func (s *IdempotencyStore) Set(ctx context.Context, key, transactionID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.SetNX(ctx, s.getIdemKey(key), transactionID, s.ttl).Err()
}
