package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyHeader carries the client supplied idempotency key.
	IdempotencyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the idempotency store.
	IdempotencyReplayHeader = "Idempotent-Replayed"

	idempotencyPrefix  = "odyssey:idem:"
	idempotencyPending = "pending"
	defaultLockTTL     = time.Minute
)

// StoredResponse is the replayable copy of a completed request.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore persists processed keys in redis.
type IdempotencyStore struct {
	client  redis.Cmdable
	ttl     time.Duration
	lockTTL time.Duration
}

// NewIdempotencyStore constructs the store. ttl bounds how long responses are replayable.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl, lockTTL: defaultLockTTL}
}

// Begin claims key within scope. It returns the stored response when the key
// was already completed, ErrIdempotencyInFlight while another request holds
// the claim, and (nil, nil) when the caller now owns the key.
func (s *IdempotencyStore) Begin(ctx context.Context, scope, key string) (*StoredResponse, error) {
	if s == nil {
		return nil, errors.New("idempotency store not initialised")
	}
	if key == "" {
		return nil, errors.New("idempotency key required")
	}
	redisKey := s.redisKey(scope, key)
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency claim: %w", err)
		}
		if claimed {
			return nil, nil
		}
		raw, err := s.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if raw == idempotencyPending {
			return nil, ErrIdempotencyInFlight
		}
		var stored StoredResponse
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return nil, fmt.Errorf("idempotency decode: %w", err)
		}
		return &stored, nil
	}
	return nil, ErrIdempotencyInFlight
}

// Complete records the response for key so later retries replay it.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, resp StoredResponse) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.redisKey(scope, key), data, s.ttl).Err()
}

// Release drops the claim on key, typically used to roll back failed processing.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.redisKey(scope, key)).Err()
}

func (s *IdempotencyStore) redisKey(scope, key string) string {
	return idempotencyPrefix + scope + ":" + key
}
