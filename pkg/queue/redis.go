package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending messages in a list, delayed retries in a sorted
// set scored by due time (unix millis) and dead messages in a second list.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "equitylens:queue"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStore) Push(ctx context.Context, data []byte) error {
	return r.client.LPush(ctx, r.queueKey(), data).Err()
}

func (r *RedisStore) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := r.client.BRPop(ctx, timeout, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}
	if len(result) < 2 {
		return nil, ErrEmpty
	}
	return []byte(result[1]), nil
}

func (r *RedisStore) Schedule(ctx context.Context, data []byte, at time.Time) error {
	return r.client.ZAdd(ctx, r.retryKey(), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: data,
	}).Err()
}

func (r *RedisStore) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := r.client.ZRangeByScore(ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("fetch retries: %w", err)
	}

	moved := 0
	for _, member := range due {
		pipe := r.client.TxPipeline()
		rem := pipe.ZRem(ctx, r.retryKey(), member)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, fmt.Errorf("claim retry: %w", err)
		}
		// another promoter got it first
		if rem.Val() == 0 {
			continue
		}
		if err := r.client.LPush(ctx, r.queueKey(), member).Err(); err != nil {
			return moved, fmt.Errorf("requeue retry: %w", err)
		}
		moved++
	}
	return moved, nil
}

func (r *RedisStore) DeadLetter(ctx context.Context, data []byte) error {
	return r.client.LPush(ctx, r.deadLetterKey(), data).Err()
}

func (r *RedisStore) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisStore) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisStore) deadLetterKey() string { return r.keyPrefix + ":dlq" }
