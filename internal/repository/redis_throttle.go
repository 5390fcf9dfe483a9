package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/travelfeed/internal/store"
)

// RedisThrottleStore 只保留每对 (actor, recipient) 的最近一次发送时间。
// ttl 必须不小于冷却时间，过期即等同于从未发送。
type RedisThrottleStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.ThrottleStore = (*RedisThrottleStore)(nil)

func NewRedisThrottleStore(client *redis.Client, ttl time.Duration) *RedisThrottleStore {
	return &RedisThrottleStore{client: client, ttl: ttl}
}

func throttleKey(actorID, recipientID string) string {
	return fmt.Sprintf("notify:throttle:%s:%s", actorID, recipientID)
}

func (s *RedisThrottleStore) QueryMostRecentThrottle(ctx context.Context, actorID, recipientID string) (*time.Time, error) {
	v, err := s.client.Get(ctx, throttleKey(actorID, recipientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ns, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse throttle timestamp %q: %w", v, err)
	}
	ts := time.Unix(0, ns).UTC()
	return &ts, nil
}

func (s *RedisThrottleStore) InsertThrottleRecord(ctx context.Context, actorID, recipientID string, now time.Time) error {
	return s.client.Set(ctx, throttleKey(actorID, recipientID), strconv.FormatInt(now.UnixNano(), 10), s.ttl).Err()
}
