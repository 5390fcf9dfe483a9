package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/pkg/logger"
)

// 空集合也要缓存，用占位元素表示
const emptyIndexMarker = "__none__"

// FollowingIndex 用 Redis List 缓存每个用户的关注 ID 列表，写操作后失效。
// Redis 不可用时直接回源数据库。
type FollowingIndex struct {
	FollowRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewFollowingIndex(repo FollowRepository, cache *redis.Client, ttl time.Duration) *FollowingIndex {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FollowingIndex{FollowRepository: repo, cache: cache, ttl: ttl}
}

func followingKey(userID string) string {
	return fmt.Sprintf("following:index:%s", userID)
}

func (f *FollowingIndex) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	key := followingKey(followerID)
	ids, err := f.cache.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		logger.Warn("following index read failed", zap.String("user_id", followerID), zap.Error(err))
	}
	if err == nil && len(ids) > 0 {
		if len(ids) == 1 && ids[0] == emptyIndexMarker {
			return []string{}, nil
		}
		return ids, nil
	}

	ids, err = f.FollowRepository.FollowingIDs(ctx, followerID)
	if err != nil {
		return nil, err
	}

	vals := interfaceSlice(ids)
	if len(vals) == 0 {
		vals = []interface{}{emptyIndexMarker}
	}
	pipe := f.cache.Pipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, vals...)
	pipe.Expire(ctx, key, f.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("following index write failed", zap.String("user_id", followerID), zap.Error(err))
	}
	return ids, nil
}

func (f *FollowingIndex) Create(ctx context.Context, followerID, followeeID string) error {
	if err := f.FollowRepository.Create(ctx, followerID, followeeID); err != nil {
		return err
	}
	f.Invalidate(ctx, followerID)
	return nil
}

func (f *FollowingIndex) Delete(ctx context.Context, followerID, followeeID string) error {
	if err := f.FollowRepository.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}
	f.Invalidate(ctx, followerID)
	return nil
}

// Invalidate 删除缓存，下次读取回源
func (f *FollowingIndex) Invalidate(ctx context.Context, userID string) {
	if err := f.cache.Del(ctx, followingKey(userID)).Err(); err != nil {
		logger.Warn("following index invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
