package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFollowingIndex_CachesUntilWrite(t *testing.T) {
	db := setupTestDB(t)
	mr, client := setupRedis(t)
	base := NewFollowRepository(db)
	idx := NewFollowingIndex(base, client, time.Minute)
	ctx := context.Background()

	require.NoError(t, idx.Create(ctx, "v", "a"))
	ids, err := idx.FollowingIDs(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.True(t, mr.Exists(followingKey("v")))

	// 绕过索引直接写库，缓存仍返回旧值
	require.NoError(t, base.Create(ctx, "v", "b"))
	ids, err = idx.FollowingIDs(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	require.NoError(t, idx.Delete(ctx, "v", "a"))
	assert.False(t, mr.Exists(followingKey("v")))
	ids, err = idx.FollowingIDs(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestFollowingIndex_CachesEmptySet(t *testing.T) {
	mr, client := setupRedis(t)
	idx := NewFollowingIndex(NewFollowRepository(setupTestDB(t)), client, time.Minute)
	ctx := context.Background()

	ids, err := idx.FollowingIDs(ctx, "lonely")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = idx.FollowingIDs(ctx, "lonely")
	require.NoError(t, err)
	assert.Empty(t, ids)
	list, err := mr.List(followingKey("lonely"))
	require.NoError(t, err)
	assert.Equal(t, []string{emptyIndexMarker}, list)
}

func TestFollowingIndex_ExpiresAndFallsBack(t *testing.T) {
	mr, client := setupRedis(t)
	db := setupTestDB(t)
	idx := NewFollowingIndex(NewFollowRepository(db), client, time.Minute)
	ctx := context.Background()
	require.NoError(t, idx.Create(ctx, "v", "a"))
	_, err := idx.FollowingIDs(ctx, "v")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(followingKey("v")))

	mr.Close()
	ids, err := idx.FollowingIDs(ctx, "v")
	require.NoError(t, err, "redis outage falls back to the database")
	assert.Equal(t, []string{"a"}, ids)
}

func TestRedisThrottleStore(t *testing.T) {
	mr, client := setupRedis(t)
	st := NewRedisThrottleStore(client, time.Hour)
	ctx := context.Background()

	ts, err := st.QueryMostRecentThrottle(ctx, "a", "r")
	require.NoError(t, err)
	assert.Nil(t, ts)

	require.NoError(t, st.InsertThrottleRecord(ctx, "a", "r", t0))
	ts, err = st.QueryMostRecentThrottle(ctx, "a", "r")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(t0))

	other, err := st.QueryMostRecentThrottle(ctx, "r", "a")
	require.NoError(t, err)
	assert.Nil(t, other)

	mr.FastForward(time.Hour + time.Second)
	ts, err = st.QueryMostRecentThrottle(ctx, "a", "r")
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestRedisThrottleStore_Error(t *testing.T) {
	mr, client := setupRedis(t)
	st := NewRedisThrottleStore(client, time.Hour)
	mr.Close()

	_, err := st.QueryMostRecentThrottle(context.Background(), "a", "r")
	assert.Error(t, err)
}
