package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/pkg/clock"
)

type memThrottleStore struct {
	mu       sync.Mutex
	last     map[pairKey]time.Time
	inserts  int
	queryErr error
}

func newMemThrottleStore() *memThrottleStore {
	return &memThrottleStore{last: map[pairKey]time.Time{}}
}

func (m *memThrottleStore) QueryMostRecentThrottle(ctx context.Context, actorID, recipientID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	ts, ok := m.last[pairKey{actorID, recipientID}]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func (m *memThrottleStore) InsertThrottleRecord(ctx context.Context, actorID, recipientID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	m.last[pairKey{actorID, recipientID}] = now
	return nil
}

func TestTryNotify_FollowUnfollowRefollowScenario(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewFake(t0)
	st := newMemThrottleStore()
	th := NewThrottle(st, clk, DefaultCooldown)
	ctx := context.Background()

	ok, err := th.TryNotify(ctx, "A", "R", domain.NotifyNewFollower)
	require.NoError(t, err)
	assert.True(t, ok, "t=0 first follow notifies")

	clk.Set(t0.Add(1000 * time.Second))
	ok, err = th.TryNotify(ctx, "A", "R", domain.NotifyNewFollower)
	require.NoError(t, err)
	assert.False(t, ok, "t=1000s inside cooldown")

	clk.Set(t0.Add(3700 * time.Second))
	ok, err = th.TryNotify(ctx, "A", "R", domain.NotifyNewFollower)
	require.NoError(t, err)
	assert.True(t, ok, "t=3700s cooldown elapsed")

	assert.Equal(t, 2, st.inserts, "suppressed attempts write nothing")
}

func TestShouldNotify_BoundaryIsExclusive(t *testing.T) {
	t0 := time.Unix(0, 0)
	st := newMemThrottleStore()
	th := NewThrottle(st, nil, time.Hour)
	ctx := context.Background()
	require.NoError(t, th.Record(ctx, "A", "R", t0))

	ok, err := th.ShouldNotify(ctx, "A", "R", domain.NotifyNewFollower, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = th.ShouldNotify(ctx, "A", "R", domain.NotifyNewFollower, t0.Add(time.Hour+time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldNotify_PairsAreIndependent(t *testing.T) {
	st := newMemThrottleStore()
	th := NewThrottle(st, nil, time.Hour)
	ctx := context.Background()
	now := time.Unix(100, 0)
	require.NoError(t, th.Record(ctx, "A", "R", now))

	ok, err := th.ShouldNotify(ctx, "A", "R2", domain.NotifyNewFollower, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = th.ShouldNotify(ctx, "R", "A", domain.NotifyNewFollower, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryNotify_ConcurrentCallsAllowOnce(t *testing.T) {
	st := newMemThrottleStore()
	th := NewThrottle(st, clock.NewFake(time.Unix(0, 0)), time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := th.TryNotify(context.Background(), "A", "R", domain.NotifyNewFollower)
			if err == nil && ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed)

	th.locksMu.Lock()
	defer th.locksMu.Unlock()
	assert.Empty(t, th.locks, "pair locks are released once idle")
}

func TestShouldNotify_StoreError(t *testing.T) {
	st := newMemThrottleStore()
	st.queryErr = errors.New("down")
	th := NewThrottle(st, nil, 0)

	ok, err := th.ShouldNotify(context.Background(), "A", "R", domain.NotifyNewFollower, time.Now())

	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
