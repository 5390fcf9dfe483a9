// Package notify decides whether a notification may be sent and delivers the ones that may.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/clock"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

// DefaultCooldown is the minimum gap between two notifications for the same pair.
const DefaultCooldown = 3600 * time.Second

// Throttle gates notifications per (actor, recipient). The kind does not take part in the
// key, so every kind shares one cooldown bucket with new_follower.
type Throttle struct {
	store    store.ThrottleStore
	clock    clock.Clock
	cooldown time.Duration

	locksMu sync.Mutex
	locks   map[pairKey]*pairLock
}

type pairKey struct{ actor, recipient string }

// pairLock is dropped from the map once nobody holds or waits for it.
type pairLock struct {
	mu   sync.Mutex
	refs int
}

func NewThrottle(st store.ThrottleStore, clk clock.Clock, cooldown time.Duration) *Throttle {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Throttle{store: st, clock: clk, cooldown: cooldown, locks: map[pairKey]*pairLock{}}
}

// ShouldNotify reports whether more than the cooldown has passed since the pair's last
// notification. It never writes; on true the caller must Record.
func (t *Throttle) ShouldNotify(ctx context.Context, actorID, recipientID string, kind domain.NotificationKind, now time.Time) (bool, error) {
	last, err := t.store.QueryMostRecentThrottle(ctx, actorID, recipientID)
	if err != nil {
		return false, fmt.Errorf("throttle lookup: %w", domain.WrapStore("query_most_recent_throttle", err))
	}
	allowed := last == nil || now.Sub(*last) > t.cooldown
	metrics.RecordNotifyDecision(string(kind), allowed)
	return allowed, nil
}

// Record stores now as the pair's last notification time.
func (t *Throttle) Record(ctx context.Context, actorID, recipientID string, now time.Time) error {
	if err := t.store.InsertThrottleRecord(ctx, actorID, recipientID, now); err != nil {
		return fmt.Errorf("throttle record: %w", domain.WrapStore("insert_throttle_record", err))
	}
	return nil
}

// TryNotify checks and records under a per-pair lock so two concurrent follows from the same
// actor cannot both pass. It reads the time from the injected clock.
func (t *Throttle) TryNotify(ctx context.Context, actorID, recipientID string, kind domain.NotificationKind) (bool, error) {
	k := pairKey{actorID, recipientID}
	l := t.acquire(k)
	defer t.release(k, l)

	now := t.clock.Now()
	ok, err := t.ShouldNotify(ctx, actorID, recipientID, kind, now)
	if err != nil || !ok {
		return false, err
	}
	if err := t.Record(ctx, actorID, recipientID, now); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Throttle) acquire(k pairKey) *pairLock {
	t.locksMu.Lock()
	l, ok := t.locks[k]
	if !ok {
		l = &pairLock{}
		t.locks[k] = l
	}
	l.refs++
	t.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (t *Throttle) release(k pairKey, l *pairLock) {
	l.mu.Unlock()

	t.locksMu.Lock()
	defer t.locksMu.Unlock()
	if l.refs--; l.refs == 0 {
		delete(t.locks, k)
	}
}
