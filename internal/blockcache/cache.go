// Package blockcache keeps a viewer's blocked-user set in memory with a staleness TTL.
package blockcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/clock"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

// DefaultTTL is how long a loaded set is considered fresh.
const DefaultTTL = 300 * time.Second

// Checker is the read-only view handed to other components.
type Checker interface {
	IsBlocked(userID string) bool
}

// Cache mirrors the BlockRelations whose blocker is the viewer.
type Cache struct {
	store    store.BlockStore
	clock    clock.Clock
	ttl      time.Duration
	viewerID string

	mu       sync.RWMutex
	ids      map[string]struct{}
	loaded   bool
	loadedAt time.Time
	// mutations applied while a refresh is in flight; replayed over the fetched set
	pending    map[string]bool
	refreshing int
}

func New(viewerID string, st store.BlockStore, clk clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{store: st, clock: clk, ttl: ttl, viewerID: viewerID, ids: map[string]struct{}{}}
}

// IsBlocked answers from memory only. Before the first load nothing is blocked; after the
// TTL the last loaded set keeps answering until a refresh replaces it.
func (c *Cache) IsBlocked(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[userID]
	return ok
}

// Stale reports whether the set was never loaded or is older than the TTL.
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staleLocked()
}

func (c *Cache) staleLocked() bool {
	return !c.loaded || c.clock.Now().Sub(c.loadedAt) >= c.ttl
}

// Loaded reports whether any refresh has ever succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// RefreshIfStale reloads the set when Stale is true.
func (c *Cache) RefreshIfStale(ctx context.Context) error {
	if !c.Stale() {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads the whole set from the store.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.viewerID == "" {
		return domain.ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.refreshing == 0 {
		c.pending = map[string]bool{}
	}
	c.refreshing++
	c.mu.Unlock()

	ids, err := c.store.QueryBlockedIDs(ctx, c.viewerID)
	metrics.RecordBlockRefresh(err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing--
	if err != nil {
		if c.refreshing == 0 {
			c.pending = nil
		}
		logger.Warn("block cache refresh failed", zap.String("viewer", c.viewerID), zap.Error(err))
		return fmt.Errorf("refresh block cache: %w", domain.WrapStore("query_blocked_ids", err))
	}

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	for id, blocked := range c.pending {
		if blocked {
			next[id] = struct{}{}
		} else {
			delete(next, id)
		}
	}
	if c.refreshing == 0 {
		c.pending = nil
	}
	c.ids = next
	c.loaded = true
	c.loadedAt = c.clock.Now()
	return nil
}

// Block persists the relation and then marks userID blocked without waiting for a refresh.
func (c *Cache) Block(ctx context.Context, userID string) error {
	if c.viewerID == "" {
		return domain.ErrNotAuthenticated
	}
	if userID == c.viewerID {
		return domain.ErrBlockSelf
	}
	if err := c.store.InsertBlock(ctx, c.viewerID, userID); err != nil {
		return fmt.Errorf("block %s: %w", userID, domain.WrapStore("insert_block", err))
	}
	c.apply(userID, true)
	return nil
}

// Unblock deletes the relation and then clears userID from the set.
func (c *Cache) Unblock(ctx context.Context, userID string) error {
	if c.viewerID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := c.store.DeleteBlock(ctx, c.viewerID, userID); err != nil {
		return fmt.Errorf("unblock %s: %w", userID, domain.WrapStore("delete_block", err))
	}
	c.apply(userID, false)
	return nil
}

func (c *Cache) apply(userID string, blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if blocked {
		c.ids[userID] = struct{}{}
	} else {
		delete(c.ids, userID)
	}
	if c.refreshing > 0 {
		c.pending[userID] = blocked
	}
}

// IDs returns the current set in no particular order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	return out
}
