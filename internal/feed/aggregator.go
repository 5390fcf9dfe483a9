// Package feed merges city-rating and spot-review streams into one paginated activity feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/blockcache"
	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/pagination"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

var tracer = otel.Tracer("feed")

const DefaultPageSize = 20

// Page is the feed's page state.
type Page = pagination.PageState[domain.FeedItem]

// Cursor tracks how far each source stream has been consumed.
type Cursor struct {
	CityOffset int `json:"city_offset"`
	SpotOffset int `json:"spot_offset"`
}

type feedState struct {
	viewerID string
	actorIDs []string
	page     *Page
	cursor   Cursor
	version  uint64
}

type fetchResult struct {
	items    []domain.FeedItem
	raw      int
	advanced Cursor
}

// Aggregator owns the feed states of one viewer session, one per audience.
type Aggregator struct {
	store     store.FeedStore
	audiences Resolver
	blocks    blockcache.Checker

	mu     sync.Mutex
	seq    uint64
	states map[Audience]*feedState
}

// NewAggregator wires the aggregator. blocks may be nil, in which case nothing is filtered.
func NewAggregator(st store.FeedStore, audiences Resolver, blocks blockcache.Checker) *Aggregator {
	return &Aggregator{store: st, audiences: audiences, blocks: blocks, states: map[Audience]*feedState{}}
}

// LoadFeed replaces the audience's state with its first page. A load that is overtaken by a
// newer LoadFeed, for any audience, returns ErrStaleRequest and leaves state untouched.
// Store failures also leave the previous state in place.
func (a *Aggregator) LoadFeed(ctx context.Context, aud Audience, viewerID string, pageSize int) (Page, error) {
	if _, err := ParseAudience(string(aud)); err != nil {
		return Page{}, err
	}
	if viewerID == "" {
		return Page{}, domain.ErrNotAuthenticated
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	ctx, span := tracer.Start(ctx, "Feed.Aggregator.LoadFeed")
	defer span.End()
	span.SetAttributes(attribute.String("audience", string(aud)), attribute.Int("page_size", pageSize))
	start := time.Now()

	a.mu.Lock()
	a.seq++
	my := a.seq
	a.mu.Unlock()

	actorIDs, err := a.audiences.Resolve(ctx, aud, viewerID)
	if err != nil {
		span.RecordError(err)
		metrics.RecordFeedLoad(string(aud), "first", "error", time.Since(start))
		return Page{}, err
	}

	res, err := a.fetch(ctx, actorIDs, pageSize, Cursor{})
	if err != nil {
		span.RecordError(err)
		metrics.RecordFeedLoad(string(aud), "first", "error", time.Since(start))
		return Page{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if my != a.seq {
		metrics.RecordFeedLoad(string(aud), "first", "stale", time.Since(start))
		return Page{}, domain.ErrStaleRequest
	}

	st := &feedState{viewerID: viewerID, actorIDs: actorIDs, page: pagination.New[domain.FeedItem](pageSize)}
	if prev, ok := a.states[aud]; ok {
		st.version = prev.version + 1
	}
	a.applyLocked(st, res)
	a.states[aud] = st

	metrics.RecordFeedLoad(string(aud), "first", "ok", time.Since(start))
	logger.Debug("feed loaded",
		zap.String("viewer", viewerID), zap.String("audience", string(aud)),
		zap.Int("actors", len(actorIDs)), zap.Int("items", len(st.page.Items)), zap.Bool("has_more", st.page.HasMore))
	return st.page.Snapshot(), nil
}

// LoadMore fetches the next page of an already loaded audience and returns only the newly
// visible items. With HasMore false it returns nothing without querying.
func (a *Aggregator) LoadMore(ctx context.Context, aud Audience) ([]domain.FeedItem, error) {
	if _, err := ParseAudience(string(aud)); err != nil {
		return nil, err
	}

	a.mu.Lock()
	st, ok := a.states[aud]
	if !ok {
		a.mu.Unlock()
		return nil, domain.ErrFeedNotLoaded
	}
	if !st.page.HasMore {
		a.mu.Unlock()
		return []domain.FeedItem{}, nil
	}
	seq, version := a.seq, st.version
	actorIDs, cursor, pageSize := st.actorIDs, st.cursor, st.page.PageSize
	a.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Feed.Aggregator.LoadMore")
	defer span.End()
	span.SetAttributes(
		attribute.String("audience", string(aud)),
		attribute.Int("city_offset", cursor.CityOffset),
		attribute.Int("spot_offset", cursor.SpotOffset),
	)
	start := time.Now()

	res, err := a.fetch(ctx, actorIDs, pageSize, cursor)
	if err != nil {
		span.RecordError(err)
		metrics.RecordFeedLoad(string(aud), "more", "error", time.Since(start))
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.seq || a.states[aud] != st || st.version != version {
		metrics.RecordFeedLoad(string(aud), "more", "stale", time.Since(start))
		return nil, domain.ErrStaleRequest
	}
	visible := a.applyLocked(st, res)
	st.version++

	metrics.RecordFeedLoad(string(aud), "more", "ok", time.Since(start))
	return visible, nil
}

// State returns a copy of the audience's page state.
func (a *Aggregator) State(aud Audience) (Page, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[aud]
	if !ok {
		return Page{}, false
	}
	return st.page.Snapshot(), true
}

// Cursor returns the per-stream offsets of an audience.
func (a *Aggregator) Cursor(aud Audience) Cursor {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.states[aud]; ok {
		return st.cursor
	}
	return Cursor{}
}

// applyLocked records a fetch: HasMore comes from the raw row count, then blocked actors are
// dropped from what gets appended.
func (a *Aggregator) applyLocked(st *feedState, res fetchResult) []domain.FeedItem {
	visible := res.items
	if a.blocks != nil {
		visible = pagination.Filter(res.items, func(it domain.FeedItem) bool {
			return !a.blocks.IsBlocked(it.ActorID())
		})
		metrics.RecordFeedFiltered(len(res.items) - len(visible))
	}
	st.page.Record(res.raw, len(res.items), visible)
	st.cursor.CityOffset += res.advanced.CityOffset
	st.cursor.SpotOffset += res.advanced.SpotOffset
	return visible
}

// fetch queries both streams at their own offsets and merges them into one page.
func (a *Aggregator) fetch(ctx context.Context, actorIDs []string, pageSize int, cur Cursor) (fetchResult, error) {
	if len(actorIDs) == 0 {
		return fetchResult{items: []domain.FeedItem{}}, nil
	}

	var (
		wg             sync.WaitGroup
		city, spot     []domain.FeedItem
		cityErr, spErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		city, cityErr = a.store.QueryCityRatingEvents(ctx, actorIDs, pageSize, cur.CityOffset)
	}()
	go func() {
		defer wg.Done()
		spot, spErr = a.store.QuerySpotReviewEvents(ctx, actorIDs, pageSize, cur.SpotOffset)
	}()
	wg.Wait()

	if err := errors.Join(
		domain.WrapStore("query_city_rating_events", cityErr),
		domain.WrapStore("query_spot_review_events", spErr),
	); err != nil {
		return fetchResult{}, fmt.Errorf("fetch feed page: %w", err)
	}

	merged, takenCity, takenSpot := Merge(city, spot, pageSize)
	return fetchResult{
		items:    merged,
		raw:      len(city) + len(spot),
		advanced: Cursor{CityOffset: takenCity, SpotOffset: takenSpot},
	}, nil
}
