package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/blockcache"
	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/engagement"
	"github.com/d60-Lab/travelfeed/internal/feed"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/clock"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

// FeedView 一页 feed 及其中每条的投票快照
type FeedView struct {
	Items   []domain.FeedItem              `json:"items"`
	Votes   map[string]engagement.Snapshot `json:"votes"`
	HasMore bool                           `json:"has_more"`
}

// Session 一个登录用户的全部客户端状态
type Session struct {
	ViewerID string
	Blocks   *blockcache.Cache
	Feed     *feed.Aggregator
	Votes    *engagement.Ledger
	People   *PeopleSearch

	store        store.VoteStore
	voteTimeout  time.Duration
	storeTimeout time.Duration
}

// LoadFeed 先按需刷新屏蔽列表，再加载首页并回填投票
func (s *Session) LoadFeed(ctx context.Context, aud feed.Audience, pageSize int) (FeedView, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	if err := s.ensureBlocks(ctx); err != nil {
		return FeedView{}, err
	}
	page, err := s.Feed.LoadFeed(ctx, aud, s.ViewerID, pageSize)
	if err != nil {
		return FeedView{}, err
	}
	return FeedView{Items: page.Items, Votes: s.hydrate(ctx, page.Items), HasMore: page.HasMore}, nil
}

// LoadMore 只返回新追加的条目
func (s *Session) LoadMore(ctx context.Context, aud feed.Audience) (FeedView, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	items, err := s.Feed.LoadMore(ctx, aud)
	if err != nil {
		return FeedView{}, err
	}
	state, _ := s.Feed.State(aud)
	return FeedView{Items: items, Votes: s.hydrate(ctx, items), HasMore: state.HasMore}, nil
}

// CurrentFeed 返回已加载的全部条目，用于过期请求的响应
func (s *Session) CurrentFeed(aud feed.Audience) (FeedView, bool) {
	state, ok := s.Feed.State(aud)
	if !ok {
		return FeedView{}, false
	}
	votes := make(map[string]engagement.Snapshot, len(state.Items))
	for _, it := range state.Items {
		votes[it.ID] = s.Votes.Snapshot(it.ID, s.ViewerID)
	}
	return FeedView{Items: state.Items, Votes: votes, HasMore: state.HasMore}, true
}

// hydrate 查询失败时返回账本中已有的数据
func (s *Session) hydrate(ctx context.Context, items []domain.FeedItem) map[string]engagement.Snapshot {
	out := make(map[string]engagement.Snapshot, len(items))
	if len(items) == 0 {
		return out
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	sums, err := s.store.QueryVoteSummaries(ctx, s.ViewerID, ids)
	if err != nil {
		logger.Warn("vote summaries unavailable", zap.String("viewer", s.ViewerID), zap.Error(err))
	} else {
		s.Votes.Seed(s.ViewerID, sums)
	}
	for _, id := range ids {
		out[id] = s.Votes.Snapshot(id, s.ViewerID)
	}
	return out
}

// Vote 切换投票；请求取消后仍会完成持久化或回滚
func (s *Session) Vote(ctx context.Context, itemID string, t domain.VoteType) (engagement.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.voteTimeout)
	defer cancel()
	return s.Votes.Toggle(ctx, itemID, s.ViewerID, t)
}

func (s *Session) Block(ctx context.Context, userID string) error {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	return s.Blocks.Block(ctx, userID)
}

func (s *Session) Unblock(ctx context.Context, userID string) error {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	return s.Blocks.Unblock(ctx, userID)
}

// BlockedIDs 先按需刷新再返回
func (s *Session) BlockedIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.Blocks.RefreshIfStale(ctx); err != nil {
		return nil, err
	}
	return s.Blocks.IDs(), nil
}

func (s *Session) SearchPeople(ctx context.Context, query string, pageSize int) (PeoplePage, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	if err := s.ensureBlocks(ctx); err != nil {
		return PeoplePage{}, err
	}
	return s.People.Search(ctx, query, pageSize)
}

func (s *Session) MorePeople(ctx context.Context) ([]domain.UserSummary, error) {
	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	return s.People.More(ctx)
}

// ensureBlocks 刷新失败时沿用旧的屏蔽集合；从未加载成功则返回错误，不展示未过滤的数据
func (s *Session) ensureBlocks(ctx context.Context) error {
	err := s.Blocks.RefreshIfStale(ctx)
	if err == nil {
		return nil
	}
	if !s.Blocks.Loaded() {
		return err
	}
	logger.Warn("block list refresh failed, using previous set", zap.String("viewer", s.ViewerID), zap.Error(err))
	return nil
}

func (s *Session) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// SessionOptions 会话参数
type SessionOptions struct {
	IdleTTL       time.Duration
	VoteTimeout   time.Duration
	StoreTimeout  time.Duration
	BlockCacheTTL time.Duration
	Clock         clock.Clock
}

// SessionManager 按用户维护会话，空闲超过 IdleTTL 后回收
type SessionManager struct {
	store     store.DataStore
	audiences feed.Resolver
	opts      SessionOptions

	mu       sync.Mutex
	sessions *cache.Cache
}

func NewSessionManager(st store.DataStore, audiences feed.Resolver, opts SessionOptions) *SessionManager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.VoteTimeout <= 0 {
		opts.VoteTimeout = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	m := &SessionManager{
		store:     st,
		audiences: audiences,
		opts:      opts,
		sessions:  cache.New(opts.IdleTTL, opts.IdleTTL/2),
	}
	m.sessions.OnEvicted(func(string, interface{}) {
		metrics.SetActiveSessions(m.sessions.ItemCount())
	})
	return m
}

// Get 取出或创建会话，并重置空闲计时
func (m *SessionManager) Get(viewerID string) (*Session, error) {
	if viewerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sessions.Get(viewerID); ok {
		s := v.(*Session)
		m.sessions.SetDefault(viewerID, s)
		return s, nil
	}
	s := m.newSession(viewerID)
	m.sessions.SetDefault(viewerID, s)
	metrics.SetActiveSessions(m.sessions.ItemCount())
	logger.Debug("session created", zap.String("viewer", viewerID))
	return s, nil
}

// Drop 主动结束会话
func (m *SessionManager) Drop(viewerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Delete(viewerID)
	metrics.SetActiveSessions(m.sessions.ItemCount())
}

func (m *SessionManager) Len() int { return m.sessions.ItemCount() }

func (m *SessionManager) newSession(viewerID string) *Session {
	blocks := blockcache.New(viewerID, m.store, m.opts.Clock, m.opts.BlockCacheTTL)
	return &Session{
		ViewerID:     viewerID,
		Blocks:       blocks,
		Feed:         feed.NewAggregator(m.store, m.audiences, blocks),
		Votes:        engagement.NewLedger(m.store),
		People:       NewPeopleSearch(m.store, blocks),
		store:        m.store,
		voteTimeout:  m.opts.VoteTimeout,
		storeTimeout: m.opts.StoreTimeout,
	}
}

// IsStale 判断错误是否为被新请求取代的结果
func IsStale(err error) bool { return errors.Is(err, domain.ErrStaleRequest) }
