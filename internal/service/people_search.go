package service

import (
	"context"
	"strings"
	"sync"

	"github.com/d60-Lab/travelfeed/internal/blockcache"
	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/pagination"
	"github.com/d60-Lab/travelfeed/internal/store"
)

// PeoplePage 用户搜索分页状态
type PeoplePage = pagination.PageState[domain.UserSummary]

// PeopleSearch 单个会话的用户搜索；新的 Search 会使进行中的旧请求作废
type PeopleSearch struct {
	store  store.PeopleStore
	blocks blockcache.Checker

	mu    sync.Mutex
	seq   uint64
	query string
	page  *PeoplePage
}

func NewPeopleSearch(st store.PeopleStore, blocks blockcache.Checker) *PeopleSearch {
	return &PeopleSearch{store: st, blocks: blocks}
}

func (p *PeopleSearch) Search(ctx context.Context, query string, pageSize int) (PeoplePage, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	query = strings.TrimSpace(query)

	p.mu.Lock()
	p.seq++
	my := p.seq
	p.mu.Unlock()

	rows, err := p.store.SearchPeople(ctx, query, pageSize, 0)
	if err != nil {
		return PeoplePage{}, domain.WrapStore("search_people", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if my != p.seq {
		return PeoplePage{}, domain.ErrStaleRequest
	}
	page := pagination.New[domain.UserSummary](pageSize)
	page.Record(len(rows), len(rows), p.visible(rows))
	p.query, p.page = query, page
	return page.Snapshot(), nil
}

// More 追加下一页，只返回新增的可见用户
func (p *PeopleSearch) More(ctx context.Context) ([]domain.UserSummary, error) {
	p.mu.Lock()
	if p.page == nil {
		p.mu.Unlock()
		return nil, domain.ErrNoActiveSearch
	}
	if !p.page.HasMore {
		p.mu.Unlock()
		return []domain.UserSummary{}, nil
	}
	seq, page, query := p.seq, p.page, p.query
	offset, size := page.Offset, page.PageSize
	p.mu.Unlock()

	rows, err := p.store.SearchPeople(ctx, query, size, offset)
	if err != nil {
		return nil, domain.WrapStore("search_people", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq || page != p.page || page.Offset != offset {
		return nil, domain.ErrStaleRequest
	}
	visible := p.visible(rows)
	page.Record(len(rows), len(rows), visible)
	return visible, nil
}

// State 返回当前搜索结果
func (p *PeopleSearch) State() (PeoplePage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page == nil {
		return PeoplePage{}, false
	}
	return p.page.Snapshot(), true
}

func (p *PeopleSearch) visible(rows []domain.UserSummary) []domain.UserSummary {
	if p.blocks == nil {
		return rows
	}
	return pagination.Filter(rows, func(u domain.UserSummary) bool { return !p.blocks.IsBlocked(u.ID) })
}
