// Package engagement keeps per-item up/down vote state and counts with optimistic updates.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/metrics"
)

var tracer = otel.Tracer("engagement")

// Counts holds the per-item vote totals. Net is always derived.
type Counts struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

func (c Counts) Net() int { return c.Up - c.Down }

func (c Counts) add(d Counts) Counts {
	return Counts{Up: max(c.Up+d.Up, 0), Down: max(c.Down+d.Down, 0)}
}

func (c Counts) sub(d Counts) Counts {
	return Counts{Up: c.Up - d.Up, Down: c.Down - d.Down}
}

// Snapshot is the read model for one item from one voter's perspective.
type Snapshot struct {
	ItemID string           `json:"item_id"`
	Counts Counts           `json:"counts"`
	Net    int              `json:"net"`
	State  domain.VoteState `json:"state"`
}

// Transition returns the next state and count delta for casting t in state s.
func Transition(s domain.VoteState, t domain.VoteType) (domain.VoteState, Counts) {
	switch {
	case s == domain.VoteStateUp && t == domain.VoteUp:
		return domain.VoteNone, Counts{Up: -1}
	case s == domain.VoteStateUp && t == domain.VoteDown:
		return domain.VoteStateDown, Counts{Up: -1, Down: 1}
	case s == domain.VoteStateDown && t == domain.VoteDown:
		return domain.VoteNone, Counts{Down: -1}
	case s == domain.VoteStateDown && t == domain.VoteUp:
		return domain.VoteStateUp, Counts{Up: 1, Down: -1}
	case t == domain.VoteUp:
		return domain.VoteStateUp, Counts{Up: 1}
	default:
		return domain.VoteStateDown, Counts{Down: 1}
	}
}

type key struct {
	item  string
	voter string
}

// Ledger is owned by one session. Its lock is never held across a store call.
type Ledger struct {
	store store.VoteStore

	mu       sync.Mutex
	counts   map[string]Counts
	states   map[key]domain.VoteState
	inflight map[key]struct{}
	busy     map[string]int
}

func NewLedger(st store.VoteStore) *Ledger {
	return &Ledger{
		store:    st,
		counts:   map[string]Counts{},
		states:   map[key]domain.VoteState{},
		inflight: map[key]struct{}{},
		busy:     map[string]int{},
	}
}

// Seed installs store baselines. Items with a toggle in flight keep their optimistic values.
func (l *Ledger) Seed(voterID string, summaries map[string]domain.VoteSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for itemID, s := range summaries {
		if l.busy[itemID] > 0 {
			continue
		}
		l.counts[itemID] = Counts{Up: max(s.Up, 0), Down: max(s.Down, 0)}
		if voterID != "" {
			state := s.Mine
			if state == "" {
				state = domain.VoteNone
			}
			l.states[key{itemID, voterID}] = state
		}
	}
}

// Snapshot returns the current counts and the voter's state for an item.
func (l *Ledger) Snapshot(itemID, voterID string) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked(key{itemID, voterID})
}

func (l *Ledger) snapshotLocked(k key) Snapshot {
	c := l.counts[k.item]
	state, ok := l.states[k]
	if !ok {
		state = domain.VoteNone
	}
	return Snapshot{ItemID: k.item, Counts: c, Net: c.Net(), State: state}
}

// Pending is an optimistically applied toggle awaiting persistence.
type Pending struct {
	ledger  *Ledger
	k       key
	vote    domain.VoteType
	prev    domain.VoteState
	next    domain.VoteState
	applied Counts
	view    Snapshot

	once sync.Once
}

// Optimistic is the state the viewer sees while persistence runs.
func (p *Pending) Optimistic() Snapshot { return p.view }

// Begin applies the transition locally. A second Begin for the same (item, voter) before the
// first commits fails with ErrToggleInProgress.
func (l *Ledger) Begin(itemID, voterID string, t domain.VoteType) (*Pending, error) {
	if voterID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if _, err := domain.ParseVoteType(string(t)); err != nil {
		return nil, err
	}

	k := key{itemID, voterID}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.inflight[k]; ok {
		metrics.RecordVoteToggle("rejected")
		return nil, domain.ErrToggleInProgress
	}

	prev, ok := l.states[k]
	if !ok {
		prev = domain.VoteNone
	}
	next, delta := Transition(prev, t)
	before := l.counts[itemID]
	after := before.add(delta)
	l.counts[itemID] = after
	l.states[k] = next
	l.inflight[k] = struct{}{}
	l.busy[itemID]++

	return &Pending{
		ledger:  l,
		k:       k,
		vote:    t,
		prev:    prev,
		next:    next,
		applied: after.sub(before),
		view:    l.snapshotLocked(k),
	}, nil
}

// Commit persists the toggle: the vote row is replaced atomically, or only deleted when the
// toggle turned the vote off. On failure the pre-toggle state and counts are restored and the error
// is returned. Commit runs at most once; later calls return the current snapshot.
func (p *Pending) Commit(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
		ran  bool
	)
	p.once.Do(func() {
		ran = true
		err = p.persist(ctx)
		snap = p.ledger.settle(p, err)
	})
	if !ran {
		return p.ledger.Snapshot(p.k.item, p.k.voter), nil
	}
	return snap, err
}

func (p *Pending) persist(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Engagement.Ledger.Commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("item_id", p.k.item),
		attribute.String("next_state", string(p.next)),
	)

	st := p.ledger.store
	if p.next == domain.VoteNone {
		if err := st.DeleteVote(ctx, p.k.voter, p.k.item); err != nil {
			span.RecordError(err)
			return fmt.Errorf("delete vote: %w", domain.WrapStore("delete_vote", err))
		}
		return nil
	}
	if err := st.ReplaceVote(ctx, p.k.voter, p.k.item, p.vote); err != nil {
		span.RecordError(err)
		return fmt.Errorf("replace vote: %w", domain.WrapStore("replace_vote", err))
	}
	return nil
}

func (l *Ledger) settle(p *Pending, err error) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.inflight, p.k)
	if l.busy[p.k.item]--; l.busy[p.k.item] <= 0 {
		delete(l.busy, p.k.item)
	}

	if err != nil {
		c := l.counts[p.k.item].sub(p.applied)
		l.counts[p.k.item] = Counts{Up: max(c.Up, 0), Down: max(c.Down, 0)}
		l.states[p.k] = p.prev
		outcome := "rolled_back"
		if errors.Is(err, domain.ErrConflictingVote) {
			outcome = "conflict"
		}
		metrics.RecordVoteToggle(outcome)
		logger.Warn("vote toggle rolled back",
			zap.String("item", p.k.item), zap.String("voter", p.k.voter), zap.Error(err))
	} else {
		metrics.RecordVoteToggle("committed")
	}
	return l.snapshotLocked(p.k)
}

// Toggle is Begin followed by Commit.
func (l *Ledger) Toggle(ctx context.Context, itemID, voterID string, t domain.VoteType) (Snapshot, error) {
	p, err := l.Begin(itemID, voterID, t)
	if err != nil {
		return Snapshot{}, err
	}
	return p.Commit(ctx)
}
