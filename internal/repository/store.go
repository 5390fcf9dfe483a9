package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/store"
)

// Store 组合各 repository，实现 store.DataStore；所有错误都包装为 StoreError
type Store struct {
	Activity ActivityRepository
	Votes    VoteRepository
	Blocks   BlockRepository
	Throttle ThrottleRepository
	Follows  FollowRepository
	Users    UserRepository
}

var _ store.DataStore = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Activity: NewActivityRepository(db),
		Votes:    NewVoteRepository(db),
		Blocks:   NewBlockRepository(db),
		Throttle: NewThrottleRepository(db),
		Follows:  NewFollowRepository(db),
		Users:    NewUserRepository(db),
	}
}

func (s *Store) QueryCityRatingEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error) {
	items, err := s.Activity.CityRatingEvents(ctx, actorIDs, limit, offset)
	return items, domain.WrapStore("query_city_rating_events", err)
}

func (s *Store) QuerySpotReviewEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error) {
	items, err := s.Activity.SpotReviewEvents(ctx, actorIDs, limit, offset)
	return items, domain.WrapStore("query_spot_review_events", err)
}

func (s *Store) InsertVote(ctx context.Context, voterID, targetID string, t domain.VoteType) error {
	return domain.WrapStore("insert_vote", s.Votes.Insert(ctx, voterID, targetID, t))
}

func (s *Store) DeleteVote(ctx context.Context, voterID, targetID string) error {
	return domain.WrapStore("delete_vote", s.Votes.Delete(ctx, voterID, targetID))
}

func (s *Store) ReplaceVote(ctx context.Context, voterID, targetID string, t domain.VoteType) error {
	return domain.WrapStore("replace_vote", s.Votes.Replace(ctx, voterID, targetID, t))
}

func (s *Store) QueryVoteSummaries(ctx context.Context, voterID string, targetIDs []string) (map[string]domain.VoteSummary, error) {
	m, err := s.Votes.Summaries(ctx, voterID, targetIDs)
	return m, domain.WrapStore("query_vote_summaries", err)
}

func (s *Store) QueryBlockedIDs(ctx context.Context, viewerID string) ([]string, error) {
	ids, err := s.Blocks.BlockedIDs(ctx, viewerID)
	return ids, domain.WrapStore("query_blocked_ids", err)
}

func (s *Store) InsertBlock(ctx context.Context, blockerID, blockedID string) error {
	return domain.WrapStore("insert_block", s.Blocks.Create(ctx, blockerID, blockedID))
}

func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	return domain.WrapStore("delete_block", s.Blocks.Delete(ctx, blockerID, blockedID))
}

func (s *Store) QueryMostRecentThrottle(ctx context.Context, actorID, recipientID string) (*time.Time, error) {
	ts, err := s.Throttle.Latest(ctx, actorID, recipientID)
	return ts, domain.WrapStore("query_most_recent_throttle", err)
}

func (s *Store) InsertThrottleRecord(ctx context.Context, actorID, recipientID string, now time.Time) error {
	return domain.WrapStore("insert_throttle_record", s.Throttle.Insert(ctx, actorID, recipientID, now))
}

func (s *Store) QueryFollowingIDs(ctx context.Context, viewerID string) ([]string, error) {
	ids, err := s.Follows.FollowingIDs(ctx, viewerID)
	return ids, domain.WrapStore("query_following_ids", err)
}

func (s *Store) QueryPromotedActorIDs(ctx context.Context) ([]string, error) {
	ids, err := s.Users.FeaturedIDs(ctx)
	return ids, domain.WrapStore("query_promoted_actor_ids", err)
}

func (s *Store) SearchPeople(ctx context.Context, query string, limit, offset int) ([]domain.UserSummary, error) {
	users, err := s.Users.Search(ctx, query, limit, offset)
	return users, domain.WrapStore("search_people", err)
}
