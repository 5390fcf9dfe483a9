// Package store declares the data-store boundary the engine depends on.
// Every method may fail with an error matching domain.ErrStoreUnavailable.
package store

import (
	"context"
	"time"

	"github.com/d60-Lab/travelfeed/internal/domain"
)

// FeedStore returns events sorted by created_at descending.
type FeedStore interface {
	QueryCityRatingEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error)
	QuerySpotReviewEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error)
}

type VoteStore interface {
	InsertVote(ctx context.Context, voterID, targetID string, t domain.VoteType) error
	DeleteVote(ctx context.Context, voterID, targetID string) error
	// ReplaceVote deletes the voter's row and inserts t in one transaction.
	ReplaceVote(ctx context.Context, voterID, targetID string, t domain.VoteType) error
	QueryVoteSummaries(ctx context.Context, voterID string, targetIDs []string) (map[string]domain.VoteSummary, error)
}

type BlockStore interface {
	QueryBlockedIDs(ctx context.Context, viewerID string) ([]string, error)
	InsertBlock(ctx context.Context, blockerID, blockedID string) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
}

type ThrottleStore interface {
	// QueryMostRecentThrottle returns nil when the pair has never been notified.
	QueryMostRecentThrottle(ctx context.Context, actorID, recipientID string) (*time.Time, error)
	InsertThrottleRecord(ctx context.Context, actorID, recipientID string, now time.Time) error
}

type AudienceStore interface {
	QueryFollowingIDs(ctx context.Context, viewerID string) ([]string, error)
	QueryPromotedActorIDs(ctx context.Context) ([]string, error)
}

type PeopleStore interface {
	SearchPeople(ctx context.Context, query string, limit, offset int) ([]domain.UserSummary, error)
}

// DataStore is the full collaborator surface.
type DataStore interface {
	FeedStore
	VoteStore
	BlockStore
	ThrottleStore
	AudienceStore
	PeopleStore
}
