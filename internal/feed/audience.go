package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/store"
)

// Audience selects whose events a feed shows.
type Audience string

const (
	AudienceFollowing Audience = "following"
	AudiencePromoted  Audience = "promoted"
)

func ParseAudience(s string) (Audience, error) {
	switch Audience(s) {
	case AudienceFollowing, AudiencePromoted:
		return Audience(s), nil
	}
	return "", domain.ErrInvalidAudience
}

// Resolver turns an audience into the actor ids whose events are shown.
type Resolver interface {
	Resolve(ctx context.Context, aud Audience, viewerID string) ([]string, error)
}

const promotedKey = "promoted"

// AudienceResolver resolves audiences against the store. The promoted-creator list is shared
// by all viewers and cached in process.
type AudienceResolver struct {
	store    store.AudienceStore
	promoted *cache.Cache
}

func NewAudienceResolver(st store.AudienceStore, promotedTTL time.Duration) *AudienceResolver {
	if promotedTTL <= 0 {
		promotedTTL = time.Minute
	}
	return &AudienceResolver{store: st, promoted: cache.New(promotedTTL, 2*promotedTTL)}
}

// Resolve returns the viewer plus every followee for AudienceFollowing, or nothing when the
// viewer follows nobody; for AudiencePromoted it returns every featured actor.
func (r *AudienceResolver) Resolve(ctx context.Context, aud Audience, viewerID string) ([]string, error) {
	switch aud {
	case AudienceFollowing:
		ids, err := r.store.QueryFollowingIDs(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("resolve following: %w", domain.WrapStore("query_following_ids", err))
		}
		if len(ids) == 0 {
			return nil, nil
		}
		out := make([]string, 0, len(ids)+1)
		out = append(out, viewerID)
		for _, id := range ids {
			if id != viewerID {
				out = append(out, id)
			}
		}
		return out, nil
	case AudiencePromoted:
		if v, ok := r.promoted.Get(promotedKey); ok {
			return v.([]string), nil
		}
		ids, err := r.store.QueryPromotedActorIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve promoted: %w", domain.WrapStore("query_promoted_actor_ids", err))
		}
		r.promoted.SetDefault(promotedKey, ids)
		return ids, nil
	default:
		return nil, domain.ErrInvalidAudience
	}
}

// InvalidatePromoted forces the next promoted lookup to hit the store.
func (r *AudienceResolver) InvalidatePromoted() {
	r.promoted.Delete(promotedKey)
}
