package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/travelfeed/internal/domain"
)

type mockAudienceStore struct {
	following     map[string][]string
	promoted      []string
	promotedCalls int
	err           error
}

func (m *mockAudienceStore) QueryFollowingIDs(ctx context.Context, viewerID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.following[viewerID], nil
}

func (m *mockAudienceStore) QueryPromotedActorIDs(ctx context.Context) ([]string, error) {
	m.promotedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.promoted, nil
}

func TestResolve_FollowingIncludesViewer(t *testing.T) {
	st := &mockAudienceStore{following: map[string][]string{"v": {"a", "v", "b"}}}
	r := NewAudienceResolver(st, time.Minute)

	ids, err := r.Resolve(context.Background(), AudienceFollowing, "v")

	require.NoError(t, err)
	assert.Equal(t, []string{"v", "a", "b"}, ids)
}

func TestResolve_FollowingNobodyIsEmpty(t *testing.T) {
	r := NewAudienceResolver(&mockAudienceStore{}, time.Minute)

	ids, err := r.Resolve(context.Background(), AudienceFollowing, "v")

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestResolve_PromotedIsCached(t *testing.T) {
	st := &mockAudienceStore{promoted: []string{"f1", "f2"}}
	r := NewAudienceResolver(st, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ids, err := r.Resolve(ctx, AudiencePromoted, "v")
		require.NoError(t, err)
		assert.Equal(t, []string{"f1", "f2"}, ids)
	}
	assert.Equal(t, 1, st.promotedCalls)

	r.InvalidatePromoted()
	_, err := r.Resolve(ctx, AudiencePromoted, "v")
	require.NoError(t, err)
	assert.Equal(t, 2, st.promotedCalls)
}

func TestResolve_StoreErrorIsUnavailable(t *testing.T) {
	r := NewAudienceResolver(&mockAudienceStore{err: errors.New("timeout")}, time.Minute)

	_, err := r.Resolve(context.Background(), AudienceFollowing, "v")

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
