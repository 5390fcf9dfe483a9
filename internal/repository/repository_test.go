package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/model"
	"github.com/d60-Lab/travelfeed/internal/notify"
	"github.com/d60-Lab/travelfeed/pkg/database"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 每个连接都是独立的内存库
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func strPtr(s string) *string { return &s }

func seedUser(t testing.TB, db *gorm.DB, id string, featured bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.User{
		ID: id, Username: id, DisplayName: "Display " + id,
		Email: id + "@example.com", Password: "p", IsFeatured: featured,
	}).Error)
}

func seedPlaces(t testing.TB, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&model.Country{ID: "jp", Name: "Japan"}).Error)
	require.NoError(t, db.Create(&model.Region{ID: "kyoto", CountryID: "jp", Name: "Kyoto", ImageRef: strPtr("img/kyoto.jpg")}).Error)
	require.NoError(t, db.Create(&model.Spot{ID: "fushimi", RegionID: "kyoto", Name: "Fushimi Inari", Category: "Landmark", AvgRating: 4.8}).Error)
}

func TestActivity_CityRatingEvents(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice", true)
	seedUser(t, db, "bob", false)
	seedPlaces(t, db)
	for i, u := range []string{"alice", "bob", "alice"} {
		require.NoError(t, db.Create(&model.CityRating{
			ID: fmt.Sprintf("cr%d", i), UserID: u, RegionID: "kyoto", Rating: float64(i + 1),
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	repo := NewActivityRepository(db)
	ctx := context.Background()

	items, err := repo.CityRatingEvents(ctx, []string{"alice"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "cr2_city", items[0].ID)
	assert.Equal(t, "cr0_city", items[1].ID)
	assert.Equal(t, domain.KindCityRating, items[0].Kind)
	assert.Equal(t, "alice", items[0].ActorID())
	assert.True(t, items[0].Actor.IsFeatured)
	assert.Equal(t, "Display alice", items[0].Actor.DisplayName)
	require.NotNil(t, items[0].City)
	assert.Equal(t, "Kyoto", items[0].City.RegionName)
	assert.Equal(t, "Japan", items[0].City.CountryName)
	assert.Equal(t, "img/kyoto.jpg", *items[0].City.RegionImageRef)
	assert.True(t, items[0].CreatedAt.Equal(t0.Add(2*time.Minute)))

	page, err := repo.CityRatingEvents(ctx, []string{"alice", "bob"}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "cr1_city", page[0].ID)
	assert.Equal(t, "cr0_city", page[1].ID)

	none, err := repo.CityRatingEvents(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestActivity_SpotReviewEvents(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice", false)
	seedPlaces(t, db)
	require.NoError(t, db.Create(&model.SpotReview{
		ID: "sr1", UserID: "alice", SpotID: "fushimi", Rating: 5,
		Comment: strPtr("so many gates"), CreatedAt: t0,
	}).Error)

	items, err := NewActivityRepository(db).SpotReviewEvents(context.Background(), []string{"alice"}, 10, 0)

	require.NoError(t, err)
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "sr1_spot", it.ID)
	assert.Equal(t, "alice", it.ActorID())
	assert.Equal(t, "Display alice", it.Actor.DisplayName)
	assert.False(t, it.Actor.IsFeatured)
	require.NotNil(t, it.Spot)
	assert.Nil(t, it.City)
	assert.Equal(t, "Fushimi Inari", it.Spot.SpotName)
	assert.Equal(t, domain.CategoryLandmark, it.Spot.Category)
	assert.Equal(t, "Kyoto", it.Spot.ParentRegionName)
	assert.Equal(t, "Japan", it.Spot.ParentCountryName)
	assert.InDelta(t, 4.8, it.Spot.SpotAvgRating, 0.001)
	assert.Equal(t, "so many gates", *it.Spot.ReviewComment)
}

func TestVotes_InsertDeleteSummaries(t *testing.T) {
	db := setupTestDB(t)
	st := NewStore(db)
	ctx := context.Background()

	require.NoError(t, st.InsertVote(ctx, "v1", "a_city", domain.VoteUp))
	require.NoError(t, st.InsertVote(ctx, "v2", "a_city", domain.VoteUp))
	require.NoError(t, st.InsertVote(ctx, "v3", "a_city", domain.VoteDown))
	require.NoError(t, st.InsertVote(ctx, "v1", "b_spot", domain.VoteDown))

	err := st.InsertVote(ctx, "v1", "a_city", domain.VoteDown)
	assert.ErrorIs(t, err, domain.ErrConflictingVote)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)

	sums, err := st.QueryVoteSummaries(ctx, "v1", []string{"a_city", "b_spot", "c_city"})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteSummary{Up: 2, Down: 1, Mine: domain.VoteStateUp}, sums["a_city"])
	assert.Equal(t, domain.VoteSummary{Up: 0, Down: 1, Mine: domain.VoteStateDown}, sums["b_spot"])
	assert.Equal(t, domain.VoteSummary{Mine: domain.VoteNone}, sums["c_city"])

	require.NoError(t, st.DeleteVote(ctx, "v1", "a_city"))
	require.NoError(t, st.DeleteVote(ctx, "v1", "a_city"), "deleting a missing row is fine")
	sums, err = st.QueryVoteSummaries(ctx, "v1", []string{"a_city"})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteSummary{Up: 1, Down: 1, Mine: domain.VoteNone}, sums["a_city"])
}

func TestVotes_ReplaceIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	st := NewStore(db)
	ctx := context.Background()

	require.NoError(t, st.ReplaceVote(ctx, "v1", "a_city", domain.VoteUp))
	require.NoError(t, st.ReplaceVote(ctx, "v1", "a_city", domain.VoteDown))
	sums, err := st.QueryVoteSummaries(ctx, "v1", []string{"a_city"})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteSummary{Up: 0, Down: 1, Mine: domain.VoteStateDown}, sums["a_city"])

	// 插入失败时，删除也必须回滚
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_vote_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == "votes" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))
	err = st.ReplaceVote(ctx, "v1", "a_city", domain.VoteUp)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	sums, err = st.QueryVoteSummaries(ctx, "v1", []string{"a_city"})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteSummary{Up: 0, Down: 1, Mine: domain.VoteStateDown}, sums["a_city"])
}

func TestBlocks_Idempotent(t *testing.T) {
	st := NewStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, st.InsertBlock(ctx, "me", "x"))
	require.NoError(t, st.InsertBlock(ctx, "me", "x"))
	require.NoError(t, st.InsertBlock(ctx, "me", "y"))
	require.NoError(t, st.InsertBlock(ctx, "other", "me"))

	ids, err := st.QueryBlockedIDs(ctx, "me")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, ids)

	require.NoError(t, st.DeleteBlock(ctx, "me", "x"))
	ids, err = st.QueryBlockedIDs(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, ids)
}

func TestThrottle_Latest(t *testing.T) {
	st := NewStore(setupTestDB(t))
	ctx := context.Background()

	ts, err := st.QueryMostRecentThrottle(ctx, "a", "r")
	require.NoError(t, err)
	assert.Nil(t, ts)

	require.NoError(t, st.InsertThrottleRecord(ctx, "a", "r", t0))
	require.NoError(t, st.InsertThrottleRecord(ctx, "a", "r", t0.Add(2*time.Hour)))
	require.NoError(t, st.InsertThrottleRecord(ctx, "a", "other", t0.Add(5*time.Hour)))

	ts, err = st.QueryMostRecentThrottle(ctx, "a", "r")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(t0.Add(2*time.Hour)))
}

func TestFollows_AudienceAndLists(t *testing.T) {
	db := setupTestDB(t)
	st := NewStore(db)
	ctx := context.Background()
	repo := st.Follows

	require.NoError(t, repo.Create(ctx, "v", "b"))
	require.NoError(t, repo.Create(ctx, "v", "a"))
	require.NoError(t, repo.Create(ctx, "v", "a"))
	require.NoError(t, repo.Create(ctx, "c", "a"))

	ids, err := st.QueryFollowingIDs(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	followers, err := repo.ListFollowers(ctx, "a", 0, 10)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	ok, err := repo.Exists(ctx, "v", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "v", "b"))
	ids, err = st.QueryFollowingIDs(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	ids, err = st.QueryFollowingIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUsers_PromotedAndSearch(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "kate", true)
	seedUser(t, db, "kevin", false)
	seedUser(t, db, "zoe", true)
	seedUser(t, db, "k_r", false)
	st := NewStore(db)
	ctx := context.Background()

	ids, err := st.QueryPromotedActorIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kate", "zoe"}, ids)

	people, err := st.SearchPeople(ctx, "KE", 10, 0)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "kevin", people[0].ID)

	people, err = st.SearchPeople(ctx, "k", 2, 0)
	require.NoError(t, err)
	assert.Len(t, people, 2)
	people, err = st.SearchPeople(ctx, "k", 2, 2)
	require.NoError(t, err)
	assert.Len(t, people, 1)

	// '_' 需要按字面匹配
	people, err = st.SearchPeople(ctx, "k_", 10, 0)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "k_r", people[0].ID)

	people, err = st.SearchPeople(ctx, "display z", 10, 0)
	require.NoError(t, err)
	require.Len(t, people, 1)

	people, err = st.SearchPeople(ctx, "   ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestNotificationRepository_DeliverIdempotent(t *testing.T) {
	repo := NewNotificationRepository(setupTestDB(t))
	ctx := context.Background()
	n := notify.Notification{ID: "n1", RecipientID: "r", ActorID: "a", Kind: domain.NotifyNewFollower, CreatedAt: t0}

	require.NoError(t, repo.Deliver(ctx, n))
	require.NoError(t, repo.Deliver(ctx, n))

	rows, err := repo.ListByRecipient(ctx, "r", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new_follower", rows[0].Kind)
	assert.Equal(t, "db", repo.Name())
}

func TestStore_BackendFailureIsUnavailable(t *testing.T) {
	db := setupTestDB(t)
	st := NewStore(db)
	require.NoError(t, database.Close(db))

	_, err := st.QueryBlockedIDs(context.Background(), "me")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = st.QueryCityRatingEvents(context.Background(), []string{"a"}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
