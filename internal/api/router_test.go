package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/travelfeed/config"
	"github.com/d60-Lab/travelfeed/internal/api/handler"
	"github.com/d60-Lab/travelfeed/internal/api/middleware"
	"github.com/d60-Lab/travelfeed/internal/feed"
	"github.com/d60-Lab/travelfeed/internal/model"
	"github.com/d60-Lab/travelfeed/internal/repository"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/pkg/database"
)

const testSecret = "test-secret"

type testEnv struct {
	router http.Handler
	db     *gorm.DB
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	require.NoError(t, db.Create(&model.Country{ID: "fr", Name: "France"}).Error)
	require.NoError(t, db.Create(&model.Region{ID: "paris", CountryID: "fr", Name: "Paris"}).Error)
	for _, id := range []string{"me", "friend", "stranger"} {
		require.NoError(t, db.Create(&model.User{ID: id, Username: id, DisplayName: id, Email: id + "@example.com", Password: "p"}).Error)
	}
	require.NoError(t, db.Create(&model.CityRating{ID: "r1", UserID: "friend", RegionID: "paris", Rating: 4.5, CreatedAt: time.Now()}).Error)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = testSecret
	cfg.JWT.Issuer = "travelfeed"

	st := repository.NewStore(db)
	sessions := service.NewSessionManager(st, feed.NewAudienceResolver(st, time.Minute), service.SessionOptions{IdleTTL: time.Minute})
	rel := service.NewRelationshipService(st.Follows, st.Users, nil, nil, nil)
	r, err := NewRouter(cfg, handler.NewHandler(sessions, rel, handler.PageLimits{Default: 20, Max: 50}))
	require.NoError(t, err)
	return &testEnv{router: r, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, err := middleware.IssueToken(testSecret, "travelfeed", user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

type feedData struct {
	Items []struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	} `json:"items"`
	Votes   map[string]struct{ Net int } `json:"votes"`
	HasMore bool                         `json:"has_more"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPI_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAPI_FollowFeedVote(t *testing.T) {
	env := newTestEnv(t)

	code, env0 := env.do(t, http.MethodGet, "/api/v1/feed?audience=following", "me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[feedData](t, env0.Data).Items)

	code, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow", "me", map[string]string{"to_user_id": "friend"})
	require.Equal(t, http.StatusOK, code)

	code, res := env.do(t, http.MethodGet, "/api/v1/feed", "me", nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[feedData](t, res.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "r1_city", page.Items[0].ID)
	assert.False(t, page.HasMore)

	code, res = env.do(t, http.MethodPost, "/api/v1/votes", "me", map[string]string{"item_id": "r1_city", "type": "up"})
	require.Equal(t, http.StatusOK, code)
	snap := decode[struct {
		Net   int    `json:"net"`
		State string `json:"state"`
	}](t, res.Data)
	assert.Equal(t, 1, snap.Net)
	assert.Equal(t, "up", snap.State)

	code, res = env.do(t, http.MethodGet, "/api/v1/relations/me/following", "me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), `"friend"`)
}

func TestAPI_Validation(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/v1/votes", "me", map[string]string{"item_id": "r1_city", "type": "sideways"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/feed?audience=everyone", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/feed/more?audience=promoted", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow", "me", map[string]string{"to_user_id": "me"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/relations/follow", "me", map[string]string{"to_user_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/blocks", "me", map[string]string{"user_id": "me"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_BlockHidesItems(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/api/v1/relations/follow", "me", map[string]string{"to_user_id": "friend"})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/blocks", "me", map[string]string{"user_id": "friend"})
	require.Equal(t, http.StatusOK, code)

	_, res := env.do(t, http.MethodGet, "/api/v1/feed", "me", nil)
	assert.Empty(t, decode[feedData](t, res.Data).Items)

	_, res = env.do(t, http.MethodGet, "/api/v1/blocks", "me", nil)
	assert.Contains(t, string(res.Data), `"friend"`)

	code, _ = env.do(t, http.MethodDelete, "/api/v1/blocks/friend", "me", nil)
	require.Equal(t, http.StatusOK, code)
	_, res = env.do(t, http.MethodGet, "/api/v1/feed", "me", nil)
	assert.Len(t, decode[feedData](t, res.Data).Items, 1)
}

func TestAPI_PeopleSearch(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodGet, "/api/v1/people?q=fr&page_size=5", "me", nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		HasMore bool `json:"has_more"`
	}](t, res.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "friend", page.Items[0].ID)
	assert.False(t, page.HasMore)

	code, _ = env.do(t, http.MethodGet, "/api/v1/people", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
