package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish_backend/internal/feature/reversesearch/adapters/domain"
	"phish_backend/internal/platform/cache"
	"phish_backend/internal/platform/config"
	infradb "phish_backend/internal/platform/db"
	"phish_backend/internal/platform/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.DB.Path = filepath.Join(t.TempDir(), "phish.db")
	cfg.Pool.Workers = 2
	cfg.Search.ImageEngines = []config.EngineConfig{{Name: "tineye", URL: "http://127.0.0.1:1/search"}}
	return cfg
}

func TestNewApp_ServesCapabilities(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := NewApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v2/capabilities", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detection_methods":["reverse_image_search"],"decision_strategies":["majority","strict","unanimous"]}`, w.Body.String())

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestNewApp_SettingsRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := NewApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	req := httptest.NewRequest(http.MethodPut, "/v2/settings",
		strings.NewReader(`{"uuid":"u1","settings":{"detection_methods":["title_analysis"]}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "title_analysis is not registered without gemini")

	req = httptest.NewRequest(http.MethodPut, "/v2/settings",
		strings.NewReader(`{"uuid":"u1","settings":{"decision_strategy":"unanimous"}}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := app.Settings.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "unanimous", got.DecisionStrategy)
}

func TestNewApp_InvalidLogoModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogoModel.Coefficients = []float64{1, 2}

	_, err := NewApp(context.Background(), cfg, nil)

	assert.ErrorContains(t, err, "logo oracle")
}

func TestNewSessionStore(t *testing.T) {
	db, err := infradb.OpenSQLite(":memory:")
	require.NoError(t, err)

	store := NewSessionStore(nil, db, config.SessionConfig{})
	assert.NotNil(t, store)
	_, isRedis := store.(*session.SessionRedis)
	assert.False(t, isRedis)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store = NewSessionStore(rdb, db, config.SessionConfig{})
	_, isRedis = store.(*session.SessionRedis)
	assert.True(t, isRedis)
}

func TestNewDomainResolver(t *testing.T) {
	r := NewDomainResolver(nil, config.SearchConfig{}, nil)
	_, ok := r.(*domain.Resolver)
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r = NewDomainResolver(rdb, config.SearchConfig{}, nil)
	_, ok = r.(*cache.CachingDomainResolver)
	assert.True(t, ok)
}

func TestNewWaitPolicy(t *testing.T) {
	p := NewWaitPolicy(config.SessionConfig{MaxWait: 5 * time.Second})
	assert.Equal(t, 5*time.Second, p.MaxWait)
	assert.Positive(t, p.InitialDelay)
}

func TestNewTextEngines(t *testing.T) {
	engines := NewTextEngines(config.NewConfig().Search)
	require.Len(t, engines, 1)
	assert.Equal(t, "duckduckgo", engines[0].Name())
}
