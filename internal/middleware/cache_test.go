package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamerchallenges/api/internal/config"
)

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func doCached(t *testing.T, mw echo.MiddlewareFunc, method, target string, calls *int) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/challenges")

	h := mw(func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusOK, echo.Map{"data": []string{"one", "two"}})
	})
	require.NoError(t, h(c))
	return rec
}

func TestCacheMissThenHit(t *testing.T) {
	mw := NewRedisCache(cacheConfig(), testRedis(t))
	calls := 0

	rec := doCached(t, mw, http.MethodGet, "/api/challenges", &calls)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	first := rec.Body.String()

	rec = doCached(t, mw, http.MethodGet, "/api/challenges", &calls)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls, "handler must not run on a hit")
	assert.Equal(t, first, rec.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	mw := NewRedisCache(cacheConfig(), testRedis(t))
	calls := 0

	doCached(t, mw, http.MethodGet, "/api/challenges?page=1", &calls)
	doCached(t, mw, http.MethodGet, "/api/challenges?page=2", &calls)
	assert.Equal(t, 2, calls, "different queries must not share an entry")

	doCached(t, mw, http.MethodGet, "/api/challenges?page=1", &calls)
	assert.Equal(t, 2, calls)
}

func TestCacheSkipsOtherMethods(t *testing.T) {
	mw := NewRedisCache(cacheConfig(), testRedis(t))
	calls := 0

	doCached(t, mw, http.MethodPost, "/api/challenges", &calls)
	doCached(t, mw, http.MethodPost, "/api/challenges", &calls)
	assert.Equal(t, 2, calls)
}

func TestCacheSkipsNon200(t *testing.T) {
	mw := NewRedisCache(cacheConfig(), testRedis(t))
	calls := 0

	notFound := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "challenge not found"})
	}

	e := echo.New()
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/challenges/99/entries", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/api/challenges/:challengeId/entries")
		require.NoError(t, mw(notFound)(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, 2, calls, "error responses must not be cached")
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	cfg := cacheConfig()
	cfg.Enabled = false
	mw := NewRedisCache(cfg, testRedis(t))
	calls := 0

	doCached(t, mw, http.MethodGet, "/api/challenges", &calls)
	rec := doCached(t, mw, http.MethodGet, "/api/challenges", &calls)
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
