package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/offer-stocks/internal/cache"
	"github.com/iliyamo/offer-stocks/internal/config"
)

const testSecret = "test-secret"

func signed(t *testing.T, sub any, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func whoami(c echo.Context) error {
	id, ok := CurrentUserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok})
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret), RequireRole(RoleOwner))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", signed(t, 7, "USER"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/me", signed(t, 7, RoleOwner))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID uint64 `json:"id"`
		OK bool   `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, uint64(7), body.ID)
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth("other"))
	rec := serve(e, http.MethodGet, "/me", signed(t, 7, RoleOwner))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserIDShapes(t *testing.T) {
	e := echo.New()
	cases := []struct {
		in   any
		want uint64
		ok   bool
	}{
		{float64(12), 12, true},
		{"34", 34, true},
		{json.Number("56"), 56, true},
		{"abc", 0, false},
		{float64(0), 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", tc.in)
		got, ok := CurrentUserID(c)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/offers/3/stocks", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/offers/:id/stocks")
	c.Set("user_id", float64(9))

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	assert.Equal(t, "rl:user:9:route:GET /v1/offers/:id/stocks", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
}

func TestRedisCacheMissThenHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	oc := cache.New(db, "pfx", time.Minute)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, KeyStrategy: "route_query"}

	calls := 0
	e := echo.New()
	setUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", float64(7))
			return next(c)
		}
	}
	e.GET("/v1/offers/:id/stocks", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"total_count": 3})
	}, setUser, NewRedisCache(cfg, oc))

	key := oc.Key(5, "user", "7", "route", "/v1/offers/:id/stocks", "q", "page=2")

	var stored []byte
	mock.ExpectGet(key).RedisNil()
	mock.CustomMatch(func(expected, actual []interface{}) error {
		if b, ok := actual[len(actual)-1].([]byte); ok {
			stored = b
		}
		return nil
	}).ExpectSetEx(key, nil, time.Minute).SetVal("OK")

	rec := serve(e, http.MethodGet, "/v1/offers/5/stocks?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.NotEmpty(t, stored)

	mock.ExpectGet(key).SetVal(string(stored))
	rec = serve(e, http.MethodGet, "/v1/offers/5/stocks?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"total_count":3}`, rec.Body.String())
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSkipsRoutesWithoutOffer(t *testing.T) {
	db, mock := redismock.NewClientMock()
	oc := cache.New(db, "pfx", time.Minute)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}

	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewRedisCache(cfg, oc))

	rec := serve(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
