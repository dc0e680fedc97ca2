package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boxoffice/internal/config"
	"github.com/iliyamo/boxoffice/internal/utils"
)

func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestJWTAuthSetsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken("k", 42, "taquilla", utils.RoleStaff, 5)
	require.NoError(t, err)

	c, rec := newContext(http.MethodGet, "/v1/staff/me")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)

	h := JWTAuth("k")(RequireRole(utils.RoleStaff)(func(c echo.Context) error {
		id, ok := StaffID(c)
		assert.True(t, ok)
		assert.Equal(t, uint64(42), id)
		assert.Equal(t, "staff-42", principal(c))
		return c.NoContent(http.StatusNoContent)
	}))
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTAuthRejects(t *testing.T) {
	other, err := utils.NewAccessToken("other", 1, "x", utils.RoleStaff, 5)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + other.Token,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/")
			if header != "" {
				c.Request().Header.Set(echo.HeaderAuthorization, header)
			}
			require.NoError(t, JWTAuth("k")(ok)(c))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	c.Set(CtxRole, "BUYER")
	require.NoError(t, RequireRole(utils.RoleStaff)(ok)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newContext(http.MethodGet, "/")
	require.NoError(t, RequireRole(utils.RoleStaff)(ok)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/v1/checkout")
	c.SetPath("/v1/checkout")

	key := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c)
	assert.Equal(t, "rl:ip:203.0.113.9:user:anon:route:POST /v1/checkout", key)

	c.Set(CtxStaffID, uint64(7))
	key = buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c)
	assert.Equal(t, "rl:user:staff-7", key)
}

func TestCacheKeyUsesRequestPath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	a, _ := newContext(http.MethodGet, "/v1/events/a")
	b, _ := newContext(http.MethodGet, "/v1/events/b")
	a.SetPath("/v1/events/:id")
	b.SetPath("/v1/events/:id")
	assert.NotEqual(t, cacheKeyFrom(cfg, a), cacheKeyFrom(cfg, b))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, good := decodePayload(bs)
	require.True(t, good)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, good = decodePayload([]byte{1, 2})
	assert.False(t, good)
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/v1/events")
	h := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)(
		NewRedisCache(config.CacheConfig{Enabled: true}, nil)(ok))
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
