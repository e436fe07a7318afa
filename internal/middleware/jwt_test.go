package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinelstudios/website-sub000/internal/auth"
	"github.com/shinelstudios/website-sub000/internal/model"
)

func newTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", 30*time.Minute, 7*24*time.Hour)
}

func runChain(t *testing.T, mw []echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := echo.HandlerFunc(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, reached
}

func TestJWTAuthAcceptsAccessToken(t *testing.T) {
	tokens := newTokens()
	access, err := tokens.IssueAccess(auth.Identity{Email: "ana@shinel.studio", Role: model.RoleTeam})
	require.NoError(t, err)

	rec, reached := runChain(t, []echo.MiddlewareFunc{JWTAuth(tokens)}, "Bearer "+access)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec, reached := runChain(t, []echo.MiddlewareFunc{JWTAuth(newTokens())}, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbage(t *testing.T) {
	rec, reached := runChain(t, []echo.MiddlewareFunc{JWTAuth(newTokens())}, "Bearer not.a.token")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthRejectsRefreshToken(t *testing.T) {
	tokens := newTokens()
	refresh, err := tokens.IssueRefresh(auth.Identity{Email: "ana@shinel.studio", Role: model.RoleTeam})
	require.NoError(t, err)

	rec, reached := runChain(t, []echo.MiddlewareFunc{JWTAuth(tokens)}, "Bearer "+refresh)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens()

	team, err := tokens.IssueAccess(auth.Identity{Email: "t@shinel.studio", Role: model.RoleTeam})
	require.NoError(t, err)
	client, err := tokens.IssueAccess(auth.Identity{Email: "c@shinel.studio", Role: model.RoleClient})
	require.NoError(t, err)

	chain := []echo.MiddlewareFunc{JWTAuth(tokens), RequireRole(model.RoleTeam, model.RoleAdmin)}

	rec, reached := runChain(t, chain, "Bearer "+team)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, reached = runChain(t, chain, "Bearer "+client)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	rec, reached := runChain(t, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
