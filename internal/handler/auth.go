package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/audit"
	"github.com/shinelstudios/website-sub000/internal/auth"
	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/middleware"
	"github.com/shinelstudios/website-sub000/internal/obs"
	"github.com/shinelstudios/website-sub000/internal/ratelimit"
	"github.com/shinelstudios/website-sub000/internal/store"
)

// refreshCookie is the HTTP-only cookie carrying the refresh token. It is
// the only place a refresh token ever travels.
const refreshCookie = "ss_refresh"

// invalidCredentials is the uniform login failure message. Unknown email and
// wrong password must be indistinguishable to the client; only the audit log
// records which it was.
const invalidCredentials = "Invalid email or password"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Users   *store.UserResolver
	Tokens  *auth.TokenService
	Limiter *ratelimit.LoginLimiter
	Audit   *audit.Log
	Metrics *obs.Metrics
}

func NewAuthHandler(users *store.UserResolver, tokens *auth.TokenService, limiter *ratelimit.LoginLimiter, auditLog *audit.Log, metrics *obs.Metrics) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Limiter: limiter, Audit: auditLog, Metrics: metrics}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns an access token plus a rotated
// refresh cookie. Every attempt, successful or not, increments the per-IP
// counter and leaves an audit record.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ip := c.RealIP()
	if !h.Limiter.Allow(ctx, ip) {
		h.Audit.LoginAttempt(ctx, req.Email, ip, false, "rate_limited")
		h.Metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many attempts. Try again later."})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.Audit.LoginAttempt(ctx, req.Email, ip, false, "unknown_email")
			h.Metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
		}
		return httperr.Internal()
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		h.Audit.LoginAttempt(ctx, req.Email, ip, false, "bad_password")
		h.Metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": invalidCredentials})
	}

	id := auth.Identity{Email: u.Email, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName}
	access, err := h.Tokens.IssueAccess(id)
	if err != nil {
		return httperr.Internal()
	}
	refresh, err := h.Tokens.IssueRefresh(id)
	if err != nil {
		return httperr.Internal()
	}

	h.Audit.LoginAttempt(ctx, req.Email, ip, true, "")
	h.Metrics.LoginAttempts.WithLabelValues("success").Inc()

	setRefreshCookie(c, refresh, h.Tokens.RefreshTTL())
	return c.JSON(http.StatusOK, echo.Map{"token": access, "role": u.Role})
}

// Refresh exchanges a valid refresh cookie for a brand-new access+refresh
// pair. On any failure the cookie is cleared so the client falls back to a
// full login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing refresh token"})
	}

	access, refresh, id, err := h.Tokens.Refresh(cookie.Value)
	if err != nil {
		clearRefreshCookie(c)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid or expired token"})
	}

	setRefreshCookie(c, refresh, h.Tokens.RefreshTTL())
	return c.JSON(http.StatusOK, echo.Map{"token": access, "role": id.Role})
}

// Logout clears the refresh cookie unconditionally. Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Protected is a simple authenticated probe used by the admin frontend.
func (h *AuthHandler) Protected(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Access granted",
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

// The refresh cookie is SameSite=None because the admin SPA is served from a
// different origin than the API; that in turn requires Secure.
func setRefreshCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
