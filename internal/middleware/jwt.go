// Package middleware provides shared request processing for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/auth"
)

// ClaimsKey is the context key under which JWTAuth stores verified claims.
const ClaimsKey = "claims"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified claims into the request context. A missing token
// is a 401; an invalid or expired one is a 403 with a deliberately uniform
// message so callers cannot distinguish the failure mode.
func JWTAuth(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid or expired token"})
			}
			// A refresh token must never pass as an access token.
			if claims.Kind != "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid or expired token"})
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom retrieves the verified claims stored by JWTAuth. Returns nil
// when the route is not behind JWTAuth.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}
