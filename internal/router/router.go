// Package router wires every HTTP route to its handler and applies the
// middleware chain: CORS from the configured origin allow-list, metrics,
// then JWT + role gating on the admin surface.
package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/shinelstudios/website-sub000/internal/auth"
	"github.com/shinelstudios/website-sub000/internal/handler"
	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/middleware"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/obs"
)

// Handlers groups everything Register needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Records *handler.RecordHandler
	Clients *handler.ClientHandler
	Views   *handler.ViewHandler
	System  *handler.SystemHandler
}

// Register sets up middleware and all routes on the Echo instance.
func Register(e *echo.Echo, h Handlers, tokens *auth.TokenService, metrics *obs.Metrics, allowedOrigins []string) {
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "If-None-Match"},
		AllowCredentials: true,
	}))

	// Public surface.
	e.GET("/health", h.System.Health)
	e.GET("/config", h.System.Config)
	e.GET("/stats", h.System.Stats)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/auth/login", h.Auth.Login)
	e.POST("/auth/refresh", h.Auth.Refresh)
	e.POST("/auth/logout", h.Auth.Logout)

	e.GET("/videos", h.Records.ListVideos)
	e.GET("/thumbnails", h.Records.ListThumbnails)
	e.GET("/clients", h.Clients.List)

	// Any authenticated role.
	authed := e.Group("", middleware.JWTAuth(tokens))
	authed.GET("/protected", h.Auth.Protected)
	authed.POST("/notify", h.System.Notify)

	// Team/admin mutations.
	admin := e.Group("", middleware.JWTAuth(tokens), middleware.RequireRole(model.RoleTeam, model.RoleAdmin))

	admin.POST("/videos", h.Records.CreateVideo)
	admin.PUT("/videos/:id", h.Records.UpdateVideo)
	admin.DELETE("/videos/:id", h.Records.DeleteVideo)

	admin.POST("/thumbnails", h.Records.CreateThumbnail)
	admin.PUT("/thumbnails/:id", h.Records.UpdateThumbnail)
	admin.DELETE("/thumbnails/:id", h.Records.DeleteThumbnail)

	admin.POST("/clients", h.Clients.Create)
	admin.PUT("/clients/:id", h.Clients.Update)
	admin.DELETE("/clients/bulk", h.Clients.BulkDelete)
	admin.DELETE("/clients/:id", h.Clients.Delete)
	admin.GET("/clients/pulse", h.Clients.Pulse)
	admin.GET("/clients/stats", h.Clients.Stats)
	admin.GET("/clients/history", h.Clients.History)

	admin.POST("/views/refresh/:videoId", h.Views.RefreshOne)
	admin.POST("/views/refresh", h.Views.RefreshStaleBulk)
}

// errorHandler renders every failure as {"error": message}. Unknown routes
// become 404 "Not found"; anything unexpected is a generic 500 so internals
// never leak.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := "Internal server error"

	var he *httperr.Error
	var ee *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Status
		message = he.Message
	case errors.As(err, &ee):
		status = ee.Code
		if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
			status = http.StatusNotFound
			message = "Not found"
		} else if s, ok := ee.Message.(string); ok {
			message = s
		}
	}
	_ = c.JSON(status, echo.Map{"error": message})
}
