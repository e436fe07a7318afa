package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/notify"
	"github.com/shinelstudios/website-sub000/internal/store"
)

// ServiceName identifies the API in health responses and notifications.
const ServiceName = "shinel-studios-api"

// SystemHandler serves the small operational surface: health, feature
// flags, counts and webhook notifications.
type SystemHandler struct {
	Videos   *store.List[model.VideoRecord]
	Thumbs   *store.List[model.ThumbnailRecord]
	Notifier *notify.Discord
}

func NewSystemHandler(videos *store.List[model.VideoRecord], thumbs *store.List[model.ThumbnailRecord], notifier *notify.Discord) *SystemHandler {
	return &SystemHandler{Videos: videos, Thumbs: thumbs, Notifier: notifier}
}

// Health is the liveness probe.
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"ok":      true,
		"service": ServiceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Config exposes the static feature flags the frontend reads at boot.
func (h *SystemHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"features": echo.Map{
			"calculators":      true,
			"thumbnailPreview": true,
			"hypeScores":       true,
		},
		"maintenance": false,
	})
}

// Stats reports collection sizes for the admin dashboard.
func (h *SystemHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	videos, err := h.Videos.Load(ctx)
	if err != nil {
		return httperr.Internal()
	}
	thumbs, err := h.Thumbs.Load(ctx)
	if err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusOK, echo.Map{
		"counts": echo.Map{
			"videos":     len(videos),
			"thumbnails": len(thumbs),
		},
	})
}

type notifyReq struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Notify forwards a message to the configured webhook. Any authenticated
// role may post; 503 when no webhook is configured, 502 when the downstream
// delivery fails.
func (h *SystemHandler) Notify(c echo.Context) error {
	var req notifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: message"})
	}
	if !h.Notifier.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Notifications not configured"})
	}
	if err := h.Notifier.Send(c.Request().Context(), req.Message, req.Type); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to deliver notification"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
