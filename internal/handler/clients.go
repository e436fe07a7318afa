package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/store"
)

// ClientHandler serves the creator registry: plain CRUD plus a few
// read-only derived views used by the admin dashboard.
type ClientHandler struct {
	Clients *store.List[model.ClientRecord]

	now func() time.Time
}

func NewClientHandler(clients *store.List[model.ClientRecord]) *ClientHandler {
	return &ClientHandler{Clients: clients, now: time.Now}
}

// SetClock overrides the time source. Test helper.
func (h *ClientHandler) SetClock(now func() time.Time) { h.now = now }

// List is the public registry feed.
func (h *ClientHandler) List(c echo.Context) error {
	return respondList(c, h.Clients, "clients")
}

// Create appends a registry entry.
func (h *ClientHandler) Create(c echo.Context) error {
	var rec model.ClientRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	if strings.TrimSpace(rec.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: name"})
	}

	now := h.now().UTC()
	rec.ID = newRecordID("cli")
	rec.DateAdded = now
	rec.LastUpdated = now

	ctx, cancel := boundedCtx(c)
	defer cancel()
	if _, err := h.Clients.Update(ctx, func(items []model.ClientRecord) ([]model.ClientRecord, error) {
		return append(items, rec), nil
	}); err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusCreated, rec)
}

// Update merges a partial update over the stored entry.
func (h *ClientHandler) Update(c echo.Context) error {
	id := c.Param("id")
	patch, err := readPatch(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	delete(patch, "id")
	delete(patch, "dateAdded")

	now := h.now().UTC()
	var updated *model.ClientRecord
	ctx, cancel := boundedCtx(c)
	defer cancel()
	_, err = h.Clients.Update(ctx, func(items []model.ClientRecord) ([]model.ClientRecord, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			merged, err := mergeRecord(items[i], patch)
			if err != nil {
				return nil, httperr.BadRequest("Invalid field value")
			}
			merged.ID = id
			merged.DateAdded = items[i].DateAdded
			merged.LastUpdated = now
			items[i] = merged
			updated = &items[i]
			return items, nil
		}
		return items, nil
	})
	if err != nil {
		return httperr.Internal()
	}
	if updated == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes an entry by id; absent ids are a no-op.
func (h *ClientHandler) Delete(c echo.Context) error {
	return removeByID(c, h.Clients, func(r model.ClientRecord) string { return r.ID })
}

type bulkDeleteReq struct {
	IDs []string `json:"ids"`
}

// BulkDelete removes every listed id in one rewrite of the collection.
func (h *ClientHandler) BulkDelete(c echo.Context) error {
	var req bulkDeleteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	drop := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		drop[id] = true
	}

	removed := 0
	ctx, cancel := boundedCtx(c)
	defer cancel()
	if _, err := h.Clients.Update(ctx, func(items []model.ClientRecord) ([]model.ClientRecord, error) {
		removed = 0
		out := items[:0]
		for _, it := range items {
			if drop[it.ID] {
				removed++
				continue
			}
			out = append(out, it)
		}
		return out, nil
	}); err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "removed": removed})
}

// Pulse reports registry activity: how many entries were touched in the last
// 30 days versus the total.
func (h *ClientHandler) Pulse(c echo.Context) error {
	items, err := h.Clients.Load(c.Request().Context())
	if err != nil {
		return httperr.Internal()
	}
	cutoff := h.now().Add(-30 * 24 * time.Hour)
	active := 0
	for _, it := range items {
		if it.LastUpdated.After(cutoff) {
			active++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(items), "active": active})
}

// Stats breaks the registry down by category.
func (h *ClientHandler) Stats(c echo.Context) error {
	items, err := h.Clients.Load(c.Request().Context())
	if err != nil {
		return httperr.Internal()
	}
	byCategory := map[string]int{}
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = "uncategorized"
		}
		byCategory[cat]++
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(items), "byCategory": byCategory})
}

// History returns the ten most recently updated entries, newest first.
func (h *ClientHandler) History(c echo.Context) error {
	items, err := h.Clients.Load(c.Request().Context())
	if err != nil {
		return httperr.Internal()
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastUpdated.After(items[j].LastUpdated)
	})
	if len(items) > 10 {
		items = items[:10]
	}
	return c.JSON(http.StatusOK, echo.Map{"history": items})
}
