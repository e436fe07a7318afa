package handler

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/store"
	"github.com/shinelstudios/website-sub000/internal/youtube"
)

// RecordHandler serves the CRUD surface for the videos and thumbnails
// collections. List reads are public; mutations sit behind team/admin role
// middleware.
type RecordHandler struct {
	Videos *store.List[model.VideoRecord]
	Thumbs *store.List[model.ThumbnailRecord]

	now func() time.Time
}

func NewRecordHandler(videos *store.List[model.VideoRecord], thumbs *store.List[model.ThumbnailRecord]) *RecordHandler {
	return &RecordHandler{Videos: videos, Thumbs: thumbs, now: time.Now}
}

// SetClock overrides the time source. Test helper.
func (h *RecordHandler) SetClock(now func() time.Time) { h.now = now }

// newRecordID builds ids like "vid-1719838200123-9f2c41d7".
func newRecordID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// collectionETag derives a weak ETag from the record count plus the summed
// mutable numeric fields, so any view-count, hype or timestamp change busts
// client caches without hashing the whole payload.
func collectionETag[T model.Digestable](items []T) string {
	var sum int64
	for _, it := range items {
		sum += it.DigestSum()
	}
	digest := sha1.Sum([]byte(fmt.Sprintf("%d|%d", len(items), sum)))
	return fmt.Sprintf(`W/"%x"`, digest[:8])
}

// respondList writes the full collection wrapped in {field: [...]}, honoring
// If-None-Match with a bodyless 304.
func respondList[T model.Digestable](c echo.Context, list *store.List[T], field string) error {
	items, err := list.Load(c.Request().Context())
	if err != nil {
		return httperr.Internal()
	}
	etag := collectionETag(items)
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, echo.Map{field: items})
}

// removeByID deletes a record by id. A missing id is a silent no-op: the
// collection converges to the same state either way.
func removeByID[T any](c echo.Context, list *store.List[T], idOf func(T) string) error {
	id := c.Param("id")
	ctx, cancel := boundedCtx(c)
	defer cancel()
	_, err := list.Update(ctx, func(items []T) ([]T, error) {
		out := items[:0]
		for _, it := range items {
			if idOf(it) != id {
				out = append(out, it)
			}
		}
		return out, nil
	})
	if err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// mergeRecord overlays a partial JSON patch onto an existing record. Going
// through maps keeps the merge field-agnostic; a patch value of the wrong
// type fails the final unmarshal and surfaces as a 400.
func mergeRecord[T any](existing T, patch map[string]json.RawMessage) (T, error) {
	var out T
	base, err := json.Marshal(existing)
	if err != nil {
		return out, err
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &m); err != nil {
		return out, err
	}
	for k, v := range patch {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, err
	}
	return out, nil
}

func readPatch(c echo.Context) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	patch := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, err
	}
	return patch, nil
}

func boundedCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// ----- videos -----

// ListVideos is the public portfolio feed.
func (h *RecordHandler) ListVideos(c echo.Context) error {
	return respondList(c, h.Videos, "videos")
}

// CreateVideo appends a new record. The caller may supply any subset of
// fields; id, timestamps, view state and hype are always server-assigned.
func (h *RecordHandler) CreateVideo(c echo.Context) error {
	var rec model.VideoRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	if strings.TrimSpace(rec.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: title"})
	}

	now := h.now().UTC()
	rec.ID = newRecordID("vid")
	rec.DateAdded = now
	rec.LastUpdated = now
	rec.LastViewUpdate = time.Time{}
	rec.ViewStatus = model.ViewStatusUnknown
	rec.Hype = 0
	if rec.Kind == "" {
		rec.Kind = model.KindLong
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.VideoID == "" {
		rec.VideoID = youtube.DeriveVideoID(rec.CreatorURL, rec.PrimaryURL)
	}

	ctx, cancel := boundedCtx(c)
	defer cancel()
	if _, err := h.Videos.Update(ctx, func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		return append(items, rec), nil
	}); err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusCreated, rec)
}

// UpdateVideo merges a partial update over the stored record, bumps
// lastUpdated and re-derives the computed fields.
func (h *RecordHandler) UpdateVideo(c echo.Context) error {
	id := c.Param("id")
	patch, err := readPatch(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	// Identity and provenance are never patchable.
	delete(patch, "id")
	delete(patch, "dateAdded")

	now := h.now().UTC()
	var updated *model.VideoRecord
	ctx, cancel := boundedCtx(c)
	defer cancel()
	_, err = h.Videos.Update(ctx, func(items []model.VideoRecord) ([]model.VideoRecord, error) {
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
			if _, ok := patch["videoId"]; !ok {
				if derived := youtube.DeriveVideoID(merged.CreatorURL, merged.PrimaryURL); derived != "" {
					merged.VideoID = derived
				}
			}
			merged.RecomputeHype(now)
			items[i] = merged
			updated = &items[i]
			return items, nil
		}
		return items, nil
	})
	if err != nil {
		var he *httperr.Error
		if errors.As(err, &he) {
			return he
		}
		return httperr.Internal()
	}
	if updated == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteVideo removes a record by id; absent ids are a no-op.
func (h *RecordHandler) DeleteVideo(c echo.Context) error {
	return removeByID(c, h.Videos, func(v model.VideoRecord) string { return v.ID })
}

// ----- thumbnails -----

// ListThumbnails is the public thumbnail showcase feed.
func (h *RecordHandler) ListThumbnails(c echo.Context) error {
	return respondList(c, h.Thumbs, "thumbnails")
}

// CreateThumbnail appends a new thumbnail record.
func (h *RecordHandler) CreateThumbnail(c echo.Context) error {
	var rec model.ThumbnailRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	if strings.TrimSpace(rec.Filename) == "" && strings.TrimSpace(rec.ImageURL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: filename or imageUrl"})
	}

	now := h.now().UTC()
	rec.ID = newRecordID("thm")
	rec.DateAdded = now
	rec.LastUpdated = now
	rec.LastViewUpdate = time.Time{}
	rec.ViewStatus = model.ViewStatusUnknown
	if rec.VideoID == "" {
		rec.VideoID = youtube.ExtractVideoID(rec.YouTubeURL)
	}

	ctx, cancel := boundedCtx(c)
	defer cancel()
	if _, err := h.Thumbs.Update(ctx, func(items []model.ThumbnailRecord) ([]model.ThumbnailRecord, error) {
		return append(items, rec), nil
	}); err != nil {
		return httperr.Internal()
	}
	return c.JSON(http.StatusCreated, rec)
}

// UpdateThumbnail merges a partial update over the stored record.
func (h *RecordHandler) UpdateThumbnail(c echo.Context) error {
	id := c.Param("id")
	patch, err := readPatch(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
	}
	delete(patch, "id")
	delete(patch, "dateAdded")

	now := h.now().UTC()
	var updated *model.ThumbnailRecord
	ctx, cancel := boundedCtx(c)
	defer cancel()
	_, err = h.Thumbs.Update(ctx, func(items []model.ThumbnailRecord) ([]model.ThumbnailRecord, error) {
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
			if _, ok := patch["videoId"]; !ok {
				if derived := youtube.ExtractVideoID(merged.YouTubeURL); derived != "" {
					merged.VideoID = derived
				}
			}
			items[i] = merged
			updated = &items[i]
			return items, nil
		}
		return items, nil
	})
	if err != nil {
		var he *httperr.Error
		if errors.As(err, &he) {
			return he
		}
		return httperr.Internal()
	}
	if updated == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Record not found"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteThumbnail removes a record by id; absent ids are a no-op.
func (h *RecordHandler) DeleteThumbnail(c echo.Context) error {
	return removeByID(c, h.Thumbs, func(t model.ThumbnailRecord) string { return t.ID })
}
