package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/store"
)

func newRecordFixture() (*RecordHandler, *store.List[model.VideoRecord], *store.List[model.ThumbnailRecord]) {
	kv := store.NewMemoryKV()
	videos := store.NewList[model.VideoRecord](kv, "videos")
	thumbs := store.NewList[model.ThumbnailRecord](kv, "thumbnails")
	return NewRecordHandler(videos, thumbs), videos, thumbs
}

func doJSON(h echo.HandlerFunc, method, path, body string, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		var he *httperr.Error
		if errors.As(err, &he) {
			_ = c.JSON(he.Status, echo.Map{"error": he.Message})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
		}
	}
	return rec
}

func TestCreateVideoDefaults(t *testing.T) {
	h, videos, _ := newRecordFixture()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time { return now })

	rec := doJSON(h.CreateVideo, http.MethodPost, "/videos",
		`{"title":"Launch Trailer","creatorUrl":"https://youtu.be/dQw4w9WgXcQ","hype":500,"youtubeViews":12345}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var v model.VideoRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, strings.HasPrefix(v.ID, "vid-"))
	assert.Equal(t, model.KindLong, v.Kind)
	assert.Equal(t, []string{}, v.Tags)
	assert.Equal(t, "dQw4w9WgXcQ", v.VideoID)
	assert.Equal(t, model.ViewStatusUnknown, v.ViewStatus)
	assert.Zero(t, v.Hype, "client-supplied hype must be discarded")
	assert.True(t, v.DateAdded.Equal(now))
	assert.True(t, v.LastViewUpdate.IsZero())

	stored, err := videos.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, v.ID, stored[0].ID)
}

func TestCreateVideoRequiresTitle(t *testing.T) {
	h, _, _ := newRecordFixture()
	rec := doJSON(h.CreateVideo, http.MethodPost, "/videos", `{"category":"gaming"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListVideosETag(t *testing.T) {
	h, videos, _ := newRecordFixture()
	_, err := videos.Update(context.Background(), func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		return append(items, model.VideoRecord{ID: "vid-1", Title: "One"}), nil
	})
	require.NoError(t, err)

	first := doJSON(h.ListVideos, http.MethodGet, "/videos", "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListVideos(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	// a mutation busts the tag
	_, err = videos.Update(context.Background(), func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		items[0].LastUpdated = time.Now().UTC()
		return items, nil
	})
	require.NoError(t, err)
	second := doJSON(h.ListVideos, http.MethodGet, "/videos", "")
	assert.NotEqual(t, etag, second.Header().Get("ETag"))
}

func TestUpdateVideoMergeAndHype(t *testing.T) {
	h, videos, _ := newRecordFixture()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time { return now })

	added := now.Add(-48 * time.Hour)
	seed := model.VideoRecord{
		ID:             "vid-1",
		Title:          "One",
		Category:       "gaming",
		Kind:           model.KindShort,
		DateAdded:      added,
		YouTubeViews:   5000,
		LastViewUpdate: now.Add(-10 * 24 * time.Hour),
	}
	_, err := videos.Update(context.Background(), func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		return append(items, seed), nil
	})
	require.NoError(t, err)

	rec := doJSON(h.UpdateVideo, http.MethodPut, "/videos/vid-1",
		`{"title":"One Remastered","id":"hacked","dateAdded":"2030-01-01T00:00:00Z"}`, "id", "vid-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var v model.VideoRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "vid-1", v.ID)
	assert.Equal(t, "One Remastered", v.Title)
	assert.Equal(t, "gaming", v.Category, "unpatched fields survive")
	assert.True(t, v.DateAdded.Equal(added), "dateAdded is not patchable")
	assert.True(t, v.LastUpdated.Equal(now))
	assert.Equal(t, 247, v.Hype, "hype recomputed from views and staleness")
}

func TestUpdateVideoBadFieldType(t *testing.T) {
	h, videos, _ := newRecordFixture()
	_, err := videos.Update(context.Background(), func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		return append(items, model.VideoRecord{ID: "vid-1", Title: "One"}), nil
	})
	require.NoError(t, err)

	rec := doJSON(h.UpdateVideo, http.MethodPut, "/videos/vid-1",
		`{"youtubeViews":"lots"}`, "id", "vid-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateVideoNotFound(t *testing.T) {
	h, _, _ := newRecordFixture()
	rec := doJSON(h.UpdateVideo, http.MethodPut, "/videos/vid-404", `{"title":"x"}`, "id", "vid-404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteVideoIdempotent(t *testing.T) {
	h, videos, _ := newRecordFixture()
	_, err := videos.Update(context.Background(), func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		return append(items, model.VideoRecord{ID: "vid-1"}, model.VideoRecord{ID: "vid-2"}), nil
	})
	require.NoError(t, err)

	rec := doJSON(h.DeleteVideo, http.MethodDelete, "/videos/vid-1", "", "id", "vid-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	// deleting again is still ok
	rec = doJSON(h.DeleteVideo, http.MethodDelete, "/videos/vid-1", "", "id", "vid-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	left, err := videos.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "vid-2", left[0].ID)
}

func TestCreateThumbnailDerivesVideoID(t *testing.T) {
	h, _, thumbs := newRecordFixture()
	rec := doJSON(h.CreateThumbnail, http.MethodPost, "/thumbnails",
		`{"filename":"trailer.png","youtubeUrl":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tr model.ThumbnailRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.True(t, strings.HasPrefix(tr.ID, "thm-"))
	assert.Equal(t, "dQw4w9WgXcQ", tr.VideoID)

	stored, err := thumbs.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreateThumbnailRequiresFilenameOrImage(t *testing.T) {
	h, _, _ := newRecordFixture()
	rec := doJSON(h.CreateThumbnail, http.MethodPost, "/thumbnails", `{"category":"gaming"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(h.CreateThumbnail, http.MethodPost, "/thumbnails", `{"imageUrl":"https://cdn.example.com/a.png"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
