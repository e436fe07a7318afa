package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/notify"
	"github.com/shinelstudios/website-sub000/internal/store"
)

func newSystemFixture(notifier *notify.Discord) (*SystemHandler, *store.List[model.VideoRecord], *store.List[model.ThumbnailRecord]) {
	kv := store.NewMemoryKV()
	videos := store.NewList[model.VideoRecord](kv, "videos")
	thumbs := store.NewList[model.ThumbnailRecord](kv, "thumbnails")
	if notifier == nil {
		notifier = notify.NewDiscord("")
	}
	return NewSystemHandler(videos, thumbs, notifier), videos, thumbs
}

func TestHealth(t *testing.T) {
	h, _, _ := newSystemFixture(nil)
	rec := doJSON(h.Health, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK      bool   `json:"ok"`
		Service string `json:"service"`
		Time    string `json:"time"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, ServiceName, body.Service)
	assert.NotEmpty(t, body.Time)
}

func TestSystemStatsCounts(t *testing.T) {
	h, videos, thumbs := newSystemFixture(nil)
	seedVideos(t, videos, model.VideoRecord{ID: "vid-1"}, model.VideoRecord{ID: "vid-2"})
	seedThumbs(t, thumbs, model.ThumbnailRecord{ID: "thm-1"})

	rec := doJSON(h.Stats, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Counts struct {
			Videos     int `json:"videos"`
			Thumbnails int `json:"thumbnails"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Counts.Videos)
	assert.Equal(t, 1, body.Counts.Thumbnails)
}

func TestNotifyValidation(t *testing.T) {
	h, _, _ := newSystemFixture(nil)

	rec := doJSON(h.Notify, http.MethodPost, "/notify", `{"type":"info"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// message present but no webhook configured
	rec = doJSON(h.Notify, http.MethodPost, "/notify", `{"message":"deploy done"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotifyDelivers(t *testing.T) {
	var got struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h, _, _ := newSystemFixture(notify.NewDiscord(srv.URL))
	rec := doJSON(h.Notify, http.MethodPost, "/notify", `{"message":"deploy done","type":"success"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "deploy done", got.Embeds[0].Description)
}

func TestNotifyDownstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h, _, _ := newSystemFixture(notify.NewDiscord(srv.URL))
	rec := doJSON(h.Notify, http.MethodPost, "/notify", `{"message":"deploy done"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
