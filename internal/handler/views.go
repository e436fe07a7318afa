package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinelstudios/website-sub000/internal/httperr"
	"github.com/shinelstudios/website-sub000/internal/logger"
	"github.com/shinelstudios/website-sub000/internal/model"
	"github.com/shinelstudios/website-sub000/internal/obs"
	"github.com/shinelstudios/website-sub000/internal/store"
	"github.com/shinelstudios/website-sub000/internal/youtube"
)

// ViewHandler refreshes stored YouTube view counts and the derived hype
// scores. Stats is nil when no API key is configured, in which case every
// refresh short-circuits to a no-op without marking records as errored.
type ViewHandler struct {
	Videos *store.List[model.VideoRecord]
	Thumbs *store.List[model.ThumbnailRecord]

	Stats      youtube.StatsSource
	Metrics    *obs.Metrics
	StaleAfter time.Duration
	BulkMax    int

	now func() time.Time
}

func NewViewHandler(videos *store.List[model.VideoRecord], thumbs *store.List[model.ThumbnailRecord], stats youtube.StatsSource, metrics *obs.Metrics, staleAfter time.Duration, bulkMax int) *ViewHandler {
	if staleAfter <= 0 {
		staleAfter = 7 * 24 * time.Hour
	}
	if bulkMax <= 0 {
		bulkMax = 20
	}
	return &ViewHandler{
		Videos:     videos,
		Thumbs:     thumbs,
		Stats:      stats,
		Metrics:    metrics,
		StaleAfter: staleAfter,
		BulkMax:    bulkMax,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Test helper.
func (h *ViewHandler) SetClock(now func() time.Time) { h.now = now }

// fetchResult is the outcome of one external statistics call.
type fetchResult struct {
	views uint64
	err   error
}

func (h *ViewHandler) fetch(ctx context.Context, videoID string) fetchResult {
	views, err := h.Stats.ViewCount(ctx, videoID)
	if err != nil {
		logger.WithFields(map[string]interface{}{"videoId": videoID, "err": err}).Warn("view refresh failed")
		h.Metrics.ViewRefreshes.WithLabelValues("error").Inc()
	} else {
		h.Metrics.ViewRefreshes.WithLabelValues("ok").Inc()
	}
	return fetchResult{views: views, err: err}
}

// applyVideo folds a fetch result into one video record.
func applyVideo(rec *model.VideoRecord, res fetchResult, now time.Time) {
	if res.err != nil {
		rec.ViewStatus = model.ViewStatusError
		return
	}
	rec.YouTubeViews = res.views
	rec.LastViewUpdate = now
	rec.ViewStatus = model.ViewStatusOK
	rec.RecomputeHype(now)
}

// applyThumbnail folds a fetch result into one thumbnail record.
func applyThumbnail(rec *model.ThumbnailRecord, res fetchResult, now time.Time) {
	if res.err != nil {
		rec.ViewStatus = model.ViewStatusError
		return
	}
	rec.YouTubeViews = res.views
	rec.LastViewUpdate = now
	rec.ViewStatus = model.ViewStatusOK
}

// RefreshOne refreshes every video and thumbnail record matching one
// videoId. The statistic is fetched once and fanned out to all matching
// records rather than re-fetched per record.
func (h *ViewHandler) RefreshOne(c echo.Context) error {
	videoID := c.Param("videoId")
	if videoID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing videoId"})
	}
	if h.Stats == nil {
		return c.JSON(http.StatusOK, echo.Map{"ok": true, "videoId": videoID, "updated": 0})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	res := h.fetch(ctx, videoID)
	now := h.now().UTC()
	updated := 0

	if _, err := h.Videos.Update(ctx, func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		for i := range items {
			if items[i].VideoID != videoID {
				continue
			}
			applyVideo(&items[i], res, now)
			updated++
		}
		return items, nil
	}); err != nil {
		return httperr.Internal()
	}
	if _, err := h.Thumbs.Update(ctx, func(items []model.ThumbnailRecord) ([]model.ThumbnailRecord, error) {
		for i := range items {
			if items[i].VideoID != videoID {
				continue
			}
			applyThumbnail(&items[i], res, now)
			updated++
		}
		return items, nil
	}); err != nil {
		return httperr.Internal()
	}

	body := echo.Map{"ok": res.err == nil, "videoId": videoID, "updated": updated}
	if res.err == nil {
		body["views"] = res.views
	}
	return c.JSON(http.StatusOK, body)
}

// sweepReport summarizes one collection's share of a bulk refresh.
type sweepReport struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// RefreshStaleBulk sweeps both collections and refreshes records whose view
// counts are older than StaleAfter, up to BulkMax per collection per
// invocation. Results are memoized per videoId within one sweep so duplicate
// ids cost a single API call.
func (h *ViewHandler) RefreshStaleBulk(c echo.Context) error {
	if h.Stats == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"ok":         true,
			"videos":     sweepReport{},
			"thumbnails": sweepReport{},
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	now := h.now().UTC()
	cache := map[string]fetchResult{}
	lookup := func(videoID string) fetchResult {
		if res, ok := cache[videoID]; ok {
			return res
		}
		res := h.fetch(ctx, videoID)
		cache[videoID] = res
		return res
	}

	stale := func(lastViewUpdate time.Time) bool {
		return lastViewUpdate.IsZero() || now.Sub(lastViewUpdate) >= h.StaleAfter
	}

	// Plan against a snapshot, fetch outside the store transaction, then
	// apply. External calls must never run inside an optimistic retry loop.
	var videoReport sweepReport
	videoItems, err := h.Videos.Load(ctx)
	if err != nil {
		return httperr.Internal()
	}
	videoResults := map[string]fetchResult{}
	for _, it := range videoItems {
		if videoReport.Processed >= h.BulkMax {
			break
		}
		if it.VideoID == "" || !stale(it.LastViewUpdate) {
			continue
		}
		videoReport.Processed++
		videoResults[it.ID] = lookup(it.VideoID)
	}
	if _, err := h.Videos.Update(ctx, func(items []model.VideoRecord) ([]model.VideoRecord, error) {
		for i := range items {
			res, ok := videoResults[items[i].ID]
			if !ok {
				continue
			}
			applyVideo(&items[i], res, now)
		}
		return items, nil
	}); err != nil {
		return httperr.Internal()
	}
	for _, res := range videoResults {
		if res.err != nil {
			videoReport.Failed++
		} else {
			videoReport.Updated++
		}
	}

	var thumbReport sweepReport
	thumbItems, err := h.Thumbs.Load(ctx)
	if err != nil {
		return httperr.Internal()
	}
	thumbResults := map[string]fetchResult{}
	for _, it := range thumbItems {
		if thumbReport.Processed >= h.BulkMax {
			break
		}
		if it.VideoID == "" || !stale(it.LastViewUpdate) {
			continue
		}
		thumbReport.Processed++
		thumbResults[it.ID] = lookup(it.VideoID)
	}
	if _, err := h.Thumbs.Update(ctx, func(items []model.ThumbnailRecord) ([]model.ThumbnailRecord, error) {
		for i := range items {
			res, ok := thumbResults[items[i].ID]
			if !ok {
				continue
			}
			applyThumbnail(&items[i], res, now)
		}
		return items, nil
	}); err != nil {
		return httperr.Internal()
	}
	for _, res := range thumbResults {
		if res.err != nil {
			thumbReport.Failed++
		} else {
			thumbReport.Updated++
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":         true,
		"videos":     videoReport,
		"thumbnails": thumbReport,
	})
}
