// Package youtube wraps the YouTube Data API for view-count lookups. The
// service runs in API-key-only mode: it never needs write access to any
// channel.
package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// ErrVideoNotFound is returned when the API responds without a matching item
// (deleted or private video).
var ErrVideoNotFound = errors.New("youtube: video not found")

// StatsSource resolves a YouTube video id to its current view count.
// The production implementation calls the Data API; tests inject fakes.
type StatsSource interface {
	ViewCount(ctx context.Context, videoID string) (uint64, error)
}

// Client is the Data API implementation of StatsSource.
type Client struct {
	svc *yt.Service
}

// NewClient builds an API-key client. Each ViewCount call costs one unit of
// the daily quota.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ViewCount fetches the statistics part for one video.
func (c *Client) ViewCount(ctx context.Context, videoID string) (uint64, error) {
	resp, err := c.svc.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("youtube statistics: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return 0, ErrVideoNotFound
	}
	return resp.Items[0].Statistics.ViewCount, nil
}
