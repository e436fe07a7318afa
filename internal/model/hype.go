package model

import (
	"math"
	"time"
)

// Hype scoring constants. A record's score grows with the log of its view
// count and decays with age down to a 50% floor after thirty days.
const (
	hypeMax            = 999
	hypeDecayDays      = 30.0
	hypeFreshnessFloor = 0.5
)

// Hype computes the derived hype score for a view count. The freshness base
// is lastViewUpdate when the record has been refreshed at least once,
// otherwise dateAdded. Zero views always score zero; the result is clamped
// to [0, 999] and is monotonic in views for a fixed age.
func Hype(views uint64, lastViewUpdate, dateAdded, now time.Time) int {
	if views == 0 {
		return 0
	}
	base := lastViewUpdate
	if base.IsZero() {
		base = dateAdded
	}
	days := now.Sub(base).Hours() / 24
	if days < 0 {
		days = 0
	}
	freshness := 1 - days/hypeDecayDays
	if freshness < hypeFreshnessFloor {
		freshness = hypeFreshnessFloor
	}
	if freshness > 1 {
		freshness = 1
	}
	score := math.Log10(float64(views)+1) * 100 * freshness
	if score > hypeMax {
		score = hypeMax
	}
	return int(math.Round(score))
}

// RecomputeHype refreshes the derived score on a video record in place.
func (v *VideoRecord) RecomputeHype(now time.Time) {
	v.Hype = Hype(v.YouTubeViews, v.LastViewUpdate, v.DateAdded, now)
}
