package model

import "time"

// Video kinds as shown on the site.
const (
	KindLong  = "LONG"
	KindShort = "SHORT"
	KindReel  = "REEL"
	KindBrief = "BRIEF"
)

// View refresh status of a record.
const (
	ViewStatusUnknown = "unknown"
	ViewStatusOK      = "ok"
	ViewStatusError   = "error"
)

// VideoRecord is a portfolio entry managed by the team. VideoID is derived
// from the URLs unless the caller supplies one; Hype is recomputed on every
// write and never taken from client input.
type VideoRecord struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Subcategory    string    `json:"subcategory"`
	Kind           string    `json:"kind"`
	Tags           []string  `json:"tags"`
	PrimaryURL     string    `json:"primaryUrl"`
	CreatorURL     string    `json:"creatorUrl"`
	VideoID        string    `json:"videoId"`
	YouTubeViews   uint64    `json:"youtubeViews"`
	ViewStatus     string    `json:"viewStatus"`
	LastViewUpdate time.Time `json:"lastViewUpdate"`
	DateAdded      time.Time `json:"dateAdded"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Hype           int       `json:"hype"`
}

// ThumbnailRecord mirrors VideoRecord for thumbnail showcase entries.
// Thumbnails carry no hype score.
type ThumbnailRecord struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	YouTubeURL     string    `json:"youtubeUrl"`
	Category       string    `json:"category"`
	Subcategory    string    `json:"subcategory"`
	Variant        string    `json:"variant"`
	ImageURL       string    `json:"imageUrl"`
	VideoID        string    `json:"videoId"`
	YouTubeViews   uint64    `json:"youtubeViews"`
	ViewStatus     string    `json:"viewStatus"`
	LastViewUpdate time.Time `json:"lastViewUpdate"`
	DateAdded      time.Time `json:"dateAdded"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// ClientRecord is a lightweight registry entry for a creator the studio
// works with. CRUD only, no derived fields.
type ClientRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	YouTubeID   string    `json:"youtubeId"`
	Handle      string    `json:"handle"`
	Category    string    `json:"category"`
	DateAdded   time.Time `json:"dateAdded"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Digestable lets the generic collection handler compute a weak ETag from
// whatever mutable numeric state a record type carries.
type Digestable interface {
	DigestSum() int64
}

// DigestSum folds the fields that change when a video record mutates.
func (v VideoRecord) DigestSum() int64 {
	return unixMilli(v.LastUpdated) + unixMilli(v.LastViewUpdate) + int64(v.YouTubeViews) + int64(v.Hype)
}

// DigestSum folds the fields that change when a thumbnail record mutates.
func (t ThumbnailRecord) DigestSum() int64 {
	return unixMilli(t.LastUpdated) + unixMilli(t.LastViewUpdate) + int64(t.YouTubeViews)
}

// DigestSum folds the fields that change when a client record mutates.
func (c ClientRecord) DigestSum() int64 {
	return unixMilli(c.LastUpdated)
}

// unixMilli treats the zero time as 0 so never-touched timestamps do not
// contribute a huge negative offset to the digest.
func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
