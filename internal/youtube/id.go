package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// ExtractVideoID pulls the video id out of any common YouTube URL form:
// watch?v=, youtu.be/, shorts/, embed/ and live/. Returns "" when the URL
// does not reference a video.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return validID(strings.Trim(strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0], "/"))
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return validID(v)
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				return validID(strings.SplitN(rest, "/", 2)[0])
			}
		}
	}
	return ""
}

// DeriveVideoID resolves the id for a record: the creator URL wins over the
// primary URL.
func DeriveVideoID(creatorURL, primaryURL string) string {
	if id := ExtractVideoID(creatorURL); id != "" {
		return id
	}
	return ExtractVideoID(primaryURL)
}

func validID(id string) string {
	if videoIDPattern.MatchString(id) {
		return id
	}
	return ""
}
