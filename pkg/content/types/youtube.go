package types

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const THUMBNAIL_URL_TEMPLATE = "https://img.youtube.com/vi/%s/hqdefault.jpg"

var youtubeIDRule = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractYouTubeID returns the video identifier of a YouTube watch, short, embed or youtu.be URL.
func ExtractYouTubeID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = firstPathSegment(u.Path)
	case "youtube.com", "youtube-nocookie.com":
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(segments) == 1 && segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "shorts" ||
			segments[0] == "v" || segments[0] == "live"):
			id = segments[1]
		}
	}
	if !youtubeIDRule.MatchString(id) {
		return "", false
	}
	return id, true
}

func DefaultThumbnailURL(youtubeID string) string {
	return fmt.Sprintf(THUMBNAIL_URL_TEMPLATE, youtubeID)
}

func firstPathSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

// ApplyDerivedFields recomputes the fields that follow from others: the YouTube identifier
// of a video and its default thumbnail. It must run before every write of a video.
func ApplyDerivedFields(it *Item) bool {
	if it.Kind != KIND_VIDEO {
		return true
	}
	id, ok := ExtractYouTubeID(it.VideoURL)
	if !ok {
		return false
	}
	if it.ThumbnailURL == "" || it.ThumbnailURL == DefaultThumbnailURL(it.YouTubeID) {
		it.ThumbnailURL = DefaultThumbnailURL(id)
	}
	it.YouTubeID = id
	return true
}
