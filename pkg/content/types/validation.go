package types

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/newsreel/cms-backend/pkg/validation"
)

const (
	TITLE_MIN_LEN           = 5
	TITLE_MAX_LEN           = 200
	SUMMARY_MIN_LEN         = 10
	SUMMARY_MAX_LEN         = 500
	CONTENT_MIN_LEN         = 50
	DESCRIPTION_MAX_LEN     = 2000
	MAX_TAGS                = 10
	TAG_MAX_LEN             = 30
	SEARCH_MAX_LEN          = 100
	LIST_DEFAULT_LIMIT      = 10
	LIST_MAX_LIMIT          = 100
	LIST_MAX_PAGE           = 1_000_000
	LIST_DEFAULT_SORT_FIELD = "createdAt"
)

var durationRule = regexp.MustCompile(`^(?:\d{1,2}:)?[0-5]?\d:[0-5]\d$`)

// ValidateDraft checks every field of a new item and reports all violations together.
func ValidateDraft(kind string, d Draft) error {
	v := &validation.Error{}
	checkTitle(v, d.Title)
	checkCategory(v, kind, d.Category)
	if d.Status != "" {
		checkStatus(v, d.Status)
	}
	checkTags(v, d.Tags)

	switch kind {
	case KIND_ARTICLE:
		checkSummary(v, d.Summary)
		checkContent(v, d.Content)
		if d.ImageURL != "" {
			checkURL(v, "imageUrl", d.ImageURL)
		}
	case KIND_VIDEO:
		checkVideoURL(v, d.VideoURL)
		checkDuration(v, d.Duration)
		checkDescription(v, d.Description)
		if d.ThumbnailURL != "" {
			checkURL(v, "thumbnailUrl", d.ThumbnailURL)
		}
	default:
		v.Add("kind", "unknown content kind")
	}
	return v.ErrOrNil()
}

// ValidatePatch applies the creation rules to the supplied fields only.
func ValidatePatch(kind string, p Patch) error {
	v := &validation.Error{}
	if p.Title != nil {
		checkTitle(v, *p.Title)
	}
	if p.Category != nil {
		checkCategory(v, kind, *p.Category)
	}
	if p.Status != nil {
		checkStatus(v, *p.Status)
	}
	if p.Tags != nil {
		checkTags(v, *p.Tags)
	}

	articleOnly := p.Summary != nil || p.Content != nil || p.ImageURL != nil
	videoOnly := p.Description != nil || p.VideoURL != nil || p.ThumbnailURL != nil || p.Duration != nil
	switch kind {
	case KIND_ARTICLE:
		if videoOnly {
			v.Add("kind", "video fields cannot be set on an article")
		}
		if p.Summary != nil {
			checkSummary(v, *p.Summary)
		}
		if p.Content != nil {
			checkContent(v, *p.Content)
		}
		if p.ImageURL != nil && *p.ImageURL != "" {
			checkURL(v, "imageUrl", *p.ImageURL)
		}
	case KIND_VIDEO:
		if articleOnly {
			v.Add("kind", "article fields cannot be set on a video")
		}
		if p.VideoURL != nil {
			checkVideoURL(v, *p.VideoURL)
		}
		if p.Duration != nil {
			checkDuration(v, *p.Duration)
		}
		if p.Description != nil {
			checkDescription(v, *p.Description)
		}
		if p.ThumbnailURL != nil && *p.ThumbnailURL != "" {
			checkURL(v, "thumbnailUrl", *p.ThumbnailURL)
		}
	default:
		v.Add("kind", "unknown content kind")
	}
	return v.ErrOrNil()
}

func checkTitle(v *validation.Error, title string) {
	n := textLen(title)
	v.Check(n >= TITLE_MIN_LEN && n <= TITLE_MAX_LEN, "title", "title must be between 5 and 200 characters")
}

func checkCategory(v *validation.Error, kind string, category string) {
	v.Check(IsValidCategory(kind, category), "category", "category must be one of: "+strings.Join(Categories(kind), ", "))
}

func checkStatus(v *validation.Error, status string) {
	v.Check(IsValidStatus(status), "status", "status must be draft or published")
}

func checkTags(v *validation.Error, tags []string) {
	if len(tags) > MAX_TAGS {
		v.Add("tags", "at most 10 tags are allowed")
		return
	}
	for _, t := range tags {
		n := textLen(t)
		if n == 0 || n > TAG_MAX_LEN {
			v.Add("tags", "each tag must be between 1 and 30 characters")
			return
		}
	}
}

func checkSummary(v *validation.Error, summary string) {
	n := textLen(summary)
	v.Check(n >= SUMMARY_MIN_LEN && n <= SUMMARY_MAX_LEN, "summary", "summary must be between 10 and 500 characters")
}

func checkContent(v *validation.Error, content string) {
	v.Check(textLen(content) >= CONTENT_MIN_LEN, "content", "content must be at least 50 characters")
}

func checkDescription(v *validation.Error, description string) {
	v.Check(textLen(description) <= DESCRIPTION_MAX_LEN, "description", "description must be at most 2000 characters")
}

func checkVideoURL(v *validation.Error, videoURL string) {
	_, ok := ExtractYouTubeID(videoURL)
	v.Check(ok, "videoUrl", "videoUrl must be a valid YouTube URL")
}

func checkDuration(v *validation.Error, duration string) {
	v.Check(durationRule.MatchString(duration), "duration", "duration must be in MM:SS or HH:MM:SS format")
}

func checkURL(v *validation.Error, field string, raw string) {
	u, err := url.Parse(raw)
	v.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", field, field+" must be an http(s) URL")
}

func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
