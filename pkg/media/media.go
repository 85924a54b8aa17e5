// Package media hands out presigned upload URLs so editors can put article images and video
// thumbnails straight into object storage. The returned public URL is what goes into imageUrl
// or thumbnailUrl.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsreel/cms-backend/pkg/validation"
)

const (
	PURPOSE_ARTICLE_IMAGE   = "article-image"
	PURPOSE_VIDEO_THUMBNAIL = "video-thumbnail"

	DEFAULT_UPLOAD_URL_TTL = 15 * time.Minute
)

var ErrNotConfigured = errors.New("media storage is not configured")

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var purposePrefixes = map[string]string{
	PURPOSE_ARTICLE_IMAGE:   "news",
	PURPOSE_VIDEO_THUMBNAIL: "videos/thumbnails",
}

type Config struct {
	Endpoint      string        `json:"endpoint" yaml:"endpoint"`
	Region        string        `json:"region" yaml:"region"`
	Bucket        string        `json:"bucket" yaml:"bucket"`
	AccessKey     string        `json:"access_key" yaml:"access_key"`
	SecretKey     string        `json:"secret_key" yaml:"secret_key"`
	PublicBaseURL string        `json:"public_base_url" yaml:"public_base_url"`
	UploadURLTTL  time.Duration `json:"upload_url_ttl" yaml:"upload_url_ttl"`
}

func (c Config) IsConfigured() bool {
	return c.Bucket != ""
}

type Presigner interface {
	PresignUpload(ctx context.Context, key string, contentType string, expires time.Duration) (string, error)
}

type UploadRequest struct {
	Purpose     string `json:"purpose"`
	ContentType string `json:"contentType"`
}

type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	ObjectKey string    `json:"objectKey"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	presigner Presigner
	conf      Config
	now       func() time.Time
}

// NewService accepts a nil presigner; every upload request then fails with ErrNotConfigured.
func NewService(presigner Presigner, conf Config) *Service {
	if conf.UploadURLTTL <= 0 {
		conf.UploadURLTTL = DEFAULT_UPLOAD_URL_TTL
	}
	return &Service{presigner: presigner, conf: conf, now: time.Now}
}

// FileExtensionForContentType returns the extension (with leading dot) for an accepted image
// type, or "" for anything else.
func FileExtensionForContentType(contentType string) string {
	return allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

func ValidateUploadRequest(req UploadRequest) error {
	v := &validation.Error{}
	_, ok := purposePrefixes[req.Purpose]
	v.Check(ok, "purpose", "purpose must be article-image or video-thumbnail")
	v.Check(FileExtensionForContentType(req.ContentType) != "", "contentType", "content type must be a jpeg, png, gif or webp image")
	return v.ErrOrNil()
}

func (s *Service) RequestUpload(ctx context.Context, req UploadRequest) (*UploadTicket, error) {
	if err := ValidateUploadRequest(req); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, ErrNotConfigured
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s/%s/%s%s",
		purposePrefixes[req.Purpose],
		now.Format("2006/01"),
		uuid.NewString(),
		FileExtensionForContentType(req.ContentType),
	)
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))

	url, err := s.presigner.PresignUpload(ctx, key, contentType, s.conf.UploadURLTTL)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{
		UploadURL: url,
		Method:    "PUT",
		ObjectKey: key,
		PublicURL: s.publicURL(key),
		ExpiresAt: now.Add(s.conf.UploadURLTTL),
	}, nil
}

func (s *Service) publicURL(key string) string {
	base := strings.TrimSuffix(s.conf.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(s.conf.Endpoint, "/") + "/" + s.conf.Bucket
	}
	return base + "/" + key
}
