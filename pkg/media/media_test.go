package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/newsreel/cms-backend/pkg/validation"
)

type fakePresigner struct {
	key         string
	contentType string
	expires     time.Duration
}

func (f *fakePresigner) PresignUpload(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	f.key, f.contentType, f.expires = key, contentType, expires
	return "https://upload.example.com/" + key + "?sig=1", nil
}

func TestRequestUpload(t *testing.T) {
	presigner := &fakePresigner{}
	svc := NewService(presigner, Config{Bucket: "media", PublicBaseURL: "https://cdn.example.com/"})
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

	ticket, err := svc.RequestUpload(context.Background(), UploadRequest{Purpose: PURPOSE_ARTICLE_IMAGE, ContentType: "image/PNG"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ticket.ObjectKey, "news/2024/03/") || !strings.HasSuffix(ticket.ObjectKey, ".png") {
		t.Errorf("unexpected object key %q", ticket.ObjectKey)
	}
	if ticket.PublicURL != "https://cdn.example.com/"+ticket.ObjectKey {
		t.Errorf("unexpected public url %q", ticket.PublicURL)
	}
	if presigner.contentType != "image/png" || presigner.expires != DEFAULT_UPLOAD_URL_TTL {
		t.Errorf("unexpected presign call: %+v", presigner)
	}
	if !ticket.ExpiresAt.Equal(svc.now().Add(DEFAULT_UPLOAD_URL_TTL)) || ticket.Method != "PUT" {
		t.Errorf("unexpected ticket: %+v", ticket)
	}
}

func TestRequestUploadErrors(t *testing.T) {
	svc := NewService(&fakePresigner{}, Config{Bucket: "media"})

	_, err := svc.RequestUpload(context.Background(), UploadRequest{Purpose: "avatar", ContentType: "application/pdf"})
	var vErr *validation.Error
	if !errors.As(err, &vErr) || len(vErr.Fields) != 2 {
		t.Errorf("expected two violations, got %v", err)
	}

	unconfigured := NewService(nil, Config{})
	_, err = unconfigured.RequestUpload(context.Background(), UploadRequest{Purpose: PURPOSE_VIDEO_THUMBNAIL, ContentType: "image/jpeg"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestS3ClientPresignUpload(t *testing.T) {
	client, err := NewS3Client(context.Background(), Config{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "media",
		AccessKey: "minio",
		SecretKey: "minio-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := client.PresignUpload(context.Background(), "news/2024/03/a.png", "image/png", 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "localhost:9000" || u.Path != "/media/news/2024/03/a.png" {
		t.Errorf("unexpected presigned url %q", raw)
	}
	if u.Query().Get("X-Amz-Signature") == "" || u.Query().Get("X-Amz-Expires") != "600" {
		t.Errorf("url is not presigned: %q", raw)
	}
}
