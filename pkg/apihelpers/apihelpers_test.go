package apihelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/validation"
)

func TestWriteRoutesToFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	noop := func(c *gin.Context) {}
	router.POST("/news", noop)
	router.GET("/news", noop)
	router.GET("/auth/me", noop)

	filename := filepath.Join(t.TempDir(), "routes.txt")
	if err := WriteRoutesToFile(router, filename); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	want := "GET\t/auth/me\nGET\t/news\nPOST\t/news\n"
	if string(content) != want {
		t.Errorf("got %q, want %q", content, want)
	}
}

func TestLoadTLSConfigMissingFiles(t *testing.T) {
	_, err := LoadTLSConfig(CertificatePaths{ServerCertPath: "missing.pem", ServerKeyPath: "missing.key"})
	if err == nil {
		t.Error("expected an error for missing certificate files")
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, http.StatusBadRequest, "validation failed", validation.FieldError{Field: "title", Message: "too short"})

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false || body["message"] != "validation failed" {
		t.Errorf("unexpected envelope: %v", body)
	}
	if _, ok := body["data"]; ok {
		t.Error("data must be omitted on errors")
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 1 {
		t.Errorf("unexpected errors: %v", body["errors"])
	}
}
