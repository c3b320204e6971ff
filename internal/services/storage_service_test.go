package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type storageCall struct {
	method      string
	path        string
	auth        string
	contentType string
	body        string
}

func newStorageServer(t *testing.T, status int) (*httptest.Server, *[]storageCall) {
	t.Helper()

	calls := make([]storageCall, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, storageCall{
			method:      r.Method,
			path:        r.URL.Path,
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestSupabaseUploadReturnsPublicURL(t *testing.T) {
	server, calls := newStorageServer(t, http.StatusOK)
	storage := NewSupabaseStorage(server.URL+"/", "skill-images", "service-key", time.Second)

	publicURL, err := storage.Upload(context.Background(), []byte("png-bytes"), "skills/abc/1.png", "image/png")
	if err != nil {
		t.Fatalf("expected upload to succeed, got %v", err)
	}
	if publicURL != server.URL+"/storage/v1/object/public/skill-images/skills/abc/1.png" {
		t.Fatalf("unexpected public url %q", publicURL)
	}

	call := (*calls)[0]
	if call.method != http.MethodPost || call.path != "/storage/v1/object/skill-images/skills/abc/1.png" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}
	if call.auth != "Bearer service-key" || call.contentType != "image/png" || call.body != "png-bytes" {
		t.Fatalf("unexpected request details %+v", call)
	}
}

func TestSupabaseUploadSurfacesErrors(t *testing.T) {
	server, _ := newStorageServer(t, http.StatusBadRequest)
	storage := NewSupabaseStorage(server.URL, "skill-images", "service-key", time.Second)

	if _, err := storage.Upload(context.Background(), []byte("x"), "skills/a.png", "image/png"); err == nil ||
		!strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := storage.Upload(context.Background(), nil, "skills/a.png", "image/png"); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for empty content, got %v", err)
	}
}

func TestSupabaseDeleteToleratesMissingObjects(t *testing.T) {
	server, calls := newStorageServer(t, http.StatusNotFound)
	storage := NewSupabaseStorage(server.URL, "skill-images", "service-key", time.Second)

	err := storage.Delete(context.Background(), server.URL+"/storage/v1/object/public/skill-images/skills/abc/1.png")
	if err != nil {
		t.Fatalf("expected missing object to be ignored, got %v", err)
	}
	if call := (*calls)[0]; call.method != http.MethodDelete || call.path != "/storage/v1/object/skill-images/skills/abc/1.png" {
		t.Fatalf("unexpected request %s %s", call.method, call.path)
	}

	if err := storage.Delete(context.Background(), "https://elsewhere.test/other-bucket/file.png"); err == nil {
		t.Fatalf("expected error for url outside the bucket")
	}
}
