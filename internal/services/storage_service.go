package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ObjectStorage stores public listing images.
type ObjectStorage interface {
	Upload(ctx context.Context, content []byte, objectPath string, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// SupabaseStorage talks to the Supabase Storage REST API with a service key.
type SupabaseStorage struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorage(baseURL, bucket, serviceKey string, timeout time.Duration) *SupabaseStorage {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     strings.Trim(bucket, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *SupabaseStorage) Upload(
	ctx context.Context,
	content []byte,
	objectPath string,
	contentType string,
) (string, error) {
	objectPath = strings.Trim(path.Clean("/"+objectPath), "/")
	if objectPath == "" || len(content) == 0 {
		return "", ErrInvalidInput
	}
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL(objectPath), bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Content-Type", contentType)

	if err := s.do(req, "upload object"); err != nil {
		return "", err
	}
	return s.publicURL(objectPath), nil
}

// Delete removes the object behind a public URL. Missing objects are not an error.
func (s *SupabaseStorage) Delete(ctx context.Context, publicURL string) error {
	objectPath, err := s.objectPathFromURL(publicURL)
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodDelete, s.objectURL(objectPath), nil)
	if err != nil {
		return err
	}
	return s.do(req, "delete object")
}

func (s *SupabaseStorage) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	return req, nil
}

func (s *SupabaseStorage) do(req *http.Request, action string) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	if req.Method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s: status %d: %s", action, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (s *SupabaseStorage) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorage) publicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorage) objectPathFromURL(publicURL string) (string, error) {
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}

	for _, prefix := range []string{
		"/storage/v1/object/public/" + s.bucket + "/",
		"/storage/v1/object/" + s.bucket + "/",
	} {
		if strings.HasPrefix(parsed.Path, prefix) {
			return strings.TrimPrefix(parsed.Path, prefix), nil
		}
	}
	return "", fmt.Errorf("object url %q is outside bucket %q", publicURL, s.bucket)
}
