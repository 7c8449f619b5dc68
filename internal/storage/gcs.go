package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shortgen/internal/domain"
)

const gcsDefaultBaseURL = "https://storage.googleapis.com"

// GCSStore persists blobs to a Google Cloud Storage bucket through the JSON
// API. Objects are addressed by the same deterministic keys as the
// filesystem store; public URLs use the storage.googleapis.com form so they
// stay valid regardless of how the object was written.
type GCSStore struct {
	bucket     string
	token      string
	baseURL    string
	httpClient *http.Client
}

// GCSOptions controls how the GCS store is configured.
type GCSOptions struct {
	Bucket     string
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGCSStore constructs a store for the given bucket. Token is a bearer
// token attached to every request; BaseURL overrides the Google endpoint in
// tests.
func NewGCSStore(opts GCSOptions) (*GCSStore, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = gcsDefaultBaseURL
	}
	return &GCSStore{
		bucket:     bucket,
		token:      strings.TrimSpace(opts.Token),
		baseURL:    baseURL,
		httpClient: client,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *GCSStore) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// Put uploads the bytes at key using the JSON API media upload and returns
// the key unchanged.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		s.baseURL, url.PathEscape(s.bucket), url.QueryEscape(cleanKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("storage: create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: upload object: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("storage: upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	io.Copy(io.Discard, resp.Body)
	return cleanKey, nil
}

// Get downloads the object at key, or domain.ErrNotFound when the object
// does not exist.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
		s.baseURL, url.PathEscape(s.bucket), url.PathEscape(cleanKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: create download request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: download object: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage: download status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read object: %w", err)
	}
	return data, nil
}

// PublicURL returns the storage.googleapis.com URL for a key.
func (s *GCSStore) PublicURL(key string) string {
	if s == nil || key == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", gcsDefaultBaseURL, s.bucket, strings.TrimLeft(key, "/"))
}

var _ BlobStore = (*GCSStore)(nil)
