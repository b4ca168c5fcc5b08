package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultSignedURLTTL keeps signed links alive well past any cached page.
	DefaultSignedURLTTL = 7 * 24 * time.Hour

	// refreshMargin re-signs a URL this long before it actually expires so a
	// cached hit never hands out a link about to die.
	refreshMargin = time.Hour
)

// Signer produces a time-limited URL for an object in a storage bucket.
type Signer interface {
	SignURL(ctx context.Context, bucket, path string) (string, error)
}

// StorageClient signs object URLs against a supabase-compatible storage API
// and caches the results until shortly before expiry.
type StorageClient struct {
	baseURL    string
	serviceKey string
	ttl        time.Duration
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]signedEntry
	now   func() time.Time
}

type signedEntry struct {
	url       string
	expiresAt time.Time
}

func NewStorageClient(baseURL, serviceKey string, ttl time.Duration) *StorageClient {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &StorageClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: strings.TrimSpace(serviceKey),
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      make(map[string]signedEntry),
		now:        time.Now,
	}
}

type signRequest struct {
	ExpiresIn int64 `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignURL returns a signed URL for bucket/path, reusing a cached one while it
// has more than refreshMargin of life left.
func (c *StorageClient) SignURL(ctx context.Context, bucket, path string) (string, error) {
	if c == nil {
		return "", errors.New("nil storage client")
	}
	bucket = strings.TrimSpace(bucket)
	path = strings.Trim(strings.TrimSpace(path), "/")
	if bucket == "" || path == "" {
		return "", errors.New("missing bucket or path")
	}
	if c.baseURL == "" {
		return "", errors.New("storage base url not configured")
	}

	key := bucket + "/" + path
	c.mu.Lock()
	if e, ok := c.cache[key]; ok && c.now().Before(e.expiresAt.Add(-refreshMargin)) {
		c.mu.Unlock()
		return e.url, nil
	}
	c.mu.Unlock()

	signed, err := c.sign(ctx, bucket, path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[key] = signedEntry{url: signed, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return signed, nil
}

func (c *StorageClient) sign(ctx context.Context, bucket, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, url.PathEscape(bucket), escapeObjectPath(path))
	body, _ := json.Marshal(signRequest{ExpiresIn: int64(c.ttl.Seconds())})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("apikey", c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sign %s/%s: status %d: %s", bucket, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var sr signResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("sign %s/%s: decode response: %w", bucket, path, err)
	}
	if sr.SignedURL == "" {
		return "", fmt.Errorf("sign %s/%s: empty signed url", bucket, path)
	}

	// The API returns a path relative to /storage/v1.
	rel := sr.SignedURL
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return c.baseURL + "/storage/v1" + rel, nil
}

// escapeObjectPath escapes each segment but keeps the slashes.
func escapeObjectPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
