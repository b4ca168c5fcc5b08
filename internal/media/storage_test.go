package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newSignServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer svc-key" {
			t.Errorf("missing service key header")
		}
		var body signRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ExpiresIn <= 0 {
			t.Errorf("bad sign request body: %v %+v", err, body)
		}
		_ = json.NewEncoder(w).Encode(signResponse{
			SignedURL: "/object/sign" + r.URL.Path[len("/storage/v1/object/sign"):] + "?token=tok",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStorageClientSignAndCache(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	srv := newSignServer(t, &calls)

	c := NewStorageClient(srv.URL, "svc-key", 0)
	ctx := context.Background()

	u1, err := c.SignURL(ctx, "media", "atlas/hero.jpg")
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}
	want := srv.URL + "/storage/v1/object/sign/media/atlas/hero.jpg?token=tok"
	if u1 != want {
		t.Fatalf("signed url = %q, want %q", u1, want)
	}

	// Second call within the TTL is served from cache.
	u2, err := c.SignURL(ctx, "media", "atlas/hero.jpg")
	if err != nil {
		t.Fatalf("SignURL (cached): %v", err)
	}
	if u2 != u1 {
		t.Fatalf("cached url differs: %q vs %q", u2, u1)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestStorageClientRefreshesNearExpiry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	srv := newSignServer(t, &calls)

	c := NewStorageClient(srv.URL, "svc-key", 2*time.Hour)
	base := time.Now()
	c.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := c.SignURL(ctx, "media", "a/b.jpg"); err != nil {
		t.Fatalf("SignURL: %v", err)
	}

	// 30 minutes before expiry is within the refresh margin.
	c.now = func() time.Time { return base.Add(90 * time.Minute) }
	if _, err := c.SignURL(ctx, "media", "a/b.jpg"); err != nil {
		t.Fatalf("SignURL (refresh): %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected re-sign near expiry, got %d upstream calls", calls.Load())
	}
}

func TestStorageClientErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"object not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewStorageClient(srv.URL, "svc-key", 0)
	if _, err := c.SignURL(context.Background(), "media", "missing.jpg"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestStorageClientValidation(t *testing.T) {
	t.Parallel()
	c := NewStorageClient("", "", 0)
	if _, err := c.SignURL(context.Background(), "media", "x.jpg"); err == nil {
		t.Fatal("expected error without base url")
	}
	c = NewStorageClient("https://abc.supabase.co", "", 0)
	if _, err := c.SignURL(context.Background(), "", "x.jpg"); err == nil {
		t.Fatal("expected error without bucket")
	}
}
