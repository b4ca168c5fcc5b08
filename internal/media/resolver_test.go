package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/foliolab/folio-engine/internal/kb"
)

type fakeSource struct {
	records []kb.MediaRecord
	err     error
}

func (f *fakeSource) MediaByIDs(_ context.Context, ids []string) ([]kb.MediaRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []kb.MediaRecord
	for _, r := range f.records {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSigner struct {
	err error
}

func (f *fakeSigner) SignURL(_ context.Context, bucket, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://abc.supabase.co/storage/v1/object/sign/" + bucket + "/" + path + "?token=t", nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestResolveOneSignsStorageBacked(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, &fakeSigner{}, NewAllowList("https://abc.supabase.co", ""), quietLogger())

	res, ok := r.ResolveOne(context.Background(), kb.MediaRecord{
		ID: "m1", StorageBucket: "media", StoragePath: "atlas/hero.jpg", URL: "https://stale.example.com/old.jpg",
	})
	want := "https://abc.supabase.co/storage/v1/object/sign/media/atlas/hero.jpg?token=t"
	if !ok || res.URL != want {
		t.Fatalf("URL = %q (ok=%v), want %q", res.URL, ok, want)
	}
}

func TestResolveOneSignerFailureFallsBack(t *testing.T) {
	t.Parallel()
	allow := NewAllowList("https://abc.supabase.co", "")
	r := NewResolver(nil, &fakeSigner{err: errors.New("down")}, allow, quietLogger())

	// Stored URL is allowed: use it.
	res, ok := r.ResolveOne(context.Background(), kb.MediaRecord{
		ID: "m1", StorageBucket: "media", StoragePath: "x.jpg",
		URL: "https://abc.supabase.co/storage/v1/object/public/media/x.jpg",
	})
	if !ok || res.URL != "https://abc.supabase.co/storage/v1/object/public/media/x.jpg" {
		t.Fatalf("expected stored url fallback, got %q (ok=%v)", res.URL, ok)
	}

	// Stored URL disallowed: the record is unresolved, not placeholdered.
	if _, ok := r.ResolveOne(context.Background(), kb.MediaRecord{
		ID: "m2", StorageBucket: "media", StoragePath: "y.jpg", URL: "https://evil.example.com/y.jpg",
	}); ok {
		t.Fatal("disallowed url should be reported unresolved")
	}
}

func TestResolveMapDropsDisallowedOrigins(t *testing.T) {
	t.Parallel()
	src := &fakeSource{records: []kb.MediaRecord{
		{ID: "m1", Type: kb.MediaImage, Alt: "a", URL: "https://attacker.example.com/a.jpg"},
		{ID: "m2", Type: kb.MediaImage, Alt: "b", URL: "https://abc.supabase.co/storage/v1/object/public/media/b.jpg"},
	}}
	r := NewResolver(src, nil, NewAllowList("https://abc.supabase.co", ""), quietLogger())

	m, err := r.ResolveMap(context.Background(), []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("ResolveMap: %v", err)
	}
	if _, present := m["m1"]; present {
		t.Fatal("disallowed-origin media must be absent from the resolved map")
	}
	if m["m2"].URL != src.records[1].URL {
		t.Fatalf("allowed media missing: %+v", m)
	}
}

func TestResolveManySkipsUnknownIDs(t *testing.T) {
	t.Parallel()
	src := &fakeSource{records: []kb.MediaRecord{
		{ID: "m1", Type: kb.MediaImage, Role: kb.RoleHero, Alt: "a", URL: "http://localhost/1.jpg"},
		{ID: "m2", Type: kb.MediaImage, Role: kb.RoleInline, Alt: "b", URL: "http://localhost/2.jpg"},
	}}
	r := NewResolver(src, nil, NewAllowList("", ""), quietLogger())

	got, err := r.ResolveMany(context.Background(), []string{"m1", "ghost", "m2"})
	if err != nil {
		t.Fatalf("ResolveMany: %v", err)
	}
	if len(got) != 2 || got[0].Record.ID != "m1" || got[1].Record.ID != "m2" {
		t.Fatalf("unexpected result: %+v", got)
	}

	m, err := r.ResolveMap(context.Background(), []string{"m2"})
	if err != nil {
		t.Fatalf("ResolveMap: %v", err)
	}
	if m["m2"].URL != "http://localhost/2.jpg" {
		t.Fatalf("unexpected map entry: %+v", m["m2"])
	}
}

func TestResolveManySourceError(t *testing.T) {
	t.Parallel()
	r := NewResolver(&fakeSource{err: errors.New("db gone")}, nil, nil, quietLogger())
	if _, err := r.ResolveMany(context.Background(), []string{"m1"}); err == nil {
		t.Fatal("expected source error to propagate")
	}
}
