// Package media resolves stored media references into URLs that are safe to
// render: storage-backed assets get fresh signed URLs, direct URLs are run
// through an origin allow-list, and anything unresolvable is dropped so the
// caller can fall back to its next choice or a placeholder.
package media

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/foliolab/folio-engine/internal/kb"
)

// Source looks up media records by id. *kb.Store satisfies it.
type Source interface {
	MediaByIDs(ctx context.Context, ids []string) ([]kb.MediaRecord, error)
}

// Resolved is a media record with its final, render-safe URL.
type Resolved struct {
	Record kb.MediaRecord
	URL    string
}

type Resolver struct {
	Source Source
	Signer Signer
	Allow  *AllowList
	Log    *slog.Logger
}

func NewResolver(source Source, signer Signer, allow *AllowList, log *slog.Logger) *Resolver {
	if allow == nil {
		allow = NewAllowList("", "")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{Source: source, Signer: signer, Allow: allow, Log: log}
}

// ResolveOne produces the render URL for a single record. Storage-backed
// records are signed first, then the stored URL is tried. A record whose URL
// cannot be made render-safe is reported unresolved, so callers fall through
// to their next media choice instead of wasting a slot on it.
func (r *Resolver) ResolveOne(ctx context.Context, rec kb.MediaRecord) (Resolved, bool) {
	if rec.StorageBucket != "" && rec.StoragePath != "" && r.Signer != nil {
		signed, err := r.Signer.SignURL(ctx, rec.StorageBucket, rec.StoragePath)
		if err == nil && r.Allow.Allowed(signed) {
			return Resolved{Record: rec, URL: signed}, true
		}
		if err != nil {
			r.Log.Warn("signing failed, trying stored url", "media_id", rec.ID, "error", err)
		}
	}
	if r.Allow.Allowed(rec.URL) {
		return Resolved{Record: rec, URL: rec.URL}, true
	}
	r.Log.Warn("media url not allowed, treating as unresolved", "media_id", rec.ID)
	return Resolved{}, false
}

// ResolveMany looks up ids from the source and resolves each concurrently.
// Unknown and unresolvable ids are absent from the result; order follows the
// source.
func (r *Resolver) ResolveMany(ctx context.Context, ids []string) ([]Resolved, error) {
	if r == nil || r.Source == nil {
		return nil, errors.New("media resolver not configured")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records, err := r.Source.MediaByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	resolved := make([]Resolved, len(records))
	ok := make([]bool, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, rec := range records {
		g.Go(func() error {
			resolved[i], ok[i] = r.ResolveOne(gctx, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(records))
	for i := range records {
		if ok[i] {
			out = append(out, resolved[i])
		}
	}
	return out, nil
}

// ResolveMap is ResolveMany keyed by media id.
func (r *Resolver) ResolveMap(ctx context.Context, ids []string) (map[string]Resolved, error) {
	list, err := r.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Resolved, len(list))
	for _, res := range list {
		out[res.Record.ID] = res
	}
	return out, nil
}
