package kb

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Accessor assembles the knowledge base from the sqlite store, falling back
// to the legacy directory layout field by field when the store fails or
// comes back partial.
type Accessor struct {
	Store  *Store
	Legacy *Legacy
	Log    *slog.Logger
}

func NewAccessor(store *Store, legacy *Legacy, log *slog.Logger) *Accessor {
	if log == nil {
		log = slog.Default()
	}
	return &Accessor{Store: store, Legacy: legacy, Log: log}
}

// Load fetches the full knowledge base. Projects, media, and the identity
// profile are fetched concurrently from the store; any missing piece is
// backfilled from the legacy layout independently of the others.
func (a *Accessor) Load(ctx context.Context) (*Data, error) {
	if a == nil {
		return nil, errors.New("nil accessor")
	}

	var (
		projects []Project
		media    []MediaRecord
		identity *Identity
	)

	if a.Store != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := a.Store.ListProjects(gctx)
			if err != nil {
				return err
			}
			for _, r := range rows {
				_, sections, _, err := a.Store.GetProject(gctx, r.Slug)
				if err != nil {
					return err
				}
				projects = append(projects, Project{
					Facts:    FactsFromRow(r),
					Longform: LongformFromSections(r, sections),
				})
			}
			return nil
		})
		g.Go(func() error {
			var err error
			media, err = a.Store.ListMedia(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			identity, err = a.Store.GetProfile(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			a.Log.Warn("primary kb load failed, falling back", "error", err)
			projects, media, identity = nil, nil, nil
		}
	}

	// Field-by-field legacy merge: an empty store is treated the same as an
	// unreachable one for the field in question.
	if a.Legacy != nil {
		if len(projects) == 0 {
			if lp, err := a.Legacy.Projects(); err == nil {
				projects = lp
			} else {
				a.Log.Warn("legacy projects unavailable", "error", err)
			}
		}
		if identity == nil {
			if li, err := a.Legacy.Identity(); err == nil {
				identity = li
			} else {
				a.Log.Warn("legacy identity unavailable", "error", err)
			}
		}
		if len(media) == 0 {
			if lm, err := a.Legacy.Media(); err == nil && len(lm) > 0 {
				media = lm
			}
		}
	}

	if len(projects) == 0 && identity == nil {
		return nil, errors.New("knowledge base empty: no projects and no identity")
	}

	return &Data{Projects: projects, Identity: identity, Media: media}, nil
}

// GetBySlug narrows the knowledge base to a single project plus identity.
// The media set is narrowed to that project's records.
func (a *Accessor) GetBySlug(ctx context.Context, slug string) (*Data, error) {
	if a == nil {
		return nil, errors.New("nil accessor")
	}

	if a.Store != nil {
		row, sections, media, err := a.Store.GetProject(ctx, slug)
		if err == nil && row != nil {
			identity, perr := a.Store.GetProfile(ctx)
			if perr != nil {
				identity = nil
			}
			return &Data{
				Projects: []Project{{Facts: FactsFromRow(*row), Longform: LongformFromSections(*row, sections)}},
				Identity: identity,
				Media:    media,
			}, nil
		}
		if err != nil {
			a.Log.Warn("primary project lookup failed, falling back", "slug", slug, "error", err)
		}
	}

	if a.Legacy != nil {
		p, err := a.Legacy.Project(slug)
		if err == nil {
			identity, _ := a.Legacy.Identity()
			var media []MediaRecord
			if lm, merr := a.Legacy.Media(); merr == nil {
				for _, m := range lm {
					if m.ProjectSlug == p.Facts.Slug {
						media = append(media, m)
					}
				}
			}
			return &Data{Projects: []Project{*p}, Identity: identity, Media: media}, nil
		}
	}

	return nil, errors.New("project not found: " + slug)
}
