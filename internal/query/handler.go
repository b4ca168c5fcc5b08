// Package query is the top of the pipeline: it takes a free-text query and
// returns a renderable page document, short-circuiting through caches and
// converting every unrecoverable stage failure into a single user-visible
// fallback page.
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foliolab/folio-engine/internal/cache"
	"github.com/foliolab/folio-engine/internal/copywriter"
	"github.com/foliolab/folio-engine/internal/intent"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/orchestrator"
	"github.com/foliolab/folio-engine/internal/page"
	"github.com/foliolab/folio-engine/internal/render"
)

const (
	kbTTL    = 5 * time.Minute
	draftTTL = 10 * time.Minute
	pageTTL  = 10 * time.Minute
)

type Handler struct {
	KB           *kb.Accessor
	Cache        *cache.Cache
	Intent       *intent.Resolver
	Copywriter   *copywriter.Copywriter
	Orchestrator *orchestrator.Orchestrator
	Renderer     *render.Renderer
	Log          *slog.Logger
}

func NewHandler(kbAcc *kb.Accessor, c *cache.Cache, res *intent.Resolver, cw *copywriter.Copywriter, orch *orchestrator.Orchestrator, ren *render.Renderer, log *slog.Logger) *Handler {
	if c == nil {
		c = cache.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{KB: kbAcc, Cache: c, Intent: res, Copywriter: cw, Orchestrator: orch, Renderer: ren, Log: log}
}

// Handle runs the full pipeline for one query. It always returns a page
// document: stage failures that cannot be absorbed lower down surface as a
// fallback page carrying the error message.
func (h *Handler) Handle(ctx context.Context, query string) *page.PageJSON {
	in := h.Intent.Resolve(ctx, query)
	h.Log.Info("query classified", "intent", in.Intent, "page_kind", in.PageKind, "topic", in.Topic, "confidence", in.Confidence)

	draftKey := cache.DraftKey(query, string(in.Intent))
	pageKey := cache.PageKey(draftKey)
	if cached, ok := cache.GetAs[*page.PageJSON](h.Cache, pageKey); ok {
		return cached
	}

	data, err := h.loadKB(ctx, in)
	if err != nil {
		h.Log.Error("knowledge base unavailable", "error", err)
		return h.fallbackPage(err)
	}

	draft, ok := cache.GetAs[string](h.Cache, draftKey)
	if !ok {
		draft, err = h.Copywriter.Draft(ctx, query, in, data)
		if err != nil {
			h.Log.Error("drafting failed", "error", err)
			return h.fallbackPage(err)
		}
		h.Cache.Set(draftKey, draft, draftTTL)
	}

	doc, err := h.Orchestrator.Assemble(ctx, draft)
	if err != nil {
		h.Log.Error("assembly failed", "error", err)
		return h.fallbackPage(err)
	}

	h.Cache.Set(pageKey, doc, pageTTL)
	return doc
}

// HandleAndRender runs Handle and passes the result through the renderer.
func (h *Handler) HandleAndRender(ctx context.Context, query string) (*page.PageJSON, *render.Node) {
	doc := h.Handle(ctx, query)
	return doc, h.Renderer.Render(doc)
}

// loadKB fetches the knowledge base, narrowed to a single project when the
// intent names one, memoized per topic.
func (h *Handler) loadKB(ctx context.Context, in intent.Result) (*kb.Data, error) {
	if h.KB == nil {
		return nil, errors.New("knowledge base not configured")
	}

	topic := in.Topic
	if in.Intent != intent.IntentProject {
		topic = ""
	}
	key := cache.TopicKey(topic, string(in.PageKind))
	if cached, ok := cache.GetAs[*kb.Data](h.Cache, key); ok {
		return cached, nil
	}

	var (
		data *kb.Data
		err  error
	)
	if topic != "" {
		data, err = h.KB.GetBySlug(ctx, topic)
		if err != nil {
			// An unknown topic falls back to the full knowledge base rather
			// than failing the query.
			h.Log.Warn("topic lookup failed, loading full kb", "topic", topic, "error", err)
			data, err = h.KB.Load(ctx)
		}
	} else {
		data, err = h.KB.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	h.Cache.Set(key, data, kbTTL)
	return data, nil
}

// fallbackPage is the single error surface users ever see: one section
// explaining that generation failed, with the error message embedded for
// diagnosis.
func (h *Handler) fallbackPage(cause error) *page.PageJSON {
	msg := "Something went wrong while generating this page."
	if cause != nil {
		msg += " (" + cause.Error() + ")"
	}
	return &page.PageJSON{
		Version: page.Version,
		Page: page.Page{
			ID:   uuid.NewString(),
			Kind: "error",
			Blocks: []page.Block{{
				ID:        uuid.NewString(),
				Component: "BodyText",
				Text:      msg,
			}},
		},
	}
}
