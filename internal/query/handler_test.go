package query

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foliolab/folio-engine/internal/cache"
	"github.com/foliolab/folio-engine/internal/catalog"
	"github.com/foliolab/folio-engine/internal/copywriter"
	"github.com/foliolab/folio-engine/internal/intent"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/llm"
	"github.com/foliolab/folio-engine/internal/media"
	"github.com/foliolab/folio-engine/internal/orchestrator"
	"github.com/foliolab/folio-engine/internal/render"
)

type fakeClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeClient) Complete(_ context.Context, _ llm.CompleteRequest) (string, error) {
	f.calls++
	return f.reply, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestHandler wires a full pipeline around an identity-only knowledge
// base and the given fake copywriter client.
func newTestHandler(t *testing.T, draftClient *fakeClient) *Handler {
	t.Helper()
	log := quietLogger()

	store, err := kb.Open(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.UpsertProfile(context.Background(), kb.Identity{
		Headline:     "Product designer",
		SummaryShort: "I design accessible product experiences.",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	resolver := media.NewResolver(store, nil, media.NewAllowList("", ""), log)
	orch := orchestrator.New(catalog.Default(), resolver, nil, log)

	// Intent client errors out, which exercises the safe-default path.
	intentRes := intent.NewResolver(&fakeClient{err: errors.New("unavailable")}, "m", log)

	return NewHandler(
		kb.NewAccessor(store, nil, log),
		cache.New(),
		intentRes,
		copywriter.New(draftClient, "m", log),
		orch,
		render.New(catalog.Default(), log),
		log,
	)
}

const identityDraft = `version: "1"
kind: overview
summary: I design accessible product experiences.
sections:
  - id: about
    type: summary
    title: About
    body: I design accessible product experiences.
`

func TestHandleIdentityOnlyQuery(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, &fakeClient{reply: identityDraft})

	doc, tree := h.HandleAndRender(context.Background(), "Tell me about yourself")
	if doc.Page.Kind != "overview" {
		t.Fatalf("unexpected page kind %q", doc.Page.Kind)
	}
	if len(doc.Page.Blocks) != 1 {
		t.Fatalf("expected a single block, got %d", len(doc.Page.Blocks))
	}
	if render.HasErrors(tree) {
		t.Fatalf("rendered tree has error nodes: %+v", tree)
	}
}

func TestHandleCachesPage(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: identityDraft}
	h := newTestHandler(t, c)

	first := h.Handle(context.Background(), "Tell me about yourself")
	second := h.Handle(context.Background(), "Tell me about yourself")
	if c.calls != 1 {
		t.Fatalf("copywriter called %d times, want 1 (page cache hit)", c.calls)
	}
	if first.Page.ID != second.Page.ID {
		t.Fatal("cached page should be returned verbatim")
	}
}

func TestHandleCopywriterFailureYieldsFallbackPage(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, &fakeClient{err: errors.New("model overloaded")})

	doc := h.Handle(context.Background(), "anything")
	if doc.Page.Kind != "error" {
		t.Fatalf("expected fallback page, got kind %q", doc.Page.Kind)
	}
	if len(doc.Page.Blocks) != 1 || doc.Page.Blocks[0].Component != "BodyText" {
		t.Fatalf("fallback should be a single BodyText block, got %+v", doc.Page.Blocks)
	}
	if !strings.Contains(doc.Page.Blocks[0].Text, "model overloaded") {
		t.Fatalf("fallback should embed the error message, got %q", doc.Page.Blocks[0].Text)
	}
	if render.HasErrors(render.New(catalog.Default(), quietLogger()).Render(doc)) {
		t.Fatal("fallback page itself must render cleanly")
	}
}

func TestHandleUnrepairableDraftYieldsFallbackPage(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, &fakeClient{reply: "version: \"1\"\nkind: overview\n"})

	doc := h.Handle(context.Background(), "anything")
	if doc.Page.Kind != "error" {
		t.Fatalf("sectionless draft should produce fallback page, got %q", doc.Page.Kind)
	}
}
