package copywriter

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/foliolab/folio-engine/internal/intent"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/llm"
)

type fakeClient struct {
	reply string
	err   error
	last  llm.CompleteRequest
}

func (f *fakeClient) Complete(_ context.Context, req llm.CompleteRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testKB() *kb.Data {
	return &kb.Data{
		Identity: &kb.Identity{Headline: "Product designer", SummaryShort: "I design things."},
		Projects: []kb.Project{{Facts: kb.ProjectFacts{Slug: "atlas", Title: "Atlas Redesign", Client: "Atlas Co"}}},
		Media: []kb.MediaRecord{
			{ID: "m1", ProjectSlug: "atlas", Type: kb.MediaImage, Role: kb.RoleHero, Alt: "Hero", URL: "https://x/1.jpg"},
		},
	}
}

func TestDraftCleansAndRepairsOutput(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: "```yaml\nversion: \"1\"\nkind: overview\nsections:\n  - id: a\n    type: summary\n    body: One.\nsections:\n  - id: b\n    type: context\n    body: Two.\n```"}
	cw := New(c, "m", quietLogger())

	out, err := cw.Draft(context.Background(), "who are you?", intent.Default(), testKB())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if strings.Contains(out, "```") {
		t.Fatalf("fences not stripped:\n%s", out)
	}
	if strings.Count(out, "sections:") != 1 {
		t.Fatalf("duplicate sections not repaired:\n%s", out)
	}
	doc, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
}

func TestDraftPromptEmbedsKBWithoutURLs(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: "sections:\n  - id: a\n    type: summary\n    body: x\n"}
	cw := New(c, "m", quietLogger())

	if _, err := cw.Draft(context.Background(), "atlas?", intent.Default(), testKB()); err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(c.last.Prompt, "Atlas Redesign") {
		t.Fatal("project facts missing from prompt")
	}
	if !strings.Contains(c.last.Prompt, `"m1"`) {
		t.Fatal("media id missing from prompt")
	}
	if strings.Contains(c.last.Prompt, "https://x/1.jpg") {
		t.Fatal("media URL leaked into prompt")
	}
}

func TestDraftPropagatesCallError(t *testing.T) {
	t.Parallel()
	cw := New(&fakeClient{err: errors.New("overloaded")}, "m", quietLogger())
	if _, err := cw.Draft(context.Background(), "q", intent.Default(), testKB()); err == nil {
		t.Fatal("expected error from failed call")
	}
}

func TestDraftRequiresKB(t *testing.T) {
	t.Parallel()
	cw := New(&fakeClient{reply: "x"}, "m", quietLogger())
	if _, err := cw.Draft(context.Background(), "q", intent.Default(), nil); err == nil {
		t.Fatal("expected error without kb data")
	}
}
