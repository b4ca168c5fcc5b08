package intent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

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

func TestResolveParsesStrictJSON(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: `{"intent":"project","audience":"recruiter","page_kind":"case_study","topic":"atlas","confidence":"high"}`}
	r := NewResolver(c, "test-model", quietLogger())

	got := r.Resolve(context.Background(), "Tell me about the Atlas project")
	if got.Intent != IntentProject || got.Audience != AudienceRecruiter || got.PageKind != PageCaseStudy {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Topic != "atlas" || got.Confidence != ConfidenceHigh {
		t.Fatalf("unexpected result: %+v", got)
	}
	if c.last.Model != "test-model" {
		t.Fatalf("model not passed through: %q", c.last.Model)
	}
}

func TestResolveStripsFences(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: "```json\n{\"intent\":\"skills\",\"audience\":\"unknown\",\"page_kind\":\"skills\",\"confidence\":\"medium\"}\n```"}
	r := NewResolver(c, "m", quietLogger())

	got := r.Resolve(context.Background(), "what can you do?")
	if got.Intent != IntentSkills || got.PageKind != PageSkills || got.Confidence != ConfidenceMedium {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestResolveCallFailureYieldsDefaults(t *testing.T) {
	t.Parallel()
	r := NewResolver(&fakeClient{err: errors.New("rate limited")}, "m", quietLogger())
	if got := r.Resolve(context.Background(), "anything"); got != Default() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestResolveBadJSONYieldsDefaults(t *testing.T) {
	t.Parallel()
	r := NewResolver(&fakeClient{reply: "Sure! The intent is probably 'project'."}, "m", quietLogger())
	if got := r.Resolve(context.Background(), "anything"); got != Default() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestResolveNormalizesPerField(t *testing.T) {
	t.Parallel()
	// One invalid enum value should not discard the valid ones.
	c := &fakeClient{reply: `{"intent":"project","audience":"martian","page_kind":"case_study","confidence":"high"}`}
	r := NewResolver(c, "m", quietLogger())

	got := r.Resolve(context.Background(), "atlas?")
	if got.Intent != IntentProject || got.PageKind != PageCaseStudy || got.Confidence != ConfidenceHigh {
		t.Fatalf("valid fields dropped: %+v", got)
	}
	if got.Audience != AudienceUnknown {
		t.Fatalf("invalid audience should default, got %q", got.Audience)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	t.Parallel()
	c := &fakeClient{reply: `{}`}
	r := NewResolver(c, "m", quietLogger())
	if got := r.Resolve(context.Background(), "   "); got != Default() {
		t.Fatalf("expected defaults for empty query, got %+v", got)
	}
	if c.last.Model != "" {
		t.Fatal("empty query should not reach the model")
	}
}
