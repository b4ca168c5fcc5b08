// Package copywriter turns an intent plus knowledge-base data into a
// structured YAML draft. Every fact in the draft must trace back to the
// knowledge base; media is referenced by id only.
package copywriter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolab/folio-engine/internal/intent"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/llm"
)

const draftSystemPrompt = `You are the copywriter for a designer's portfolio. You write a structured YAML draft for one page, using ONLY the knowledge base provided in the user message.

Output format — a single YAML document, no markdown fences, no commentary:

version: "1"
kind: <page kind>
query: <the user query>
audience: <audience>
meta:
  primary_project: <slug or omit>
  related_projects: [<slugs>]
  focus_areas: [<short phrases>]
  missing_data: [<facts the query needs that the knowledge base lacks>]
media_bindings:
  hero: <media id or omit>
  inline: [<media ids>]
  gallery: [<media ids>]
summary: <one or two sentences>
sections:
  - id: <kebab-case id>
    type: <summary|context|problem|solution|process|outcome|reflections>
    title: <short title>
    body: <grounded prose>
    key_points: [<optional>]
    metrics: [<optional>]
    media: [<media ids used inline in this section>]

Grounding rules — these are absolute:
- Every fact must come from the knowledge base. Never invent clients, dates, numbers, outcomes, or tools.
- When the query asks for something the knowledge base does not contain, say so in the section body and list it under meta.missing_data. Never fill gaps with plausible text.
- Quote metrics exactly as stored.

Media rules:
- Reference media by id only. Never write URLs.
- Prefer a hero-role media id for media_bindings.hero.
- Bind media belonging to the page's project(s) to the sections they illustrate.
- Put leftover relevant media ids in media_bindings.gallery.
- Never bind the same media id to more than one slot.

Page kind rules:
- case_study: canonical section order context, problem, solution, process, outcome, reflections; lead with the project summary.
- overview: lead with an identity-based summary section, then one short section per notable project.
- skills: organize sections around skill groups, citing the projects that prove each.
- experience: chronological, grounded in project timelines and roles.
- mixed: summary first, then the most relevant of the above.

The top-level "sections" key must appear exactly once.`

// promptData is the knowledge-base view embedded in the prompt. Media is
// reduced to metadata so URLs never enter the model context.
type promptData struct {
	Identity *kb.Identity   `json:"identity,omitempty"`
	Projects []kb.Project   `json:"projects,omitempty"`
	Media    []kb.MediaMeta `json:"media,omitempty"`
}

type Copywriter struct {
	Client llm.Client
	Model  string
	Log    *slog.Logger
}

func New(client llm.Client, model string, log *slog.Logger) *Copywriter {
	if log == nil {
		log = slog.Default()
	}
	return &Copywriter{Client: client, Model: model, Log: log}
}

// Draft produces the YAML draft text for a query. The returned text has had
// code fences stripped and the duplicate-sections repair applied; it is not
// guaranteed to parse — the orchestrator owns that failure.
func (c *Copywriter) Draft(ctx context.Context, query string, in intent.Result, data *kb.Data) (string, error) {
	if c == nil || c.Client == nil {
		return "", errors.New("copywriter not configured")
	}
	if data == nil {
		return "", errors.New("no knowledge base data")
	}

	kbJSON, err := json.MarshalIndent(promptData{
		Identity: data.Identity,
		Projects: data.Projects,
		Media:    data.MediaMetadata(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode kb context: %w", err)
	}

	prompt := fmt.Sprintf(`Query: %s
Intent: %s
Audience: %s
Page kind: %s

Knowledge base:
%s`, strings.TrimSpace(query), in.Intent, in.Audience, in.PageKind, kbJSON)

	temp := 0.7
	raw, err := c.Client.Complete(ctx, llm.CompleteRequest{
		Model:       c.Model,
		System:      draftSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   4096,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("draft call: %w", err)
	}

	cleaned := llm.StripFences(raw)
	repaired := RepairDuplicateSections(cleaned)
	if repaired != cleaned {
		c.Log.Warn("draft needed duplicate-sections repair", "query", query)
	}
	return repaired, nil
}
