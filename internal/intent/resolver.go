// Package intent classifies a raw user query into a topic intent, an
// audience guess, and a target page shape. Classification is delegated to a
// language model with a fixed taxonomy; any failure collapses to safe
// defaults rather than surfacing to the caller.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/foliolab/folio-engine/internal/llm"
)

type Intent string

const (
	IntentProject    Intent = "project"
	IntentSkills     Intent = "skills"
	IntentExperience Intent = "experience"
	IntentGeneral    Intent = "general"
)

type Audience string

const (
	AudienceRecruiter       Audience = "recruiter"
	AudienceFreelanceClient Audience = "freelance_client"
	AudienceUnknown         Audience = "unknown"
)

type PageKind string

const (
	PageCaseStudy  PageKind = "case_study"
	PageOverview   PageKind = "overview"
	PageSkills     PageKind = "skills"
	PageExperience PageKind = "experience"
	PageMixed      PageKind = "mixed"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Result is produced once per query and never mutated afterwards.
type Result struct {
	Intent     Intent     `json:"intent"`
	Audience   Audience   `json:"audience"`
	PageKind   PageKind   `json:"page_kind"`
	Topic      string     `json:"topic,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Default is the safe classification used whenever the model call or its
// output cannot be trusted.
func Default() Result {
	return Result{
		Intent:     IntentGeneral,
		Audience:   AudienceUnknown,
		PageKind:   PageOverview,
		Confidence: ConfidenceLow,
	}
}

const systemPrompt = `You classify queries about a designer's portfolio. Respond with a single JSON object and nothing else:
{"intent": "...", "audience": "...", "page_kind": "...", "topic": "...", "confidence": "..."}

Allowed values:
- intent: project | skills | experience | general
- audience: recruiter | freelance_client | unknown
- page_kind: case_study | overview | skills | experience | mixed
- confidence: high | medium | low

"topic" is an optional project slug or comma-separated skill names mentioned in the query; omit it when nothing specific is named. Do not wrap the JSON in markdown fences. Do not add commentary.`

type Resolver struct {
	Client llm.Client
	Model  string
	Log    *slog.Logger
}

func NewResolver(client llm.Client, model string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{Client: client, Model: model, Log: log}
}

// Resolve classifies query. One model call, no retries; every failure path
// returns Default().
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	if r == nil || r.Client == nil {
		return Default()
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Default()
	}

	temp := 0.0
	raw, err := r.Client.Complete(ctx, llm.CompleteRequest{
		Model:       r.Model,
		System:      systemPrompt,
		Prompt:      "Query: " + query,
		MaxTokens:   256,
		Temperature: &temp,
	})
	if err != nil {
		r.Log.Warn("intent classification failed, using defaults", "error", err)
		return Default()
	}

	var parsed Result
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &parsed); err != nil {
		r.Log.Warn("intent response unparseable, using defaults", "error", err)
		return Default()
	}
	return normalize(parsed)
}

// normalize validates each field independently so one bad value does not
// discard the rest of an otherwise useful classification.
func normalize(in Result) Result {
	out := Default()
	switch in.Intent {
	case IntentProject, IntentSkills, IntentExperience, IntentGeneral:
		out.Intent = in.Intent
	}
	switch in.Audience {
	case AudienceRecruiter, AudienceFreelanceClient, AudienceUnknown:
		out.Audience = in.Audience
	}
	switch in.PageKind {
	case PageCaseStudy, PageOverview, PageSkills, PageExperience, PageMixed:
		out.PageKind = in.PageKind
	}
	switch in.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		out.Confidence = in.Confidence
	}
	out.Topic = strings.TrimSpace(in.Topic)
	return out
}
