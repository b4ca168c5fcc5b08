package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolab/folio-engine/internal/catalog"
	"github.com/foliolab/folio-engine/internal/copywriter"
	"github.com/foliolab/folio-engine/internal/llm"
)

// Variant is one of the closed set of visual treatments a section may get.
type Variant string

const (
	VariantFullWidth        Variant = "full-width"
	VariantTwoColImageLeft  Variant = "2-column-image-left"
	VariantTwoColImageRight Variant = "2-column-image-right"
	VariantTwoColSplit      Variant = "2-column-split"
	VariantCardGallery      Variant = "card-gallery"
	VariantTextWithImage    Variant = "text-with-image"
	VariantAnnotatedVisual  Variant = "annotated-visual"
	VariantHalfAndHalf      Variant = "half-and-half-column"
	VariantTimeline         Variant = "timeline"
)

func validVariant(v Variant) bool {
	switch v {
	case VariantFullWidth, VariantTwoColImageLeft, VariantTwoColImageRight,
		VariantTwoColSplit, VariantCardGallery, VariantTextWithImage,
		VariantAnnotatedVisual, VariantHalfAndHalf, VariantTimeline:
		return true
	}
	return false
}

// fullBleed variants manage their own outer layout and are emitted without
// the Section/Container wrapper chain.
func fullBleed(v Variant) bool {
	switch v {
	case VariantFullWidth, VariantCardGallery, VariantAnnotatedVisual, VariantTextWithImage:
		return true
	}
	return false
}

// SectionPlan is the planner's choice for one draft section.
type SectionPlan struct {
	SectionID string  `json:"section_id"`
	Variant   Variant `json:"variant"`
	UseHero   bool    `json:"use_hero"`
}

type PagePlan struct {
	PageID   string
	Kind     string
	Sections []SectionPlan
}

const planSystemPrompt = `You choose a visual layout variant for each section of a portfolio page. Respond with a single JSON array and nothing else, one object per section, in the given order:
[{"section_id": "...", "variant": "...", "use_hero": false}]

Allowed variants: full-width, 2-column-image-left, 2-column-image-right, 2-column-split, card-gallery, text-with-image, annotated-visual, half-and-half-column, timeline.

Guidance:
- hero or summary sections: full-width when media is available, otherwise 2-column-split; set use_hero true on at most one section.
- context, problem, solution: alternate 2-column-image-left and 2-column-image-right.
- process: timeline, or 2-column-split when purely textual.
- outcome: text-with-image.
- sections with 3 or more media items: card-gallery.
- use at most 3 distinct variants across the page and avoid repeating one more than twice in a row.

Do not invent sections, prose, or component names. Do not wrap the JSON in markdown fences.`

// Planner picks a layout variant per section: one low-budget model call,
// validated field by field, with a deterministic heuristic standing in for
// anything the model gets wrong.
type Planner struct {
	Client llm.Client
	Model  string
	Log    *slog.Logger
}

func NewPlanner(client llm.Client, model string, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{Client: client, Model: model, Log: log}
}

// planSection is the abstract view of a draft section handed to the model.
type planSection struct {
	SectionID  string `json:"section_id"`
	Type       string `json:"type"`
	MediaCount int    `json:"media_count"`
	HasMedia   bool   `json:"has_media"`
}

// Plan maps each draft section to a SectionPlan. The model only selects from
// the closed variant set; everything else is fixed by the draft.
func (p *Planner) Plan(ctx context.Context, doc *copywriter.Document, summary catalog.Summary, heroAvailable bool) PagePlan {
	sections := abstractSections(doc)
	plan := PagePlan{Kind: doc.Kind, Sections: heuristicPlan(sections, heroAvailable)}

	if p == nil || p.Client == nil {
		return plan
	}

	input, err := json.Marshal(struct {
		Kind          string        `json:"kind"`
		HeroAvailable bool          `json:"hero_available"`
		Components    []string      `json:"components"`
		Sections      []planSection `json:"sections"`
	}{doc.Kind, heroAvailable, summary.Components, sections})
	if err != nil {
		return plan
	}

	temp := 0.4
	raw, err := p.Client.Complete(ctx, llm.CompleteRequest{
		Model:       p.Model,
		System:      planSystemPrompt,
		Prompt:      string(input),
		MaxTokens:   1024,
		Temperature: &temp,
	})
	if err != nil {
		p.Log.Warn("layout planning call failed, using heuristics", "error", err)
		return plan
	}

	var choices []SectionPlan
	if err := DecodeJSONWithRepair(llm.StripFences(raw), &choices); err != nil {
		p.Log.Warn("layout plan unparseable, using heuristics", "error", err)
		return plan
	}

	// Merge the model's valid choices over the heuristic baseline.
	byID := make(map[string]SectionPlan, len(choices))
	for _, c := range choices {
		byID[strings.TrimSpace(c.SectionID)] = c
	}
	heroTaken := false
	for i := range plan.Sections {
		c, ok := byID[plan.Sections[i].SectionID]
		if !ok {
			continue
		}
		if validVariant(c.Variant) {
			plan.Sections[i].Variant = c.Variant
		}
		use := c.UseHero && heroAvailable && !heroTaken
		plan.Sections[i].UseHero = use
		if use {
			heroTaken = true
		}
	}
	return plan
}

func abstractSections(doc *copywriter.Document) []planSection {
	out := make([]planSection, 0, len(doc.Sections))
	for i, s := range doc.Sections {
		typ := strings.TrimSpace(s.Type)
		if typ == "" && i == 0 {
			typ = "summary"
		}
		out = append(out, planSection{
			SectionID:  sectionID(s, i),
			Type:       typ,
			MediaCount: len(s.Media),
			HasMedia:   len(s.Media) > 0,
		})
	}
	return out
}

func sectionID(s copywriter.Section, i int) string {
	if id := strings.TrimSpace(s.ID); id != "" {
		return id
	}
	return fmt.Sprintf("section-%d", i+1)
}

// heuristicPlan is the deterministic fallback mapping from section type and
// media presence to a variant.
func heuristicPlan(sections []planSection, heroAvailable bool) []SectionPlan {
	out := make([]SectionPlan, 0, len(sections))
	leftNext := true
	heroTaken := false
	for i, s := range sections {
		sp := SectionPlan{SectionID: s.SectionID}
		switch {
		case s.MediaCount >= 3:
			sp.Variant = VariantCardGallery
		case s.Type == "hero" || s.Type == "summary":
			if s.HasMedia || (heroAvailable && !heroTaken) {
				sp.Variant = VariantFullWidth
			} else {
				sp.Variant = VariantTwoColSplit
			}
		case s.Type == "context" || s.Type == "problem" || s.Type == "solution":
			if leftNext {
				sp.Variant = VariantTwoColImageLeft
			} else {
				sp.Variant = VariantTwoColImageRight
			}
			leftNext = !leftNext
		case s.Type == "process":
			if s.HasMedia {
				sp.Variant = VariantTwoColSplit
			} else {
				sp.Variant = VariantTimeline
			}
		case s.Type == "outcome", s.Type == "outcomes":
			sp.Variant = VariantTextWithImage
		default:
			sp.Variant = VariantTwoColSplit
		}
		if heroAvailable && !heroTaken && i == 0 {
			sp.UseHero = true
			heroTaken = true
		}
		out = append(out, sp)
	}
	return out
}
