// Package orchestrator turns a copywriter draft into a validated page
// document: it plans a layout variant per section, binds resolved media in
// strict priority order, and materializes the block tree the renderer
// consumes. Unlike the upstream stages it fails hard on structural problems;
// no partial page is better than a silently wrong one.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/foliolab/folio-engine/internal/catalog"
	"github.com/foliolab/folio-engine/internal/copywriter"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/media"
	"github.com/foliolab/folio-engine/internal/page"
)

// AssembleError marks failures that must abort page assembly.
type AssembleError struct {
	Stage string
	Err   error
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("assemble: %s: %v", e.Stage, e.Err)
}

func (e *AssembleError) Unwrap() error { return e.Err }

func assembleErr(stage string, err error) error {
	return &AssembleError{Stage: stage, Err: err}
}

const placeholderAlt = "Decorative placeholder image"

type Orchestrator struct {
	Catalog  *catalog.Catalog
	Resolver *media.Resolver
	Planner  *Planner
	Log      *slog.Logger
}

func New(cat *catalog.Catalog, resolver *media.Resolver, planner *Planner, log *slog.Logger) *Orchestrator {
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{Catalog: cat, Resolver: resolver, Planner: planner, Log: log}
}

// Assemble parses the draft, plans the layout, binds media, and emits the
// final page document. Parse failures and unknown component names are hard
// errors; media failures degrade to placeholders.
func (o *Orchestrator) Assemble(ctx context.Context, draft string) (*page.PageJSON, error) {
	doc, err := copywriter.Parse(draft)
	if err != nil {
		return nil, assembleErr("parse draft", err)
	}

	resolved := map[string]media.Resolved{}
	if o.Resolver != nil {
		if m, err := o.Resolver.ResolveMap(ctx, media.ExtractIDs(draft)); err != nil {
			o.Log.Warn("media resolution failed, assembling without media", "error", err)
		} else {
			resolved = m
		}
	}

	hero, heroOK := resolved[strings.TrimSpace(doc.MediaBindings.Hero)]
	plan := o.Planner.Plan(ctx, doc, o.Catalog.Summary(), heroOK)

	kind := strings.TrimSpace(doc.Kind)
	if kind == "" {
		kind = "overview"
	}

	binder := newMediaBinder(doc, resolved, hero, heroOK, o.placeholder())
	blocks := make([]page.Block, 0, len(doc.Sections))
	heroPlaced := false
	for i, s := range doc.Sections {
		sp := plan.Sections[i]
		blocks = append(blocks, o.materialize(s, sp, binder, &heroPlaced))
	}

	doc2 := &page.PageJSON{
		Version: page.Version,
		Page:    page.Page{ID: uuid.NewString(), Kind: kind, Blocks: blocks},
	}
	if err := o.validateComponents(doc2.Page.Blocks); err != nil {
		return nil, assembleErr("validate components", err)
	}
	return doc2, nil
}

func (o *Orchestrator) placeholder() string {
	if o.Resolver != nil && o.Resolver.Allow != nil {
		return o.Resolver.Allow.Placeholder()
	}
	return media.DefaultPlaceholderURL
}

// materialize emits the block tree for one planned section. Full-bleed
// variants stand alone; everything else is wrapped Section→Container.
func (o *Orchestrator) materialize(s copywriter.Section, sp SectionPlan, binder *mediaBinder, heroPlaced *bool) page.Block {
	props := map[string]any{
		"variant":  string(sp.Variant),
		"headline": strings.TrimSpace(s.Title),
		"body":     strings.TrimSpace(s.Body),
	}
	if typ := strings.TrimSpace(s.Type); typ != "" {
		props["eyebrow"] = eyebrowLabel(typ)
	}
	if len(s.KeyPoints) > 0 {
		props["keyPoints"] = s.KeyPoints
	}
	if len(s.Metrics) > 0 {
		props["metrics"] = s.Metrics
	}

	if sp.Variant == VariantCardGallery {
		props["images"] = binder.gallerySet(s)
	} else {
		takeHero := !*heroPlaced && (sp.UseHero || (sp.Variant == VariantFullWidth && binder.heroOK))
		res := binder.imageFor(takeHero)
		if takeHero && binder.heroOK {
			*heroPlaced = true
		}
		props["imageSrc"] = res.URL
		props["imageAlt"] = res.Record.Alt
		if res.Record.Caption != "" {
			props["imageCaption"] = res.Record.Caption
		}
	}

	content := page.Block{
		ID:        uuid.NewString(),
		Component: "ContentSection",
		Props:     props,
	}
	if fullBleed(sp.Variant) {
		return content
	}
	return page.Block{
		ID:        uuid.NewString(),
		Component: "Section",
		Children: []page.Block{{
			ID:        uuid.NewString(),
			Component: "Container",
			Children:  []page.Block{content},
		}},
	}
}

func (o *Orchestrator) validateComponents(blocks []page.Block) error {
	for _, b := range blocks {
		if !o.Catalog.Has(b.Component) {
			return fmt.Errorf("unknown component %q in block %s", b.Component, b.ID)
		}
		if err := o.validateComponents(b.Children); err != nil {
			return err
		}
	}
	return nil
}

func eyebrowLabel(sectionType string) string {
	sectionType = strings.ReplaceAll(sectionType, "_", " ")
	if sectionType == "" {
		return ""
	}
	return strings.ToUpper(sectionType[:1]) + sectionType[1:]
}

// mediaBinder drains media in strict priority order: hero once, then the
// inline queue, then gallery-bound media, then any remaining resolved media,
// then the placeholder. One id is never handed out twice.
type mediaBinder struct {
	resolved    map[string]media.Resolved
	hero        media.Resolved
	heroOK      bool
	heroID      string
	inline      []string
	gallery     []string
	fallback    []string
	consumed    map[string]bool
	placeholder string
}

func newMediaBinder(doc *copywriter.Document, resolved map[string]media.Resolved, hero media.Resolved, heroOK bool, placeholder string) *mediaBinder {
	b := &mediaBinder{
		resolved:    resolved,
		hero:        hero,
		heroOK:      heroOK,
		heroID:      strings.TrimSpace(doc.MediaBindings.Hero),
		consumed:    map[string]bool{},
		placeholder: placeholder,
	}
	if heroOK {
		b.consumed[b.heroID] = true
	}

	seen := map[string]bool{}
	add := func(queue *[]string, id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] || id == b.heroID {
			return
		}
		seen[id] = true
		*queue = append(*queue, id)
	}
	for _, s := range doc.Sections {
		for _, id := range s.Media {
			add(&b.inline, id)
		}
	}
	for _, id := range doc.MediaBindings.Inline {
		add(&b.inline, id)
	}
	for _, id := range doc.MediaBindings.Gallery {
		add(&b.gallery, id)
	}
	rest := make([]string, 0, len(resolved))
	for id := range resolved {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		add(&b.fallback, id)
	}
	return b
}

// imageFor picks the image for a non-gallery section: the hero when claimed,
// otherwise the next queued media, otherwise the placeholder. Sections that
// bound no media still receive the placeholder, so an intentional no-image
// state is not representable; that is a carried-over policy choice, not an
// accident.
func (b *mediaBinder) imageFor(takeHero bool) media.Resolved {
	if takeHero && b.heroOK {
		return b.hero
	}
	if res, ok := b.next(); ok {
		return res
	}
	return media.Resolved{URL: b.placeholder, Record: kb.MediaRecord{Type: kb.MediaImage, Alt: placeholderAlt}}
}

func (b *mediaBinder) next() (media.Resolved, bool) {
	for _, queue := range []*[]string{&b.inline, &b.gallery, &b.fallback} {
		for len(*queue) > 0 {
			id := (*queue)[0]
			*queue = (*queue)[1:]
			if b.consumed[id] {
				continue
			}
			res, ok := b.resolved[id]
			if !ok || res.URL == "" {
				continue
			}
			b.consumed[id] = true
			return res, true
		}
	}
	return media.Resolved{}, false
}

// gallerySet returns the {url, alt} pairs for a card-gallery section: the
// section's own media first, topped up from the gallery queue, with a single
// placeholder entry when nothing resolves.
func (b *mediaBinder) gallerySet(s copywriter.Section) []map[string]any {
	var out []map[string]any
	take := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || b.consumed[id] {
			return
		}
		res, ok := b.resolved[id]
		if !ok || res.URL == "" {
			return
		}
		b.consumed[id] = true
		out = append(out, map[string]any{"url": res.URL, "alt": res.Record.Alt})
	}
	for _, id := range s.Media {
		take(id)
	}
	for _, id := range b.gallery {
		take(id)
	}
	b.gallery = nil
	if len(out) == 0 {
		out = append(out, map[string]any{"url": b.placeholder, "alt": placeholderAlt})
	}
	return out
}
