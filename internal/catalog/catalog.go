// Package catalog is the closed registry of renderable component types and
// their legal nesting relationships. The pipeline only consumes it as a
// lookup table; it is resolved once at startup and never mutated.
package catalog

import (
	"sort"
	"strings"
)

type Category string

const (
	CategoryAtom          Category = "atom"
	CategoryMolecule      Category = "molecule"
	CategoryLayout        Category = "layout"
	CategoryPageComponent Category = "page-component"
	CategoryUtility       Category = "utility"
)

// Entry describes one registered component. An empty AllowedChildren with
// OpenChildren=true means the component accepts any child; an explicit list
// restricts children to that set.
type Entry struct {
	Name            string
	Category        Category
	AllowedChildren []string
	OpenChildren    bool
	AllowedParents  []string
	OpenParents     bool

	// MediaBearing marks components that render media and therefore require
	// non-empty alt text.
	MediaBearing bool
}

type Catalog struct {
	entries map[string]Entry
}

// Summary is the compact catalog view embedded in planner prompts.
type Summary struct {
	Components []string `json:"components"`
	Categories []string `json:"categories"`
}

func New(entries []Entry) *Catalog {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		m[name] = e
	}
	return &Catalog{entries: m}
}

// Default returns the fixed component catalog this engine renders against.
func Default() *Catalog {
	return New([]Entry{
		{Name: "ContentSection", Category: CategoryPageComponent, AllowedChildren: []string{"Heading", "BodyText", "Eyebrow", "ImageContainer"}, OpenParents: true},

		{Name: "Heading", Category: CategoryAtom, OpenParents: true},
		{Name: "BodyText", Category: CategoryAtom, OpenParents: true},
		{Name: "Eyebrow", Category: CategoryAtom, OpenParents: true},
		{Name: "ImageContainer", Category: CategoryAtom, OpenParents: true, MediaBearing: true},
		{Name: "Video", Category: CategoryAtom, OpenParents: true, MediaBearing: true},

		{Name: "Card", Category: CategoryMolecule, AllowedChildren: []string{"CardHeader", "CardContent", "CardFooter", "CardTitle", "CardDescription"}, OpenParents: true},
		{Name: "CardHeader", Category: CategoryMolecule, AllowedChildren: []string{"CardTitle", "CardDescription"}, AllowedParents: []string{"Card"}},
		{Name: "CardContent", Category: CategoryMolecule, AllowedChildren: []string{"Heading", "BodyText", "Eyebrow"}, AllowedParents: []string{"Card"}},
		{Name: "CardFooter", Category: CategoryMolecule, AllowedParents: []string{"Card"}},
		{Name: "CardTitle", Category: CategoryMolecule, AllowedParents: []string{"CardHeader"}},
		{Name: "CardDescription", Category: CategoryMolecule, AllowedParents: []string{"CardHeader"}},
		{Name: "MediaFigure", Category: CategoryMolecule, OpenParents: true, MediaBearing: true},
		{Name: "SideBySideMedia", Category: CategoryMolecule, OpenParents: true},
		{Name: "MediaGallery", Category: CategoryMolecule, OpenParents: true},

		{Name: "Section", Category: CategoryLayout, AllowedChildren: []string{"Container", "ContentSection", "Heading", "BodyText"}, OpenParents: true},
		{Name: "Container", Category: CategoryLayout, AllowedChildren: []string{"ContentSection", "Heading", "BodyText", "Card"}, OpenParents: true},
	})
}

func (c *Catalog) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[name]
	return ok
}

func (c *Catalog) Get(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[name]
	return e, ok
}

// ValidChild reports whether child may be nested under parent. Unknown
// parents reject everything; parents with an open child policy accept any
// registered component.
func (c *Catalog) ValidChild(parent, child string) bool {
	if c == nil {
		return false
	}
	p, ok := c.entries[parent]
	if !ok {
		return false
	}
	if p.OpenChildren {
		return true
	}
	for _, allowed := range p.AllowedChildren {
		if allowed == child || allowed == "*" {
			return true
		}
	}
	return false
}

// AllowedChildren returns the explicit child set of parent, nil when the
// parent is unknown or unconstrained.
func (c *Catalog) AllowedChildren(parent string) []string {
	if c == nil {
		return nil
	}
	p, ok := c.entries[parent]
	if !ok || p.OpenChildren {
		return nil
	}
	return append([]string(nil), p.AllowedChildren...)
}

func (c *Catalog) MediaBearing(name string) bool {
	if c == nil {
		return false
	}
	e, ok := c.entries[name]
	return ok && e.MediaBearing
}

func (c *Catalog) Summary() Summary {
	if c == nil {
		return Summary{}
	}
	names := make([]string, 0, len(c.entries))
	catSet := map[string]struct{}{}
	for name, e := range c.entries {
		names = append(names, name)
		catSet[string(e.Category)] = struct{}{}
	}
	sort.Strings(names)
	cats := make([]string, 0, len(catSet))
	for cat := range catSet {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return Summary{Components: names, Categories: cats}
}
