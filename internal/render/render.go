// Package render walks a page document and produces the final render tree,
// enforcing the component catalog's structural rules and accessibility
// requirements. A bad block becomes a visible, labeled error node; it never
// takes its siblings down with it.
package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolab/folio-engine/internal/catalog"
	"github.com/foliolab/folio-engine/internal/page"
)

// Node is one node of the rendered tree. Err is set on error placeholders;
// such nodes carry no component semantics of their own.
type Node struct {
	Component string         `json:"component,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
	Text      string         `json:"text,omitempty"`
	Children  []*Node        `json:"children,omitempty"`
	Err       *ErrorInfo     `json:"error,omitempty"`
}

// ErrorInfo labels an error placeholder with a human-readable title and
// enough detail to diagnose the offending block.
type ErrorInfo struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// propAliases maps legacy prop names onto their canonical equivalents.
// Canonical values already present always win.
var propAliases = map[string]string{
	"title":       "headline",
	"description": "body",
	"copy":        "body",
	"subtitle":    "eyebrow",
	"src":         "imageSrc",
	"imageUrl":    "imageSrc",
}

// leafTextComponents merge literal block text into their text prop instead
// of receiving it as a child node.
var leafTextComponents = map[string]bool{
	"Heading":         true,
	"BodyText":        true,
	"Eyebrow":         true,
	"CardTitle":       true,
	"CardDescription": true,
}

type Renderer struct {
	Catalog *catalog.Catalog
	Log     *slog.Logger
}

func New(cat *catalog.Catalog, log *slog.Logger) *Renderer {
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{Catalog: cat, Log: log}
}

// Render produces the rendered tree for a page document. A nil document
// renders an explicit empty state; a version mismatch or missing block list
// renders an explicit structural-error state.
func (r *Renderer) Render(doc *page.PageJSON) *Node {
	if doc == nil {
		return &Node{Component: "EmptyState", Text: "No content to display."}
	}
	if err := doc.Validate(); err != nil {
		return errorNode("Invalid Page Document", err.Error())
	}

	root := &Node{
		Component: "Page",
		Props:     map[string]any{"id": doc.Page.ID, "kind": doc.Page.Kind},
	}
	for _, b := range doc.Page.Blocks {
		root.Children = append(root.Children, r.renderBlock(b, ""))
	}
	return root
}

// renderBlock renders one block and its subtree. parentComponent is empty for
// top-level blocks. Any panic raised while materializing the block is
// converted into a Rendering Error node.
func (r *Renderer) renderBlock(b page.Block, parentComponent string) (node *Node) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Error("panic while rendering block", "block", b.ID, "component", b.Component, "panic", rec)
			node = errorNode("Rendering Error: "+b.Component, fmt.Sprint(rec))
		}
	}()

	name := strings.TrimSpace(b.Component)
	if !r.Catalog.Has(name) {
		return errorNode("Component Not Found: "+name, "block "+b.ID+" references an unregistered component")
	}

	if parentComponent != "" && !r.Catalog.ValidChild(parentComponent, name) {
		allowed := r.Catalog.AllowedChildren(parentComponent)
		return errorNode(
			"Invalid Child Component: "+name,
			fmt.Sprintf("%s allows children: %s", parentComponent, strings.Join(allowed, ", ")),
		)
	}

	props := normalizeProps(name, b.Props)

	if missing, what := missingAltText(r.Catalog, name, props); missing {
		return errorNode("Missing Required Alt Text: "+name, what)
	}

	node = &Node{Component: name, Props: props}
	if b.Text != "" {
		if leafTextComponents[name] {
			if node.Props == nil {
				node.Props = map[string]any{}
			}
			node.Props["text"] = b.Text
		} else {
			node.Children = append(node.Children, &Node{Component: "Text", Text: b.Text})
		}
	}
	for _, child := range b.Children {
		node.Children = append(node.Children, r.renderBlock(child, name))
	}
	return node
}

// normalizeProps applies legacy alias conversion and component-specific
// semantic fixes. The input map is never mutated.
func normalizeProps(component string, in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	for alias, canonical := range propAliases {
		v, ok := out[alias]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
		delete(out, alias)
	}

	// An autoplaying video plays muted, always.
	if component == "Video" {
		if autoplay, _ := out["autoplay"].(bool); autoplay {
			out["muted"] = true
		}
	}
	return out
}

// missingAltText enforces the alt-text requirement: media-bearing components
// must carry non-empty alt, and any component rendering an imageSrc needs a
// matching imageAlt.
func missingAltText(cat *catalog.Catalog, component string, props map[string]any) (bool, string) {
	altOf := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := props[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		return ""
	}

	if cat.MediaBearing(component) {
		if altOf("alt", "imageAlt") == "" {
			return true, component + " requires non-empty alt text"
		}
		return false, ""
	}
	if src, ok := props["imageSrc"].(string); ok && strings.TrimSpace(src) != "" {
		if altOf("imageAlt", "alt") == "" {
			return true, component + " renders an image and requires imageAlt"
		}
	}
	return false, ""
}

func errorNode(title, detail string) *Node {
	return &Node{Err: &ErrorInfo{Title: title, Detail: detail}}
}

// HasErrors reports whether any node in the tree is an error placeholder.
func HasErrors(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Err != nil {
		return true
	}
	for _, c := range n.Children {
		if HasErrors(c) {
			return true
		}
	}
	return false
}
