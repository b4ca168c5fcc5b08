package query

import (
	"strings"

	"github.com/google/uuid"

	"github.com/foliolab/folio-engine/internal/media"
	"github.com/foliolab/folio-engine/internal/page"
)

// MockPage answers a query from canned page documents without touching any
// model, storage, or knowledge base. It keeps demos and frontend work usable
// before a provider is configured; the real pipeline replaces it the moment
// one is.
func MockPage(userQuery string) *page.PageJSON {
	q := strings.ToLower(strings.TrimSpace(userQuery))

	switch {
	case strings.Contains(q, "gallery") || strings.Contains(q, "images"):
		return mockPage("case_study", page.Block{
			ID:        uuid.NewString(),
			Component: "ContentSection",
			Props: map[string]any{
				"variant":  "card-gallery",
				"headline": "Selected Work",
				"body":     "A few representative shots.",
				"images": []map[string]any{
					{"url": media.DefaultPlaceholderURL, "alt": "Gallery image 1"},
					{"url": media.DefaultPlaceholderURL, "alt": "Gallery image 2"},
					{"url": media.DefaultPlaceholderURL, "alt": "Gallery image 3"},
				},
			},
		})
	case strings.Contains(q, "skill"):
		return mockPage("skills", page.Block{
			ID:        uuid.NewString(),
			Component: "ContentSection",
			Props: map[string]any{
				"variant":  "2-column-split",
				"eyebrow":  "Skills",
				"headline": "What I Work With",
				"body":     "Product design, design systems, and front-of-the-frontend engineering.",
				"keyPoints": []string{
					"Interaction and visual design",
					"Design systems and component libraries",
					"Accessible, performance-minded frontend code",
				},
				"imageSrc": media.DefaultPlaceholderURL,
				"imageAlt": "Decorative placeholder image",
			},
		})
	case strings.Contains(q, "about") || strings.Contains(q, "yourself") || strings.Contains(q, "who are you"):
		return mockPage("overview", page.Block{
			ID:        uuid.NewString(),
			Component: "ContentSection",
			Props: map[string]any{
				"variant":  "text-with-image",
				"headline": "About Me",
				"body":     "I'm a design engineer focused on building thoughtful, accessible digital experiences at the intersection of design and code.",
				"imageSrc": media.DefaultPlaceholderURL,
				"imageAlt": "Portrait placeholder image",
			},
		})
	}

	return mockPage("overview", page.Block{
		ID:        uuid.NewString(),
		Component: "ContentSection",
		Props: map[string]any{
			"variant":  "full-width",
			"headline": "Welcome",
			"body":     "Ask about my work, skills, or a specific project to see a generated page.",
			"imageSrc": media.DefaultPlaceholderURL,
			"imageAlt": "Decorative placeholder image",
		},
	})
}

func mockPage(kind string, blocks ...page.Block) *page.PageJSON {
	return &page.PageJSON{
		Version: page.Version,
		Page:    page.Page{ID: uuid.NewString(), Kind: kind, Blocks: blocks},
	}
}
