package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AIConfig configures the language-model providers used by the generation
// pipeline (intent resolution, copywriting, layout planning).
//
// Notes:
//   - Secrets (api keys) must never be stored in this config. Keys are managed
//     via a separate local secrets file.
//   - Providers own their allowed model list; exactly one provider model must
//     be marked as default via models[].is_default.
type AIConfig struct {
	Providers []AIProvider `json:"providers,omitempty"`

	// PlannerModel optionally pins the layout-planner stage to a specific
	// model. When empty, the default model is used for every stage.
	PlannerModel string `json:"planner_model,omitempty"`
}

type AIProvider struct {
	// ID is a stable internal id (primary key). It must not change once used
	// for secrets/model routing.
	ID string `json:"id"`

	// Name is a human-friendly display name (safe to rename at any time).
	Name string `json:"name,omitempty"`

	// Type is one of: "openai" | "anthropic" | "openai_compatible".
	Type string `json:"type"`

	// BaseURL overrides the provider endpoint. When empty, provider defaults
	// apply (except openai_compatible where base_url is required).
	BaseURL string `json:"base_url,omitempty"`

	// Models is the allowed model list for this provider.
	Models []AIProviderModel `json:"models,omitempty"`
}

type AIProviderModel struct {
	ModelName string `json:"model_name"`

	// IsDefault marks the single default model across all providers.
	IsDefault bool `json:"is_default,omitempty"`
}

func (c *AIConfig) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if len(c.Providers) == 0 {
		return errors.New("missing providers")
	}

	seen := make(map[string]struct{}, len(c.Providers))
	defaultCount := 0
	for i := range c.Providers {
		p := c.Providers[i]
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("providers[%d]: missing id", i)
		}
		if strings.Contains(id, "/") {
			return fmt.Errorf("providers[%d]: invalid id %q (must not contain /)", i, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("providers[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		t := strings.TrimSpace(p.Type)
		switch t {
		case "openai", "anthropic", "openai_compatible":
		default:
			return fmt.Errorf("providers[%d]: invalid type %q", i, t)
		}

		baseURL := strings.TrimSpace(p.BaseURL)
		if t == "openai_compatible" && baseURL == "" {
			return fmt.Errorf("providers[%d]: base_url is required for openai_compatible", i)
		}
		if baseURL != "" {
			u, err := url.Parse(baseURL)
			if err != nil || u == nil {
				return fmt.Errorf("providers[%d]: invalid base_url: %w", i, err)
			}
			scheme := strings.ToLower(strings.TrimSpace(u.Scheme))
			if scheme != "http" && scheme != "https" {
				return fmt.Errorf("providers[%d]: invalid base_url scheme %q", i, u.Scheme)
			}
			if strings.TrimSpace(u.Host) == "" {
				return fmt.Errorf("providers[%d]: invalid base_url host", i)
			}
		}

		if len(p.Models) == 0 {
			return fmt.Errorf("providers[%d]: missing models", i)
		}
		modelNames := make(map[string]struct{}, len(p.Models))
		for j := range p.Models {
			m := p.Models[j]
			name := strings.TrimSpace(m.ModelName)
			if name == "" {
				return fmt.Errorf("providers[%d].models[%d]: missing model_name", i, j)
			}
			if _, ok := modelNames[name]; ok {
				return fmt.Errorf("providers[%d].models[%d]: duplicate model_name %q", i, j, name)
			}
			modelNames[name] = struct{}{}
			if m.IsDefault {
				defaultCount++
			}
		}
	}
	if defaultCount != 1 {
		return fmt.Errorf("exactly one default model required, found %d", defaultCount)
	}
	return nil
}

// DefaultModel returns the provider id and model name marked is_default.
func (c *AIConfig) DefaultModel() (providerID, modelName string, ok bool) {
	if c == nil {
		return "", "", false
	}
	for _, p := range c.Providers {
		for _, m := range p.Models {
			if m.IsDefault {
				return strings.TrimSpace(p.ID), strings.TrimSpace(m.ModelName), true
			}
		}
	}
	return "", "", false
}

// ProviderByID returns the provider with the given id.
func (c *AIConfig) ProviderByID(id string) (AIProvider, bool) {
	if c == nil {
		return AIProvider{}, false
	}
	id = strings.TrimSpace(id)
	for _, p := range c.Providers {
		if strings.TrimSpace(p.ID) == id {
			return p, true
		}
	}
	return AIProvider{}, false
}
