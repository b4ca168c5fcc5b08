package copywriter

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the structured draft the copywriter model produces: grounded
// prose organized into sections, with media referenced only by id.
type Document struct {
	Version       string        `yaml:"version" json:"version"`
	Kind          string        `yaml:"kind" json:"kind"`
	Query         string        `yaml:"query,omitempty" json:"query,omitempty"`
	Audience      string        `yaml:"audience,omitempty" json:"audience,omitempty"`
	Meta          Meta          `yaml:"meta,omitempty" json:"meta,omitempty"`
	MediaBindings MediaBindings `yaml:"media_bindings,omitempty" json:"media_bindings,omitempty"`
	Summary       string        `yaml:"summary,omitempty" json:"summary,omitempty"`
	Sections      []Section     `yaml:"sections" json:"sections"`
}

type Meta struct {
	PrimaryProject  string   `yaml:"primary_project,omitempty" json:"primary_project,omitempty"`
	RelatedProjects []string `yaml:"related_projects,omitempty" json:"related_projects,omitempty"`
	FocusAreas      []string `yaml:"focus_areas,omitempty" json:"focus_areas,omitempty"`
	MissingData     []string `yaml:"missing_data,omitempty" json:"missing_data,omitempty"`
}

// MediaBindings references media strictly by id; URLs never appear in a
// draft. One id must not be bound to two slots.
type MediaBindings struct {
	Hero    string   `yaml:"hero,omitempty" json:"hero,omitempty"`
	Inline  []string `yaml:"inline,omitempty" json:"inline,omitempty"`
	Gallery []string `yaml:"gallery,omitempty" json:"gallery,omitempty"`
}

type Section struct {
	ID        string   `yaml:"id" json:"id"`
	Type      string   `yaml:"type" json:"type"`
	Title     string   `yaml:"title,omitempty" json:"title,omitempty"`
	Body      string   `yaml:"body,omitempty" json:"body,omitempty"`
	KeyPoints []string `yaml:"key_points,omitempty" json:"key_points,omitempty"`
	Metrics   []string `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Media     []string `yaml:"media,omitempty" json:"media,omitempty"`
}

// Parse decodes a draft into a Document and checks the minimal shape the
// orchestrator depends on.
func Parse(raw string) (*Document, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty draft")
	}
	var doc Document
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	if len(doc.Sections) == 0 {
		return nil, errors.New("draft has no sections")
	}
	return &doc, nil
}
