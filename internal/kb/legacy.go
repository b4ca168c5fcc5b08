package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Legacy reads the on-disk knowledge base layout that predates the sqlite
// store: one directory per project holding facts.json and an optional
// longform.yaml, plus identity/identity.json at the root.
type Legacy struct {
	Dir string
}

func NewLegacy(dir string) *Legacy {
	return &Legacy{Dir: strings.TrimSpace(dir)}
}

func (l *Legacy) enabled() bool {
	return l != nil && l.Dir != ""
}

// Projects loads every project directory under <dir>/projects. A directory
// without facts.json is skipped; a broken longform.yaml degrades to
// facts-only rather than failing the whole load.
func (l *Legacy) Projects() ([]Project, error) {
	if !l.enabled() {
		return nil, errors.New("legacy kb not configured")
	}
	root := filepath.Join(l.Dir, "projects")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read legacy projects dir: %w", err)
	}

	var out []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := l.Project(e.Name())
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Facts.Slug < out[j].Facts.Slug })
	return out, nil
}

func (l *Legacy) Project(slug string) (*Project, error) {
	if !l.enabled() {
		return nil, errors.New("legacy kb not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("missing slug")
	}
	dir := filepath.Join(l.Dir, "projects", slug)

	raw, err := os.ReadFile(filepath.Join(dir, "facts.json"))
	if err != nil {
		return nil, fmt.Errorf("read facts for %q: %w", slug, err)
	}
	var facts ProjectFacts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("parse facts for %q: %w", slug, err)
	}
	if facts.Slug == "" {
		facts.Slug = slug
	}

	p := Project{Facts: facts}
	if raw, err := os.ReadFile(filepath.Join(dir, "longform.yaml")); err == nil {
		var lf ProjectLongform
		if yaml.Unmarshal(raw, &lf) == nil {
			p.Longform = &lf
		}
	}
	return &p, nil
}

func (l *Legacy) Identity() (*Identity, error) {
	if !l.enabled() {
		return nil, errors.New("legacy kb not configured")
	}
	raw, err := os.ReadFile(filepath.Join(l.Dir, "identity", "identity.json"))
	if err != nil {
		return nil, fmt.Errorf("read legacy identity: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("parse legacy identity: %w", err)
	}
	return &id, nil
}

// Media loads <dir>/media/media.json when present. The legacy layout often
// shipped without one, which is not an error for fallback purposes.
func (l *Legacy) Media() ([]MediaRecord, error) {
	if !l.enabled() {
		return nil, errors.New("legacy kb not configured")
	}
	raw, err := os.ReadFile(filepath.Join(l.Dir, "media", "media.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy media: %w", err)
	}
	var out []MediaRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse legacy media: %w", err)
	}
	return out, nil
}
