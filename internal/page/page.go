// Package page defines the wire-level contract between the orchestrator and
// any renderer: a versioned page document holding an ordered tree of blocks.
package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Version is the only wire version this engine emits and accepts.
const Version = "1"

// Block is a single node of the render tree. Component names must exist in
// the component catalog; children are ordered.
type Block struct {
	ID        string         `json:"id"`
	Component string         `json:"component"`
	Props     map[string]any `json:"props,omitempty"`
	Children  []Block        `json:"children,omitempty"`

	// Text carries literal text content for leaf text components.
	Text string `json:"text,omitempty"`
}

type Page struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	Blocks []Block `json:"blocks"`
}

type PageJSON struct {
	Version string `json:"version"`
	Page    Page   `json:"page"`
}

func (p *PageJSON) Validate() error {
	if p == nil {
		return errors.New("nil page document")
	}
	if p.Version != Version {
		return fmt.Errorf("unsupported page version %q (want %q)", p.Version, Version)
	}
	if strings.TrimSpace(p.Page.ID) == "" {
		return errors.New("missing page id")
	}
	if p.Page.Blocks == nil {
		return errors.New("missing blocks list")
	}
	return nil
}

func Decode(raw []byte) (*PageJSON, error) {
	var doc PageJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse page document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
