package media

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// bindingKeys are the draft keys whose values reference media ids.
var bindingKeys = map[string]bool{
	"hero":      true,
	"inline":    true,
	"gallery":   true,
	"media_id":  true,
	"media_ids": true,
}

// ExtractIDs collects every media id referenced by a draft document, in
// first-seen order with duplicates removed. The draft is parsed as YAML and
// walked; if it does not parse, a line-oriented scan of the media_bindings
// region is used instead so a malformed draft can still have its media
// resolved.
func ExtractIDs(draft string) []string {
	var doc any
	if err := yaml.Unmarshal([]byte(draft), &doc); err == nil && doc != nil {
		var out []string
		seen := make(map[string]bool)
		walkForIDs(doc, false, seen, &out)
		return out
	}
	return extractIDsByScan(draft)
}

func walkForIDs(node any, inBinding bool, seen map[string]bool, out *[]string) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			walkForIDs(child, bindingKeys[k], seen, out)
		}
	case map[any]any:
		for k, child := range v {
			key, _ := k.(string)
			walkForIDs(child, bindingKeys[key], seen, out)
		}
	case []any:
		for _, child := range v {
			walkForIDs(child, inBinding, seen, out)
		}
	case string:
		if inBinding {
			id := strings.TrimSpace(v)
			if id != "" && !seen[id] {
				seen[id] = true
				*out = append(*out, id)
			}
		}
	}
}

// extractIDsByScan pulls ids out of the media_bindings block of a draft that
// failed to parse. It captures scalar values on binding-key lines and list
// items beneath them.
func extractIDsByScan(draft string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.Trim(strings.TrimSpace(id), `"'`)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	collecting := false
	for _, line := range strings.Split(draft, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if key, value, ok := strings.Cut(trimmed, ":"); ok && bindingKeys[strings.TrimSpace(key)] {
			collecting = true
			if v := strings.TrimSpace(value); v != "" && v != "|" && v != ">" {
				add(v)
			}
			continue
		}
		if collecting {
			if item, ok := strings.CutPrefix(trimmed, "- "); ok {
				add(item)
				continue
			}
			collecting = false
		}
	}
	return out
}
