package copywriter

import (
	"regexp"
	"strings"
)

var topSectionsKeyRe = regexp.MustCompile(`^\s{0,2}["']?sections["']?\s*:`)

// RepairDuplicateSections fixes a known model failure mode where a draft
// carries the top-level "sections" key more than once. The first occurrence
// is canonical; every later occurrence is dropped and its list items are
// appended, in original order, contiguously with the first list. Drafts with
// at most one top-level sections key pass through untouched, which also makes
// the repair idempotent.
func RepairDuplicateSections(raw string) string {
	lines := strings.Split(raw, "\n")

	keyCount := 0
	firstKey := -1
	for i, l := range lines {
		if topSectionsKeyRe.MatchString(l) {
			if firstKey < 0 {
				firstKey = i
			}
			keyCount++
		}
	}
	if keyCount < 2 {
		return raw
	}

	var items []string
	var rest []string
	inList := false
	for i := firstKey; i < len(lines); i++ {
		line := lines[i]
		if topSectionsKeyRe.MatchString(line) {
			inList = true
			continue
		}
		if !inList {
			rest = append(rest, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			// A blank line ends the list only when the next line does not
			// continue it.
			if i+1 < len(lines) && isSectionListLine(lines[i+1]) {
				items = append(items, line)
			} else {
				inList = false
				rest = append(rest, line)
			}
			continue
		}
		if isSectionListLine(line) {
			items = append(items, line)
			continue
		}
		// A genuine top-level key terminates collection.
		inList = false
		rest = append(rest, line)
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:firstKey]...)
	out = append(out, lines[firstKey])
	out = append(out, items...)
	out = append(out, rest...)
	return strings.Join(out, "\n")
}

// isSectionListLine reports whether a line belongs to a top-level list: a
// dash item at any indent, or content nested deeper than the top level.
func isSectionListLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "-") {
		return true
	}
	return len(line)-len(strings.TrimLeft(line, " ")) > 2
}
