package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSONWithRepair parses raw as JSON into v, applying escalating repair
// passes when the initial parse fails: escape raw control characters inside
// string literals, quote unquoted object keys, insert missing commas between
// juxtaposed values, and strip trailing commas. If every pass is exhausted
// the error carries both parse messages and an excerpt around the failure
// offset.
func DecodeJSONWithRepair(raw string, v any) error {
	firstErr := json.Unmarshal([]byte(raw), v)
	if firstErr == nil {
		return nil
	}

	repaired := raw
	for _, pass := range []func(string) string{
		escapeControlCharsInStrings,
		quoteUnquotedKeys,
		insertMissingCommas,
		stripTrailingCommas,
	} {
		repaired = pass(repaired)
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	finalErr := json.Unmarshal([]byte(repaired), v)
	return fmt.Errorf("json repair exhausted: original error: %v; repaired error: %v; near: %q",
		firstErr, finalErr, excerptAround(repaired, errorOffset(finalErr)))
}

func errorOffset(err error) int64 {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Offset
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return typ.Offset
	}
	return 0
}

func excerptAround(s string, offset int64) string {
	const window = 40
	start := int(offset) - window
	if start < 0 {
		start = 0
	}
	end := int(offset) + window
	if end > len(s) {
		end = len(s)
	}
	if start > len(s) {
		start = len(s)
	}
	return s[start:end]
}

// escapeControlCharsInStrings escapes raw newlines, tabs, and carriage
// returns that a model emitted inside string literals.
func escapeControlCharsInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inString {
			if ch == '"' {
				inString = true
			}
			b.WriteByte(ch)
			continue
		}
		if escaped {
			escaped = false
			b.WriteByte(ch)
			continue
		}
		switch ch {
		case '\\':
			escaped = true
			b.WriteByte(ch)
		case '"':
			inString = false
			b.WriteByte(ch)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// quoteUnquotedKeys wraps bare identifiers used as object keys in quotes.
// Only positions immediately after '{' or ',' (ignoring whitespace) are
// considered, and string literals are skipped.
func quoteUnquotedKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	expectKey := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch {
		case ch == '"':
			inString = true
			expectKey = false
			b.WriteByte(ch)
		case ch == '{' || ch == ',':
			expectKey = true
			b.WriteByte(ch)
		case ch == ' ' || ch == '\n' || ch == '\t' || ch == '\r':
			b.WriteByte(ch)
		case expectKey && isIdentStart(ch):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			k := j
			for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			i = j - 1
			expectKey = false
		default:
			expectKey = false
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// insertMissingCommas adds a comma wherever one value ends and another
// begins with nothing but whitespace between them. The scan covers every
// juxtaposed pairing of strings, objects, arrays, numbers, booleans and
// null.
func insertMissingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	inLiteral := false
	valueEnded := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
				valueEnded = true
			}
			continue
		}
		switch {
		case ch == '"':
			if inLiteral {
				inLiteral = false
				valueEnded = true
			}
			if valueEnded {
				b.WriteByte(',')
			}
			inString = true
			valueEnded = false
			b.WriteByte(ch)
		case ch == '{' || ch == '[':
			if inLiteral {
				inLiteral = false
				valueEnded = true
			}
			if valueEnded {
				b.WriteByte(',')
			}
			valueEnded = false
			b.WriteByte(ch)
		case ch == '}' || ch == ']':
			inLiteral = false
			valueEnded = true
			b.WriteByte(ch)
		case ch == ',' || ch == ':':
			inLiteral = false
			valueEnded = false
			b.WriteByte(ch)
		case ch == ' ' || ch == '\n' || ch == '\t' || ch == '\r':
			if inLiteral {
				inLiteral = false
				valueEnded = true
			}
			b.WriteByte(ch)
		default:
			if !inLiteral {
				if valueEnded {
					b.WriteByte(',')
				}
				inLiteral = true
				valueEnded = false
			}
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// stripTrailingCommas removes a comma that directly precedes a closing
// bracket or brace.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\t' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
