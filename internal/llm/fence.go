package llm

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```[a-z0-9_-]*[ \t]*\r?\n?")
	fenceCloseRe = regexp.MustCompile("\r?\n?```[ \t]*$")
)

// StripFences removes a markdown code-fence wrapper from model output.
// Text without a leading fence is returned unchanged (modulo trimming).
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
