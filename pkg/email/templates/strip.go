package templates

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  = bluemonday.StrictPolicy()
	blockBoundary = regexp.MustCompile(`(?i)<(br|hr|/p|/div|/h[1-6]|/li|/tr|/td|/th|/table|/blockquote)\b[^>]*>`)
	residualTags  = regexp.MustCompile(`<[^>]*>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// StripHTML converts an HTML body into plain text: tags are removed,
// entities decoded and whitespace collapsed.
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = blockBoundary.ReplaceAllString(s, "$0 ")
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = residualTags.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
