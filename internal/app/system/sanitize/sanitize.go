// internal/app/system/sanitize/sanitize.go
//
// Package sanitize strips markup from instructor-supplied free text
// (attendance notes, evaluation notes, custom notification messages)
// before it is stored or forwarded to the notification gateway.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text returns s with all HTML removed and whitespace trimmed. The
// result is plain text; entities introduced by the policy are unescaped
// so stored notes read naturally.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// TextMap sanitizes every value of m in place and returns m.
// Nil maps pass through.
func TextMap(m map[string]string) map[string]string {
	for k, v := range m {
		m[k] = Text(v)
	}
	return m
}
