// Package sanitize cleans user-supplied text before it is stored or mailed.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// RichText keeps safe formatting markup (paragraphs, emphasis, links) and
// strips scripts, event handlers and javascript: URLs.
func RichText(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// PlainText removes all markup. Entities the policy escapes are decoded again
// since the result is stored as text, not HTML.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
