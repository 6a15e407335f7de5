// Package htmlsanitize strips dangerous markup from user-supplied text
// before it is stored or rendered. Listing descriptions accept a small set
// of formatting tags; everything else is reduced to plain text.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once     sync.Once
	strict   *bluemonday.Policy
	richText *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	once.Do(func() {
		strict = bluemonday.StrictPolicy()

		richText = bluemonday.NewPolicy()
		richText.AllowElements("b", "strong", "i", "em", "u", "br", "p", "ul", "ol", "li")
	})
	return strict, richText
}

// Plain strips all markup from s, leaving text content only. Use for
// titles, addresses, names, and any single-line field.
func Plain(s string) string {
	p, _ := policies()
	return strings.TrimSpace(p.Sanitize(s))
}

// Description sanitizes a multi-line description, keeping basic formatting
// tags and dropping everything else (scripts, event handlers, iframes).
func Description(s string) string {
	_, p := policies()
	return strings.TrimSpace(p.Sanitize(s))
}
