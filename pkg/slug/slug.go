package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from a product or category name.
//
// Examples:
//   - "Wireless Headphones" → "wireless-headphones"
//   - "Beauty & Health" → "beauty-health"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonAlnum.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
