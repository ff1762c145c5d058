// Package sanitize strips markup from free-text fields before they are
// persisted. Names, descriptions and exercise notes come straight from form
// input and are rendered back verbatim by the UI, so everything but plain
// text is removed on the way in.
package sanitize

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s, decodes entities and trims whitespace.
func Text(s string) string {
	cleaned := strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// VideoURL validates an exercise video URL against the host allowlist.
// Empty input is valid (the field is optional). Returns the parsed, cleaned
// URL and whether it was accepted.
func VideoURL(raw string, allowedHosts []string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		if host == strings.ToLower(allowed) {
			return u.String(), true
		}
	}
	return "", false
}
