// Package urlx finds and checks website URLs in free text.
package urlx

import (
	"net/url"
	"regexp"
)

// Matches are greedy: trailing punctuation stays attached to the URL.
var pattern = regexp.MustCompile(`(?i)https?://\S+`)

// Extract returns every URL-like substring of text in order of appearance.
func Extract(text string) []string {
	return pattern.FindAllString(text, -1)
}

// First returns the first URL-like substring of text.
func First(text string) (string, bool) {
	match := pattern.FindString(text)
	return match, match != ""
}

// Valid reports whether raw is an absolute http(s) URL with a host.
func Valid(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Hostname() != ""
}
