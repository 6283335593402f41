package settings

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SiteLabel derives a display name for a hostname, e.g.
// "video.example-site.com" becomes "Example Site".
func SiteLabel(hostname string) string {
	host := NormalizeHostname(hostname)
	if host == "" {
		return "Unknown Site"
	}

	labels := strings.Split(host, ".")
	name := labels[0]
	if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case r == '-' || r == '_':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	label := strings.TrimSpace(cleaned.String())
	if label == "" {
		return "Unknown Site"
	}
	return cases.Title(language.Und).String(label)
}

// NormalizeHostname lowercases a hostname and strips the leading www label
// so settings written from either form land on one record.
func NormalizeHostname(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	return host
}
