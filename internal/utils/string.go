package utils

import (
	"strings"
)

// missingValueMarker is how spreadsheet tooling renders an empty numeric-looking cell.
const missingValueMarker = "nan"

// IsBlank reports whether a raw cell or form value carries no data.
func IsBlank(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed == "" || strings.EqualFold(trimmed, missingValueMarker)
}

// FirstNonBlank returns the first value that is not blank, trimmed.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if !IsBlank(v) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// CollapseWhitespace joins all whitespace-separated fields with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeURL prepends a scheme to bare "www." hosts.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "www.") {
		return "http://" + url
	}
	return url
}
