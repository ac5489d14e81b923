package geo

import (
	"regexp"
	"strings"
)

// Unit designators do not change the coordinates of a building. The floor
// patterns require a short number so a state code like FL followed by a ZIP
// code is left intact. Ste, unit and rm must be followed by a number so place
// names such as Sault Ste. Marie survive.
var designatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:suite|apt|apartment|room)\b\.?\s*#?\s*[a-z0-9-]+`),
	regexp.MustCompile(`(?i)\b(?:ste|unit|rm)\b\.?\s*(?:#\s*)?\d[a-z0-9-]*`),
	regexp.MustCompile(`#\s*\d+`),
	regexp.MustCompile(`(?i)\b(?:floor|fl)\b\.?\s*\d{1,3}(?:st|nd|rd|th)?\b`),
	regexp.MustCompile(`(?i)\b\d{1,3}(?:st|nd|rd|th)\s+floor\b`),
	regexp.MustCompile(`(?i)\b(?:building|bldg)\b\.?\s*[a-z0-9]+`),
}

// NormalizeAddress strips suite, unit, floor and building designators and
// tidies commas and whitespace. Applying it twice gives the same result as once.
//
// Removing one designator can expose another, so passes repeat until the
// address stops changing. Every pass after the first only deletes text, which
// bounds the loop by the length of the input.
func NormalizeAddress(address string) string {
	current := address
	for {
		next := normalizeOnce(current)
		if next == current {
			return current
		}
		current = next
	}
}

func normalizeOnce(address string) string {
	out := address
	for _, p := range designatorPatterns {
		out = p.ReplaceAllString(out, "")
	}

	parts := strings.Split(out, ",")
	kept := parts[:0]
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// CacheKey is the case-insensitive key under which a normalized address is cached.
func CacheKey(normalized string) string {
	return strings.ToLower(strings.TrimSpace(normalized))
}

// simplify keeps the last two comma separated segments, usually "city, state ZIP".
func simplify(normalized string) (string, bool) {
	parts := strings.Split(normalized, ",")
	if len(parts) < 2 {
		return "", false
	}
	simplified := strings.TrimSpace(strings.Join(parts[len(parts)-2:], ","))
	if simplified == "" || simplified == normalized {
		return "", false
	}
	return simplified, true
}
