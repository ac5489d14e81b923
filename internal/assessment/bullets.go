package assessment

import (
	"regexp"
	"strings"
)

var (
	lineSplit    = regexp.MustCompile(`\\n|\r?\n`)
	bulletPrefix = regexp.MustCompile(`^[-•*]\s*`)
)

// FormatBullets rewrites list-like text as one "- item" per line. Literal "\n"
// sequences count as line breaks, blank lines are dropped and existing dash,
// bullet or star markers are replaced.
func FormatBullets(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	lines := lineSplit.Split(text, -1)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, "- "+line)
	}

	return strings.Join(out, "\n")
}
