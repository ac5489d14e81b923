package candidate

import (
	"regexp"
	"strings"
)

const (
	headerLines   = 20
	fallbackLines = 15
	nameLines     = 5
	maxNameLength = 50
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	threeDigits  = regexp.MustCompile(`\d{3}`)

	streetSuffix       = `(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|way|court|ct|circle|cir|boulevard|blvd|parkway|pkwy)`
	fullAddressPattern = regexp.MustCompile(`(?i)\d+\s+[\w\s]+` + streetSuffix + `[,\s]+[\w\s]+,\s*[A-Z]{2}\s+\d{5}(-\d{4})?`)
	cityStateZip       = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),\s*([A-Z]{2})\s+(\d{5}(-\d{4})?)`)
	streetLine         = regexp.MustCompile(`(?i)^\d+\s+[\w\s]+` + streetSuffix)

	stateAbbr = regexp.MustCompile(`\b[A-Z]{2}\b`)
	zipCode   = regexp.MustCompile(`\d{5}(-\d{4})?`)
)

// Profile is the candidate side of a matching run. It is built once per résumé.
type Profile struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	ResumeText string `json:"-"`
}

// Key identifies the candidate across runs: the explicit ID, else the email.
func (p *Profile) Key() string {
	if p == nil {
		return ""
	}
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(p.Email))
}

// ExtractProfile pulls contact details out of plain résumé text.
func ExtractProfile(text string) *Profile {
	p := &Profile{ResumeText: text}

	p.Email = emailPattern.FindString(text)
	p.Phone = strings.TrimSpace(phonePattern.FindString(text))

	lines := nonEmptyLines(text)
	for _, line := range head(lines, nameLines) {
		if len(line) >= maxNameLength || strings.Contains(line, "@") || threeDigits.MatchString(line) {
			continue
		}
		if words := len(strings.Fields(line)); words >= 2 && words <= 4 {
			p.Name = line
			break
		}
	}

	p.Address = ExtractAddress(text)
	return p
}

// ExtractAddress finds the home address in the résumé header. Street and
// city/state/ZIP given on consecutive lines are joined with ", ". It returns ""
// when nothing address-like is present.
func ExtractAddress(text string) string {
	lines := nonEmptyLines(text)

	header := head(lines, headerLines)
	for i, line := range header {
		if m := fullAddressPattern.FindString(line); m != "" {
			return strings.TrimSpace(m)
		}

		if m := cityStateZip.FindString(line); m != "" {
			if i > 0 && streetLine.MatchString(header[i-1]) {
				return strings.TrimSpace(header[i-1] + ", " + m)
			}
			return strings.TrimSpace(m)
		}

		if i < len(lines)-1 {
			next := lines[i+1]
			if m := fullAddressPattern.FindString(line + ", " + next); m != "" {
				return strings.TrimSpace(m)
			}
			if streetLine.MatchString(line) {
				if m := cityStateZip.FindString(next); m != "" {
					return strings.TrimSpace(line + ", " + m)
				}
			}
		}
	}

	for _, line := range head(lines, fallbackLines) {
		if m := cityStateZip.FindString(line); m != "" {
			return strings.TrimSpace(m)
		}
	}

	return ""
}

// LooksLikeAddress reports whether s carries at least a state abbreviation and a ZIP code.
func LooksLikeAddress(s string) bool {
	if len(s) < 5 {
		return false
	}
	return stateAbbr.MatchString(s) && zipCode.MatchString(s)
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
