package assessment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultSalvageScore = 50
	minSectionLength    = 20

	unparsedGapDetails     = "Employment history could not be parsed from the assessment"
	defaultRecommendations = "Review candidate qualifications\nConsider for interview based on match score\nAssess cultural fit"
)

var (
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)match[_\s-]*score["\s:]*(\d+)`),
		regexp.MustCompile(`(?i)score["\s:]*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)%?\s*match`),
		regexp.MustCompile(`"(\d+)"`),
	}

	gapFlagPattern     = regexp.MustCompile(`(?i)"?employment_gap_detected"?\s*:\s*"?(true|false|yes|no)\b`)
	commuteFlagPattern = regexp.MustCompile(`(?i)"?commute_reasonable"?\s*:\s*"?(true|false|yes|no)\b`)

	sectionPatterns = map[string][]*regexp.Regexp{}
	quoteTrim       = regexp.MustCompile(`^["']|["']$`)
)

func init() {
	for _, name := range []string{"strengths", "gaps", "recommendations", "summary", "detailed_analysis", "employment_gap_details", "commute_info"} {
		sectionPatterns[name] = compileSection(name)
	}
}

func compileSection(name string) []*regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		// "name": "escaped \"json\" string"
		regexp.MustCompile(`(?i)"` + n + `"\s*:\s*"((?:[^"\\]|\\.)*)"`),
		// Markdown header followed by a bullet list.
		regexp.MustCompile(`(?im)^[#*\t ]*` + n + `[*:\t ]*\n((?:[\t ]*[-•*][^\n]*\n?)+)`),
		regexp.MustCompile(`(?is)` + n + `.*?:\s*"([^"]+)"`),
		regexp.MustCompile(`(?is)` + n + `.*?:\s*([^,}]+)`),
	}
}

type tierTemplate struct {
	strengths       string
	gaps            string
	recommendations string
}

var (
	optimisticTemplate = tierTemplate{
		strengths:       "Strong candidate with relevant experience\nMeets most job requirements\nGood background for the role",
		gaps:            "Minor skill gaps can be addressed with training\nVerify specific requirements in interview",
		recommendations: "Recommend for interview\nStrong match for the position\nPriority candidate",
	}
	neutralTemplate = tierTemplate{
		strengths:       "Has core qualifications\nRelevant work experience\nMeets basic requirements",
		gaps:            "Some preferred skills missing\nMay need additional training\nVerify capabilities in interview",
		recommendations: "Consider for interview\nAssess training needs\nGood potential candidate",
	}
	cautionaryTemplate = tierTemplate{
		strengths:       "Some transferable skills\nWilling to learn",
		gaps:            "Lacks several key qualifications\nLimited relevant experience\nMay require significant training",
		recommendations: "Not recommended unless willing to train\nConsider for entry-level positions\nLook for better-qualified candidates",
	}
)

func templateFor(score int) tierTemplate {
	switch {
	case score >= 75:
		return optimisticTemplate
	case score >= 60:
		return neutralTemplate
	default:
		return cautionaryTemplate
	}
}

// salvage builds a best-effort record out of text that is not valid JSON. It never fails.
func salvage(raw string) (*Assessment, error) {
	score := salvageScore(raw)

	gap := false
	if flag := salvageFlag(gapFlagPattern, raw); flag != nil {
		gap = *flag
	}

	detail := orDefault(extractSection(raw, "summary"), extractSection(raw, "detailed_analysis"))
	if detail == "" {
		detail = fmt.Sprintf("Match score: %d%%. Review the candidate's experience and qualifications for this role.", score)
	}

	a := &Assessment{
		Score:                 score,
		EmploymentGapDetected: gap,
		EmploymentGapDetails:  orDefault(extractSection(raw, "employment_gap_details"), unparsedGapDetails),
		CommuteInfo:           orDefault(extractSection(raw, "commute_info"), noCommuteInfo),
		CommuteReasonable:     salvageFlag(commuteFlagPattern, raw),
		Strengths:             FormatBullets(extractSection(raw, "strengths")),
		Gaps:                  FormatBullets(extractSection(raw, "gaps")),
		Recommendations:       orDefault(FormatBullets(extractSection(raw, "recommendations")), FormatBullets(defaultRecommendations)),
		DetailedAnalysis:      detail,
		Success:               true,
	}

	if len(a.Strengths) < minSectionLength || len(a.Gaps) < minSectionLength {
		t := templateFor(score)
		a.Strengths = FormatBullets(t.strengths)
		a.Gaps = FormatBullets(t.gaps)
		a.Recommendations = FormatBullets(t.recommendations)
	}

	return a, nil
}

func salvageScore(raw string) int {
	for _, p := range scorePatterns {
		m := p.FindStringSubmatch(raw)
		if len(m) < 2 {
			continue
		}
		score, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if score >= MinScore && score <= MaxScore {
			return score
		}
	}
	return defaultSalvageScore
}

func salvageFlag(p *regexp.Regexp, raw string) *bool {
	m := p.FindStringSubmatch(raw)
	if len(m) < 2 {
		return nil
	}
	v := coerceBool(m[1])
	return &v
}

func extractSection(raw, name string) string {
	patterns, ok := sectionPatterns[name]
	if !ok {
		patterns = compileSection(name)
	}

	for _, p := range patterns {
		m := p.FindStringSubmatch(raw)
		if len(m) < 2 {
			continue
		}
		value := strings.ReplaceAll(m[1], `\n`, "\n")
		value = strings.ReplaceAll(value, `\"`, `"`)
		value = quoteTrim.ReplaceAllString(strings.TrimSpace(value), "")
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
