package assessment

// Level is the recruiter-facing reading of a match score.
type Level struct {
	Name           string `json:"level"`
	Recommendation string `json:"recommendation"`
}

var levels = []struct {
	min   int
	level Level
}{
	{90, Level{Name: "Exceptional", Recommendation: "Highly recommended - Priority interview"}},
	{75, Level{Name: "Strong", Recommendation: "Recommended - Schedule interview"}},
	{60, Level{Name: "Good", Recommendation: "Consider for interview"}},
	{40, Level{Name: "Moderate", Recommendation: "Review carefully - May lack key qualifications"}},
}

var poor = Level{Name: "Poor", Recommendation: "Not recommended"}

// Interpretation maps a score to its level.
func Interpretation(score int) Level {
	for _, l := range levels {
		if score >= l.min {
			return l.level
		}
	}
	return poor
}

// LevelNames lists the level names from best to worst.
func LevelNames() []string {
	names := make([]string, 0, len(levels)+1)
	for _, l := range levels {
		names = append(names, l.level.Name)
	}
	return append(names, poor.Name)
}
