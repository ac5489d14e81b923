package assessment

const (
	StageJSON    = "json"
	StageFenced  = "fenced"
	StageBraced  = "braced"
	StageSalvage = "salvage"
	StageFailed  = "failed"

	MinScore = 0
	MaxScore = 100
)

// Assessment is the structured outcome of comparing one résumé with one requisition.
type Assessment struct {
	Score                 int    `json:"match_score"`
	EmploymentGapDetected bool   `json:"employment_gap_detected"`
	EmploymentGapDetails  string `json:"employment_gap_details"`
	// CommuteInfo and CommuteReasonable are the model's own commute estimate.
	// CommuteReasonable is nil when the résumé carries no address.
	CommuteInfo       string `json:"commute_info,omitempty"`
	CommuteReasonable *bool  `json:"commute_reasonable,omitempty"`
	Strengths         string `json:"strengths"`
	Gaps              string `json:"gaps"`
	Recommendations   string `json:"recommendations"`
	DetailedAnalysis  string `json:"detailed_analysis"`
	Success           bool   `json:"success"`
	// Stage names the interpreter step that produced the record.
	Stage string `json:"parse_stage,omitempty"`
}

// Failed is the record kept for a requisition whose completion call itself failed.
func Failed(err error) *Assessment {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Assessment{
		Score:            0,
		Strengths:        "Error processing resume",
		Gaps:             "Unable to analyze",
		Recommendations:  "Please try again",
		DetailedAnalysis: msg,
		Success:          false,
		Stage:            StageFailed,
	}
}

func clampScore(score int) (int, bool) {
	switch {
	case score < MinScore:
		return MinScore, true
	case score > MaxScore:
		return MaxScore, true
	default:
		return score, false
	}
}
