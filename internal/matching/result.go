package matching

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spigell/candidate-matcher/internal/assessment"
	"github.com/spigell/candidate-matcher/internal/candidate"
	"github.com/spigell/candidate-matcher/internal/filtering"
	"github.com/spigell/candidate-matcher/internal/geo"
	"github.com/spigell/candidate-matcher/internal/jobs"
)

// Result is the outcome for one requisition. Commute is nil when it could not
// be computed; CommuteErr is set only when geocoding failed.
type Result struct {
	Job        *jobs.Requisition
	Candidate  string
	Assessment *assessment.Assessment
	Commute    *geo.CommuteEstimate
	CommuteErr error
}

func (r *Result) CandidateKey() string { return r.Candidate }

func (r *Result) JobID() string { return r.Job.ID }

func (r *Result) MatchScore() int { return r.Assessment.Score }

func (r *Result) Succeeded() bool { return r.Assessment.Success }

// Run is one matching run of a candidate against a set of requisitions.
type Run struct {
	ID        string
	Candidate *candidate.Profile
	StartedAt time.Time
	Duration  time.Duration
	// Results are ranked by score descending.
	Results []*Result
	// Notify is the notification-worthy subset of Results, in rank order.
	Notify []*Result
}

func (r *Run) Len() int {
	return len(r.Results)
}

// Failed counts results whose completion call failed.
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Assessment.Success {
			n++
		}
	}
	return n
}

func (r *Run) matches() []filtering.Match {
	items := make([]filtering.Match, 0, len(r.Results))
	for _, res := range r.Results {
		items = append(items, res)
	}
	return items
}

// NotifyMatches returns the notification-worthy subset as filtering matches.
func (r *Run) NotifyMatches() []filtering.Match {
	items := make([]filtering.Match, 0, len(r.Notify))
	for _, res := range r.Notify {
		items = append(items, res)
	}
	return items
}

// Output is the caller-facing record of one result.
type Output struct {
	JobID                 string        `json:"job_id"`
	JobTitle              string        `json:"job_title"`
	MatchScore            int           `json:"match_score"`
	EmploymentGapDetected bool          `json:"employment_gap_detected"`
	EmploymentGapDetails  string        `json:"employment_gap_details"`
	Strengths             string        `json:"strengths"`
	Gaps                  string        `json:"gaps"`
	Recommendations       string        `json:"recommendations"`
	DetailedAnalysis      string        `json:"detailed_analysis"`
	DistanceInfo          *DistanceInfo `json:"distance_info"`
	Success               bool          `json:"success"`
	CommuteInfo           string        `json:"commute_info,omitempty"`
}

type DistanceInfo struct {
	DistanceKm         float64 `json:"distance_km"`
	DistanceMiles      float64 `json:"distance_miles"`
	CommuteReasonable  bool    `json:"commute_reasonable"`
	CommuteDescription string  `json:"commute_description"`
}

func (r *Result) Output() Output {
	a := r.Assessment
	out := Output{
		JobID:                 r.Job.ID,
		JobTitle:              r.Job.Title,
		MatchScore:            a.Score,
		EmploymentGapDetected: a.EmploymentGapDetected,
		EmploymentGapDetails:  a.EmploymentGapDetails,
		Strengths:             a.Strengths,
		Gaps:                  a.Gaps,
		Recommendations:       a.Recommendations,
		DetailedAnalysis:      a.DetailedAnalysis,
		Success:               a.Success,
		CommuteInfo:           a.CommuteInfo,
	}
	if r.Commute != nil {
		out.DistanceInfo = &DistanceInfo{
			DistanceKm:         r.Commute.DistanceKm,
			DistanceMiles:      r.Commute.DistanceMiles,
			CommuteReasonable:  r.Commute.Reasonable,
			CommuteDescription: r.Commute.Description,
		}
	}
	return out
}

// Output returns the ranked caller-facing records.
func (r *Run) Output() []Output {
	out := make([]Output, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Output())
	}
	return out
}

// Report is the document written by the match command.
type Report struct {
	RunID     string             `json:"run_id"`
	Candidate *candidate.Profile `json:"candidate"`
	StartedAt time.Time          `json:"started_at"`
	Results   []Output           `json:"results"`
	Notify    []string           `json:"notify"`
}

func (r *Run) Report() Report {
	notify := make([]string, 0, len(r.Notify))
	for _, res := range r.Notify {
		notify = append(notify, res.Job.ID)
	}
	return Report{
		RunID:     r.ID,
		Candidate: r.Candidate,
		StartedAt: r.StartedAt,
		Results:   r.Output(),
		Notify:    notify,
	}
}

func (r *Run) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Report()); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByLevel groups results by score interpretation level.
func (r *Run) ReportByLevel() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, res := range r.Results {
		if !res.Assessment.Success {
			report["Unscored"] = append(report["Unscored"], map[string]string{
				"job":   fmt.Sprintf("%s (%s)", res.Job.Title, res.Job.ID),
				"error": res.Assessment.DetailedAnalysis,
			})
			continue
		}

		level := assessment.Interpretation(res.Assessment.Score)
		entry := map[string]string{
			"job":            fmt.Sprintf("%s (%s)", res.Job.Title, res.Job.ID),
			"score":          fmt.Sprintf("%d", res.Assessment.Score),
			"recommendation": level.Recommendation,
			"commute":        "unknown",
		}
		if res.Commute != nil {
			entry["commute"] = fmt.Sprintf("%.1f mi, %s", res.Commute.DistanceMiles, res.Commute.Description)
		}
		report[level.Name] = append(report[level.Name], entry)
	}
	return report
}
