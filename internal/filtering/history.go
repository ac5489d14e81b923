package filtering

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"
)

// History records (candidate, job) pairs a recruiter was already notified about.
type History struct {
	Items []*Notified `json:"items"`
}

type Notified struct {
	Candidate  string    `json:"candidate"`
	JobID      string    `json:"job_id"`
	Score      int       `json:"match_score"`
	NotifiedAt time.Time `json:"notified_at"`
}

// ToHistory converts matches into history entries stamped with the current time.
func ToHistory(items []Match) *History {
	h := &History{}
	now := time.Now().UTC()
	for _, item := range items {
		h.Items = append(h.Items, &Notified{
			Candidate:  item.CandidateKey(),
			JobID:      item.JobID(),
			Score:      item.MatchScore(),
			NotifiedAt: now,
		})
	}
	return h
}

// LoadHistory reads a history file. A missing or empty file is an empty history.
func LoadHistory(path string) (*History, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &History{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &History{}, nil
	}

	var h History
	if err := json.NewDecoder(file).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (h *History) Append(s *History) {
	if s == nil {
		return
	}
	for _, item := range s.Items {
		if !h.Contains(item.Candidate, item.JobID) {
			h.Items = append(h.Items, item)
		}
	}
}

// Contains reports whether the pair was recorded. Candidate keys compare case-insensitively.
func (h *History) Contains(candidate, jobID string) bool {
	for _, item := range h.Items {
		if item.JobID == jobID && strings.EqualFold(item.Candidate, candidate) {
			return true
		}
	}
	return false
}

func (h *History) Len() int {
	return len(h.Items)
}

func (h *History) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}

// Record appends the matches to the history file at path.
func Record(path string, items []Match) error {
	path = strings.TrimSpace(path)
	if path == "" || len(items) == 0 {
		return nil
	}

	h, err := LoadHistory(path)
	if err != nil {
		return err
	}
	h.Append(ToHistory(items))
	return h.ToFile(path)
}
