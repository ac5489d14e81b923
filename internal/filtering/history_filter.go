package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/logger"
)

type notifiedHistoryFilter struct {
	enabled bool
	reason  string
	path    string
	logger  *zap.Logger
}

// NewNotifiedHistory creates a filter that removes pairs already present in the
// history file at path. An empty path disables the step.
func NewNotifiedHistory(path string, log *zap.Logger) Filter {
	path = strings.TrimSpace(path)
	f := &notifiedHistoryFilter{enabled: true, path: path, logger: logger.OrNop(log)}
	if path == "" {
		f.Disable("history file is not configured")
	}
	return f
}

func (f *notifiedHistoryFilter) Name() string { return "notified_history" }

func (f *notifiedHistoryFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *notifiedHistoryFilter) IsEnabled() bool { return f.enabled }

func (f *notifiedHistoryFilter) Validate() error { return nil }

func (f *notifiedHistoryFilter) Apply(_ context.Context, items []Match) ([]Match, Step, error) {
	history, err := LoadHistory(f.path)
	if err != nil {
		return items, Step{}, fmt.Errorf("getting notified history from file: %w", err)
	}

	var seen []Match
	kept, step := keep(items, func(m Match) bool {
		if history.Contains(m.CandidateKey(), m.JobID()) {
			seen = append(seen, m)
			return false
		}
		return true
	})

	if len(seen) > 0 {
		f.logger.Info("excluding already notified matches",
			zap.String("path", f.path),
			zap.Strings("job_ids", jobIDs(seen)),
			zap.Int("matches_left", step.Left),
		)
	}

	return kept, step, nil
}

func (f *notifiedHistoryFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}
