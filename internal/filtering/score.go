package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/logger"
)

const DefaultNotificationThreshold = 75

type scoredFilter struct {
	logger *zap.Logger
}

// NewScored creates a filter that drops results whose completion call failed.
// Such results carry no real score and are never worth a notification.
func NewScored(log *zap.Logger) Filter {
	return &scoredFilter{logger: logger.OrNop(log)}
}

func (f *scoredFilter) Name() string { return "scored" }

func (f *scoredFilter) Disable(string) {}

func (f *scoredFilter) IsEnabled() bool { return true }

func (f *scoredFilter) Validate() error { return nil }

func (f *scoredFilter) Apply(_ context.Context, items []Match) ([]Match, Step, error) {
	var failed []Match
	kept, step := keep(items, func(m Match) bool {
		if !m.Succeeded() {
			failed = append(failed, m)
			return false
		}
		return true
	})

	if len(failed) > 0 {
		f.logger.Info("excluding unscored results", zap.Strings("job_ids", jobIDs(failed)))
	}

	return kept, step, nil
}

type minimumScoreFilter struct {
	enabled   bool
	reason    string
	threshold int
	logger    *zap.Logger
}

// NewMinimumScore creates a filter that keeps results scoring at least threshold.
func NewMinimumScore(threshold int, log *zap.Logger) Filter {
	return &minimumScoreFilter{
		enabled:   true,
		threshold: threshold,
		logger:    logger.OrNop(log),
	}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *minimumScoreFilter) IsEnabled() bool { return f.enabled }

func (f *minimumScoreFilter) Validate() error {
	if f.threshold < 0 || f.threshold > 100 {
		return fmt.Errorf("notification threshold must be within [0, 100], got %d", f.threshold)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, items []Match) ([]Match, Step, error) {
	kept, step := keep(items, func(m Match) bool {
		return m.MatchScore() >= f.threshold
	})

	f.logger.Debug("applied notification threshold",
		zap.Int("threshold", f.threshold),
		zap.Int("above_threshold", step.Left),
	)

	return kept, step, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.Itoa(f.threshold)},
	}
}
