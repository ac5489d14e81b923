package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/logger"
)

// Match is a ranked result seen by the filters.
type Match interface {
	CandidateKey() string
	JobID() string
	MatchScore() int
	Succeeded() bool
}

// Filter represents a single step narrowing ranked results down to the
// notification-worthy subset.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, items []Match) ([]Match, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially. The relative order of the
// items is preserved.
func Run(ctx context.Context, log *zap.Logger, steps []Filter, items []Match) ([]Match, error) {
	log = logger.OrNop(log)

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			log.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		log.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		items = next
	}

	return items, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the items accepted by fn together with the step accounting.
func keep(items []Match, fn func(Match) bool) ([]Match, Step) {
	kept := make([]Match, 0, len(items))
	for _, item := range items {
		if fn(item) {
			kept = append(kept, item)
		}
	}
	return kept, Step{Initial: len(items), Dropped: len(items) - len(kept), Left: len(kept)}
}

func jobIDs(items []Match) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.JobID())
	}
	return ids
}
