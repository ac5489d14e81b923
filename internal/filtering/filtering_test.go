package filtering

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubMatch struct {
	candidate string
	job       string
	score     int
	ok        bool
}

func (m stubMatch) CandidateKey() string { return m.candidate }
func (m stubMatch) JobID() string { return m.job }
func (m stubMatch) MatchScore() int { return m.score }
func (m stubMatch) Succeeded() bool { return m.ok }

func ranked() []Match {
	return []Match{
		stubMatch{candidate: "jane@example.com", job: "j1", score: 92, ok: true},
		stubMatch{candidate: "jane@example.com", job: "j2", score: 75, ok: true},
		stubMatch{candidate: "jane@example.com", job: "j3", score: 74, ok: true},
		stubMatch{candidate: "jane@example.com", job: "j4", score: 0, ok: false},
	}
}

type failingFilter struct {
	validateErr error
	applyErr    error
	applied     bool
}

func (f *failingFilter) Name() string { return "failing" }
func (f *failingFilter) Disable(string) {}
func (f *failingFilter) IsEnabled() bool { return true }
func (f *failingFilter) Validate() error { return f.validateErr }
func (f *failingFilter) Apply(_ context.Context, items []Match) ([]Match, Step, error) {
	f.applied = true
	return items, Step{}, f.applyErr
}

func TestRunAppliesThresholdAfterScoredStep(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	steps := []Filter{NewScored(nil), NewMinimumScore(DefaultNotificationThreshold, nil)}

	got, err := Run(context.Background(), zap.New(core), steps, ranked())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids := jobIDs(got); !reflect.DeepEqual(ids, []string{"j1", "j2"}) {
		t.Fatalf("unexpected subset %v", ids)
	}

	entries := logs.FilterMessage("filter step").All()
	if len(entries) != 2 {
		t.Fatalf("expected two step log entries, got %d", len(entries))
	}
	last := entries[1].ContextMap()
	if last["initial"] != int64(3) || last["dropped"] != int64(1) || last["left"] != int64(2) {
		t.Fatalf("unexpected step accounting %v", last)
	}
}

func TestMinimumScoreBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		want      []string
	}{
		{name: "default", threshold: 75, want: []string{"j1", "j2"}},
		{name: "zero keeps everything", threshold: 0, want: []string{"j1", "j2", "j3", "j4"}},
		{name: "hundred keeps nothing", threshold: 100, want: []string{}},
		{name: "exact score", threshold: 74, want: []string{"j1", "j2", "j3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, step, err := NewMinimumScore(tt.threshold, nil).Apply(context.Background(), ranked())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := jobIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids)
			}
			if step.Initial != 4 || step.Left != len(tt.want) || step.Dropped != 4-len(tt.want) {
				t.Fatalf("unexpected step %+v", step)
			}
		})
	}
}

func TestMinimumScoreValidate(t *testing.T) {
	for _, threshold := range []int{-1, 101} {
		if err := NewMinimumScore(threshold, nil).Validate(); err == nil {
			t.Fatalf("expected validation error for %d", threshold)
		}
	}
}

func TestRunStopsOnValidationError(t *testing.T) {
	bad := &failingFilter{validateErr: errors.New("broken")}
	_, err := Run(context.Background(), nil, []Filter{bad}, ranked())
	if err == nil || err.Error() != "failing: broken" {
		t.Fatalf("expected prefixed validation error, got %v", err)
	}
	if bad.applied {
		t.Fatalf("filter must not run after failed validation")
	}
}

func TestRunWrapsApplyError(t *testing.T) {
	cause := errors.New("disk full")
	_, err := Run(context.Background(), nil, []Filter{&failingFilter{applyErr: cause}}, ranked())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped apply error, got %v", err)
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	steps := []Filter{NewMinimumScore(90, nil)}
	DisableByName(steps, "minimum_score", "threshold disabled by flag")

	got, err := Run(context.Background(), nil, steps, ranked())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected disabled filter to keep all items, got %d", len(got))
	}

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "threshold disabled by flag" || statuses[0].Details["threshold"] != "90" {
		t.Fatalf("unexpected status %+v", statuses[0])
	}
}
