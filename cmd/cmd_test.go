package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/candidate-matcher/internal/assessment"
	"github.com/spigell/candidate-matcher/internal/candidate"
	"github.com/spigell/candidate-matcher/internal/filtering"
	"github.com/spigell/candidate-matcher/internal/jobs"
	"github.com/spigell/candidate-matcher/internal/matching"
)

func TestNewCompleterRejectsUnknownProvider(t *testing.T) {
	_, err := newCompleter(context.Background(), &AIConfig{
		Provider: "llama",
		Gemini:   &GeminiConfig{},
		OpenAI:   &OpenAIConfig{},
	}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "unsupported ai provider") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestNewCompleterRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := newCompleter(context.Background(), &AIConfig{
		Provider: "openai",
		Gemini:   &GeminiConfig{},
		OpenAI:   &OpenAIConfig{},
	}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY_FILE") {
		t.Fatalf("expected missing key hint, got %v", err)
	}
}

func TestNewCompleterOpenAIFromFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "openai.key")
	if err := os.WriteFile(keyFile, []byte("sk-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := newCompleter(context.Background(), &AIConfig{
		Provider: "OpenAI",
		Gemini:   &GeminiConfig{},
		OpenAI:   &OpenAIConfig{APIKeyFile: keyFile, Model: "gpt-4o"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Provider() != "openai" || c.Model() != "gpt-4o" {
		t.Fatalf("unexpected completer %s/%s", c.Provider(), c.Model())
	}
}

func TestNewGeoEngineFallsBackToNominatim(t *testing.T) {
	t.Setenv("OPENCAGE_API_KEY", "")
	engine, err := newGeoEngine(context.Background(), &GeoConfig{
		OpenCage:  &OpenCageConfig{},
		Nominatim: &NominatimConfig{},
		Cache:     &CacheConfig{RedisURL: "redis://127.0.0.1:1/0"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine == nil {
		t.Fatalf("expected an engine even when redis is unreachable")
	}
}

func TestLogCacheStats(t *testing.T) {
	t.Setenv("OPENCAGE_API_KEY", "")
	engine, err := newGeoEngine(context.Background(), &GeoConfig{
		OpenCage:  &OpenCageConfig{},
		Nominatim: &NominatimConfig{},
		Cache:     &CacheConfig{},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)
	logCacheStats(engine, zap.New(core))

	entries := logs.FilterMessage("geocode cache stats").All()
	if len(entries) != 1 {
		t.Fatalf("expected one stats entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["misses"]; got != int64(0) {
		t.Fatalf("unexpected misses %v", got)
	}
}

func testRun(t *testing.T) *matching.Run {
	t.Helper()

	a := assessorFunc(func(_ context.Context, _ string, job *jobs.Requisition) (*assessment.Assessment, error) {
		if job.ID == "2" {
			return nil, errors.New("quota")
		}
		return &assessment.Assessment{Score: 88, Success: true}, nil
	})
	reqs := []*jobs.Requisition{{ID: "1", Title: "Welder"}, {ID: "2", Title: "Packer"}}

	run, err := matching.New(matching.Config{NotificationThreshold: 75}, a, nil, nil).
		Run(context.Background(), &candidate.Profile{Email: "jane@example.com"}, reqs)
	if err != nil {
		t.Fatal(err)
	}
	return run
}

type assessorFunc func(ctx context.Context, resume string, job *jobs.Requisition) (*assessment.Assessment, error)

func (f assessorFunc) Assess(ctx context.Context, resume string, job *jobs.Requisition) (*assessment.Assessment, error) {
	return f(ctx, resume, job)
}

func TestHandleActionRecordsNotifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notified.json")
	config := &Config{Matching: &MatchingConfig{NotifiedFile: path}}
	run := testRun(t)

	err := handleAction(PromptRecord, zap.NewNop(), config, run, &jobs.Requisitions{})
	if !errors.Is(err, errExit) {
		t.Fatalf("expected exit after recording, got %v", err)
	}

	h, err := filtering.LoadHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 1 || !h.Contains("jane@example.com", "1") {
		t.Fatalf("unexpected history %+v", h.Items)
	}
}

func TestHandleActionRejectsUnknownAction(t *testing.T) {
	config := &Config{Matching: &MatchingConfig{}}
	if err := handleAction("dance", zap.NewNop(), config, testRun(t), &jobs.Requisitions{}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
