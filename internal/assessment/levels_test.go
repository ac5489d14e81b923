package assessment

import (
	"reflect"
	"testing"
)

func TestInterpretation(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Exceptional"},
		{90, "Exceptional"},
		{89, "Strong"},
		{75, "Strong"},
		{74, "Good"},
		{60, "Good"},
		{59, "Moderate"},
		{40, "Moderate"},
		{39, "Poor"},
		{0, "Poor"},
	}

	for _, tt := range tests {
		if got := Interpretation(tt.score); got.Name != tt.want {
			t.Fatalf("Interpretation(%d) = %q, want %q", tt.score, got.Name, tt.want)
		}
	}

	if Interpretation(95).Recommendation != "Highly recommended - Priority interview" {
		t.Fatalf("unexpected recommendation for exceptional score")
	}
}

func TestLevelNames(t *testing.T) {
	want := []string{"Exceptional", "Strong", "Good", "Moderate", "Poor"}
	if got := LevelNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("LevelNames() = %v, want %v", got, want)
	}
}
