package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/candidate-matcher/internal/logger"
	"github.com/spigell/candidate-matcher/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultMaxLogLength = 200

	noGapsDetected    = "No gaps detected"
	noCommuteInfo     = "Commute information not available"
	noStrengths       = "No strengths identified"
	noGaps            = "No gaps identified"
	noRecommendations = "No recommendations provided"
)

var (
	errNotFenced    = errors.New("reply is not wrapped in a fenced block")
	errNoBraces     = errors.New("reply has no brace span")
	errMissingScore = errors.New("missing match_score")
)

// Stage is one attempt at turning a raw reply into an Assessment. A non-nil
// error means the next stage should be tried.
type Stage struct {
	Name    string
	Attempt func(raw string) (*Assessment, error)
}

// Interpreter walks its stages in order and returns the first result. The last
// stage never fails, so Interpret always yields a usable record.
type Interpreter struct {
	stages    []Stage
	logger    *zap.Logger
	maxLogLen int
}

func NewInterpreter(log *zap.Logger, maxLogLength int) *Interpreter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Interpreter{
		stages:    DefaultStages(),
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

// DefaultStages is the chain used by NewInterpreter: direct JSON, fenced block,
// outermost brace span, then regex salvage.
func DefaultStages() []Stage {
	return []Stage{
		{Name: StageJSON, Attempt: parseJSON},
		{Name: StageFenced, Attempt: parseFenced},
		{Name: StageBraced, Attempt: parseBraced},
		{Name: StageSalvage, Attempt: salvage},
	}
}

// Interpret converts the raw completion text into an Assessment.
func (i *Interpreter) Interpret(raw string) *Assessment {
	var result *Assessment
	for _, stage := range i.stages {
		a, err := stage.Attempt(raw)
		if err != nil {
			i.logger.Debug("interpreter stage did not apply",
				zap.String("stage", stage.Name),
				zap.Error(err),
			)
			continue
		}
		if a != nil {
			a.Stage = stage.Name
			result = a
			break
		}
	}

	if result == nil {
		result, _ = salvage(raw)
		result.Stage = StageSalvage
	}

	if result.Stage == StageSalvage {
		i.logger.Warn("reply was not valid JSON, using salvaged assessment",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
			zap.Int("score", result.Score),
		)
	}

	if clamped, changed := clampScore(result.Score); changed {
		i.logger.Warn("match score out of range, clamped",
			zap.Int("score", result.Score),
			zap.Int("clamped", clamped),
		)
		result.Score = clamped
	}

	return result
}

func parseJSON(raw string) (*Assessment, error) {
	return decodeAssessment(strings.TrimSpace(raw))
}

func parseFenced(raw string) (*Assessment, error) {
	inner, ok := unwrapFence(raw)
	if !ok {
		return nil, errNotFenced
	}
	return decodeAssessment(inner)
}

func parseBraced(raw string) (*Assessment, error) {
	text := strings.TrimSpace(raw)
	if inner, ok := unwrapFence(text); ok {
		text = inner
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, errNoBraces
	}
	return decodeAssessment(text[start : end+1])
}

// unwrapFence returns the body of a reply that is entirely one ``` block.
func unwrapFence(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if len(text) < 6 || !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") {
		return "", false
	}

	body := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// Drop the language tag on the opening line.
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{}\"") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body), true
}

func decodeAssessment(text string) (*Assessment, error) {
	if text == "" {
		return nil, errors.New("empty reply")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}

	score := coerceFloat(data["match_score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, errMissingScore
	}

	// Keep the value just outside the valid range so the caller still sees it
	// as out of range and clamps it, without overflowing the int conversion.
	score = math.Max(MinScore-1, math.Min(MaxScore+1, score))

	a := &Assessment{
		Score:                 int(score),
		EmploymentGapDetected: coerceBool(data["employment_gap_detected"]),
		EmploymentGapDetails:  orDefault(coerceText(data["employment_gap_details"]), noGapsDetected),
		CommuteInfo:           orDefault(coerceText(data["commute_info"]), noCommuteInfo),
		CommuteReasonable:     coerceOptionalBool(data["commute_reasonable"]),
		Strengths:             orDefault(FormatBullets(coerceText(data["strengths"])), FormatBullets(noStrengths)),
		Gaps:                  orDefault(FormatBullets(coerceText(data["gaps"])), FormatBullets(noGaps)),
		Recommendations:       orDefault(FormatBullets(coerceText(data["recommendations"])), FormatBullets(noRecommendations)),
		DetailedAnalysis:      orDefault(coerceText(data["summary"]), coerceText(data["detailed_analysis"])),
		Success:               true,
	}

	return a, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceOptionalBool(v any) *bool {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "null", "unknown", "n/a":
			return nil
		}
	}
	b := coerceBool(v)
	return &b
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// coerceText renders a JSON value as text. Arrays become one line per element.
func coerceText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []any:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			if text := coerceText(item); text != "" {
				lines = append(lines, text)
			}
		}
		return strings.Join(lines, "\n")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
