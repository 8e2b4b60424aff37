package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/airc/internal/ai"
)

const (
	minScore = 0
	maxScore = 100

	apiErrorPrefix   = "Analysis failed due to API error: "
	parseErrorPrefix = "Analysis failed: could not parse model response: "
	noSummary        = "No summary generated."
)

var (
	errNotObject    = errors.New("response is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// rawRecord mirrors the JSON schema requested in the prompt.
type rawRecord struct {
	Summary           string   `mapstructure:"summary"`
	Skills            []string `mapstructure:"skills"`
	ExperienceLevel   string   `mapstructure:"experience_level"`
	YearsOfExperience string   `mapstructure:"years_of_experience"`
	Education         string   `mapstructure:"education"`
	Strengths         []string `mapstructure:"strengths"`
	Weaknesses        []string `mapstructure:"weaknesses"`
	MatchScore        any      `mapstructure:"match_score"`
	Classification    string   `mapstructure:"classification"`
	Recommendation    string   `mapstructure:"recommendation"`
}

// Normalize converts model output into a Record. It never fails: invokeErr or
// unparsable output produce a degraded record. withJob controls whether
// MatchScore is populated.
func Normalize(raw string, invokeErr error, withJob bool) *Record {
	record, _ := normalize(raw, invokeErr, withJob)
	return record
}

// normalize additionally returns the problem found while normalizing, if any.
// A non-nil error with a non-degraded record means some fields fell back to defaults.
func normalize(raw string, invokeErr error, withJob bool) (*Record, error) {
	if invokeErr != nil {
		failure := ai.AsFailure(invokeErr)
		return degraded(apiErrorPrefix+failure.Error(), withJob), invokeErr
	}

	data, err := decodeObject(raw)
	if err != nil {
		return degraded(parseErrorPrefix+err.Error(), withJob), err
	}

	var parsed rawRecord
	decodeErr := decodeFields(data, &parsed)

	record := &Record{
		Summary:           strings.TrimSpace(parsed.Summary),
		Skills:            cleanList(parsed.Skills),
		ExperienceLevel:   ParseExperienceLevel(parsed.ExperienceLevel),
		YearsOfExperience: optional(parsed.YearsOfExperience),
		Education:         optional(parsed.Education),
		Strengths:         cleanList(parsed.Strengths),
		Weaknesses:        cleanList(parsed.Weaknesses),
		Classification:    optional(parsed.Classification),
	}

	if record.Summary == "" {
		record.Summary = noSummary
	}

	if rec, ok := ParseRecommendation(parsed.Recommendation); ok {
		record.Recommendation = &rec
	}

	if withJob {
		score, ok := coerceScore(parsed.MatchScore)
		if !ok && parsed.MatchScore != nil {
			decodeErr = errors.Join(decodeErr, fmt.Errorf("match_score: cannot use %v", parsed.MatchScore))
		}
		score = clampScore(score)
		record.MatchScore = &score
	}

	return record, decodeErr
}

// decodeObject strips code fences and parses the first JSON object found.
func decodeObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	data, err := unmarshalObject(cleaned)
	if err == nil {
		return data, nil
	}

	// Tolerate prose around the object.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, err
	}

	data, innerErr := unmarshalObject(cleaned[start : end+1])
	if innerErr != nil {
		return nil, err
	}
	return data, nil
}

// unmarshalObject keeps numbers as json.Number so that an out-of-range value
// only affects its own field.
func unmarshalObject(s string) (map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(s))
	decoder.UseNumber()

	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	if data == nil {
		return nil, errNotObject
	}
	return data, nil
}

// extractJSON removes a surrounding fenced code block with or without a language tag.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.IndexAny(raw, "\n{["); idx > 0 && isFenceTag(raw[:idx]) {
		raw = raw[idx:]
	}

	if idx := strings.LastIndex(raw, "```"); idx != -1 {
		raw = raw[:idx]
	}

	return strings.TrimSpace(raw)
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '+' {
			return false
		}
	}
	return true
}

func decodeFields(data map[string]any, out *rawRecord) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

func coerceScore(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			f = float64(n)
			break
		}
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = val
	case int:
		return val, true
	case string:
		trimmed := strings.TrimSpace(val)
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, true
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// Bound before converting; clamping to the score range happens later.
	f = math.Max(math.Min(f, math.MaxInt32), math.MinInt32)
	return int(math.Round(f)), true
}

func clampScore(score int) int {
	return min(max(score, minScore), maxScore)
}

func cleanList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
