// Package analysis turns an uploaded resume into a structured analysis record.
package analysis

import "strings"

// ExperienceLevel is the seniority inferred from a resume.
type ExperienceLevel string

const (
	LevelJunior  ExperienceLevel = "Junior"
	LevelMid     ExperienceLevel = "Mid"
	LevelSenior  ExperienceLevel = "Senior"
	LevelLead    ExperienceLevel = "Lead"
	LevelUnknown ExperienceLevel = "Unknown"
)

// ParseExperienceLevel matches s case-insensitively, returning LevelUnknown otherwise.
func ParseExperienceLevel(s string) ExperienceLevel {
	for _, level := range []ExperienceLevel{LevelJunior, LevelMid, LevelSenior, LevelLead} {
		if strings.EqualFold(strings.TrimSpace(s), string(level)) {
			return level
		}
	}
	return LevelUnknown
}

// Recommendation is the hiring action suggested by the model.
type Recommendation string

const (
	RecommendHire      Recommendation = "Hire"
	RecommendInterview Recommendation = "Interview"
	RecommendReject    Recommendation = "Reject"
	RecommendHold      Recommendation = "Hold"
)

// ParseRecommendation matches s case-insensitively.
func ParseRecommendation(s string) (Recommendation, bool) {
	for _, r := range []Recommendation{RecommendHire, RecommendInterview, RecommendReject, RecommendHold} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

// Record is the result of one analysis call. Sequence fields are never nil and
// MatchScore is set if and only if a job description was supplied.
type Record struct {
	Summary           string          `json:"summary"`
	Skills            []string        `json:"skills"`
	ExperienceLevel   ExperienceLevel `json:"experience_level"`
	YearsOfExperience *string         `json:"years_of_experience"`
	Education         *string         `json:"education"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	MatchScore        *int            `json:"match_score"`
	Classification    *string         `json:"classification"`
	Recommendation    *Recommendation `json:"recommendation"`

	// Degraded is set when the record was built from fallback values.
	Degraded bool `json:"degraded"`
}

// Projection is what callers persist on an application or resume.
type Projection struct {
	Score   int    `json:"score"`
	Summary string `json:"analysis_summary"`
}

func (r *Record) Projection() Projection {
	p := Projection{Summary: r.Summary}
	if r.MatchScore != nil {
		p.Score = *r.MatchScore
	}
	return p
}

// SummaryExtractionFailed is the summary of a record whose document yielded no text.
const SummaryExtractionFailed = "Text extraction failed."

// ExtractionFailed reports whether the model was skipped because no text could be read.
func (r *Record) ExtractionFailed() bool {
	return r.Degraded && r.Summary == SummaryExtractionFailed
}

// degraded returns the fallback record used whenever analysis could not complete.
func degraded(summary string, withJob bool) *Record {
	r := &Record{
		Summary:         summary,
		Skills:          []string{},
		ExperienceLevel: LevelUnknown,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Degraded:        true,
	}
	if withJob {
		zero := 0
		r.MatchScore = &zero
	}
	return r
}
