package analysis

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var promptTemplate string

const (
	matchTask = "[Job Description]\n{{JOB_DESCRIPTION}}\n\n" +
		"Compare the resume against the job description. Be strict with the match_score: " +
		"it must be an integer between 0 and 100."
	classifyTask = "No job description is provided. Analyze this resume for general profile " +
		"classification and quality. Set match_score to null."
)

// BuildPrompt composes the model instruction. It is deterministic and performs no I/O.
// A blank jobDescription selects general classification.
func BuildPrompt(resumeText, jobDescription string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume Text:\n{{RESUME_TEXT}}\n\n{{TASK}}"
	}

	task := classifyTask
	if jd := strings.TrimSpace(jobDescription); jd != "" {
		task = strings.ReplaceAll(matchTask, "{{JOB_DESCRIPTION}}", jd)
	}

	// TASK goes in first so that resume text containing placeholders is left alone.
	prompt := strings.ReplaceAll(template, "{{TASK}}", task)
	prompt = strings.Replace(prompt, "{{RESUME_TEXT}}", strings.TrimSpace(resumeText), 1)
	return strings.TrimSpace(prompt)
}
