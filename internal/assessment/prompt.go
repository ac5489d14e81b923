package assessment

import (
	_ "embed"
	"strings"

	"github.com/spigell/candidate-matcher/internal/jobs"
)

//go:embed prompt.md
var promptTemplate string

const fallbackTemplate = "Job:\n{{JOB_TITLE}}\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME_TEXT}}\n\nJSON Response:"

// BuildPrompt renders the assessment request for one résumé and one requisition.
// Blank job fields are rendered as "Not specified".
func BuildPrompt(resumeText string, job *jobs.Requisition) string {
	if job == nil {
		job = &jobs.Requisition{}
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = fallbackTemplate
	}

	r := strings.NewReplacer(
		"{{JOB_TITLE}}", jobs.OrNotSpecified(job.Title),
		"{{JOB_DESCRIPTION}}", jobs.OrNotSpecified(job.Description),
		"{{REQUIRED_SKILLS}}", jobs.OrNotSpecified(job.RequiredSkills),
		"{{PREFERRED_SKILLS}}", jobs.OrNotSpecified(job.PreferredSkills),
		"{{EXPERIENCE_LEVEL}}", jobs.OrNotSpecified(job.ExperienceLevel),
		"{{EDUCATION_REQUIREMENTS}}", jobs.OrNotSpecified(job.EducationRequirements),
		"{{JOB_SITE_ADDRESS}}", jobs.OrNotSpecified(job.JobSiteAddress),
		"{{SECTOR}}", jobs.OrNotSpecified(job.Sector),
		"{{JOB_TYPE}}", jobs.OrNotSpecified(job.JobType),
		"{{SALARY_HOURLY}}", job.Pay(),
		"{{RESUME_TEXT}}", strings.TrimSpace(resumeText),
	)

	return r.Replace(template)
}
