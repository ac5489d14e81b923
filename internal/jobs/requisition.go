package jobs

import (
	"fmt"
	"strings"
)

const (
	StatusActive = "active"

	notSpecified = "Not specified"
)

type Requisitions struct {
	Items []*Requisition
}

// Requisition is an open position as published by the job board.
type Requisition struct {
	ID                    string  `json:"id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description,omitempty"`
	RequiredSkills        string  `json:"required_skills,omitempty"`
	PreferredSkills       string  `json:"preferred_skills,omitempty"`
	ExperienceLevel       string  `json:"experience_level,omitempty"`
	EducationRequirements string  `json:"education_requirements,omitempty"`
	JobSiteAddress        string  `json:"job_site_address,omitempty"`
	Sector                string  `json:"sector,omitempty"`
	JobType               string  `json:"job_type,omitempty"`
	SalaryHourly          float64 `json:"salary_hourly,omitempty"`
	Status                string  `json:"status,omitempty"`
}

// IsActive reports whether the requisition accepts candidates. A missing status counts as active.
func (r *Requisition) IsActive() bool {
	status := strings.ToLower(strings.TrimSpace(r.Status))
	return status == "" || status == StatusActive
}

// Validate checks the fields every matching run relies on.
func (r *Requisition) Validate() error {
	if r == nil {
		return fmt.Errorf("requisition is nil")
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("requisition %q has no id", r.Title)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("requisition %s has no title", r.ID)
	}
	return nil
}

// Pay renders the hourly rate for prompts and reports.
func (r *Requisition) Pay() string {
	if r.SalaryHourly <= 0 {
		return notSpecified
	}
	return fmt.Sprintf("%.2f", r.SalaryHourly)
}

func (v *Requisitions) Len() int {
	return len(v.Items)
}

// Active returns a new collection holding only active requisitions, in catalog order.
func (v *Requisitions) Active() *Requisitions {
	active := &Requisitions{}
	for _, r := range v.Items {
		if r != nil && r.IsActive() {
			active.Items = append(active.Items, r)
		}
	}
	return active
}

func (v *Requisitions) FindByID(id string) *Requisition {
	for _, r := range v.Items {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}

func (v *Requisitions) IDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, r := range v.Items {
		if r != nil {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Only keeps the requisitions whose IDs are listed. Unknown IDs are returned.
func (v *Requisitions) Only(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	var unknown []string
	kept := make([]*Requisition, 0, len(ids))
	for _, id := range ids {
		r := v.FindByID(id)
		if r == nil {
			unknown = append(unknown, id)
			continue
		}
		kept = append(kept, r)
	}
	v.Items = kept
	return unknown
}

// ReportBySector groups requisition titles by sector for the catalog overview.
func (v *Requisitions) ReportBySector() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, r := range v.Items {
		if r == nil {
			continue
		}
		key := strings.TrimSpace(r.Sector)
		if key == "" {
			key = notSpecified
		}
		report[key] = append(report[key], map[string]string{
			"id":     r.ID,
			"title":  r.Title,
			"type":   OrNotSpecified(r.JobType),
			"site":   OrNotSpecified(r.JobSiteAddress),
			"pay":    r.Pay(),
			"status": OrNotSpecified(r.Status),
		})
	}
	return report
}

// OrNotSpecified returns the trimmed value, or "Not specified" when it is blank.
func OrNotSpecified(value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return notSpecified
}
