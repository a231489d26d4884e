package models

import (
	"fmt"
	"time"
)

// EmploymentType mirrors the employment_type enum used by the job feed.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FULL_TIME"
	EmploymentPartTime   EmploymentType = "PART_TIME"
	EmploymentFresher    EmploymentType = "FRESHER"
	EmploymentInternship EmploymentType = "INTERNSHIP"
	EmploymentContract   EmploymentType = "CONTRACT"
)

// ParseEmploymentType converts a raw string to an EmploymentType, returning an
// error for unknown values.
func ParseEmploymentType(s string) (EmploymentType, error) {
	et := EmploymentType(s)
	switch et {
	case EmploymentFullTime, EmploymentPartTime, EmploymentFresher, EmploymentInternship, EmploymentContract:
		return et, nil
	}
	return "", fmt.Errorf("unknown employment type %q", s)
}

// JobPosting represents a structured job posting as delivered by the job feed
type JobPosting struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	CompanyName     string           `json:"company_name"`
	Location        string           `json:"location"`
	RequiredSkills  []string         `json:"required_skills"`
	SalaryMin       *int             `json:"salary_min"`
	SalaryMax       *int             `json:"salary_max"`
	SalaryCurrency  string           `json:"salary_currency"`
	EmploymentTypes []EmploymentType `json:"employment_types"`
	Description     string           `json:"description,omitempty"`
	PostedAt        time.Time        `json:"posted_at"`
}
