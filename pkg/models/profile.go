package models

import "time"

// Limits enforced when a search profile is saved. The scoring model tolerates
// longer lists; these caps are applied at the API boundary.
const (
	MaxJobTitles       = 10
	MaxTechnicalSkills = 15
)

// SearchProfile holds a user's job-matching preferences.
type SearchProfile struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	JobTitles       []string         `json:"job_titles" validate:"max=10,dive,max=100"`
	TechnicalSkills []string         `json:"technical_skills" validate:"max=15,dive,max=100"`
	EmploymentTypes []EmploymentType `json:"employment_types"` // empty = any
	Country         string           `json:"country"`
	MinSalary       *int             `json:"min_salary"`
	Active          bool             `json:"active"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Account represents the applicant account as seen by the security flows.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AuthProvider string    `json:"auth_provider"` // "local" or "google"
	Premium      bool      `json:"premium"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsSSO reports whether the account is managed by an external identity
// provider. SSO accounts cannot change email or password locally.
func (a *Account) IsSSO() bool {
	return a.AuthProvider != "" && a.AuthProvider != "local"
}
