package models

// MatchResult is the per-(posting, profile) score breakdown. Produced fresh on
// every computation and never mutated afterwards.
type MatchResult struct {
	JobID           string   `json:"job_id,omitempty"`
	OverallScore    int      `json:"overall_score"`
	SkillsScore     float64  `json:"skills_score"`
	SalaryScore     float64  `json:"salary_score"`
	LocationScore   float64  `json:"location_score"`
	EmploymentScore float64  `json:"employment_score"`
	TitleScore      float64  `json:"title_score"`
	MatchedSkills   []string `json:"matched_skills"`
}

// MatchAlert is the payload pushed to premium subscribers when a new posting
// clears their score threshold.
type MatchAlert struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
	JobID     string `json:"job_id"`
	JobTitle  string `json:"job_title"`
	Company   string `json:"company"`
	Score     int    `json:"score"`
}
