package models

import "time"

// MatchResponse is the response for ad-hoc and stored-profile scoring.
type MatchResponse struct {
	Success   bool          `json:"success"`
	Result    *MatchResult  `json:"result,omitempty"`
	Results   []MatchResult `json:"results,omitempty"`
	RequestID string        `json:"request_id"`
}

// SecurityResponse is the uniform response shape of all security endpoints.
// Message carries the user-facing outcome; IsSSOUser flags policy rejection.
type SecurityResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	IsSSOUser bool   `json:"is_sso_user,omitempty"`
	RequestID string `json:"request_id"`
}

// UnseenResponse reports the poll-and-check notification count for free
// accounts.
type UnseenResponse struct {
	UserID    string    `json:"user_id"`
	Unseen    int64     `json:"unseen"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
