package models

// MatchRequest is the payload for ad-hoc scoring of a posting against a profile
type MatchRequest struct {
	Posting JobPosting    `json:"posting" validate:"required"`
	Profile SearchProfile `json:"profile" validate:"required"`
}

// SendOTPRequest asks for a one-time code to be delivered to an address.
type SendOTPRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required"`
}

// VerifyOTPRequest submits a code for the address it was sent to.
type VerifyOTPRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

// ChangeEmailRequest is the final confirm-password submission of the
// email-change flow. Both OTP verifications must already have succeeded.
type ChangeEmailRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	NewEmail string `json:"new_email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the single-step password-change submission.
type ChangePasswordRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
