package security

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"jobdesk-core/pkg/utils"
)

// PasswordSpecials is the accepted special-character set for new passwords.
const PasswordSpecials = "@#$%^&+=!"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// MsgPasswordChangeFailed is the fallback message for unrecognized backend
// failures during a password change.
const MsgPasswordChangeFailed = "Failed to change password"

// PasswordChanger is the backend collaborator for the password-change flow.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID, current, newPassword string) error
}

// ValidatePassword checks the password policy: minimum length, at least one
// uppercase letter, one lowercase letter, one digit, and one special
// character from PasswordSpecials.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return errors.New("password must contain an uppercase letter")
	case !lower:
		return errors.New("password must contain a lowercase letter")
	case !digit:
		return errors.New("password must contain a digit")
	case !special:
		return errors.New("password must contain a special character (" + PasswordSpecials + ")")
	}
	return nil
}

// PasswordFlow is the single-step password-change form. Unlike the
// email-change flow it involves no OTP: local validation, then one backend
// call. Success implies the backend revoked all sessions, so the caller must
// follow up with the logout side effect.
type PasswordFlow struct {
	mu      sync.Mutex
	changer PasswordChanger
	userID  string

	submitting  bool
	submitError string
	done        bool
	epoch       uint64
}

// NewPasswordFlow creates a password-change flow for the given account.
func NewPasswordFlow(changer PasswordChanger, userID string) *PasswordFlow {
	return &PasswordFlow{changer: changer, userID: userID}
}

// SubmitError returns the current submission error, if any.
func (f *PasswordFlow) SubmitError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitError
}

// Done reports whether the change was applied.
func (f *PasswordFlow) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Reset discards all in-progress state.
func (f *PasswordFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.submitting = false
	f.submitError = ""
	f.done = false
}

// Submit validates the form locally and applies the change through the
// backend. Validation failures never reach the network.
func (f *PasswordFlow) Submit(ctx context.Context, current, newPassword, confirm string) error {
	if current == "" {
		return f.fail(errors.New("current password is required"))
	}
	if err := ValidatePassword(newPassword); err != nil {
		return f.fail(err)
	}
	if newPassword != confirm {
		return f.fail(errors.New("password confirmation does not match"))
	}

	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFlowDone
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.submitting = true
	f.submitError = ""
	epoch := f.epoch
	userID := f.userID
	f.mu.Unlock()

	err := f.changer.ChangePassword(ctx, userID, current, newPassword)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return nil
	}
	f.submitting = false
	if err != nil {
		var custom *utils.CustomError
		if errors.As(err, &custom) {
			f.submitError = custom.Error()
		} else {
			f.submitError = MsgPasswordChangeFailed
		}
		return err
	}
	f.done = true
	return nil
}

func (f *PasswordFlow) fail(err error) error {
	f.mu.Lock()
	f.submitError = err.Error()
	f.mu.Unlock()
	return err
}
