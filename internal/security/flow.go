// Package security implements the account-security flows: the multi-step
// email-change machine gated by OTP verification, the single-step
// password-change flow, and the mutual exclusion between the two.
//
// Email-change step graph:
//
//	VERIFY_CURRENT(1) ──► ENTER_NEW(2) ──► VERIFY_NEW(3) ──► CONFIRM_PASSWORD(4) ──► exit
//	       ▲                   │                 │                   │
//	       └───────────────────┴─────────────────┴───────────────────┘  (cancel / re-lock)
//
// Steps advance strictly forward; the only backward transition is a full
// reset to step 1.
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"jobdesk-core/pkg/utils"
)

// Step identifies the active step of the email-change flow.
type Step int

const (
	StepVerifyCurrent Step = iota + 1
	StepEnterNew
	StepVerifyNew
	StepConfirmPassword
)

// String returns the step name used in logs and error messages.
func (s Step) String() string {
	switch s {
	case StepVerifyCurrent:
		return "VERIFY_CURRENT"
	case StepEnterNew:
		return "ENTER_NEW"
	case StepVerifyNew:
		return "VERIFY_NEW"
	case StepConfirmPassword:
		return "CONFIRM_PASSWORD"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// OTPCodeLength is the required length of a submitted one-time code.
const OTPCodeLength = 6

// Fallback messages for unrecognized backend failures.
const (
	MsgSendFailed   = "Failed to send code"
	MsgVerifyFailed = "Failed to verify code"
	MsgWrongCode    = "Incorrect verification code"
	MsgChangeFailed = "Failed to change email"
)

var (
	// ErrInvalidStep is returned when an action does not belong to the
	// flow's current step.
	ErrInvalidStep = errors.New("action not valid for current step")

	// ErrBusy is returned while a mutating call is already in flight for
	// this flow.
	ErrBusy = errors.New("another request is in flight")

	// ErrCodeLength is returned for submitted codes that are not exactly
	// six digits.
	ErrCodeLength = errors.New("code must be 6 digits")

	// ErrFlowDone is returned once the flow has exited successfully.
	ErrFlowDone = errors.New("flow already completed")
)

// Verifier is the backend collaborator contract consumed by the flows.
// Implementations live in this package (Service) and in test fakes.
type Verifier interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (bool, error)
	ChangeEmail(ctx context.Context, userID, newEmail, password string) error
}

// Flow is the email-change state machine for one security-settings session.
// It is safe for concurrent use; collaborator calls are made without holding
// the lock, and results arriving after a Reset are discarded via the epoch
// counter.
type Flow struct {
	mu       sync.Mutex
	verifier Verifier

	userID       string
	currentEmail string

	step                 Step
	currentEmailVerified bool
	newEmailVerified     bool
	pendingNewEmail      string
	otpError             string
	submitError          string
	done                 bool

	otpSending   bool
	otpVerifying bool
	submitting   bool

	// codeAtSix records whether the code entry is currently at six digits;
	// auto-verify fires only on the transition into that state.
	codeAtSix bool

	// epoch is bumped on every reset; in-flight continuations compare it to
	// decide whether their result still belongs to the live flow.
	epoch uint64
}

// NewFlow creates an email-change flow at step VERIFY_CURRENT.
func NewFlow(verifier Verifier, userID, currentEmail string) *Flow {
	return &Flow{
		verifier:     verifier,
		userID:       userID,
		currentEmail: currentEmail,
		step:         StepVerifyCurrent,
	}
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// CurrentEmailVerified reports whether the current address passed OTP.
func (f *Flow) CurrentEmailVerified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentEmailVerified
}

// NewEmailVerified reports whether the pending address passed OTP.
func (f *Flow) NewEmailVerified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newEmailVerified
}

// PendingNewEmail returns the address awaiting verification, if any.
func (f *Flow) PendingNewEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingNewEmail
}

// OTPError returns the current flow-level OTP error message, if any.
func (f *Flow) OTPError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otpError
}

// SubmitError returns the final-step submission error, if any.
func (f *Flow) SubmitError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitError
}

// Done reports whether the flow exited successfully.
func (f *Flow) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Reset discards all flow state and returns to step 1. In-flight collaborator
// results are abandoned: their continuations observe the epoch bump and drop
// the outcome.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *Flow) reset() {
	f.epoch++
	f.step = StepVerifyCurrent
	f.currentEmailVerified = false
	f.newEmailVerified = false
	f.pendingNewEmail = ""
	f.otpError = ""
	f.submitError = ""
	f.done = false
	f.otpSending = false
	f.otpVerifying = false
	f.submitting = false
	f.codeAtSix = false
}

// RequestCurrentOTP asks the backend to deliver a code to the current address.
// The flow stays on step 1 regardless of outcome.
func (f *Flow) RequestCurrentOTP(ctx context.Context) error {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFlowDone
	}
	if f.step != StepVerifyCurrent {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if f.otpSending {
		f.mu.Unlock()
		return ErrBusy
	}
	f.otpSending = true
	f.otpError = ""
	epoch := f.epoch
	email := f.currentEmail
	f.mu.Unlock()

	err := f.verifier.SendOTP(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return nil // flow was reset while the call was in flight
	}
	f.otpSending = false
	if err != nil {
		f.otpError = sendFailureMessage(err)
	}
	return err
}

// InputCode feeds the code-entry text into the flow. Reaching exactly six
// numeric digits triggers verification once; edits that keep the entry at six
// digits (paste-replace) do not re-trigger. Editing below six digits re-arms
// the trigger.
func (f *Flow) InputCode(ctx context.Context, text string) error {
	f.mu.Lock()
	isSix := len(text) == OTPCodeLength && utils.IsDigits(text)
	fire := isSix && !f.codeAtSix
	f.codeAtSix = isSix
	f.mu.Unlock()

	if !fire {
		return nil
	}
	return f.SubmitCode(ctx, text)
}

// SubmitCode verifies a six-digit code for the step's address: the current
// email on step 1, the pending new email on step 3. Success advances the
// flow; failure records an OTP error and stays on the step for retry.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFlowDone
	}
	if f.step != StepVerifyCurrent && f.step != StepVerifyNew {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if len(code) != OTPCodeLength {
		f.mu.Unlock()
		return ErrCodeLength
	}
	if f.otpVerifying {
		f.mu.Unlock()
		return ErrBusy
	}
	f.otpVerifying = true
	f.otpError = ""
	epoch := f.epoch
	step := f.step
	email := f.currentEmail
	if step == StepVerifyNew {
		email = f.pendingNewEmail
	}
	f.mu.Unlock()

	ok, err := f.verifier.VerifyOTP(ctx, email, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return nil
	}
	f.otpVerifying = false

	switch {
	case err != nil:
		f.otpError = MsgVerifyFailed
		return err
	case !ok:
		f.otpError = MsgWrongCode
		return nil
	case step == StepVerifyCurrent:
		f.currentEmailVerified = true
		f.step = StepEnterNew
	default:
		f.newEmailVerified = true
		f.step = StepConfirmPassword
	}
	return nil
}

// EnterNewEmail records the replacement address and requests a code for it.
// The address must pass the local format gate before any call is made; the
// flow advances to VERIFY_NEW only when the send succeeds.
func (f *Flow) EnterNewEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		f.mu.Lock()
		if f.step == StepEnterNew {
			f.otpError = err.Error()
		}
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFlowDone
	}
	if f.step != StepEnterNew {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if f.otpSending {
		f.mu.Unlock()
		return ErrBusy
	}
	f.otpSending = true
	f.otpError = ""
	epoch := f.epoch
	f.mu.Unlock()

	err := f.verifier.SendOTP(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != epoch {
		return nil
	}
	f.otpSending = false
	if err != nil {
		f.otpError = sendFailureMessage(err)
		return err
	}
	f.pendingNewEmail = email
	f.step = StepVerifyNew
	return nil
}

// ConfirmPassword performs the final step: the backend re-checks the password
// and applies the email change. On success the flow exits; the caller is
// responsible for the logout side effect (the backend has already revoked the
// sessions).
func (f *Flow) ConfirmPassword(ctx context.Context, password string) error {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFlowDone
	}
	if f.step != StepConfirmPassword {
		f.mu.Unlock()
		return ErrInvalidStep
	}
	if password == "" {
		f.submitError = "Password is required"
		f.mu.Unlock()
		return errors.New("password is required")
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.submitting = true
	f.submitError = ""
	epoch := f.epoch
	userID := f.userID
	newEmail := f.pendingNewEmail
	f.mu.Unlock()

	err := f.verifier.ChangeEmail(ctx, userID, newEmail, password)

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
			f.submitError = MsgChangeFailed
		}
		return err
	}
	f.done = true
	return nil
}

func sendFailureMessage(err error) string {
	var custom *utils.CustomError
	if errors.As(err, &custom) {
		return custom.Error()
	}
	return MsgSendFailed
}

// ValidateEmail applies the local format gate: an @ separator, a TLD-like
// suffix of at least two characters, and an overall cap of 254 characters.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 254 {
		return errors.New("email must be at most 254 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("email must contain a local part and a domain")
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || len(domain)-dot-1 < 2 {
		return errors.New("email domain must end in a valid suffix")
	}
	return nil
}
