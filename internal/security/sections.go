package security

import (
	"errors"
	"sync"

	"jobdesk-core/pkg/models"
)

// ErrSSOManaged is returned when an SSO-managed account attempts to unlock
// either security section.
var ErrSSOManaged = errors.New("credentials are managed by the identity provider")

// Sections enforces the one-unlocked-section invariant over the password and
// email flows. Unlocking one section locks the other and discards its
// in-progress state. The SSO gate is evaluated once, at construction.
type Sections struct {
	mu sync.Mutex

	sso     bool
	account models.Account

	passwordLocked bool
	emailLocked    bool

	emailFlow    *Flow
	passwordFlow *PasswordFlow

	verifier Verifier
	changer  PasswordChanger
}

// NewSections creates the security-settings section pair for an account.
// Both sections start locked.
func NewSections(account models.Account, verifier Verifier, changer PasswordChanger) *Sections {
	return &Sections{
		sso:            account.IsSSO(),
		account:        account,
		passwordLocked: true,
		emailLocked:    true,
		verifier:       verifier,
		changer:        changer,
	}
}

// SSOManaged reports whether both sections are permanently disabled.
func (s *Sections) SSOManaged() bool {
	return s.sso
}

// PasswordLocked reports the password section's lock state.
func (s *Sections) PasswordLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwordLocked
}

// EmailLocked reports the email section's lock state.
func (s *Sections) EmailLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailLocked
}

// EmailFlow returns the active email-change flow, or nil while the section is
// locked.
func (s *Sections) EmailFlow() *Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailFlow
}

// PasswordFlow returns the active password flow, or nil while the section is
// locked.
func (s *Sections) PasswordFlow() *PasswordFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwordFlow
}

// UnlockEmail opens the email-change section with a fresh flow at step 1,
// force-locking the password section and discarding its form state.
func (s *Sections) UnlockEmail() (*Flow, error) {
	if s.sso {
		return nil, ErrSSOManaged
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockPassword()
	s.emailLocked = false
	s.emailFlow = NewFlow(s.verifier, s.account.ID, s.account.Email)
	return s.emailFlow, nil
}

// UnlockPassword opens the password section, force-locking the email section
// and discarding any OTP flow in progress.
func (s *Sections) UnlockPassword() (*PasswordFlow, error) {
	if s.sso {
		return nil, ErrSSOManaged
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockEmail()
	s.passwordLocked = false
	s.passwordFlow = NewPasswordFlow(s.changer, s.account.ID)
	return s.passwordFlow, nil
}

// Lock closes both sections and discards all in-progress state. Used on
// explicit cancel and on navigation away.
func (s *Sections) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockPassword()
	s.lockEmail()
}

func (s *Sections) lockPassword() {
	if s.passwordFlow != nil {
		s.passwordFlow.Reset()
		s.passwordFlow = nil
	}
	s.passwordLocked = true
}

func (s *Sections) lockEmail() {
	if s.emailFlow != nil {
		s.emailFlow.Reset()
		s.emailFlow = nil
	}
	s.emailLocked = true
}
