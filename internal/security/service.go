package security

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"jobdesk-core/internal/config"
	"jobdesk-core/internal/logging"
	"jobdesk-core/pkg/models"
	"jobdesk-core/pkg/utils"
)

// ErrWrongPassword is returned when the submitted password does not match the
// account's current credential.
var ErrWrongPassword = utils.NewBadRequestError("Incorrect password")

// OTPStore persists issued codes. Satisfied by utils.RedisClient.
type OTPStore interface {
	StoreOTP(ctx context.Context, email, code string) error
	CheckOTP(ctx context.Context, email, code string) (bool, error)
}

// AccountStore is the account persistence surface the service needs.
type AccountStore interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	UpdateEmail(ctx context.Context, userID, email string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionRevoker invalidates all of a user's sessions. Credential changes
// force a re-login, so every successful change calls this.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// Mailer delivers one-time codes. The default implementation only logs; real
// delivery is owned by the mail relay, which is outside this service.
type Mailer interface {
	DeliverOTP(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the application log instead of delivering them.
type LogMailer struct {
	logger logging.Logger
}

// NewLogMailer returns a Mailer that logs instead of sending.
func NewLogMailer() *LogMailer {
	return &LogMailer{logger: logging.GetGlobalLogger()}
}

// DeliverOTP logs the code at debug level.
func (m *LogMailer) DeliverOTP(_ context.Context, email, code string) error {
	m.logger.Debug("OTP issued", map[string]interface{}{
		"email": email,
		"code":  code,
	})
	return nil
}

// Service is the production Verifier and PasswordChanger: codes live in the
// OTP store with a TTL and attempt budget, account changes go through the
// account store with bcrypt verification, and every successful credential
// change revokes the user's sessions.
type Service struct {
	cfg      *config.Config
	otps     OTPStore
	accounts AccountStore
	sessions SessionRevoker
	mailer   Mailer
	logger   logging.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // per-address send throttle
}

// NewService returns a configured security service.
func NewService(cfg *config.Config, otps OTPStore, accounts AccountStore, sessions SessionRevoker, mailer Mailer) *Service {
	return &Service{
		cfg:      cfg,
		otps:     otps,
		accounts: accounts,
		sessions: sessions,
		mailer:   mailer,
		logger:   logging.GetGlobalLogger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// allowSend enforces the per-address resend interval.
func (s *Service) allowSend(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[email]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(s.cfg.OTP.ResendInterval), 1)
		s.limiters[email] = limiter
	}
	return limiter.Allow()
}

// generateCode produces a uniformly random numeric code of the configured
// length.
func (s *Service) generateCode() (string, error) {
	digits := s.cfg.OTP.Digits
	if digits <= 0 {
		digits = OTPCodeLength
	}

	var sb strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate OTP digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// SendOTP issues a fresh code for the address and hands it to the mailer.
// Sends are throttled per address; a throttled request is an error the flow
// surfaces without burning the previous code.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if !s.allowSend(email) {
		return utils.NewRateLimitError("please wait before requesting another code")
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}
	if err := s.otps.StoreOTP(ctx, email, code); err != nil {
		return fmt.Errorf("store OTP: %w", err)
	}
	if err := s.mailer.DeliverOTP(ctx, email, code); err != nil {
		return fmt.Errorf("deliver OTP: %w", err)
	}

	s.logger.Info("OTP sent", map[string]interface{}{"email": email})
	return nil
}

// VerifyOTP checks a submitted code. A consumed, expired, or exhausted code
// verifies as false without error.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ok, err := s.otps.CheckOTP(ctx, email, code)
	if err != nil {
		return false, fmt.Errorf("check OTP: %w", err)
	}
	return ok, nil
}

// ChangeEmail applies the email change after re-verifying the password. SSO
// accounts are rejected by policy; sessions are revoked on success so the
// forced re-login is real.
func (s *Service) ChangeEmail(ctx context.Context, userID, newEmail, password string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if err := ValidateEmail(newEmail); err != nil {
		return err
	}

	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if account.IsSSO() {
		return ErrSSOManaged
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return ErrWrongPassword
	}

	if err := s.accounts.UpdateEmail(ctx, userID, newEmail); err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke sessions after email change", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	s.logger.Info("Email changed", map[string]interface{}{"user_id": userID})
	return nil
}

// ChangePassword applies the password change. The policy is re-checked here
// so the invariant holds even for callers that skip the client-side form.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if account.IsSSO() {
		return ErrSSOManaged
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke sessions after password change", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	s.logger.Info("Password changed", map[string]interface{}{"user_id": userID})
	return nil
}
