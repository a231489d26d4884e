package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobdesk-core/internal/config"
	"jobdesk-core/pkg/models"
	"jobdesk-core/pkg/utils"
)

type memOTPStore struct {
	codes     map[string]string
	storeErr  error
	lastEmail string
}

func (s *memOTPStore) StoreOTP(_ context.Context, email, code string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	s.lastEmail = email
	return nil
}

func (s *memOTPStore) CheckOTP(_ context.Context, email, code string) (bool, error) {
	stored, ok := s.codes[email]
	if !ok || stored != code {
		return false, nil
	}
	delete(s.codes, email)
	return true, nil
}

type memAccountStore struct {
	account           *models.Account
	updatedEmail      string
	updatedHash       string
	updateEmailErr    error
	updatePasswordErr error
}

func (s *memAccountStore) GetAccount(context.Context, string) (*models.Account, error) {
	if s.account == nil {
		return nil, errors.New("account not found")
	}
	return s.account, nil
}

func (s *memAccountStore) UpdateEmail(_ context.Context, _, email string) error {
	if s.updateEmailErr != nil {
		return s.updateEmailErr
	}
	s.updatedEmail = email
	return nil
}

func (s *memAccountStore) UpdatePassword(_ context.Context, _, hash string) error {
	if s.updatePasswordErr != nil {
		return s.updatePasswordErr
	}
	s.updatedHash = hash
	return nil
}

type memRevoker struct {
	revoked []string
}

func (r *memRevoker) RevokeAll(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type memMailer struct {
	delivered map[string]string
}

func (m *memMailer) DeliverOTP(_ context.Context, email, code string) error {
	if m.delivered == nil {
		m.delivered = make(map[string]string)
	}
	m.delivered[email] = code
	return nil
}

func serviceConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OTP.Digits = 6
	cfg.OTP.TTL = 10 * time.Minute
	cfg.OTP.MaxAttempts = 5
	cfg.OTP.ResendInterval = time.Minute
	return cfg
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func localServiceAccount(t *testing.T) *models.Account {
	return &models.Account{
		ID:           "user-1",
		Email:        "old@example.com",
		PasswordHash: hashOf(t, "correct-pass"),
		AuthProvider: "local",
	}
}

func TestSendOTPGeneratesAndDelivers(t *testing.T) {
	ctx := context.Background()
	otps := &memOTPStore{}
	mailer := &memMailer{}
	svc := NewService(serviceConfig(), otps, &memAccountStore{}, &memRevoker{}, mailer)

	require.NoError(t, svc.SendOTP(ctx, "User@Example.com"))

	// The address is normalized, the stored and delivered codes agree, and the
	// code is six numeric digits.
	code := otps.codes["user@example.com"]
	require.NotEmpty(t, code)
	assert.Equal(t, code, mailer.delivered["user@example.com"])
	assert.Len(t, code, 6)
	assert.True(t, utils.IsDigits(code))
}

func TestSendOTPRejectsInvalidAddress(t *testing.T) {
	ctx := context.Background()
	otps := &memOTPStore{}
	svc := NewService(serviceConfig(), otps, &memAccountStore{}, &memRevoker{}, &memMailer{})

	assert.Error(t, svc.SendOTP(ctx, "not-an-email"))
	assert.Empty(t, otps.codes)
}

func TestSendOTPThrottlesResends(t *testing.T) {
	ctx := context.Background()
	otps := &memOTPStore{}
	svc := NewService(serviceConfig(), otps, &memAccountStore{}, &memRevoker{}, &memMailer{})

	require.NoError(t, svc.SendOTP(ctx, "user@example.com"))

	err := svc.SendOTP(ctx, "user@example.com")
	require.Error(t, err)
	var custom *utils.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, 429, custom.Code)

	// Other addresses are unaffected.
	assert.NoError(t, svc.SendOTP(ctx, "other@example.com"))
}

func TestVerifyOTPConsumesCode(t *testing.T) {
	ctx := context.Background()
	otps := &memOTPStore{}
	svc := NewService(serviceConfig(), otps, &memAccountStore{}, &memRevoker{}, &memMailer{})

	require.NoError(t, svc.SendOTP(ctx, "user@example.com"))
	code := otps.codes["user@example.com"]

	ok, err := svc.VerifyOTP(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	// A consumed code verifies false, not an error.
	ok, err = svc.VerifyOTP(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeEmail(t *testing.T) {
	ctx := context.Background()
	accounts := &memAccountStore{account: localServiceAccount(t)}
	revoker := &memRevoker{}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, revoker, &memMailer{})

	require.NoError(t, svc.ChangeEmail(ctx, "user-1", "New@Example.com", "correct-pass"))
	assert.Equal(t, "new@example.com", accounts.updatedEmail)
	assert.Equal(t, []string{"user-1"}, revoker.revoked, "email change must revoke all sessions")
}

func TestChangeEmailWrongPassword(t *testing.T) {
	ctx := context.Background()
	accounts := &memAccountStore{account: localServiceAccount(t)}
	revoker := &memRevoker{}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, revoker, &memMailer{})

	err := svc.ChangeEmail(ctx, "user-1", "new@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Empty(t, accounts.updatedEmail)
	assert.Empty(t, revoker.revoked)
}

func TestChangeEmailSSOAccount(t *testing.T) {
	ctx := context.Background()
	account := localServiceAccount(t)
	account.AuthProvider = "google"
	accounts := &memAccountStore{account: account}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, &memRevoker{}, &memMailer{})

	err := svc.ChangeEmail(ctx, "user-1", "new@example.com", "correct-pass")
	assert.ErrorIs(t, err, ErrSSOManaged)
	assert.Empty(t, accounts.updatedEmail)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	accounts := &memAccountStore{account: localServiceAccount(t)}
	revoker := &memRevoker{}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, revoker, &memMailer{})

	require.NoError(t, svc.ChangePassword(ctx, "user-1", "correct-pass", "Str0ng@pass"))

	// The stored hash verifies against the new password and the old sessions
	// are dead.
	require.NotEmpty(t, accounts.updatedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(accounts.updatedHash), []byte("Str0ng@pass")))
	assert.Equal(t, []string{"user-1"}, revoker.revoked)
}

func TestChangePasswordEnforcesPolicy(t *testing.T) {
	ctx := context.Background()
	accounts := &memAccountStore{account: localServiceAccount(t)}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, &memRevoker{}, &memMailer{})

	// The policy holds server-side even when the client-side form is skipped.
	assert.Error(t, svc.ChangePassword(ctx, "user-1", "correct-pass", "weak"))
	assert.Empty(t, accounts.updatedHash)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	ctx := context.Background()
	accounts := &memAccountStore{account: localServiceAccount(t)}
	svc := NewService(serviceConfig(), &memOTPStore{}, accounts, &memRevoker{}, &memMailer{})

	err := svc.ChangePassword(ctx, "user-1", "wrong-pass", "Str0ng@pass")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Empty(t, accounts.updatedHash)
}
