package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk-core/internal/config"
	"jobdesk-core/internal/security"
	"jobdesk-core/pkg/models"
)

type stubOTPStore struct {
	codes map[string]string
}

func (s *stubOTPStore) StoreOTP(_ context.Context, email, code string) error {
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}

func (s *stubOTPStore) CheckOTP(_ context.Context, email, code string) (bool, error) {
	stored, ok := s.codes[email]
	return ok && stored == code, nil
}

type stubAccounts struct{}

func (stubAccounts) GetAccount(context.Context, string) (*models.Account, error) {
	return &models.Account{ID: "user-1", AuthProvider: "local"}, nil
}
func (stubAccounts) UpdateEmail(context.Context, string, string) error    { return nil }
func (stubAccounts) UpdatePassword(context.Context, string, string) error { return nil }

type stubRevoker struct{}

func (stubRevoker) RevokeAll(context.Context, string) error { return nil }

type stubMailer struct{}

func (stubMailer) DeliverOTP(context.Context, string, string) error { return nil }

func newSecurityService(otps *stubOTPStore) *security.Service {
	cfg := &config.Config{}
	cfg.OTP.Digits = 6
	cfg.OTP.TTL = 10 * time.Minute
	cfg.OTP.MaxAttempts = 5
	cfg.OTP.ResendInterval = time.Minute
	return security.NewService(cfg, otps, stubAccounts{}, stubRevoker{}, stubMailer{})
}

func postJSON(handler echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, handler(e.NewContext(req, rec))
}

func TestSendOTPHandler(t *testing.T) {
	otps := &stubOTPStore{}
	handler := SendOTPHandler(newSecurityService(otps))

	rec, err := postJSON(handler, `{"user_id":"user-1","email":"User@Example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.SecurityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)

	// The code was issued for the normalized address.
	assert.Len(t, otps.codes["user@example.com"], 6)
}

func TestSendOTPHandlerRequiresUserID(t *testing.T) {
	otps := &stubOTPStore{}
	handler := SendOTPHandler(newSecurityService(otps))

	rec, err := postJSON(handler, `{"email":"user@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, otps.codes)
}

func TestVerifyOTPHandler(t *testing.T) {
	otps := &stubOTPStore{codes: map[string]string{"user@example.com": "123456"}}
	handler := VerifyOTPHandler(newSecurityService(otps))

	// Wrong code is a 422 outcome, not a transport error.
	rec, err := postJSON(handler, `{"user_id":"user-1","email":"user@example.com","code":"000000"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp models.SecurityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, security.MsgWrongCode, resp.Message)

	rec, err = postJSON(handler, `{"user_id":"user-1","email":"user@example.com","code":"123456"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyOTPHandlerRequiresUserID(t *testing.T) {
	handler := VerifyOTPHandler(newSecurityService(&stubOTPStore{}))

	rec, err := postJSON(handler, `{"email":"user@example.com","code":"123456"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
