package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobdesk-core/internal/logging"
	"jobdesk-core/internal/security"
	"jobdesk-core/pkg/models"
	"jobdesk-core/pkg/utils"
)

// bindAndValidate parses the request body and runs struct validation,
// answering the request itself on failure.
func bindAndValidate(c echo.Context, requestID string, req interface{}) bool {
	logger := logging.LogWithRequestID(requestID)

	if err := c.Bind(req); err != nil {
		logger.WithField("error", err.Error()).Error("Failed to bind request")
		_ = c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "invalid_request",
			Message:   "Invalid request format",
			RequestID: requestID,
			Timestamp: time.Now(),
		})
		return false
	}
	if err := validate.Struct(req); err != nil {
		logger.WithField("error", err.Error()).Error("Request validation failed")
		_ = c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "validation_failed",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
		return false
	}
	return true
}

// securityFailure maps collaborator errors onto the uniform security
// response, keeping HTTP codes aligned with the error taxonomy.
func securityFailure(c echo.Context, requestID, fallback string, err error) error {
	resp := models.SecurityResponse{
		Success:   false,
		Message:   fallback,
		RequestID: requestID,
	}
	code := http.StatusUnprocessableEntity

	var custom *utils.CustomError
	switch {
	case errors.Is(err, security.ErrSSOManaged):
		resp.Message = security.ErrSSOManaged.Error()
		resp.IsSSOUser = true
		code = http.StatusForbidden
	case errors.As(err, &custom):
		resp.Message = custom.Error()
		code = custom.Code
	}

	return c.JSON(code, resp)
}

// SendOTPHandler issues a one-time code for an address in the email-change
// flow. Used for both the current-address (step 1) and new-address (step 2)
// sends.
func SendOTPHandler(svc *security.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.SendOTPRequest
		if !bindAndValidate(c, requestID, &req) {
			return nil
		}

		if err := svc.SendOTP(c.Request().Context(), req.Email); err != nil {
			logger.WithFields(map[string]interface{}{
				"user_id": req.UserID,
				"error":   err.Error(),
			}).Error("OTP send failed")
			return securityFailure(c, requestID, security.MsgSendFailed, err)
		}

		logger.WithField("user_id", req.UserID).Info("OTP send requested")

		return c.JSON(http.StatusOK, models.SecurityResponse{
			Success:   true,
			Message:   "Verification code sent",
			RequestID: requestID,
		})
	}
}

// VerifyOTPHandler checks a submitted code against the address it was issued
// for. A wrong code is a normal outcome, not a transport error.
func VerifyOTPHandler(svc *security.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.VerifyOTPRequest
		if !bindAndValidate(c, requestID, &req) {
			return nil
		}

		ok, err := svc.VerifyOTP(c.Request().Context(), req.Email, req.Code)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"user_id": req.UserID,
				"error":   err.Error(),
			}).Error("OTP verification failed")
			return securityFailure(c, requestID, security.MsgVerifyFailed, err)
		}
		if !ok {
			logger.WithField("user_id", req.UserID).Warn("OTP verification rejected")
			return c.JSON(http.StatusUnprocessableEntity, models.SecurityResponse{
				Success:   false,
				Message:   security.MsgWrongCode,
				RequestID: requestID,
			})
		}

		return c.JSON(http.StatusOK, models.SecurityResponse{
			Success:   true,
			Message:   "Code verified",
			RequestID: requestID,
		})
	}
}

// ChangeEmailHandler is the final confirm-password submission of the
// email-change flow.
func ChangeEmailHandler(svc *security.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.ChangeEmailRequest
		if !bindAndValidate(c, requestID, &req) {
			return nil
		}

		if err := svc.ChangeEmail(c.Request().Context(), req.UserID, req.NewEmail, req.Password); err != nil {
			logger.WithField("error", err.Error()).Error("Email change failed")
			return securityFailure(c, requestID, security.MsgChangeFailed, err)
		}

		// Sessions are revoked at this point; the client shows the success
		// countdown and redirects to login.
		return c.JSON(http.StatusOK, models.SecurityResponse{
			Success:   true,
			Message:   "Email changed, please sign in again",
			RequestID: requestID,
		})
	}
}

// ChangePasswordHandler is the single-step password-change submission.
func ChangePasswordHandler(svc *security.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.ChangePasswordRequest
		if !bindAndValidate(c, requestID, &req) {
			return nil
		}

		if req.NewPassword != req.ConfirmPassword {
			return c.JSON(http.StatusBadRequest, models.SecurityResponse{
				Success:   false,
				Message:   "password confirmation does not match",
				RequestID: requestID,
			})
		}

		if err := svc.ChangePassword(c.Request().Context(), req.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			logger.WithField("error", err.Error()).Error("Password change failed")
			return securityFailure(c, requestID, security.MsgPasswordChangeFailed, err)
		}

		return c.JSON(http.StatusOK, models.SecurityResponse{
			Success:   true,
			Message:   "Password changed, please sign in again",
			RequestID: requestID,
		})
	}
}
