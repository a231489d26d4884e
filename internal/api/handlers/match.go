package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobdesk-core/internal/logging"
	"jobdesk-core/internal/match"
	"jobdesk-core/pkg/models"
	"jobdesk-core/pkg/utils"
)

var validate = validator.New()

// MatchHandler scores an ad-hoc posting/profile pair. Scoring is pure, so
// this endpoint has no side effects and is safe to retry.
func MatchHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.MatchRequest
		if err := c.Bind(&req); err != nil {
			logger.WithField("error", err.Error()).Error("Failed to bind match request")
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.WithField("error", err.Error()).Error("Match request validation failed")
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		result := match.ComputeMatch(req.Posting, req.Profile)

		logger.WithFields(map[string]interface{}{
			"job_title":     req.Posting.Title,
			"overall_score": result.OverallScore,
		}).Info("Match computed")

		return c.JSON(http.StatusOK, models.MatchResponse{
			Success:   true,
			Result:    &result,
			RequestID: requestID,
		})
	}
}

// ProfileMatchesHandler returns stored-profile matches over the current
// posting set, best first.
func ProfileMatchesHandler(svc *match.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		profileID := c.Param("profileID")
		if profileID == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "profileID is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		results, err := svc.MatchesForProfile(c.Request().Context(), profileID)
		if err != nil {
			logger.WithField("error", err.Error()).Error("Failed to compute profile matches")
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "match_failed",
				Message:   "Failed to compute matches",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.MatchResponse{
			Success:   true,
			Results:   results,
			RequestID: requestID,
		})
	}
}
