package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobdesk-core/internal/logging"
	"jobdesk-core/pkg/models"
	"jobdesk-core/pkg/utils"
)

// UnseenHandler serves the poll-and-check notification mode: free accounts
// ask how many new matches arrived since their last check. Reading clears
// the counter, so each poll reports only what is new.
func UnseenHandler(rdb *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		userID := c.Param("userID")
		if userID == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "userID is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		ctx := c.Request().Context()
		count, err := rdb.GetUnseen(ctx, userID)
		if err != nil {
			logger.WithField("error", err.Error()).Error("Failed to read unseen counter")
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "unseen_read_failed",
				Message:   "Failed to read notification state",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if count > 0 {
			if err := rdb.ClearUnseen(ctx, userID); err != nil {
				logger.WithField("error", err.Error()).Warn("Failed to clear unseen counter")
			}
		}

		return c.JSON(http.StatusOK, models.UnseenResponse{
			UserID:    userID,
			Unseen:    count,
			CheckedAt: time.Now(),
		})
	}
}
