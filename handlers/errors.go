package handlers

import (
	"errors"
	"net/http"

	"mindwell/services/booking"
	"mindwell/services/counselor"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorTable = []errorMapping{
	{booking.ErrGenderMismatch, http.StatusForbidden, "GENDER_MISMATCH", ""},
	{booking.ErrUnsupportedSessionType, http.StatusBadRequest, "UNSUPPORTED_SESSION_TYPE", ""},
	{booking.ErrCounselorUnavailable, http.StatusBadRequest, "COUNSELOR_UNAVAILABLE", ""},
	{booking.ErrSlotUnavailable, http.StatusBadRequest, "SLOT_UNAVAILABLE", ""},
	{booking.ErrCancellationWindowExpired, http.StatusBadRequest, "CANCELLATION_WINDOW_EXPIRED", ""},
	{booking.ErrInvalidState, http.StatusBadRequest, "INVALID_STATE", ""},
	{booking.ErrForbidden, http.StatusForbidden, utils.CodeForbidden, ""},
	{booking.ErrBookingNotFound, http.StatusNotFound, utils.CodeNotFound, "Booking not found"},
	{booking.ErrCounselorNotFound, http.StatusNotFound, utils.CodeNotFound, "Counselor not found"},
	{counselor.ErrNotFound, http.StatusNotFound, utils.CodeNotFound, "Counselor not found"},
	{booking.ErrStorageUnavailable, http.StatusServiceUnavailable, utils.CodeUnavailable, "Service temporarily unavailable, please retry"},
}

// respondError maps a service error onto the HTTP error body.
func respondError(c *gin.Context, err error) {
	logger := getLogger(c)

	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		utils.JSONValidationError(c, verr.Fields)
		return
	}

	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = m.target.Error()
		}
		switch {
		case m.status >= 500:
			logger.Error("Storage unavailable", zap.Error(err))
		case booking.IsPolicyRejection(err):
			logger.Info("Request rejected by booking policy", zap.String("code", m.code), zap.Error(err))
		default:
			logger.Debug("Request failed", zap.String("code", m.code), zap.Error(err))
		}
		utils.JSONError(c, m.status, m.code, msg)
		return
	}

	logger.Error("Unhandled error", zap.Error(err), zap.String("requestId", c.GetString("requestID")))
	utils.JSONError(c, http.StatusInternalServerError, utils.CodeInternal, "Internal Server Error")
}

// bindJSON decodes and validates the body, writing the 400 itself on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.JSONValidationError(c, map[string]string{"body": "Malformed JSON body"})
		return false
	}
	if fields := utils.ValidateStruct(dst); fields != nil {
		utils.JSONValidationError(c, fields)
		return false
	}
	return true
}
