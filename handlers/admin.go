package handlers

import (
	"net/http"

	"mindwell/models"
	"mindwell/services/booking"
	"mindwell/services/counselor"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates operator and integration callbacks.
type AdminHandler struct {
	Bookings   booking.BookingService
	Counselors counselor.CounselorService
}

func NewAdminHandler(bs booking.BookingService, cs counselor.CounselorService) *AdminHandler {
	return &AdminHandler{Bookings: bs, Counselors: cs}
}

type recordPaymentRequest struct {
	Status string `json:"status" validate:"required,oneof=Paid Failed"`
}

// RecordPaymentHandler is the payment collaborator's callback.
func (ah *AdminHandler) RecordPaymentHandler(c *gin.Context) {
	var req recordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := ah.Bookings.RecordPayment(c.Request.Context(), c.Param("bookingNumber"), models.PaymentStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetCounselorActiveHandler activates or deactivates a counselor in the directory.
func (ah *AdminHandler) SetCounselorActiveHandler(c *gin.Context) {
	var req setActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	id := c.Param("id")
	if err := ah.Counselors.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Admin changed counselor activation", zap.String("counselorId", id), zap.Bool("active", *req.Active))
	c.JSON(http.StatusOK, gin.H{"id": id, "active": *req.Active})
}
