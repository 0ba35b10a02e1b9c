package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mindwell/middleware"
	"mindwell/models"
	"mindwell/services/booking"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// createBookingRequest accepts either counselorId or the client's legacy expertId.
type createBookingRequest struct {
	CounselorID     string `json:"counselorId" validate:"required_without=ExpertID"`
	ExpertID        string `json:"expertId"`
	SessionType     string `json:"sessionType" validate:"required,oneof=VideoCall AudioCall Chat InPerson"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	ConcernType     string `json:"concernType" validate:"required,max=200"`
	Message         string `json:"message" validate:"max=2000"`
	Urgency         string `json:"urgency" validate:"omitempty,max=32"`
	DurationMinutes int    `json:"durationMinutes" validate:"omitempty,min=15,max=180"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type completeBookingRequest struct {
	Rating   *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Authentication required")
	}
	return id, ok
}

// CreateBooking handles POST /api/bookings/create.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	counselorID := req.CounselorID
	if counselorID == "" {
		counselorID = req.ExpertID
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), who, booking.CreateBookingInput{
		CounselorID:     counselorID,
		SessionType:     models.SessionType(req.SessionType),
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.ConcernType,
		Urgency:         req.Urgency,
		SpecialNeeds:    req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bookingNumber": b.BookingNumber, "booking": b})
}

// MyBookings handles GET /api/bookings/my-bookings?page=&limit=.
func (h *BookingHandler) MyBookings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	page = booking.NormalizePage(page)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	views, err := h.Service.ListMine(c.Request.Context(), who.UserID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views, "page": page})
}

func (h *BookingHandler) UpcomingBookings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.Service.ListUpcoming(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) PastBookings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.Service.ListPast(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// GetBooking returns one of the caller's bookings; someone else's booking is a 404.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	b, err := h.Service.GetByBookingNumber(c.Request.Context(), c.Param("bookingNumber"), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking serves both the user and the counselor cancel routes.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	// The body is optional.
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.CancelBooking(c.Request.Context(), who, c.Param("bookingNumber"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req completeBookingRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.CompleteBooking(c.Request.Context(), who, c.Param("bookingNumber"), booking.CompleteBookingInput{
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Availability handles GET /api/bookings/expert/:expertId/availability?date=YYYY-MM-DD.
func (h *BookingHandler) Availability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONValidationError(c, map[string]string{"date": "This field is required"})
		return
	}
	times, err := h.Service.BookedTimes(c.Request.Context(), c.Param("expertId"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "bookedTimes": times})
}

// CounselorSchedule handles GET /api/counselor/bookings?date=.
func (h *BookingHandler) CounselorSchedule(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.Service.CounselorSchedule(c.Request.Context(), who, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.counselorAction(c, h.Service.ConfirmBooking)
}

func (h *BookingHandler) StartSession(c *gin.Context) {
	h.counselorAction(c, h.Service.StartSession)
}

func (h *BookingHandler) ReportNoShow(c *gin.Context) {
	h.counselorAction(c, h.Service.ReportNoShow)
}

type counselorActionFunc func(ctx context.Context, counselor models.Identity, bookingNumber string) (*models.Booking, error)

func (h *BookingHandler) counselorAction(c *gin.Context, action counselorActionFunc) {
	who, ok := identity(c)
	if !ok {
		return
	}
	b, err := action(c.Request.Context(), who, c.Param("bookingNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
