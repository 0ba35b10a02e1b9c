package booking

import (
	"context"
	"time"

	"mindwell/models"
)

// BookingService is the booking lifecycle and query surface used by the HTTP handlers
// and the background worker.
type BookingService interface {
	CreateBooking(ctx context.Context, who models.Identity, in CreateBookingInput) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, counselor models.Identity, bookingNumber string) (*models.Booking, error)
	StartSession(ctx context.Context, counselor models.Identity, bookingNumber string) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Identity, bookingNumber, reason string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, actor models.Identity, bookingNumber string, in CompleteBookingInput) (*models.Booking, error)
	ReportNoShow(ctx context.Context, counselor models.Identity, bookingNumber string) (*models.Booking, error)
	MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error)
	RecordPayment(ctx context.Context, bookingNumber string, status models.PaymentStatus) (*models.Booking, error)
	ApplyCompletionStats(ctx context.Context, bookingID string) error

	HasConflict(ctx context.Context, counselorID, date, timeSlot string) (bool, error)
	ListUpcoming(ctx context.Context, userID string) ([]models.Booking, error)
	ListPast(ctx context.Context, userID string) ([]models.Booking, error)
	ListMine(ctx context.Context, userID string, page, limit int) ([]models.BookingView, error)
	GetByBookingNumber(ctx context.Context, bookingNumber, userID string) (*models.Booking, error)
	BookedTimes(ctx context.Context, counselorID, date string) ([]string, error)
	CounselorSchedule(ctx context.Context, counselor models.Identity, date string) ([]models.Booking, error)
}

// AvailabilityCache stores the booked time strings of a counselor's date.
type AvailabilityCache interface {
	Get(ctx context.Context, counselorID, date string) ([]string, bool, error)
	Set(ctx context.Context, counselorID, date string, times []string) error
	Invalidate(ctx context.Context, counselorID, date string) error
}

// TaskScheduler enqueues deferred booking work.
type TaskScheduler interface {
	ScheduleNoShowCheck(ctx context.Context, bookingID string, at time.Time) error
	ScheduleStatsRetry(ctx context.Context, bookingID string) error
}

// CreateBookingInput is a validated booking request.
type CreateBookingInput struct {
	CounselorID     string
	SessionType     models.SessionType
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	DurationMinutes int    // zero uses the counselor's session length
	Topic           string
	Urgency         string
	SpecialNeeds    string
}

type CompleteBookingInput struct {
	Rating   *int
	Feedback string
}
