package bookingRepo

import (
	"context"
	"errors"
	"time"

	"mindwell/models"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken is returned by Insert when another slot-holding booking occupies the same
	// counselor/date/time.
	ErrSlotTaken = errors.New("slot already held")
	// ErrDuplicateNumber is returned by Insert when the booking number collides.
	ErrDuplicateNumber = errors.New("duplicate booking number")
	// ErrStatusConflict is returned by conditional updates whose precondition no longer holds.
	ErrStatusConflict = errors.New("booking changed concurrently")
)

// ListOptions pages and orders a booking listing.
type ListOptions struct {
	Limit  int64
	Skip   int64
	Newest bool
}

// BookingRepository persists bookings. Insert is atomic with respect to the slot invariant.
type BookingRepository interface {
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByNumber(ctx context.Context, number string) (*models.Booking, error)
	GetByNumberForUser(ctx context.Context, number, userID string) (*models.Booking, error)

	HasSlotConflict(ctx context.Context, counselorID, date, timeSlot string) (bool, error)
	BookedTimes(ctx context.Context, counselorID, date string) ([]string, error)
	HasCompletedBooking(ctx context.Context, userID string) (bool, error)

	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]models.Booking, error)
	ListUpcoming(ctx context.Context, userID string, now time.Time) ([]models.Booking, error)
	ListPast(ctx context.Context, userID string, now time.Time) ([]models.Booking, error)
	ListByCounselor(ctx context.Context, counselorID, date string) ([]models.Booking, error)

	// Transition applies upd only if the stored status is one of from.
	Transition(ctx context.Context, id string, from []models.BookingStatus, upd models.BookingUpdate) (*models.Booking, error)
	SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus, at time.Time) (*models.Booking, error)
	MarkStatsApplied(ctx context.Context, id string) error
}
