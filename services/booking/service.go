package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "mindwell/database/repository/booking"
	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"

	"go.uber.org/zap"
)

const (
	defaultPageLimit   = 20
	defaultMaxPageSize = 50
	defaultNoShowGrace = 15 * time.Minute
)

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings   bookingRepo.BookingRepository
	Counselors counselorRepo.CounselorRepository
	// Cache and Tasks are optional.
	Cache AvailabilityCache
	Tasks TaskScheduler

	Logger      *zap.Logger
	Location    *time.Location
	MaxPageSize int
	NoShowGrace time.Duration
	Now         func() time.Time
}

func NewBookingService(bookings bookingRepo.BookingRepository, counselors counselorRepo.CounselorRepository, logger *zap.Logger) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Bookings:    bookings,
		Counselors:  counselors,
		Logger:      logger.With(zap.String("service", "booking")),
		Location:    time.UTC,
		MaxPageSize: defaultMaxPageSize,
		NoShowGrace: defaultNoShowGrace,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *DefaultBookingService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// loadForActor resolves a booking number visible to actor: users see their own bookings,
// counselors the bookings made with them.
func (s *DefaultBookingService) loadForActor(ctx context.Context, actor models.Identity, number string) (*models.Booking, error) {
	var (
		b   *models.Booking
		err error
	)
	if actor.IsCounselor() {
		b, err = s.Bookings.GetByNumber(ctx, number)
		if err == nil && b.CounselorID != actor.UserID {
			return nil, ErrBookingNotFound
		}
	} else {
		b, err = s.Bookings.GetByNumberForUser(ctx, number, actor.UserID)
	}
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", number, err)
	}
	return b, nil
}

func (s *DefaultBookingService) loadCounselor(ctx context.Context, id string) (*models.Counselor, error) {
	c, err := s.Counselors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, counselorRepo.ErrNotFound) {
			return nil, ErrCounselorNotFound
		}
		return nil, fmt.Errorf("failed to load counselor %s: %w", id, err)
	}
	return c, nil
}

// transition applies a single conditional status change. Losing a race to another writer
// surfaces as ErrInvalidState.
func (s *DefaultBookingService) transition(ctx context.Context, b *models.Booking, upd models.BookingUpdate) (*models.Booking, error) {
	if !b.Status.CanTransitionTo(upd.Status) {
		return nil, invalidTransition(b.BookingNumber, b.Status, upd.Status)
	}
	if upd.At.IsZero() {
		upd.At = s.now()
	}
	updated, err := s.Bookings.Transition(ctx, b.ID, models.SourcesFor(upd.Status), upd)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidState, b.BookingNumber)
		}
		return nil, fmt.Errorf("failed to update booking %s: %w", b.BookingNumber, err)
	}
	return updated, nil
}

func (s *DefaultBookingService) invalidateAvailability(ctx context.Context, b *models.Booking) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, b.CounselorID, b.Session.Date); err != nil {
		s.log().Warn("Failed to invalidate availability cache",
			zap.String("counselorId", b.CounselorID),
			zap.String("date", b.Session.Date),
			zap.Error(err))
	}
}
