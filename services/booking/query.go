package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "mindwell/database/repository/booking"
	"mindwell/models"

	"go.uber.org/zap"
)

func (s *DefaultBookingService) ListUpcoming(ctx context.Context, userID string) ([]models.Booking, error) {
	out, err := s.Bookings.ListUpcoming(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings for %s: %w", userID, err)
	}
	return out, nil
}

func (s *DefaultBookingService) ListPast(ctx context.Context, userID string) ([]models.Booking, error) {
	out, err := s.Bookings.ListPast(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list past bookings for %s: %w", userID, err)
	}
	return out, nil
}

// ListMine pages the caller's bookings newest first. limit is capped at MaxPageSize.
func (s *DefaultBookingService) ListMine(ctx context.Context, userID string, page, limit int) ([]models.BookingView, error) {
	lim, skip := clampPage(page, limit, s.MaxPageSize)
	bookings, err := s.Bookings.ListByUser(ctx, userID, bookingRepo.ListOptions{Limit: lim, Skip: skip, Newest: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", userID, err)
	}
	views := make([]models.BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, bookings[i].View())
	}
	return views, nil
}

// GetByBookingNumber only returns bookings owned by userID.
func (s *DefaultBookingService) GetByBookingNumber(ctx context.Context, number, userID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByNumberForUser(ctx, number, userID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %s: %w", number, err)
	}
	return b, nil
}

// BookedTimes lists the time strings already held on a counselor's date, cache first.
func (s *DefaultBookingService) BookedTimes(ctx context.Context, counselorID, date string) ([]string, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	if s.Cache != nil {
		times, ok, err := s.Cache.Get(ctx, counselorID, date)
		if err != nil {
			s.log().Warn("Availability cache read failed", zap.String("counselorId", counselorID), zap.Error(err))
		} else if ok {
			return times, nil
		}
	}

	if _, err := s.loadCounselor(ctx, counselorID); err != nil {
		return nil, err
	}
	times, err := s.Bookings.BookedTimes(ctx, counselorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability for %s on %s: %w", counselorID, date, err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, counselorID, date, times); err != nil {
			s.log().Warn("Availability cache write failed", zap.String("counselorId", counselorID), zap.Error(err))
		}
	}
	return times, nil
}

// CounselorSchedule lists a counselor's own bookings, optionally for one date.
func (s *DefaultBookingService) CounselorSchedule(ctx context.Context, counselor models.Identity, date string) ([]models.Booking, error) {
	if !counselor.IsCounselor() {
		return nil, ErrForbidden
	}
	if date != "" {
		if err := validDate(date); err != nil {
			return nil, err
		}
	}
	out, err := s.Bookings.ListByCounselor(ctx, counselor.UserID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule for %s: %w", counselor.UserID, err)
	}
	return out, nil
}
