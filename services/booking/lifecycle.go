package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bookingRepo "mindwell/database/repository/booking"
	"mindwell/models"
	"mindwell/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxNumberAttempts = 3
	maxCancelAttempts = 3
)

// CreateBooking runs the booking pre-conditions in order (gender, session type, counselor
// capacity, slot) and persists the booking.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, who models.Identity, in CreateBookingInput) (*models.Booking, error) {
	if who.IsCounselor() {
		return nil, ErrForbidden
	}
	log := s.log().With(
		zap.String("userId", who.UserID),
		zap.String("counselorId", in.CounselorID),
		zap.String("date", in.Date),
		zap.String("time", in.Time))

	now := s.now()
	scheduled, err := parseSlot(in.Date, in.Time, s.location())
	if err != nil {
		return nil, err
	}
	if !scheduled.After(now) {
		return nil, utils.NewValidationError("date", "Session must be scheduled in the future")
	}
	date, slot := scheduled.Format(dateLayout), scheduled.Format(timeLayout)

	counselor, err := s.loadCounselor(ctx, in.CounselorID)
	if err != nil {
		return nil, err
	}

	match, err := ValidateGenderMatch(who.Gender, counselor.Gender)
	if err != nil {
		log.Info("Booking rejected: gender mismatch")
		return nil, err
	}
	if !counselor.SupportsSessionType(in.SessionType) {
		log.Info("Booking rejected: unsupported session type", zap.String("sessionType", string(in.SessionType)))
		return nil, ErrUnsupportedSessionType
	}
	if !counselor.CanAcceptNewPatient() {
		log.Info("Booking rejected: counselor unavailable")
		return nil, ErrCounselorUnavailable
	}

	taken, err := s.HasConflict(ctx, counselor.ID, date, slot)
	if err != nil {
		return nil, err
	}
	if taken {
		log.Info("Booking rejected: slot held")
		return nil, ErrSlotUnavailable
	}

	hasCompleted, err := s.Bookings.HasCompletedBooking(ctx, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check booking history for %s: %w", who.UserID, err)
	}

	duration := in.DurationMinutes
	if duration <= 0 {
		duration = counselor.DurationMinutes()
	}
	status := models.BookingConfirmed
	if counselor.Availability.RequiresApproval {
		status = models.BookingPending
	}

	b := &models.Booking{
		ID:          uuid.NewString(),
		UserID:      who.UserID,
		CounselorID: counselor.ID,
		Session: models.SessionDetails{
			SessionType:     in.SessionType,
			ScheduledDate:   scheduled.UTC(),
			Date:            date,
			Time:            slot,
			DurationMinutes: duration,
			Topic:           strings.TrimSpace(in.Topic),
			Urgency:         in.Urgency,
			SpecialNeeds:    strings.TrimSpace(in.SpecialNeeds),
			IsFirstSession:  !hasCompleted,
		},
		GenderMatch: match,
		Status:      status,
		Payment: models.Payment{
			Amount:   counselor.Pricing.SessionFee,
			Currency: counselor.Pricing.Currency,
			Status:   models.PaymentPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.insert(ctx, b); err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			log.Info("Booking rejected: slot taken concurrently")
		}
		return nil, err
	}

	s.recordAssignment(ctx, counselor, who.UserID)
	s.invalidateAvailability(ctx, b)
	s.scheduleNoShowCheck(ctx, b)

	log.Info("Booking created",
		zap.String("bookingNumber", b.BookingNumber),
		zap.String("status", string(b.Status)))
	return b, nil
}

// insert relies on the slot index for atomicity and regenerates the booking number on
// the rare collision.
func (s *DefaultBookingService) insert(ctx context.Context, b *models.Booking) error {
	for attempt := 1; ; attempt++ {
		b.BookingNumber = generateBookingNumber(b.CreatedAt)
		err := s.Bookings.Insert(ctx, b)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			return ErrSlotUnavailable
		case errors.Is(err, bookingRepo.ErrDuplicateNumber) && attempt < maxNumberAttempts:
			continue
		default:
			return fmt.Errorf("failed to save booking: %w", err)
		}
	}
}

// recordAssignment applies the counselor side effects of a new booking. The booking is
// already durable, so failures are logged rather than returned.
func (s *DefaultBookingService) recordAssignment(ctx context.Context, counselor *models.Counselor, userID string) {
	if !counselor.HasPatient(userID) {
		if err := s.Counselors.AssignPatient(ctx, counselor.ID, userID, s.now()); err != nil {
			s.log().Error("Failed to assign patient",
				zap.String("counselorId", counselor.ID), zap.String("userId", userID), zap.Error(err))
		}
	}
	if err := s.Counselors.IncrementTotalSessions(ctx, counselor.ID); err != nil {
		s.log().Error("Failed to increment total sessions",
			zap.String("counselorId", counselor.ID), zap.Error(err))
	}
}

func (s *DefaultBookingService) scheduleNoShowCheck(ctx context.Context, b *models.Booking) {
	if s.Tasks == nil {
		return
	}
	at := b.EndsAt().Add(s.NoShowGrace)
	if err := s.Tasks.ScheduleNoShowCheck(ctx, b.ID, at); err != nil {
		s.log().Warn("Failed to schedule no-show check",
			zap.String("bookingNumber", b.BookingNumber), zap.Error(err))
	}
}

// ConfirmBooking approves a pending booking on behalf of its counselor.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, counselor models.Identity, number string) (*models.Booking, error) {
	if !counselor.IsCounselor() {
		return nil, ErrForbidden
	}
	b, err := s.loadForActor(ctx, counselor, number)
	if err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, b, models.BookingUpdate{Status: models.BookingConfirmed})
	if err != nil {
		return nil, err
	}
	s.log().Info("Booking confirmed", zap.String("bookingNumber", number))
	return updated, nil
}

// StartSession marks a confirmed booking as in progress.
func (s *DefaultBookingService) StartSession(ctx context.Context, counselor models.Identity, number string) (*models.Booking, error) {
	if !counselor.IsCounselor() {
		return nil, ErrForbidden
	}
	b, err := s.loadForActor(ctx, counselor, number)
	if err != nil {
		return nil, err
	}
	now := s.now()
	updated, err := s.transition(ctx, b, models.BookingUpdate{
		Status:    models.BookingInProgress,
		StartedAt: &now,
		At:        now,
	})
	if err != nil {
		return nil, err
	}
	s.log().Info("Session started", zap.String("bookingNumber", number))
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking more than 24h ahead of the session.
// A paid booking is refunded in the same conditional write, so a booking is never
// refunded twice.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, actor models.Identity, number, reason string) (*models.Booking, error) {
	for attempt := 1; ; attempt++ {
		b, err := s.loadForActor(ctx, actor, number)
		if err != nil {
			return nil, err
		}
		if !b.Status.CanTransitionTo(models.BookingCancelled) {
			return nil, invalidTransition(b.BookingNumber, b.Status, models.BookingCancelled)
		}
		now := s.now()
		if !b.WithinCancellationWindow(now) {
			return nil, ErrCancellationWindowExpired
		}

		observed := b.Payment.Status
		refund := observed == models.PaymentPaid
		upd := models.BookingUpdate{
			Status:        models.BookingCancelled,
			ExpectPayment: &observed,
			Cancellation: &models.Cancellation{
				CancelledBy:  actor.Role,
				CancelledAt:  now,
				Reason:       strings.TrimSpace(reason),
				RefundIssued: refund,
			},
			At: now,
		}
		if refund {
			refunded := models.PaymentRefunded
			upd.PaymentStatus = &refunded
		}

		updated, err := s.Bookings.Transition(ctx, b.ID, models.SourcesFor(models.BookingCancelled), upd)
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			// Status or payment moved underneath us; re-evaluate against the fresh document.
			if attempt < maxCancelAttempts {
				continue
			}
			return nil, fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidState, number)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to cancel booking %s: %w", number, err)
		}

		if err := s.Counselors.IncrementCancelledSessions(ctx, b.CounselorID); err != nil {
			s.log().Error("Failed to increment cancelled sessions",
				zap.String("counselorId", b.CounselorID), zap.Error(err))
		}
		s.invalidateAvailability(ctx, updated)
		s.log().Info("Booking cancelled",
			zap.String("bookingNumber", number),
			zap.String("cancelledBy", actor.Role),
			zap.Bool("refundIssued", refund))
		return updated, nil
	}
}

// CompleteBooking closes a held session and feeds its rating into counselor statistics.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, actor models.Identity, number string, in CompleteBookingInput) (*models.Booking, error) {
	if in.Rating != nil {
		if actor.IsCounselor() {
			return nil, ErrForbidden
		}
		if *in.Rating < models.MinRating || *in.Rating > models.MaxRating {
			return nil, utils.NewValidationError("rating", fmt.Sprintf("Must be between %d and %d", models.MinRating, models.MaxRating))
		}
	}
	b, err := s.loadForActor(ctx, actor, number)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// A session nobody started can only be closed once its scheduled start has passed.
	if b.Status != models.BookingInProgress && now.Before(b.Session.ScheduledDate) {
		return nil, fmt.Errorf("%w: session %s has not started yet", ErrInvalidState, number)
	}
	upd := models.BookingUpdate{Status: models.BookingCompleted, CompletedAt: &now, At: now}
	feedback := strings.TrimSpace(in.Feedback)
	if in.Rating != nil || feedback != "" {
		upd.Feedback = &models.SessionFeedback{Rating: in.Rating, Comment: feedback, SubmittedAt: now}
	}

	updated, err := s.transition(ctx, b, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateAvailability(ctx, updated)

	if err := s.ApplyCompletionStats(ctx, updated.ID); err != nil {
		s.log().Error("Failed to apply completion statistics; scheduling retry",
			zap.String("bookingNumber", number), zap.Error(err))
		if s.Tasks != nil {
			if qerr := s.Tasks.ScheduleStatsRetry(ctx, updated.ID); qerr != nil {
				s.log().Error("Failed to schedule statistics retry",
					zap.String("bookingNumber", number), zap.Error(qerr))
			}
		}
	} else {
		updated.StatsApplied = true
	}

	s.log().Info("Booking completed", zap.String("bookingNumber", number), zap.Bool("rated", in.Rating != nil))
	return updated, nil
}

// ReportNoShow lets a counselor mark a missed session once its start time has passed.
func (s *DefaultBookingService) ReportNoShow(ctx context.Context, counselor models.Identity, number string) (*models.Booking, error) {
	if !counselor.IsCounselor() {
		return nil, ErrForbidden
	}
	b, err := s.loadForActor(ctx, counselor, number)
	if err != nil {
		return nil, err
	}
	return s.markNoShow(ctx, b)
}

// MarkNoShow is the scheduled check after a session's end. Bookings already in progress or
// terminal are left untouched and reported as ErrInvalidState.
func (s *DefaultBookingService) MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	return s.markNoShow(ctx, b)
}

func (s *DefaultBookingService) markNoShow(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	now := s.now()
	if now.Before(b.Session.ScheduledDate) {
		return nil, fmt.Errorf("%w: session %s has not started yet", ErrInvalidState, b.BookingNumber)
	}
	updated, err := s.transition(ctx, b, models.BookingUpdate{Status: models.BookingNoShow, At: now})
	if err != nil {
		return nil, err
	}
	s.invalidateAvailability(ctx, updated)
	s.log().Info("Booking marked no-show", zap.String("bookingNumber", b.BookingNumber))
	return updated, nil
}

// RecordPayment stores the payment collaborator's outcome. Repeating the same outcome is a no-op.
func (s *DefaultBookingService) RecordPayment(ctx context.Context, number string, status models.PaymentStatus) (*models.Booking, error) {
	var from []models.PaymentStatus
	switch status {
	case models.PaymentPaid:
		from = []models.PaymentStatus{models.PaymentPending, models.PaymentFailed}
	case models.PaymentFailed:
		from = []models.PaymentStatus{models.PaymentPending}
	default:
		return nil, utils.NewValidationError("status", "Must be one of: Paid, Failed")
	}

	b, err := s.Bookings.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", number, err)
	}
	if b.Payment.Status == status {
		return b, nil
	}

	updated, err := s.Bookings.SetPaymentStatus(ctx, b.ID, from, status, s.now())
	if errors.Is(err, bookingRepo.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: payment for booking %s cannot become %s", ErrInvalidState, number, status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record payment for %s: %w", number, err)
	}
	s.log().Info("Payment recorded", zap.String("bookingNumber", number), zap.String("status", string(status)))
	return updated, nil
}
