package booking

import (
	"context"
	"errors"
	"fmt"
	"math"

	bookingRepo "mindwell/database/repository/booking"
	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"

	"go.uber.org/zap"
)

const maxStatsAttempts = 5

// ApplyCompletionStats folds a completed booking into its counselor's statistics. The
// booking id is the idempotency key: calling it again for the same booking changes nothing.
func (s *DefaultBookingService) ApplyCompletionStats(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if b.Status != models.BookingCompleted {
		return fmt.Errorf("%w: booking %s is %s", ErrInvalidState, b.BookingNumber, b.Status)
	}
	if b.StatsApplied {
		return nil
	}

	review := reviewFor(b)
	for attempt := 1; ; attempt++ {
		counselor, err := s.loadCounselor(ctx, b.CounselorID)
		if err != nil {
			return err
		}
		if counselor.HasProcessedCompletion(b.ID) {
			break
		}

		completion := aggregateCompletion(counselor, b.ID, review)
		completion.At = s.now()
		applied, err := s.Counselors.ApplyCompletion(ctx, counselor.ID, counselor.Version, completion)
		if errors.Is(err, counselorRepo.ErrVersionConflict) && attempt < maxStatsAttempts {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to apply completion %s to counselor %s: %w", b.BookingNumber, counselor.ID, err)
		}
		if applied {
			s.log().Info("Counselor statistics updated",
				zap.String("counselorId", counselor.ID),
				zap.String("bookingNumber", b.BookingNumber),
				zap.Float64("rating", completion.Rating),
				zap.Int("totalReviews", completion.TotalReviews))
		}
		break
	}

	if err := s.Bookings.MarkStatsApplied(ctx, b.ID); err != nil {
		// The counselor side is already guarded by the booking id, so a retry is harmless.
		return fmt.Errorf("failed to flag statistics on booking %s: %w", b.BookingNumber, err)
	}
	return nil
}

func reviewFor(b *models.Booking) *models.Review {
	if b.Feedback == nil || b.Feedback.Rating == nil {
		return nil
	}
	return &models.Review{
		BookingID:  b.ID,
		UserID:     b.UserID,
		Rating:     *b.Feedback.Rating,
		Comment:    b.Feedback.Comment,
		IsVerified: true,
		CreatedAt:  b.Feedback.SubmittedAt,
	}
}

// aggregateCompletion computes the statistics delta of one completion against the
// counselor's current reviews.
func aggregateCompletion(c *models.Counselor, bookingID string, review *models.Review) models.Completion {
	out := models.Completion{BookingID: bookingID, Review: review}
	if review == nil {
		return out
	}
	ratings := make([]int, 0, len(c.Reviews)+1)
	for _, r := range c.Reviews {
		ratings = append(ratings, r.Rating)
	}
	ratings = append(ratings, review.Rating)

	out.Rating = averageRating(ratings)
	out.TotalReviews = len(ratings)
	return out
}

// averageRating is the mean rounded to one decimal, halves away from zero.
func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10
}
