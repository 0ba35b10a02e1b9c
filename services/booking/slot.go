package booking

import (
	"context"
	"fmt"
	"time"

	"mindwell/utils"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// HasConflict reports whether counselor/date/time is already held by a pending or
// confirmed booking. It is an early check only; the insert itself is what guarantees
// a slot is never double booked.
func (s *DefaultBookingService) HasConflict(ctx context.Context, counselorID, date, timeSlot string) (bool, error) {
	held, err := s.Bookings.HasSlotConflict(ctx, counselorID, date, timeSlot)
	if err != nil {
		return false, fmt.Errorf("failed to check slot %s %s for %s: %w", date, timeSlot, counselorID, err)
	}
	return held, nil
}

// parseSlot turns the request's date and time strings into the scheduled instant.
func parseSlot(date, timeSlot string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, utils.NewValidationError("date", "Must match the layout "+dateLayout)
	}
	clock, err := time.Parse(timeLayout, timeSlot)
	if err != nil {
		return time.Time{}, utils.NewValidationError("time", "Must match the layout "+timeLayout)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

func validDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return utils.NewValidationError("date", "Must match the layout "+dateLayout)
	}
	return nil
}
