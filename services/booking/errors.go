package booking

import (
	"errors"
	"fmt"

	"mindwell/database"
	"mindwell/models"
)

// Policy rejections. They are expected outcomes and are surfaced to the caller verbatim.
var (
	ErrGenderMismatch            = errors.New("this counselor only sees clients of the same gender")
	ErrUnsupportedSessionType    = errors.New("counselor does not offer this session type")
	ErrCounselorUnavailable      = errors.New("counselor is not accepting new bookings")
	ErrSlotUnavailable           = errors.New("the selected time slot is no longer available")
	ErrCancellationWindowExpired = errors.New("bookings can only be cancelled more than 24 hours in advance")
	ErrInvalidState              = errors.New("booking cannot change to the requested status")
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrCounselorNotFound = errors.New("counselor not found")
	ErrForbidden         = errors.New("operation not permitted for this account")
	// ErrStorageUnavailable is the same value the repositories wrap, so errors.Is matches either.
	ErrStorageUnavailable = database.ErrUnavailable
)

func invalidTransition(number string, from, to models.BookingStatus) error {
	return fmt.Errorf("%w: booking %s is %s and cannot become %s", ErrInvalidState, number, from, to)
}

// IsPolicyRejection reports whether err is an expected, caller-correctable outcome.
func IsPolicyRejection(err error) bool {
	for _, target := range []error{
		ErrGenderMismatch,
		ErrUnsupportedSessionType,
		ErrCounselorUnavailable,
		ErrSlotUnavailable,
		ErrCancellationWindowExpired,
		ErrInvalidState,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
