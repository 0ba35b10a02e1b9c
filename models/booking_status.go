package models

import "fmt"

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingInProgress BookingStatus = "InProgress"
	BookingCompleted  BookingStatus = "Completed"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingNoShow     BookingStatus = "NoShow"
)

var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled, BookingNoShow},
	BookingConfirmed:  {BookingInProgress, BookingCompleted, BookingCancelled, BookingNoShow},
	BookingInProgress: {BookingCompleted},
	BookingCompleted:  {},
	BookingCancelled:  {},
	BookingNoShow:     {},
}

func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// HoldsSlot reports whether a booking in this status occupies its counselor/date/time slot.
func (s BookingStatus) HoldsSlot() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s BookingStatus) String() string {
	return string(s)
}

// SourcesFor lists every status that may transition into target.
func SourcesFor(target BookingStatus) []BookingStatus {
	var out []BookingStatus
	for _, from := range []BookingStatus{BookingPending, BookingConfirmed, BookingInProgress} {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus tracks what the payment collaborator reported for a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return p, nil
	}
	return "", fmt.Errorf("invalid payment status: %s", s)
}
