package models

import "time"

// CancellationWindow is the minimum lead time before a session for it to be cancellable.
const CancellationWindow = 24 * time.Hour

// Booking is a counseling session reserved by a user with a counselor.
type Booking struct {
	ID            string         `bson:"id" json:"id"`
	BookingNumber string         `bson:"bookingNumber" json:"bookingNumber"`
	UserID        string         `bson:"userId" json:"userId"`
	CounselorID   string         `bson:"counselorId" json:"counselorId"`
	Session       SessionDetails `bson:"sessionDetails" json:"sessionDetails"`
	GenderMatch   GenderMatch    `bson:"genderMatch" json:"genderMatch"`
	Status        BookingStatus  `bson:"status" json:"status"`
	// SlotHeld mirrors Status.HoldsSlot(); the unique slot index is partial on it.
	SlotHeld     bool             `bson:"slotHeld" json:"-"`
	Payment      Payment          `bson:"payment" json:"payment"`
	Cancellation *Cancellation    `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Feedback     *SessionFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`
	StatsApplied bool             `bson:"statsApplied" json:"-"`
	CreatedAt    time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt" json:"updatedAt"`
	StartedAt    *time.Time       `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt  *time.Time       `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

type SessionDetails struct {
	SessionType     SessionType `bson:"sessionType" json:"sessionType"`
	ScheduledDate   time.Time   `bson:"scheduledDate" json:"scheduledDate"`
	Date            string      `bson:"date" json:"date"` // YYYY-MM-DD
	Time            string      `bson:"time" json:"time"` // HH:MM
	DurationMinutes int         `bson:"durationMinutes" json:"durationMinutes"`
	Topic           string      `bson:"topic" json:"topic"`
	Urgency         string      `bson:"urgency,omitempty" json:"urgency,omitempty"`
	SpecialNeeds    string      `bson:"specialNeeds,omitempty" json:"specialNeeds,omitempty"`
	IsFirstSession  bool        `bson:"isFirstSession" json:"isFirstSession"`
}

type GenderMatch struct {
	UserGender      Gender `bson:"userGender" json:"userGender"`
	CounselorGender Gender `bson:"counselorGender" json:"counselorGender"`
	IsMatched       bool   `bson:"isMatched" json:"isMatched"`
}

type Payment struct {
	Amount   float64       `bson:"amount" json:"amount"`
	Currency string        `bson:"currency" json:"currency"`
	Status   PaymentStatus `bson:"status" json:"status"`
}

type Cancellation struct {
	CancelledBy  string    `bson:"cancelledBy" json:"cancelledBy"`
	CancelledAt  time.Time `bson:"cancelledAt" json:"cancelledAt"`
	Reason       string    `bson:"reason" json:"reason"`
	RefundIssued bool      `bson:"refundIssued" json:"refundIssued"`
}

type SessionFeedback struct {
	Rating      *int      `bson:"rating,omitempty" json:"rating,omitempty"`
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
}

// WithinCancellationWindow reports whether more than CancellationWindow remains before the session.
func (b *Booking) WithinCancellationWindow(now time.Time) bool {
	return b.Session.ScheduledDate.Sub(now) > CancellationWindow
}

// CanBeCancelled reports whether a confirmed booking may still be cancelled at now.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	return b.Status == BookingConfirmed && b.WithinCancellationWindow(now)
}

// EndsAt is the scheduled end of the session.
func (b *Booking) EndsAt() time.Time {
	return b.Session.ScheduledDate.Add(time.Duration(b.Session.DurationMinutes) * time.Minute)
}

// BookingView is the reduced projection used by booking lists and the expert picker.
type BookingView struct {
	BookingNumber string        `json:"bookingNumber"`
	ExpertID      string        `json:"expertId"`
	SessionType   SessionType   `json:"sessionType"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	ScheduledDate time.Time     `json:"scheduledDate"`
	Status        BookingStatus `json:"status"`
	ConcernType   string        `json:"concernType"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (b *Booking) View() BookingView {
	return BookingView{
		BookingNumber: b.BookingNumber,
		ExpertID:      b.CounselorID,
		SessionType:   b.Session.SessionType,
		Date:          b.Session.Date,
		Time:          b.Session.Time,
		ScheduledDate: b.Session.ScheduledDate,
		Status:        b.Status,
		ConcernType:   b.Session.Topic,
		CreatedAt:     b.CreatedAt,
	}
}

// BookingUpdate describes a conditional status transition and the fields written with it.
type BookingUpdate struct {
	Status BookingStatus
	// ExpectPayment, when set, additionally requires the stored payment status to match.
	ExpectPayment *PaymentStatus
	PaymentStatus *PaymentStatus
	Cancellation  *Cancellation
	Feedback      *SessionFeedback
	StartedAt     *time.Time
	CompletedAt   *time.Time
	At            time.Time
}
