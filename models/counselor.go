package models

import "time"

// Gender as recorded on identities and counselor profiles.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// IsKnown reports whether g is one of the two recorded values.
func (g Gender) IsKnown() bool {
	return g == GenderMale || g == GenderFemale
}

type SessionType string

const (
	SessionVideoCall SessionType = "VideoCall"
	SessionAudioCall SessionType = "AudioCall"
	SessionChat      SessionType = "Chat"
	SessionInPerson  SessionType = "InPerson"
)

const DefaultSessionDurationMinutes = 50

// PatientCapacityFactor scales maxPatientsPerDay into the assigned-patient ceiling.
const PatientCapacityFactor = 5

type Counselor struct {
	ID                     string                `bson:"id" json:"id"`
	Name                   string                `bson:"name" json:"name"`
	Title                  string                `bson:"title,omitempty" json:"title,omitempty"`
	Bio                    string                `bson:"bio,omitempty" json:"bio,omitempty"`
	Gender                 Gender                `bson:"gender" json:"gender"`
	Specializations        []string              `bson:"specializations" json:"specializations"`
	SessionTypes           []SessionType         `bson:"sessionTypes" json:"sessionTypes"`
	SessionDurationMinutes int                   `bson:"sessionDurationMinutes" json:"sessionDurationMinutes"`
	Availability           CounselorAvailability `bson:"availability" json:"availability"`
	Pricing                Pricing               `bson:"pricing" json:"pricing"`
	IsActive               bool                  `bson:"isActive" json:"isActive"`
	IsVerified             bool                  `bson:"isVerified" json:"isVerified"`
	Statistics             CounselorStatistics   `bson:"statistics" json:"statistics"`
	AssignedPatients       []AssignedPatient     `bson:"assignedPatients" json:"assignedPatients,omitempty"`
	Reviews                []Review              `bson:"reviews" json:"reviews,omitempty"`
	ProcessedCompletions   []string              `bson:"processedCompletions" json:"-"`
	Version                int64                 `bson:"version" json:"-"`
	CreatedAt              time.Time             `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time             `bson:"updatedAt" json:"updatedAt"`
}

type CounselorAvailability struct {
	MaxPatientsPerDay int  `bson:"maxPatientsPerDay" json:"maxPatientsPerDay"`
	AllowsNewPatients bool `bson:"allowsNewPatients" json:"allowsNewPatients"`
	RequiresApproval  bool `bson:"requiresApproval" json:"requiresApproval"`
}

type Pricing struct {
	SessionFee float64 `bson:"sessionFee" json:"sessionFee"`
	Currency   string  `bson:"currency" json:"currency"`
}

type CounselorStatistics struct {
	Rating            float64 `bson:"rating" json:"rating"`
	TotalSessions     int     `bson:"totalSessions" json:"totalSessions"`
	CompletedSessions int     `bson:"completedSessions" json:"completedSessions"`
	CancelledSessions int     `bson:"cancelledSessions" json:"cancelledSessions"`
	TotalReviews      int     `bson:"totalReviews" json:"totalReviews"`
}

type AssignedPatient struct {
	UserID     string    `bson:"userId" json:"userId"`
	Status     string    `bson:"status" json:"status"`
	AssignedAt time.Time `bson:"assignedAt" json:"assignedAt"`
}

const PatientStatusActive = "active"

func (c *Counselor) SupportsSessionType(t SessionType) bool {
	for _, st := range c.SessionTypes {
		if st == t {
			return true
		}
	}
	return false
}

// CanAcceptNewPatient is true for an active, verified counselor that accepts new patients
// and is still below its assigned-patient ceiling.
func (c *Counselor) CanAcceptNewPatient() bool {
	return c.IsActive &&
		c.IsVerified &&
		c.Availability.AllowsNewPatients &&
		len(c.AssignedPatients) < c.Availability.MaxPatientsPerDay*PatientCapacityFactor
}

func (c *Counselor) HasPatient(userID string) bool {
	for _, p := range c.AssignedPatients {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (c *Counselor) HasProcessedCompletion(bookingID string) bool {
	for _, id := range c.ProcessedCompletions {
		if id == bookingID {
			return true
		}
	}
	return false
}

func (c *Counselor) DurationMinutes() int {
	if c.SessionDurationMinutes <= 0 {
		return DefaultSessionDurationMinutes
	}
	return c.SessionDurationMinutes
}

// CounselorProfile is the public directory projection of a Counselor.
type CounselorProfile struct {
	ID                     string                `json:"id"`
	Name                   string                `json:"name"`
	Title                  string                `json:"title,omitempty"`
	Bio                    string                `json:"bio,omitempty"`
	Gender                 Gender                `json:"gender"`
	Specializations        []string              `json:"specializations"`
	SessionTypes           []SessionType         `json:"sessionTypes"`
	SessionDurationMinutes int                   `json:"sessionDurationMinutes"`
	Availability           CounselorAvailability `json:"availability"`
	Pricing                Pricing               `json:"pricing"`
	AcceptingNewPatients   bool                  `json:"acceptingNewPatients"`
	Rating                 float64               `json:"rating"`
	TotalReviews           int                   `json:"totalReviews"`
	CompletedSessions      int                   `json:"completedSessions"`
}

func (c *Counselor) Profile() CounselorProfile {
	return CounselorProfile{
		ID:                     c.ID,
		Name:                   c.Name,
		Title:                  c.Title,
		Bio:                    c.Bio,
		Gender:                 c.Gender,
		Specializations:        c.Specializations,
		SessionTypes:           c.SessionTypes,
		SessionDurationMinutes: c.DurationMinutes(),
		Availability:           c.Availability,
		Pricing:                c.Pricing,
		AcceptingNewPatients:   c.CanAcceptNewPatient(),
		Rating:                 c.Statistics.Rating,
		TotalReviews:           c.Statistics.TotalReviews,
		CompletedSessions:      c.Statistics.CompletedSessions,
	}
}

// CounselorFilter narrows directory listings. Zero values do not filter.
type CounselorFilter struct {
	Gender         Gender
	Specialization string
	SessionType    SessionType
	AcceptingOnly  bool
}
