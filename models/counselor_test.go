package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func acceptingCounselor() Counselor {
	return Counselor{
		IsActive:     true,
		IsVerified:   true,
		SessionTypes: []SessionType{SessionVideoCall},
		Availability: CounselorAvailability{MaxPatientsPerDay: 2, AllowsNewPatients: true},
	}
}

func TestCanAcceptNewPatient(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Counselor)
		want   bool
	}{
		{"accepting", func(c *Counselor) {}, true},
		{"inactive", func(c *Counselor) { c.IsActive = false }, false},
		{"unverified", func(c *Counselor) { c.IsVerified = false }, false},
		{"closed to new patients", func(c *Counselor) { c.Availability.AllowsNewPatients = false }, false},
		{"one below ceiling", func(c *Counselor) { c.AssignedPatients = make([]AssignedPatient, 9) }, true},
		{"at ceiling", func(c *Counselor) { c.AssignedPatients = make([]AssignedPatient, 10) }, false},
		{"zero daily capacity", func(c *Counselor) { c.Availability.MaxPatientsPerDay = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := acceptingCounselor()
			tt.mutate(&c)
			assert.Equal(t, tt.want, c.CanAcceptNewPatient())
		})
	}
}

func TestCounselorHelpers(t *testing.T) {
	c := acceptingCounselor()
	c.AssignedPatients = []AssignedPatient{{UserID: "u-1"}}
	c.ProcessedCompletions = []string{"b-1"}

	assert.True(t, c.SupportsSessionType(SessionVideoCall))
	assert.False(t, c.SupportsSessionType(SessionInPerson))
	assert.True(t, c.HasPatient("u-1"))
	assert.False(t, c.HasPatient("u-2"))
	assert.True(t, c.HasProcessedCompletion("b-1"))
	assert.Equal(t, DefaultSessionDurationMinutes, c.DurationMinutes())

	c.SessionDurationMinutes = 30
	assert.Equal(t, 30, c.Profile().SessionDurationMinutes)
	assert.True(t, c.Profile().AcceptingNewPatients)
}

func TestGenderIsKnown(t *testing.T) {
	assert.True(t, GenderMale.IsKnown())
	assert.True(t, GenderFemale.IsKnown())
	assert.False(t, Gender("").IsKnown())
	assert.False(t, Gender("female").IsKnown())
}
