package booking

import (
	"context"
	"testing"
	"time"

	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		ratings []int
		want    float64
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{4, 5}, 4.5},
		{[]int{1, 2, 2}, 1.7},
		{[]int{4, 4, 5, 4}, 4.3},
		{[]int{3, 4, 4}, 3.7},
		{[]int{1, 1, 1, 2, 2, 2, 2, 2}, 1.6},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, averageRating(tt.ratings), 1e-9, "%v", tt.ratings)
	}
}

func TestAggregateCompletion(t *testing.T) {
	c := &models.Counselor{Reviews: []models.Review{{Rating: 2}, {Rating: 3}}}

	withReview := aggregateCompletion(c, "b-1", &models.Review{BookingID: "b-1", Rating: 5})
	assert.Equal(t, "b-1", withReview.BookingID)
	assert.Equal(t, 3.3, withReview.Rating)
	assert.Equal(t, 3, withReview.TotalReviews)

	without := aggregateCompletion(c, "b-2", nil)
	assert.Nil(t, without.Review)
	assert.Zero(t, without.TotalReviews)
}

func completedFixture(t *testing.T) *fixture {
	f := newFixture(t, femaleCounselor("c-1"))
	b := f.seedBooking("b-1", "u-1", "c-1", models.BookingCompleted, testNow.Add(-time.Hour), models.PaymentPaid)
	b.Feedback = &models.SessionFeedback{Rating: intPtr(4), SubmittedAt: testNow}
	f.bookings.put(b)
	return f
}

func TestApplyCompletionStats_Idempotent(t *testing.T) {
	f := completedFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ApplyCompletionStats(ctx, "b-1"))
	require.NoError(t, f.svc.ApplyCompletionStats(ctx, "b-1"))

	c := f.counselors.get("c-1")
	assert.Equal(t, 1, c.Statistics.CompletedSessions)
	assert.Len(t, c.Reviews, 1)
	assert.Equal(t, 4.0, c.Statistics.Rating)
}

func TestApplyCompletionStats_AppliedButNotFlagged(t *testing.T) {
	f := completedFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ApplyCompletionStats(ctx, "b-1"))
	// Simulate a crash between the counselor write and the booking flag.
	b := f.bookings.get("b-1")
	b.StatsApplied = false
	f.bookings.put(b)

	require.NoError(t, f.svc.ApplyCompletionStats(ctx, "b-1"))
	assert.Equal(t, 1, f.counselors.get("c-1").Statistics.CompletedSessions)
	assert.True(t, f.bookings.get("b-1").StatsApplied)
}

func TestApplyCompletionStats_RetriesVersionConflicts(t *testing.T) {
	f := completedFixture(t)
	f.counselors.conflicts = 2

	require.NoError(t, f.svc.ApplyCompletionStats(context.Background(), "b-1"))
	assert.Equal(t, 3, f.counselors.applyCalls)
	assert.Equal(t, 1, f.counselors.get("c-1").Statistics.CompletedSessions)
}

func TestApplyCompletionStats_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := completedFixture(t)
	f.counselors.conflicts = 100

	err := f.svc.ApplyCompletionStats(context.Background(), "b-1")
	assert.ErrorIs(t, err, counselorRepo.ErrVersionConflict)
	assert.Equal(t, maxStatsAttempts, f.counselors.applyCalls)
	assert.False(t, f.bookings.get("b-1").StatsApplied)
}

func TestApplyCompletionStats_RequiresCompletedBooking(t *testing.T) {
	f := newFixture(t, femaleCounselor("c-1"))
	f.seedBooking("b-1", "u-1", "c-1", models.BookingConfirmed, testNow.Add(time.Hour), models.PaymentPaid)

	assert.ErrorIs(t, f.svc.ApplyCompletionStats(context.Background(), "b-1"), ErrInvalidState)
	assert.ErrorIs(t, f.svc.ApplyCompletionStats(context.Background(), "missing"), ErrBookingNotFound)
}
