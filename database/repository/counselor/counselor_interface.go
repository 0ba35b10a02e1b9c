package counselorRepo

import (
	"context"
	"errors"
	"time"

	"mindwell/models"
)

var (
	ErrNotFound = errors.New("counselor not found")
	// ErrVersionConflict means the counselor changed between read and write; re-read and retry.
	ErrVersionConflict = errors.New("counselor modified concurrently")
)

// CounselorRepository reads the counselor directory and applies the counter side effects
// of bookings.
type CounselorRepository interface {
	Create(ctx context.Context, c *models.Counselor) error
	GetByID(ctx context.Context, id string) (*models.Counselor, error)
	List(ctx context.Context, filter models.CounselorFilter) ([]models.Counselor, error)
	SetActive(ctx context.Context, id string, active bool) error

	// AssignPatient appends userID to assignedPatients unless already present.
	AssignPatient(ctx context.Context, id, userID string, at time.Time) error
	IncrementTotalSessions(ctx context.Context, id string) error
	IncrementCancelledSessions(ctx context.Context, id string) error

	// ApplyCompletion increments completedSessions and, with a review, appends it and stores the
	// recomputed rating. It is a no-op returning false when the booking id was already applied,
	// and returns ErrVersionConflict when expectedVersion is stale.
	ApplyCompletion(ctx context.Context, id string, expectedVersion int64, c models.Completion) (bool, error)
}
