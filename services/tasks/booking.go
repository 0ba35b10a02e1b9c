package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNoShowCheck = "booking:no-show-check"
	TypeStatsRetry  = "booking:stats-retry"

	QueueBookings = "bookings"
)

// BookingPayload identifies the booking a task acts on.
type BookingPayload struct {
	BookingID string `json:"bookingId"`
}

func NewNoShowCheckTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(BookingPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNoShowCheck, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.Queue(QueueBookings),
		// One pending check per booking.
		asynq.TaskID("no-show:" + bookingID),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func NewStatsRetryTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(BookingPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeStatsRetry, b)
	opts := []asynq.Option{
		asynq.ProcessIn(30 * time.Second),
		asynq.Queue(QueueBookings),
		asynq.TaskID("stats:" + bookingID),
		asynq.MaxRetry(10),
	}
	return task, opts, nil
}

func ParseBookingPayload(t *asynq.Task) (BookingPayload, error) {
	var p BookingPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", t.Type(), err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid %s payload: missing bookingId", t.Type())
	}
	return p, nil
}

// Enqueuer is the subset of *asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues booking tasks on asynq.
type Scheduler struct {
	client Enqueuer
}

func NewScheduler(client Enqueuer) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) ScheduleNoShowCheck(ctx context.Context, bookingID string, at time.Time) error {
	task, opts, err := NewNoShowCheckTask(bookingID, at)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, opts)
}

func (s *Scheduler) ScheduleStatsRetry(ctx context.Context, bookingID string) error {
	task, opts, err := NewStatsRetryTask(bookingID)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, opts)
}

func (s *Scheduler) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	_, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Already scheduled.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	return nil
}
