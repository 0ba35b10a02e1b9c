package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindwell/models"
	"mindwell/services/booking"
	"mindwell/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockBookingTasks struct {
	mock.Mock
}

func (m *MockBookingTasks) MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingTasks) ApplyCompletionStats(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func noShowTask(t *testing.T, id string) *asynq.Task {
	task, _, err := tasks.NewNoShowCheckTask(id, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestHandleNoShowCheck(t *testing.T) {
	tests := []struct {
		name      string
		svcErr    error
		wantErr   bool
		skipRetry bool
	}{
		{name: "marked", svcErr: nil},
		{name: "already settled", svcErr: booking.ErrInvalidState},
		{name: "booking gone", svcErr: booking.ErrBookingNotFound},
		{name: "storage down retries", svcErr: booking.ErrStorageUnavailable, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingTasks)
			svc.On("MarkNoShow", mock.Anything, "b-1").Return(&models.Booking{ID: "b-1"}, tt.svcErr)

			err := HandleNoShowCheck(svc, zap.NewNop())(context.Background(), noShowTask(t, "b-1"))
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, errors.Is(err, asynq.SkipRetry))
			} else {
				assert.NoError(t, err)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleNoShowCheck_MalformedPayloadSkipsRetry(t *testing.T) {
	svc := new(MockBookingTasks)
	err := HandleNoShowCheck(svc, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeNoShowCheck, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
	svc.AssertNotCalled(t, "MarkNoShow", mock.Anything, mock.Anything)
}

func TestHandleStatsRetry(t *testing.T) {
	task, _, err := tasks.NewStatsRetryTask("b-9")
	assert.NoError(t, err)

	t.Run("applied", func(t *testing.T) {
		svc := new(MockBookingTasks)
		svc.On("ApplyCompletionStats", mock.Anything, "b-9").Return(nil)
		assert.NoError(t, HandleStatsRetry(svc, zap.NewNop())(context.Background(), task))
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		svc := new(MockBookingTasks)
		svc.On("ApplyCompletionStats", mock.Anything, "b-9").Return(booking.ErrStorageUnavailable)
		err := HandleStatsRetry(svc, zap.NewNop())(context.Background(), task)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("booking not completed is abandoned", func(t *testing.T) {
		svc := new(MockBookingTasks)
		svc.On("ApplyCompletionStats", mock.Anything, "b-9").Return(booking.ErrInvalidState)
		err := HandleStatsRetry(svc, zap.NewNop())(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
