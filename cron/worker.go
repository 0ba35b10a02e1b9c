package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindwell/config"
	"mindwell/models"
	"mindwell/services/booking"
	"mindwell/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingTasks is the part of the booking service the worker drives.
type BookingTasks interface {
	MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error)
	ApplyCompletionStats(ctx context.Context, bookingID string) error
}

// RedisOpt is the asynq connection for the configured queue DB.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitBookingWorker starts the async worker in the background and returns it for shutdown.
func InitBookingWorker(svc BookingTasks, logger *zap.Logger) *asynq.Server {
	log := logger.With(zap.String("component", "booking-worker"))

	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueBookings: 6,
				"default":           1,
			},
			Logger: log.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNoShowCheck, HandleNoShowCheck(svc, log))
	mux.HandleFunc(tasks.TypeStatsRetry, HandleStatsRetry(svc, log))

	go func() {
		log.Info("Starting booking worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil || errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			log.Error("Booking worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				log.Fatal("Booking worker exhausted its start attempts")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleNoShowCheck marks the booking NoShow if nobody started or closed it in time.
func HandleNoShowCheck(svc BookingTasks, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingPayload(task)
		if err != nil {
			log.Error("Dropping malformed task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		_, err = svc.MarkNoShow(ctx, p.BookingID)
		switch {
		case err == nil:
			log.Info("Booking marked as no-show", zap.String("bookingId", p.BookingID))
			return nil
		case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrBookingNotFound):
			// Session was held, cancelled or already settled.
			log.Debug("No-show check found nothing to do", zap.String("bookingId", p.BookingID), zap.Error(err))
			return nil
		default:
			log.Warn("No-show check failed", zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
	}
}

// HandleStatsRetry re-applies completion statistics; the service call is idempotent.
func HandleStatsRetry(svc BookingTasks, log *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingPayload(task)
		if err != nil {
			log.Error("Dropping malformed task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		err = svc.ApplyCompletionStats(ctx, p.BookingID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrBookingNotFound):
			log.Warn("Statistics retry abandoned", zap.String("bookingId", p.BookingID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			log.Warn("Statistics retry failed", zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
	}
}
