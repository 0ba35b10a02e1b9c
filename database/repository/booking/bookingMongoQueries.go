package bookingRepo

import (
	"context"
	"sort"
	"time"

	"mindwell/database"
	"mindwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var terminalStatuses = []models.BookingStatus{
	models.BookingCompleted,
	models.BookingCancelled,
	models.BookingNoShow,
}

func (r *MongoBookingRepo) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, database.Classify(op, err)
	}
	defer cursor.Close(ctx)

	out := []models.Booking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, database.Classify(op, err)
	}
	return out, nil
}

// HasSlotConflict reports whether a slot-holding booking already occupies counselor/date/time.
func (r *MongoBookingRepo) HasSlotConflict(ctx context.Context, counselorID, date, timeSlot string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"counselorId":         counselorID,
		"sessionDetails.date": date,
		"sessionDetails.time": timeSlot,
		"slotHeld":            true,
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, database.Classify("slot conflict check", err)
	}
	return n > 0, nil
}

// BookedTimes returns the sorted time strings held on a counselor's date.
func (r *MongoBookingRepo) BookedTimes(ctx context.Context, counselorID, date string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"sessionDetails.time": 1, "_id": 0})
	bookings, err := r.find(ctx, "booked times", bson.M{
		"counselorId":         counselorID,
		"sessionDetails.date": date,
		"slotHeld":            true,
	}, opts)
	if err != nil {
		return nil, err
	}
	times := make([]string, 0, len(bookings))
	for _, b := range bookings {
		times = append(times, b.Session.Time)
	}
	sort.Strings(times)
	return times, nil
}

func (r *MongoBookingRepo) HasCompletedBooking(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"userId": userID, "status": models.BookingCompleted},
		options.Count().SetLimit(1))
	if err != nil {
		return false, database.Classify("completed booking lookup", err)
	}
	return n > 0, nil
}

func (r *MongoBookingRepo) ListByUser(ctx context.Context, userID string, opts ListOptions) ([]models.Booking, error) {
	order := 1
	if opts.Newest {
		order = -1
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	return r.find(ctx, "list bookings for "+userID, bson.M{"userId": userID}, findOpts)
}

// ListUpcoming returns pending or confirmed bookings scheduled at or after now, soonest first.
func (r *MongoBookingRepo) ListUpcoming(ctx context.Context, userID string, now time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"userId":                       userID,
		"sessionDetails.scheduledDate": bson.M{"$gte": now},
		"status":                       bson.M{"$in": []models.BookingStatus{models.BookingPending, models.BookingConfirmed}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "sessionDetails.scheduledDate", Value: 1}})
	return r.find(ctx, "list upcoming for "+userID, filter, opts)
}

// ListPast returns bookings already in the past or in a terminal status, newest first.
func (r *MongoBookingRepo) ListPast(ctx context.Context, userID string, now time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"userId": userID,
		"$or": bson.A{
			bson.M{"sessionDetails.scheduledDate": bson.M{"$lt": now}},
			bson.M{"status": bson.M{"$in": terminalStatuses}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "sessionDetails.scheduledDate", Value: -1}})
	return r.find(ctx, "list past for "+userID, filter, opts)
}

func (r *MongoBookingRepo) ListByCounselor(ctx context.Context, counselorID, date string) ([]models.Booking, error) {
	filter := bson.M{"counselorId": counselorID}
	if date != "" {
		filter["sessionDetails.date"] = date
	}
	opts := options.Find().SetSort(bson.D{{Key: "sessionDetails.scheduledDate", Value: 1}})
	return r.find(ctx, "list bookings for counselor "+counselorID, filter, opts)
}
