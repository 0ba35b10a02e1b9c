package bookingRepo

import (
	"context"
	"errors"
	"time"

	"mindwell/database"
	"mindwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Transition moves a booking to upd.Status only if its stored status is in from (and, when
// upd.ExpectPayment is set, its payment status matches). Returns the updated document, or
// ErrStatusConflict when the precondition no longer holds.
func (r *MongoBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, upd models.BookingUpdate) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	if upd.ExpectPayment != nil {
		filter["payment.status"] = *upd.ExpectPayment
	}

	set := bson.M{
		"status":    upd.Status,
		"slotHeld":  upd.Status.HoldsSlot(),
		"updatedAt": upd.At,
	}
	if upd.PaymentStatus != nil {
		set["payment.status"] = *upd.PaymentStatus
	}
	if upd.Cancellation != nil {
		set["cancellation"] = upd.Cancellation
	}
	if upd.Feedback != nil {
		set["feedback"] = upd.Feedback
	}
	if upd.StartedAt != nil {
		set["startedAt"] = upd.StartedAt
	}
	if upd.CompletedAt != nil {
		set["completedAt"] = upd.CompletedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusConflict
		}
		return nil, database.Classify("transition booking "+id, err)
	}
	return &out, nil
}

// SetPaymentStatus records a payment outcome on a booking that still holds its slot.
func (r *MongoBookingRepo) SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus, at time.Time) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":             id,
		"slotHeld":       true,
		"payment.status": bson.M{"$in": from},
	}
	update := bson.M{"$set": bson.M{"payment.status": to, "updatedAt": at.UTC()}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusConflict
		}
		return nil, database.Classify("set payment status "+id, err)
	}
	return &out, nil
}

func (r *MongoBookingRepo) MarkStatsApplied(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"statsApplied": true}})
	if err != nil {
		return database.Classify("mark stats applied "+id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
